package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/forrrest/auth/internal/auth/domain"
	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/pkg/httpx"
)

// TokenInfoResponse is one access/refresh pair on the wire. Lifetimes are
// whole seconds.
type TokenInfoResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
}

type ProfileResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Default   bool      `json:"default"`
	CreatedAt time.Time `json:"created_at"`
}

// BundleResponse is the full session payload returned by login, refresh and
// profile selection.
type BundleResponse struct {
	UserToken    TokenInfoResponse `json:"user_token"`
	ProfileToken TokenInfoResponse `json:"profile_token"`
	Profile      ProfileResponse   `json:"profile"`
}

func toTokenInfoResponse(t domain.TokenInfo) TokenInfoResponse {
	return TokenInfoResponse{
		AccessToken:      t.AccessToken,
		RefreshToken:     t.RefreshToken,
		TokenType:        t.TokenType,
		ExpiresIn:        int(t.ExpiresIn.Seconds()),
		RefreshExpiresIn: int(t.RefreshExpiresIn.Seconds()),
	}
}

func toProfileResponse(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Default:   p.Default,
		CreatedAt: p.CreatedAt,
	}
}

func toBundleResponse(b domain.AuthBundle) BundleResponse {
	return BundleResponse{
		UserToken:    toTokenInfoResponse(b.UserToken),
		ProfileToken: toTokenInfoResponse(b.ProfileToken),
		Profile:      toProfileResponse(b.Profile),
	}
}

// writeBundle writes the session payload and mirrors the user-refresh token
// into the cookie for browser clients.
func writeBundle(w http.ResponseWriter, b domain.AuthBundle) {
	setRefreshCookie(w, b.UserToken.RefreshToken, b.UserToken.RefreshExpiresIn)
	httpx.WriteJSON(w, http.StatusOK, toBundleResponse(b))
}

// SignupHandler serves POST /v1/auth/signup.
type SignupHandler struct {
	AuthService *service.AuthService
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidInput.Write(w)
		return
	}

	user, profile, err := h.AuthService.Signup(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, struct {
		Email    string          `json:"email"`
		Username string          `json:"username"`
		Profile  ProfileResponse `json:"profile"`
	}{
		Email:    user.Email,
		Username: user.Username,
		Profile:  toProfileResponse(profile),
	})
}

// LoginHandler serves POST /v1/auth/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidInput.Write(w)
		return
	}

	bundle, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeBundle(w, bundle)
}

// RefreshHandler serves POST /v1/auth/refresh. The refresh token comes from
// the body or, for browsers, the cookie. An optional profile_id re-scopes
// the new bundle.
type RefreshHandler struct {
	AuthService *service.AuthService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		ProfileID    *int64 `json:"profile_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errInvalidInput.Write(w)
			return
		}
	}

	token := refreshTokenFromRequest(r, req.RefreshToken)
	if token == "" {
		errInvalidToken.Write(w)
		return
	}

	bundle, err := h.AuthService.Refresh(r.Context(), token, req.ProfileID)
	if err != nil {
		// A rejected token means the cookie is worthless; drop it. Other
		// failures, like a bad profile_id, never consumed the token and the
		// browser keeps its still-valid credential.
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrExpiredToken) {
			clearRefreshCookie(w)
		}
		writeServiceError(w, r, err)
		return
	}

	writeBundle(w, bundle)
}

// LogoutHandler serves POST /v1/auth/logout. Requires a valid user access
// token; revokes the session server-side and clears the cookie.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())
	if email == "" {
		errInvalidToken.Write(w)
		return
	}

	if err := h.AuthService.Logout(r.Context(), email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// ValidateHandler serves POST /v1/auth/validate. It accepts either a signed
// first-party token or an encrypted transfer token and reports the claims
// when valid.
type ValidateHandler struct {
	AuthService *service.AuthService
}

func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token     string `json:"token"`
		Encrypted bool   `json:"encrypted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidInput.Write(w)
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		errInvalidInput.Write(w)
		return
	}

	ctx := r.Context()

	if req.Encrypted {
		claims, err := h.AuthService.Validation.ValidateTransferToken(ctx, token)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, claimsResponse(claims.Subject, string(claims.Kind), claims.Role, claims.ProfileID))
		return
	}

	claims, err := h.AuthService.ValidateInboundToken(ctx, token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, claimsResponse(claims.Subject, string(claims.Kind), claims.Role, claims.ProfileID))
}

func claimsResponse(subject, kind, role string, profileID int64) any {
	return struct {
		Subject   string `json:"subject"`
		Kind      string `json:"kind"`
		Role      string `json:"role"`
		ProfileID int64  `json:"profile_id,omitempty"`
	}{subject, kind, role, profileID}
}
