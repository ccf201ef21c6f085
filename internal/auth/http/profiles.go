package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/pkg/httpx"
)

// ProfilesHandler serves the /v1/profiles endpoints. All routes require a
// user access token; the subject from the token is the owner, so callers
// can only ever see their own profiles.
type ProfilesHandler struct {
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
}

func (h *ProfilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	profiles, err := h.ProfileService.ListProfiles(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}

	httpx.WriteJSON(w, http.StatusOK, struct {
		Profiles []ProfileResponse `json:"profiles"`
	}{out})
}

func (h *ProfilesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidInput.Write(w)
		return
	}

	profile, err := h.ProfileService.CreateProfile(r.Context(), email, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *ProfilesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	id, ok := profileID(w, r)
	if !ok {
		return
	}

	profile, err := h.ProfileService.GetProfile(r.Context(), email, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *ProfilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	id, ok := profileID(w, r)
	if !ok {
		return
	}

	if err := h.ProfileService.DeleteProfile(r.Context(), email, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSelect re-scopes the caller's session to the named profile and
// returns a fresh bundle.
func (h *ProfilesHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	id, ok := profileID(w, r)
	if !ok {
		return
	}

	bundle, err := h.AuthService.SelectProfile(r.Context(), email, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeBundle(w, bundle)
}

// HandleTransfer mints an encrypted profile token for the external
// audience.
func (h *ProfilesHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())

	id, ok := profileID(w, r)
	if !ok {
		return
	}

	token, ttl, err := h.AuthService.TransferProfile(r.Context(), email, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		ExpiresIn int    `json:"expires_in"`
	}{token, service.TokenType, int(ttl.Seconds())})
}

func profileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		errProfileNotFound.Write(w)
		return 0, false
	}
	return id, true
}
