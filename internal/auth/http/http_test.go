package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/internal/auth/store/drivers/sqlite"
	"github.com/forrrest/auth/pkg/cryptox"
	"github.com/forrrest/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var requestCounter atomic.Int64

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "auth.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifier(keys, "test-issuer", []string{"test-aud"})

	tokens := &service.TokenService{
		Signer:   signer,
		Store:    st,
		Issuer:   "test-issuer",
		Audience: []string{"test-aud"},
		Policy:   jwtx.DefaultPolicy(),
	}

	profiles := &service.ProfileService{Store: st}

	router := NewRouter(keys, verifier, "test", st, slog.New(slog.DiscardHandler))
	router.AuthService = &service.AuthService{
		Users:      &service.UserService{Store: st},
		Profiles:   profiles,
		Tokens:     tokens,
		Validation: &service.ValidationService{Verifier: verifier, Store: st},
	}
	router.ProfileService = profiles
	router.ApplyRoutes()

	return router
}

// doJSON issues a request with a unique client IP per call so the per-IP
// rate limits never interfere across subtests.
func doJSON(t *testing.T, router *Router, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.%d.%d", requestCounter.Add(1)%250, requestCounter.Load()/250%250))
	for _, fn := range mutate {
		fn(req)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func signupAndLogin(t *testing.T, router *Router, email string) BundleResponse {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
		"email": email, "username": "tester", "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
		"email": email, "password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var bundle BundleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	return bundle
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestSignupEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("creates account", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
			"email": "alice@example.com", "username": "alice", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Email   string          `json:"email"`
			Profile ProfileResponse `json:"profile"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "alice@example.com", resp.Email)
		require.True(t, resp.Profile.Default)
	})

	t.Run("duplicate email returns U001", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", map[string]string{
			"email": "alice@example.com", "username": "alice", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "U001", errorCode(t, rec))
	})

	t.Run("bad body returns C002", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/signup", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "C002", errorCode(t, rec))
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")

	t.Run("returns the full bundle", func(t *testing.T) {
		require.NotEmpty(t, bundle.UserToken.AccessToken)
		require.NotEmpty(t, bundle.ProfileToken.RefreshToken)
		require.Equal(t, "Bearer", bundle.UserToken.TokenType)
		require.True(t, bundle.Profile.Default)
	})

	t.Run("sets the refresh cookie", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "alice@example.com", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		require.Equal(t, RefreshCookieName, cookie.Name)
		require.Equal(t, "/v1/auth", cookie.Path)
		require.True(t, cookie.HttpOnly)
		require.True(t, cookie.Secure)
		require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		require.Positive(t, cookie.MaxAge)
	})

	t.Run("wrong password returns U003", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "alice@example.com", "password": "nope",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "U003", errorCode(t, rec))
	})

	t.Run("unknown user returns U002", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", map[string]string{
			"email": "ghost@example.com", "password": "nope",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "U002", errorCode(t, rec))
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")

	t.Run("body token rotates the session", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"refresh_token": bundle.UserToken.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var next BundleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
		require.NotEqual(t, bundle.UserToken.RefreshToken, next.UserToken.RefreshToken)

		// Replaying the original now fails and clears the cookie.
		rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"refresh_token": bundle.UserToken.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "A002", errorCode(t, rec))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, RefreshCookieName, cookies[0].Name)
		require.Negative(t, cookies[0].MaxAge)
	})

	t.Run("cookie token works for browsers", func(t *testing.T) {
		fresh := signupAndLogin(t, router, "bob@example.com")

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: fresh.UserToken.RefreshToken})
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("missing token returns A002", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "A002", errorCode(t, rec))
	})

	t.Run("unknown profile_id keeps the cookie", func(t *testing.T) {
		fresh := signupAndLogin(t, router, "carol@example.com")

		rec := doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]any{
			"refresh_token": fresh.UserToken.RefreshToken,
			"profile_id":    int64(9999),
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "P001", errorCode(t, rec))
		require.Empty(t, rec.Result().Cookies())

		// The token was never consumed and still rotates the session.
		rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"refresh_token": fresh.UserToken.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestUsersMeEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")

	t.Run("returns the authenticated principal", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil,
			withBearer(bundle.UserToken.AccessToken))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "alice@example.com", resp.Email)
		require.Equal(t, "tester", resp.Username)
		require.False(t, resp.CreatedAt.IsZero())
	})

	t.Run("requires authentication", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("profile access token is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil,
			withBearer(bundle.ProfileToken.AccessToken))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")

	t.Run("requires a user access token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/logout", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		// Refresh tokens are not bearer credentials.
		rec = doJSON(t, router, http.MethodPost, "/v1/auth/logout", nil,
			withBearer(bundle.UserToken.RefreshToken))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revokes and clears the cookie", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/logout", nil,
			withBearer(bundle.UserToken.AccessToken))
		require.Equal(t, http.StatusNoContent, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Negative(t, cookies[0].MaxAge)

		// The session refresh token no longer works.
		rec = doJSON(t, router, http.MethodPost, "/v1/auth/refresh", map[string]string{
			"refresh_token": bundle.UserToken.RefreshToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")
	access := bundle.UserToken.AccessToken

	t.Run("requires authentication", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/profiles", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("profile access token is rejected for account management", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/profiles", nil,
			withBearer(bundle.ProfileToken.AccessToken))
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("create list get delete", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/profiles", map[string]string{"name": "Gaming"}, withBearer(access))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created ProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.Equal(t, "Gaming", created.Name)
		require.False(t, created.Default)

		rec = doJSON(t, router, http.MethodGet, "/v1/profiles", nil, withBearer(access))
		require.Equal(t, http.StatusOK, rec.Code)

		var list struct {
			Profiles []ProfileResponse `json:"profiles"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Profiles, 2)
		require.True(t, list.Profiles[0].Default, "default profile listed first")

		rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/profiles/%d", created.ID), nil, withBearer(access))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/profiles/%d", created.ID), nil, withBearer(access))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/profiles/%d", created.ID), nil, withBearer(access))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "P001", errorCode(t, rec))
	})

	t.Run("duplicate name returns P002", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/profiles", map[string]string{"name": "Twice"}, withBearer(access))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/v1/profiles", map[string]string{"name": "Twice"}, withBearer(access))
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "P002", errorCode(t, rec))
	})

	t.Run("deleting the default profile returns P003", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/v1/profiles/%d", bundle.Profile.ID), nil, withBearer(access))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "P003", errorCode(t, rec))
	})

	t.Run("select issues a rescoped bundle", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/profiles", map[string]string{"name": "Work"}, withBearer(access))
		require.Equal(t, http.StatusCreated, rec.Code)

		var created ProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/profiles/%d/select", created.ID), nil, withBearer(access))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var next BundleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
		require.Equal(t, created.ID, next.Profile.ID)
	})

	t.Run("another principal's profile is invisible", func(t *testing.T) {
		other := signupAndLogin(t, router, "bob@example.com")

		rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/profiles/%d", bundle.Profile.ID), nil,
			withBearer(other.UserToken.AccessToken))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "P001", errorCode(t, rec))
	})
}

func TestValidateEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	bundle := signupAndLogin(t, router, "alice@example.com")

	t.Run("reports claims for a live token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/validate", map[string]any{
			"token": bundle.ProfileToken.AccessToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Kind      string `json:"kind"`
			Role      string `json:"role"`
			ProfileID int64  `json:"profile_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, string(jwtx.KindProfileAccess), resp.Kind)
		require.Equal(t, jwtx.RoleProfile, resp.Role)
		require.Equal(t, bundle.Profile.ID, resp.ProfileID)
	})

	t.Run("rejects garbage with A002", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/v1/auth/validate", map[string]any{
			"token": "garbage",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "A002", errorCode(t, rec))
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	t.Run("livez", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/livez", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("readyz", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/readyz", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ok", resp.Status)
	})

	t.Run("jwks lists the signing key", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/.well-known/jwks.json", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var jwks jwtx.JWKS
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jwks))
		require.Len(t, jwks.Keys, 1)
		require.Equal(t, "test-key", jwks.Keys[0].Kid)
	})
}
