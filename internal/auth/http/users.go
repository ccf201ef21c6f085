package http

import (
	"net/http"
	"time"

	"github.com/forrrest/auth/internal/auth/service"
	"github.com/forrrest/auth/pkg/httpx"
)

// UserResponse is the authenticated principal on the wire. The password hash
// never leaves the service layer.
type UserResponse struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UsersHandler serves the account endpoints under /v1/users.
type UsersHandler struct {
	AuthService *service.AuthService
}

// HandleMe serves GET /v1/users/me.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email := httpx.SubjectFromContext(r.Context())
	if email == "" {
		errInvalidToken.Write(w)
		return
	}

	user, err := h.AuthService.Users.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserResponse{
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	})
}
