package http

import (
	"net/http"

	"github.com/forrrest/auth/pkg/httpx"
	"github.com/forrrest/auth/pkg/jwtx"
)

// JWKSHandler exposes the public signing keys so downstream services can
// verify first-party tokens without calling back.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
