package api

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/clubhub/club-backend/errors"
)

// authenticator is a middleware that handles valid JWT tokens. If successful,
// the user identifier is added to the HTTP header as `X-User-Id`, so that it
// can be used by the next handlers.
func (a *API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			errors.ErrUnauthorized.Write(w)
			return
		}
		if token == nil || jwt.Validate(token, jwt.WithRequiredClaim("userId")) != nil {
			errors.ErrUnauthorized.Withf("userId claim not found in JWT token").Write(w)
			return
		}
		// retrieve the `userId` from the claims and add it to the HTTP header
		r.Header.Add("X-User-Id", claims["userId"].(string))
		// token is authenticated, pass it through
		next.ServeHTTP(w, r)
	})
}
