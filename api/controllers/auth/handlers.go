package auth

import (
	"net/http"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/api/middleware"
	"github.com/aurelle-jewelry/storefront-backend/api/responses"
	"github.com/aurelle-jewelry/storefront-backend/api/validators"
	customersvc "github.com/aurelle-jewelry/storefront-backend/internal/customer"
	pkgauth "github.com/aurelle-jewelry/storefront-backend/pkg/auth"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

// Login starts the PKCE flow and redirects the browser to the identity
// provider's authorize URL.
func Login(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorizeURL, _, err := svc.BeginLogin(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, authorizeURL, http.StatusFound)
	}
}

// Callback completes the PKCE flow. The guest session is upgraded in place,
// keeping the storefront session ID, and the refreshed token replaces the
// session cookie.
func Callback(svc customersvc.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := validators.RequireQuery(r, "state")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.RequireQuery(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}

		accessID, rec, err := svc.CompleteLogin(r.Context(), customersvc.CompleteLoginInput{
			State:       state,
			Code:        code,
			PriorAccess: middleware.AccessIDFromContext(r.Context()),
			SessionID:   sessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
			SessionID:  rec.SessionID,
			CustomerID: rec.CustomerID,
			Email:      rec.Email,
			Guest:      false,
			JTI:        accessID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint customer token"))
			return
		}
		middleware.SetSessionCookie(w, cfg, token)

		payload := map[string]any{"customer_id": derefOrEmpty(rec.CustomerID)}
		if rec.Email != nil {
			payload["email"] = *rec.Email
		}
		responses.WriteSuccess(w, payload)
	}
}

// Logout revokes the server-side session and expires the cookie.
func Logout(svc customersvc.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID != "" {
			if err := svc.Logout(r.Context(), accessID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		middleware.ClearSessionCookie(w, cfg)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// Me returns the authenticated customer's profile.
func Me(svc customersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}
		profile, err := svc.Profile(r.Context(), accessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
