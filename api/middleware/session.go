package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/aurelle-jewelry/storefront-backend/api/responses"
	pkgauth "github.com/aurelle-jewelry/storefront-backend/pkg/auth"
	"github.com/aurelle-jewelry/storefront-backend/pkg/auth/session"
	"github.com/aurelle-jewelry/storefront-backend/pkg/config"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
)

// SessionIssuer is the session manager surface the middleware needs.
type SessionIssuer interface {
	Create(ctx context.Context, rec session.Record) (string, error)
	Get(ctx context.Context, accessID string) (*session.Record, error)
}

// Session resolves the storefront session cookie, or issues a fresh guest
// session when the cookie is absent, expired, or no longer backed by a
// record. Guests get a session ID so cart and wishlist work before login.
func Session(cfg config.SessionConfig, sessions SessionIssuer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if rec, accessID, ok := resolveSession(ctx, cfg, sessions, r); ok {
				ctx = seedSessionContext(ctx, logg, accessID, rec)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			rec := session.Record{SessionID: session.NewSessionID(), Guest: true}
			accessID, err := sessions.Create(ctx, rec)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest session"))
				return
			}
			token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
				SessionID: rec.SessionID,
				Guest:     true,
				JTI:       accessID,
			})
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint guest token"))
				return
			}
			SetSessionCookie(w, cfg, token)

			ctx = seedSessionContext(ctx, logg, accessID, &rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(ctx context.Context, cfg config.SessionConfig, sessions SessionIssuer, r *http.Request) (*session.Record, string, bool) {
	cookie, err := r.Cookie(cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, "", false
	}
	claims, err := pkgauth.ParseAccessToken(cfg, cookie.Value)
	if err != nil || claims.ID == "" {
		return nil, "", false
	}
	rec, err := sessions.Get(ctx, claims.ID)
	if err != nil {
		return nil, "", false
	}
	return rec, claims.ID, true
}

func seedSessionContext(ctx context.Context, logg *logger.Logger, accessID string, rec *session.Record) context.Context {
	ctx = context.WithValue(ctx, ctxAccessID, accessID)
	ctx = context.WithValue(ctx, ctxSessionID, rec.SessionID)
	ctx = context.WithValue(ctx, ctxGuest, rec.Guest)
	if rec.CustomerID != nil {
		ctx = context.WithValue(ctx, ctxCustomerID, *rec.CustomerID)
	}
	if logg != nil {
		ctx = logg.WithSessionID(ctx, rec.SessionID)
		if rec.CustomerID != nil {
			ctx = logg.WithCustomerID(ctx, *rec.CustomerID)
		}
	}
	return ctx
}

// SetSessionCookie writes the signed access token as the session cookie.
func SetSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(cfg.AccessTokenTTL().Seconds()),
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
