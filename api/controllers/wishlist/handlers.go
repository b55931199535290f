package wishlist

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aurelle-jewelry/storefront-backend/api/middleware"
	"github.com/aurelle-jewelry/storefront-backend/api/responses"
	"github.com/aurelle-jewelry/storefront-backend/api/validators"
	wishlistsvc "github.com/aurelle-jewelry/storefront-backend/internal/wishlist"
	pkgerrors "github.com/aurelle-jewelry/storefront-backend/pkg/errors"
	"github.com/aurelle-jewelry/storefront-backend/pkg/logger"
	"github.com/aurelle-jewelry/storefront-backend/pkg/pagination"
)

// ToggleRequest mirrors the product card payload the storefront sends. The
// service accepts either a product reference, so neither field is required
// on its own.
type ToggleRequest struct {
	ID           string  `json:"id"`
	Handle       string  `json:"handle"`
	Title        string  `json:"title"`
	Price        string  `json:"price"`
	DefaultImage string  `json:"default_image"`
	HoverImage   *string `json:"hover_image,omitempty"`
	VariantID    *string `json:"variant_id,omitempty"`
}

// List returns the owner's wishlist in insertion order. With a limit or
// cursor query parameter it serves one page and the cursor for the next.
func List(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		if query.Get("limit") == "" && query.Get("cursor") == "" {
			items, err := svc.List(r.Context(), owner)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"items": items})
			return
		}

		limit, err := parseLimit(query.Get("limit"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.ListPage(r.Context(), owner, pagination.Params{
			Limit:  limit,
			Cursor: query.Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be an integer")
	}
	return limit, nil
}

// Toggle flips membership for the referenced product.
func Toggle(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, customerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload ToggleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		added, err := svc.Toggle(r.Context(), owner, customerID, wishlistsvc.ItemInput{
			ID:           payload.ID,
			Handle:       payload.Handle,
			Title:        payload.Title,
			Price:        payload.Price,
			DefaultImage: payload.DefaultImage,
			HoverImage:   payload.HoverImage,
			VariantID:    payload.VariantID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"added": added})
	}
}

// Remove deletes the entry matching the reference (normalized ID or handle).
func Remove(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, customerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref := chi.URLParam(r, "ref")
		if ref == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product reference is required"))
			return
		}
		if err := svc.Remove(r.Context(), owner, customerID, ref); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// Clear empties the owner's wishlist.
func Clear(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, customerID, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Clear(r.Context(), owner, customerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// ownerFromRequest derives the wishlist owner key: authenticated customers
// keep one list across devices, guests are keyed by storefront session.
func ownerFromRequest(r *http.Request) (string, *string, error) {
	ctx := r.Context()
	if customerID := middleware.CustomerIDFromContext(ctx); customerID != "" {
		return "customer:" + customerID, &customerID, nil
	}
	sessionID := middleware.SessionIDFromContext(ctx)
	if sessionID == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing")
	}
	return "session:" + sessionID, nil, nil
}
