package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/middleware"
	"github.com/vientianelabs/khumsue-backend/api/responses"
	"github.com/vientianelabs/khumsue-backend/api/validators"
	authsvc "github.com/vientianelabs/khumsue-backend/internal/auth"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminLogin exchanges back-office credentials for an access token.
func AdminLogin(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload adminLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"token":      result.Token,
			"expires_at": result.ExpiresAt,
			"admin": map[string]any{
				"id":           result.Admin.ID,
				"email":        result.Admin.Email,
				"display_name": result.Admin.DisplayName,
			},
		})
	}
}

// AdminMe returns the authenticated admin's profile.
func AdminMe(svc *authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		adminID := middleware.AdminIDFromContext(r.Context())
		if adminID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin context missing"))
			return
		}

		aid, err := uuid.Parse(adminID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid admin id"))
			return
		}

		admin, err := svc.Me(r.Context(), aid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Credentials stay server-side.
		responses.WriteSuccess(w, map[string]any{
			"id":           admin.ID,
			"email":        admin.Email,
			"display_name": admin.DisplayName,
			"created_at":   admin.CreatedAt,
		})
	}
}
