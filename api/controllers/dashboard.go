package controllers

import (
	"net/http"

	"github.com/vientianelabs/khumsue-backend/api/responses"
	dashboardsvc "github.com/vientianelabs/khumsue-backend/internal/dashboard"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// AdminDashboard returns the back-office overview counters and revenue totals.
func AdminDashboard(svc *dashboardsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		stats, err := svc.GetStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
