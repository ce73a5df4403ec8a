package api

import (
	"net/http"

	"github.com/clubhub/club-backend/errors"
)

// plansHandler lists the available subscription plans.
func (a *API) plansHandler(w http.ResponseWriter, _ *http.Request) {
	plans, err := a.db.Plans()
	if err != nil {
		errors.ErrInternalStorageError.WithErr(err).Write(w)
		return
	}
	response := &PlansResponse{Plans: []*PlanInfo{}}
	for _, plan := range plans {
		response.Plans = append(response.Plans, &PlanInfo{
			ID:            plan.ID,
			Name:          plan.Name,
			StripePriceID: plan.StripePriceID,
			Default:       plan.Default,
			Limits:        plan.Limits,
			Features:      plan.Features,
		})
	}
	httpWriteJSON(w, response)
}
