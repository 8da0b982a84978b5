package handlers

import (
	"net/http"

	"racelog/internal/domain"
)

type accountDTO struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email"`
	Name               *string `json:"name"`
	SubscriptionStatus string  `json:"subscriptionStatus"`
	Tier               string  `json:"tier"`
}

// Me handles GET /me: the caller's own profile plus the resolved tier, which
// is what the client uses to lock or unlock the premium filter controls.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, accountDTO{
		ID:                 caller.ID,
		Email:              caller.Email,
		Name:               caller.Name,
		SubscriptionStatus: string(caller.SubscriptionStatus),
		Tier:               string(domain.ResolveTier(caller)),
	})
}
