package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"racelog/internal/domain"
	"racelog/internal/service"
)

type raceDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	URL         string    `json:"url"`
	Source      *string   `json:"source"`
	Location    *string   `json:"location"`
	Distance    *string   `json:"distance"`
	Description *string   `json:"description"`
	Level       *string   `json:"level"`
	Surface     *string   `json:"surface"`
	Weather     *string   `json:"weather"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toRaceDTO(race *domain.Race) raceDTO {
	return raceDTO{
		ID:          race.ID,
		UserID:      race.UserID,
		Name:        race.Name,
		Date:        race.Date,
		URL:         race.URL,
		Source:      race.Source,
		Location:    race.Location,
		Distance:    race.Distance,
		Description: race.Description,
		Level:       race.Level,
		Surface:     race.Surface,
		Weather:     race.Weather,
		CreatedAt:   race.CreatedAt,
		UpdatedAt:   race.UpdatedAt,
	}
}

type raceCreateRequest struct {
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	URL         string  `json:"url"`
	Source      *string `json:"source"`
	Location    *string `json:"location"`
	Distance    *string `json:"distance"`
	Description *string `json:"description"`
	Level       *string `json:"level"`
	Surface     *string `json:"surface"`
	Weather     *string `json:"weather"`
}

type raceUpdateRequest struct {
	Name        *string `json:"name"`
	Date        *string `json:"date"`
	URL         *string `json:"url"`
	Source      *string `json:"source"`
	Location    *string `json:"location"`
	Distance    *string `json:"distance"`
	Description *string `json:"description"`
	Level       *string `json:"level"`
	Surface     *string `json:"surface"`
	Weather     *string `json:"weather"`
}

// RacesList handles GET /races. Premium filters ride along in the query
// string; the service decides whether the caller's tier honors them.
func (a *App) RacesList(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := domain.RaceFilter{
		Search:  q.Get("search"),
		Source:  q.Get("source"),
		Level:   q.Get("level"),
		Surface: q.Get("surface"),
		Weather: q.Get("weather"),
	}
	races, err := a.Races.List(r.Context(), caller, filter)
	if err != nil {
		a.serviceError(w, r, err, "Race not found", "Failed to fetch races")
		return
	}
	items := make([]raceDTO, 0, len(races))
	for i := range races {
		items = append(items, toRaceDTO(&races[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"races": items})
}

// RacesGet handles GET /races/{id}.
func (a *App) RacesGet(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	race, err := a.Races.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		a.serviceError(w, r, err, "Race not found", "Failed to fetch race")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"race": toRaceDTO(race)})
}

// RacesCreate handles POST /races.
func (a *App) RacesCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	var req raceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	race, err := a.Races.Create(r.Context(), caller, service.RaceInput{
		Name:        req.Name,
		Date:        req.Date,
		URL:         req.URL,
		Source:      req.Source,
		Location:    req.Location,
		Distance:    req.Distance,
		Description: req.Description,
		Level:       req.Level,
		Surface:     req.Surface,
		Weather:     req.Weather,
	})
	if err != nil {
		a.serviceError(w, r, err, "Race not found", "Failed to create race")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"race": toRaceDTO(race)})
}

// RacesUpdate handles PATCH /races/{id}. Only fields present in the body are
// applied.
func (a *App) RacesUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	var req raceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	race, err := a.Races.Update(r.Context(), caller, chi.URLParam(r, "id"), service.RaceUpdate{
		Name:        req.Name,
		Date:        req.Date,
		URL:         req.URL,
		Source:      req.Source,
		Location:    req.Location,
		Distance:    req.Distance,
		Description: req.Description,
		Level:       req.Level,
		Surface:     req.Surface,
		Weather:     req.Weather,
	})
	if err != nil {
		a.serviceError(w, r, err, "Race not found", "Failed to update race")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"race": toRaceDTO(race)})
}

// RacesDelete handles DELETE /races/{id}.
func (a *App) RacesDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := a.currentAccount(r)
	if err != nil {
		a.callerError(w, r, err)
		return
	}
	if err := a.Races.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		a.serviceError(w, r, err, "Race not found", "Failed to delete race")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true})
}
