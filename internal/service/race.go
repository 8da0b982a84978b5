package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"racelog/internal/domain"
)

// RaceInput carries the fields of a create request. Date is the raw ISO-8601
// string from the wire; parsing is part of validation and lives here, not in
// the transport layer.
type RaceInput struct {
	Name        string
	Date        string
	URL         string
	Source      *string
	Location    *string
	Distance    *string
	Description *string
	Level       *string
	Surface     *string
	Weather     *string
}

// RaceUpdate carries a partial update; nil fields are not touched.
type RaceUpdate struct {
	Name        *string
	Date        *string
	URL         *string
	Source      *string
	Location    *string
	Distance    *string
	Description *string
	Level       *string
	Surface     *string
	Weather     *string
}

// RaceService validates input, enforces entitlement rules and orchestrates
// the race store. Caller identity is threaded explicitly into every call.
type RaceService struct {
	races  domain.RaceRepository
	logger zerolog.Logger
}

// NewRaceService creates a RaceService over the given repository.
func NewRaceService(races domain.RaceRepository, logger zerolog.Logger) *RaceService {
	return &RaceService{races: races, logger: logger}
}

// List returns the caller's races matching the filter, newest date first.
// Level, surface and weather filters are honored only for Pro callers; a Free
// caller supplying them gets them silently ignored rather than an error.
func (s *RaceService) List(ctx context.Context, caller *domain.Account, filter domain.RaceFilter) ([]domain.Race, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.IsPro() {
		filter.ClearPremium()
	}
	races, err := s.races.List(ctx, caller.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	if races == nil {
		races = []domain.Race{}
	}
	return races, nil
}

// Get returns the caller's race by id. Absence and non-ownership are both
// ErrNotFound so record ids cannot be probed across accounts.
func (s *RaceService) Get(ctx context.Context, caller *domain.Account, id string) (*domain.Race, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	return s.races.GetByID(ctx, caller.ID, id)
}

// Create validates the input, assigns a fresh id and owner, and persists the
// race. Premium fields are accepted regardless of tier; gating applies only
// to list filters.
func (s *RaceService) Create(ctx context.Context, caller *domain.Account, input RaceInput) (*domain.Race, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateName(input.Name); err != nil {
		return nil, err
	}
	date, err := validateDate(input.Date)
	if err != nil {
		return nil, err
	}
	if err := validateURL(input.URL); err != nil {
		return nil, err
	}

	race := &domain.Race{
		ID:          uuid.NewString(),
		UserID:      caller.ID,
		Name:        input.Name,
		Date:        date,
		URL:         input.URL,
		Source:      input.Source,
		Location:    input.Location,
		Distance:    input.Distance,
		Description: input.Description,
		Level:       input.Level,
		Surface:     input.Surface,
		Weather:     input.Weather,
	}
	if err := s.races.Insert(ctx, race); err != nil {
		return nil, fmt.Errorf("insert race: %w", err)
	}
	s.logger.Debug().Str("race_id", race.ID).Str("user_id", caller.ID).Msg("race created")
	return race, nil
}

// Update applies only the fields present in the patch, re-validating any
// touched required field with the same rules as Create. The ownership check
// matches Get: absent and foreign ids both fail with ErrNotFound. An empty
// patch is a no-op that still returns the record.
func (s *RaceService) Update(ctx context.Context, caller *domain.Account, id string, patch RaceUpdate) (*domain.Race, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	race, err := s.races.GetByID(ctx, caller.ID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return nil, err
		}
		race.Name = *patch.Name
	}
	if patch.Date != nil {
		date, err := validateDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		race.Date = date
	}
	if patch.URL != nil {
		if err := validateURL(*patch.URL); err != nil {
			return nil, err
		}
		race.URL = *patch.URL
	}
	if patch.Source != nil {
		race.Source = patch.Source
	}
	if patch.Location != nil {
		race.Location = patch.Location
	}
	if patch.Distance != nil {
		race.Distance = patch.Distance
	}
	if patch.Description != nil {
		race.Description = patch.Description
	}
	if patch.Level != nil {
		race.Level = patch.Level
	}
	if patch.Surface != nil {
		race.Surface = patch.Surface
	}
	if patch.Weather != nil {
		race.Weather = patch.Weather
	}

	if err := s.races.Update(ctx, race); err != nil {
		return nil, fmt.Errorf("update race: %w", err)
	}
	return race, nil
}

// Delete permanently removes the caller's race. A second delete of the same
// id fails with ErrNotFound; the operation is not idempotent-success.
func (s *RaceService) Delete(ctx context.Context, caller *domain.Account, id string) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	return s.races.Delete(ctx, caller.ID, id)
}

func validateName(name string) error {
	if name == "" {
		return domain.NewValidationError("name", "Race name is required")
	}
	return nil
}

func validateDate(raw string) (time.Time, error) {
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("date", "Invalid date")
	}
	return date, nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return domain.NewValidationError("url", "Invalid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return domain.NewValidationError("url", "Invalid URL")
	}
	return nil
}
