package domain

import "time"

// Race represents a single race-result entry owned by one account.
type Race struct {
	ID          string
	UserID      string
	Name        string
	Date        time.Time
	URL         string
	Source      *string
	Location    *string
	Distance    *string
	Description *string
	Level       *string
	Surface     *string
	Weather     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RaceFilter narrows a List call. Search matches name or location
// case-insensitively; the remaining fields are exact matches. Level, Surface
// and Weather are premium filters and are honored only for Pro callers.
type RaceFilter struct {
	Search  string
	Source  string
	Level   string
	Surface string
	Weather string
}

// ClearPremium drops the Pro-only filter fields. Used when a Free caller
// supplies them: the contract is to ignore, not reject.
func (f *RaceFilter) ClearPremium() {
	f.Level = ""
	f.Surface = ""
	f.Weather = ""
}
