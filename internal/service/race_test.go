package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"racelog/internal/domain"
)

// memRaceRepo is an in-memory domain.RaceRepository honoring the same
// owner-scoping and ordering contract as the PostgreSQL implementation.
type memRaceRepo struct {
	mu    sync.Mutex
	seq   int
	races map[string]*domain.Race
	order map[string]int
}

func newMemRaceRepo() *memRaceRepo {
	return &memRaceRepo{
		races: make(map[string]*domain.Race),
		order: make(map[string]int),
	}
}

func (m *memRaceRepo) Insert(_ context.Context, race *domain.Race) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	now := time.Now()
	race.CreatedAt = now
	race.UpdatedAt = now
	cp := *race
	m.races[race.ID] = &cp
	m.order[race.ID] = m.seq
	return nil
}

func (m *memRaceRepo) GetByID(_ context.Context, ownerID, id string) (*domain.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	race, ok := m.races[id]
	if !ok || race.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *race
	return &cp, nil
}

func (m *memRaceRepo) List(_ context.Context, ownerID string, filter domain.RaceFilter) ([]domain.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.Race
	for _, race := range m.races {
		if race.UserID != ownerID {
			continue
		}
		if !matches(race, filter) {
			continue
		}
		items = append(items, *race)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return m.order[items[i].ID] < m.order[items[j].ID]
	})
	return items, nil
}

func matches(race *domain.Race, filter domain.RaceFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		name := strings.ToLower(race.Name)
		location := ""
		if race.Location != nil {
			location = strings.ToLower(*race.Location)
		}
		if !strings.Contains(name, needle) && !strings.Contains(location, needle) {
			return false
		}
	}
	exact := func(value string, field *string) bool {
		if value == "" {
			return true
		}
		return field != nil && *field == value
	}
	return exact(filter.Source, race.Source) &&
		exact(filter.Level, race.Level) &&
		exact(filter.Surface, race.Surface) &&
		exact(filter.Weather, race.Weather)
}

func (m *memRaceRepo) Update(_ context.Context, race *domain.Race) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.races[race.ID]
	if !ok || existing.UserID != race.UserID {
		return domain.ErrNotFound
	}
	race.UpdatedAt = time.Now()
	cp := *race
	m.races[race.ID] = &cp
	return nil
}

func (m *memRaceRepo) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	race, ok := m.races[id]
	if !ok || race.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(m.races, id)
	return nil
}

func testAccount(status domain.SubscriptionStatus) *domain.Account {
	return &domain.Account{
		ID:                 uuid.NewString(),
		Email:              uuid.NewString() + "@example.com",
		SubscriptionStatus: status,
	}
}

func newTestRaceService() (*RaceService, *memRaceRepo) {
	repo := newMemRaceRepo()
	return NewRaceService(repo, zerolog.Nop()), repo
}

func str(s string) *string { return &s }

func validInput(name string) RaceInput {
	return RaceInput{
		Name: name,
		Date: "2024-04-15T00:00:00Z",
		URL:  "https://example.com/results/123",
	}
}

func TestCreateThenGetReturnsEqualRecord(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	input := validInput("Boston Marathon")
	input.Location = str("Boston, MA")
	input.Distance = str("42.2km")

	created, err := svc.Create(context.Background(), caller, input)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, caller.ID, created.UserID)
	assert.Equal(t, "Boston Marathon", created.Name)
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), created.Date.UTC())
	assert.Equal(t, "https://example.com/results/123", created.URL)

	got, err := svc.Get(context.Background(), caller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Location, got.Location)
	assert.Equal(t, created.Distance, got.Distance)
}

func TestCreateValidationCitesFirstFailingField(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	cases := []struct {
		name    string
		input   RaceInput
		field   string
		message string
	}{
		{"empty name", RaceInput{Name: "", Date: "2024-04-15T00:00:00Z", URL: "https://example.com"}, "name", "Race name is required"},
		{"bad date", RaceInput{Name: "Boston Marathon", Date: "april 15", URL: "https://example.com"}, "date", "Invalid date"},
		{"missing date", RaceInput{Name: "Boston Marathon", Date: "", URL: "https://example.com"}, "date", "Invalid date"},
		{"bad url", RaceInput{Name: "Boston Marathon", Date: "2024-04-15T00:00:00Z", URL: "not a url"}, "url", "Invalid URL"},
		{"non-http url", RaceInput{Name: "Boston Marathon", Date: "2024-04-15T00:00:00Z", URL: "ftp://example.com/x"}, "url", "Invalid URL"},
		{"name checked before date", RaceInput{Name: "", Date: "nope", URL: "nope"}, "name", "Race name is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), caller, tc.input)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Equal(t, tc.message, vErr.Message)
		})
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestRaceService()
	owner := testAccount(domain.SubscriptionNone)
	other := testAccount(domain.SubscriptionActive)

	created, err := svc.Create(context.Background(), owner, validInput("Private Race"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), other, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(context.Background(), other, created.ID, RaceUpdate{Name: str("Hijacked")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(context.Background(), other, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	races, err := svc.List(context.Background(), other, domain.RaceFilter{})
	require.NoError(t, err)
	assert.Empty(t, races)

	// The record is untouched for its owner.
	got, err := svc.Get(context.Background(), owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Private Race", got.Name)
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	created, err := svc.Create(context.Background(), caller, validInput("Berlin Marathon"))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), caller, created.ID, RaceUpdate{})
	require.NoError(t, err)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.URL, updated.URL)
	assert.Equal(t, created.Source, updated.Source)
}

func TestUpdateValidatesTouchedFieldsOnly(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	created, err := svc.Create(context.Background(), caller, validInput("Berlin Marathon"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), caller, created.ID, RaceUpdate{Name: str("")})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = svc.Update(context.Background(), caller, created.ID, RaceUpdate{Date: str("not-a-date")})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "date", vErr.Field)

	// A valid partial update leaves untouched fields alone.
	updated, err := svc.Update(context.Background(), caller, created.ID, RaceUpdate{Location: str("Berlin")})
	require.NoError(t, err)
	assert.Equal(t, "Berlin Marathon", updated.Name)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Berlin", *updated.Location)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	created, err := svc.Create(context.Background(), caller, validInput("Chicago Marathon"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), caller, created.ID))

	_, err = svc.Get(context.Background(), caller, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.Delete(context.Background(), caller, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSearchMatchesNameOrLocationCaseInsensitive(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	in1 := validInput("BOSTON Marathon")
	in2 := validInput("Local 5k")
	in2.Location = str("South Boston")
	in3 := validInput("Berlin Marathon")
	in3.Location = str("Berlin")

	for _, in := range []RaceInput{in1, in2, in3} {
		_, err := svc.Create(context.Background(), caller, in)
		require.NoError(t, err)
	}

	races, err := svc.List(context.Background(), caller, domain.RaceFilter{Search: "boston"})
	require.NoError(t, err)
	require.Len(t, races, 2)
	for _, race := range races {
		nameHit := strings.Contains(strings.ToLower(race.Name), "boston")
		locHit := race.Location != nil && strings.Contains(strings.ToLower(*race.Location), "boston")
		assert.True(t, nameHit || locHit)
	}
}

func TestListSearchMatchesLiteralSubstringOfOwnName(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	in := validInput("Straße Lauf")
	in.Location = str("Zürich")
	_, err := svc.Create(context.Background(), caller, in)
	require.NoError(t, err)

	// A record must always be findable by a verbatim substring of its own
	// name or location, sharp s and umlauts included.
	for _, needle := range []string{"Straße", "straße", "Zürich", "zürich"} {
		races, err := svc.List(context.Background(), caller, domain.RaceFilter{Search: needle})
		require.NoError(t, err)
		assert.Len(t, races, 1, "search %q", needle)
	}
}

func TestListOrdersByDateDescWithStableTies(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	older := validInput("Older")
	older.Date = "2023-01-01T00:00:00Z"
	tieA := validInput("Tie A")
	tieA.Date = "2024-06-01T00:00:00Z"
	tieB := validInput("Tie B")
	tieB.Date = "2024-06-01T00:00:00Z"
	newest := validInput("Newest")
	newest.Date = "2025-03-01T00:00:00Z"

	for _, in := range []RaceInput{older, tieA, tieB, newest} {
		_, err := svc.Create(context.Background(), caller, in)
		require.NoError(t, err)
	}

	races, err := svc.List(context.Background(), caller, domain.RaceFilter{})
	require.NoError(t, err)
	require.Len(t, races, 4)
	assert.Equal(t, "Newest", races[0].Name)
	assert.Equal(t, "Tie A", races[1].Name)
	assert.Equal(t, "Tie B", races[2].Name)
	assert.Equal(t, "Older", races[3].Name)
}

func TestListEmptyResultIsNotAnError(t *testing.T) {
	svc, _ := newTestRaceService()
	caller := testAccount(domain.SubscriptionNone)

	races, err := svc.List(context.Background(), caller, domain.RaceFilter{Search: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, races)
	assert.Empty(t, races)
}

func TestFreeTierPremiumFiltersAreIgnored(t *testing.T) {
	svc, _ := newTestRaceService()
	free := testAccount(domain.SubscriptionCanceled)

	road := validInput("Road Race")
	road.Surface = str("road")
	road.Level = str("elite")
	trail := validInput("Trail Race")
	trail.Surface = str("trail")

	for _, in := range []RaceInput{road, trail} {
		_, err := svc.Create(context.Background(), free, in)
		require.NoError(t, err)
	}

	filtered, err := svc.List(context.Background(), free, domain.RaceFilter{Level: "elite", Surface: "trail"})
	require.NoError(t, err)
	unfiltered, err := svc.List(context.Background(), free, domain.RaceFilter{})
	require.NoError(t, err)

	// Filter silently dropped: same result set as no filter at all.
	assert.Equal(t, len(unfiltered), len(filtered))
}

func TestProTierPremiumFiltersAreHonored(t *testing.T) {
	svc, _ := newTestRaceService()
	pro := testAccount(domain.SubscriptionActive)

	road := validInput("Road Race")
	road.Surface = str("road")
	trail := validInput("Trail Race")
	trail.Surface = str("trail")
	trail.Weather = str("rain")

	for _, in := range []RaceInput{road, trail} {
		_, err := svc.Create(context.Background(), pro, in)
		require.NoError(t, err)
	}

	races, err := svc.List(context.Background(), pro, domain.RaceFilter{Surface: "trail"})
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "Trail Race", races[0].Name)

	races, err = svc.List(context.Background(), pro, domain.RaceFilter{Weather: "rain"})
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, "Trail Race", races[0].Name)
}

func TestFreeTierWritesOfPremiumFieldsAreAccepted(t *testing.T) {
	svc, _ := newTestRaceService()
	free := testAccount(domain.SubscriptionNone)

	in := validInput("Mud Run")
	in.Level = str("amateur")
	in.Surface = str("mud")

	created, err := svc.Create(context.Background(), free, in)
	require.NoError(t, err)
	require.NotNil(t, created.Level)
	assert.Equal(t, "amateur", *created.Level)
}

func TestNilCallerIsUnauthenticated(t *testing.T) {
	svc, _ := newTestRaceService()

	_, err := svc.List(context.Background(), nil, domain.RaceFilter{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Get(context.Background(), nil, "some-id")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Create(context.Background(), nil, validInput("x"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Update(context.Background(), nil, "some-id", RaceUpdate{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	err = svc.Delete(context.Background(), nil, "some-id")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
