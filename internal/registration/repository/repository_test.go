package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"matholymp/internal/common/db"
	"matholymp/internal/datetimeutil"
)

func newTestRepos(t *testing.T) (*Repositories, db.Database) {
	t.Helper()
	database, err := db.Open(&db.Config{Driver: "sqlite", DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := Migrate(context.Background(), database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running twice must be harmless.
	if err := Migrate(context.Background(), database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return New(db.NewManager(database)), database
}

func TestEventRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	if _, err := repos.Events.Get(ctx, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found before init, got %v", err)
	}
	if err := repos.Events.Init(ctx, nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := repos.Events.Init(ctx, nil); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate on second init, got %v", err)
	}
	ev, err := repos.Events.Get(ctx, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ev.RegistrationEnabled || ev.BoundariesSet() {
		t.Fatalf("unexpected initial event %+v", ev)
	}
	if err := repos.Events.SetRegistrationEnabled(ctx, nil, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if err := repos.Events.SetBoundaries(ctx, nil, 30, 20, 10); err != nil {
		t.Fatalf("boundaries: %v", err)
	}
	ev, _ = repos.Events.Get(ctx, nil)
	if ev.RegistrationEnabled || !ev.BoundariesSet() || *ev.GoldBoundary != 30 || *ev.BronzeBoundary != 10 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestCountryRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	official := true
	c := &Country{Code: "ABC", Name: "Alphabet", Official: &official, ContactEmails: []string{"a@example.org", "b@example.org"}}
	id, err := repos.Countries.Create(ctx, nil, c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repos.Countries.Create(ctx, nil, &Country{Code: "ABC", Name: "Other"}); !errors.Is(err, ErrCodeExists) {
		t.Fatalf("expected code exists, got %v", err)
	}
	got, err := repos.Countries.GetByCode(ctx, nil, "ABC")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.ID != id || got.Official == nil || !*got.Official || len(got.ContactEmails) != 2 {
		t.Fatalf("unexpected country %+v", got)
	}
	if err := repos.Countries.Retire(ctx, nil, id); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if err := repos.Countries.Retire(ctx, nil, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found retiring twice, got %v", err)
	}
	if _, err := repos.Countries.GetByCode(ctx, nil, "ABC"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected retired code to be free, got %v", err)
	}
	if _, err := repos.Countries.Create(ctx, nil, &Country{Code: "ABC", Name: "Reused"}); err != nil {
		t.Fatalf("expected code reuse after retire, got %v", err)
	}
	list, err := repos.Countries.List(ctx, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Reused" {
		t.Fatalf("expected only the active country, got %d", len(list))
	}
}

func TestPersonRoundTrip(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	dob := datetimeutil.Date(2008, time.March, 4)
	arr := datetimeutil.Date(2026, time.April, 2)
	at := datetimeutil.TimeOfDay{Hour: 9, Minute: 5}
	consent := false
	photo := int64(7)
	p := &Person{
		CountryID:          3,
		GivenName:          "Ada",
		FamilyName:         "Byron",
		Gender:             "Female",
		PrimaryRole:        "Contestant 1",
		OtherRoles:         []string{"Observer with Leader"},
		GuideFor:           []int64{4, 9},
		Languages:          []string{"English", "French, Canadian"},
		DateOfBirth:        &dob,
		TShirt:             "M",
		ArrivalPlace:       "Airport",
		ArrivalDate:        &arr,
		ArrivalTime:        &at,
		EventPhotosConsent: &consent,
		Scores:             "7,,3",
		PhotoFileID:        &photo,
	}
	id, err := repos.People.Create(ctx, nil, p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repos.People.GetByID(ctx, nil, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.GivenName != "Ada" || got.Scores != "7,,3" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected person %+v", got)
	}
	if len(got.GuideFor) != 2 || got.GuideFor[1] != 9 {
		t.Fatalf("unexpected guide_for %v", got.GuideFor)
	}
	if len(got.Languages) != 2 || got.Languages[1] != "French, Canadian" {
		t.Fatalf("unexpected languages %q", got.Languages)
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(dob) || got.DepartureDate != nil {
		t.Fatalf("unexpected dates %v %v", got.DateOfBirth, got.DepartureDate)
	}
	if got.ArrivalTime == nil || *got.ArrivalTime != at || got.DepartureTime != nil {
		t.Fatalf("unexpected times %v %v", got.ArrivalTime, got.DepartureTime)
	}
	if got.EventPhotosConsent == nil || *got.EventPhotosConsent || got.PhotoFileID == nil || *got.PhotoFileID != 7 {
		t.Fatalf("unexpected optional fields %+v", got)
	}
	got.GuideFor = nil
	got.RoomNumber = "101"
	if err := repos.People.Update(ctx, nil, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repos.People.SetScores(ctx, nil, id, "7,7,3"); err != nil {
		t.Fatalf("set scores: %v", err)
	}
	list, err := repos.People.ListByCountry(ctx, nil, 3)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one person, got %d (%v)", len(list), err)
	}
	if list[0].RoomNumber != "101" || len(list[0].GuideFor) != 0 || list[0].Scores != "7,7,3" {
		t.Fatalf("unexpected updated person %+v", list[0])
	}
	if err := repos.People.Retire(ctx, nil, id); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if list, _ := repos.People.List(ctx, nil); len(list) != 0 {
		t.Fatalf("expected retired person hidden, got %d", len(list))
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	u := &User{Username: "ABC_reg", PasswordHash: "x", Email: "Reg@Example.org", CountryID: 3, Roles: []string{"User", "Register"}}
	id, err := repos.Users.Create(ctx, nil, u)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repos.Users.Create(ctx, nil, &User{Username: "ABC_reg"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
	exists, err := repos.Users.ExistsByEmail(ctx, nil, "reg@example.ORG", 0)
	if err != nil || !exists {
		t.Fatalf("expected email to exist, got %v (%v)", exists, err)
	}
	if exists, _ := repos.Users.ExistsByEmail(ctx, nil, "reg@example.org", id); exists {
		t.Fatalf("expected the user's own email to be ignored")
	}
	got, err := repos.Users.GetByUsername(ctx, nil, "ABC_reg")
	if err != nil || len(got.Roles) != 2 || got.Roles[1] != "Register" {
		t.Fatalf("unexpected user %+v (%v)", got, err)
	}
	if err := repos.Users.Retire(ctx, nil, id); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if _, err := repos.Users.GetByUsername(ctx, nil, "ABC_reg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected retired user hidden, got %v", err)
	}
}

func TestRSSAndLookups(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	base := time.Date(2026, 4, 8, 10, 0, 0, 0, time.UTC)
	country := int64(5)
	other := int64(6)
	items := []*RSSItem{
		{Title: "Medal boundaries", CreatedAt: base.Add(2 * time.Minute)},
		{CountryID: &country, Title: "ABC P1", CreatedAt: base},
		{CountryID: &other, Title: "DEF P1", CreatedAt: base.Add(time.Minute)},
	}
	for _, item := range items {
		if _, err := repos.RSS.Create(ctx, nil, item); err != nil {
			t.Fatalf("create rss: %v", err)
		}
	}
	all, err := repos.RSS.List(ctx, nil, nil)
	if err != nil || len(all) != 3 || all[0].Title != "Medal boundaries" || all[2].Title != "ABC P1" {
		t.Fatalf("unexpected feed %v (%v)", all, err)
	}
	filtered, _ := repos.RSS.List(ctx, nil, &country)
	if len(filtered) != 2 || filtered[1].Title != "ABC P1" {
		t.Fatalf("unexpected filtered feed %d", len(filtered))
	}

	for i, name := range []string{"XL", "S", "M"} {
		order := map[string]int{"S": 1, "M": 2, "XL": 4}[name]
		if _, err := repos.Lookups.AddName(ctx, nil, LookupTShirts, name, order); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	names, err := repos.Lookups.ListNames(ctx, nil, LookupTShirts)
	if err != nil || len(names) != 3 || names[0] != "S" || names[2] != "XL" {
		t.Fatalf("unexpected sizes %v (%v)", names, err)
	}
	if _, err := repos.Lookups.ListNames(ctx, nil, LookupKind("people")); err == nil {
		t.Fatalf("expected error for unknown table")
	}
	if _, err := repos.Lookups.CreateRole(ctx, nil, &Role{Name: "Leader"}); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if _, err := repos.Lookups.CreateRole(ctx, nil, &Role{Name: "Leader"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate role, got %v", err)
	}
	role, err := repos.Lookups.GetRole(ctx, nil, "Leader")
	if err != nil || role.IsAdmin {
		t.Fatalf("unexpected role %+v (%v)", role, err)
	}
}
