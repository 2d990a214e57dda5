package repository

import (
	"time"

	"matholymp/internal/datetimeutil"
)

// Event is the single row of event-wide registration state.
type Event struct {
	RegistrationEnabled bool
	GoldBoundary        *int
	SilverBoundary      *int
	BronzeBoundary      *int
}

// BoundariesSet reports whether medal boundaries have been entered.
func (e *Event) BoundariesSet() bool {
	return e.GoldBoundary != nil && e.SilverBoundary != nil && e.BronzeBoundary != nil
}

type Country struct {
	ID            int64
	Code          string
	Name          string
	Official      *bool
	GenericURL    string
	FlagFileID    *int64
	ContactEmails []string
	Retired       bool
}

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	IsAdmin     bool   `json:"is_admin"`
	SecondaryOK bool   `json:"secondary_ok"`
}

// LookupKind names one of the simple name tables.
type LookupKind string

const (
	LookupGenders   LookupKind = "genders"
	LookupTShirts   LookupKind = "tshirts"
	LookupLanguages LookupKind = "languages"
	LookupArrivals  LookupKind = "arrivals"
)

type Person struct {
	ID          int64
	CountryID   int64
	GivenName   string
	FamilyName  string
	Gender      string
	PrimaryRole string
	OtherRoles  []string
	GuideFor    []int64
	Languages   []string
	DateOfBirth *time.Time
	Diet        string
	TShirt      string

	ArrivalPlace    string
	ArrivalDate     *time.Time
	ArrivalTime     *datetimeutil.TimeOfDay
	ArrivalFlight   string
	DeparturePlace  string
	DepartureDate   *time.Time
	DepartureTime   *datetimeutil.TimeOfDay
	DepartureFlight string

	RoomNumber         string
	PhoneNumber        string
	PassportNumber     string
	Nationality        string
	EventPhotosConsent *bool
	GenericURL         string
	ExtraAwards        []string

	// Scores is a comma-separated list with one entry per problem; an
	// empty entry is a score not yet entered.
	Scores string

	PhotoFileID       *int64
	ConsentFormFileID *int64
	Retired           bool
	CreatedAt         time.Time
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	CountryID    int64
	Roles        []string
	Retired      bool
}

// RSSItem is one entry of the live scores feed. CountryID is nil for
// items relevant to every country.
type RSSItem struct {
	ID        int64
	CountryID *int64
	Title     string
	Text      string
	GUID      string
	CreatedAt time.Time
}

// File is an uploaded file whose content lives in object storage.
type File struct {
	ID          int64
	Name        string
	ContentType string
	ObjectKey   string
	Size        int64
	CreatedAt   time.Time
}
