// Package olympiad is the in-memory model of a series of olympiad events:
// the events themselves, the countries and people taking part, their
// scores and everything derived from them (awards, ranks, statistics).
//
// A data source fills a Builder with raw records; Build links them and
// computes all derived values once, so the resulting EventGroup is
// read-only and safe for concurrent readers.
package olympiad

import (
	"strings"
	"time"

	"matholymp/internal/datetimeutil"
	"matholymp/internal/stats"
)

// ContestantRolePrefix starts the primary role of every contestant.
const ContestantRolePrefix = "Contestant "

// GroupConfig holds settings common to every event in a group.
type GroupConfig struct {
	ShortName                   string
	ShortNamePlural             string
	LongName                    string
	DistinguishOfficial         bool
	RankTopN                    *int
	HonourableMentionsAvailable bool
	AgeDayDesc                  string
}

// Paper is one language version of an exam paper.
type Paper struct {
	Day         int
	Language    string
	Description string
	URL         string
}

// EventData is the raw description of one event.
type EventData struct {
	ID                 int
	Year               string
	HostCountryID      *int
	HostCountryName    string
	HostCountryNameIn  string
	HostCity           string
	StartDate          *time.Time
	EndDate            *time.Time
	HomePageURL        string
	ContactName        string
	ContactEmail       string
	NumExams           *int
	NumProblems        *int
	MarksPerProblem    []int
	RegistrationActive bool
	GoldBoundary       *int
	SilverBoundary     *int
	BronzeBoundary     *int
	Papers             []Paper

	// Per-event overrides of group settings; nil inherits.
	DistinguishOfficialOverride         *bool
	HonourableMentionsAvailableOverride *bool
	AgeDayDescOverride                  *string
}

// CountryEventData is the raw description of a country at one event.
type CountryEventData struct {
	CountryID     int
	EventID       int
	AnnualURL     string
	Code          string
	Name          string
	FlagURL       string
	IsOfficial    *bool
	IsNormal      bool
	GenericID     *int
	ContactEmails []string
}

// PersonEventData is the raw description of a person at one event.
type PersonEventData struct {
	PersonID      int
	EventID       int
	CountryID     int
	AnnualURL     string
	PrimaryRole   string
	OtherRoles    []string
	GuideForIDs   []int
	ContestantAge *int
	GivenName     string
	FamilyName    string
	ProblemScores []*int
	ExtraAwards   []string
	PhotoURL      string
	GenericID     *int

	// Values supplied by the source that must agree with the computed ones.
	ExpectedTotal *int
	ExpectedAward *string

	// Private registration details.
	Gender             string
	DateOfBirth        *time.Time
	Languages          []string
	Diet               string
	TShirt             string
	ArrivalPlace       string
	ArrivalDate        *time.Time
	ArrivalTime        *datetimeutil.TimeOfDay
	ArrivalFlight      string
	DeparturePlace     string
	DepartureDate      *time.Time
	DepartureTime      *datetimeutil.TimeOfDay
	DepartureFlight    string
	RoomNumber         string
	PhoneNumber        string
	BadgePhotoURL      string
	ConsentFormURL     string
	PassportNumber     string
	Nationality        string
	EventPhotosConsent *bool
}

// EventGroup is a series of events sharing countries and people.
type EventGroup struct {
	GroupConfig

	Events     []*Event
	EventMap   map[int]*Event
	Countries  []*Country
	CountryMap map[int]*Country
	People     []*Person
	PersonMap  map[int]*Person

	// Contestants are the people who were a contestant at least once.
	Contestants []*Person

	MaxNumProblems int

	// AnyDistinguishOfficial and AnyHonourableMentions are true when some
	// event uses the feature.
	AnyDistinguishOfficial bool
	AnyHonourableMentions  bool

	DistinguishOfficialVaries         bool
	HonourableMentionsAvailableVaries bool
	AgeDayDescVaries                  bool
}

// PersonEvents returns every participation, event by event.
func (g *EventGroup) PersonEvents() []*PersonEvent {
	var r []*PersonEvent
	for _, e := range g.Events {
		r = append(r, e.People...)
	}
	return r
}

// CountryEvents returns every country participation, event by event.
func (g *EventGroup) CountryEvents() []*CountryEvent {
	var r []*CountryEvent
	for _, e := range g.Events {
		r = append(r, e.Countries...)
	}
	return r
}

// Event is one olympiad.
type Event struct {
	EventData
	Group *EventGroup

	ShortName                   string
	LongName                    string
	DistinguishOfficial         bool
	HonourableMentionsAvailable bool
	RankTopN                    *int
	AgeDayDesc                  string

	HostCountry *Country

	Countries                []*CountryEvent
	CountryMap               map[int]*CountryEvent
	CountriesWithContestants []*CountryEvent
	People                   []*PersonEvent
	PersonMap                map[int]*PersonEvent
	Contestants              []*PersonEvent
	ContestantMap            map[string]*PersonEvent

	// ProblemStats[n][s] counts contestants scoring s on problem n+1.
	ProblemStats          [][]int
	TotalStats            []int
	TotalStatsOfficial    []int
	MaxTotalStats         []int
	MaxTotalStatsOfficial []int
	ProblemMean           []*float64
	ProblemStdDev         []*float64
	ProblemCorrWithTotal  []*float64
	ProblemCorr           [][]*float64
	TotalMeanStdDev       *stats.MeanStdDev
}

// NumProblemsOrZero returns the number of problems, treating unknown as 0.
func (e *Event) NumProblemsOrZero() int {
	if e.NumProblems == nil {
		return 0
	}
	return *e.NumProblems
}

// NumExamsOrZero returns the number of exams, treating unknown as 0.
func (e *Event) NumExamsOrZero() int {
	if e.NumExams == nil {
		return 0
	}
	return *e.NumExams
}

// ShortNameWithYear returns e.g. "IMO 2015".
func (e *Event) ShortNameWithYear() string {
	return e.ShortName + " " + e.Year
}

// ShortNameWithYearAndCountry returns e.g. "IMO 2015 in Thailand".
func (e *Event) ShortNameWithYearAndCountry() string {
	return e.ShortNameWithYear() + " in " + e.HostCountryNameIn
}

// HostLocation returns "City, Country" or just the country.
func (e *Event) HostLocation() string {
	if e.HostCity == "" {
		return e.HostCountryName
	}
	return e.HostCity + ", " + e.HostCountryName
}

// Contact describes the contact name and email address.
func (e *Event) Contact() string {
	switch {
	case e.ContactName != "" && e.ContactEmail != "":
		return e.ContactName + " (" + e.ContactEmail + ")"
	case e.ContactName != "":
		return e.ContactName
	}
	return e.ContactEmail
}

// MarksTotal returns the maximum possible total score.
func (e *Event) MarksTotal() int {
	t := 0
	for _, m := range e.MarksPerProblem {
		t += m
	}
	return t
}

// MaxMarksPerProblem returns the largest maximum on any problem.
func (e *Event) MaxMarksPerProblem() int {
	m := 0
	for _, v := range e.MarksPerProblem {
		if v > m {
			m = v
		}
	}
	return m
}

// ScoresFinal reports whether medal boundaries have been set.
func (e *Event) ScoresFinal() bool {
	return e.GoldBoundary != nil
}

// NumContestants returns the number of contestants.
func (e *Event) NumContestants() int {
	return len(e.Contestants)
}

// NumContestantsOfficial counts contestants from official countries.
func (e *Event) NumContestantsOfficial() int {
	n := 0
	for _, c := range e.Countries {
		if c.Official() {
			n += len(c.Contestants)
		}
	}
	return n
}

// NumCountries counts countries with contestants.
func (e *Event) NumCountries() int {
	return len(e.CountriesWithContestants)
}

// NumCountriesOfficial counts official countries.
func (e *Event) NumCountriesOfficial() int {
	n := 0
	for _, c := range e.Countries {
		if c.Official() {
			n++
		}
	}
	return n
}

// NumAwards sums the awards at the event, or nil before scores are final.
func (e *Event) NumAwards() *AwardCounts {
	return e.numAwards(func(*CountryEvent) bool { return true })
}

// NumAwardsOfficial is NumAwards for official countries only.
func (e *Event) NumAwardsOfficial() *AwardCounts {
	return e.numAwards((*CountryEvent).Official)
}

func (e *Event) numAwards(cond func(*CountryEvent) bool) *AwardCounts {
	if !e.ScoresFinal() {
		return nil
	}
	r := &AwardCounts{}
	for _, c := range e.Countries {
		if cond(c) {
			r.Merge(c.NumAwards)
		}
	}
	return r
}

// RankTopNMatters reports whether country ranking by the top N totals can
// differ from ranking by all totals.
func (e *Event) RankTopNMatters() bool {
	if e.RankTopN == nil {
		return false
	}
	for _, c := range e.Countries {
		if len(c.Contestants) > *e.RankTopN {
			return true
		}
	}
	return false
}

// RankTopNIfMatters returns RankTopN when RankTopNMatters, otherwise nil.
func (e *Event) RankTopNIfMatters() *int {
	if e.RankTopNMatters() {
		return e.RankTopN
	}
	return nil
}

// LanguageList returns the distinct languages of people at the event, sorted.
func (e *Event) LanguageList() []string {
	seen := make(map[string]bool)
	var r []string
	for _, p := range e.People {
		for _, l := range p.Languages {
			if !seen[l] {
				seen[l] = true
				r = append(r, l)
			}
		}
	}
	sortStrings(r)
	return r
}

// Country is a team across all events it took part in.
type Country struct {
	ID    int
	Group *EventGroup

	// Participations are in chronological order.
	Participations []*CountryEvent
	HostEvents     []*Event
	MaxNumProblems *int

	HonourableMentionsAvailable bool
}

func (c *Country) latest() *CountryEvent {
	return c.Participations[len(c.Participations)-1]
}

// Code is the country code at its most recent participation.
func (c *Country) Code() string { return c.latest().Code }

// Name is the country name at its most recent participation.
func (c *Country) Name() string { return c.latest().Name }

// FlagURL is the flag at its most recent participation.
func (c *Country) FlagURL() string { return c.latest().FlagURL }

// IsOfficial is the official status at its most recent participation.
func (c *Country) IsOfficial() *bool { return c.latest().IsOfficial }

// NameWithCode returns "Name (Code)".
func (c *Country) NameWithCode() string {
	return c.Name() + " (" + c.Code() + ")"
}

// NumParticipations returns the number of events attended.
func (c *Country) NumParticipations() int {
	return len(c.Participations)
}

// CountryEvent is a country at one event.
type CountryEvent struct {
	CountryEventData
	Country *Country
	Event   *Event

	People      []*PersonEvent
	Contestants []*PersonEvent
	Guides      []*PersonEvent

	NumAwards            *AwardCounts
	TotalScore           int
	MaxTotalScore        int
	TotalScoreForRank    int
	MaxTotalScoreForRank int
	ProblemTotals        []int
	MaxProblemTotals     []int
	HaveAnyProblemScores []bool
	HaveAnyScores        bool
	Rank                 int
	RankOfficial         *int
}

// Official reports whether the country is official at this event.
func (c *CountryEvent) Official() bool {
	return c.IsOfficial != nil && *c.IsOfficial
}

// NameWithCode returns "Name (Code)".
func (c *CountryEvent) NameWithCode() string {
	return c.Name + " (" + c.Code + ")"
}

// NumContestants returns the number of contestants.
func (c *CountryEvent) NumContestants() int {
	return len(c.Contestants)
}

// Person is someone across all events they took part in.
type Person struct {
	ID    int
	Group *EventGroup

	// Participations are in chronological order.
	Participations []*PersonEvent
	// ContestantParticipations are the participations as a contestant.
	ContestantParticipations []*PersonEvent
	// Countries are the countries represented as a contestant, in order of
	// first participation.
	Countries []*Country
	NumAwards AwardCounts
}

func (p *Person) latest() *PersonEvent {
	return p.Participations[len(p.Participations)-1]
}

// GivenName is the given name at the most recent participation.
func (p *Person) GivenName() string { return p.latest().GivenName }

// FamilyName is the family name at the most recent participation.
func (p *Person) FamilyName() string { return p.latest().FamilyName }

// Name is the full name at the most recent participation.
func (p *Person) Name() string { return p.latest().Name() }

// NumParticipations counts participations as a contestant.
func (p *Person) NumParticipations() int {
	return len(p.ContestantParticipations)
}

// PersonEvent is a person at one event.
type PersonEvent struct {
	PersonEventData
	Person  *Person
	Event   *Event
	Country *CountryEvent

	GuideFor []*CountryEvent

	IsContestant   bool
	ContestantCode string
	TotalScore     int
	MaxTotalScore  int
	HaveAnyScores  bool
	// Award is "" when there is no award or scores are not final.
	Award        string
	Rank         int
	RankOfficial *int
}

// Name returns "Given Family".
func (p *PersonEvent) Name() string {
	return p.GivenName + " " + p.FamilyName
}

// AwardsStr lists the award and any extra awards.
func (p *PersonEvent) AwardsStr() string {
	var parts []string
	if p.Award != "" {
		parts = append(parts, p.Award)
	}
	parts = append(parts, p.ExtraAwards...)
	return strings.Join(parts, ", ")
}

// Score returns the score on problem n (0-based), or nil when missing.
func (p *PersonEvent) Score(n int) *int {
	if n < 0 || n >= len(p.ProblemScores) {
		return nil
	}
	return p.ProblemScores[n]
}
