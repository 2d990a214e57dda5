// Package eventconfig reads the per-event settings of the registration
// system: the [main] section of matholymp_* keys in an INI file.
package eventconfig

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/sitegen"

	"github.com/go-ini/ini"
)

const (
	section   = "main"
	keyPrefix = "matholymp_"

	// StaffCountryCode and NoneCountryCode identify the two special countries.
	StaffCountryCode = "ZZA"
	NoneCountryCode  = "ZZN"
	NoneCountryName  = "None"

	// PreviousLanguages in initial_languages adds every paper language of
	// the static site.
	PreviousLanguages = "PREVIOUS"
)

// EarliestParticipantDateOfBirth bounds the date of birth of non-contestants.
var EarliestParticipantDateOfBirth = datetimeutil.Date(1902, time.January, 1)

// Config holds the settings of one event. It is read once at start-up and
// never modified.
type Config struct {
	ShortName             string
	Year                  string
	EventNumber           int
	TrackerURL            string
	GenericURLBase        string
	GenericURLDescPlural  string
	OfficialDesc          string
	NumProblems           int
	MarksPerProblem       []int
	NumContestantsPerTeam int
	NumLanguages          int
	RankTopN              *int

	RequireContestantsFemale bool
	RequireNationality       bool
	RequirePassportNumber    bool
	RequireDiet              bool
	RequireDateOfBirth       bool
	DistinguishOfficial      bool
	HonourableMentions       bool
	ConsentUI                bool
	InvitationLetterRegister bool

	EarliestDateOfBirth   time.Time
	SanityDateOfBirth     time.Time
	EarliestArrivalDate   time.Time
	LatestArrivalDate     time.Time
	EarliestDepartureDate time.Time
	LatestDepartureDate   time.Time
	AgeDayDate            time.Time
	ConsentFormsDate      *time.Time

	InitialLanguages           []string
	ExtraAdminRolesSecondaryOK []string
}

// Load reads the event configuration file at path.
func Load(path string) (*Config, error) {
	f, err := fileutil.LoadINI(path)
	if err != nil {
		return nil, fmt.Errorf("load event config %s: %w", path, err)
	}
	return parse(f)
}

// Parse reads event configuration from memory.
func Parse(data []byte) (*Config, error) {
	f, err := fileutil.LoadINI(data)
	if err != nil {
		return nil, fmt.Errorf("load event config: %w", err)
	}
	return parse(f)
}

type reader struct {
	sec *ini.Section
	err error
}

func (r *reader) raw(name string, required bool, def string) string {
	if r.err != nil {
		return def
	}
	key, err := r.sec.GetKey(keyPrefix + name)
	if err != nil {
		if required {
			r.err = fmt.Errorf("missing config key %s%s", keyPrefix, name)
		}
		return def
	}
	return strings.TrimSpace(key.Value())
}

func (r *reader) str(name string) string {
	return r.raw(name, true, "")
}

func (r *reader) optStr(name, def string) string {
	return r.raw(name, false, def)
}

func (r *reader) int(name string) int {
	s := r.raw(name, true, "0")
	n, err := strconv.Atoi(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("config key %s%s: invalid integer %q", keyPrefix, name, s)
	}
	return n
}

func (r *reader) intOrNone(name string) *int {
	s := r.raw(name, false, "")
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("config key %s%s: invalid integer %q", keyPrefix, name, s)
		}
		return nil
	}
	return &n
}

func (r *reader) bool(name string, def bool) bool {
	s := r.raw(name, false, "")
	if s == "" {
		return def
	}
	v, err := fileutil.ParseBool(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("config key %s%s: %w", keyPrefix, name, err)
	}
	return v
}

func (r *reader) date(name string) time.Time {
	s := r.raw(name, true, "")
	if r.err != nil {
		return time.Time{}
	}
	d, err := datetimeutil.DateFromYMDISO(strings.ReplaceAll(name, "_", " "), s)
	if err != nil {
		r.err = err
	}
	return d
}

func (r *reader) optDate(name string) *time.Time {
	s := r.raw(name, false, "")
	if s == "" || r.err != nil {
		return nil
	}
	d, err := datetimeutil.DateFromYMDISO(strings.ReplaceAll(name, "_", " "), s)
	if err != nil {
		r.err = err
		return nil
	}
	return &d
}

func (r *reader) intList(name string) []int {
	fields := strings.Fields(r.raw(name, true, ""))
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			if r.err == nil {
				r.err = fmt.Errorf("config key %s%s: invalid integer %q", keyPrefix, name, f)
			}
			return nil
		}
		out = append(out, n)
	}
	return out
}

func (r *reader) list(name string) []string {
	var out []string
	for _, item := range strings.Split(r.raw(name, false, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parse(f *ini.File) (*Config, error) {
	sec, err := f.GetSection(section)
	if err != nil {
		return nil, fmt.Errorf("missing section %s", section)
	}
	r := &reader{sec: sec}
	c := &Config{
		ShortName:             r.str("short_name"),
		Year:                  r.str("year"),
		EventNumber:           r.int("event_number"),
		TrackerURL:            r.optStr("tracker_url", "/"),
		GenericURLBase:        r.str("generic_url_base"),
		GenericURLDescPlural:  r.optStr("generic_url_desc_plural", "URLs"),
		OfficialDesc:          r.optStr("official_desc", "Official"),
		NumProblems:           r.int("num_problems"),
		MarksPerProblem:       r.intList("marks_per_problem"),
		NumContestantsPerTeam: r.int("num_contestants_per_team"),
		NumLanguages:          r.int("num_languages"),
		RankTopN:              r.intOrNone("rank_top_n"),

		RequireContestantsFemale: r.bool("require_contestants_female", false),
		RequireNationality:       r.bool("require_nationality", false),
		RequirePassportNumber:    r.bool("require_passport_number", false),
		RequireDiet:              r.bool("require_diet", false),
		RequireDateOfBirth:       r.bool("require_date_of_birth", false),
		DistinguishOfficial:      r.bool("distinguish_official", false),
		HonourableMentions:       r.bool("honourable_mentions_available", true),
		ConsentUI:                r.bool("consent_ui", false),
		InvitationLetterRegister: r.bool("invitation_letter_register", false),

		EarliestDateOfBirth:   r.date("earliest_date_of_birth"),
		SanityDateOfBirth:     r.date("sanity_date_of_birth"),
		EarliestArrivalDate:   r.date("earliest_arrival_date"),
		LatestArrivalDate:     r.date("latest_arrival_date"),
		EarliestDepartureDate: r.date("earliest_departure_date"),
		LatestDepartureDate:   r.date("latest_departure_date"),
		AgeDayDate:            r.date("age_day_date"),
		ConsentFormsDate:      r.optDate("consent_forms_date"),

		InitialLanguages:           r.list("initial_languages"),
		ExtraAdminRolesSecondaryOK: r.list("extra_admin_roles_secondaryok"),
	}
	if r.err != nil {
		return nil, r.err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings against each other.
func (c *Config) Validate() error {
	if c.NumProblems <= 0 {
		return fmt.Errorf("num_problems must be positive")
	}
	if len(c.MarksPerProblem) != c.NumProblems {
		return fmt.Errorf("marks_per_problem has %d entries, expected %d", len(c.MarksPerProblem), c.NumProblems)
	}
	for i, m := range c.MarksPerProblem {
		if m <= 0 {
			return fmt.Errorf("marks for problem %d must be positive", i+1)
		}
	}
	if c.NumContestantsPerTeam <= 0 {
		return fmt.Errorf("num_contestants_per_team must be positive")
	}
	if c.NumLanguages <= 0 {
		return fmt.Errorf("num_languages must be positive")
	}
	if c.LatestArrivalDate.Before(c.EarliestArrivalDate) {
		return fmt.Errorf("latest arrival date before earliest arrival date")
	}
	if c.LatestDepartureDate.Before(c.EarliestDepartureDate) {
		return fmt.Errorf("latest departure date before earliest departure date")
	}
	return nil
}

// StaffCountryName is the name of the special country of the organisers.
func (c *Config) StaffCountryName() string {
	return c.ShortName + " " + c.Year + " Staff"
}

// MaxTotalScore is the sum of the marks of every problem.
func (c *Config) MaxTotalScore() int {
	total := 0
	for _, m := range c.MarksPerProblem {
		total += m
	}
	return total
}

// ContestantRoles returns "Contestant 1" up to the team size.
func (c *Config) ContestantRoles() []string {
	roles := make([]string, c.NumContestantsPerTeam)
	for i := range roles {
		roles[i] = olympiad.ContestantRolePrefix + strconv.Itoa(i+1)
	}
	return roles
}

// ContestantAge returns the age of someone born on dob on the age day.
func (c *Config) ContestantAge(dob time.Time) int {
	return datetimeutil.AgeOnDate(dob, c.AgeDayDate)
}

// NeedsConsentForm reports whether someone born on dob needs a consent form.
func (c *Config) NeedsConsentForm(dob *time.Time) bool {
	if c.ConsentFormsDate == nil || dob == nil {
		return false
	}
	return !dob.Before(*c.ConsentFormsDate)
}

// InitialLanguageSet evaluates initial_languages in order: a name adds a
// language, "-name" removes one and PREVIOUS adds the previous languages.
func (c *Config) InitialLanguageSet(previous []string) ([]string, error) {
	set := make(map[string]struct{})
	for _, item := range c.InitialLanguages {
		switch {
		case strings.HasPrefix(item, "-"):
			name := item[1:]
			if _, ok := set[name]; !ok {
				return nil, fmt.Errorf("language %s removed but not present", name)
			}
			delete(set, name)
		case item == PreviousLanguages:
			if previous == nil {
				return nil, fmt.Errorf("PREVIOUS languages specified without static site data")
			}
			for _, l := range previous {
				set[l] = struct{}{}
			}
		default:
			set[item] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	slices.Sort(out)
	return out, nil
}

// GroupConfig returns the olympiad settings of this event.
func (c *Config) GroupConfig() olympiad.GroupConfig {
	return olympiad.GroupConfig{
		ShortName:                   c.ShortName,
		ShortNamePlural:             c.ShortName + "s",
		LongName:                    c.ShortName,
		DistinguishOfficial:         c.DistinguishOfficial,
		RankTopN:                    c.RankTopN,
		HonourableMentionsAvailable: c.HonourableMentions,
	}
}

// SiteConfig returns the generator settings used for registration
// exports and the live scoreboard.
func (c *Config) SiteConfig() *sitegen.Config {
	return &sitegen.Config{
		LongName:                    c.ShortName,
		ShortName:                   c.ShortName,
		ShortNamePlural:             c.ShortName + "s",
		NumKey:                      c.ShortName + " Number",
		ScoresCSS:                   "scores",
		ListCSS:                     "list",
		PhotoCSS:                    "photo",
		URLBase:                     c.GenericURLBase,
		OfficialDesc:                c.OfficialDesc,
		OfficialDescLC:              strings.ToLower(c.OfficialDesc),
		OfficialAdj:                 c.OfficialDesc,
		RankTopN:                    c.RankTopN,
		DistinguishOfficial:         c.DistinguishOfficial,
		HonourableMentionsAvailable: c.HonourableMentions,
		PageTemplate:                "%(body)s",
	}
}
