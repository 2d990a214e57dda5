// Package docgen generates printed documents for one event (badges, desk
// labels, certificates, exam papers, coordination forms) from data
// downloaded from the registration system, by filling LaTeX templates.
package docgen

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"matholymp/internal/csvsource"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

const (
	ConfigFile    = "documentgen.cfg"
	ConfigSection = "matholymp.documentgen"
)

var configKeys = fileutil.ConfigKeys{
	Strings: []string{
		"year", "short_name", "long_name", "num_key", "marks_per_problem",
		"badge_phone_desc", "badge_event_phone", "badge_emergency_phone",
		"badge_event_ordinal", "badge_event_venue", "badge_event_dates",
	},
	Ints:     []string{"event_number", "num_exams", "num_problems", "num_contestants_per_team"},
	IntNones: []string{"gold_boundary", "silver_boundary", "bronze_boundary"},
	Bools: []string{
		"show_countries_for_guides", "show_rooms_for_guides",
		"paper_print_logo", "paper_text_left", "honourable_mentions_available",
	},
}

// Config is the contents of documentgen.cfg.
type Config struct {
	Year            string
	ShortName       string
	LongName        string
	NumKey          string
	MarksPerProblem []int

	BadgePhoneDesc      string
	BadgeEventPhone     string
	BadgeEmergencyPhone string
	BadgeEventOrdinal   string
	BadgeEventVenue     string
	BadgeEventDates     string

	EventNumber           int
	NumExams              int
	NumProblems           int
	NumContestantsPerTeam int

	GoldBoundary   *int
	SilverBoundary *int
	BronzeBoundary *int

	ShowCountriesForGuides      bool
	ShowRoomsForGuides          bool
	PaperPrintLogo              bool
	PaperTextLeft               bool
	HonourableMentionsAvailable bool
}

// StaffCountry is the name of the country holding the event staff.
func (c *Config) StaffCountry() string {
	return c.ShortName + " " + c.Year + " Staff"
}

// ReadConfig reads documentgen.cfg from topDir.
func ReadConfig(topDir string) (*Config, error) {
	v, err := fileutil.ReadConfig(filepath.Join(topDir, ConfigFile), ConfigSection, configKeys)
	if err != nil {
		return nil, err
	}
	return fromValues(v)
}

// ParseConfig parses the contents of a documentgen.cfg file.
func ParseConfig(data []byte) (*Config, error) {
	v, err := fileutil.ReadConfigBytes(data, ConfigSection, configKeys)
	if err != nil {
		return nil, err
	}
	return fromValues(v)
}

func fromValues(v *fileutil.ConfigValues) (*Config, error) {
	s := v.Strings
	c := &Config{
		Year:                        s["year"],
		ShortName:                   s["short_name"],
		LongName:                    s["long_name"],
		NumKey:                      s["num_key"],
		BadgePhoneDesc:              s["badge_phone_desc"],
		BadgeEventPhone:             s["badge_event_phone"],
		BadgeEmergencyPhone:         s["badge_emergency_phone"],
		BadgeEventOrdinal:           s["badge_event_ordinal"],
		BadgeEventVenue:             s["badge_event_venue"],
		BadgeEventDates:             s["badge_event_dates"],
		EventNumber:                 v.Ints["event_number"],
		NumExams:                    v.Ints["num_exams"],
		NumProblems:                 v.Ints["num_problems"],
		NumContestantsPerTeam:       v.Ints["num_contestants_per_team"],
		GoldBoundary:                v.IntNones["gold_boundary"],
		SilverBoundary:              v.IntNones["silver_boundary"],
		BronzeBoundary:              v.IntNones["bronze_boundary"],
		ShowCountriesForGuides:      v.Bools["show_countries_for_guides"],
		ShowRoomsForGuides:          v.Bools["show_rooms_for_guides"],
		PaperPrintLogo:              v.Bools["paper_print_logo"],
		PaperTextLeft:               v.Bools["paper_text_left"],
		HonourableMentionsAvailable: v.Bools["honourable_mentions_available"],
	}
	for _, f := range strings.Fields(s["marks_per_problem"]) {
		m, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("marks_per_problem: invalid value %q", f)
		}
		c.MarksPerProblem = append(c.MarksPerProblem, m)
	}
	if len(c.MarksPerProblem) != c.NumProblems {
		return nil, fmt.Errorf("marks_per_problem: expected %d values, got %d",
			c.NumProblems, len(c.MarksPerProblem))
	}
	return c, nil
}

// SourceOptions describes how registration CSV files are read for the
// event.
func (c *Config) SourceOptions() csvsource.Options {
	return csvsource.Options{
		Group: olympiad.GroupConfig{
			ShortName:                   c.ShortName,
			LongName:                    c.LongName,
			HonourableMentionsAvailable: c.HonourableMentionsAvailable,
		},
		NumKey: c.NumKey,
	}
}

// SingleEvent is the event described by the configuration.
func (c *Config) SingleEvent() csvsource.SingleEvent {
	return csvsource.SingleEvent{
		ID:              c.EventNumber,
		Year:            c.Year,
		NumExams:        c.NumExams,
		NumProblems:     c.NumProblems,
		MarksPerProblem: c.MarksPerProblem,
		GoldBoundary:    c.GoldBoundary,
		SilverBoundary:  c.SilverBoundary,
		BronzeBoundary:  c.BronzeBoundary,
	}
}

// LoadEvent reads countries.csv and people.csv from dataDir and returns the
// configured event.
func LoadEvent(dataDir string, c *Config) (*olympiad.Event, error) {
	g, err := csvsource.LoadFiles(csvsource.Files{
		Countries: filepath.Join(dataDir, "countries.csv"),
		People:    filepath.Join(dataDir, "people.csv"),
	}, c.SourceOptions(), c.SingleEvent().Row())
	if err != nil {
		return nil, err
	}
	e, ok := g.EventMap[c.EventNumber]
	if !ok {
		return nil, fmt.Errorf("event %d not found", c.EventNumber)
	}
	return e, nil
}
