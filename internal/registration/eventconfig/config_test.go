package eventconfig

import (
	"strings"
	"testing"
	"time"
)

const sample = `[main]
matholymp_short_name = XMO
matholymp_year = 2026
matholymp_event_number = 7
matholymp_tracker_url = https://reg.example.org/
matholymp_generic_url_base = https://www.example.org/
matholymp_num_problems = 3
matholymp_marks_per_problem = 7 7 10
matholymp_num_contestants_per_team = 4
matholymp_num_languages = 2
matholymp_rank_top_n =
MATHOLYMP_REQUIRE_CONTESTANTS_FEMALE = Yes
matholymp_distinguish_official = no
matholymp_earliest_date_of_birth = 2006-04-02
matholymp_sanity_date_of_birth = 2016-01-01
matholymp_earliest_arrival_date = 2026-04-01
matholymp_latest_arrival_date = 2026-04-05
matholymp_earliest_departure_date = 2026-04-06
matholymp_latest_departure_date = 2026-04-10
matholymp_age_day_date = 2026-04-08
matholymp_consent_forms_date = 2008-04-08
matholymp_initial_languages = English, French, PREVIOUS, -Latin
matholymp_extra_admin_roles_secondaryok = Jury Member, ,Translator
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.ShortName != "XMO" || c.EventNumber != 7 || c.NumProblems != 3 {
		t.Fatalf("unexpected config %+v", c)
	}
	if !c.RequireContestantsFemale || c.DistinguishOfficial || !c.HonourableMentions {
		t.Fatalf("unexpected booleans %+v", c)
	}
	if c.RankTopN != nil {
		t.Fatalf("expected no rank top n, got %d", *c.RankTopN)
	}
	if c.MaxTotalScore() != 24 {
		t.Fatalf("expected max total 24, got %d", c.MaxTotalScore())
	}
	if got := c.StaffCountryName(); got != "XMO 2026 Staff" {
		t.Fatalf("expected staff country name, got %q", got)
	}
	if got := strings.Join(c.ContestantRoles(), "|"); got != "Contestant 1|Contestant 2|Contestant 3|Contestant 4" {
		t.Fatalf("unexpected contestant roles %q", got)
	}
	if got := strings.Join(c.ExtraAdminRolesSecondaryOK, "|"); got != "Jury Member|Translator" {
		t.Fatalf("unexpected extra roles %q", got)
	}
	dob := time.Date(2008, 4, 9, 0, 0, 0, 0, time.UTC)
	if c.ContestantAge(dob) != 17 {
		t.Fatalf("expected age 17, got %d", c.ContestantAge(dob))
	}
	if !c.NeedsConsentForm(&dob) {
		t.Fatalf("expected consent form needed")
	}
	site := c.SiteConfig()
	if site.NumKey != "XMO Number" || site.URLBase != "https://www.example.org/" {
		t.Fatalf("unexpected site config %+v", site)
	}
}

func TestInitialLanguageSet(t *testing.T) {
	c, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	langs, err := c.InitialLanguageSet([]string{"Latin", "German"})
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	if got := strings.Join(langs, ","); got != "English,French,German" {
		t.Fatalf("unexpected languages %q", got)
	}
	if _, err := c.InitialLanguageSet(nil); err == nil {
		t.Fatalf("expected error for PREVIOUS without data")
	}
}

func TestParseKeepsCommentCharacters(t *testing.T) {
	data := strings.Replace(sample, "matholymp_generic_url_base = https://www.example.org/\n",
		"matholymp_generic_url_base = https://www.example.org/#xmo ; archive\n", 1)
	data = strings.Replace(data, "matholymp_short_name = XMO\n", "matholymp_short_name = \"XMO\"\n", 1)
	c, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.GenericURLBase != "https://www.example.org/#xmo ; archive" {
		t.Fatalf("expected inline ; and # kept, got %q", c.GenericURLBase)
	}
	if c.ShortName != `"XMO"` {
		t.Fatalf("expected surrounding quotes kept, got %q", c.ShortName)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"missing key", [2]string{"matholymp_year = 2026\n", ""}, "missing config key matholymp_year"},
		{"bad marks", [2]string{"7 7 10", "7 7"}, "marks_per_problem"},
		{"bad date", [2]string{"2026-04-08", "2026-13-08"}, "age day date"},
		{"bad bool", [2]string{"= no", "= maybe"}, "not a boolean"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(strings.Replace(sample, tc.replace[0], tc.replace[1], 1)))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
