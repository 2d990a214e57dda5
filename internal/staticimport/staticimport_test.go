package staticimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matholymp/internal/fileutil"
	"matholymp/internal/sitegen"
)

const siteConfig = `[matholymp.staticsite]
long_name = Example Mathematical Olympiad
short_name = XMO
short_name_plural = XMOs
num_key = XMO Number
scores_css = xmo-scores
list_css = xmo-list
photo_css = xmo-photo
page_suffix = .html
page_include_extra =
url_base = https://www.example.org/
short_name_url = xmo
short_name_url_plural = xmos
official_desc = XMO Official
official_desc_lc = official
official_adj = Official
age_day_desc = 1 April
rank_top_n =
event_active_number =
use_xhtml = no
distinguish_official = yes
honourable_mentions_available = yes
`

const docConfig = `[matholymp.documentgen]
year = 2019
short_name = XMO
long_name = Example Mathematical Olympiad
num_key = XMO Number
marks_per_problem = 7 7
badge_phone_desc = Phone
badge_event_phone = 1
badge_emergency_phone = 2
badge_event_ordinal = 1st
badge_event_venue = Town
badge_event_dates = April
event_number = 1
num_exams = 2
num_problems = 2
num_contestants_per_team = 4
gold_boundary =
silver_boundary =
bronze_boundary =
show_countries_for_guides = no
show_rooms_for_guides = no
paper_print_logo = no
paper_text_left = no
honourable_mentions_available = no
`

var (
	countryKeys = []string{"XMO Number", "Country Number", "Annual URL", "Code", "Name", "Flag URL", "XMO Official"}
	personKeys  = []string{"XMO Number", "Country Number", "Person Number", "Annual URL", "Country Name",
		"Country Code", "Primary Role", "Other Roles", "Guide For", "Contestant Code", "Contestant Age",
		"Given Name", "Family Name", "P1", "P2", "Total", "Award", "Extra Awards", "Photo URL"}
)

func testConfig(t *testing.T) *sitegen.Config {
	t.Helper()
	cfg, err := sitegen.ParseConfig([]byte(siteConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	return cfg
}

func writeCSV(t *testing.T, path string, rows []fileutil.Row, keys []string) {
	t.Helper()
	if err := fileutil.WriteUTF8CSV(path, rows, keys); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := fileutil.WriteTextAtomic(path, text); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readCSV(t *testing.T, path string) []fileutil.Row {
	t.Helper()
	rows, err := fileutil.ReadUTF8CSV(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

// newSite creates a site holding event 1 with one country and one person.
func newSite(t *testing.T) string {
	t.Helper()
	top := t.TempDir()
	writeCSV(t, filepath.Join(top, "data", "countries.csv"), []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Code": "AAA", "Name": "Aland", "XMO Official": "Yes"},
	}, countryKeys)
	writeCSV(t, filepath.Join(top, "data", "people.csv"), []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Person Number": "1", "Primary Role": "Contestant 1",
			"Given Name": "Ann", "Family Name": "Able", "P1": "7", "P2": "7"},
	}, personKeys)
	return top
}

func newInput(t *testing.T, countries, people []fileutil.Row) string {
	t.Helper()
	in := t.TempDir()
	writeCSV(t, filepath.Join(in, "countries.csv"), countries, append(countryKeys, "Generic Number"))
	writeCSV(t, filepath.Join(in, "people.csv"), people,
		append(personKeys[:15:15], "P3", "Total", "Award", "Extra Awards", "Photo URL", "Generic Number"))
	writeFile(t, filepath.Join(in, "flags", "flag3", "flag.JPEG"), "flag")
	writeFile(t, filepath.Join(in, "photos", "photo4", "photo.png"), "photo")
	writeFile(t, filepath.Join(in, "photos", "photo5", "photo.png"), "photo again")
	writeFile(t, filepath.Join(in, "scores-rss.xml"), "<rss/>")
	return in
}

func event2Countries() []fileutil.Row {
	return []fileutil.Row{
		{"XMO Number": "2", "Country Number": "7", "Generic Number": "1", "Code": "AAA", "Name": "Aland",
			"Flag URL": "https://reg.example.org/xmo/file3/Aland%20flag.JPEG", "XMO Official": "Yes"},
		{"XMO Number": "2", "Country Number": "8", "Code": "BBB", "Name": "Bland", "XMO Official": "No"},
	}
}

func event2People() []fileutil.Row {
	return []fileutil.Row{
		{"XMO Number": "2", "Country Number": "7", "Person Number": "20", "Generic Number": "1",
			"Primary Role": "Contestant 1", "Given Name": "Ann", "Family Name": "Able", "P1": "1", "P3": "2",
			"Photo URL": "https://reg.example.org/xmo/file4/ann.png"},
		{"XMO Number": "2", "Country Number": "7", "Person Number": "20", "Generic Number": "1",
			"Primary Role": "Contestant 1", "Given Name": "Ann", "Family Name": "Able",
			"Photo URL": "https://reg.example.org/xmo/file5/ann2.png"},
		{"XMO Number": "2", "Country Number": "8", "Person Number": "21",
			"Primary Role": "Leader", "Given Name": "Bob", "Family Name": "Boss"},
	}
}

func TestImport(t *testing.T) {
	cfg := testConfig(t)
	top := newSite(t)
	in := newInput(t, event2Countries(), event2People())
	ctx := context.Background()

	if err := Import(ctx, cfg, top, in); err != nil {
		t.Fatalf("Import: %v", err)
	}

	countries := readCSV(t, filepath.Join(top, "data", "countries.csv"))
	if len(countries) != 3 {
		t.Fatalf("expected 3 countries, got %d", len(countries))
	}
	if c := countries[1]; c["Country Number"] != "1" || c["Flag URL"] != "https://www.example.org/countries/country1/flag2.jpg" {
		t.Fatalf("unexpected imported country %v", c)
	}
	if _, ok := countries[1]["Generic Number"]; ok {
		t.Fatalf("expected Generic Number to be dropped")
	}
	if c := countries[2]; c["Country Number"] != "2" {
		t.Fatalf("expected new country numbered 2, got %v", c)
	}
	if !fileutil.Exists(filepath.Join(top, "countries", "country1", "flag2.jpg")) {
		t.Fatalf("expected flag to be copied")
	}

	people := readCSV(t, filepath.Join(top, "data", "people.csv"))
	if len(people) != 4 {
		t.Fatalf("expected 4 people, got %d", len(people))
	}
	if p := people[0]; p["P3"] != "" || p["P1"] != "7" {
		t.Fatalf("expected old row padded with P3, got %v", p)
	}
	if p := people[1]; p["Person Number"] != "1" || p["Country Number"] != "1" ||
		p["Photo URL"] != "https://www.example.org/people/person1/photo2.png" {
		t.Fatalf("unexpected imported person %v", p)
	}
	if p := people[2]; p["Photo URL"] != "https://www.example.org/people/person1/photo2-2.png" {
		t.Fatalf("expected second photo suffix, got %v", p)
	}
	if p := people[3]; p["Person Number"] != "2" || p["Country Number"] != "2" {
		t.Fatalf("unexpected new person %v", p)
	}
	rss, err := os.ReadFile(filepath.Join(top, "xmos", "xmo2", "scoreboard", "rss.xml"))
	if err != nil || string(rss) != "<rss/>" {
		t.Fatalf("expected RSS to be copied, got %q %v", rss, err)
	}

	err = Import(ctx, cfg, top, newInput(t, event2Countries(), event2People()))
	if !errors.Is(err, ErrAlreadyPresent) {
		t.Fatalf("expected %v, got %v", ErrAlreadyPresent, err)
	}
}

func TestImportErrors(t *testing.T) {
	cfg := testConfig(t)
	mixed := event2Countries()
	mixed[1]["XMO Number"] = "3"
	wrongPerson := event2People()
	wrongPerson[2]["XMO Number"] = "3"
	tests := []struct {
		name      string
		countries []fileutil.Row
		people    []fileutil.Row
		want      error
	}{
		{"country from wrong event", mixed, event2People(), ErrWrongEventCountry},
		{"no countries", nil, event2People(), ErrNoCountries},
		{"person from wrong event", event2Countries(), wrongPerson, ErrWrongEventPerson},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Import(context.Background(), cfg, newSite(t), newInput(t, tt.countries, tt.people))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func newDocDir(t *testing.T) string {
	t.Helper()
	doc := t.TempDir()
	writeFile(t, filepath.Join(doc, "documentgen.cfg"), docConfig)
	writeCSV(t, filepath.Join(doc, "data", "countries.csv"), []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Code": "AAA", "Name": "Aland"},
	}, []string{"XMO Number", "Country Number", "Code", "Name"})
	writeCSV(t, filepath.Join(doc, "data", "people.csv"), []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Person Number": "1", "Primary Role": "Contestant 1",
			"Given Name": "Ann", "Family Name": "Able", "Languages": "English,Brazilian Portuguese"},
	}, []string{"XMO Number", "Country Number", "Person Number", "Primary Role", "Given Name", "Family Name", "Languages"})
	for _, day := range []string{"-day1", "-day2"} {
		for _, bg := range []string{"", "-bg"} {
			for _, lang := range []string{"English", "Brazilian-Portuguese"} {
				writeFile(t, filepath.Join(doc, "out", "paper"+day+bg+"-"+lang+".pdf"), "%PDF")
			}
		}
	}
	return doc
}

func TestPapersImport(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	top := newSite(t)
	writeCSV(t, filepath.Join(top, "data", "papers.csv"), nil, PapersHeader(cfg))
	if err := PapersImport(ctx, cfg, top, newDocDir(t), PapersOptions{}); err != nil {
		t.Fatalf("PapersImport: %v", err)
	}
	papers := readCSV(t, filepath.Join(top, "data", "papers.csv"))
	if len(papers) != 4 {
		t.Fatalf("expected 4 papers, got %d", len(papers))
	}
	first := papers[0]
	if first["Day"] != "1" || first["Language"] != "Brazilian Portuguese" || first["Description"] != "" ||
		first["URL"] != "https://www.example.org/xmos/xmo1/paper-day1-Brazilian-Portuguese.pdf" {
		t.Fatalf("unexpected paper %v", first)
	}
	if papers[3]["Day"] != "2" || papers[3]["Language"] != "English" {
		t.Fatalf("unexpected last paper %v", papers[3])
	}
	if !fileutil.Exists(filepath.Join(top, "xmos", "xmo1", "paper-day2-English.pdf")) {
		t.Fatalf("expected paper to be copied")
	}

	top = newSite(t)
	writeCSV(t, filepath.Join(top, "data", "papers.csv"), nil, PapersHeader(cfg))
	if err := PapersImport(ctx, cfg, top, newDocDir(t), PapersOptions{Day: "2", Background: true}); err != nil {
		t.Fatalf("PapersImport with background: %v", err)
	}
	papers = readCSV(t, filepath.Join(top, "data", "papers.csv"))
	var descs []string
	for _, p := range papers {
		if p["Day"] != "2" {
			t.Fatalf("expected only day 2 papers, got %v", p)
		}
		descs = append(descs, p["Description"]+"="+filepath.Base(p["URL"]))
	}
	want := "=paper-day2-bg-Brazilian-Portuguese.pdf|without background design=paper-day2-Brazilian-Portuguese.pdf|" +
		"=paper-day2-bg-English.pdf|without background design=paper-day2-English.pdf"
	if got := strings.Join(descs, "|"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestUpgrade(t *testing.T) {
	cfg := testConfig(t)
	top := t.TempDir()
	oldKeys := []string{"XMO Number", "Country Number", "Person Number", "Annual URL", "Country Name",
		"Country Code", "Primary Role", "Other Roles", "Guide For", "Contestant Code", "Contestant Age",
		"Given Name", "Family Name", "P1", "P2", "P3", "Total", "Award", "Photo URL"}
	writeCSV(t, filepath.Join(top, "data", "people.csv"), []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Person Number": "1", "Primary Role": "Guide",
			"Other Roles": "Coordinator,Chief Guide", "Guide For": `Land "X",Bland`},
		{"XMO Number": "1", "Country Number": "1", "Person Number": "2", "Primary Role": "Leader"},
	}, oldKeys)

	if err := Upgrade(context.Background(), cfg, top); err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	people := readCSV(t, filepath.Join(top, "data", "people.csv"))
	p := people[0]
	if p["Other Roles"] != "Coordinator,Chief Guide" || p["Guide For"] != `"Land ""X""",Bland` {
		t.Fatalf("unexpected converted lists %v", p)
	}
	if v, ok := p["Extra Awards"]; !ok || v != "" {
		t.Fatalf("expected empty Extra Awards column, got %q %v", v, ok)
	}
	if _, ok := p["P3"]; !ok {
		t.Fatalf("expected P3 column to be kept")
	}
	if people[1]["Other Roles"] != "" {
		t.Fatalf("expected empty list to stay empty, got %q", people[1]["Other Roles"])
	}
}
