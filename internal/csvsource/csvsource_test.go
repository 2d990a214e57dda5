package csvsource

import (
	"path/filepath"
	"strings"
	"testing"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

func testOptions() Options {
	active := 2
	return Options{
		Group: olympiad.GroupConfig{
			ShortName:                   "XMO",
			LongName:                    "Example Mathematical Olympiad",
			DistinguishOfficial:         true,
			HonourableMentionsAvailable: true,
		},
		NumKey:            "XMO Number",
		OfficialDesc:      "XMO Official",
		EventActiveNumber: &active,
	}
}

func testRows() (events, papers, countries, people []fileutil.Row) {
	events = []fileutil.Row{
		{"Number": "1", "Year": "2019", "Country Number": "1", "Country": "Aland",
			"Number of Exams": "1", "Number of Problems": "2", "P1 Max": "7", "P2 Max": "7",
			"Gold Boundary": "12", "Silver Boundary": "8", "Bronze Boundary": "4",
			"Start Date": "2019-04-01", "End Date": "2019-04-05"},
		{"Number": "2", "Year": "2020", "Country Number": "2", "Country": "Bland",
			"Number of Exams": "1", "Number of Problems": "2", "P1 Max": "7", "P2 Max": "7",
			"Honourable Mentions Available": "No"},
	}
	papers = []fileutil.Row{
		{"XMO Number": "1", "Day": "1", "Language": "English", "Description": "Day 1", "URL": "https://example.org/p.pdf"},
	}
	countries = []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Code": "AAA", "Name": "Aland", "XMO Official": "Yes", "Normal": "Yes"},
		{"XMO Number": "1", "Country Number": "3", "Code": "ZZA", "Name": "XMO 2019 Staff", "XMO Official": "No", "Normal": "No"},
		{"XMO Number": "2", "Country Number": "1", "Code": "AAA", "Name": "Aland", "XMO Official": "Yes",
			"Contact Emails": "a@example.org,b@example.org"},
		{"XMO Number": "2", "Country Number": "2", "Code": "BBB", "Name": "Bland", "XMO Official": "No"},
	}
	people = []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Person Number": "1", "Primary Role": "Contestant 1",
			"Given Name": "Ann", "Family Name": "Able", "P1": "7", "P2": "6", "Total": "13", "Award": "Gold Medal",
			"Extra Awards": "Special Prize", "Contestant Age": "17"},
		{"XMO Number": "1", "Country Number": "3", "Person Number": "2", "Primary Role": "Guide",
			"Other Roles": "Coordinator,Chief Guide", "Guide For": "Aland", "Given Name": "Gil", "Family Name": "Guide",
			"Date of Birth": "1990-01-31", "Arrival Time": "09:30", "Event Photos Consent": "Yes"},
		{"XMO Number": "2", "Country Number": "1", "Person Number": "1", "Primary Role": "Contestant 1",
			"Given Name": "Ann", "Family Name": "Able-Baker", "P1": "3"},
	}
	return
}

func TestBuild(t *testing.T) {
	events, papers, countries, people := testRows()
	g, err := Build(testOptions(), events, papers, countries, people)
	if err != nil {
		t.Fatalf("expected group, got %v", err)
	}
	if len(g.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(g.Events))
	}
	e1, e2 := g.EventMap[1], g.EventMap[2]
	if e1.RegistrationActive || !e2.RegistrationActive {
		t.Fatalf("expected only event 2 active")
	}
	if e2.HonourableMentionsAvailable {
		t.Fatalf("expected override of honourable mentions")
	}
	if len(e1.Papers) != 1 || e1.Papers[0].Language != "English" {
		t.Fatalf("unexpected papers %v", e1.Papers)
	}
	if e1.StartDate == nil || e1.StartDate.Day() != 1 {
		t.Fatalf("expected start date parsed")
	}

	ann := e1.ContestantMap["AAA1"]
	if ann == nil || ann.Award != olympiad.AwardGold || ann.AwardsStr() != "Gold Medal, Special Prize" {
		t.Fatalf("unexpected contestant %+v", ann)
	}
	if *ann.ContestantAge != 17 {
		t.Fatalf("expected contestant age 17")
	}
	guide := e1.PersonMap[2]
	if len(guide.GuideFor) != 1 || guide.GuideFor[0].Code != "AAA" {
		t.Fatalf("expected guide for Aland")
	}
	if len(guide.OtherRoles) != 2 || guide.OtherRoles[1] != "Chief Guide" {
		t.Fatalf("unexpected other roles %v", guide.OtherRoles)
	}
	if guide.DateOfBirth == nil || guide.ArrivalTime == nil || guide.ArrivalTime.Minute != 30 {
		t.Fatalf("expected private details parsed")
	}
	if guide.EventPhotosConsent == nil || !*guide.EventPhotosConsent {
		t.Fatalf("expected photo consent")
	}
	if e1.CountryMap[3].IsNormal {
		t.Fatalf("expected staff country not normal")
	}
	if len(e2.CountryMap[1].ContactEmails) != 2 {
		t.Fatalf("expected contact emails")
	}
	if g.PersonMap[1].FamilyName() != "Able-Baker" {
		t.Fatalf("expected name from latest event")
	}
	if e2.ScoresFinal() || e2.ContestantMap["AAA1"].Award != "" {
		t.Fatalf("expected no award before boundaries")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(events, countries, people []fileutil.Row)
		want string
	}{
		{
			name: "bad official",
			mod:  func(_, countries, _ []fileutil.Row) { countries[0]["XMO Official"] = "Maybe" },
			want: "unexpected XMO Official setting",
		},
		{
			name: "unknown guide country",
			mod:  func(_, _, people []fileutil.Row) { people[1]["Guide For"] = "Nowhere" },
			want: "bad number of countries called Nowhere",
		},
		{
			name: "score beyond problems",
			mod:  func(_, _, people []fileutil.Row) { people[0]["P3"] = "1" },
			want: "nonexistent problem P3",
		},
		{
			name: "total mismatch",
			mod:  func(_, _, people []fileutil.Row) { people[0]["Total"] = "14" },
			want: "total score mismatch",
		},
		{
			name: "duplicate person",
			mod: func(_, _, people []fileutil.Row) {
				people[2]["XMO Number"] = "1"
			},
			want: "duplicate person",
		},
		{
			name: "missing problem max",
			mod:  func(events, _, _ []fileutil.Row) { delete(events[1], "P2 Max") },
			want: "missing P2 Max",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, papers, countries, people := testRows()
			tt.mod(events, countries, people)
			_, err := Build(testOptions(), events, papers, countries, people)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSingleEventRow(t *testing.T) {
	gold, silver, bronze := 20, 15, 10
	row := SingleEvent{ID: 5, Year: "2024", NumExams: 2, NumProblems: 3, MarksPerProblem: []int{7, 7, 7},
		GoldBoundary: &gold, SilverBoundary: &silver, BronzeBoundary: &bronze}.Row()
	if row["Number"] != "5" || row["P3 Max"] != "7" || row["Gold Boundary"] != "20" || row["Silver Boundary"] != "15" || row["Bronze Boundary"] != "10" {
		t.Fatalf("unexpected row %v", row)
	}
	_, _, countries, people := testRows()
	for _, r := range countries {
		r["XMO Number"] = "5"
	}
	countries = countries[:2]
	people = []fileutil.Row{{"XMO Number": "5", "Country Number": "1", "Person Number": "9",
		"Primary Role": "Contestant 1", "Given Name": "Z", "Family Name": "Z", "P1": "7"}}
	g, err := Build(testOptions(), []fileutil.Row{row}, nil, countries, people)
	if err != nil {
		t.Fatalf("expected group, got %v", err)
	}
	if g.Events[0].ContestantMap["AAA1"].MaxTotalScore != 21 {
		t.Fatalf("expected max total from unscored problems")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	files := DataFiles(dir, "xmos")
	if files.Events != filepath.Join(dir, "data", "xmos.csv") {
		t.Fatalf("unexpected events path %s", files.Events)
	}
	events, papers, countries, people := testRows()
	write := func(path string, rows []fileutil.Row, keys []string) {
		if err := fileutil.WriteUTF8CSV(path, rows, keys); err != nil {
			t.Fatalf("expected write, got %v", err)
		}
	}
	write(files.Events, events, []string{"Number", "Year", "Country Number", "Country", "Number of Exams",
		"Number of Problems", "P1 Max", "P2 Max", "Gold Boundary", "Silver Boundary", "Bronze Boundary"})
	write(files.Papers, papers, []string{"XMO Number", "Day", "Language", "Description", "URL"})
	write(files.Countries, countries, []string{"XMO Number", "Country Number", "Code", "Name", "XMO Official"})
	write(files.People, people, []string{"XMO Number", "Country Number", "Person Number", "Primary Role",
		"Given Name", "Family Name", "P1", "P2", "Guide For"})

	g, err := LoadFiles(files, testOptions())
	if err != nil {
		t.Fatalf("expected group, got %v", err)
	}
	if len(g.People) != 2 || len(g.Countries) != 3 {
		t.Fatalf("unexpected counts %d people %d countries", len(g.People), len(g.Countries))
	}
}
