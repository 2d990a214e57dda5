package olympiad

import (
	"strings"
	"testing"
)

func intp(v int) *int { return &v }

func boolp(v bool) *bool { return &v }

func strp(v string) *string { return &v }

func scores(v ...int) []*int {
	r := make([]*int, len(v))
	for i, s := range v {
		if s >= 0 {
			r[i] = intp(s)
		}
	}
	return r
}

func testGroupConfig() GroupConfig {
	return GroupConfig{
		ShortName:                   "XMO",
		LongName:                    "Example Mathematical Olympiad",
		DistinguishOfficial:         true,
		HonourableMentionsAvailable: true,
		AgeDayDesc:                  "the first day of the event",
	}
}

func addCountry(t *testing.T, b *Builder, event, id int, code, name string, official bool) {
	t.Helper()
	err := b.AddCountryEvent(CountryEventData{
		CountryID: id, EventID: event, Code: code, Name: name,
		IsOfficial: boolp(official), IsNormal: true,
	})
	if err != nil {
		t.Fatalf("expected country added, got %v", err)
	}
}

func addContestant(t *testing.T, b *Builder, event, person, country int, role, given, family string, s []*int) {
	t.Helper()
	err := b.AddPersonEvent(PersonEventData{
		PersonID: person, EventID: event, CountryID: country,
		PrimaryRole: role, GivenName: given, FamilyName: family, ProblemScores: s,
	})
	if err != nil {
		t.Fatalf("expected person added, got %v", err)
	}
}

// buildTestGroup has two events; the second has four contestants from two
// countries plus a leader who guides nobody and a guide.
func buildTestGroup(t *testing.T, final bool) *EventGroup {
	t.Helper()
	b := NewBuilder(testGroupConfig())
	if err := b.AddEvent(EventData{ID: 1, Year: "2014", HostCountryID: intp(1), HostCountryName: "Ruritania"}); err != nil {
		t.Fatalf("expected event added, got %v", err)
	}
	e2 := EventData{
		ID: 2, Year: "2015", HostCountryID: intp(2), HostCountryName: "Borduria",
		HostCountryNameIn: "the Republic of Borduria", HostCity: "Szohôd",
		NumExams: intp(2), NumProblems: intp(3), MarksPerProblem: []int{7, 7, 7},
	}
	if final {
		e2.GoldBoundary, e2.SilverBoundary, e2.BronzeBoundary = intp(18), intp(12), intp(8)
	}
	if err := b.AddEvent(e2); err != nil {
		t.Fatalf("expected event added, got %v", err)
	}
	addCountry(t, b, 1, 1, "RUR", "Ruritania", true)
	addCountry(t, b, 2, 1, "RUR", "Ruritania", true)
	addCountry(t, b, 2, 2, "BOR", "Borduria", false)
	addCountry(t, b, 2, 3, "ZZA", "Staff", false)

	addContestant(t, b, 1, 10, 1, "Leader", "Alice", "Smith", nil)
	addContestant(t, b, 2, 10, 1, "Contestant 1", "Alice", "Jones", scores(7, 7, 7))
	addContestant(t, b, 2, 11, 1, "Contestant 2", "Bob", "Brown", scores(7, 0, 5))
	addContestant(t, b, 2, 12, 2, "Contestant 1", "Carl", "Green", scores(7, 5, 0))
	addContestant(t, b, 2, 13, 2, "Contestant 2", "Dora", "White", scores(0, 7, -1))
	if err := b.AddPersonEvent(PersonEventData{
		PersonID: 14, EventID: 2, CountryID: 3, PrimaryRole: "Guide",
		GivenName: "Gus", FamilyName: "Guide", GuideForIDs: []int{2},
	}); err != nil {
		t.Fatalf("expected guide added, got %v", err)
	}
	g, err := b.Build()
	if err != nil {
		t.Fatalf("expected group built, got %v", err)
	}
	return g
}

func TestBuildDerivedScores(t *testing.T) {
	g := buildTestGroup(t, true)
	e := g.EventMap[2]

	if e.NumContestants() != 4 {
		t.Fatalf("expected 4 contestants, got %d", e.NumContestants())
	}
	if e.ShortNameWithYearAndCountry() != "XMO 2015 in the Republic of Borduria" {
		t.Fatalf("unexpected name %q", e.ShortNameWithYearAndCountry())
	}
	if e.HostLocation() != "Szohôd, Borduria" {
		t.Fatalf("unexpected host location %q", e.HostLocation())
	}

	tests := []struct {
		code   string
		total  int
		max    int
		award  string
		rank   int
		offRnk *int
	}{
		{"RUR1", 21, 21, AwardGold, 1, intp(1)},
		{"RUR2", 12, 12, AwardSilver, 2, intp(2)},
		{"BOR1", 12, 12, AwardSilver, 2, nil},
		{"BOR2", 7, 14, AwardHonourableMention, 4, nil},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			p, ok := e.ContestantMap[tt.code]
			if !ok {
				t.Fatalf("expected contestant %s", tt.code)
			}
			if p.TotalScore != tt.total || p.MaxTotalScore != tt.max {
				t.Fatalf("expected total %d max %d, got %d max %d", tt.total, tt.max, p.TotalScore, p.MaxTotalScore)
			}
			if p.Award != tt.award {
				t.Fatalf("expected award %q, got %q", tt.award, p.Award)
			}
			if p.Rank != tt.rank {
				t.Fatalf("expected rank %d, got %d", tt.rank, p.Rank)
			}
			if (tt.offRnk == nil) != (p.RankOfficial == nil) || (tt.offRnk != nil && *tt.offRnk != *p.RankOfficial) {
				t.Fatalf("unexpected official rank %v", p.RankOfficial)
			}
		})
	}

	awards := e.NumAwards()
	if awards == nil || awards.Gold != 1 || awards.Silver != 2 || awards.HonourableMention != 1 {
		t.Fatalf("unexpected award counts %+v", awards)
	}
	if off := e.NumAwardsOfficial(); off.Gold != 1 || off.Silver != 1 || off.HonourableMention != 0 {
		t.Fatalf("unexpected official award counts %+v", off)
	}
}

func TestBuildCountryResults(t *testing.T) {
	g := buildTestGroup(t, false)
	e := g.EventMap[2]

	rur := e.CountryMap[1]
	bor := e.CountryMap[2]
	if rur.TotalScore != 33 || bor.TotalScore != 19 {
		t.Fatalf("unexpected totals %d %d", rur.TotalScore, bor.TotalScore)
	}
	if rur.Rank != 1 || bor.Rank != 2 {
		t.Fatalf("unexpected ranks %d %d", rur.Rank, bor.Rank)
	}
	if bor.MaxProblemTotals[2] != 7 || bor.ProblemTotals[2] != 0 || !bor.HaveAnyProblemScores[2] {
		t.Fatalf("unexpected P3 totals %v %v", bor.ProblemTotals, bor.MaxProblemTotals)
	}
	if rur.NumAwards != nil || e.NumAwards() != nil {
		t.Fatalf("expected no award counts before boundaries are set")
	}
	if len(bor.Guides) != 1 || bor.Guides[0].Name() != "Gus Guide" {
		t.Fatalf("expected guide for Borduria, got %v", bor.Guides)
	}
	if len(e.CountriesWithContestants) != 2 || e.NumCountriesOfficial() != 1 {
		t.Fatalf("unexpected country counts")
	}
	if e.HostCountry == nil || e.HostCountry.Code() != "BOR" {
		t.Fatalf("expected Borduria as host")
	}
}

func TestBuildPersonAndCountryAcrossEvents(t *testing.T) {
	g := buildTestGroup(t, true)

	alice := g.PersonMap[10]
	if len(alice.Participations) != 2 || alice.NumParticipations() != 1 {
		t.Fatalf("unexpected participations for person 10")
	}
	if alice.FamilyName() != "Jones" {
		t.Fatalf("expected name from latest participation, got %q", alice.FamilyName())
	}
	if alice.NumAwards.Gold != 1 {
		t.Fatalf("expected one gold, got %+v", alice.NumAwards)
	}
	if len(g.Contestants) != 4 {
		t.Fatalf("expected 4 people who were contestants, got %d", len(g.Contestants))
	}

	rur := g.CountryMap[1]
	if rur.NumParticipations() != 2 || len(rur.HostEvents) != 1 {
		t.Fatalf("unexpected participation or host list for Ruritania")
	}
	if rur.MaxNumProblems == nil || *rur.MaxNumProblems != 3 {
		t.Fatalf("expected max 3 problems, got %v", rur.MaxNumProblems)
	}
	if g.MaxNumProblems != 3 {
		t.Fatalf("expected group max 3 problems, got %d", g.MaxNumProblems)
	}
}

func TestBuildStatistics(t *testing.T) {
	g := buildTestGroup(t, true)
	e := g.EventMap[2]

	if e.ProblemStats[0][7] != 3 || e.ProblemStats[0][0] != 1 {
		t.Fatalf("unexpected P1 histogram %v", e.ProblemStats[0])
	}
	if e.TotalStats[12] != 2 || e.TotalStatsOfficial[12] != 1 {
		t.Fatalf("unexpected total histogram")
	}
	if e.MaxTotalStats[14] != 1 || e.MaxTotalStats[7] != 0 {
		t.Fatalf("unexpected max total histogram")
	}
	if e.ProblemMean[0] == nil || *e.ProblemMean[0] != 5.25 {
		t.Fatalf("unexpected P1 mean %v", e.ProblemMean[0])
	}
	if e.ProblemCorr[0][0] == nil || *e.ProblemCorr[0][0] < 0.999 {
		t.Fatalf("expected self correlation 1, got %v", e.ProblemCorr[0][0])
	}
	if e.TotalMeanStdDev == nil || e.TotalMeanStdDev.Mean != 13 {
		t.Fatalf("unexpected total mean %v", e.TotalMeanStdDev)
	}
}

func TestRankTopN(t *testing.T) {
	cfg := testGroupConfig()
	cfg.RankTopN = intp(1)
	b := NewBuilder(cfg)
	_ = b.AddEvent(EventData{ID: 1, Year: "2020", NumProblems: intp(1), MarksPerProblem: []int{10}})
	addCountry(t, b, 1, 1, "AAA", "Aland", true)
	addCountry(t, b, 1, 2, "BBB", "Bland", true)
	addContestant(t, b, 1, 1, 1, "Contestant 1", "A", "One", scores(9))
	addContestant(t, b, 1, 2, 1, "Contestant 2", "A", "Two", scores(1))
	addContestant(t, b, 1, 3, 2, "Contestant 1", "B", "One", scores(8))
	addContestant(t, b, 1, 4, 2, "Contestant 2", "B", "Two", scores(8))
	g, err := b.Build()
	if err != nil {
		t.Fatalf("expected group, got %v", err)
	}
	e := g.Events[0]
	if !e.RankTopNMatters() || *e.RankTopNIfMatters() != 1 {
		t.Fatalf("expected top-n ranking to matter")
	}
	a, bb := e.CountryMap[1], e.CountryMap[2]
	if a.TotalScoreForRank != 9 || bb.TotalScoreForRank != 8 {
		t.Fatalf("unexpected ranking totals %d %d", a.TotalScoreForRank, bb.TotalScoreForRank)
	}
	if a.Rank != 1 || bb.Rank != 2 {
		t.Fatalf("expected A ahead of B despite lower total, got %d %d", a.Rank, bb.Rank)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(b *Builder)
		want string
	}{
		{
			name: "total mismatch",
			mod: func(b *Builder) {
				_ = b.AddPersonEvent(PersonEventData{PersonID: 1, EventID: 1, CountryID: 1,
					PrimaryRole: "Contestant 1", ProblemScores: scores(3), ExpectedTotal: intp(4)})
			},
			want: "total score mismatch",
		},
		{
			name: "award mismatch",
			mod: func(b *Builder) {
				_ = b.AddPersonEvent(PersonEventData{PersonID: 1, EventID: 1, CountryID: 1,
					PrimaryRole: "Contestant 1", ProblemScores: scores(3), ExpectedAward: strp(AwardGold)})
			},
			want: "award mismatch",
		},
		{
			name: "unknown country",
			mod: func(b *Builder) {
				_ = b.AddPersonEvent(PersonEventData{PersonID: 1, EventID: 1, CountryID: 9, PrimaryRole: "Leader"})
			},
			want: "unknown country",
		},
		{
			name: "unknown guide country",
			mod: func(b *Builder) {
				_ = b.AddPersonEvent(PersonEventData{PersonID: 1, EventID: 1, CountryID: 1,
					PrimaryRole: "Guide", GuideForIDs: []int{5}})
			},
			want: "guides unknown country",
		},
		{
			name: "score too high",
			mod: func(b *Builder) {
				_ = b.AddPersonEvent(PersonEventData{PersonID: 1, EventID: 1, CountryID: 1,
					PrimaryRole: "Contestant 1", ProblemScores: scores(8)})
			},
			want: "invalid score",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(testGroupConfig())
			_ = b.AddEvent(EventData{ID: 1, Year: "2020", NumProblems: intp(1), MarksPerProblem: []int{7},
				GoldBoundary: intp(7), SilverBoundary: intp(6), BronzeBoundary: intp(5)})
			_ = b.AddCountryEvent(CountryEventData{CountryID: 1, EventID: 1, Code: "AAA", Name: "Aland"})
			tt.mod(b)
			_, err := b.Build()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDuplicateRecords(t *testing.T) {
	b := NewBuilder(testGroupConfig())
	if err := b.AddEvent(EventData{ID: 1}); err != nil {
		t.Fatalf("expected first event added, got %v", err)
	}
	if err := b.AddEvent(EventData{ID: 1}); err == nil {
		t.Fatalf("expected duplicate event error")
	}
	_ = b.AddCountryEvent(CountryEventData{CountryID: 1, EventID: 1})
	if err := b.AddCountryEvent(CountryEventData{CountryID: 1, EventID: 1}); err == nil {
		t.Fatalf("expected duplicate country error")
	}
}

func TestEventOverridesAndVaries(t *testing.T) {
	b := NewBuilder(testGroupConfig())
	_ = b.AddEvent(EventData{ID: 1, Year: "2019"})
	_ = b.AddEvent(EventData{ID: 2, Year: "2020", HonourableMentionsAvailableOverride: boolp(false),
		AgeDayDescOverride: strp("the last day of the event")})
	g, err := b.Build()
	if err != nil {
		t.Fatalf("expected group, got %v", err)
	}
	if g.Events[1].HonourableMentionsAvailable {
		t.Fatalf("expected override to disable honourable mentions")
	}
	if !g.HonourableMentionsAvailableVaries || !g.AgeDayDescVaries || g.DistinguishOfficialVaries {
		t.Fatalf("unexpected varies flags %+v", g)
	}
	if !g.AnyHonourableMentions {
		t.Fatalf("expected some event with honourable mentions")
	}
}

func TestHallOfFameOrder(t *testing.T) {
	g := buildTestGroup(t, true)
	people := SortedPeople(g.Contestants, ComparePersonHallOfFame)
	if people[0].ID != 10 {
		t.Fatalf("expected gold medallist first, got %d", people[0].ID)
	}
	if people[1].FamilyName() != "Brown" || people[2].FamilyName() != "Green" {
		t.Fatalf("expected silver medallists in alphabetical order")
	}
	if people[3].NumAwards.HonourableMention != 1 {
		t.Fatalf("expected honourable mention last")
	}
}

func TestPersonEventAwardsStr(t *testing.T) {
	p := &PersonEvent{Award: AwardGold, PersonEventData: PersonEventData{ExtraAwards: []string{"Special Prize"}}}
	if p.AwardsStr() != "Gold Medal, Special Prize" {
		t.Fatalf("unexpected awards string %q", p.AwardsStr())
	}
	var counts AwardCounts
	counts.Add(AwardBronze)
	counts.Add("")
	if counts.Get(AwardBronze) != 1 || counts.Get(AwardGold) != 0 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}
