package olympiad

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"matholymp/internal/stats"
)

type pairKey struct {
	id    int
	event int
}

// Builder collects raw records from a data source and turns them into an
// EventGroup.
type Builder struct {
	cfg           GroupConfig
	events        map[int]*EventData
	countryEvents map[pairKey]*CountryEventData
	personEvents  map[pairKey]*PersonEventData
	countryOrder  []pairKey
	personOrder   []pairKey
}

// NewBuilder returns an empty builder for a group with the given settings.
func NewBuilder(cfg GroupConfig) *Builder {
	return &Builder{
		cfg:           cfg,
		events:        make(map[int]*EventData),
		countryEvents: make(map[pairKey]*CountryEventData),
		personEvents:  make(map[pairKey]*PersonEventData),
	}
}

// AddEvent records an event.
func (b *Builder) AddEvent(d EventData) error {
	if _, ok := b.events[d.ID]; ok {
		return fmt.Errorf("event %d: duplicate event", d.ID)
	}
	b.events[d.ID] = &d
	return nil
}

// AddPaper attaches a paper to an already added event.
func (b *Builder) AddPaper(eventID int, p Paper) error {
	e, ok := b.events[eventID]
	if !ok {
		return fmt.Errorf("paper for unknown event %d", eventID)
	}
	e.Papers = append(e.Papers, p)
	return nil
}

// AddCountryEvent records a country at an event.
func (b *Builder) AddCountryEvent(d CountryEventData) error {
	k := pairKey{d.CountryID, d.EventID}
	if _, ok := b.countryEvents[k]; ok {
		return fmt.Errorf("event %d: duplicate country %d", d.EventID, d.CountryID)
	}
	b.countryEvents[k] = &d
	b.countryOrder = append(b.countryOrder, k)
	return nil
}

// AddPersonEvent records a person at an event.
func (b *Builder) AddPersonEvent(d PersonEventData) error {
	k := pairKey{d.PersonID, d.EventID}
	if _, ok := b.personEvents[k]; ok {
		return fmt.Errorf("event %d: duplicate person %d", d.EventID, d.PersonID)
	}
	b.personEvents[k] = &d
	b.personOrder = append(b.personOrder, k)
	return nil
}

// Build links the records and computes every derived value.
func (b *Builder) Build() (*EventGroup, error) {
	g := &EventGroup{
		GroupConfig: b.cfg,
		EventMap:    make(map[int]*Event),
		CountryMap:  make(map[int]*Country),
		PersonMap:   make(map[int]*Person),
	}
	if g.ShortNamePlural == "" {
		g.ShortNamePlural = g.ShortName + "s"
	}

	ids := make([]int, 0, len(b.events))
	for id := range b.events {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		e, err := newEvent(g, b.events[id])
		if err != nil {
			return nil, err
		}
		g.Events = append(g.Events, e)
		g.EventMap[id] = e
	}

	for _, k := range b.countryOrder {
		d := b.countryEvents[k]
		e, ok := g.EventMap[d.EventID]
		if !ok {
			return nil, fmt.Errorf("country %d at unknown event %d", d.CountryID, d.EventID)
		}
		c, ok := g.CountryMap[d.CountryID]
		if !ok {
			c = &Country{ID: d.CountryID, Group: g}
			g.CountryMap[d.CountryID] = c
			g.Countries = append(g.Countries, c)
		}
		ce := &CountryEvent{CountryEventData: *d, Country: c, Event: e}
		e.Countries = append(e.Countries, ce)
		e.CountryMap[d.CountryID] = ce
	}

	for _, k := range b.personOrder {
		d := b.personEvents[k]
		e, ok := g.EventMap[d.EventID]
		if !ok {
			return nil, fmt.Errorf("person %d at unknown event %d", d.PersonID, d.EventID)
		}
		ce, ok := e.CountryMap[d.CountryID]
		if !ok {
			return nil, fmt.Errorf("event %d: person %d from unknown country %d", d.EventID, d.PersonID, d.CountryID)
		}
		p, ok := g.PersonMap[d.PersonID]
		if !ok {
			p = &Person{ID: d.PersonID, Group: g}
			g.PersonMap[d.PersonID] = p
			g.People = append(g.People, p)
		}
		pe := &PersonEvent{PersonEventData: *d, Person: p, Event: e, Country: ce}
		for _, gid := range d.GuideForIDs {
			gc, ok := e.CountryMap[gid]
			if !ok {
				return nil, fmt.Errorf("event %d: person %d guides unknown country %d", d.EventID, d.PersonID, gid)
			}
			pe.GuideFor = append(pe.GuideFor, gc)
			gc.Guides = append(gc.Guides, pe)
		}
		e.People = append(e.People, pe)
		e.PersonMap[d.PersonID] = pe
		ce.People = append(ce.People, pe)
	}

	slices.SortFunc(g.Countries, func(a, b *Country) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(g.People, func(a, b *Person) int { return cmp.Compare(a.ID, b.ID) })

	for _, e := range g.Events {
		if err := e.compute(); err != nil {
			return nil, err
		}
		if e.HostCountryID != nil {
			e.HostCountry = g.CountryMap[*e.HostCountryID]
			if e.HostCountry != nil {
				e.HostCountry.HostEvents = append(e.HostCountry.HostEvents, e)
			}
		}
	}
	for _, c := range g.Countries {
		c.compute()
	}
	for _, p := range g.People {
		p.compute()
		if p.NumParticipations() > 0 {
			g.Contestants = append(g.Contestants, p)
		}
	}
	g.computeFlags()
	return g, nil
}

func newEvent(g *EventGroup, d *EventData) (*Event, error) {
	e := &Event{
		EventData:                   *d,
		Group:                       g,
		ShortName:                   g.ShortName,
		LongName:                    g.LongName,
		DistinguishOfficial:         g.DistinguishOfficial,
		HonourableMentionsAvailable: g.HonourableMentionsAvailable,
		RankTopN:                    g.RankTopN,
		AgeDayDesc:                  g.AgeDayDesc,
		CountryMap:                  make(map[int]*CountryEvent),
		PersonMap:                   make(map[int]*PersonEvent),
		ContestantMap:               make(map[string]*PersonEvent),
	}
	if d.DistinguishOfficialOverride != nil {
		e.DistinguishOfficial = *d.DistinguishOfficialOverride
	}
	if d.HonourableMentionsAvailableOverride != nil {
		e.HonourableMentionsAvailable = *d.HonourableMentionsAvailableOverride
	}
	if d.AgeDayDescOverride != nil {
		e.AgeDayDesc = *d.AgeDayDescOverride
	}
	if e.HostCountryNameIn == "" {
		e.HostCountryNameIn = e.HostCountryName
	}
	if d.NumProblems != nil && len(d.MarksPerProblem) != *d.NumProblems {
		return nil, fmt.Errorf("event %d: %d problems but %d marks per problem", d.ID, *d.NumProblems, len(d.MarksPerProblem))
	}
	if d.GoldBoundary != nil && (d.SilverBoundary == nil || d.BronzeBoundary == nil) {
		return nil, fmt.Errorf("event %d: incomplete medal boundaries", d.ID)
	}
	return e, nil
}

func (e *Event) compute() error {
	slices.SortStableFunc(e.Countries, CompareCountryEvent)
	slices.SortStableFunc(e.People, ComparePersonEvent)

	np := e.NumProblemsOrZero()
	for _, p := range e.People {
		if !strings.HasPrefix(p.PrimaryRole, ContestantRolePrefix) {
			continue
		}
		if err := p.computeContestant(np); err != nil {
			return err
		}
		if _, dup := e.ContestantMap[p.ContestantCode]; dup {
			return fmt.Errorf("event %d: duplicate contestant code %s", e.ID, p.ContestantCode)
		}
		e.ContestantMap[p.ContestantCode] = p
		e.Contestants = append(e.Contestants, p)
		p.Country.Contestants = append(p.Country.Contestants, p)
	}
	for _, c := range e.Countries {
		slices.SortStableFunc(c.Guides, ComparePersonEvent)
		if len(c.Contestants) > 0 {
			e.CountriesWithContestants = append(e.CountriesWithContestants, c)
		}
	}

	e.computePersonRanks()
	for _, c := range e.Countries {
		c.compute()
	}
	e.computeCountryRanks()
	e.computeStats()
	return nil
}

func (p *PersonEvent) computeContestant(np int) error {
	e := p.Event
	p.IsContestant = true
	p.ContestantCode = p.Country.Code + strings.TrimPrefix(p.PrimaryRole, ContestantRolePrefix)
	if len(p.ProblemScores) > np {
		for _, s := range p.ProblemScores[np:] {
			if s != nil {
				return fmt.Errorf("event %d: %s: score for nonexistent problem", e.ID, p.ContestantCode)
			}
		}
	}
	scores := make([]*int, np)
	copy(scores, p.ProblemScores)
	p.ProblemScores = scores

	for n, s := range scores {
		if s == nil {
			p.MaxTotalScore += e.MarksPerProblem[n]
			continue
		}
		if *s < 0 || *s > e.MarksPerProblem[n] {
			return fmt.Errorf("event %d: %s: invalid score on P%d", e.ID, p.ContestantCode, n+1)
		}
		p.TotalScore += *s
		p.HaveAnyScores = true
	}
	p.MaxTotalScore += p.TotalScore
	if p.ExpectedTotal != nil && *p.ExpectedTotal != p.TotalScore {
		return fmt.Errorf("event %d: %s: total score mismatch", e.ID, p.ContestantCode)
	}

	if e.ScoresFinal() {
		switch {
		case p.TotalScore >= *e.GoldBoundary:
			p.Award = AwardGold
		case p.TotalScore >= *e.SilverBoundary:
			p.Award = AwardSilver
		case p.TotalScore >= *e.BronzeBoundary:
			p.Award = AwardBronze
		case e.HonourableMentionsAvailable:
			for n, s := range scores {
				if s != nil && *s == e.MarksPerProblem[n] {
					p.Award = AwardHonourableMention
				}
			}
		}
	}
	if p.ExpectedAward != nil && *p.ExpectedAward != p.Award {
		return fmt.Errorf("event %d: %s: award mismatch", e.ID, p.ContestantCode)
	}
	return nil
}

func (e *Event) haveAnyScores() bool {
	for _, p := range e.Contestants {
		if p.HaveAnyScores {
			return true
		}
	}
	return false
}

func (e *Event) computePersonRanks() {
	if !e.haveAnyScores() {
		return
	}
	cs := e.Contestants
	competitionRanks(len(cs),
		func(i int) int { return cs[i].TotalScore },
		func(i, r int) { cs[i].Rank = r })
	var off []*PersonEvent
	for _, p := range cs {
		if p.Country.Official() {
			off = append(off, p)
		}
	}
	competitionRanks(len(off),
		func(i int) int { return off[i].TotalScore },
		func(i, r int) { off[i].RankOfficial = &r })
}

func (c *CountryEvent) compute() {
	e := c.Event
	np := e.NumProblemsOrZero()
	if e.ScoresFinal() {
		c.NumAwards = &AwardCounts{}
	}
	c.ProblemTotals = make([]int, np)
	c.MaxProblemTotals = make([]int, np)
	c.HaveAnyProblemScores = make([]bool, np)
	totals := make([]int, 0, len(c.Contestants))
	maxTotals := make([]int, 0, len(c.Contestants))
	for _, p := range c.Contestants {
		if c.NumAwards != nil {
			c.NumAwards.Add(p.Award)
		}
		c.TotalScore += p.TotalScore
		c.MaxTotalScore += p.MaxTotalScore
		c.HaveAnyScores = c.HaveAnyScores || p.HaveAnyScores
		totals = append(totals, p.TotalScore)
		maxTotals = append(maxTotals, p.MaxTotalScore)
		for n, s := range p.ProblemScores {
			if s == nil {
				c.MaxProblemTotals[n] += e.MarksPerProblem[n]
				continue
			}
			c.ProblemTotals[n] += *s
			c.MaxProblemTotals[n] += *s
			c.HaveAnyProblemScores[n] = true
		}
	}
	c.TotalScoreForRank = topNSum(totals, e.RankTopN)
	c.MaxTotalScoreForRank = topNSum(maxTotals, e.RankTopN)
}

func topNSum(v []int, n *int) int {
	slices.SortFunc(v, func(a, b int) int { return cmp.Compare(b, a) })
	if n != nil && len(v) > *n {
		v = v[:*n]
	}
	t := 0
	for _, x := range v {
		t += x
	}
	return t
}

func (e *Event) computeCountryRanks() {
	cs := e.CountriesWithContestants
	competitionRanks(len(cs),
		func(i int) int { return cs[i].TotalScoreForRank },
		func(i, r int) { cs[i].Rank = r })
	var off []*CountryEvent
	for _, c := range cs {
		if c.Official() {
			off = append(off, c)
		}
	}
	competitionRanks(len(off),
		func(i int) int { return off[i].TotalScoreForRank },
		func(i, r int) { off[i].RankOfficial = &r })
}

func (e *Event) computeStats() {
	if e.NumProblems == nil {
		return
	}
	np := *e.NumProblems
	mt := e.MarksTotal()
	e.ProblemStats = make([][]int, np)
	for n := range e.ProblemStats {
		e.ProblemStats[n] = make([]int, e.MarksPerProblem[n]+1)
	}
	e.TotalStats = make([]int, mt+1)
	e.TotalStatsOfficial = make([]int, mt+1)
	e.MaxTotalStats = make([]int, mt+1)
	e.MaxTotalStatsOfficial = make([]int, mt+1)
	totals := make([]*int, 0, len(e.Contestants))
	for _, p := range e.Contestants {
		for n, s := range p.ProblemScores {
			if s != nil {
				e.ProblemStats[n][*s]++
			}
		}
		e.TotalStats[p.TotalScore]++
		e.MaxTotalStats[p.MaxTotalScore]++
		if p.Country.Official() {
			e.TotalStatsOfficial[p.TotalScore]++
			e.MaxTotalStatsOfficial[p.MaxTotalScore]++
		}
		t := p.TotalScore
		totals = append(totals, &t)
	}
	e.TotalMeanStdDev = stats.MeanAndStdDev(totals)

	e.ProblemMean = make([]*float64, np)
	e.ProblemStdDev = make([]*float64, np)
	e.ProblemCorrWithTotal = make([]*float64, np)
	e.ProblemCorr = make([][]*float64, np)
	for i := 0; i < np; i++ {
		col := make([]*int, len(e.Contestants))
		withTotal := make([]stats.Pair, len(e.Contestants))
		for k, p := range e.Contestants {
			col[k] = p.ProblemScores[i]
			withTotal[k] = stats.Pair{X: p.ProblemScores[i], Y: totals[k]}
		}
		if ms := stats.MeanAndStdDev(col); ms != nil {
			e.ProblemMean[i] = &ms.Mean
			e.ProblemStdDev[i] = &ms.StdDev
		}
		e.ProblemCorrWithTotal[i] = stats.CorrCoeff(withTotal)
		e.ProblemCorr[i] = make([]*float64, np)
		for j := 0; j < np; j++ {
			pairs := make([]stats.Pair, len(e.Contestants))
			for k, p := range e.Contestants {
				pairs[k] = stats.Pair{X: p.ProblemScores[i], Y: p.ProblemScores[j]}
			}
			e.ProblemCorr[i][j] = stats.CorrCoeff(pairs)
		}
	}
}

func (c *Country) compute() {
	for _, e := range c.Group.Events {
		ce, ok := e.CountryMap[c.ID]
		if !ok {
			continue
		}
		c.Participations = append(c.Participations, ce)
		if len(ce.Contestants) == 0 {
			continue
		}
		if e.NumProblems != nil && (c.MaxNumProblems == nil || *e.NumProblems > *c.MaxNumProblems) {
			np := *e.NumProblems
			c.MaxNumProblems = &np
		}
		if e.HonourableMentionsAvailable {
			c.HonourableMentionsAvailable = true
		}
	}
}

func (p *Person) compute() {
	seen := make(map[int]bool)
	for _, e := range p.Group.Events {
		pe, ok := e.PersonMap[p.ID]
		if !ok {
			continue
		}
		p.Participations = append(p.Participations, pe)
		if !pe.IsContestant {
			continue
		}
		p.ContestantParticipations = append(p.ContestantParticipations, pe)
		p.NumAwards.Add(pe.Award)
		if c := pe.Country.Country; !seen[c.ID] {
			seen[c.ID] = true
			p.Countries = append(p.Countries, c)
		}
	}
}

func (g *EventGroup) computeFlags() {
	for i, e := range g.Events {
		if e.NumProblems != nil && *e.NumProblems > g.MaxNumProblems {
			g.MaxNumProblems = *e.NumProblems
		}
		g.AnyDistinguishOfficial = g.AnyDistinguishOfficial || e.DistinguishOfficial
		g.AnyHonourableMentions = g.AnyHonourableMentions || e.HonourableMentionsAvailable
		if i == 0 {
			continue
		}
		first := g.Events[0]
		if e.DistinguishOfficial != first.DistinguishOfficial {
			g.DistinguishOfficialVaries = true
		}
		if e.HonourableMentionsAvailable != first.HonourableMentionsAvailable {
			g.HonourableMentionsAvailableVaries = true
		}
		if e.AgeDayDesc != first.AgeDayDesc {
			g.AgeDayDescVaries = true
		}
	}
}
