package sitegen

import (
	"fmt"
	"strconv"
	"strings"

	"matholymp/internal/datetimeutil"
	"matholymp/internal/olympiad"
)

func boundaryText(b *int) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf(" (scores &ge; %d)", *b)
}

// EventSummaryText is the body of the main page of one event.
func (g *Generator) EventSummaryText(e *olympiad.Event) string {
	rows := [][2]string{
		{Esc(e.ShortName) + " number", strconv.Itoa(e.ID)},
		{"Year", Esc(e.Year) + homePageLink(e)},
		{"Country", g.linkHost(e, Esc(e.HostCountryName))},
		{"City", Esc(e.HostCity)},
		{"Start date", Esc(datetimeutil.DateToYMDISO(e.StartDate))},
		{"End date", Esc(datetimeutil.DateToYMDISO(e.EndDate))},
		{"Contact name", Esc(e.ContactName)},
		{"Contact email", Esc(e.ContactEmail)},
	}
	if e.NumContestants() > 0 {
		marks := make([]string, len(e.MarksPerProblem))
		for i, m := range e.MarksPerProblem {
			marks[i] = strconv.Itoa(m)
		}
		probMarks := fmt.Sprintf("%d (marked out of: %s)", e.NumProblemsOrZero(), strings.Join(marks, "+"))
		awards := awardsOrZero(e.NumAwards())
		var partOff, contOff, goldOff, silverOff, bronzeOff, hmOff string
		if e.DistinguishOfficial {
			lc := Esc(g.cfg.OfficialDescLC)
			off := func(n int) string { return fmt.Sprintf(" (%d %s)", n, lc) }
			offAwards := awardsOrZero(e.NumAwardsOfficial())
			partOff = off(e.NumCountriesOfficial())
			contOff = off(e.NumContestantsOfficial())
			goldOff = off(offAwards.Gold)
			silverOff = off(offAwards.Silver)
			bronzeOff = off(offAwards.Bronze)
			if e.HonourableMentionsAvailable {
				hmOff = off(offAwards.HonourableMention)
			}
		}
		rows = append(rows,
			[2]string{"Participating teams", fmt.Sprintf("%d%s (%s)", e.NumCountries(), partOff,
				g.linkPage(g.pathEventCountries(e), "list"))},
			[2]string{"Contestants", fmt.Sprintf("%d%s (%s, %s)", e.NumContestants(), contOff,
				g.linkPage(g.pathEventScoreboard(e), "scoreboard"),
				g.linkPage(g.pathEventPeople(e), "list of participants"))},
			[2]string{"Number of exams", strconv.Itoa(e.NumExamsOrZero())},
			[2]string{"Number of problems", probMarks},
			[2]string{"Gold medals", fmt.Sprintf("%d%s%s", awards.Gold, goldOff, boundaryText(e.GoldBoundary))},
			[2]string{"Silver medals", fmt.Sprintf("%d%s%s", awards.Silver, silverOff, boundaryText(e.SilverBoundary))},
			[2]string{"Bronze medals", fmt.Sprintf("%d%s%s", awards.Bronze, bronzeOff, boundaryText(e.BronzeBoundary))},
		)
		if e.HonourableMentionsAvailable {
			rows = append(rows, [2]string{"Honourable mentions",
				fmt.Sprintf("%d%s", awards.HonourableMention, hmOff)})
		}
	}

	var b strings.Builder
	b.WriteString(g.h.TableThTd(rows) + "\n")
	if e.RegistrationActive {
		fmt.Fprintf(&b, "<p>Lists of currently registered %s and %s are available, as is the %s.</p>\n",
			g.linkRegistration(e, "country", "countries"),
			g.linkRegistration(e, "person", "participants"),
			g.linkRegistration(e, "person?@template=scoreboard", "live scoreboard"))
	}
	b.WriteString(pyFormat(g.cfg.PageIncludeExtra, map[string]string{"dir": strings.Join(g.pathEvent(e), "/")}))
	b.WriteString("\n")
	for day := 1; day <= e.NumExamsOrZero(); day++ {
		var papers []olympiad.Paper
		for _, p := range e.Papers {
			if p.Day == day {
				papers = append(papers, p)
			}
		}
		if len(papers) == 0 {
			continue
		}
		if e.NumExamsOrZero() == 1 {
			b.WriteString("<h2>Papers</h2>\n")
		} else {
			fmt.Fprintf(&b, "<h2>Day %d papers</h2>\n", day)
		}
		b.WriteString("<ul>\n")
		for _, p := range papers {
			desc := ""
			if p.Description != "" {
				desc = " (" + p.Description + ")"
			}
			fmt.Fprintf(&b, "<li>%s%s</li>\n", A(Esc(p.Language), p.URL), Esc(desc))
		}
		b.WriteString("</ul>\n")
	}
	return b.String()
}

func (g *Generator) generateEventSummary(e *olympiad.Event) error {
	title := Esc(e.ShortNameWithYearAndCountry())
	header := Esc(e.ShortNameWithYear()) + " in " + g.linkHost(e, Esc(e.HostCountryNameIn))
	return g.writePage(g.EventSummaryText(e), title, header, g.pathEvent(e))
}

// EventCountriesText is the body of the list of countries at one event.
func (g *Generator) EventCountriesText(e *olympiad.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Details of all countries at this %s may also be %s in CSV format.</p>\n",
		Esc(e.ShortName), g.linkFile(g.pathEventCountriesCSV(e), "downloaded"))
	head := []string{"Code", "Name"}
	if e.DistinguishOfficial {
		head = append(head, Esc(g.cfg.OfficialDesc))
	}
	var body []string
	for _, c := range olympiad.SortedCountryEvents(e.Countries, olympiad.CompareCountryEvent) {
		row := []string{g.linkCountryAtEvent(c, Esc(c.Code)), g.linkCountryAtEvent(c, Esc(c.Name))}
		if e.DistinguishOfficial {
			row = append(row, olympiad.YesNo(c.Official()))
		}
		body = append(body, TrTd(row))
	}
	b.WriteString(g.h.TableHeadBody([]string{TrTh(head)}, body))
	b.WriteString("\n")
	return b.String()
}

func (g *Generator) generateEventCountries(e *olympiad.Event) error {
	title := "Countries at " + Esc(e.ShortNameWithYearAndCountry())
	header := "Countries at " + g.linkEventAndHost(e)
	return g.writePage(g.EventCountriesText(e), title, header, g.pathEventCountries(e))
}

func (g *Generator) eventPeopleTable(e *olympiad.Event) string {
	var sections []string
	for _, c := range olympiad.SortedCountryEvents(e.Countries, olympiad.CompareCountryEvent) {
		var b strings.Builder
		fmt.Fprintf(&b, "<h2>%s</h2>\n", g.linkCountryAtEvent(c, Esc(c.NameWithCode())))
		var body []string
		for _, p := range olympiad.SortedPersonEvents(c.People, olympiad.ComparePersonEvent) {
			body = append(body, TrTd([]string{
				g.linkPerson(p.Person, Esc(p.GivenName)),
				g.linkPerson(p.Person, Esc(p.FamilyName)),
				Esc(p.PrimaryRole),
			}))
		}
		b.WriteString(g.h.TableHeadBody([]string{TrTh([]string{"Given Name", "Family Name", "Role"})}, body))
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n")
}

// EventPeopleText is the body of the list of people at one event.
func (g *Generator) EventPeopleText(e *olympiad.Event) string {
	return fmt.Sprintf("<p>Details of all people at this %s may also be %s in CSV format.</p>\n",
		Esc(e.ShortName), g.linkFile(g.pathEventPeopleCSV(e), "downloaded")) +
		g.eventPeopleTable(e) + "\n"
}

func (g *Generator) generateEventPeople(e *olympiad.Event) error {
	title := "People at " + Esc(e.ShortNameWithYearAndCountry())
	header := "People at " + g.linkEventAndHost(e)
	return g.writePage(g.EventPeopleText(e), title, header, g.pathEventPeople(e))
}
