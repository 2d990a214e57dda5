package sitegen

import (
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"matholymp/internal/collate"
	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

func (g *Generator) autoFile(name string) string {
	return filepath.Join(g.autoDir, name)
}

// SidebarText lists every event, most recent first.
func (g *Generator) SidebarText() string {
	var out []string
	for _, e := range g.data.Events {
		out = append(out, fmt.Sprintf("<li><strong>%s</strong>, %s%s</li>",
			g.linkEvent(e, Esc(e.ShortNameWithYear())), Esc(e.HostLocation()), homePageLink(e)))
	}
	slices.Reverse(out)
	return strings.Join(out, "\n") + "\n"
}

// ContactText lists the contact for each event that has one.
func (g *Generator) ContactText() string {
	var out []string
	for _, e := range g.data.Events {
		if contact := Esc(e.Contact()); contact != "" {
			out = append(out, fmt.Sprintf("  <li>For communications about %s, please contact %s.</li>",
				Esc(e.ShortNameWithYear()), contact))
		}
	}
	return strings.Join(out, "\n") + "\n"
}

func (g *Generator) generateSidebar() error {
	name := fmt.Sprintf("sidebar-%s-list%s", g.cfg.ShortNameURL, g.cfg.PageSuffix)
	return fileutil.WriteTextAtomic(g.autoFile(name), g.SidebarText())
}

func (g *Generator) generateContact() error {
	name := fmt.Sprintf("%s-contact-list%s", g.cfg.ShortNameURL, g.cfg.PageSuffix)
	return fileutil.WriteTextAtomic(g.autoFile(name), g.ContactText())
}

func awardsOrZero(a *olympiad.AwardCounts) *olympiad.AwardCounts {
	if a == nil {
		return &olympiad.AwardCounts{}
	}
	return a
}

// EventsSummaryText is the body of the list of all events.
func (g *Generator) EventsSummaryText() (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Details of all %s may also be %s in CSV format, as may %s.</p>\n",
		Esc(g.data.ShortNamePlural),
		g.linkFile(g.pathDataEvents(), "downloaded"),
		g.linkFile(g.pathDataPapers(), "a list of all language versions of all papers"))
	hm := g.data.AnyHonourableMentions
	colspan := 4
	if hm {
		colspan++
	}
	two := Attrs{"rowspan": "2"}
	head1 := []string{
		g.h.ThScores("#", Attrs{"rowspan": "2", "title": g.data.ShortName + " number"}),
		g.h.ThScores("Year", two),
		g.h.ThScores("Country", two),
		g.h.ThScores("City", two),
		g.h.ThScores("Dates", two),
		g.h.ThScores("Teams", two),
		g.h.ThScores("Contestants", Attrs{"colspan": strconv.Itoa(colspan)}),
	}
	head2 := []string{
		g.h.ThScores("All"),
		g.h.ThScores("G", Attrs{"title": "Gold"}),
		g.h.ThScores("S", Attrs{"title": "Silver"}),
		g.h.ThScores("B", Attrs{"title": "Bronze"}),
	}
	if hm {
		head2 = append(head2, g.h.ThScores("HM", Attrs{"title": "Honourable Mention"}))
	}

	var body []string
	for _, e := range g.data.Events {
		dates := ""
		if e.StartDate != nil && e.EndDate != nil {
			year, err := strconv.Atoi(e.Year)
			if err != nil {
				return "", fmt.Errorf("event %d: bad year %q", e.ID, e.Year)
			}
			dates, err = datetimeutil.DateRangeHTML(*e.StartDate, *e.EndDate, year)
			if err != nil {
				return "", fmt.Errorf("event %d: %w", e.ID, err)
			}
		}
		var nc, ng, ns, nb, nh, nt string
		if n := e.NumContestants(); n > 0 {
			a := awardsOrZero(e.NumAwards())
			nc = strconv.Itoa(n)
			ng, ns, nb = strconv.Itoa(a.Gold), strconv.Itoa(a.Silver), strconv.Itoa(a.Bronze)
			if e.HonourableMentionsAvailable {
				nh = strconv.Itoa(a.HonourableMention)
			}
			nt = strconv.Itoa(e.NumCountries())
		}
		row := []string{
			g.linkEvent(e, strconv.Itoa(e.ID)),
			g.linkEvent(e, Esc(e.Year)),
			g.linkHost(e, Esc(e.HostCountryName)),
			Esc(e.HostCity),
			dates, nt, nc, ng, ns, nb,
		}
		if hm {
			row = append(row, nh)
		}
		body = append(body, g.h.TrTdScores(row))
	}
	slices.Reverse(body)
	return g.h.TableHeadBody([]string{Tr(head1...), Tr(head2...)}, body) + "\n", nil
}

func (g *Generator) generateEventsSummary() error {
	text, err := g.EventsSummaryText()
	if err != nil {
		return err
	}
	title := "List of " + Esc(g.data.ShortNamePlural)
	return g.writePage(text, title, title, g.pathEvents())
}

func (g *Generator) hostYearText(c *olympiad.Country) string {
	links := make([]string, len(c.HostEvents))
	for i, e := range c.HostEvents {
		links[i] = g.linkEvent(e, Esc(e.Year))
	}
	return strings.Join(links, ", ")
}

func officialText(b *bool) string {
	if b == nil {
		return ""
	}
	return olympiad.YesNo(*b)
}

// CountriesSummaryText is the body of the list of all countries.
func (g *Generator) CountriesSummaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Details of all countries at all %s may also be %s in CSV format.</p>\n",
		Esc(g.data.ShortNamePlural), g.linkFile(g.pathDataCountries(), "downloaded"))
	head := []string{Th("Code"), Th("Name")}
	if g.data.DistinguishOfficial {
		head = append(head, Th(Esc(g.cfg.OfficialDesc)))
	}
	head = append(head, Th("First"), Th("Last"),
		Th("#", Attrs{"title": "Number of " + g.data.ShortNamePlural}), Th("Host"))

	var body []string
	for _, c := range olympiad.SortedCountries(g.data.Countries) {
		first := c.Participations[0]
		last := c.Participations[len(c.Participations)-1]
		row := []string{g.linkCountry(c, Esc(c.Code())), g.linkCountry(c, Esc(c.Name()))}
		if g.data.DistinguishOfficial {
			row = append(row, officialText(c.IsOfficial()))
		}
		row = append(row,
			g.linkCountryAtEvent(first, Esc(first.Event.Year)),
			g.linkCountryAtEvent(last, Esc(last.Event.Year)),
			strconv.Itoa(c.NumParticipations()),
			g.hostYearText(c))
		body = append(body, TrTd(row))
	}
	b.WriteString(g.h.TableHeadBody([]string{Tr(head...)}, body))
	b.WriteString("\n")
	return b.String()
}

func (g *Generator) generateCountriesSummary() error {
	return g.writePage(g.CountriesSummaryText(), "Countries", "Countries", g.pathCountries())
}

func sortedRoles(roles []string) []string {
	r := slices.Clone(roles)
	slices.SortFunc(r, collate.Compare)
	return r
}

func (g *Generator) guideLinks(p *olympiad.PersonEvent) string {
	guided := olympiad.SortedCountryEvents(p.GuideFor, olympiad.CompareCountryEvent)
	links := make([]string, len(guided))
	for i, c := range guided {
		links[i] = g.linkCountryAtEvent(c, Esc(c.Name))
	}
	return strings.Join(links, ", ")
}

// PeopleSummaryText is the body of the list of all people.
func (g *Generator) PeopleSummaryText() string {
	var b strings.Builder
	hof := "hall of fame of " + Esc(g.data.ShortName) + " contestants by medal count"
	fmt.Fprintf(&b, "<p>A %s is also available.  Details of all people at all %s may also be %s in CSV format.</p>\n",
		g.linkPage(g.pathHallOfFame(), hof), Esc(g.data.ShortNamePlural),
		g.linkFile(g.pathDataPeople(), "downloaded"))
	head := []string{g.h.TrThScores([]string{"Given Name", "Family Name", "Participations"})}

	var body []string
	for _, pd := range olympiad.SortedPeople(g.data.People, olympiad.ComparePersonAlpha) {
		var parts []string
		var last *olympiad.PersonEvent
		for _, p := range pd.Participations {
			last = p
			e := p.Event
			role := Esc(p.PrimaryRole)
			if p.IsContestant && p.AwardsStr() != "" {
				role += ": " + Esc(p.AwardsStr())
			}
			if len(p.GuideFor) > 0 {
				role += ": " + g.guideLinks(p)
			}
			if len(p.OtherRoles) > 0 {
				role += ", " + Esc(strings.Join(sortedRoles(p.OtherRoles), ", "))
			}
			parts = append(parts, fmt.Sprintf("%s: %s (%s)",
				g.linkEvent(e, Esc(e.Year)), g.linkCountryAtEvent(p.Country, Esc(p.Country.Name)), role))
		}
		body = append(body, g.h.TrTdScores([]string{
			g.linkPerson(pd, Esc(last.GivenName)),
			g.linkPerson(pd, Esc(last.FamilyName)),
			strings.Join(parts, ", "),
		}))
	}
	b.WriteString(g.h.TableHeadBody(head, body))
	b.WriteString("\n")
	return b.String()
}

func (g *Generator) generatePeopleSummary() error {
	return g.writePage(g.PeopleSummaryText(), "People", "People", g.pathPeople())
}

// HallOfFameText is the body of the hall of fame by medal count.
func (g *Generator) HallOfFameText() string {
	hm := g.data.AnyHonourableMentions
	head := []string{
		g.h.ThScores("Given Name"),
		g.h.ThScores("Family Name"),
		g.h.ThScores("Country"),
		g.h.ThScores("G", Attrs{"title": "Gold"}),
		g.h.ThScores("S", Attrs{"title": "Silver"}),
		g.h.ThScores("B", Attrs{"title": "Bronze"}),
	}
	if hm {
		head = append(head, g.h.ThScores("HM", Attrs{"title": "Honourable Mention"}))
	}
	head = append(head, g.h.ThScores("Participations"))

	var body []string
	for _, p := range olympiad.SortedPeople(g.data.Contestants, olympiad.ComparePersonHallOfFame) {
		codes := make([]string, len(p.Countries))
		for i, c := range p.Countries {
			codes[i] = g.linkCountry(c, Esc(c.Code()))
		}
		row := []string{
			g.linkPerson(p, Esc(p.GivenName())),
			g.linkPerson(p, Esc(p.FamilyName())),
			strings.Join(codes, ", "),
			strconv.Itoa(p.NumAwards.Gold),
			strconv.Itoa(p.NumAwards.Silver),
			strconv.Itoa(p.NumAwards.Bronze),
		}
		if hm {
			row = append(row, strconv.Itoa(p.NumAwards.HonourableMention))
		}
		row = append(row, strconv.Itoa(p.NumParticipations()))
		body = append(body, g.h.TrTdScores(row))
	}
	return g.h.TableHeadBody([]string{Tr(head...)}, body) + "\n"
}

func (g *Generator) generateHallOfFame() error {
	return g.writePage(g.HallOfFameText(), "Hall of Fame", "Hall of Fame", g.pathHallOfFame())
}
