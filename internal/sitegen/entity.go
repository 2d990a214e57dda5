package sitegen

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"matholymp/internal/olympiad"
)

func (g *Generator) flagText(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf("<p class=\"%s\">%s</p>\n", g.cfg.PhotoCSS,
		g.h.Img(Attrs{"width": "300", "alt": "", "src": url}))
}

func (g *Generator) countryEventScoresTable(c *olympiad.CountryEvent) string {
	head := []string{g.personScoreboardHeader(c.Event, RowOptions{})}
	var body []string
	for _, p := range olympiad.SortedPersonEvents(c.Contestants, olympiad.ComparePersonEvent) {
		body = append(body, g.personScoreboardRow(p, RowOptions{}))
	}
	return g.h.TableHeadBody(head, body)
}

func (g *Generator) countryEventPeopleTable(c *olympiad.CountryEvent, photos bool) string {
	people := olympiad.SortedPersonEvents(c.People, olympiad.ComparePersonEvent)
	people = append(people, olympiad.SortedPersonEvents(c.Guides, olympiad.ComparePersonEvent)...)
	head := []string{"Given Name", "Family Name", "Role"}
	if photos {
		head = append(head, "Photo")
	}
	var body []string
	for _, p := range people {
		row := []string{
			g.linkPerson(p.Person, Esc(p.GivenName)),
			g.linkPerson(p.Person, Esc(p.FamilyName)),
			Esc(p.PrimaryRole),
		}
		if photos {
			photo := ""
			if p.PhotoURL != "" {
				photo = g.h.Img(Attrs{"width": "150", "alt": "", "src": p.PhotoURL})
			}
			row = append(row, photo)
		}
		body = append(body, TrTd(row))
	}
	return g.h.TableHeadBody([]string{TrTh(head)}, body)
}

func (g *Generator) countryEventText(c *olympiad.CountryEvent, h string, photos bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s>Participants</%s>\n", h, h)
	b.WriteString(g.countryEventPeopleTable(c, photos) + "\n")
	if c.NumContestants() > 0 {
		fmt.Fprintf(&b, "<%s>Scores</%s>\n", h, h)
		b.WriteString(g.countryEventScoresTable(c) + "\n")
	}
	return b.String()
}

// CountryEventText is the body of the page for one country at one event.
func (g *Generator) CountryEventText(c *olympiad.CountryEvent) string {
	text := g.flagText(c.FlagURL) + g.countryEventText(c, "h2", true)
	if c.NumContestants() > 0 {
		text += "<h2>National results</h2>\n" +
			g.h.TableHeadBody([]string{g.countryScoreboardHeader(c.Event, nil)},
				[]string{g.countryScoreboardRow(c, false)}) + "\n"
	}
	return text
}

func (g *Generator) generateCountryEvent(c *olympiad.CountryEvent) error {
	title := Esc(c.NameWithCode() + " at " + c.Event.ShortNameWithYearAndCountry())
	header := fmt.Sprintf("%s (%s) at %s",
		g.linkCountry(c.Country, Esc(c.Name)), g.linkCountry(c.Country, Esc(c.Code)),
		g.linkEventAndHost(c.Event))
	return g.writePage(g.CountryEventText(c), title, header, g.pathCountryAtEvent(c))
}

// CountryText is the body of the main page for one country.
func (g *Generator) CountryText(cd *olympiad.Country) string {
	var b strings.Builder
	b.WriteString(g.flagText(cd.FlagURL()))
	if host := g.hostYearText(cd); host != "" {
		fmt.Fprintf(&b, "<p><strong>%s host</strong>: %s.</p>\n", Esc(g.data.ShortName), host)
	}
	var years, results []string
	for _, c := range cd.Participations {
		e := c.Event
		label := Esc(c.NameWithCode()) + " at " + Esc(e.ShortNameWithYear())
		years = append(years, fmt.Sprintf("<h2>%s in %s</h2>\n", g.linkCountryAtEvent(c, label),
			g.linkHost(e, Esc(e.HostCountryNameIn)))+g.countryEventText(c, "h3", false))
		if c.NumContestants() > 0 {
			results = append(results, g.countryScoreboardRow(c, true))
		}
	}
	slices.Reverse(years)
	slices.Reverse(results)
	if len(results) > 0 {
		b.WriteString("<h2>National results</h2>\n")
		b.WriteString(g.h.TableHeadBody([]string{g.countryScoreboardHeader(nil, cd)}, results) + "\n")
	}
	b.WriteString(strings.Join(years, "\n"))
	return b.String()
}

func (g *Generator) generateCountry(cd *olympiad.Country) error {
	title := Esc(cd.NameWithCode())
	return g.writePage(g.CountryText(cd), title, title, g.pathCountry(cd))
}

type ageSpan struct {
	desc, from, to string
}

// PersonText is the body of the main page for one person.
func (g *Generator) PersonText(pd *olympiad.Person) string {
	var years []string
	var ages []ageSpan
	for _, p := range pd.Participations {
		e := p.Event
		var b strings.Builder
		fmt.Fprintf(&b, "<h2>%s</h2>\n", g.linkEvent(e, Esc(e.ShortNameWithYear())))
		b.WriteString("<table>\n<tr><td>\n")
		rows := [][2]string{
			{"Country", g.linkCountryAtEvent(p.Country, Esc(p.Country.Name))},
			{"Given name", Esc(p.GivenName)},
			{"Family name", Esc(p.FamilyName)},
			{"Primary role", Esc(p.PrimaryRole)},
		}
		if len(p.OtherRoles) > 0 {
			rows = append(rows, [2]string{"Other roles", Esc(strings.Join(sortedRoles(p.OtherRoles), ", "))})
		}
		if len(p.GuideFor) > 0 {
			rows = append(rows, [2]string{"Guide for", g.guideLinks(p)})
		}
		if p.IsContestant && p.ContestantAge != nil {
			rows = append(rows, [2]string{"Contestant age", strconv.Itoa(*p.ContestantAge)})
			if n := len(ages); n > 0 && ages[n-1].desc == e.AgeDayDesc {
				ages[n-1].to = e.Year
			} else {
				ages = append(ages, ageSpan{desc: e.AgeDayDesc, from: e.Year, to: e.Year})
			}
		}
		b.WriteString(g.h.TableThTd(rows) + "\n")
		b.WriteString("</td><td>\n")
		if p.PhotoURL != "" {
			b.WriteString(g.h.Img(Attrs{"width": "200", "alt": "", "src": p.PhotoURL}))
		}
		b.WriteString("</td></tr>\n</table>\n")
		if p.IsContestant {
			b.WriteString("<h3>Scores</h3>\n")
			b.WriteString(g.h.TableHeadBody([]string{g.personScoreboardHeader(e, RowOptions{})},
				[]string{g.personScoreboardRow(p, RowOptions{})}) + "\n")
		}
		years = append(years, b.String())
	}
	slices.Reverse(years)
	text := strings.Join(years, "\n")
	switch {
	case len(ages) > 1:
		parts := make([]string, len(ages))
		for i, a := range ages {
			if a.from == a.to {
				parts[i] = fmt.Sprintf("%s (%s)", Esc(a.desc), Esc(a.from))
			} else {
				parts[i] = fmt.Sprintf("%s (%s&ndash;%s)", Esc(a.desc), Esc(a.from), Esc(a.to))
			}
		}
		text += fmt.Sprintf("<p>Contestant ages are given on %s.</p>\n", strings.Join(parts, ", "))
	case len(ages) == 1:
		text += fmt.Sprintf("<p>Contestant ages are given on %s at each %s.</p>\n",
			Esc(ages[0].desc), Esc(g.data.ShortName))
	}
	return text
}

func (g *Generator) generatePerson(pd *olympiad.Person) error {
	title := Esc(pd.Name())
	return g.writePage(g.PersonText(pd), title, title, g.pathPerson(pd))
}
