package sitegen

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

var annualCountryRE = regexp.MustCompile(`country[0-9]*$`)

func redirect(srcURL, query, destURL string) string {
	var b strings.Builder
	b.WriteString("RewriteCond %{REQUEST_URI} ^" + urlHostRE.ReplaceAllString(srcURL, "") + "$\n")
	if query != "" {
		b.WriteString("RewriteCond %{QUERY_STRING} ^" + query + "$\n")
	}
	b.WriteString("RewriteRule ^.* " + destURL + "? [R=301,L]\n")
	return b.String()
}

func (g *Generator) redirectFile(src, query string, dest []string) string {
	return redirect(src, query, g.cfg.URLBase+strings.Join(dest, "/"))
}

func (g *Generator) redirectPage(src, query string, dest []string) string {
	return redirect(src, query, g.cfg.URLBase+strings.Join(dest, "/")+"/")
}

// RedirectsText returns the web server rewrite rules mapping the
// registration system URLs of one event to the archive. It returns "" when
// no country at the event has a registration URL.
func (g *Generator) RedirectsText(e *olympiad.Event) (string, error) {
	var b strings.Builder
	base := ""
	for _, c := range olympiad.SortedCountryEvents(e.Countries, olympiad.CompareCountryEvent) {
		if c.AnnualURL == "" {
			continue
		}
		b.WriteString(g.redirectPage(c.AnnualURL, "", g.pathCountryAtEvent(c)))
		this := annualCountryRE.ReplaceAllString(c.AnnualURL, "")
		if base == "" {
			base = this
		} else if this != base {
			return "", fmt.Errorf("annual URL inconsistency: %s != %s", base, this)
		}
	}
	if base == "" {
		return "", nil
	}
	both := func(src, query string, dest []string, page bool) {
		for _, at := range []string{"@", "%40"} {
			if page {
				b.WriteString(g.redirectPage(src, at+query, dest))
			} else {
				b.WriteString(g.redirectFile(src, at+query, dest))
			}
		}
	}
	country, person := base+"country", base+"person"
	both(country, "action=country_csv", g.pathEventCountriesCSV(e), false)
	both(country, "action=scores_rss", g.pathEventScoresRSS(e), false)
	b.WriteString(g.redirectPage(country, "", g.pathEventCountries(e)))
	for _, p := range olympiad.SortedPersonEvents(e.People, olympiad.ComparePersonEvent) {
		if p.AnnualURL != "" {
			b.WriteString(g.redirectPage(p.AnnualURL, "", g.pathPerson(p.Person)))
		}
	}
	both(person, "template=scoreboard", g.pathEventScoreboard(e), true)
	both(person, "action=people_csv", g.pathEventPeopleCSV(e), false)
	both(person, "action=scores_csv", g.pathEventScoresCSV(e), false)
	b.WriteString(g.redirectPage(person, "", g.pathEventPeople(e)))
	b.WriteString(g.redirectPage(base, "", g.pathEventCountries(e)))
	return b.String(), nil
}

func (g *Generator) generateRedirects(e *olympiad.Event) error {
	text, err := g.RedirectsText(e)
	if err != nil || text == "" {
		return err
	}
	return fileutil.WriteTextAtomic(filepath.Join(g.autoDir, "redirects-"+strconv.Itoa(e.ID)), text)
}
