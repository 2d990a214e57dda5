package sitegen

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

var urlHostRE = regexp.MustCompile(`^https?://[^/]*`)

// Generator renders the pages and CSV files for one event group.
type Generator struct {
	cfg        *Config
	data       *olympiad.EventGroup
	outDir     string
	autoDir    string
	urlBaseRel string
	h          HTML
}

// New returns a generator writing under outDir. outDir may be empty when
// the generator is only used to render content in memory.
func New(cfg *Config, data *olympiad.EventGroup, outDir string) *Generator {
	g := &Generator{
		cfg:        cfg,
		data:       data,
		outDir:     outDir,
		urlBaseRel: urlHostRE.ReplaceAllString(cfg.URLBase, ""),
		h:          HTML{UseXHTML: cfg.UseXHTML, ScoresCSS: cfg.ScoresCSS, ListCSS: cfg.ListCSS},
	}
	if outDir != "" {
		g.autoDir = filepath.Join(outDir, cfg.ShortNameURL, "auto")
	}
	return g
}

func (g *Generator) outPath(path []string) string {
	return filepath.Join(append([]string{g.outDir}, path...)...)
}

// RenderPage fills the page template.
func (g *Generator) RenderPage(body, title, header string) string {
	return pyFormat(g.cfg.PageTemplate, map[string]string{
		"title":  Esc(g.data.LongName) + ": " + title,
		"header": Esc(g.data.ShortName) + ": " + header,
		"body":   body,
	})
}

func (g *Generator) writePage(body, title, header string, path []string) error {
	name := filepath.Join(g.outPath(path), "index"+g.cfg.PageSuffix)
	return fileutil.WriteTextAtomic(name, g.RenderPage(body, title, header))
}

func (g *Generator) writeCSV(path []string, rows []fileutil.Row, keys []string) error {
	return fileutil.WriteUTF8CSV(g.outPath(path), rows, keys)
}

func (g *Generator) linkFile(path []string, body string) string {
	return A(body, g.urlBaseRel+strings.Join(path, "/"))
}

func (g *Generator) linkPage(path []string, body string) string {
	return A(body, g.urlBaseRel+strings.Join(path, "/")+"/")
}

func (g *Generator) linkRegistration(e *olympiad.Event, regPath, body string) string {
	return g.linkFile([]string{"registration", e.Year, regPath}, body)
}

func homePageLink(e *olympiad.Event) string {
	if e.HomePageURL == "" {
		return ""
	}
	return " (" + AExternal("home page", e.HomePageURL) + ")"
}

func appendPath(p []string, elems ...string) []string {
	r := make([]string, 0, len(p)+len(elems))
	return append(append(r, p...), elems...)
}

func (g *Generator) pathEvents() []string {
	return []string{g.cfg.ShortNameURLPlural}
}

func (g *Generator) pathEvent(e *olympiad.Event) []string {
	return appendPath(g.pathEvents(), g.cfg.ShortNameURL+strconv.Itoa(e.ID))
}

func (g *Generator) pathEventCountries(e *olympiad.Event) []string {
	return appendPath(g.pathEvent(e), "countries")
}

func (g *Generator) pathEventCountriesCSV(e *olympiad.Event) []string {
	return appendPath(g.pathEventCountries(e), "countries.csv")
}

func (g *Generator) pathEventPeople(e *olympiad.Event) []string {
	return appendPath(g.pathEvent(e), "people")
}

func (g *Generator) pathEventPeopleCSV(e *olympiad.Event) []string {
	return appendPath(g.pathEventPeople(e), "people.csv")
}

func (g *Generator) pathEventScoreboard(e *olympiad.Event) []string {
	return appendPath(g.pathEvent(e), "scoreboard")
}

func (g *Generator) pathEventScoresCSV(e *olympiad.Event) []string {
	return appendPath(g.pathEventScoreboard(e), "scores.csv")
}

func (g *Generator) pathEventScoresRSS(e *olympiad.Event) []string {
	return appendPath(g.pathEventScoreboard(e), "rss.xml")
}

func (g *Generator) pathCountryAtEvent(c *olympiad.CountryEvent) []string {
	return appendPath(g.pathEventCountries(c.Event), "country"+strconv.Itoa(c.Country.ID))
}

func (g *Generator) pathCountries() []string { return []string{"countries"} }

func (g *Generator) pathCountry(c *olympiad.Country) []string {
	return appendPath(g.pathCountries(), "country"+strconv.Itoa(c.ID))
}

func (g *Generator) pathPeople() []string { return []string{"people"} }

func (g *Generator) pathHallOfFame() []string {
	return appendPath(g.pathPeople(), "halloffame")
}

func (g *Generator) pathPerson(p *olympiad.Person) []string {
	return appendPath(g.pathPeople(), "person"+strconv.Itoa(p.ID))
}

func (g *Generator) pathDataEvents() []string {
	return []string{"data", g.cfg.ShortNameURLPlural + "-all.csv"}
}

func (g *Generator) pathDataPapers() []string    { return []string{"data", "papers.csv"} }
func (g *Generator) pathDataCountries() []string { return []string{"data", "countries-all.csv"} }
func (g *Generator) pathDataPeople() []string    { return []string{"data", "people-all.csv"} }

func (g *Generator) linkEvent(e *olympiad.Event, body string) string {
	return g.linkPage(g.pathEvent(e), body)
}

func (g *Generator) linkCountry(c *olympiad.Country, body string) string {
	return g.linkPage(g.pathCountry(c), body)
}

func (g *Generator) linkCountryAtEvent(c *olympiad.CountryEvent, body string) string {
	return g.linkPage(g.pathCountryAtEvent(c), body)
}

func (g *Generator) linkPerson(p *olympiad.Person, body string) string {
	return g.linkPage(g.pathPerson(p), body)
}

// linkEventAndHost renders "<event> in <host country>" with links.
func (g *Generator) linkEventAndHost(e *olympiad.Event) string {
	return g.linkEvent(e, Esc(e.ShortNameWithYear())) + " in " + g.linkHost(e, Esc(e.HostCountryNameIn))
}

// linkHost links to the host country; events hosted outside any known
// country render the text alone.
func (g *Generator) linkHost(e *olympiad.Event, body string) string {
	if e.HostCountry == nil {
		return body
	}
	return g.linkCountry(e.HostCountry, body)
}
