// Package sitegen generates the static archive site (HTML pages and CSV
// downloads) for an olympiad.EventGroup.
package sitegen

import (
	"fmt"
	"path/filepath"
	"strings"

	"matholymp/internal/csvsource"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

// ConfigFile and ConfigSection locate the site configuration.
const (
	ConfigFile       = "staticsite.cfg"
	ConfigSection    = "matholymp.staticsite"
	PageTemplateFile = "page-template"
)

var configKeys = fileutil.ConfigKeys{
	Strings: []string{
		"long_name", "short_name", "short_name_plural", "num_key",
		"scores_css", "list_css", "photo_css", "page_suffix",
		"page_include_extra", "url_base", "short_name_url",
		"short_name_url_plural", "official_desc", "official_desc_lc",
		"official_adj", "age_day_desc",
	},
	IntNones: []string{"rank_top_n", "event_active_number"},
	Bools:    []string{"use_xhtml", "distinguish_official", "honourable_mentions_available"},
}

// Config is the content of staticsite.cfg plus the page template.
type Config struct {
	LongName                    string
	ShortName                   string
	ShortNamePlural             string
	NumKey                      string
	ScoresCSS                   string
	ListCSS                     string
	PhotoCSS                    string
	PageSuffix                  string
	PageIncludeExtra            string
	URLBase                     string
	ShortNameURL                string
	ShortNameURLPlural          string
	OfficialDesc                string
	OfficialDescLC              string
	OfficialAdj                 string
	AgeDayDesc                  string
	RankTopN                    *int
	EventActiveNumber           *int
	UseXHTML                    bool
	DistinguishOfficial         bool
	HonourableMentionsAvailable bool

	// PageTemplate contains %(title)s, %(header)s and %(body)s.
	PageTemplate string
}

// ReadConfig reads the configuration of the site rooted at topDir.
func ReadConfig(topDir string) (*Config, error) {
	v, err := fileutil.ReadConfig(filepath.Join(topDir, ConfigFile), ConfigSection, configKeys)
	if err != nil {
		return nil, err
	}
	cfg := configFromValues(v)
	cfg.PageTemplate, err = fileutil.ReadText(filepath.Join(topDir, PageTemplateFile))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig parses staticsite.cfg content; used by the registration
// service, which needs no page template.
func ParseConfig(data []byte) (*Config, error) {
	v, err := fileutil.ReadConfigBytes(data, ConfigSection, configKeys)
	if err != nil {
		return nil, err
	}
	return configFromValues(v), nil
}

func configFromValues(v *fileutil.ConfigValues) *Config {
	s := v.Strings
	return &Config{
		LongName:                    s["long_name"],
		ShortName:                   s["short_name"],
		ShortNamePlural:             s["short_name_plural"],
		NumKey:                      s["num_key"],
		ScoresCSS:                   s["scores_css"],
		ListCSS:                     s["list_css"],
		PhotoCSS:                    s["photo_css"],
		PageSuffix:                  s["page_suffix"],
		PageIncludeExtra:            s["page_include_extra"],
		URLBase:                     s["url_base"],
		ShortNameURL:                s["short_name_url"],
		ShortNameURLPlural:          s["short_name_url_plural"],
		OfficialDesc:                s["official_desc"],
		OfficialDescLC:              s["official_desc_lc"],
		OfficialAdj:                 s["official_adj"],
		AgeDayDesc:                  s["age_day_desc"],
		RankTopN:                    v.IntNones["rank_top_n"],
		EventActiveNumber:           v.IntNones["event_active_number"],
		UseXHTML:                    v.Bools["use_xhtml"],
		DistinguishOfficial:         v.Bools["distinguish_official"],
		HonourableMentionsAvailable: v.Bools["honourable_mentions_available"],
	}
}

// GroupConfig returns the group settings for the data model.
func (c *Config) GroupConfig() olympiad.GroupConfig {
	return olympiad.GroupConfig{
		ShortName:                   c.ShortName,
		ShortNamePlural:             c.ShortNamePlural,
		LongName:                    c.LongName,
		DistinguishOfficial:         c.DistinguishOfficial,
		RankTopN:                    c.RankTopN,
		HonourableMentionsAvailable: c.HonourableMentionsAvailable,
		AgeDayDesc:                  c.AgeDayDesc,
	}
}

// SourceOptions returns the options for reading the site's CSV data.
func (c *Config) SourceOptions() csvsource.Options {
	return csvsource.Options{
		Group:             c.GroupConfig(),
		NumKey:            c.NumKey,
		OfficialDesc:      c.OfficialDesc,
		EventActiveNumber: c.EventActiveNumber,
	}
}

// LoadEventGroup reads the data files of the site rooted at topDir.
func LoadEventGroup(topDir string, cfg *Config) (*olympiad.EventGroup, error) {
	g, err := csvsource.LoadFiles(csvsource.DataFiles(topDir, cfg.ShortNameURLPlural), cfg.SourceOptions())
	if err != nil {
		return nil, fmt.Errorf("load site data: %w", err)
	}
	return g, nil
}

// pyFormat substitutes %(name)s placeholders.
func pyFormat(template string, values map[string]string) string {
	args := make([]string, 0, 2*len(values)+2)
	for k, v := range values {
		args = append(args, "%("+k+")s", v)
	}
	args = append(args, "%%", "%")
	return strings.NewReplacer(args...).Replace(template)
}
