package docgen

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"matholymp/internal/collate"
	"matholymp/internal/olympiad"
	"matholymp/internal/regdata"
)

func (g *Generator) onePaper(langFile, lang, day, desc, code string) (string, error) {
	name := langFile
	if day != "" {
		name += "-day" + day
	}
	n, err := g.paperPages(name)
	if err != nil {
		return "", err
	}
	if n == 1 {
		return fmt.Sprintf(`\onepaper{%s}{%s}{%s}{%s}{%s}{}{1}`,
			name, TextToLaTeX(lang), day, TextToLaTeX(desc), TextToLaTeX(code)), nil
	}
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf(`\onepaper{%s}{%s}{%s}{%s}{%s}{%d}{%d}`,
			name, TextToLaTeX(lang), day, TextToLaTeX(desc), TextToLaTeX(code), i+1, n)
	}
	return strings.Join(pages, "%\n"), nil
}

// PaperDays returns the exam days to generate: the given day, "" when the
// event has a single exam, or every day.
func PaperDays(e *olympiad.Event, day string) []string {
	if day != "" {
		return []string{day}
	}
	n := e.NumExamsOrZero()
	if n == 1 {
		return []string{""}
	}
	days := make([]string, n)
	for i := range days {
		days[i] = strconv.Itoa(i + 1)
	}
	return days
}

// SortedLanguages returns the languages of the event in collation order.
func SortedLanguages(e *olympiad.Event) []string {
	langs := e.LanguageList()
	slices.SortFunc(langs, collate.Compare)
	return langs
}

// Papers generates exam papers. id is "all" (one paper set per contestant
// plus copies for leaders), "all-languages" (every language, final
// version), a language file name (draft of that language) or a contestant.
func (g *Generator) Papers(ctx context.Context, id, day string, background bool) error {
	fields := Fields{
		"year":           g.event.Year,
		"short_name":     g.event.ShortName,
		"long_name":      g.event.LongName,
		"use_background": boolField(background),
		"print_logo":     boolField(g.cfg.PaperPrintLogo),
		"text_left":      boolField(g.cfg.PaperTextLeft),
	}
	days := PaperDays(g.event, day)
	dayText := ""
	if day != "" {
		dayText = "-day" + day
	}

	allLangs := SortedLanguages(g.event)
	langByFile := make(map[string]string, len(allLangs))
	for _, l := range allLangs {
		langByFile[regdata.LangToFilename(l)] = l
	}

	switch {
	case id == "all-languages":
		return g.languagePapers(ctx, fields, days, allLangs, "", "", background, true)
	case langByFile[id] != "":
		return g.languagePapers(ctx, fields, days, []string{langByFile[id]}, "Draft", "-draft", background, false)
	}

	var contestants []*olympiad.PersonEvent
	var outputBase string
	if id == "all" {
		contestants = olympiad.SortedPersonEvents(g.event.Contestants, olympiad.ComparePersonEventExams)
		outputBase = "papers" + dayText
	} else {
		p, err := g.ContestantByID(id)
		if err != nil {
			return err
		}
		contestants = []*olympiad.PersonEvent{p}
		outputBase = "paper" + dayText + "-person" + id
	}

	countryLangs := make(map[string][]string)
	var papers []string
	for _, d := range days {
		for _, p := range contestants {
			langs := slices.DeleteFunc(slices.Clone(p.Languages), func(l string) bool { return l == "" })
			if len(langs) > 2 {
				langs = langs[:2]
			}
			for _, l := range langs {
				text, err := g.onePaper(regdata.LangToFilename(l), l, d, "Contestant: ", p.ContestantCode)
				if err != nil {
					return err
				}
				papers = append(papers, text)
			}
			code := p.Country.Code
			for _, l := range langs {
				if !slices.Contains(countryLangs[code], l) {
					countryLangs[code] = append(countryLangs[code], l)
				}
			}
		}
	}
	fields["papers"] = strings.Join(papers, "%\n")
	if err := g.substAndCompile(ctx, "paper-template", outputBase, fields, "papers"); err != nil {
		return err
	}
	if id != "all" {
		return nil
	}

	leaders := make(map[string]int)
	for _, p := range g.event.People {
		if !p.IsContestant {
			leaders[p.Country.Code]++
		}
	}
	codes := make([]string, 0, len(countryLangs))
	for c := range countryLangs {
		codes = append(codes, c)
	}
	slices.SortFunc(codes, collate.Compare)
	papers = nil
	for _, d := range days {
		for _, c := range codes {
			langs := countryLangs[c]
			if !slices.Contains(langs, "English") {
				langs = append(langs, "English")
			}
			slices.SortFunc(langs, collate.Compare)
			countryLangs[c] = langs
			for i := 0; i < leaders[c]; i++ {
				for _, l := range langs {
					text, err := g.onePaper(regdata.LangToFilename(l), l, d, "Leaders: ", c)
					if err != nil {
						return err
					}
					papers = append(papers, text)
				}
			}
		}
	}
	fields["papers"] = strings.Join(papers, "%\n")
	return g.substAndCompile(ctx, "paper-template", "papers-leaders"+dayText, fields, "papers")
}

func (g *Generator) languagePapers(ctx context.Context, fields Fields, days, langs []string, desc, draftText string, background, combined bool) error {
	bgText := ""
	if background {
		bgText = "-bg"
	}
	for _, d := range days {
		dayText := ""
		if d != "" {
			dayText = "-day" + d
		}
		var papers []string
		for _, l := range langs {
			file := regdata.LangToFilename(l)
			text, err := g.onePaper(file, l, d, desc, "")
			if err != nil {
				return err
			}
			papers = append(papers, text)
			fields["papers"] = text
			if err := g.substAndCompile(ctx, "paper-template", "paper"+dayText+draftText+bgText+"-"+file, fields, "papers"); err != nil {
				return err
			}
		}
		if combined {
			fields["papers"] = strings.Join(papers, "%\n")
			if err := g.substAndCompile(ctx, "paper-template", "paper"+dayText+draftText+bgText+"-All", fields, "papers"); err != nil {
				return err
			}
		}
	}
	return nil
}
