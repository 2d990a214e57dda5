package staticimport

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"matholymp/internal/csvsource"
	"matholymp/internal/docgen"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/regdata"
	"matholymp/internal/sitegen"
	"matholymp/pkg/utils/logger"
)

// PapersOptions select which papers PapersImport copies.
type PapersOptions struct {
	// Day restricts the import to one exam day.
	Day string
	// Background imports both the version printed on the pre-printed
	// background and the plain one.
	Background bool
}

// PapersHeader returns the columns of data/papers.csv.
func PapersHeader(cfg *sitegen.Config) []string {
	return []string{cfg.NumKey, olympiad.ColDay, olympiad.ColLanguage, olympiad.ColDescription, olympiad.ColURL}
}

// PapersImport copies the papers produced by document generation in
// docDir (documentgen.cfg, data/ with the registration CSV files, out/
// with the PDF files) into the site rooted at topDir and records them in
// data/papers.csv.
func PapersImport(ctx context.Context, cfg *sitegen.Config, topDir, docDir string, o PapersOptions) error {
	lock, err := fileutil.LockDir(topDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	dcfg, err := docgen.ReadConfig(docDir)
	if err != nil {
		return err
	}
	e, err := docgen.LoadEvent(filepath.Join(docDir, "data"), dcfg)
	if err != nil {
		return err
	}
	papersCSV := csvsource.DataFiles(topDir, cfg.ShortNameURLPlural).Papers
	papers, err := fileutil.ReadUTF8CSV(papersCSV)
	if err != nil {
		return err
	}

	eventID := strconv.Itoa(dcfg.EventNumber)
	outDir := filepath.Join(docDir, "out")
	add := func(day, lang, desc, file string) error {
		dst := []string{cfg.ShortNameURLPlural, cfg.ShortNameURL + eventID, file}
		if err := fileutil.CopyFile(filepath.Join(outDir, file), filepath.Join(append([]string{topDir}, dst...)...)); err != nil {
			return err
		}
		if day == "" {
			day = "1"
		}
		papers = append(papers, fileutil.Row{
			cfg.NumKey:              eventID,
			olympiad.ColDay:         day,
			olympiad.ColLanguage:    lang,
			olympiad.ColDescription: desc,
			olympiad.ColURL:         cfg.URLBase + strings.Join(dst, "/"),
		})
		return nil
	}

	n := 0
	for _, d := range docgen.PaperDays(e, o.Day) {
		dayText := ""
		if d != "" {
			dayText = "-day" + d
		}
		for _, lang := range docgen.SortedLanguages(e) {
			before, after := "paper"+dayText, "-"+regdata.LangToFilename(lang)+".pdf"
			if o.Background {
				if err := add(d, lang, "", before+"-bg"+after); err != nil {
					return err
				}
				if err := add(d, lang, "without background design", before+after); err != nil {
					return err
				}
				n += 2
				continue
			}
			if err := add(d, lang, "", before+after); err != nil {
				return err
			}
			n++
		}
	}
	if err := fileutil.WriteUTF8CSV(papersCSV, papers, PapersHeader(cfg)); err != nil {
		return err
	}
	logger.Info(ctx, "papers imported", zap.String("event", eventID), zap.Int("papers", n))
	return nil
}
