package sitegen

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/pkg/utils/logger"
)

// Generate writes the complete site under the output directory. Pages for
// different events, countries and people are rendered concurrently. A lock
// file beside the output directory (<dir>.lock) is held for the duration so
// nothing extra is published with the site.
func (g *Generator) Generate(ctx context.Context) error {
	if g.outDir == "" {
		return fmt.Errorf("no output directory")
	}
	lock, err := fileutil.LockFile(filepath.Clean(g.outDir) + ".lock")
	if err != nil {
		return err
	}
	defer lock.Unlock()

	logger.Info(ctx, "generating site",
		zap.String("dir", g.outDir),
		zap.Int("events", len(g.data.Events)),
		zap.Int("countries", len(g.data.Countries)),
		zap.Int("people", len(g.data.People)))

	for _, step := range []func() error{
		g.generateSidebar,
		g.generateContact,
		g.generateEventsSummary,
		g.generateCountriesSummary,
		g.generatePeopleSummary,
		g.generateHallOfFame,
	} {
		if err := step(); err != nil {
			return err
		}
	}

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	spawn := func(f func() error) {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return f()
		})
	}
	for _, e := range g.data.Events {
		spawn(func() error { return g.generateEvent(e) })
	}
	for _, c := range g.data.Countries {
		spawn(func() error { return g.generateCountry(c) })
	}
	for _, p := range g.data.People {
		spawn(func() error { return g.generatePerson(p) })
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	rows, cols := g.EventsCSV()
	if err := g.writeCSV(g.pathDataEvents(), rows, cols); err != nil {
		return err
	}
	rows, cols = g.CountriesCSV()
	if err := g.writeCSV(g.pathDataCountries(), rows, cols); err != nil {
		return err
	}
	rows, cols = g.PeopleCSV()
	if err := g.writeCSV(g.pathDataPeople(), rows, cols); err != nil {
		return err
	}
	for _, e := range g.data.Events {
		if e.NumContestants() == 0 {
			continue
		}
		rows, cols = g.EventCountriesCSV(e, CSVOptions{})
		if err := g.writeCSV(g.pathEventCountriesCSV(e), rows, cols); err != nil {
			return err
		}
		rows, cols = g.EventPeopleCSV(e, CSVOptions{})
		if err := g.writeCSV(g.pathEventPeopleCSV(e), rows, cols); err != nil {
			return err
		}
		rows, cols = g.EventScoresCSV(e, CSVOptions{})
		if err := g.writeCSV(g.pathEventScoresCSV(e), rows, cols); err != nil {
			return err
		}
	}
	logger.Info(ctx, "site generated", zap.String("dir", g.outDir))
	return nil
}

func (g *Generator) generateEvent(e *olympiad.Event) error {
	extra := filepath.Join(g.outPath(g.pathEvent(e)), "extra"+g.cfg.PageSuffix)
	if !fileutil.Exists(extra) {
		if err := fileutil.WriteTextAtomic(extra, ""); err != nil {
			return err
		}
	}
	if err := g.generateEventSummary(e); err != nil {
		return fmt.Errorf("event %d: %w", e.ID, err)
	}
	if e.NumContestants() == 0 {
		return nil
	}
	for _, step := range []func(*olympiad.Event) error{
		g.generateEventCountries,
		g.generateEventPeople,
		g.generateScoreboard,
		g.generateRedirects,
	} {
		if err := step(e); err != nil {
			return fmt.Errorf("event %d: %w", e.ID, err)
		}
	}
	for _, c := range e.Countries {
		if err := g.generateCountryEvent(c); err != nil {
			return fmt.Errorf("event %d country %d: %w", e.ID, c.Country.ID, err)
		}
	}
	return nil
}
