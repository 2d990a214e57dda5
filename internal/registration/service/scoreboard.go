package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"matholymp/internal/olympiad"
	"matholymp/internal/sitegen"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"go.uber.org/zap"
)

// Names of the generated documents held in the text cache.
const (
	docScoreboardJSON = "scoreboard.json"
	docScoreboardHTML = "scoreboard.html"
	docScoresCSV      = "scores.csv"
	docCountriesCSV   = "countries.csv"
	docPeopleCSV      = "people.csv"
	docScoresRSS      = "scores-rss.xml"
)

var cachedDocs = []string{
	docScoreboardJSON, docScoreboardHTML, docScoresCSV, docCountriesCSV, docPeopleCSV, docScoresRSS,
}

// invalidate drops every cached document.
func (s *Service) invalidate(ctx context.Context) error {
	if s.texts == nil {
		return nil
	}
	return s.texts.Invalidate(ctx, cachedDocs...)
}

// cachedText returns document name from the cache, generating it with
// gen on a miss. Without a cache gen runs every time.
func (s *Service) cachedText(ctx context.Context, name string, gen func(context.Context) (string, error)) (string, error) {
	if s.texts == nil {
		return gen(ctx)
	}
	text, hit, err := s.texts.Get(ctx, name, gen)
	if err != nil {
		var e *pkgerrors.Error
		if stderrors.As(err, &e) {
			return "", err
		}
		logger.Warn(ctx, "text cache unavailable, generating directly", zap.String("name", name), zap.Error(err))
		return gen(ctx)
	}
	s.metrics.scoreboardLookup(hit)
	return text, nil
}

// ScoreboardContestant is one row of the JSON scoreboard.
type ScoreboardContestant struct {
	Code        string `json:"code"`
	PersonID    int    `json:"person_id"`
	CountryCode string `json:"country_code"`
	Name        string `json:"name"`
	Scores      []*int `json:"scores"`
	Total       int    `json:"total"`
	Rank        int    `json:"rank"`
	Award       string `json:"award,omitempty"`
}

type ScoreboardCountry struct {
	ID       int                   `json:"id"`
	Code     string                `json:"code"`
	Name     string                `json:"name"`
	Official *bool                 `json:"official,omitempty"`
	Total    int                   `json:"total"`
	Rank     int                   `json:"rank"`
	Awards   *olympiad.AwardCounts `json:"awards,omitempty"`
}

// Scoreboard is the live state of the results.
type Scoreboard struct {
	RegistrationEnabled bool                    `json:"registration_enabled"`
	ScoresFinal         bool                    `json:"scores_final"`
	GoldBoundary        *int                    `json:"gold,omitempty"`
	SilverBoundary      *int                    `json:"silver,omitempty"`
	BronzeBoundary      *int                    `json:"bronze,omitempty"`
	MarksPerProblem     []int                   `json:"marks_per_problem"`
	Contestants         []*ScoreboardContestant `json:"contestants"`
	Countries           []*ScoreboardCountry    `json:"countries"`
}

func scoreboardOf(e *olympiad.Event) *Scoreboard {
	sb := &Scoreboard{
		RegistrationEnabled: e.RegistrationActive,
		ScoresFinal:         e.ScoresFinal(),
		GoldBoundary:        e.GoldBoundary,
		SilverBoundary:      e.SilverBoundary,
		BronzeBoundary:      e.BronzeBoundary,
		MarksPerProblem:     e.MarksPerProblem,
		Contestants:         []*ScoreboardContestant{},
		Countries:           []*ScoreboardCountry{},
	}
	for _, p := range olympiad.ByRank(e.Contestants) {
		sb.Contestants = append(sb.Contestants, &ScoreboardContestant{
			Code:        p.ContestantCode,
			PersonID:    p.PersonID,
			CountryCode: p.Country.Code,
			Name:        p.Name(),
			Scores:      p.ProblemScores,
			Total:       p.TotalScore,
			Rank:        p.Rank,
			Award:       p.Award,
		})
	}
	for _, c := range olympiad.CountriesByRank(e.CountriesWithContestants) {
		sb.Countries = append(sb.Countries, &ScoreboardCountry{
			ID:       c.CountryID,
			Code:     c.Code,
			Name:     c.Name,
			Official: c.IsOfficial,
			Total:    c.TotalScore,
			Rank:     c.Rank,
			Awards:   c.NumAwards,
		})
	}
	return sb
}

func (s *Service) currentEvent(ctx context.Context) (*olympiad.EventGroup, *olympiad.Event, error) {
	g, err := s.EventGroup(ctx)
	if err != nil {
		return nil, nil, err
	}
	e := currentEvent(g, s.event)
	if e == nil {
		return nil, nil, pkgerrors.New(pkgerrors.ScoreboardNotAvailable)
	}
	return g, e, nil
}

// ScoreboardJSON returns the encoded Scoreboard.
func (s *Service) ScoreboardJSON(ctx context.Context) ([]byte, error) {
	text, err := s.cachedText(ctx, docScoreboardJSON, func(ctx context.Context) (string, error) {
		_, e, err := s.currentEvent(ctx)
		if err != nil {
			return "", err
		}
		b, err := json.Marshal(scoreboardOf(e))
		if err != nil {
			return "", fmt.Errorf("marshal scoreboard: %w", err)
		}
		return string(b), nil
	})
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// ScoreboardHTML returns the scoreboard as an HTML fragment.
func (s *Service) ScoreboardHTML(ctx context.Context) (string, error) {
	return s.cachedText(ctx, docScoreboardHTML, func(ctx context.Context) (string, error) {
		g, e, err := s.currentEvent(ctx)
		if err != nil {
			return "", err
		}
		return sitegen.New(s.event.SiteConfig(), g, "").ScoreboardText(e), nil
	})
}

// DisplayScoreboardHTML renders screen start of the large-display
// scoreboard. Screens are not cached since start varies per client.
func (s *Service) DisplayScoreboardHTML(ctx context.Context, start int) (string, error) {
	g, e, err := s.currentEvent(ctx)
	if err != nil {
		return "", err
	}
	return sitegen.New(s.event.SiteConfig(), g, "").DisplayScoreboardText(e, "display", start), nil
}
