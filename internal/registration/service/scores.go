package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/olympiad"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scoresInvalid(field, format string, args ...interface{}) error {
	return pkgerrors.Validationf(pkgerrors.ScoresInvalid, field, format, args...)
}

// contestants returns the contestants of a country keyed by contestant
// code, plus the codes in role order.
func (s *Service) contestants(ctx context.Context, tx db.Transaction, c *repository.Country) (map[string]*repository.Person, []string, error) {
	people, err := s.repos.People.ListByCountry(ctx, tx, c.ID)
	if err != nil {
		return nil, nil, dbError("list people", err)
	}
	byCode := make(map[string]*repository.Person)
	var codes []string
	for _, p := range people {
		if !isContestantRole(p.PrimaryRole) {
			continue
		}
		code := c.Code + strings.TrimPrefix(p.PrimaryRole, olympiad.ContestantRolePrefix)
		byCode[code] = p
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimPrefix(codes[i], c.Code))
		b, _ := strconv.Atoi(strings.TrimPrefix(codes[j], c.Code))
		return a < b
	})
	return byCode, codes, nil
}

// EnterScores records the scores of one country's contestants on one
// problem. scores maps contestant code to a score; "" leaves the score
// unknown.
func (s *Service) EnterScores(ctx context.Context, countryID int64, problem int, scores map[string]string) error {
	if _, err := requireRole(ctx, auth.RoleScore); err != nil {
		return err
	}
	var (
		country *repository.Country
		text    string
		entered int
	)
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		ev, err := s.getEvent(ctx, tx)
		if err != nil {
			return err
		}
		if ev.BoundariesSet() {
			return pkgerrors.Validationf(pkgerrors.ScoresFrozen, "scores", "Scores cannot be entered after medal boundaries are set")
		}
		if ev.RegistrationEnabled {
			return pkgerrors.Validationf(pkgerrors.ScoresBeforeDisable, "scores", "Registration must be disabled before scores are entered")
		}
		sc, err := s.specialCountries(ctx, tx)
		if err != nil {
			return err
		}
		if sc.isSpecial(countryID) {
			return scoresInvalid("country", "Invalid country")
		}
		country, err = s.getCountry(ctx, tx, countryID)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CountryNotFound) {
				return scoresInvalid("country", "Invalid country")
			}
			return err
		}
		if problem < 1 || problem > s.event.NumProblems {
			return pkgerrors.Validationf(pkgerrors.ProblemNumberInvalid, "problem", "Invalid problem number")
		}
		maxMarks := s.event.MarksPerProblem[problem-1]

		byCode, codes, err := s.contestants(ctx, tx, country)
		if err != nil {
			return err
		}
		parts := make([]string, 0, len(codes))
		for _, code := range codes {
			raw, ok := scores[code]
			if !ok {
				return scoresInvalid("scores", "No score specified for %s", code)
			}
			raw = strings.TrimSpace(raw)
			var value *int
			if raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 || n > maxMarks || strconv.Itoa(n) != raw {
					return scoresInvalid("scores", "Invalid score specified for %s", code)
				}
				value = &n
			}
			person := byCode[code]
			current, err := parseScores(person.Scores, s.event.NumProblems)
			if err != nil {
				return err
			}
			current[problem-1] = value
			if err := s.repos.People.SetScores(ctx, tx, person.ID, formatScores(current)); err != nil {
				return dbError("set scores", err)
			}
			if value == nil {
				parts = append(parts, code+" = ?")
			} else {
				parts = append(parts, code+" = "+raw)
				entered++
			}
		}
		title := fmt.Sprintf("%s P%d", country.Code, problem)
		text = title + ": " + strings.Join(parts, ", ")
		return s.addRSS(ctx, tx, &country.ID, title, text)
	})
	if err != nil {
		return err
	}
	s.metrics.addScores(entered)
	logger.Info(ctx, "scores entered", zap.String("country", country.Code), zap.Int("problem", problem), zap.Int("entered", entered))
	s.publish(ctx, ChangeEvent{Type: EventScoresEntered, CountryID: countryID, Problem: problem, Text: text})
	return nil
}

func (s *Service) addRSS(ctx context.Context, tx db.Transaction, countryID *int64, title, text string) error {
	item := &repository.RSSItem{CountryID: countryID, Title: title, Text: text, GUID: "urn:uuid:" + uuid.NewString()}
	if _, err := s.repos.RSS.Create(ctx, tx, item); err != nil {
		return dbError("create rss item", err)
	}
	s.metrics.rssItem()
	return nil
}

// allScoresEntered reports whether every contestant has a score on every
// problem.
func (s *Service) allScoresEntered(ctx context.Context, tx db.Transaction) (bool, error) {
	people, err := s.repos.People.List(ctx, tx)
	if err != nil {
		return false, dbError("list people", err)
	}
	for _, p := range people {
		if !isContestantRole(p.PrimaryRole) {
			continue
		}
		scores, err := parseScores(p.Scores, s.event.NumProblems)
		if err != nil {
			return false, err
		}
		for _, v := range scores {
			if v == nil {
				return false, nil
			}
		}
	}
	return true, nil
}

// SetMedalBoundaries fixes the medal boundaries once all scores are in.
func (s *Service) SetMedalBoundaries(ctx context.Context, gold, silver, bronze int) error {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if gold < silver || silver < bronze || bronze < 0 || gold > s.event.MaxTotalScore() {
		return pkgerrors.Validationf(pkgerrors.BoundariesInvalid, "boundaries", "Medal boundaries must be nonincreasing")
	}
	text := fmt.Sprintf("Medal boundaries: Gold %d, Silver %d, Bronze %d", gold, silver, bronze)
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		ev, err := s.getEvent(ctx, tx)
		if err != nil {
			return err
		}
		if ev.RegistrationEnabled {
			return pkgerrors.Validationf(pkgerrors.ScoresBeforeDisable, "scores", "Registration must be disabled before scores are entered")
		}
		complete, err := s.allScoresEntered(ctx, tx)
		if err != nil {
			return err
		}
		if !complete {
			return pkgerrors.Validationf(pkgerrors.ScoresIncomplete, "scores", "Scores not all entered")
		}
		if err := s.repos.Events.SetBoundaries(ctx, tx, gold, silver, bronze); err != nil {
			return dbError("set boundaries", err)
		}
		return s.addRSS(ctx, tx, nil, "Medal boundaries", text)
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "medal boundaries set", zap.Int("gold", gold), zap.Int("silver", silver), zap.Int("bronze", bronze))
	s.publish(ctx, ChangeEvent{Type: EventBoundariesSet, Text: text})
	return nil
}

// SetRegistrationEnabled opens or closes registration for non-staff
// users.
func (s *Service) SetRegistrationEnabled(ctx context.Context, enabled bool) error {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repos.Events.SetRegistrationEnabled(ctx, nil, enabled); err != nil {
		return dbError("set registration enabled", err)
	}
	logger.Info(ctx, "registration status changed", zap.Bool("enabled", enabled))
	s.publish(ctx, ChangeEvent{Type: EventRegistration})
	return nil
}

// EventStatus is the event-wide state reported to clients.
type EventStatus struct {
	RegistrationEnabled bool  `json:"registration_enabled"`
	GoldBoundary        *int  `json:"gold,omitempty"`
	SilverBoundary      *int  `json:"silver,omitempty"`
	BronzeBoundary      *int  `json:"bronze,omitempty"`
	NumProblems         int   `json:"num_problems"`
	MarksPerProblem     []int `json:"marks_per_problem"`
}

func (s *Service) EventStatus(ctx context.Context) (*EventStatus, error) {
	ev, err := s.getEvent(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &EventStatus{
		RegistrationEnabled: ev.RegistrationEnabled,
		GoldBoundary:        ev.GoldBoundary,
		SilverBoundary:      ev.SilverBoundary,
		BronzeBoundary:      ev.BronzeBoundary,
		NumProblems:         s.event.NumProblems,
		MarksPerProblem:     s.event.MarksPerProblem,
	}, nil
}
