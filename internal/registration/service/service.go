// Package service implements the registration operations: countries,
// people, users, scores, exports and the live scoreboard.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/cache"
	"matholymp/internal/common/db"
	"matholymp/internal/common/storage"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
)

const (
	defaultRoleLockTTL   = 10 * time.Second
	defaultScoreboardTTL = 10 * time.Minute
	defaultCachePrefix   = "matholymp:text"
)

// Config holds tunables of Service; zero values select defaults.
type Config struct {
	RoleLockTTL   time.Duration
	ScoreboardTTL time.Duration
	CachePrefix   string
}

// Deps are the collaborators of Service. Cache, Storage, Events and
// Metrics may be nil.
type Deps struct {
	Provider db.Provider
	Repos    *repository.Repositories
	Cache    cache.Cache
	Storage  storage.ObjectStorage
	Events   EventPublisher
	Metrics  *Metrics
}

// Service implements registration operations for one event.
type Service struct {
	event    *eventconfig.Config
	provider db.Provider
	repos    *repository.Repositories
	cache    cache.Cache
	texts    *cache.TextCache
	storage  storage.ObjectStorage
	events   EventPublisher
	metrics  *Metrics
	config   Config
	now      func() time.Time
	pending  sync.WaitGroup
}

// New creates a Service for the event described by event.
func New(event *eventconfig.Config, deps Deps, cfg Config) *Service {
	if cfg.RoleLockTTL == 0 {
		cfg.RoleLockTTL = defaultRoleLockTTL
	}
	if cfg.ScoreboardTTL == 0 {
		cfg.ScoreboardTTL = defaultScoreboardTTL
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = defaultCachePrefix
	}
	s := &Service{
		event:    event,
		provider: deps.Provider,
		repos:    deps.Repos,
		cache:    deps.Cache,
		storage:  deps.Storage,
		events:   deps.Events,
		metrics:  deps.Metrics,
		config:   cfg,
		now:      time.Now,
	}
	if deps.Cache != nil {
		s.texts = cache.NewTextCache(deps.Cache, cfg.CachePrefix, cfg.ScoreboardTTL)
	}
	return s
}

// EventConfig returns the settings of the event.
func (s *Service) EventConfig() *eventconfig.Config {
	return s.event
}

func (s *Service) withTransaction(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(s.provider)
	if err != nil {
		return fn(nil)
	}
	if err := database.Transaction(ctx, fn); err != nil {
		var e *pkgerrors.Error
		if stderrors.As(err, &e) {
			return e
		}
		return pkgerrors.Wrap(fmt.Errorf("transaction failed: %w", err), pkgerrors.TransactionFailed)
	}
	return nil
}

func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *pkgerrors.Error
	if stderrors.As(err, &e) {
		return e
	}
	return pkgerrors.Wrap(fmt.Errorf("%s: %w", op, err), pkgerrors.DatabaseError)
}

// principal returns the caller recorded by the auth middleware.
func principal(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.Unauthorized)
	}
	return p, nil
}

func requireRole(ctx context.Context, role string) (auth.Principal, error) {
	p, err := principal(ctx)
	if err != nil {
		return p, err
	}
	if !p.HasRole(role) {
		return p, pkgerrors.New(pkgerrors.InsufficientPermission)
	}
	return p, nil
}

// specialCountries resolves the staff and None countries.
type specialCountries struct {
	staff *repository.Country
	none  *repository.Country
}

func (s *Service) specialCountries(ctx context.Context, tx db.Transaction) (specialCountries, error) {
	staff, err := s.repos.Countries.GetByCode(ctx, tx, eventconfig.StaffCountryCode)
	if err != nil {
		return specialCountries{}, dbError("get staff country", err)
	}
	none, err := s.repos.Countries.GetByCode(ctx, tx, eventconfig.NoneCountryCode)
	if err != nil {
		return specialCountries{}, dbError("get none country", err)
	}
	return specialCountries{staff: staff, none: none}, nil
}

func (sc specialCountries) isSpecial(id int64) bool {
	return id == sc.staff.ID || id == sc.none.ID
}

func (s *Service) getEvent(ctx context.Context, tx db.Transaction) (*repository.Event, error) {
	ev, err := s.repos.Events.Get(ctx, tx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.EventConfigInvalid, "registration data not initialised")
		}
		return nil, dbError("get event", err)
	}
	return ev, nil
}
