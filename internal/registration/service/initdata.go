package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/cache"
	"matholymp/internal/common/db"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the user created with the initial data.
const AdminUsername = "admin"

var (
	participantRoles = []string{"Leader", "Deputy Leader", "Observer with Contestants",
		"Observer with Leader", "Observer with Deputy"}
	staffRoles = []string{"Staff", "Jury Chair", "Chief Coordinator", "Coordinator",
		"Chief Guide", "Deputy Chief Guide", "Guide", "Treasurer", "IT", "Transport",
		"Entertainment", "Logistics", "Problem Selection Chair", "Problem Selection",
		"Chief Invigilator", "Invigilator"}
	genders      = []string{"Female", "Male", "Other"}
	tshirtSizes  = []string{"S", "M", "L", "XL", "XXL", "XXXL"}
	guideRole    = "Guide"
	mainRoles    = []string{"Leader", "Deputy Leader"}
	observerRole = "Observer "
)

// InitOptions controls Initialise.
type InitOptions struct {
	// PreviousLanguages are the paper languages of earlier events, used
	// for PREVIOUS in initial_languages; nil when there is no static site.
	PreviousLanguages []string
	AdminPassword     string
	AdminEmail        string
}

// Initialise creates the event row, the special countries, roles, the
// lookup tables and the admin user.
func (s *Service) Initialise(ctx context.Context, opts InitOptions) error {
	langs, err := s.event.InitialLanguageSet(opts.PreviousLanguages)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.EventConfigInvalid)
	}
	if opts.AdminPassword == "" {
		return pkgerrors.ValidationError("admin_password", "Admin password must be specified")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return pkgerrors.Wrap(fmt.Errorf("hash password failed: %w", err), pkgerrors.InternalServerError)
	}
	defer s.invalidateLookups(ctx)
	return s.withTransaction(ctx, func(tx db.Transaction) error {
		if err := s.repos.Events.Init(ctx, tx); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return pkgerrors.Newf(pkgerrors.RecordAlreadyExists, "registration data already initialised")
			}
			return dbError("init event", err)
		}
		var official *bool
		if s.event.DistinguishOfficial {
			f := false
			official = &f
		}
		staff := &repository.Country{Code: eventconfig.StaffCountryCode, Name: s.event.StaffCountryName(), Official: official}
		if _, err := s.repos.Countries.Create(ctx, tx, staff); err != nil {
			return dbError("create staff country", err)
		}
		none := &repository.Country{Code: eventconfig.NoneCountryCode, Name: eventconfig.NoneCountryName, Official: official}
		if _, err := s.repos.Countries.Create(ctx, tx, none); err != nil {
			return dbError("create none country", err)
		}

		var roles []*repository.Role
		for _, name := range s.event.ContestantRoles() {
			roles = append(roles, &repository.Role{Name: name})
		}
		for _, name := range participantRoles {
			roles = append(roles, &repository.Role{Name: name})
		}
		for _, name := range staffRoles {
			roles = append(roles, &repository.Role{Name: name, IsAdmin: true})
		}
		for _, name := range s.event.ExtraAdminRolesSecondaryOK {
			roles = append(roles, &repository.Role{Name: name, IsAdmin: true, SecondaryOK: true})
		}
		for _, role := range roles {
			if _, err := s.repos.Lookups.CreateRole(ctx, tx, role); err != nil {
				return dbError("create role "+role.Name, err)
			}
		}

		tables := []struct {
			kind  repository.LookupKind
			names []string
		}{
			{repository.LookupGenders, genders},
			{repository.LookupTShirts, tshirtSizes},
			{repository.LookupLanguages, langs},
		}
		for _, t := range tables {
			for i, name := range t.names {
				if _, err := s.repos.Lookups.AddName(ctx, tx, t.kind, name, i+1); err != nil {
					return dbError(fmt.Sprintf("add %s %s", t.kind, name), err)
				}
			}
		}

		admin := &repository.User{
			Username:     AdminUsername,
			PasswordHash: string(hash),
			Email:        opts.AdminEmail,
			CountryID:    staff.ID,
			Roles:        []string{auth.RoleAdmin},
		}
		if _, err := s.repos.Users.Create(ctx, tx, admin); err != nil {
			return dbError("create admin user", err)
		}
		return nil
	})
}

// AddArrivalPoint registers a place where participants may arrive.
func (s *Service) AddArrivalPoint(ctx context.Context, name string) error {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	if name == "" {
		return pkgerrors.ValidationError("name", "Arrival point must be specified")
	}
	existing, err := s.repos.Lookups.ListNames(ctx, nil, repository.LookupArrivals)
	if err != nil {
		return dbError("list arrivals", err)
	}
	if _, err := s.repos.Lookups.AddName(ctx, nil, repository.LookupArrivals, name, len(existing)+1); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return pkgerrors.Newf(pkgerrors.RecordAlreadyExists, "Arrival point %s already exists", name)
		}
		return dbError("add arrival", err)
	}
	s.invalidateLookups(ctx)
	return nil
}

// Lookups lists the choices offered for person fields.
type Lookups struct {
	Roles     []*repository.Role `json:"roles"`
	Genders   []string           `json:"genders"`
	TShirts   []string           `json:"tshirts"`
	Languages []string           `json:"languages"`
	Arrivals  []string           `json:"arrivals"`
}

const (
	lookupsTTL      = 30 * time.Minute
	lookupsEmptyTTL = time.Minute
)

func (s *Service) lookupsKey() string {
	return s.config.CachePrefix + ":lookups"
}

// Lookups is read through the cache; the tables only change on
// initialisation and when arrival points are added.
func (s *Service) Lookups(ctx context.Context) (*Lookups, error) {
	if s.cache == nil {
		return s.loadLookups(ctx)
	}
	return cache.GetWithCached(ctx, s.cache, s.lookupsKey(), cache.JitterTTL(lookupsTTL), lookupsEmptyTTL,
		func(l *Lookups) bool { return l == nil },
		func(l *Lookups) string {
			b, _ := json.Marshal(l)
			return string(b)
		},
		func(v string) (*Lookups, error) {
			var l Lookups
			if err := json.Unmarshal([]byte(v), &l); err != nil {
				return nil, err
			}
			return &l, nil
		},
		s.loadLookups)
}

func (s *Service) invalidateLookups(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.lookupsKey()); err != nil {
		logger.Warn(ctx, "invalidate lookups failed", zap.Error(err))
	}
}

func (s *Service) loadLookups(ctx context.Context) (*Lookups, error) {
	out := &Lookups{}
	var err error
	if out.Roles, err = s.repos.Lookups.ListRoles(ctx, nil); err != nil {
		return nil, dbError("list roles", err)
	}
	lists := []struct {
		kind repository.LookupKind
		dst  *[]string
	}{
		{repository.LookupGenders, &out.Genders},
		{repository.LookupTShirts, &out.TShirts},
		{repository.LookupLanguages, &out.Languages},
		{repository.LookupArrivals, &out.Arrivals},
	}
	for _, l := range lists {
		if *l.dst, err = s.repos.Lookups.ListNames(ctx, nil, l.kind); err != nil {
			return nil, dbError("list "+string(l.kind), err)
		}
	}
	return out, nil
}
