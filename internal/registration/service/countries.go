package service

import (
	"context"
	stderrors "errors"
	"regexp"
	"strings"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"go.uber.org/zap"
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Z]+$`)
	genericSuffix      = regexp.MustCompile(`^[0-9]+/$`)
)

// RegistrationUserSuffix is appended to a country code to name the user
// created for the country's contact.
const RegistrationUserSuffix = "_reg"

// CountryInput holds the editable fields of a country.
type CountryInput struct {
	Code          string
	Name          string
	Official      *bool
	GenericURL    string
	ContactEmails []string
	FlagFileID    *int64
}

// CountryView is a country as returned by the API.
type CountryView struct {
	ID            int64    `json:"id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Official      *bool    `json:"official,omitempty"`
	GenericURL    string   `json:"generic_url,omitempty"`
	FlagURL       string   `json:"flag_url,omitempty"`
	ContactEmails []string `json:"contact_emails,omitempty"`
}

// CountryResult is returned when a country is created. When contact
// emails were given it includes the new registration user and its
// password.
type CountryResult struct {
	Country  *CountryView `json:"country"`
	User     *UserView    `json:"user,omitempty"`
	Password string       `json:"password,omitempty"`
}

// genericURLValid checks a link to a previous participation page of kind
// ("countries/country" or "people/person").
func (s *Service) genericURLValid(kind, url string) bool {
	if url == "" {
		return true
	}
	prefix := s.event.GenericURLBase + kind
	return strings.HasPrefix(url, prefix) && genericSuffix.MatchString(url[len(prefix):])
}

func (s *Service) auditCountry(ctx context.Context, tx db.Transaction, id int64, in *CountryInput) error {
	if in.Code == "" {
		return pkgerrors.Validationf(pkgerrors.CountryInvalid, "code", "Country code must be specified")
	}
	if !countryCodePattern.MatchString(in.Code) {
		return pkgerrors.Validationf(pkgerrors.CountryInvalid, "code", "Country codes must be all capital letters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.Validationf(pkgerrors.CountryInvalid, "name", "Country name must be specified")
	}
	if !s.genericURLValid("countries/country", in.GenericURL) {
		return pkgerrors.Validationf(pkgerrors.InvalidGenericURL, "generic_url", "Invalid previous participation URL")
	}
	for _, email := range in.ContactEmails {
		if !emailPattern.MatchString(email) {
			return pkgerrors.Validationf(pkgerrors.InvalidEmail, "contact_emails", "Email address syntax is invalid")
		}
	}
	if !s.event.DistinguishOfficial {
		in.Official = nil
	} else if in.Official == nil {
		t := true
		in.Official = &t
	}
	existing, err := s.repos.Countries.GetByCode(ctx, tx, in.Code)
	switch {
	case err == nil && existing.ID != id:
		return pkgerrors.Validationf(pkgerrors.CountryCodeExists, "code", "Country code %s already in use", in.Code)
	case err != nil && !stderrors.Is(err, repository.ErrNotFound):
		return dbError("get country", err)
	}
	return nil
}

func (s *Service) countryView(ctx context.Context, tx db.Transaction, c *repository.Country, private bool) *CountryView {
	v := &CountryView{ID: c.ID, Code: c.Code, Name: c.Name, Official: c.Official, GenericURL: c.GenericURL}
	v.FlagURL = s.fileURL(ctx, tx, c.FlagFileID)
	if private {
		v.ContactEmails = c.ContactEmails
	}
	return v
}

func (s *Service) CreateCountry(ctx context.Context, in CountryInput) (*CountryResult, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	var password string
	if len(in.ContactEmails) > 0 {
		var err error
		if password, err = generatePassword(); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
		}
	}
	hash := ""
	if password != "" {
		var err error
		if hash, err = hashPassword(password); err != nil {
			return nil, err
		}
	}
	result := &CountryResult{}
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		if err := s.auditCountry(ctx, tx, 0, &in); err != nil {
			return err
		}
		c := &repository.Country{Code: in.Code, Name: in.Name, Official: in.Official, GenericURL: in.GenericURL,
			ContactEmails: in.ContactEmails, FlagFileID: in.FlagFileID}
		if _, err := s.repos.Countries.Create(ctx, tx, c); err != nil {
			if stderrors.Is(err, repository.ErrCodeExists) {
				return pkgerrors.Validationf(pkgerrors.CountryCodeExists, "code", "Country code %s already in use", in.Code)
			}
			return pkgerrors.Wrap(err, pkgerrors.CountryCreateFailed)
		}
		result.Country = s.countryView(ctx, tx, c, true)
		if hash == "" {
			return nil
		}
		u := &repository.User{
			Username:     c.Code + RegistrationUserSuffix,
			PasswordHash: hash,
			Email:        in.ContactEmails[0],
			CountryID:    c.ID,
			Roles:        []string{auth.RoleUser, auth.RoleRegister},
		}
		if _, err := s.repos.Users.Create(ctx, tx, u); err != nil {
			return mapUserCreateError(err)
		}
		result.User = userView(u)
		result.Password = password
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "country created", zap.String("code", in.Code), zap.Bool("user_created", result.User != nil))
	s.publish(ctx, ChangeEvent{Type: EventRegistration, CountryID: result.Country.ID})
	return result, nil
}

func (s *Service) UpdateCountry(ctx context.Context, id int64, in CountryInput) (*CountryView, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	var view *CountryView
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		c, err := s.getCountry(ctx, tx, id)
		if err != nil {
			return err
		}
		special := c.Code == eventconfig.StaffCountryCode || c.Code == eventconfig.NoneCountryCode
		if special && in.Code != c.Code {
			return pkgerrors.Validationf(pkgerrors.CountryInvalid, "code", "Special country codes cannot be changed")
		}
		if err := s.auditCountry(ctx, tx, id, &in); err != nil {
			return err
		}
		c.Code, c.Name, c.Official, c.GenericURL = in.Code, in.Name, in.Official, in.GenericURL
		c.ContactEmails, c.FlagFileID = in.ContactEmails, in.FlagFileID
		if err := s.repos.Countries.Update(ctx, tx, c); err != nil {
			if stderrors.Is(err, repository.ErrCodeExists) {
				return pkgerrors.Validationf(pkgerrors.CountryCodeExists, "code", "Country code %s already in use", in.Code)
			}
			return pkgerrors.Wrap(err, pkgerrors.CountryUpdateFailed)
		}
		view = s.countryView(ctx, tx, c, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ChangeEvent{Type: EventRegistration, CountryID: id})
	return view, nil
}

// RetireCountry retires a country with its users and people, and removes
// it from the countries guided by anyone.
func (s *Service) RetireCountry(ctx context.Context, id int64) error {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return err
	}
	err := s.withTransaction(ctx, func(tx db.Transaction) error {
		c, err := s.getCountry(ctx, tx, id)
		if err != nil {
			return err
		}
		switch c.Code {
		case eventconfig.NoneCountryCode:
			return pkgerrors.Newf(pkgerrors.CountryNotRetirable, "The special country None cannot be retired")
		case eventconfig.StaffCountryCode:
			return pkgerrors.Newf(pkgerrors.CountryNotRetirable, "The special staff country cannot be retired")
		}
		users, err := s.repos.Users.ListByCountry(ctx, tx, id)
		if err != nil {
			return dbError("list users", err)
		}
		for _, u := range users {
			if err := s.repos.Users.Retire(ctx, tx, u.ID); err != nil {
				return dbError("retire user", err)
			}
		}
		people, err := s.repos.People.List(ctx, tx)
		if err != nil {
			return dbError("list people", err)
		}
		for _, p := range people {
			if p.CountryID == id {
				if err := s.repos.People.Retire(ctx, tx, p.ID); err != nil {
					return dbError("retire person", err)
				}
				continue
			}
			kept := p.GuideFor[:0]
			for _, g := range p.GuideFor {
				if g != id {
					kept = append(kept, g)
				}
			}
			if len(kept) != len(p.GuideFor) {
				p.GuideFor = kept
				if err := s.repos.People.Update(ctx, tx, p); err != nil {
					return dbError("update guide", err)
				}
			}
		}
		if err := s.repos.Countries.Retire(ctx, tx, id); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CountryRetireFailed)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "country retired", zap.Int64("country_id", id))
	s.publish(ctx, ChangeEvent{Type: EventCountryRetired, CountryID: id})
	return nil
}

func (s *Service) getCountry(ctx context.Context, tx db.Transaction, id int64) (*repository.Country, error) {
	c, err := s.repos.Countries.GetByID(ctx, tx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CountryNotFound)
		}
		return nil, dbError("get country", err)
	}
	if c.Retired {
		return nil, pkgerrors.New(pkgerrors.CountryNotFound)
	}
	return c, nil
}

// GetCountry returns a country; contact emails are included for admins
// and for users of that country.
func (s *Service) GetCountry(ctx context.Context, id int64) (*CountryView, error) {
	c, err := s.getCountry(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.countryView(ctx, nil, c, canSeePrivate(ctx, c.ID)), nil
}

// ListCountries returns every country except None.
func (s *Service) ListCountries(ctx context.Context) ([]*CountryView, error) {
	countries, err := s.repos.Countries.List(ctx, nil)
	if err != nil {
		return nil, dbError("list countries", err)
	}
	var out []*CountryView
	for _, c := range countries {
		if c.Code == eventconfig.NoneCountryCode {
			continue
		}
		out = append(out, s.countryView(ctx, nil, c, canSeePrivate(ctx, c.ID)))
	}
	return out, nil
}

func canSeePrivate(ctx context.Context, countryID int64) bool {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return false
	}
	return p.IsAdmin() || p.HasRole(auth.RoleOmnivident) || p.CountryID == countryID
}
