package service

import (
	"context"
	stderrors "errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/datetimeutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"go.uber.org/zap"
)

// PersonInput holds the editable fields of a person.
type PersonInput struct {
	CountryID   int64
	GivenName   string
	FamilyName  string
	Gender      string
	PrimaryRole string
	OtherRoles  []string
	GuideFor    []int64
	Languages   []string
	DateOfBirth *time.Time
	Diet        string
	TShirt      string

	ArrivalPlace    string
	ArrivalDate     *time.Time
	ArrivalTime     *datetimeutil.TimeOfDay
	ArrivalFlight   string
	DeparturePlace  string
	DepartureDate   *time.Time
	DepartureTime   *datetimeutil.TimeOfDay
	DepartureFlight string

	RoomNumber         string
	PhoneNumber        string
	PassportNumber     string
	Nationality        string
	EventPhotosConsent *bool
	GenericURL         string
	ExtraAwards        []string
	PhotoFileID        *int64
	ConsentFormFileID  *int64
}

// PersonView is a person as returned by the API. Private details are
// only filled in for callers allowed to see them.
type PersonView struct {
	ID             int64    `json:"id"`
	CountryID      int64    `json:"country_id"`
	GivenName      string   `json:"given_name"`
	FamilyName     string   `json:"family_name"`
	PrimaryRole    string   `json:"primary_role"`
	OtherRoles     []string `json:"other_roles,omitempty"`
	GuideFor       []int64  `json:"guide_for,omitempty"`
	ContestantCode string   `json:"contestant_code,omitempty"`
	GenericURL     string   `json:"generic_url,omitempty"`
	PhotoURL       string   `json:"photo_url,omitempty"`

	Private *PersonPrivate `json:"private,omitempty"`
}

type PersonPrivate struct {
	Gender             string   `json:"gender"`
	DateOfBirth        string   `json:"date_of_birth,omitempty"`
	Languages          []string `json:"languages"`
	Diet               string   `json:"diet,omitempty"`
	TShirt             string   `json:"tshirt"`
	ArrivalPlace       string   `json:"arrival_place,omitempty"`
	ArrivalDate        string   `json:"arrival_date,omitempty"`
	ArrivalTime        string   `json:"arrival_time,omitempty"`
	ArrivalFlight      string   `json:"arrival_flight,omitempty"`
	DeparturePlace     string   `json:"departure_place,omitempty"`
	DepartureDate      string   `json:"departure_date,omitempty"`
	DepartureTime      string   `json:"departure_time,omitempty"`
	DepartureFlight    string   `json:"departure_flight,omitempty"`
	RoomNumber         string   `json:"room_number,omitempty"`
	PhoneNumber        string   `json:"phone_number,omitempty"`
	PassportNumber     string   `json:"passport_number,omitempty"`
	Nationality        string   `json:"nationality,omitempty"`
	EventPhotosConsent *bool    `json:"event_photos_consent,omitempty"`
	ConsentFormURL     string   `json:"consent_form_url,omitempty"`
	Scores             []string `json:"scores,omitempty"`
}

func personInvalid(field, msg string) error {
	return pkgerrors.Validationf(pkgerrors.PersonInvalid, field, "%s", msg)
}

func isContestantRole(role string) bool {
	return strings.HasPrefix(role, olympiad.ContestantRolePrefix)
}

func (s *Service) blankScores() string {
	return strings.Repeat(",", s.event.NumProblems-1)
}

// auditPerson checks in for a new person (old nil) or an update of old.
func (s *Service) auditPerson(ctx context.Context, tx db.Transaction, p auth.Principal, old *repository.Person, in *PersonInput) error {
	sc, err := s.specialCountries(ctx, tx)
	if err != nil {
		return err
	}
	if in.CountryID == 0 {
		return personInvalid("country", "No country specified")
	}
	if p.CountryID != sc.none.ID && p.CountryID != sc.staff.ID {
		if in.CountryID != p.CountryID || (old != nil && old.CountryID != p.CountryID) {
			return pkgerrors.Validationf(pkgerrors.CountryAccessDenied, "country", "Person must be from your country")
		}
	}
	if p.CountryID != sc.staff.ID {
		ev, err := s.getEvent(ctx, tx)
		if err != nil {
			return err
		}
		if !ev.RegistrationEnabled {
			return pkgerrors.Validationf(pkgerrors.RegistrationDisabled, "registration",
				"Registration is now disabled, please contact the event organisers to change details of registered participants")
		}
	}

	required := []struct{ field, value, msg string }{
		{"given_name", in.GivenName, "No given name specified"},
		{"family_name", in.FamilyName, "No family name specified"},
		{"gender", in.Gender, "No gender specified"},
		{"primary_role", in.PrimaryRole, "No primary role specified"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return personInvalid(r.field, r.msg)
		}
	}
	if len(in.Languages) == 0 || in.Languages[0] == "" {
		return personInvalid("languages", "No first language specified")
	}
	if in.TShirt == "" {
		return personInvalid("tshirt", "No T-shirt size specified")
	}
	if err := s.auditChoices(ctx, tx, in); err != nil {
		return err
	}

	contestant := isContestantRole(in.PrimaryRole)
	if s.event.RequireContestantsFemale && contestant && in.Gender != "Female" {
		return personInvalid("gender", "Contestants must be female")
	}
	if err := s.auditDateOfBirth(in, contestant); err != nil {
		return err
	}
	if s.event.RequireNationality && in.Nationality == "" {
		return personInvalid("nationality", "No nationality specified")
	}
	if s.event.RequirePassportNumber && in.PassportNumber == "" {
		return personInvalid("passport_number", "No passport number specified")
	}
	if s.event.RequireDiet && in.Diet == "" {
		return personInvalid("diet", "No dietary requirements specified")
	}
	if s.event.ConsentUI && in.EventPhotosConsent == nil {
		return personInvalid("event_photos_consent", "No choice of consent for photos specified")
	}
	if err := s.auditTravel(in); err != nil {
		return err
	}
	if !s.genericURLValid("people/person", in.GenericURL) {
		return pkgerrors.Validationf(pkgerrors.InvalidGenericURL, "generic_url", "Invalid previous participation URL")
	}

	if in.CountryID == sc.none.ID {
		return personInvalid("country", "Invalid country")
	}
	if _, err := s.getCountry(ctx, tx, in.CountryID); err != nil {
		if pkgerrors.Is(err, pkgerrors.CountryNotFound) {
			return personInvalid("country", "Invalid country")
		}
		return err
	}
	if err := s.auditRoles(ctx, tx, sc, old, in); err != nil {
		return err
	}

	for _, c := range in.GuideFor {
		if in.PrimaryRole != guideRole {
			return personInvalid("guide_for", "People with this role may not guide a country")
		}
		if sc.isSpecial(c) {
			return personInvalid("guide_for", "May only guide normal countries")
		}
		if _, err := s.getCountry(ctx, tx, c); err != nil {
			if pkgerrors.Is(err, pkgerrors.CountryNotFound) {
				return personInvalid("guide_for", "May only guide normal countries")
			}
			return err
		}
	}
	if in.PhoneNumber != "" && in.PrimaryRole != guideRole {
		return personInvalid("phone_number", "Phone numbers may only be entered for Guides")
	}
	return nil
}

func (s *Service) auditChoices(ctx context.Context, tx db.Transaction, in *PersonInput) error {
	if len(in.Languages) > s.event.NumLanguages {
		return personInvalid("languages", "Too many languages specified")
	}
	checks := []struct {
		kind   repository.LookupKind
		field  string
		values []string
		msg    string
	}{
		{repository.LookupGenders, "gender", []string{in.Gender}, "Invalid gender"},
		{repository.LookupTShirts, "tshirt", []string{in.TShirt}, "Invalid T-shirt size"},
		{repository.LookupLanguages, "languages", in.Languages, "Invalid language"},
	}
	if in.ArrivalPlace != "" {
		checks = append(checks, struct {
			kind   repository.LookupKind
			field  string
			values []string
			msg    string
		}{repository.LookupArrivals, "arrival_place", []string{in.ArrivalPlace}, "Invalid arrival point"})
	}
	if in.DeparturePlace != "" {
		checks = append(checks, struct {
			kind   repository.LookupKind
			field  string
			values []string
			msg    string
		}{repository.LookupArrivals, "departure_place", []string{in.DeparturePlace}, "Invalid departure point"})
	}
	for _, c := range checks {
		names, err := s.repos.Lookups.ListNames(ctx, tx, c.kind)
		if err != nil {
			return dbError("list "+string(c.kind), err)
		}
		for _, v := range c.values {
			if !slices.Contains(names, v) {
				return personInvalid(c.field, c.msg)
			}
		}
	}
	return nil
}

func (s *Service) auditDateOfBirth(in *PersonInput, contestant bool) error {
	dob := in.DateOfBirth
	if dob == nil {
		if contestant || s.event.RequireDateOfBirth {
			return personInvalid("date_of_birth", "No date of birth specified")
		}
		return nil
	}
	if contestant {
		if dob.Before(s.event.EarliestDateOfBirth) {
			return personInvalid("date_of_birth", "Contestant too old")
		}
		if !dob.Before(s.event.SanityDateOfBirth) {
			return personInvalid("date_of_birth", "Contestant implausibly young")
		}
		return nil
	}
	if dob.Before(eventconfig.EarliestParticipantDateOfBirth) {
		return personInvalid("date_of_birth", "Participant implausibly old")
	}
	if dob.After(s.event.AgeDayDate) {
		return personInvalid("date_of_birth", "Participant implausibly young")
	}
	return nil
}

func combine(d *time.Time, t *datetimeutil.TimeOfDay) time.Time {
	out := *d
	if t != nil {
		out = out.Add(time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute)
	}
	return out
}

func (s *Service) auditTravel(in *PersonInput) error {
	if d := in.ArrivalDate; d != nil {
		if d.Before(s.event.EarliestArrivalDate) {
			return personInvalid("arrival_date", "Arrival date too early")
		}
		if d.After(s.event.LatestArrivalDate) {
			return personInvalid("arrival_date", "Arrival date too late")
		}
	}
	if d := in.DepartureDate; d != nil {
		if d.Before(s.event.EarliestDepartureDate) {
			return personInvalid("departure_date", "Departure date too early")
		}
		if d.After(s.event.LatestDepartureDate) {
			return personInvalid("departure_date", "Departure date too late")
		}
	}
	if in.ArrivalDate != nil && in.DepartureDate != nil &&
		combine(in.DepartureDate, in.DepartureTime).Before(combine(in.ArrivalDate, in.ArrivalTime)) {
		return personInvalid("departure_time", "Departure time before arrival time")
	}
	return nil
}

func (s *Service) auditRoles(ctx context.Context, tx db.Transaction, sc specialCountries, old *repository.Person, in *PersonInput) error {
	primary, err := s.repos.Lookups.GetRole(ctx, tx, in.PrimaryRole)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return personInvalid("primary_role", "Invalid role")
		}
		return dbError("get role", err)
	}
	others := make([]*repository.Role, 0, len(in.OtherRoles))
	for _, name := range in.OtherRoles {
		role, err := s.repos.Lookups.GetRole(ctx, tx, name)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return personInvalid("other_roles", "Invalid role")
			}
			return dbError("get role", err)
		}
		others = append(others, role)
	}
	if in.CountryID == sc.staff.ID {
		if !primary.IsAdmin {
			return personInvalid("primary_role", "Staff must have administrative roles")
		}
		for _, r := range others {
			if !r.IsAdmin {
				return personInvalid("other_roles", "Staff must have administrative roles")
			}
		}
		return nil
	}
	if primary.IsAdmin {
		return personInvalid("primary_role", "Invalid role for participant")
	}
	for _, r := range others {
		if !r.SecondaryOK {
			return personInvalid("other_roles", "Non-staff may not have secondary roles")
		}
	}
	if strings.HasPrefix(in.PrimaryRole, observerRole) {
		return nil
	}
	people, err := s.repos.People.ListByCountry(ctx, tx, in.CountryID)
	if err != nil {
		return dbError("list people", err)
	}
	for _, other := range people {
		if other.PrimaryRole == in.PrimaryRole && (old == nil || other.ID != old.ID) {
			return pkgerrors.Validationf(pkgerrors.RoleAlreadyFilled, "primary_role", "A person with this role already exists")
		}
	}
	return nil
}

// lockRole serializes registrations of one role in one country across
// instances; the database check alone races between check and insert.
func (s *Service) lockRole(ctx context.Context, countryID int64, role string) (func(), error) {
	if s.cache == nil || strings.HasPrefix(role, observerRole) {
		return func() {}, nil
	}
	key := "lock:role:" + strconv.FormatInt(countryID, 10) + ":" + role
	ok, err := s.cache.TryLock(ctx, key, s.config.RoleLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.LockFailed)
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.LockFailed).WithMessage("Another registration for this role is in progress")
	}
	return func() {
		if err := s.cache.Unlock(context.WithoutCancel(ctx), key); err != nil {
			logger.Warn(ctx, "release role lock failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func applyPersonInput(dst *repository.Person, in *PersonInput) {
	dst.CountryID = in.CountryID
	dst.GivenName, dst.FamilyName = in.GivenName, in.FamilyName
	dst.Gender, dst.PrimaryRole = in.Gender, in.PrimaryRole
	dst.OtherRoles, dst.GuideFor, dst.Languages = in.OtherRoles, in.GuideFor, in.Languages
	dst.DateOfBirth, dst.Diet, dst.TShirt = in.DateOfBirth, in.Diet, in.TShirt
	dst.ArrivalPlace, dst.ArrivalDate, dst.ArrivalTime, dst.ArrivalFlight =
		in.ArrivalPlace, in.ArrivalDate, in.ArrivalTime, in.ArrivalFlight
	dst.DeparturePlace, dst.DepartureDate, dst.DepartureTime, dst.DepartureFlight =
		in.DeparturePlace, in.DepartureDate, in.DepartureTime, in.DepartureFlight
	dst.RoomNumber, dst.PhoneNumber = in.RoomNumber, in.PhoneNumber
	dst.PassportNumber, dst.Nationality = in.PassportNumber, in.Nationality
	dst.EventPhotosConsent, dst.GenericURL, dst.ExtraAwards = in.EventPhotosConsent, in.GenericURL, in.ExtraAwards
	dst.PhotoFileID, dst.ConsentFormFileID = in.PhotoFileID, in.ConsentFormFileID
}

func (s *Service) CreatePerson(ctx context.Context, in PersonInput) (*PersonView, error) {
	p, err := requireRole(ctx, auth.RoleRegister)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockRole(ctx, in.CountryID, in.PrimaryRole)
	if err != nil {
		return nil, err
	}
	defer unlock()

	person := &repository.Person{Scores: s.blankScores()}
	applyPersonInput(person, &in)
	var view *PersonView
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		if err := s.auditPerson(ctx, tx, p, nil, &in); err != nil {
			return err
		}
		id, err := s.repos.People.Create(ctx, tx, person)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.PersonCreateFailed)
		}
		person.ID = id
		view = s.personView(ctx, tx, person, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "person registered", zap.Int64("person_id", person.ID), zap.String("role", person.PrimaryRole))
	s.publish(ctx, ChangeEvent{Type: EventRegistration, CountryID: person.CountryID})
	return view, nil
}

func (s *Service) UpdatePerson(ctx context.Context, id int64, in PersonInput) (*PersonView, error) {
	p, err := requireRole(ctx, auth.RoleRegister)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockRole(ctx, in.CountryID, in.PrimaryRole)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var view *PersonView
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		old, err := s.getPerson(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.auditPerson(ctx, tx, p, old, &in); err != nil {
			return err
		}
		updated := *old
		applyPersonInput(&updated, &in)
		if err := s.repos.People.Update(ctx, tx, &updated); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.PersonUpdateFailed)
		}
		view = s.personView(ctx, tx, &updated, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ChangeEvent{Type: EventRegistration, CountryID: in.CountryID})
	return view, nil
}

// RetirePerson removes a person; registering users may only retire
// people of their own country while registration is enabled.
func (s *Service) RetirePerson(ctx context.Context, id int64) error {
	p, err := requireRole(ctx, auth.RoleRegister)
	if err != nil {
		return err
	}
	var countryID int64
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		person, err := s.getPerson(ctx, tx, id)
		if err != nil {
			return err
		}
		countryID = person.CountryID
		if !p.IsAdmin() {
			sc, err := s.specialCountries(ctx, tx)
			if err != nil {
				return err
			}
			if p.CountryID != sc.staff.ID && p.CountryID != person.CountryID {
				return pkgerrors.Validationf(pkgerrors.CountryAccessDenied, "country", "Person must be from your country")
			}
			ev, err := s.getEvent(ctx, tx)
			if err != nil {
				return err
			}
			if p.CountryID != sc.staff.ID && !ev.RegistrationEnabled {
				return pkgerrors.Validationf(pkgerrors.RegistrationDisabled, "registration",
					"Registration is now disabled, please contact the event organisers to change details of registered participants")
			}
		}
		if err := s.repos.People.Retire(ctx, tx, id); err != nil {
			return dbError("retire person", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, ChangeEvent{Type: EventRegistration, CountryID: countryID})
	return nil
}

func (s *Service) getPerson(ctx context.Context, tx db.Transaction, id int64) (*repository.Person, error) {
	person, err := s.repos.People.GetByID(ctx, tx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.PersonNotFound)
		}
		return nil, dbError("get person", err)
	}
	if person.Retired {
		return nil, pkgerrors.New(pkgerrors.PersonNotFound)
	}
	return person, nil
}

func (s *Service) GetPerson(ctx context.Context, id int64) (*PersonView, error) {
	person, err := s.getPerson(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.personView(ctx, nil, person, canSeePrivate(ctx, person.CountryID)), nil
}

// ListPeople returns the people of countryID, or everyone when it is 0.
func (s *Service) ListPeople(ctx context.Context, countryID int64) ([]*PersonView, error) {
	var people []*repository.Person
	var err error
	if countryID == 0 {
		people, err = s.repos.People.List(ctx, nil)
	} else {
		people, err = s.repos.People.ListByCountry(ctx, nil, countryID)
	}
	if err != nil {
		return nil, dbError("list people", err)
	}
	out := make([]*PersonView, 0, len(people))
	for _, person := range people {
		out = append(out, s.personView(ctx, nil, person, canSeePrivate(ctx, person.CountryID)))
	}
	return out, nil
}

func (s *Service) personView(ctx context.Context, tx db.Transaction, p *repository.Person, private bool) *PersonView {
	v := &PersonView{
		ID:          p.ID,
		CountryID:   p.CountryID,
		GivenName:   p.GivenName,
		FamilyName:  p.FamilyName,
		PrimaryRole: p.PrimaryRole,
		OtherRoles:  p.OtherRoles,
		GuideFor:    p.GuideFor,
		GenericURL:  p.GenericURL,
		PhotoURL:    s.fileURL(ctx, tx, p.PhotoFileID),
	}
	if isContestantRole(p.PrimaryRole) {
		if c, err := s.repos.Countries.GetByID(ctx, tx, p.CountryID); err == nil {
			v.ContestantCode = c.Code + strings.TrimPrefix(p.PrimaryRole, olympiad.ContestantRolePrefix)
		}
	}
	if !private {
		return v
	}
	v.Private = &PersonPrivate{
		Gender:             p.Gender,
		DateOfBirth:        datetimeutil.DateToYMDISO(p.DateOfBirth),
		Languages:          p.Languages,
		Diet:               p.Diet,
		TShirt:             p.TShirt,
		ArrivalPlace:       p.ArrivalPlace,
		ArrivalDate:        datetimeutil.DateToYMDISO(p.ArrivalDate),
		ArrivalTime:        datetimeutil.TimeToHHMM(p.ArrivalTime),
		ArrivalFlight:      p.ArrivalFlight,
		DeparturePlace:     p.DeparturePlace,
		DepartureDate:      datetimeutil.DateToYMDISO(p.DepartureDate),
		DepartureTime:      datetimeutil.TimeToHHMM(p.DepartureTime),
		DepartureFlight:    p.DepartureFlight,
		RoomNumber:         p.RoomNumber,
		PhoneNumber:        p.PhoneNumber,
		PassportNumber:     p.PassportNumber,
		Nationality:        p.Nationality,
		EventPhotosConsent: p.EventPhotosConsent,
		ConsentFormURL:     s.fileURL(ctx, tx, p.ConsentFormFileID),
	}
	if isContestantRole(p.PrimaryRole) {
		v.Private.Scores = strings.Split(p.Scores, ",")
	}
	return v
}
