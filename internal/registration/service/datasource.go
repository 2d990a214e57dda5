package service

import (
	"context"
	stderrors "errors"
	"strconv"
	"strings"

	"matholymp/internal/common/db"
	"matholymp/internal/olympiad"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
)

// genericID extracts N from a ".../<kind>N/" previous participation URL.
func (s *Service) genericID(kind, url string) *int {
	if url == "" || !s.genericURLValid(kind, url) {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(url[len(s.event.GenericURLBase+kind):], "/"))
	if err != nil {
		return nil
	}
	return &n
}

// parseScores decodes a stored score list into np entries; nil entries
// are scores not yet entered.
func parseScores(stored string, np int) ([]*int, error) {
	out := make([]*int, np)
	if stored == "" {
		return out, nil
	}
	for i, v := range strings.Split(stored, ",") {
		if v == "" {
			continue
		}
		if i >= np {
			return nil, pkgerrors.Validationf(pkgerrors.ScoresInvalid, "scores", "Number of problems reduced after scores entered")
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, pkgerrors.Newf(pkgerrors.ScoresInvalid, "invalid stored score %q", v)
		}
		out[i] = &n
	}
	return out, nil
}

func formatScores(scores []*int) string {
	parts := make([]string, len(scores))
	for i, v := range scores {
		if v != nil {
			parts[i] = strconv.Itoa(*v)
		}
	}
	return strings.Join(parts, ",")
}

// snapshot is the registration data read in one pass.
type snapshot struct {
	event     *repository.Event
	special   specialCountries
	countries []*repository.Country
	people    []*repository.Person
	files     map[int64]string
}

func (s *Service) loadSnapshot(ctx context.Context, tx db.Transaction) (*snapshot, error) {
	ev, err := s.getEvent(ctx, tx)
	if err != nil {
		return nil, err
	}
	sc, err := s.specialCountries(ctx, tx)
	if err != nil {
		return nil, err
	}
	countries, err := s.repos.Countries.List(ctx, tx)
	if err != nil {
		return nil, dbError("list countries", err)
	}
	people, err := s.repos.People.List(ctx, tx)
	if err != nil {
		return nil, dbError("list people", err)
	}
	snap := &snapshot{event: ev, special: sc, countries: countries, people: people, files: make(map[int64]string)}
	addFile := func(id *int64) {
		if id != nil {
			if _, ok := snap.files[*id]; !ok {
				snap.files[*id] = s.fileURL(ctx, tx, id)
			}
		}
	}
	for _, c := range countries {
		addFile(c.FlagFileID)
	}
	for _, p := range people {
		addFile(p.PhotoFileID)
		addFile(p.ConsentFormFileID)
	}
	return snap, nil
}

func (snap *snapshot) fileURL(id *int64) string {
	if id == nil {
		return ""
	}
	return snap.files[*id]
}

// buildEventGroup turns a snapshot into the olympiad model of the
// current event. The None country and its people are left out.
func (s *Service) buildEventGroup(snap *snapshot) (*olympiad.EventGroup, error) {
	cfg := s.event
	np := cfg.NumProblems
	eventID := cfg.EventNumber
	b := olympiad.NewBuilder(cfg.GroupConfig())
	ed := olympiad.EventData{
		ID:                 eventID,
		Year:               cfg.Year,
		NumProblems:        &np,
		MarksPerProblem:    cfg.MarksPerProblem,
		RegistrationActive: snap.event.RegistrationEnabled,
		GoldBoundary:       snap.event.GoldBoundary,
		SilverBoundary:     snap.event.SilverBoundary,
		BronzeBoundary:     snap.event.BronzeBoundary,
	}
	if err := b.AddEvent(ed); err != nil {
		return nil, err
	}
	for _, c := range snap.countries {
		if c.ID == snap.special.none.ID {
			continue
		}
		cd := olympiad.CountryEventData{
			CountryID:     int(c.ID),
			EventID:       eventID,
			AnnualURL:     cfg.TrackerURL + "country" + strconv.FormatInt(c.ID, 10),
			Code:          c.Code,
			Name:          c.Name,
			FlagURL:       snap.fileURL(c.FlagFileID),
			IsOfficial:    c.Official,
			IsNormal:      c.ID != snap.special.staff.ID,
			GenericID:     s.genericID("countries/country", c.GenericURL),
			ContactEmails: c.ContactEmails,
		}
		if err := b.AddCountryEvent(cd); err != nil {
			return nil, err
		}
	}
	for _, p := range snap.people {
		if p.CountryID == snap.special.none.ID {
			continue
		}
		pd, err := s.personEventData(snap, p)
		if err != nil {
			return nil, err
		}
		if err := b.AddPersonEvent(*pd); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func (s *Service) personEventData(snap *snapshot, p *repository.Person) (*olympiad.PersonEventData, error) {
	cfg := s.event
	pd := &olympiad.PersonEventData{
		PersonID:           int(p.ID),
		EventID:            cfg.EventNumber,
		CountryID:          int(p.CountryID),
		AnnualURL:          cfg.TrackerURL + "person" + strconv.FormatInt(p.ID, 10),
		PrimaryRole:        p.PrimaryRole,
		OtherRoles:         p.OtherRoles,
		GivenName:          p.GivenName,
		FamilyName:         p.FamilyName,
		ExtraAwards:        p.ExtraAwards,
		PhotoURL:           snap.fileURL(p.PhotoFileID),
		GenericID:          s.genericID("people/person", p.GenericURL),
		Gender:             p.Gender,
		DateOfBirth:        p.DateOfBirth,
		Languages:          p.Languages,
		Diet:               p.Diet,
		TShirt:             p.TShirt,
		ArrivalPlace:       p.ArrivalPlace,
		ArrivalDate:        p.ArrivalDate,
		ArrivalTime:        p.ArrivalTime,
		ArrivalFlight:      p.ArrivalFlight,
		DeparturePlace:     p.DeparturePlace,
		DepartureDate:      p.DepartureDate,
		DepartureTime:      p.DepartureTime,
		DepartureFlight:    p.DepartureFlight,
		RoomNumber:         p.RoomNumber,
		PhoneNumber:        p.PhoneNumber,
		BadgePhotoURL:      snap.fileURL(p.PhotoFileID),
		ConsentFormURL:     snap.fileURL(p.ConsentFormFileID),
		PassportNumber:     p.PassportNumber,
		Nationality:        p.Nationality,
		EventPhotosConsent: p.EventPhotosConsent,
	}
	for _, id := range p.GuideFor {
		if id == snap.special.none.ID {
			continue
		}
		pd.GuideForIDs = append(pd.GuideForIDs, int(id))
	}
	if isContestantRole(p.PrimaryRole) {
		scores, err := parseScores(p.Scores, cfg.NumProblems)
		if err != nil {
			return nil, err
		}
		pd.ProblemScores = scores
		if p.DateOfBirth != nil {
			age := cfg.ContestantAge(*p.DateOfBirth)
			pd.ContestantAge = &age
		}
	}
	return pd, nil
}

// EventGroup returns the current registration data as the olympiad
// model used by exports and the scoreboard.
func (s *Service) EventGroup(ctx context.Context) (*olympiad.EventGroup, error) {
	snap, err := s.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	g, err := s.buildEventGroup(snap)
	if err != nil {
		var e *pkgerrors.Error
		if stderrors.As(err, &e) {
			return nil, e
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
	}
	return g, nil
}

func currentEvent(g *olympiad.EventGroup, cfg *eventconfig.Config) *olympiad.Event {
	return g.EventMap[cfg.EventNumber]
}
