package service

import (
	"context"
	"slices"
	"strings"

	"matholymp/internal/common/auth"
	"matholymp/internal/registration/repository"
)

// StatusCountry identifies a country in the status report.
type StatusCountry struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type StatusPerson struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Role    string        `json:"role"`
	Country StatusCountry `json:"country"`
	Missing []string      `json:"missing,omitempty"`
}

// MissingRoles lists main roles not yet registered for a country.
type MissingRoles struct {
	Country StatusCountry `json:"country"`
	Roles   []string      `json:"roles"`
}

// StatusReport summarises what remains to be done before the event.
type StatusReport struct {
	NoParticipants      []StatusCountry `json:"no_participants"`
	MissingRoles        []MissingRoles  `json:"missing_roles"`
	MissingDetails      []StatusPerson  `json:"missing_details"`
	NoGuide             []StatusCountry `json:"no_guide"`
	StaffMissingDetails []StatusPerson  `json:"staff_missing_details"`
	NeedRooms           []StatusPerson  `json:"need_rooms"`
	NoFlag              []StatusCountry `json:"no_flag"`
}

func statusCountry(c *repository.Country) StatusCountry {
	return StatusCountry{ID: c.ID, Code: c.Code, Name: c.Name}
}

// missingDetails names the details still to be entered for p.
func missingDetails(p *repository.Person) []string {
	var missing []string
	if p.PhotoFileID == nil {
		missing = append(missing, "photo")
	}
	travel := p.ArrivalPlace != "" && p.ArrivalTime != nil && p.DeparturePlace != "" && p.DepartureTime != nil
	if travel && strings.Contains(p.ArrivalPlace, "Airport") && p.ArrivalFlight == "" {
		travel = false
	}
	if travel && strings.Contains(p.DeparturePlace, "Airport") && p.DepartureFlight == "" {
		travel = false
	}
	if !travel {
		missing = append(missing, "travel details")
	}
	if p.PrimaryRole == guideRole && p.PhoneNumber == "" {
		missing = append(missing, "phone number")
	}
	return missing
}

// RegistrationStatus reports missing registrations and details.
func (s *Service) RegistrationStatus(ctx context.Context) (*StatusReport, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	countries := make([]*repository.Country, 0, len(snap.countries))
	for _, c := range snap.countries {
		if c.ID != snap.special.none.ID {
			countries = append(countries, c)
		}
	}
	slices.SortFunc(countries, func(a, b *repository.Country) int { return strings.Compare(a.Code, b.Code) })

	byCountry := make(map[int64][]*repository.Person)
	guided := make(map[int64]bool)
	for _, p := range snap.people {
		byCountry[p.CountryID] = append(byCountry[p.CountryID], p)
		for _, c := range p.GuideFor {
			guided[c] = true
		}
	}
	required := append(slices.Clone(mainRoles), s.event.ContestantRoles()...)

	r := &StatusReport{
		NoParticipants:      []StatusCountry{},
		MissingRoles:        []MissingRoles{},
		MissingDetails:      []StatusPerson{},
		NoGuide:             []StatusCountry{},
		StaffMissingDetails: []StatusPerson{},
		NeedRooms:           []StatusPerson{},
		NoFlag:              []StatusCountry{},
	}
	person := func(c *repository.Country, p *repository.Person, missing []string) StatusPerson {
		return StatusPerson{ID: p.ID, Name: p.GivenName + " " + p.FamilyName, Role: p.PrimaryRole, Country: statusCountry(c), Missing: missing}
	}
	for _, c := range countries {
		people := byCountry[c.ID]
		staff := c.ID == snap.special.staff.ID
		if !staff {
			if len(people) == 0 {
				r.NoParticipants = append(r.NoParticipants, statusCountry(c))
			} else {
				var missing []string
				for _, role := range required {
					if !slices.ContainsFunc(people, func(p *repository.Person) bool { return p.PrimaryRole == role }) {
						missing = append(missing, role)
					}
				}
				if len(missing) > 0 {
					r.MissingRoles = append(r.MissingRoles, MissingRoles{Country: statusCountry(c), Roles: missing})
				}
			}
			if !guided[c.ID] {
				r.NoGuide = append(r.NoGuide, statusCountry(c))
			}
			if c.FlagFileID == nil {
				r.NoFlag = append(r.NoFlag, statusCountry(c))
			}
		}
		for _, p := range people {
			if missing := missingDetails(p); len(missing) > 0 {
				if staff {
					r.StaffMissingDetails = append(r.StaffMissingDetails, person(c, p, missing))
				} else {
					r.MissingDetails = append(r.MissingDetails, person(c, p, missing))
				}
			}
			if p.RoomNumber == "" {
				r.NeedRooms = append(r.NeedRooms, person(c, p, nil))
			}
		}
	}
	return r, nil
}
