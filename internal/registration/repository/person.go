package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"matholymp/internal/common/db"
	"matholymp/internal/datetimeutil"
)

type PersonRepository interface {
	Create(ctx context.Context, tx db.Transaction, p *Person) (int64, error)
	Update(ctx context.Context, tx db.Transaction, p *Person) error
	Retire(ctx context.Context, tx db.Transaction, id int64) error
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*Person, error)
	// List returns the people who are not retired, ordered by id.
	List(ctx context.Context, tx db.Transaction) ([]*Person, error)
	ListByCountry(ctx context.Context, tx db.Transaction, countryID int64) ([]*Person, error)
	SetScores(ctx context.Context, tx db.Transaction, id int64, scores string) error
}

type SQLPersonRepository struct {
	dbProvider db.Provider
	now        func() time.Time
}

func NewPersonRepository(provider db.Provider) PersonRepository {
	return &SQLPersonRepository{dbProvider: provider, now: time.Now}
}

const personColumns = "id, country_id, given_name, family_name, gender, primary_role, other_roles, guide_for, " +
	"languages, date_of_birth, diet, tshirt, arrival_place, arrival_date, arrival_time, arrival_flight, " +
	"departure_place, departure_date, departure_time, departure_flight, room_number, phone_number, " +
	"passport_number, nationality, event_photos_consent, generic_url, extra_awards, scores, photo_file_id, " +
	"consent_form_file_id, retired, created_at"

// personValues returns the stored form of every column after id, in the
// order of personColumns, excluding retired and created_at.
func personValues(p *Person) []interface{} {
	return []interface{}{
		p.CountryID, p.GivenName, p.FamilyName, p.Gender, p.PrimaryRole,
		joinList(p.OtherRoles), joinIDs(p.GuideFor), joinList(p.Languages),
		dateText(p.DateOfBirth), p.Diet, p.TShirt,
		p.ArrivalPlace, dateText(p.ArrivalDate), datetimeutil.TimeToHHMM(p.ArrivalTime), p.ArrivalFlight,
		p.DeparturePlace, dateText(p.DepartureDate), datetimeutil.TimeToHHMM(p.DepartureTime), p.DepartureFlight,
		p.RoomNumber, p.PhoneNumber, p.PassportNumber, p.Nationality, nullBool(p.EventPhotosConsent),
		p.GenericURL, joinList(p.ExtraAwards), p.Scores, nullID(p.PhotoFileID), nullID(p.ConsentFormFileID),
	}
}

func (r *SQLPersonRepository) Create(ctx context.Context, tx db.Transaction, p *Person) (int64, error) {
	if p == nil {
		return 0, errors.New("person is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	p.CreatedAt = r.now().UTC().Truncate(time.Second)
	query := "INSERT INTO people (country_id, given_name, family_name, gender, primary_role, other_roles, guide_for, " +
		"languages, date_of_birth, diet, tshirt, arrival_place, arrival_date, arrival_time, arrival_flight, " +
		"departure_place, departure_date, departure_time, departure_flight, room_number, phone_number, " +
		"passport_number, nationality, event_photos_consent, generic_url, extra_awards, scores, photo_file_id, " +
		"consent_form_file_id, retired, created_at) VALUES (" +
		"?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	args := append(personValues(p), 0, p.CreatedAt.Unix())
	id, err := db.Insert(ctx, querier, query, args...)
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (r *SQLPersonRepository) Update(ctx context.Context, tx db.Transaction, p *Person) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := "UPDATE people SET country_id = ?, given_name = ?, family_name = ?, gender = ?, primary_role = ?, " +
		"other_roles = ?, guide_for = ?, languages = ?, date_of_birth = ?, diet = ?, tshirt = ?, " +
		"arrival_place = ?, arrival_date = ?, arrival_time = ?, arrival_flight = ?, departure_place = ?, " +
		"departure_date = ?, departure_time = ?, departure_flight = ?, room_number = ?, phone_number = ?, " +
		"passport_number = ?, nationality = ?, event_photos_consent = ?, generic_url = ?, extra_awards = ?, " +
		"scores = ?, photo_file_id = ?, consent_form_file_id = ? WHERE id = ? AND retired = 0"
	args := append(personValues(p), p.ID)
	_, err = querier.Exec(ctx, query, args...)
	return err
}

func (r *SQLPersonRepository) Retire(ctx context.Context, tx db.Transaction, id int64) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	result, err := querier.Exec(ctx, "UPDATE people SET retired = 1 WHERE id = ? AND retired = 0", id)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (r *SQLPersonRepository) SetScores(ctx context.Context, tx db.Transaction, id int64, scores string) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	_, err = querier.Exec(ctx, "UPDATE people SET scores = ? WHERE id = ?", scores, id)
	return err
}

func (r *SQLPersonRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*Person, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	p, err := scanPerson(querier.QueryRow(ctx, "SELECT "+personColumns+" FROM people WHERE id = ?", id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLPersonRepository) List(ctx context.Context, tx db.Transaction) ([]*Person, error) {
	return r.list(ctx, tx, "SELECT "+personColumns+" FROM people WHERE retired = 0 ORDER BY id")
}

func (r *SQLPersonRepository) ListByCountry(ctx context.Context, tx db.Transaction, countryID int64) ([]*Person, error) {
	return r.list(ctx, tx, "SELECT "+personColumns+" FROM people WHERE retired = 0 AND country_id = ? ORDER BY id", countryID)
}

func (r *SQLPersonRepository) list(ctx context.Context, tx db.Transaction, query string, args ...interface{}) ([]*Person, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPerson(row db.Row) (*Person, error) {
	var (
		p                                   Person
		otherRoles, guideFor, langs, awards string
		dob, arrDate, arrTime, depDate      string
		depTime                             string
		consent, photo, consentForm         sql.NullInt64
		retired                             int
		created                             int64
	)
	err := row.Scan(&p.ID, &p.CountryID, &p.GivenName, &p.FamilyName, &p.Gender, &p.PrimaryRole,
		&otherRoles, &guideFor, &langs, &dob, &p.Diet, &p.TShirt,
		&p.ArrivalPlace, &arrDate, &arrTime, &p.ArrivalFlight,
		&p.DeparturePlace, &depDate, &depTime, &p.DepartureFlight,
		&p.RoomNumber, &p.PhoneNumber, &p.PassportNumber, &p.Nationality, &consent,
		&p.GenericURL, &awards, &p.Scores, &photo, &consentForm, &retired, &created)
	if err != nil {
		return nil, err
	}
	if p.OtherRoles, err = splitList(otherRoles); err != nil {
		return nil, fmt.Errorf("person %d: other_roles: %w", p.ID, err)
	}
	if p.GuideFor, err = splitIDs(guideFor); err != nil {
		return nil, fmt.Errorf("person %d: guide_for: %w", p.ID, err)
	}
	if p.Languages, err = splitList(langs); err != nil {
		return nil, fmt.Errorf("person %d: languages: %w", p.ID, err)
	}
	if p.ExtraAwards, err = splitList(awards); err != nil {
		return nil, fmt.Errorf("person %d: extra_awards: %w", p.ID, err)
	}
	if p.DateOfBirth, err = parseDate("date_of_birth", dob); err != nil {
		return nil, err
	}
	if p.ArrivalDate, err = parseDate("arrival_date", arrDate); err != nil {
		return nil, err
	}
	if p.DepartureDate, err = parseDate("departure_date", depDate); err != nil {
		return nil, err
	}
	if p.ArrivalTime, err = parseTime("arrival_time", arrTime); err != nil {
		return nil, err
	}
	if p.DepartureTime, err = parseTime("departure_time", depTime); err != nil {
		return nil, err
	}
	p.EventPhotosConsent = boolPtr(consent)
	p.PhotoFileID = idPtr(photo)
	p.ConsentFormFileID = idPtr(consentForm)
	p.Retired = retired != 0
	p.CreatedAt = unixTime(created)
	return &p, nil
}
