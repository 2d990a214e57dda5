// Package csvsource builds an olympiad.EventGroup from the CSV files kept
// in the data directory of a static site.
package csvsource

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

// Options controls how the CSV columns are interpreted.
type Options struct {
	Group             olympiad.GroupConfig
	NumKey            string
	OfficialDesc      string
	EventActiveNumber *int
}

// Files names the four input files.
type Files struct {
	Events    string
	Papers    string
	Countries string
	People    string
}

// DataFiles returns the input files of a static site rooted at topDir.
func DataFiles(topDir, shortNameURLPlural string) Files {
	data := filepath.Join(topDir, "data")
	return Files{
		Events:    filepath.Join(data, shortNameURLPlural+".csv"),
		Papers:    filepath.Join(data, "papers.csv"),
		Countries: filepath.Join(data, "countries.csv"),
		People:    filepath.Join(data, "people.csv"),
	}
}

// LoadFiles reads the files and builds the group. An empty Events or
// Papers path is treated as no rows.
func LoadFiles(f Files, opts Options, extraEvents ...fileutil.Row) (*olympiad.EventGroup, error) {
	read := func(path string) ([]fileutil.Row, error) {
		if path == "" {
			return nil, nil
		}
		return fileutil.ReadUTF8CSV(path)
	}
	events, err := read(f.Events)
	if err != nil {
		return nil, err
	}
	events = append(events, extraEvents...)
	papers, err := read(f.Papers)
	if err != nil {
		return nil, err
	}
	countries, err := read(f.Countries)
	if err != nil {
		return nil, err
	}
	people, err := read(f.People)
	if err != nil {
		return nil, err
	}
	return Build(opts, events, papers, countries, people)
}

// SingleEvent describes the one event used when generating documents
// directly from registration data, where there is no events file.
type SingleEvent struct {
	ID              int
	Year            string
	NumExams        int
	NumProblems     int
	MarksPerProblem []int
	GoldBoundary    *int
	SilverBoundary  *int
	BronzeBoundary  *int
}

// Row renders the event as a row of the events file.
func (s SingleEvent) Row() fileutil.Row {
	r := fileutil.Row{
		olympiad.ColNumber:         strconv.Itoa(s.ID),
		olympiad.ColYear:           s.Year,
		olympiad.ColNumExams:       strconv.Itoa(s.NumExams),
		olympiad.ColNumProblems:    strconv.Itoa(s.NumProblems),
		olympiad.ColGoldBoundary:   optionalInt(s.GoldBoundary),
		olympiad.ColSilverBoundary: optionalInt(s.SilverBoundary),
		olympiad.ColBronzeBoundary: optionalInt(s.BronzeBoundary),
	}
	for i := 0; i < s.NumProblems && i < len(s.MarksPerProblem); i++ {
		r[olympiad.ProblemMaxColumn(i+1)] = strconv.Itoa(s.MarksPerProblem[i])
	}
	return r
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// Build converts the rows of the four files into an EventGroup.
func Build(opts Options, events, papers, countries, people []fileutil.Row) (*olympiad.EventGroup, error) {
	b := olympiad.NewBuilder(opts.Group)
	numProblems := make(map[int]int)

	for _, row := range events {
		e, err := parseEvent(row, opts)
		if err != nil {
			return nil, err
		}
		if e.NumProblems != nil {
			numProblems[e.ID] = *e.NumProblems
		}
		if err := b.AddEvent(e); err != nil {
			return nil, err
		}
	}

	for _, row := range papers {
		eid, err := requiredInt(row, opts.NumKey)
		if err != nil {
			return nil, fmt.Errorf("papers: %w", err)
		}
		day, err := requiredInt(row, olympiad.ColDay)
		if err != nil {
			return nil, fmt.Errorf("papers: %w", err)
		}
		p := olympiad.Paper{
			Day:         day,
			Language:    row[olympiad.ColLanguage],
			Description: row[olympiad.ColDescription],
			URL:         row[olympiad.ColURL],
		}
		if err := b.AddPaper(eid, p); err != nil {
			return nil, err
		}
	}

	// Guide For names refer to countries at the same event.
	countryNames := make(map[int]map[string][]int)
	for _, row := range countries {
		c, err := parseCountry(row, opts)
		if err != nil {
			return nil, err
		}
		if countryNames[c.EventID] == nil {
			countryNames[c.EventID] = make(map[string][]int)
		}
		countryNames[c.EventID][c.Name] = append(countryNames[c.EventID][c.Name], c.CountryID)
		if err := b.AddCountryEvent(c); err != nil {
			return nil, err
		}
	}

	for _, row := range people {
		p, err := parsePerson(row, opts, numProblems, countryNames)
		if err != nil {
			return nil, err
		}
		if err := b.AddPersonEvent(p); err != nil {
			return nil, err
		}
	}

	return b.Build()
}

func parseEvent(row fileutil.Row, opts Options) (olympiad.EventData, error) {
	var e olympiad.EventData
	id, err := requiredInt(row, olympiad.ColNumber)
	if err != nil {
		return e, fmt.Errorf("events: %w", err)
	}
	e.ID = id
	wrap := func(err error) error { return fmt.Errorf("event %d: %w", id, err) }

	e.Year = row[olympiad.ColYear]
	e.HostCountryName = row[olympiad.ColCountry]
	e.HostCountryNameIn = row[olympiad.ColCountryNameIn]
	e.HostCity = row[olympiad.ColCity]
	e.HomePageURL = row[olympiad.ColHomePageURL]
	e.ContactName = row[olympiad.ColContactName]
	e.ContactEmail = row[olympiad.ColContactEmail]
	if e.HostCountryID, err = optionalIntCol(row, olympiad.ColCountryNumber); err != nil {
		return e, wrap(err)
	}
	if e.StartDate, err = optionalDate(row, olympiad.ColStartDate); err != nil {
		return e, wrap(err)
	}
	if e.EndDate, err = optionalDate(row, olympiad.ColEndDate); err != nil {
		return e, wrap(err)
	}
	if e.NumExams, err = optionalIntCol(row, olympiad.ColNumExams); err != nil {
		return e, wrap(err)
	}
	if e.NumProblems, err = optionalIntCol(row, olympiad.ColNumProblems); err != nil {
		return e, wrap(err)
	}
	if e.NumProblems != nil {
		for n := 1; n <= *e.NumProblems; n++ {
			m, err := requiredInt(row, olympiad.ProblemMaxColumn(n))
			if err != nil {
				return e, wrap(err)
			}
			e.MarksPerProblem = append(e.MarksPerProblem, m)
		}
	}
	if e.GoldBoundary, err = optionalIntCol(row, olympiad.ColGoldBoundary); err != nil {
		return e, wrap(err)
	}
	if e.SilverBoundary, err = optionalIntCol(row, olympiad.ColSilverBoundary); err != nil {
		return e, wrap(err)
	}
	if e.BronzeBoundary, err = optionalIntCol(row, olympiad.ColBronzeBoundary); err != nil {
		return e, wrap(err)
	}
	if e.HonourableMentionsAvailableOverride, err = optionalYesNo(row, olympiad.ColHMAvailable); err != nil {
		return e, wrap(err)
	}
	if e.DistinguishOfficialOverride, err = optionalYesNo(row, olympiad.ColDistinguishOff); err != nil {
		return e, wrap(err)
	}
	if s := row[olympiad.ColAgeDayDesc]; s != "" {
		e.AgeDayDescOverride = &s
	}
	e.RegistrationActive = opts.EventActiveNumber != nil && *opts.EventActiveNumber == id
	return e, nil
}

func parseCountry(row fileutil.Row, opts Options) (olympiad.CountryEventData, error) {
	var c olympiad.CountryEventData
	eid, err := requiredInt(row, opts.NumKey)
	if err != nil {
		return c, fmt.Errorf("countries: %w", err)
	}
	cid, err := requiredInt(row, olympiad.ColCountryNumber)
	if err != nil {
		return c, fmt.Errorf("countries: event %d: %w", eid, err)
	}
	wrap := func(err error) error { return fmt.Errorf("event %d country %d: %w", eid, cid, err) }
	c.EventID, c.CountryID = eid, cid
	c.AnnualURL = row[olympiad.ColAnnualURL]
	c.Code = row[olympiad.ColCode]
	c.Name = row[olympiad.ColName]
	c.FlagURL = row[olympiad.ColFlagURL]
	if c.GenericID, err = optionalIntCol(row, olympiad.ColGenericNumber); err != nil {
		return c, wrap(err)
	}
	if opts.OfficialDesc != "" {
		if c.IsOfficial, err = optionalYesNo(row, opts.OfficialDesc); err != nil {
			return c, wrap(err)
		}
	}
	normal, err := optionalYesNo(row, olympiad.ColNormal)
	if err != nil {
		return c, wrap(err)
	}
	c.IsNormal = normal == nil || *normal
	if c.ContactEmails, err = fileutil.CommaSplit(row[olympiad.ColContactEmails]); err != nil {
		return c, wrap(err)
	}
	return c, nil
}

var problemColumnPattern = regexp.MustCompile(`^P([0-9]+)$`)

func parsePerson(row fileutil.Row, opts Options, numProblems map[int]int, countryNames map[int]map[string][]int) (olympiad.PersonEventData, error) {
	var p olympiad.PersonEventData
	eid, err := requiredInt(row, opts.NumKey)
	if err != nil {
		return p, fmt.Errorf("people: %w", err)
	}
	pid, err := requiredInt(row, olympiad.ColPersonNumber)
	if err != nil {
		return p, fmt.Errorf("people: event %d: %w", eid, err)
	}
	wrap := func(err error) error { return fmt.Errorf("event %d person %d: %w", eid, pid, err) }
	p.EventID, p.PersonID = eid, pid
	if p.CountryID, err = requiredInt(row, olympiad.ColCountryNumber); err != nil {
		return p, wrap(err)
	}
	p.AnnualURL = row[olympiad.ColAnnualURL]
	p.PrimaryRole = row[olympiad.ColPrimaryRole]
	p.GivenName = row[olympiad.ColGivenName]
	p.FamilyName = row[olympiad.ColFamilyName]
	p.PhotoURL = row[olympiad.ColPhotoURL]
	if p.OtherRoles, err = fileutil.CommaSplit(row[olympiad.ColOtherRoles]); err != nil {
		return p, wrap(err)
	}
	if p.ExtraAwards, err = fileutil.CommaSplit(row[olympiad.ColExtraAwards]); err != nil {
		return p, wrap(err)
	}
	guideFor, err := fileutil.CommaSplit(row[olympiad.ColGuideFor])
	if err != nil {
		return p, wrap(err)
	}
	for _, name := range guideFor {
		ids := countryNames[eid][name]
		if len(ids) != 1 {
			return p, wrap(fmt.Errorf("bad number of countries called %s", name))
		}
		p.GuideForIDs = append(p.GuideForIDs, ids[0])
	}
	if p.ContestantAge, err = optionalIntCol(row, olympiad.ColContestantAge); err != nil {
		return p, wrap(err)
	}
	if p.GenericID, err = optionalIntCol(row, olympiad.ColGenericNumber); err != nil {
		return p, wrap(err)
	}

	np := numProblems[eid]
	for key, v := range row {
		m := problemColumnPattern.FindStringSubmatch(key)
		if m == nil || v == "" {
			continue
		}
		if n, _ := strconv.Atoi(m[1]); n > np || n < 1 {
			return p, wrap(fmt.Errorf("score for nonexistent problem %s", key))
		}
	}
	if strings.HasPrefix(p.PrimaryRole, olympiad.ContestantRolePrefix) {
		p.ProblemScores = make([]*int, np)
		for n := 1; n <= np; n++ {
			if p.ProblemScores[n-1], err = optionalIntCol(row, olympiad.ProblemColumn(n)); err != nil {
				return p, wrap(err)
			}
		}
		if p.ExpectedTotal, err = optionalIntCol(row, olympiad.ColTotal); err != nil {
			return p, wrap(err)
		}
		if award, ok := row[olympiad.ColAward]; ok {
			p.ExpectedAward = &award
		}
	}

	if err := parsePrivate(row, &p); err != nil {
		return p, wrap(err)
	}
	return p, nil
}

func parsePrivate(row fileutil.Row, p *olympiad.PersonEventData) error {
	var err error
	p.Gender = row[olympiad.ColGender]
	p.Diet = row[olympiad.ColDiet]
	p.TShirt = row[olympiad.ColTShirt]
	p.ArrivalPlace = row[olympiad.ColArrivalPlace]
	p.ArrivalFlight = row[olympiad.ColArrivalFlight]
	p.DeparturePlace = row[olympiad.ColDeparturePlace]
	p.DepartureFlight = row[olympiad.ColDepartureFlight]
	p.RoomNumber = row[olympiad.ColRoomNumber]
	p.PhoneNumber = row[olympiad.ColPhoneNumber]
	p.BadgePhotoURL = row[olympiad.ColBadgePhotoURL]
	p.ConsentFormURL = row[olympiad.ColConsentFormURL]
	p.PassportNumber = row[olympiad.ColPassportNumber]
	p.Nationality = row[olympiad.ColNationality]
	if p.Languages, err = fileutil.CommaSplit(row[olympiad.ColLanguages]); err != nil {
		return err
	}
	if p.DateOfBirth, err = optionalDate(row, olympiad.ColDateOfBirth); err != nil {
		return err
	}
	if p.ArrivalDate, err = optionalDate(row, olympiad.ColArrivalDate); err != nil {
		return err
	}
	if p.DepartureDate, err = optionalDate(row, olympiad.ColDepartureDate); err != nil {
		return err
	}
	if p.ArrivalTime, err = optionalTime(row, olympiad.ColArrivalTime); err != nil {
		return err
	}
	if p.DepartureTime, err = optionalTime(row, olympiad.ColDepartureTime); err != nil {
		return err
	}
	if p.EventPhotosConsent, err = optionalYesNo(row, olympiad.ColEventPhotosConsent); err != nil {
		return err
	}
	return nil
}

func requiredInt(row fileutil.Row, key string) (int, error) {
	s, ok := row[key]
	if !ok || s == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return v, nil
}

func optionalIntCol(row fileutil.Row, key string) (*int, error) {
	s := row[key]
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &v, nil
}

func optionalYesNo(row fileutil.Row, key string) (*bool, error) {
	switch s := row[key]; s {
	case "":
		return nil, nil
	case "Yes":
		v := true
		return &v, nil
	case "No":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("unexpected %s setting %q", key, s)
	}
}

func optionalDate(row fileutil.Row, key string) (*time.Time, error) {
	s := row[key]
	if s == "" {
		return nil, nil
	}
	t, err := datetimeutil.DateFromYMDISO(key, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalTime(row fileutil.Row, key string) (*datetimeutil.TimeOfDay, error) {
	s := row[key]
	if s == "" {
		return nil, nil
	}
	t, err := datetimeutil.TimeFromHHMMISO(key, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
