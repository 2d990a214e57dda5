package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/db"
	"matholymp/internal/common/storage"
	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"
	"matholymp/pkg/utils/logger"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// Columns accepted only by bulk registration.
const (
	bulkColPhoto       = "Photo"
	bulkColOfficial    = "Official"
	bulkColContactMail = "Contact Email"
)

var (
	bulkPersonListCols = []string{olympiad.ColOtherRoles, olympiad.ColGuideFor, olympiad.ColLanguages}
	zipRefPattern      = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// BulkInput is one submission of a bulk registration. A first, checking
// submission carries CSV (and optionally ZIP); the confirming submission
// carries back CSVContents and ZIPRef from the check result.
type BulkInput struct {
	CSV         []byte
	CSVContents string
	Delimiter   string
	ZIP         []byte
	ZIPRef      string
}

// BulkEntry describes one row of a bulk registration.
type BulkEntry struct {
	Row     int    `json:"row"`
	Summary string `json:"summary"`
	ID      int64  `json:"id,omitempty"`
}

// BulkResult reports a checked or committed bulk registration.
type BulkResult struct {
	Committed   bool             `json:"committed"`
	CSVContents string           `json:"csv_contents"`
	ZIPRef      string           `json:"zip_ref,omitempty"`
	Entries     []BulkEntry      `json:"entries"`
	Countries   []*CountryResult `json:"countries,omitempty"`
}

func bulkInvalid(format string, args ...interface{}) error {
	return pkgerrors.Validationf(pkgerrors.BulkRegisterInvalid, "csv", format, args...)
}

func bulkDelimiter(d string) rune {
	if d == ";" {
		return ';'
	}
	return ','
}

// bulkRows decodes the CSV of in. Fields are trimmed and empty ones
// dropped; listCols are split into lists whose entries must be unique.
func bulkRows(in *BulkInput, listCols []string) ([]fileutil.Row, []map[string][]string, []byte, bool, error) {
	var (
		data   []byte
		commit bool
	)
	switch {
	case len(in.CSV) > 0:
		data = in.CSV
	case in.CSVContents != "":
		decoded, err := base64.StdEncoding.Strict().DecodeString(in.CSVContents)
		if err != nil {
			return nil, nil, nil, false, bulkInvalid("%s", err.Error())
		}
		data, commit = decoded, true
	default:
		return nil, nil, nil, false, bulkInvalid("no CSV file uploaded")
	}
	rows, err := fileutil.ReadUTF8CSVBytes(data, bulkDelimiter(in.Delimiter))
	if err != nil {
		return nil, nil, nil, false, bulkInvalid("%s", err.Error())
	}
	lists := make([]map[string][]string, len(rows))
	for i, row := range rows {
		lists[i] = make(map[string][]string)
		for key, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				delete(row, key)
				continue
			}
			row[key] = v
			if !containsString(listCols, key) {
				continue
			}
			parts, err := fileutil.CommaSplit(v)
			if err != nil {
				return nil, nil, nil, false, bulkInvalid("%s", err.Error())
			}
			seen := make(map[string]bool, len(parts))
			for j := range parts {
				parts[j] = strings.TrimSpace(parts[j])
				if seen[parts[j]] {
					return nil, nil, nil, false, bulkInvalid("duplicate entries in %s", key)
				}
				seen[parts[j]] = true
			}
			lists[i][key] = parts
		}
	}
	return rows, lists, data, commit, nil
}

// errorMessage is the user-facing text of err.
func errorMessage(err error) string {
	var e *pkgerrors.Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// bulkZIP opens the archive of in, stashing a new upload in object
// storage under its SHA-256 so the confirming submission can refer to
// it. It returns nil when no archive was given.
func (s *Service) bulkZIP(ctx context.Context, in *BulkInput) (*zip.Reader, string, error) {
	var data []byte
	var ref string
	switch {
	case len(in.ZIP) > 0:
		sum := sha256.Sum256(in.ZIP)
		ref = hex.EncodeToString(sum[:])
		data = in.ZIP
		if s.storage == nil {
			return nil, "", pkgerrors.Newf(pkgerrors.StorageError, "file storage not configured")
		}
		key := "bulk/" + ref
		if _, err := s.storage.StatObject(ctx, key); err != nil {
			if !stderrors.Is(err, storage.ErrObjectNotFound) {
				return nil, "", pkgerrors.Wrap(err, pkgerrors.StorageError)
			}
			if err := s.storage.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), "application/zip"); err != nil {
				return nil, "", pkgerrors.Wrap(err, pkgerrors.StorageError)
			}
		}
	case in.ZIPRef != "":
		ref = in.ZIPRef
		if !zipRefPattern.MatchString(ref) {
			return nil, "", bulkInvalid("zip_ref not a valid hash")
		}
		if s.storage == nil {
			return nil, "", pkgerrors.Newf(pkgerrors.StorageError, "file storage not configured")
		}
		var err error
		data, _, err = storage.ReadAll(ctx, s.storage, "bulk/"+ref)
		if err != nil {
			if stderrors.Is(err, storage.ErrObjectNotFound) {
				return nil, "", bulkInvalid("zip_ref not a known hash")
			}
			return nil, "", pkgerrors.Wrap(err, pkgerrors.StorageError)
		}
	default:
		return nil, "", nil
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", bulkInvalid("%s", err.Error())
	}
	return zr, ref, nil
}

func zipMember(zr *zip.Reader, name string) *zip.File {
	if zr == nil {
		return nil
	}
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (s *Service) genericFromNumber(kind, number string) (string, error) {
	if number == "" {
		return "", nil
	}
	if n, err := strconv.Atoi(number); err != nil || n < 1 || strconv.Itoa(n) != number {
		return "", fmt.Errorf("invalid number %q", number)
	}
	return s.event.GenericURLBase + kind + number + "/", nil
}

func contactEmails(row fileutil.Row) []string {
	first := row[bulkColContactMail+" 1"]
	if first == "" {
		return nil
	}
	out := []string{first}
	for n := 2; ; n++ {
		v, ok := row[bulkColContactMail+" "+strconv.Itoa(n)]
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func (s *Service) bulkCountryInput(row fileutil.Row) (*CountryInput, error) {
	in := &CountryInput{
		Code:          row[olympiad.ColCode],
		Name:          row[olympiad.ColName],
		ContactEmails: contactEmails(row),
	}
	url, err := s.genericFromNumber("countries/country", row[olympiad.ColCountryNumber])
	if err != nil {
		return nil, err
	}
	in.GenericURL = url
	if v, ok := row[bulkColOfficial]; ok {
		b, err := fileutil.ParseBool(v)
		if err != nil {
			return nil, err
		}
		in.Official = &b
	}
	return in, nil
}

// BulkRegisterCountries checks, and on the confirming submission
// creates, the countries listed in a CSV file.
func (s *Service) BulkRegisterCountries(ctx context.Context, in BulkInput) (*BulkResult, error) {
	if _, err := requireRole(ctx, auth.RoleAdmin); err != nil {
		return nil, err
	}
	rows, _, data, commit, err := bulkRows(&in, nil)
	if err != nil {
		return nil, err
	}
	inputs := make([]*CountryInput, len(rows))
	codes := make(map[string]bool)
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		for i, row := range rows {
			ci, err := s.bulkCountryInput(row)
			if err != nil {
				return bulkInvalid("row %d: %s", i+1, err.Error())
			}
			if err := s.auditCountry(ctx, tx, 0, ci); err != nil {
				return bulkInvalid("row %d: %s", i+1, errorMessage(err))
			}
			if codes[ci.Code] {
				return bulkInvalid("row %d: Country code %s already in use", i+1, ci.Code)
			}
			codes[ci.Code] = true
			inputs[i] = ci
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Committed: commit, CSVContents: base64.StdEncoding.EncodeToString(data), Entries: []BulkEntry{}}
	for i, ci := range inputs {
		entry := BulkEntry{Row: i + 1, Summary: ci.Name + " (" + ci.Code + ")"}
		if commit {
			cr, err := s.CreateCountry(ctx, *ci)
			if err != nil {
				return result, err
			}
			entry.ID = cr.Country.ID
			result.Countries = append(result.Countries, cr)
		}
		result.Entries = append(result.Entries, entry)
	}
	if commit {
		logger.Info(ctx, "bulk registered countries", zap.Int("count", len(inputs)))
	}
	return result, nil
}

type bulkPerson struct {
	input PersonInput
	photo *zip.File
}

func optDate(row fileutil.Row, col string) (*time.Time, error) {
	v, ok := row[col]
	if !ok {
		return nil, nil
	}
	t, err := datetimeutil.DateFromYMDISO(col, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optTime(row fileutil.Row, col string) (*datetimeutil.TimeOfDay, error) {
	v, ok := row[col]
	if !ok {
		return nil, nil
	}
	t, err := datetimeutil.TimeFromHHMMISO(col, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) bulkPersonInput(ctx context.Context, tx db.Transaction, p auth.Principal, row fileutil.Row, lists map[string][]string, zr *zip.Reader) (*bulkPerson, error) {
	countryID := p.CountryID
	if code, ok := row[olympiad.ColCountryCode]; ok {
		c, err := s.repos.Countries.GetByCode(ctx, tx, code)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, stderrors.New("Invalid country")
			}
			return nil, err
		}
		countryID = c.ID
	}
	in := PersonInput{
		CountryID:       countryID,
		GivenName:       row[olympiad.ColGivenName],
		FamilyName:      row[olympiad.ColFamilyName],
		Gender:          row[olympiad.ColGender],
		PrimaryRole:     row[olympiad.ColPrimaryRole],
		OtherRoles:      lists[olympiad.ColOtherRoles],
		Languages:       lists[olympiad.ColLanguages],
		Diet:            row[olympiad.ColDiet],
		TShirt:          row[olympiad.ColTShirt],
		ArrivalPlace:    row[olympiad.ColArrivalPlace],
		ArrivalFlight:   row[olympiad.ColArrivalFlight],
		DeparturePlace:  row[olympiad.ColDeparturePlace],
		DepartureFlight: row[olympiad.ColDepartureFlight],
		RoomNumber:      row[olympiad.ColRoomNumber],
		PhoneNumber:     row[olympiad.ColPhoneNumber],
		PassportNumber:  row[olympiad.ColPassportNumber],
		Nationality:     row[olympiad.ColNationality],
	}
	for _, code := range lists[olympiad.ColGuideFor] {
		c, err := s.repos.Countries.GetByCode(ctx, tx, code)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, stderrors.New("May only guide normal countries")
			}
			return nil, err
		}
		in.GuideFor = append(in.GuideFor, c.ID)
	}
	var err error
	if in.DateOfBirth, err = optDate(row, olympiad.ColDateOfBirth); err != nil {
		return nil, err
	}
	if in.ArrivalDate, err = optDate(row, olympiad.ColArrivalDate); err != nil {
		return nil, err
	}
	if in.DepartureDate, err = optDate(row, olympiad.ColDepartureDate); err != nil {
		return nil, err
	}
	if in.ArrivalTime, err = optTime(row, olympiad.ColArrivalTime); err != nil {
		return nil, err
	}
	if in.DepartureTime, err = optTime(row, olympiad.ColDepartureTime); err != nil {
		return nil, err
	}
	if v, ok := row[olympiad.ColEventPhotosConsent]; ok {
		b, err := fileutil.ParseBool(v)
		if err != nil {
			return nil, err
		}
		in.EventPhotosConsent = &b
	}
	if in.GenericURL, err = s.genericFromNumber("people/person", row[olympiad.ColPersonNumber]); err != nil {
		return nil, err
	}
	bp := &bulkPerson{input: in}
	if name, ok := row[bulkColPhoto]; ok {
		if bp.photo = zipMember(zr, name); bp.photo == nil {
			return nil, fmt.Errorf("%s not found in ZIP file", name)
		}
	}
	return bp, nil
}

// BulkRegisterPeople checks, and on the confirming submission creates,
// the people listed in a CSV file, with photos taken from an optional
// ZIP archive.
func (s *Service) BulkRegisterPeople(ctx context.Context, in BulkInput) (*BulkResult, error) {
	p, err := requireRole(ctx, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	rows, lists, data, commit, err := bulkRows(&in, bulkPersonListCols)
	if err != nil {
		return nil, err
	}
	zr, ref, err := s.bulkZIP(ctx, &in)
	if err != nil {
		return nil, err
	}
	people := make([]*bulkPerson, len(rows))
	roles := make(map[string]bool)
	err = s.withTransaction(ctx, func(tx db.Transaction) error {
		for i, row := range rows {
			bp, err := s.bulkPersonInput(ctx, tx, p, row, lists[i], zr)
			if err != nil {
				return bulkInvalid("row %d: %s", i+1, err.Error())
			}
			if err := s.auditPerson(ctx, tx, p, nil, &bp.input); err != nil {
				return bulkInvalid("row %d: %s", i+1, errorMessage(err))
			}
			key := strconv.FormatInt(bp.input.CountryID, 10) + ":" + bp.input.PrimaryRole
			if !strings.HasPrefix(bp.input.PrimaryRole, observerRole) && roles[key] {
				return bulkInvalid("row %d: A person with this role already exists", i+1)
			}
			roles[key] = true
			people[i] = bp
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &BulkResult{Committed: commit, CSVContents: base64.StdEncoding.EncodeToString(data), ZIPRef: ref, Entries: []BulkEntry{}}
	for i, bp := range people {
		entry := BulkEntry{Row: i + 1, Summary: bp.input.GivenName + " " + bp.input.FamilyName + " (" + bp.input.PrimaryRole + ")"}
		if commit {
			if bp.photo != nil {
				id, err := s.uploadZIPMember(ctx, bp.photo)
				if err != nil {
					return result, err
				}
				bp.input.PhotoFileID = &id
			}
			view, err := s.CreatePerson(ctx, bp.input)
			if err != nil {
				return result, err
			}
			entry.ID = view.ID
		}
		result.Entries = append(result.Entries, entry)
	}
	if commit {
		logger.Info(ctx, "bulk registered people", zap.Int("count", len(people)))
	}
	return result, nil
}

func (s *Service) uploadZIPMember(ctx context.Context, f *zip.File) (int64, error) {
	r, err := f.Open()
	if err != nil {
		return 0, bulkInvalid("%s: %s", f.Name, err.Error())
	}
	defer r.Close()
	return s.UploadFile(ctx, FilePhoto, f.Name, io.LimitReader(r, MaxUploadSize+1))
}
