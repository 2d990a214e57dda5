package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"matholymp/internal/registration/repository"
	pkgerrors "matholymp/pkg/errors"

	"github.com/klauspost/compress/zip"
)

func TestBulkRegisterCountries(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.admin()
	csv := "Code,Name,Country Number,Contact Email 1,Official\n" +
		"DEF,Defland,12,lead@def.example.org,\n" +
		"GHI, Ghiland ,,,No\n"

	checked, err := env.svc.BulkRegisterCountries(ctx, BulkInput{CSV: []byte(csv)})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if checked.Committed || len(checked.Entries) != 2 || checked.Entries[1].Summary != "Ghiland (GHI)" {
		t.Fatalf("unexpected check result %+v", checked)
	}
	if list, _ := env.svc.ListCountries(ctx); len(list) != 1 {
		t.Fatalf("expected nothing created by check, got %d countries", len(list))
	}

	committed, err := env.svc.BulkRegisterCountries(ctx, BulkInput{CSVContents: checked.CSVContents})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !committed.Committed || len(committed.Countries) != 2 {
		t.Fatalf("unexpected commit result %+v", committed)
	}
	def := committed.Countries[0]
	if def.User == nil || def.Country.GenericURL != "https://www.example.org/countries/country12/" {
		t.Fatalf("unexpected DEF %+v", def.Country)
	}
	ghi := committed.Countries[1].Country
	if ghi.Official == nil || *ghi.Official || committed.Countries[1].User != nil {
		t.Fatalf("unexpected GHI %+v", ghi)
	}

	cases := []struct {
		name string
		in   BulkInput
		want string
	}{
		{"empty", BulkInput{}, "no CSV file uploaded"},
		{"duplicate", BulkInput{CSV: []byte("Code,Name\nJKL,J\nJKL,K\n")}, "row 2: Country code JKL already in use"},
		{"existing", BulkInput{CSV: []byte("Code,Name\nDEF,D\n")}, "row 1: Country code DEF already in use"},
		{"bad number", BulkInput{CSV: []byte("Code,Name,Country Number\nJKL,J,x\n")}, `row 1: invalid number "x"`},
		{"semicolons", BulkInput{CSV: []byte("Code;Name\njkl;J\n"), Delimiter: ";"}, "row 1: Country codes must be all capital letters"},
		{"latin-1", BulkInput{CSV: []byte("Code,Name\nJKL,Jos\xe9land\n")}, "invalid UTF-8 byte 0xe9 at offset 17"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.BulkRegisterCountries(ctx, tc.in)
			expectMessage(t, err, tc.want)
		})
	}
	if _, err := env.svc.BulkRegisterCountries(registrar(def.Country.ID), BulkInput{CSV: []byte(csv)}); !pkgerrors.Is(err, pkgerrors.InsufficientPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func photoZIP(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write(pngData); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

const bulkPeopleHeader = "Country Code,Given Name,Family Name,Gender,Primary Role,Languages,Date of Birth,T-Shirt Size,Photo\n"

func TestBulkRegisterPeople(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	ctx := env.admin()
	csv := bulkPeopleHeader +
		"ABC,Ann,Smith,Female,Contestant 1,\"English,French\",2009-05-01,M,ann.png\n" +
		"ABC,Bea,Jones,Female,Contestant 2,English,2009-06-01,S,\n"
	archive := photoZIP(t, "ann.png")

	checked, err := env.svc.BulkRegisterPeople(ctx, BulkInput{CSV: []byte(csv), ZIP: archive})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	sum := sha256.Sum256(archive)
	if checked.Committed || checked.ZIPRef != hex.EncodeToString(sum[:]) || len(checked.Entries) != 2 {
		t.Fatalf("unexpected check result %+v", checked)
	}
	if checked.Entries[0].Summary != "Ann Smith (Contestant 1)" {
		t.Fatalf("unexpected summary %q", checked.Entries[0].Summary)
	}
	if _, err := env.storage.StatObject(ctx, "bulk/"+checked.ZIPRef); err != nil {
		t.Fatalf("expected stashed archive: %v", err)
	}

	committed, err := env.svc.BulkRegisterPeople(ctx, BulkInput{CSVContents: checked.CSVContents, ZIPRef: checked.ZIPRef})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !committed.Committed || committed.Entries[0].ID == 0 {
		t.Fatalf("unexpected commit result %+v", committed)
	}
	ann, err := env.svc.GetPerson(ctx, committed.Entries[0].ID)
	if err != nil {
		t.Fatalf("get person: %v", err)
	}
	if ann.CountryID != abc || ann.ContestantCode != "ABC1" || !strings.Contains(ann.PhotoURL, "/ann.png") {
		t.Fatalf("unexpected person %+v", ann)
	}
	if ann.Private == nil || len(ann.Private.Languages) != 2 {
		t.Fatalf("unexpected private details %+v", ann.Private)
	}

	cases := []struct {
		name string
		in   BulkInput
		want string
	}{
		{"duplicate role", BulkInput{CSV: []byte(bulkPeopleHeader +
			"ABC,Cat,Lee,Female,Contestant 1,English,2009-05-01,M,\n")}, "row 1: A person with this role already exists"},
		{"duplicate role in file", BulkInput{CSV: []byte(bulkPeopleHeader +
			"ABC,Cat,Lee,Male,Leader,English,,M,\nABC,Dan,Lee,Male,Leader,English,,M,\n")}, "row 2: A person with this role already exists"},
		{"duplicate language", BulkInput{CSV: []byte(bulkPeopleHeader +
			"ABC,Cat,Lee,Male,Leader,\"English,English\",,M,\n")}, "duplicate entries in Languages"},
		{"unknown country", BulkInput{CSV: []byte(bulkPeopleHeader +
			"QQQ,Cat,Lee,Male,Leader,English,,M,\n")}, "row 1: Invalid country"},
		{"missing photo", BulkInput{CSV: []byte(bulkPeopleHeader +
			"ABC,Cat,Lee,Male,Leader,English,,M,cat.png\n")}, "row 1: cat.png not found in ZIP file"},
		{"bad ref", BulkInput{CSVContents: checked.CSVContents, ZIPRef: "xyz"}, "zip_ref not a valid hash"},
		{"unknown ref", BulkInput{CSVContents: checked.CSVContents, ZIPRef: strings.Repeat("0", 64)}, "zip_ref not a known hash"},
		{"bad base64", BulkInput{CSVContents: "!!"}, "illegal base64 data at input byte 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.BulkRegisterPeople(ctx, tc.in)
			expectMessage(t, err, tc.want)
		})
	}

	people, err := env.repos.People.ListByCountry(ctx, nil, abc)
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected two people, got %d", len(people))
	}
	var withPhoto *repository.Person
	for _, p := range people {
		if p.PhotoFileID != nil {
			withPhoto = p
		}
	}
	if withPhoto == nil || withPhoto.GivenName != "Ann" {
		t.Fatalf("expected Ann to have a photo")
	}
}
