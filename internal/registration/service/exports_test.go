package service

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"testing"

	pkgerrors "matholymp/pkg/errors"

	"github.com/klauspost/compress/zip"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func TestUploadFile(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	ctx := registrar(abc)

	id, err := env.svc.UploadFile(ctx, FileFlag, `C:\flags\abc.png`, bytes.NewReader(pngData))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	f, r, err := env.svc.OpenFile(ctx, id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if f.Name != "abc.png" || f.ContentType != "image/png" || !bytes.Equal(data, pngData) {
		t.Fatalf("unexpected file %+v", f)
	}
	if !strings.HasPrefix(f.ObjectKey, "files/") || !strings.HasSuffix(f.ObjectKey, ".png") {
		t.Fatalf("unexpected object key %q", f.ObjectKey)
	}
	want := "https://reg.example.org/attachments/file" + strconv.FormatInt(id, 10) + "/abc.png"
	if got := env.svc.fileURL(ctx, nil, &id); got != want {
		t.Fatalf("expected url %q, got %q", want, got)
	}

	_, err = env.svc.UploadFile(ctx, FileFlag, "flag.txt", strings.NewReader("hello"))
	expectMessage(t, err, "File type text/plain not allowed for flag")

	big := io.MultiReader(bytes.NewReader(pngData), bytes.NewReader(make([]byte, MaxUploadSize)))
	_, err = env.svc.UploadFile(ctx, FilePhoto, "big.png", big)
	expectMessage(t, err, "File too large")

	if _, _, err := env.svc.OpenFile(ctx, id+100); !pkgerrors.Is(err, pkgerrors.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestZIPEntryName(t *testing.T) {
	cases := []struct {
		kind string
		id   int64
		name string
		want string
	}{
		{"flag", 3, "abc.png", "flags/flag3/flag.png"},
		{"photo", 12, "my photo.JPG", "photos/photo12/photo.JPG"},
		{"photo", 4, "noext", "photos/photo4/photo"},
	}
	for _, tc := range cases {
		if got := zipEntryName(tc.kind, tc.id, tc.name); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestFlagsZIP(t *testing.T) {
	env := newTestEnv(t)
	ctx := env.admin()
	flag, err := env.svc.UploadFile(ctx, FileFlag, "abc.png", bytes.NewReader(pngData))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := env.svc.CreateCountry(ctx, CountryInput{Code: "ABC", Name: "Alphabetia", FlagFileID: &flag}); err != nil {
		t.Fatalf("create country: %v", err)
	}

	data, err := env.svc.FlagsZIP(ctx)
	if err != nil {
		t.Fatalf("flags zip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	names := make(map[string]*zip.File)
	for _, f := range zr.File {
		names[f.Name] = f
	}
	if len(names) != 2 || names["flags/README.txt"] == nil {
		t.Fatalf("unexpected entries %v", names)
	}
	entry := names["flags/flag"+strconv.FormatInt(flag, 10)+"/flag.png"]
	if entry == nil || entry.Method != zip.Store {
		t.Fatalf("expected stored flag entry, got %v", names)
	}
	r, err := entry.Open()
	if err != nil {
		t.Fatalf("open entry: %v", err)
	}
	defer r.Close()
	content, _ := io.ReadAll(r)
	if !bytes.Equal(content, pngData) {
		t.Fatalf("flag content mismatch")
	}
}

func TestExportsCSV(t *testing.T) {
	env := newTestEnv(t)
	abc := env.withTeam(t)

	countries, err := env.svc.CountriesCSV(registrar(abc))
	if err != nil {
		t.Fatalf("countries csv: %v", err)
	}
	if !strings.Contains(string(countries), "Alphabetia") || strings.Contains(string(countries), "lead@example.org") {
		t.Fatalf("unexpected countries csv %s", countries)
	}
	people, err := env.svc.PeopleCSV(registrar(abc), false)
	if err != nil {
		t.Fatalf("people csv: %v", err)
	}
	if !strings.Contains(string(people), "ABC1") || strings.Contains(string(people), "2009-05-01") {
		t.Fatalf("unexpected public people csv %s", people)
	}
	if _, err := env.svc.PeopleCSV(registrar(abc), true); !pkgerrors.Is(err, pkgerrors.InsufficientPermission) {
		t.Fatalf("expected permission error, got %v", err)
	}
	private, err := env.svc.PeopleCSV(env.admin(), true)
	if err != nil {
		t.Fatalf("private people csv: %v", err)
	}
	if !strings.Contains(string(private), "2009-05-01") {
		t.Fatalf("expected dates of birth in private csv %s", private)
	}
	scores, err := env.svc.ScoresCSV(registrar(abc))
	if err != nil {
		t.Fatalf("scores csv: %v", err)
	}
	if !strings.Contains(string(scores), "ABC2") {
		t.Fatalf("unexpected scores csv %s", scores)
	}
}

func TestScoresRSS(t *testing.T) {
	env := newTestEnv(t)
	abc := env.withTeam(t)
	def := env.createCountry(t, "DEF", "Defland")
	if _, err := env.svc.CreatePerson(registrar(def), contestantInput(def, 1)); err != nil {
		t.Fatalf("create contestant: %v", err)
	}
	if err := env.svc.SetRegistrationEnabled(env.admin(), false); err != nil {
		t.Fatalf("disable registration: %v", err)
	}
	if err := env.svc.EnterScores(env.scorer(), abc, 1, map[string]string{"ABC1": "5", "ABC2": "6"}); err != nil {
		t.Fatalf("enter scores: %v", err)
	}
	if err := env.svc.EnterScores(env.scorer(), def, 1, map[string]string{"DEF1": "1"}); err != nil {
		t.Fatalf("enter scores: %v", err)
	}

	all, err := env.svc.ScoresRSS(context.Background(), 0)
	if err != nil {
		t.Fatalf("rss: %v", err)
	}
	text := string(all)
	for _, want := range []string{
		`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`,
		"<title>XMO 2026 Scores</title>",
		`<atom:link href="https://reg.example.org/scores-rss.xml" rel="self" type="application/rss+xml">`,
		"<title>ABC P1</title>",
		"<description>ABC P1: ABC1 = 5, ABC2 = 6</description>",
		"<title>DEF P1</title>",
		"<description>DEF P1: DEF1 = 1</description>",
		`<guid isPermaLink="false">urn:uuid:`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in feed:\n%s", want, text)
		}
	}
	if strings.Index(text, "DEF P1") > strings.Index(text, "ABC P1") {
		t.Fatalf("expected newest item first:\n%s", text)
	}

	one, err := env.svc.ScoresRSS(context.Background(), abc)
	if err != nil {
		t.Fatalf("country rss: %v", err)
	}
	text = string(one)
	if !strings.Contains(text, "<title>XMO 2026 Alphabetia Scores</title>") || strings.Contains(text, "DEF P1") {
		t.Fatalf("unexpected country feed:\n%s", text)
	}
	if !strings.Contains(text, "https://reg.example.org/country"+strconv.FormatInt(abc, 10)+"/scores-rss.xml") {
		t.Fatalf("expected country self link:\n%s", text)
	}
}
