package docgen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matholymp/internal/fileutil"
)

const testConfig = `[matholymp.documentgen]
year = 2019
short_name = XMO
long_name = Example Mathematical Olympiad
num_key = XMO Number
marks_per_problem = 7 7
badge_phone_desc = Event phone
badge_event_phone = +1 555 0100
badge_emergency_phone = 999
badge_event_ordinal = 1\textsuperscript{st}
badge_event_venue = Example Town
badge_event_dates = 1--5 April 2019
event_number = 1
num_exams = 1
num_problems = 2
num_contestants_per_team = 2
gold_boundary = 12
silver_boundary = 8
bronze_boundary = 4
show_countries_for_guides = no
show_rooms_for_guides = no
paper_print_logo = yes
paper_text_left = no
honourable_mentions_available = yes
`

type fakeRunner struct {
	files []string
}

func (f *fakeRunner) run(_ context.Context, dir, texFile string, env []string) error {
	f.files = append(f.files, texFile)
	base := strings.TrimSuffix(texFile, ".tex")
	for _, ext := range []string{".aux", ".log", ".pdf"} {
		if err := os.WriteFile(filepath.Join(dir, base+ext), nil, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestGenerator(t *testing.T) (*Generator, *fakeRunner, Dirs) {
	t.Helper()
	top := t.TempDir()
	writeFile(t, filepath.Join(top, ConfigFile), testConfig)
	cfg, err := ReadConfig(top)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	dirs := DefaultDirs(top, cfg)

	countries := []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Code": "AAA", "Name": "Aland",
			"Flag URL": "https://reg.example.org/xmo/file5/flag.png"},
		{"XMO Number": "1", "Country Number": "2", "Code": "ZZA", "Name": "XMO 2019 Staff", "Normal": "No"},
	}
	people := []fileutil.Row{
		{"XMO Number": "1", "Country Number": "1", "Person Number": "1", "Primary Role": "Contestant 1",
			"Given Name": "Ann", "Family Name": "Able", "P1": "7", "P2": "6",
			"Languages": "English,French", "Room Number": "201"},
		{"XMO Number": "1", "Country Number": "1", "Person Number": "2", "Primary Role": "Leader",
			"Given Name": "Bob", "Family Name": "Boss", "Languages": "English"},
		{"XMO Number": "1", "Country Number": "2", "Person Number": "3", "Primary Role": "Guide",
			"Guide For": "Aland", "Given Name": "Gil", "Family Name": "Guide",
			"Room Number": "101", "Phone Number": "123"},
	}
	if err := fileutil.WriteUTF8CSV(filepath.Join(dirs.Data, "countries.csv"), countries,
		[]string{"XMO Number", "Country Number", "Code", "Name", "Flag URL", "Normal"}); err != nil {
		t.Fatalf("write countries: %v", err)
	}
	if err := fileutil.WriteUTF8CSV(filepath.Join(dirs.Data, "people.csv"), people,
		[]string{"XMO Number", "Country Number", "Person Number", "Primary Role", "Guide For",
			"Given Name", "Family Name", "P1", "P2", "Languages", "Room Number", "Phone Number"}); err != nil {
		t.Fatalf("write people: %v", err)
	}
	e, err := LoadEvent(dirs.Data, cfg)
	if err != nil {
		t.Fatalf("LoadEvent: %v", err)
	}

	writeFile(t, filepath.Join(dirs.Templates, "badge-template.tex"),
		"@@name@@|@@role@@|@@guide_name@@|@@flaga@@|@@have_team_rooms@@|@@RAW:team_rooms@@|@@background_type@@")
	writeFile(t, filepath.Join(dirs.Templates, "certificate-template.tex"), "@@use_background@@|@@certificates@@")
	writeFile(t, filepath.Join(dirs.Templates, "paper-template.tex"), "@@short_name@@ @@year@@|@@papers@@")
	writeFile(t, filepath.Join(dirs.Templates, "desk-label-template.tex"), "@@desk_labels@@")
	writeFile(t, filepath.Join(dirs.Templates, "coord-form-template.tex"), "@@coord_forms@@")
	writeFile(t, filepath.Join(dirs.Problems, "English.pdf"), "%PDF-1.4\n1 0 obj << /Type /Pages /Count 1 >>\n2 0 obj << /Type /Page >>\n")
	writeFile(t, filepath.Join(dirs.Problems, "French.pdf"), "%PDF-1.4\n<< /Type/Pages >>\n<< /Type/Page >>\n<< /Type /Page /Parent 1 0 R >>\n")
	if err := os.MkdirAll(dirs.Out, 0o755); err != nil {
		t.Fatalf("mkdir out: %v", err)
	}

	r := &fakeRunner{}
	return New(cfg, e, dirs, r.run), r, dirs
}

func readOut(t *testing.T, dirs Dirs, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dirs.Out, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func TestTextToLaTeX(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"50% & #1", `50\% \& \#1`},
		{`a_b~c^d`, `a\_b\~{ }c\^{ }d`},
		{`{x}\y`, `$\{$x$\}$$\backslash$y`},
		{`"q" | <a>`, `\texttt{"}q\texttt{"} $|$ $<$a$>$`},
		{"tab\there\nline", "tab here line"},
		{"$5", `\$5`},
	}
	for _, tt := range tests {
		if got := TextToLaTeX(tt.in); got != tt.want {
			t.Fatalf("TextToLaTeX(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestSubstitute(t *testing.T) {
	got := Substitute("@@a@@ @@RAW:a@@ @@b@@ @@missing@@.", Fields{"a": "x_y", "b": `\z`}, "b")
	want := `x\_y x_y \z .`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestParseConfigMarksMismatch(t *testing.T) {
	bad := strings.Replace(testConfig, "marks_per_problem = 7 7", "marks_per_problem = 7", 1)
	if _, err := ParseConfig([]byte(bad)); err == nil {
		t.Fatalf("expected error for marks_per_problem mismatch")
	}
	cfg, err := ParseConfig([]byte(testConfig))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.StaffCountry() != "XMO 2019 Staff" || cfg.GoldBoundary == nil || *cfg.GoldBoundary != 12 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestPersonByID(t *testing.T) {
	g, _, _ := newTestGenerator(t)
	tests := []struct {
		id      string
		wantErr string
		wantID  int
	}{
		{id: "AAA1", wantID: 1},
		{id: "2", wantID: 2},
		{id: "", wantErr: "Empty person identifier"},
		{id: "BBB1", wantErr: "Person BBB1 not found"},
		{id: "99", wantErr: "Person 99 not found"},
	}
	for _, tt := range tests {
		p, err := g.PersonByID(tt.id)
		if tt.wantErr != "" {
			if err == nil || err.Error() != tt.wantErr {
				t.Fatalf("PersonByID(%q): expected error %q, got %v", tt.id, tt.wantErr, err)
			}
			continue
		}
		if err != nil || p.Person.ID != tt.wantID {
			t.Fatalf("PersonByID(%q): expected person %d, got %v %v", tt.id, tt.wantID, p, err)
		}
	}
	if _, err := g.ContestantByID("2"); err == nil {
		t.Fatalf("expected error for non-contestant")
	}
}

func TestBadges(t *testing.T) {
	g, r, dirs := newTestGenerator(t)
	if err := g.Generate(context.Background(), TypeBadge, "all", Options{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(r.files) != 3 {
		t.Fatalf("expected 3 compiled badges, got %v", r.files)
	}
	flag := TextToLaTeX(filepath.Join(dirs.Data, "flags", "flag5", "flag.png"))
	rooms := TextToLaTeX("(AAA1) Ann Able ") + `\textbf{201} \\ ` + TextToLaTeX("(AAA Leader) Bob Boss ") + `\textbf{}`
	want := "Ann Able|Contestant AAA1|Gil Guide|" + flag + "|true|" + rooms + "|contestant"
	if got := readOut(t, dirs, "badge-person1.tex"); got != want {
		t.Fatalf("expected badge %q, got %q", want, got)
	}
	if got := readOut(t, dirs, "badge-person3.tex"); got != "Gil Guide|Guide|||false||guide" {
		t.Fatalf("unexpected staff badge %q", got)
	}
	if fileutil.Exists(filepath.Join(dirs.Out, "badge-person1.aux")) || fileutil.Exists(filepath.Join(dirs.Out, "badge-person1.log")) {
		t.Fatalf("expected pdflatex auxiliary files to be removed")
	}
}

func TestAwardCertificates(t *testing.T) {
	g, _, dirs := newTestGenerator(t)
	if err := g.AwardCertificates(context.Background(), "gold", true); err != nil {
		t.Fatalf("AwardCertificates: %v", err)
	}
	if got := readOut(t, dirs, "gold-certificates.tex"); got != `true|\goldcert{Ann Able}{Aland}` {
		t.Fatalf("unexpected certificates %q", got)
	}
	if err := g.AwardCertificates(context.Background(), "2", false); err == nil {
		t.Fatalf("expected error for non-contestant")
	}
	if err := g.ParticipationCertificates(context.Background(), "all", false); err != nil {
		t.Fatalf("ParticipationCertificates: %v", err)
	}
	got := readOut(t, dirs, "participation-certificates.tex")
	if !strings.Contains(got, `\partcert{Bob Boss}{Aland}{Leader}`) || !strings.Contains(got, `\partcert{Ann Able}{Aland}{Contestant AAA1}`) {
		t.Fatalf("unexpected participation certificates %q", got)
	}
}

func TestPapers(t *testing.T) {
	g, _, dirs := newTestGenerator(t)
	ctx := context.Background()
	if err := g.Papers(ctx, "all-languages", "", false); err != nil {
		t.Fatalf("Papers all-languages: %v", err)
	}
	if got := readOut(t, dirs, "paper-English.tex"); got != `XMO 2019|\onepaper{English}{English}{}{}{}{}{1}` {
		t.Fatalf("unexpected English paper %q", got)
	}
	all := readOut(t, dirs, "paper-All.tex")
	if !strings.Contains(all, `\onepaper{French}{French}{}{}{}{2}{2}`) {
		t.Fatalf("expected two-page French paper in %q", all)
	}

	if err := g.Papers(ctx, "French", "", true); err != nil {
		t.Fatalf("Papers draft: %v", err)
	}
	if got := readOut(t, dirs, "paper-draft-bg-French.tex"); !strings.Contains(got, `{Draft}{}{1}{2}`) {
		t.Fatalf("unexpected draft %q", got)
	}

	if err := g.Papers(ctx, "all", "", false); err != nil {
		t.Fatalf("Papers all: %v", err)
	}
	if got := readOut(t, dirs, "papers.tex"); !strings.Contains(got, `{Contestant: }{AAA1}`) {
		t.Fatalf("unexpected contestant papers %q", got)
	}
	if got := readOut(t, dirs, "papers-leaders.tex"); strings.Count(got, `\onepaper{English}`) != 1 || strings.Count(got, `\onepaper{French}`) != 2 {
		t.Fatalf("unexpected leader papers %q", got)
	}
}

func TestLanguageListAndScoresCommands(t *testing.T) {
	g, _, dirs := newTestGenerator(t)
	if err := g.LanguageList(); err != nil {
		t.Fatalf("LanguageList: %v", err)
	}
	if got := readOut(t, dirs, "language-list.txt"); got != "English AAA1\nFrench AAA1\n\nOnly one language: \n" {
		t.Fatalf("unexpected language list %q", got)
	}

	if err := fileutil.WriteUTF8CSV(filepath.Join(dirs.Data, "scores-in.csv"),
		[]fileutil.Row{{"Contestant Code": "AAA1", "P1": "5", "P2": "6"}, {"Contestant Code": ""}},
		[]string{"Contestant Code", "P1", "P2"}); err != nil {
		t.Fatalf("write scores: %v", err)
	}
	if err := g.ScoresCommands(); err != nil {
		t.Fatalf("ScoresCommands: %v", err)
	}
	if got := readOut(t, dirs, "upload-scores"); !strings.HasSuffix(got, "$mo_cli person set-scores id=1 scores=5,6\n") {
		t.Fatalf("unexpected scores commands %q", got)
	}
}

func TestCoordForms(t *testing.T) {
	g, _, dirs := newTestGenerator(t)
	if err := g.CoordForms(context.Background()); err != nil {
		t.Fatalf("CoordForms: %v", err)
	}
	want := `\twoforms{Aland}{1}{\formrow{AAA1}\formrow{}}%` + "\n" + `\twoforms{Aland}{2}{\formrow{AAA1}\formrow{}}`
	if got := readOut(t, dirs, "coord-forms.tex"); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestUnknownType(t *testing.T) {
	g, _, _ := newTestGenerator(t)
	if err := g.Generate(context.Background(), "poster", "all", Options{}); err == nil {
		t.Fatalf("expected error for unknown document type")
	}
}

func TestSortedLanguages(t *testing.T) {
	g, _, _ := newTestGenerator(t)
	langs := SortedLanguages(g.event)
	if strings.Join(langs, ",") != "English,French" {
		t.Fatalf("unexpected languages %v", langs)
	}
	if days := PaperDays(g.event, ""); len(days) != 1 || days[0] != "" {
		t.Fatalf("unexpected days %v", days)
	}
}
