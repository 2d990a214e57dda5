package docgen

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"matholymp/internal/collate"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/regdata"
)

// Document types accepted by Generate.
const (
	TypeBadge                    = "badge"
	TypeDeskLabel                = "desk-label"
	TypeAwardCertificate         = "award-certificate"
	TypeParticipationCertificate = "participation-certificate"
	TypePaper                    = "paper"
	TypeLanguageList             = "language-list"
	TypeCoordForm                = "coord-form"
	TypeScoresCommands           = "scores-commands"
)

// Types lists every document type.
var Types = []string{
	TypeBadge, TypeDeskLabel, TypeAwardCertificate, TypeParticipationCertificate,
	TypePaper, TypeLanguageList, TypeCoordForm, TypeScoresCommands,
}

// Options modify how documents are generated.
type Options struct {
	// Background includes the pre-printed background design.
	Background bool
	// Day restricts papers to one day.
	Day string
}

// Generate produces the documents of type docType for id, which is "all"
// or a selector specific to the type.
func (g *Generator) Generate(ctx context.Context, docType, id string, o Options) error {
	switch docType {
	case TypeBadge:
		return g.Badges(ctx, id, o.Background)
	case TypeDeskLabel:
		return g.DeskLabels(ctx, id)
	case TypeAwardCertificate:
		return g.AwardCertificates(ctx, id, o.Background)
	case TypeParticipationCertificate:
		return g.ParticipationCertificates(ctx, id, o.Background)
	case TypePaper:
		return g.Papers(ctx, id, o.Day, o.Background)
	case TypeLanguageList:
		return g.LanguageList()
	case TypeCoordForm:
		return g.CoordForms(ctx)
	case TypeScoresCommands:
		return g.ScoresCommands()
	}
	return fmt.Errorf("Unknown type %s", docType)
}

var shortRoles = map[string]string{
	"Deputy Leader":             "Deputy",
	"Observer with Leader":      "Observer A",
	"Observer with Deputy":      "Observer B",
	"Observer with Contestants": "Observer C",
}

func roomListText(p *olympiad.PersonEvent) string {
	code := p.ContestantCode
	if !p.IsContestant {
		role := p.PrimaryRole
		if r, ok := shortRoles[role]; ok {
			role = r
		}
		code = p.Country.Code + " " + role
	}
	return TextToLaTeX("("+code+") "+p.Name()+" ") + `\textbf{` + TextToLaTeX(p.RoomNumber) + "}"
}

// RoleText lists a person's roles, primary first.
func RoleText(p *olympiad.PersonEvent) string {
	role := p.PrimaryRole
	if p.IsContestant {
		role = "Contestant " + p.ContestantCode
	}
	other := slices.Clone(p.OtherRoles)
	slices.SortFunc(other, collate.Compare)
	if len(other) > 0 {
		role += ", " + strings.Join(other, ", ")
	}
	return role
}

func badgeBackground(p *olympiad.PersonEvent) string {
	role := p.PrimaryRole
	switch {
	case p.IsContestant:
		return "contestant"
	case role == "Observer with Contestants":
		return "observerc"
	case role == "Leader" || role == "Observer with Leader":
		return "leader"
	case role == "Deputy Leader" || role == "Observer with Deputy":
		return "deputy"
	case strings.Contains(role, "Chief Guide"):
		return "chiefguide"
	case strings.Contains(role, "Guide"):
		return "guide"
	case strings.Contains(role, "Coordinator"):
		return "coordinator"
	case strings.Contains(role, "Invigilator"):
		return "invigilator"
	}
	return "organiser"
}

const maxBadgeCountries = 5

func (g *Generator) badge(ctx context.Context, p *olympiad.PersonEvent, background bool) error {
	f := Fields{
		"phone_desc":       g.cfg.BadgePhoneDesc,
		"event_phone":      g.cfg.BadgeEventPhone,
		"emergency_phone":  g.cfg.BadgeEmergencyPhone,
		"event_ordinal":    g.cfg.BadgeEventOrdinal,
		"event_short_name": g.event.ShortName,
		"event_venue":      g.cfg.BadgeEventVenue,
		"event_dates":      g.cfg.BadgeEventDates,
		"use_background":   boolField(background),
		"role":             RoleText(p),
		"background_type":  badgeBackground(p),
		"name":             p.Name(),
		"room":             p.RoomNumber,
		"diet":             p.Diet,
	}
	if p.PhotoURL != "" {
		photo, err := regdata.FileURLToLocal(p.PhotoURL, filepath.Join(g.dirs.Data, "photos"), "photo")
		if err != nil {
			return err
		}
		f["photo"] = photo
	}

	var countries []*olympiad.CountryEvent
	isStaff := p.Country.Name == g.cfg.StaffCountry()
	nonGuideStaff := isStaff
	if isStaff {
		if g.cfg.ShowCountriesForGuides && p.PrimaryRole == "Guide" {
			nonGuideStaff = !g.cfg.ShowRoomsForGuides
			countries = olympiad.SortedCountryEvents(p.GuideFor, olympiad.CompareCountryEvent)
		}
	} else {
		countries = []*olympiad.CountryEvent{p.Country}
	}
	if len(countries) > maxBadgeCountries {
		return fmt.Errorf("Too many countries for person %d", p.Person.ID)
	}
	padded := make([]*olympiad.CountryEvent, maxBadgeCountries-len(countries), maxBadgeCountries)
	padded = append(padded, countries...)
	for i, c := range padded {
		suffix := string(rune('e' - i))
		if c != nil {
			f["country"+suffix] = c.Name
		}
		flag, err := g.countryFlag(c)
		if err != nil {
			return err
		}
		f["flag"+suffix] = flag
	}

	if !isStaff && len(p.Country.Guides) == 1 {
		guide := p.Country.Guides[0]
		f["guide_name"] = guide.Name()
		f["guide_room"] = guide.RoomNumber
		f["guide_phone"] = guide.PhoneNumber
	}

	f["have_team_rooms"] = "false"
	if !nonGuideStaff {
		var rooms []string
		for _, q := range olympiad.SortedPersonEvents(g.event.People, olympiad.ComparePersonEvent) {
			if slices.Contains(countries, q.Country) {
				rooms = append(rooms, roomListText(q))
			}
		}
		if len(rooms) > 0 {
			f["have_team_rooms"] = "true"
			f["team_rooms"] = strings.Join(rooms, ` \\ `)
		}
	}
	return g.substAndCompile(ctx, "badge-template", "badge-person"+strconv.Itoa(p.Person.ID), f,
		"team_rooms", "event_ordinal")
}

// Badges generates name badges for one person or "all".
func (g *Generator) Badges(ctx context.Context, id string, background bool) error {
	if id != "all" {
		p, err := g.PersonByID(id)
		if err != nil {
			return err
		}
		return g.badge(ctx, p, background)
	}
	for _, p := range g.event.People {
		if err := g.badge(ctx, p, background); err != nil {
			return err
		}
	}
	return nil
}

// DeskLabels generates exam desk labels for one contestant or "all".
func (g *Generator) DeskLabels(ctx context.Context, id string) error {
	var contestants []*olympiad.PersonEvent
	outputBase := "desk-labels"
	if id == "all" {
		contestants = olympiad.SortedPersonEvents(g.event.Contestants, olympiad.ComparePersonEventExams)
	} else {
		p, err := g.ContestantByID(id)
		if err != nil {
			return err
		}
		contestants = []*olympiad.PersonEvent{p}
		outputBase = "desk-label-person" + id
	}
	labels := make([]string, len(contestants))
	for i, p := range contestants {
		labels[i] = fmt.Sprintf(`\placecard{%s}{%s}{%s}{%s}`,
			TextToLaTeX(p.ContestantCode), TextToLaTeX(p.Name()),
			TextToLaTeX(language(p, 0)), TextToLaTeX(language(p, 1)))
	}
	return g.substAndCompile(ctx, "desk-label-template", outputBase,
		Fields{"desk_labels": strings.Join(labels, "%\n")}, "desk_labels")
}

func language(p *olympiad.PersonEvent, n int) string {
	if n < len(p.Languages) {
		return p.Languages[n]
	}
	return ""
}

var awardCertificates = map[string]struct {
	award, output string
}{
	"gold":   {olympiad.AwardGold, "gold-certificates"},
	"silver": {olympiad.AwardSilver, "silver-certificates"},
	"bronze": {olympiad.AwardBronze, "bronze-certificates"},
	"hm":     {olympiad.AwardHonourableMention, "hm-certificates"},
}

var awardMacros = map[string]string{
	olympiad.AwardGold:              "gold",
	olympiad.AwardSilver:            "silver",
	olympiad.AwardBronze:            "bronze",
	olympiad.AwardHonourableMention: "hm",
}

// AwardCertificates generates certificates for one award level
// (gold, silver, bronze, hm) or one awarded contestant.
func (g *Generator) AwardCertificates(ctx context.Context, id string, background bool) error {
	var contestants []*olympiad.PersonEvent
	var outputBase string
	if sel, ok := awardCertificates[id]; ok {
		for _, p := range olympiad.SortedPersonEvents(g.event.Contestants, olympiad.ComparePersonEvent) {
			if p.Award == sel.award {
				contestants = append(contestants, p)
			}
		}
		outputBase = sel.output
	} else {
		p, err := g.ContestantByID(id)
		if err != nil {
			return err
		}
		if p.Award == "" {
			return fmt.Errorf("Person %s not awarded", id)
		}
		contestants = []*olympiad.PersonEvent{p}
		outputBase = "certificate-person" + id
	}
	certs := make([]string, len(contestants))
	for i, p := range contestants {
		certs[i] = fmt.Sprintf(`\%scert{%s}{%s}`, awardMacros[p.Award],
			TextToLaTeX(p.Name()), TextToLaTeX(p.Country.Name))
	}
	return g.substAndCompile(ctx, "certificate-template", outputBase, Fields{
		"certificates":   strings.Join(certs, "%\n"),
		"use_background": boolField(background),
	}, "certificates")
}

// ParticipationCertificates generates participation certificates for one
// person or "all".
func (g *Generator) ParticipationCertificates(ctx context.Context, id string, background bool) error {
	var people []*olympiad.PersonEvent
	outputBase := "participation-certificates"
	if id == "all" {
		people = olympiad.SortedPersonEvents(g.event.People, olympiad.ComparePersonEvent)
	} else {
		p, err := g.PersonByID(id)
		if err != nil {
			return err
		}
		people = []*olympiad.PersonEvent{p}
		outputBase = "participation-certificate-person" + id
	}
	certs := make([]string, len(people))
	for i, p := range people {
		certs[i] = fmt.Sprintf(`\partcert{%s}{%s}{%s}`,
			TextToLaTeX(p.Name()), TextToLaTeX(p.Country.Name), RoleText(p))
	}
	return g.substAndCompile(ctx, "certificate-template", outputBase, Fields{
		"certificates":   strings.Join(certs, "%\n"),
		"use_background": boolField(background),
	}, "certificates")
}

// LanguageList writes language-list.txt: each language with the codes of
// the contestants using it, then those with only one language.
func (g *Generator) LanguageList() error {
	byLang := make(map[string][]string)
	var oneLanguage []string
	for _, p := range olympiad.SortedPersonEvents(g.event.Contestants, olympiad.ComparePersonEvent) {
		both := true
		for n := 0; n < 2; n++ {
			if l := language(p, n); l != "" {
				byLang[l] = append(byLang[l], p.ContestantCode)
			} else {
				both = false
			}
		}
		if !both {
			oneLanguage = append(oneLanguage, p.ContestantCode)
		}
	}
	langs := make([]string, 0, len(byLang))
	for l := range byLang {
		langs = append(langs, l)
	}
	slices.SortFunc(langs, collate.Compare)
	lines := make([]string, len(langs))
	for i, l := range langs {
		lines[i] = l + " " + strings.Join(byLang[l], " ")
	}
	text := strings.Join(lines, "\n") + "\n\nOnly one language: " + strings.Join(oneLanguage, " ") + "\n"
	return fileutil.WriteTextAtomic(filepath.Join(g.dirs.Out, "language-list.txt"), text)
}

// CoordForms generates the coordination forms for every problem and
// country with contestants.
func (g *Generator) CoordForms(ctx context.Context) error {
	var forms []string
	countries := olympiad.SortedCountryEvents(g.event.Countries, olympiad.CompareCountryEvent)
	for pn := 1; pn <= g.event.NumProblemsOrZero(); pn++ {
		for _, c := range countries {
			if len(c.Contestants) == 0 {
				continue
			}
			var rows strings.Builder
			for n := 1; n <= g.cfg.NumContestantsPerTeam; n++ {
				code := c.Code + strconv.Itoa(n)
				if _, ok := g.event.ContestantMap[code]; !ok {
					code = ""
				}
				fmt.Fprintf(&rows, `\formrow{%s}`, TextToLaTeX(code))
			}
			forms = append(forms, fmt.Sprintf(`\twoforms{%s}{%d}{%s}`, TextToLaTeX(c.Name), pn, rows.String()))
		}
	}
	return g.substAndCompile(ctx, "coord-form-template", "coord-forms", Fields{
		"coord_forms": strings.Join(forms, "%\n"),
		"year":        g.event.Year,
		"short_name":  g.event.ShortName,
		"long_name":   g.event.LongName,
	}, "coord_forms")
}

// ScoresCommands converts data/scores-in.csv into a shell script that
// uploads the scores with the mo-cli client.
func (g *Generator) ScoresCommands() error {
	rows, err := fileutil.ReadUTF8CSV(filepath.Join(g.dirs.Data, "scores-in.csv"))
	if err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("#! /bin/sh\n")
	b.WriteString("# Run as: sh upload-scores path-to-mo-cli\n")
	b.WriteString("mo_cli=$1\n")
	for _, row := range rows {
		code := row[olympiad.ColContestantCode]
		if code == "" {
			continue
		}
		p, ok := g.event.ContestantMap[code]
		if !ok {
			return fmt.Errorf("Person %s not found", code)
		}
		scores := make([]string, g.event.NumProblemsOrZero())
		for i := range scores {
			scores[i] = row[olympiad.ProblemColumn(i+1)]
		}
		fmt.Fprintf(&b, "$mo_cli person set-scores id=%d scores=%s\n", p.Person.ID, strings.Join(scores, ","))
	}
	return fileutil.WriteTextAtomic(filepath.Join(g.dirs.Out, "upload-scores"), b.String())
}
