package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/registration/repository"
	"matholymp/internal/sitegen"
	pkgerrors "matholymp/pkg/errors"

	"github.com/klauspost/compress/zip"
)

func (s *Service) exportCSV(ctx context.Context, name string, private bool,
	table func(g *sitegen.Generator, e *olympiad.Event, o sitegen.CSVOptions) ([]fileutil.Row, []string)) ([]byte, error) {
	gen := func(ctx context.Context) (string, error) {
		g, e, err := s.currentEvent(ctx)
		if err != nil {
			return "", err
		}
		rows, cols := table(sitegen.New(s.event.SiteConfig(), g, ""), e, sitegen.CSVOptions{RegSystem: true, Private: private})
		b, err := sitegen.CSVBytes(rows, cols)
		if err != nil {
			return "", pkgerrors.Wrap(err, pkgerrors.ExportFailed)
		}
		return string(b), nil
	}
	if private {
		text, err := gen(ctx)
		return []byte(text), err
	}
	text, err := s.cachedText(ctx, name, gen)
	return []byte(text), err
}

// CountriesCSV exports the registered countries. Contact details are
// included for admins.
func (s *Service) CountriesCSV(ctx context.Context) ([]byte, error) {
	p, _ := auth.FromContext(ctx)
	return s.exportCSV(ctx, docCountriesCSV, p.IsAdmin(), (*sitegen.Generator).EventCountriesCSV)
}

// PeopleCSV exports the registered people. The private variant, with
// personal details of everyone, needs the Omnivident role.
func (s *Service) PeopleCSV(ctx context.Context, private bool) ([]byte, error) {
	if private {
		if _, err := requireRole(ctx, auth.RoleOmnivident); err != nil {
			return nil, err
		}
	}
	return s.exportCSV(ctx, docPeopleCSV, private, (*sitegen.Generator).EventPeopleCSV)
}

func (s *Service) ScoresCSV(ctx context.Context) ([]byte, error) {
	return s.exportCSV(ctx, docScoresCSV, false, (*sitegen.Generator).EventScoresCSV)
}

var zipNameBadChar = regexp.MustCompile(`[^a-zA-Z0-9_.]`)

// zipEntryName is the path of file id inside a download archive:
// <kind>s/<kind><id>/<kind>.<ext>.
func zipEntryName(kind string, id int64, name string) string {
	name = zipNameBadChar.ReplaceAllString(name, "_")
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i:]
	}
	return kind + "s/" + kind + strconv.FormatInt(id, 10) + "/" + kind + ext
}

const (
	flagsReadme = "The flags in this file are arranged by internal database identifier;\n" +
		"see the Flag URL column in the CSV file of countries to match them to\nindividual countries.\n"
	photosReadme = "The photos in this file are arranged by internal database identifier;\n" +
		"see the Photo URL column in the CSV file of people to match them to\nindividual participants.\n"
)

func (s *Service) filesZIP(ctx context.Context, kind, readme string, ids []int64) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: kind + "s/README.txt", Method: zip.Store, Modified: s.now()})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
	}
	if _, err := w.Write([]byte(readme)); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
	}
	seen := make(map[int64]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		f, data, err := s.readFile(ctx, id)
		if err != nil {
			return nil, err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: zipEntryName(kind, id, f.Name), Method: zip.Store, Modified: f.CreatedAt})
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
		}
		if _, err := w.Write(data); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ExportFailed)
	}
	return buf.Bytes(), nil
}

// FlagsZIP returns an archive of the flags of all countries but None.
func (s *Service) FlagsZIP(ctx context.Context) ([]byte, error) {
	snap, err := s.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, c := range snap.countries {
		if c.ID != snap.special.none.ID && c.FlagFileID != nil {
			ids = append(ids, *c.FlagFileID)
		}
	}
	return s.filesZIP(ctx, "flag", flagsReadme, ids)
}

// PhotosZIP returns an archive of the photos of all people.
func (s *Service) PhotosZIP(ctx context.Context) ([]byte, error) {
	snap, err := s.loadSnapshot(ctx, nil)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, p := range snap.people {
		if p.PhotoFileID != nil {
			ids = append(ids, *p.PhotoFileID)
		}
	}
	return s.filesZIP(ctx, "photo", photosReadme, ids)
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Docs        string    `xml:"docs"`
	AtomLink    rssLink   `xml:"atom:link"`
	Items       []rssItem `xml:"item"`
}

type rssLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Description string  `xml:"description"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// ScoresRSS returns the live scores feed, newest first. A non-zero
// countryID limits it to that country and to items about every country.
func (s *Service) ScoresRSS(ctx context.Context, countryID int64) ([]byte, error) {
	gen := func(ctx context.Context) (string, error) {
		return s.scoresRSS(ctx, countryID)
	}
	if countryID != 0 {
		text, err := gen(ctx)
		return []byte(text), err
	}
	text, err := s.cachedText(ctx, docScoresRSS, gen)
	return []byte(text), err
}

func (s *Service) scoresRSS(ctx context.Context, countryID int64) (string, error) {
	base := s.event.TrackerURL
	titleExtra, link, self := "", base+"scoreboard", base+"scores-rss.xml"
	var filter *int64
	if countryID != 0 {
		c, err := s.getCountry(ctx, nil, countryID)
		if err != nil {
			return "", err
		}
		id := strconv.FormatInt(c.ID, 10)
		titleExtra, link, self = " "+c.Name, base+"country"+id, base+"country"+id+"/scores-rss.xml"
		filter = &c.ID
	}
	items, err := s.repos.RSS.List(ctx, nil, filter)
	if err != nil {
		return "", dbError("list rss items", err)
	}
	name := s.event.ShortName + " " + s.event.Year + titleExtra
	doc := rssDocument{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       name + " Scores",
			Link:        link,
			Description: name + " Scores Live Feed",
			Language:    "en-gb",
			Docs:        "http://www.rssboard.org/rss-specification",
			AtomLink:    rssLink{Href: self, Rel: "self", Type: "application/rss+xml"},
		},
	}
	for _, it := range items {
		doc.Channel.Items = append(doc.Channel.Items, rssEntry(it))
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", pkgerrors.Wrap(fmt.Errorf("marshal rss: %w", err), pkgerrors.ExportFailed)
	}
	return xml.Header + string(out) + "\n", nil
}

func rssEntry(it *repository.RSSItem) rssItem {
	return rssItem{
		Title:       it.Title,
		Description: it.Text,
		PubDate:     it.CreatedAt.UTC().Format(time.RFC1123Z),
		GUID:        rssGUID{Value: it.GUID},
	}
}
