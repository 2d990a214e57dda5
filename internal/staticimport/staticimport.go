// Package staticimport maintains the data directory of a static site:
// importing a finished event from the registration system, importing its
// exam papers, and upgrading CSV files written by older versions.
package staticimport

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"matholymp/internal/csvsource"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
	"matholymp/internal/regdata"
	"matholymp/internal/sitegen"
	"matholymp/pkg/utils/logger"
)

var (
	ErrWrongEventCountry = errors.New("country from wrong event")
	ErrNoCountries       = errors.New("no countries in imported data")
	ErrAlreadyPresent    = errors.New("data for this event already present")
	ErrWrongEventPerson  = errors.New("person from wrong event")
)

// CountriesHeader returns the columns of data/countries.csv.
func CountriesHeader(cfg *sitegen.Config) []string {
	h := []string{cfg.NumKey, olympiad.ColCountryNumber, olympiad.ColAnnualURL,
		olympiad.ColCode, olympiad.ColName, olympiad.ColFlagURL}
	if cfg.DistinguishOfficial {
		h = append(h, cfg.OfficialDesc)
	}
	return h
}

// PeopleHeader returns the columns of data/people.csv for numProblems
// problem columns.
func PeopleHeader(cfg *sitegen.Config, numProblems int) []string {
	h := []string{cfg.NumKey, olympiad.ColCountryNumber, olympiad.ColPersonNumber,
		olympiad.ColAnnualURL, olympiad.ColCountryName, olympiad.ColCountryCode,
		olympiad.ColPrimaryRole, olympiad.ColOtherRoles, olympiad.ColGuideFor,
		olympiad.ColContestantCode, olympiad.ColContestantAge, olympiad.ColGivenName,
		olympiad.ColFamilyName}
	h = append(h, olympiad.ProblemColumns(numProblems)...)
	return append(h, olympiad.ColTotal, olympiad.ColAward, olympiad.ColExtraAwards, olympiad.ColPhotoURL)
}

// maxProblems extends n to the largest contiguous P<k> column in row.
func maxProblems(row fileutil.Row, n int) int {
	for {
		if _, ok := row[olympiad.ProblemColumn(n+1)]; !ok {
			return n
		}
		n++
	}
}

func maxNumber(rows []fileutil.Row, key string) (int, error) {
	m := 0
	for _, r := range rows {
		n, err := strconv.Atoi(r[key])
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q", key, r[key])
		}
		m = max(m, n)
	}
	return m, nil
}

var extRE = regexp.MustCompile(`^.*\.`)

func imageExt(name string) string {
	ext := strings.ToLower(extRE.ReplaceAllString(name, ""))
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}

// copyImage copies the unpacked download for url into dst below topDir and
// returns the site URL of the copy.
func copyImage(cfg *sitegen.Config, topDir, url, srcDir, kind string, dst []string) (string, error) {
	src, err := regdata.FileURLToLocal(url, srcDir, kind)
	if err != nil {
		return "", err
	}
	dst[len(dst)-1] += "." + imageExt(filepath.Base(src))
	if err := fileutil.CopyFile(src, filepath.Join(append([]string{topDir}, dst...)...)); err != nil {
		return "", err
	}
	return cfg.URLBase + strings.Join(dst, "/"), nil
}

// Import merges the public data for one finished event, downloaded from
// the registration system into inputDir (countries.csv, people.csv,
// scores-rss.xml and the unpacked flags/ and photos/ archives), into the
// site rooted at topDir. Countries and people keep the number given in
// Generic Number; new ones are numbered after the existing maximum.
func Import(ctx context.Context, cfg *sitegen.Config, topDir, inputDir string) error {
	lock, err := fileutil.LockDir(topDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	files := csvsource.DataFiles(topDir, cfg.ShortNameURLPlural)
	countries, err := fileutil.ReadUTF8CSV(files.Countries)
	if err != nil {
		return err
	}
	maxCountry, err := maxNumber(countries, olympiad.ColCountryNumber)
	if err != nil {
		return err
	}

	newCountries, err := fileutil.ReadUTF8CSV(filepath.Join(inputDir, "countries.csv"))
	if err != nil {
		return err
	}
	event := ""
	countryIndex := make(map[string]string)
	for _, c := range newCountries {
		if event == "" {
			event = c[cfg.NumKey]
		}
		if c[cfg.NumKey] != event {
			return ErrWrongEventCountry
		}
		number := c[olympiad.ColGenericNumber]
		delete(c, olympiad.ColGenericNumber)
		if number == "" {
			maxCountry++
			number = strconv.Itoa(maxCountry)
		}
		countryIndex[c[olympiad.ColCountryNumber]] = number
		c[olympiad.ColCountryNumber] = number
		if c[olympiad.ColFlagURL] != "" {
			dst := []string{"countries", "country" + number, "flag" + event}
			url, err := copyImage(cfg, topDir, c[olympiad.ColFlagURL], filepath.Join(inputDir, "flags"), "flag", dst)
			if err != nil {
				return err
			}
			c[olympiad.ColFlagURL] = url
		}
	}
	if event == "" {
		return ErrNoCountries
	}
	for _, c := range countries {
		if c[cfg.NumKey] == event {
			return ErrAlreadyPresent
		}
	}
	countries = append(countries, newCountries...)
	if err := fileutil.WriteUTF8CSV(files.Countries, countries, CountriesHeader(cfg)); err != nil {
		return err
	}

	people, err := fileutil.ReadUTF8CSV(files.People)
	if err != nil {
		return err
	}
	maxPerson, err := maxNumber(people, olympiad.ColPersonNumber)
	if err != nil {
		return err
	}
	numProblems := 0
	for _, p := range people {
		numProblems = maxProblems(p, numProblems)
	}

	newPeople, err := fileutil.ReadUTF8CSV(filepath.Join(inputDir, "people.csv"))
	if err != nil {
		return err
	}
	photos := make(map[string]int)
	for _, p := range newPeople {
		if p[cfg.NumKey] != event {
			return ErrWrongEventPerson
		}
		country, ok := countryIndex[p[olympiad.ColCountryNumber]]
		if !ok {
			return fmt.Errorf("person from unknown country %s", p[olympiad.ColCountryNumber])
		}
		p[olympiad.ColCountryNumber] = country
		number := p[olympiad.ColGenericNumber]
		delete(p, olympiad.ColGenericNumber)
		if number == "" {
			maxPerson++
			number = strconv.Itoa(maxPerson)
		}
		p[olympiad.ColPersonNumber] = number
		numProblems = maxProblems(p, numProblems)
		if p[olympiad.ColPhotoURL] != "" {
			photos[number]++
			name := "photo" + event
			if photos[number] > 1 {
				name += "-" + strconv.Itoa(photos[number])
			}
			dst := []string{"people", "person" + number, name}
			url, err := copyImage(cfg, topDir, p[olympiad.ColPhotoURL], filepath.Join(inputDir, "photos"), "photo", dst)
			if err != nil {
				return err
			}
			p[olympiad.ColPhotoURL] = url
		}
	}
	for _, p := range people {
		if p[cfg.NumKey] == event {
			return ErrAlreadyPresent
		}
	}
	people = append(people, newPeople...)
	if err := fileutil.WriteUTF8CSV(files.People, people, PeopleHeader(cfg, numProblems)); err != nil {
		return err
	}

	rss := filepath.Join(topDir, cfg.ShortNameURLPlural, cfg.ShortNameURL+event, "scoreboard", "rss.xml")
	if err := fileutil.CopyFile(filepath.Join(inputDir, "scores-rss.xml"), rss); err != nil {
		return err
	}
	logger.Info(ctx, "event imported",
		zap.String("event", event),
		zap.Int("countries", len(newCountries)),
		zap.Int("people", len(newPeople)))
	return nil
}
