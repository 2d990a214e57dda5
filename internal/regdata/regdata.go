// Package regdata handles data downloaded from the registration system.
package regdata

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	fileURLPrefixRE = regexp.MustCompile(`^.*?/file`)
	fileURLRestRE   = regexp.MustCompile(`^([0-9]+)/(.*)`)
	badNameCharRE   = regexp.MustCompile(`[^a-zA-Z0-9_.]`)
	upToExtRE       = regexp.MustCompile(`^.*\.`)
	noExtRE         = regexp.MustCompile(`^[^.]*$`)
	langDropRE      = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// FileURLToLocal converts a registration system download URL of the form
// ".../file<id>/<name>" into the path where the unpacked ZIP export keeps
// that file: dir/<kind><id>/<kind>.<ext>.
func FileURLToLocal(fileURL, dir, kind string) (string, error) {
	rest := fileURLPrefixRE.ReplaceAllString(fileURL, "")
	m := fileURLRestRE.FindStringSubmatch(rest)
	if m == nil {
		return "", fmt.Errorf("bad file URL: %s", fileURL)
	}
	name, err := url.PathUnescape(m[2])
	if err != nil {
		return "", fmt.Errorf("bad file URL %s: %w", fileURL, err)
	}
	name = badNameCharRE.ReplaceAllString(name, "_")
	name = upToExtRE.ReplaceAllString(name, kind+".")
	name = noExtRE.ReplaceAllString(name, kind)
	return filepath.Join(dir, kind+m[1], name), nil
}

// LangToFilename converts a language name into the form used in paper
// file names.
func LangToFilename(lang string) string {
	lang = strings.ReplaceAll(lang, " ", "-")
	return langDropRE.ReplaceAllString(lang, "")
}
