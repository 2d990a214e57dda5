package fileutil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ini/ini"
)

// BooleanStates lists the accepted spellings of boolean configuration values.
var BooleanStates = map[string]bool{
	"1": true, "yes": true, "true": true, "on": true,
	"0": false, "no": false, "false": false, "off": false,
}

// ParseBool parses a configuration boolean, ignoring case.
func ParseBool(s string) (bool, error) {
	v, ok := BooleanStates[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, fmt.Errorf("not a boolean: %q", s)
	}
	return v, nil
}

// LoadINI parses INI content from a file path or a byte slice. Section
// and key names are case-insensitive. Values are kept verbatim, so ";" or
// "#" inside a value and surrounding quotes are part of it.
func LoadINI(source interface{}) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		Insensitive:             true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
	}, source)
}

// ConfigValues holds the typed values read from one configuration section.
type ConfigValues struct {
	Strings  map[string]string
	Ints     map[string]int
	IntNones map[string]*int
	Bools    map[string]bool
}

// ConfigKeys lists the keys to read, grouped by type. Every key is required.
type ConfigKeys struct {
	Strings  []string
	Ints     []string
	IntNones []string
	Bools    []string
}

// ReadConfig reads section of the INI file at path.
func ReadConfig(path, section string, keys ConfigKeys) (*ConfigValues, error) {
	f, err := LoadINI(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return readSection(f, section, keys)
}

// ReadConfigBytes is ReadConfig over in-memory content.
func ReadConfigBytes(data []byte, section string, keys ConfigKeys) (*ConfigValues, error) {
	f, err := LoadINI(data)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return readSection(f, section, keys)
}

func readSection(f *ini.File, section string, keys ConfigKeys) (*ConfigValues, error) {
	sec, err := f.GetSection(strings.ToLower(section))
	if err != nil {
		return nil, fmt.Errorf("missing section %s", section)
	}
	get := func(k string) (string, error) {
		key, err := sec.GetKey(strings.ToLower(k))
		if err != nil {
			return "", fmt.Errorf("missing config key %s", k)
		}
		return key.Value(), nil
	}

	out := &ConfigValues{
		Strings:  make(map[string]string, len(keys.Strings)),
		Ints:     make(map[string]int, len(keys.Ints)),
		IntNones: make(map[string]*int, len(keys.IntNones)),
		Bools:    make(map[string]bool, len(keys.Bools)),
	}
	for _, k := range keys.Strings {
		v, err := get(k)
		if err != nil {
			return nil, err
		}
		out.Strings[k] = v
	}
	for _, k := range keys.Ints {
		v, err := get(k)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("config key %s: invalid integer %q", k, v)
		}
		out.Ints[k] = n
	}
	for _, k := range keys.IntNones {
		v, err := get(k)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(v) == "" {
			out.IntNones[k] = nil
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("config key %s: invalid integer %q", k, v)
		}
		out.IntNones[k] = &n
	}
	for _, k := range keys.Bools {
		v, err := get(k)
		if err != nil {
			return nil, err
		}
		b, err := ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("config key %s: %w", k, err)
		}
		out.Bools[k] = b
	}
	return out, nil
}
