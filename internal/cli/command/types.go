package command

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"matholymp/internal/fileutil"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldInt64
	FieldBool
	FieldStringList
	FieldInt64List
	// FieldScores is a list of CODE=score pairs separated by commas.
	FieldScores
	// FieldFile names a local file sent as a multipart file part.
	FieldFile
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
	// Query sends the field in the query string instead of the body.
	Query bool
	// Local fields are used by the client and never sent.
	Local bool
}

// Body selects how the non-path fields are sent.
type Body int

const (
	BodyJSON Body = iota
	BodyMultipart
	BodyNone
)

// Command defines a CLI command binding.
type Command struct {
	Resource     string
	Action       string
	Method       string
	PathTemplate string
	RequiresAuth bool
	Body         Body
	// Download marks responses that are files rather than JSON; they are
	// written to the path given by out=.
	Download bool
	Fields   []Field
}

// Key returns the registry key "resource action".
func (c Command) Key() string {
	return c.Resource + " " + c.Action
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ParseInt(value string) (int, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 32)
	return int(n), err
}

func ParseStringList(value string) []string {
	raw := strings.Split(value, ",")
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func ParseInt64List(value string) ([]int64, error) {
	items := ParseStringList(value)
	result := make([]int64, 0, len(items))
	for _, item := range items {
		n, err := ParseInt64(item)
		if err != nil {
			return nil, fmt.Errorf("invalid int list value: %w", err)
		}
		result = append(result, n)
	}
	return result, nil
}

// ParseScores parses "ABC1=7,ABC2=" into a map; an empty score is kept
// as the empty string.
func ParseScores(value string) (map[string]string, error) {
	result := make(map[string]string)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, score, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(code) == "" {
			return nil, fmt.Errorf("invalid score entry %q, expected CODE=score", item)
		}
		result[strings.TrimSpace(code)] = strings.TrimSpace(score)
	}
	return result, nil
}

// ParseBool accepts the same spellings as configuration files.
func ParseBool(value string) (bool, error) {
	return fileutil.ParseBool(strings.TrimSpace(value))
}

func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %w", err)
	}
	return data, nil
}
