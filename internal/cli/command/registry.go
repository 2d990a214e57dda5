package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

var outField = Field{Name: "out", Aliases: []string{"o"}, Prompt: "output file", Type: FieldString, Required: true, Local: true}

func idField(prompt string) Field {
	return Field{Name: "id", Prompt: prompt, Type: FieldInt64, Required: true}
}

func countryFields(create bool) []Field {
	return []Field{
		{Name: "code", Prompt: "code", Type: FieldString, Required: create},
		{Name: "name", Prompt: "name", Type: FieldString, Required: create},
		{Name: "official", Prompt: "official (yes/no)", Type: FieldBool},
		{Name: "generic_url", Aliases: []string{"url"}, Prompt: "generic_url", Type: FieldString},
		{Name: "contact_emails", Aliases: []string{"emails"}, Prompt: "contact_emails (comma-separated)", Type: FieldStringList},
		{Name: "flag_file_id", Aliases: []string{"flag"}, Prompt: "flag_file_id", Type: FieldInt64},
	}
}

func personFields(create bool) []Field {
	return []Field{
		{Name: "country_id", Aliases: []string{"country"}, Prompt: "country_id", Type: FieldInt64, Required: create},
		{Name: "given_name", Aliases: []string{"given"}, Prompt: "given_name", Type: FieldString, Required: create},
		{Name: "family_name", Aliases: []string{"family"}, Prompt: "family_name", Type: FieldString, Required: create},
		{Name: "gender", Prompt: "gender", Type: FieldString, Required: create},
		{Name: "primary_role", Aliases: []string{"role"}, Prompt: "primary_role", Type: FieldString, Required: create},
		{Name: "other_roles", Prompt: "other_roles (comma-separated)", Type: FieldStringList},
		{Name: "guide_for", Prompt: "guide_for (comma-separated country ids)", Type: FieldInt64List},
		{Name: "languages", Prompt: "languages (comma-separated)", Type: FieldStringList, Required: create},
		{Name: "date_of_birth", Aliases: []string{"dob"}, Prompt: "date_of_birth (YYYY-MM-DD)", Type: FieldString},
		{Name: "diet", Prompt: "diet", Type: FieldString},
		{Name: "tshirt", Prompt: "tshirt", Type: FieldString, Required: create},
		{Name: "arrival_place", Prompt: "arrival_place", Type: FieldString},
		{Name: "arrival_date", Prompt: "arrival_date (YYYY-MM-DD)", Type: FieldString},
		{Name: "arrival_time", Prompt: "arrival_time (HH:MM)", Type: FieldString},
		{Name: "arrival_flight", Prompt: "arrival_flight", Type: FieldString},
		{Name: "departure_place", Prompt: "departure_place", Type: FieldString},
		{Name: "departure_date", Prompt: "departure_date (YYYY-MM-DD)", Type: FieldString},
		{Name: "departure_time", Prompt: "departure_time (HH:MM)", Type: FieldString},
		{Name: "departure_flight", Prompt: "departure_flight", Type: FieldString},
		{Name: "room_number", Aliases: []string{"room"}, Prompt: "room_number", Type: FieldString},
		{Name: "phone_number", Aliases: []string{"phone"}, Prompt: "phone_number", Type: FieldString},
		{Name: "passport_number", Prompt: "passport_number", Type: FieldString},
		{Name: "nationality", Prompt: "nationality", Type: FieldString},
		{Name: "event_photos_consent", Prompt: "event_photos_consent (yes/no)", Type: FieldBool},
		{Name: "generic_url", Aliases: []string{"url"}, Prompt: "generic_url", Type: FieldString},
		{Name: "extra_awards", Prompt: "extra_awards (comma-separated)", Type: FieldStringList},
		{Name: "photo_file_id", Aliases: []string{"photo"}, Prompt: "photo_file_id", Type: FieldInt64},
		{Name: "consent_form_file_id", Aliases: []string{"consent_form"}, Prompt: "consent_form_file_id", Type: FieldInt64},
	}
}

func userFields(create bool) []Field {
	return []Field{
		{Name: "username", Prompt: "username", Type: FieldString, Required: create},
		{Name: "password", Prompt: "password (empty to generate)", Type: FieldString},
		{Name: "email", Prompt: "email", Type: FieldString},
		{Name: "country_id", Aliases: []string{"country"}, Prompt: "country_id", Type: FieldInt64, Required: create},
		{Name: "roles", Prompt: "roles (comma-separated)", Type: FieldStringList, Required: create},
	}
}

func bulkFields() []Field {
	return []Field{
		{Name: "csv_file", Aliases: []string{"csv"}, Prompt: "csv_file", Type: FieldFile},
		{Name: "zip_file", Aliases: []string{"zip"}, Prompt: "zip_file", Type: FieldFile},
		{Name: "csv_contents", Prompt: "csv_contents", Type: FieldString},
		{Name: "zip_ref", Prompt: "zip_ref", Type: FieldString},
		{Name: "delimiter", Prompt: "delimiter", Type: FieldString},
	}
}

func export(action, path string, extra ...Field) Command {
	return Command{
		Resource:     "export",
		Action:       action,
		Method:       "GET",
		PathTemplate: path,
		Body:         BodyNone,
		Download:     true,
		Fields:       append(extra, outField),
	}
}

// Commands returns every CLI command in help order.
func Commands() []Command {
	return []Command{
		{
			Resource:     "auth",
			Action:       "login",
			Method:       "POST",
			PathTemplate: "/api/v1/auth/login",
			Fields: []Field{
				{Name: "username", Prompt: "username", Type: FieldString, Required: true},
				{Name: "password", Prompt: "password", Type: FieldString, Required: true},
			},
		},
		{Resource: "event", Action: "show", Method: "GET", PathTemplate: "/api/v1/event", Body: BodyNone},
		{Resource: "event", Action: "lookups", Method: "GET", PathTemplate: "/api/v1/lookups", Body: BodyNone},
		{
			Resource:     "event",
			Action:       "registration",
			Method:       "PUT",
			PathTemplate: "/api/v1/event/registration",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "enabled", Prompt: "enabled (yes/no)", Type: FieldBool, Required: true},
			},
		},
		{
			Resource:     "event",
			Action:       "boundaries",
			Method:       "PUT",
			PathTemplate: "/api/v1/event/medal-boundaries",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "gold", Prompt: "gold", Type: FieldInt, Required: true},
				{Name: "silver", Prompt: "silver", Type: FieldInt, Required: true},
				{Name: "bronze", Prompt: "bronze", Type: FieldInt, Required: true},
			},
		},
		{Resource: "event", Action: "status", Method: "GET", PathTemplate: "/api/v1/status", RequiresAuth: true, Body: BodyNone},

		{Resource: "country", Action: "list", Method: "GET", PathTemplate: "/api/v1/countries", Body: BodyNone},
		{Resource: "country", Action: "get", Method: "GET", PathTemplate: "/api/v1/countries/:id", Body: BodyNone, Fields: []Field{idField("country_id")}},
		{Resource: "country", Action: "create", Method: "POST", PathTemplate: "/api/v1/countries", RequiresAuth: true, Fields: countryFields(true)},
		{Resource: "country", Action: "update", Method: "PUT", PathTemplate: "/api/v1/countries/:id", RequiresAuth: true, Fields: append([]Field{idField("country_id")}, countryFields(false)...)},
		{Resource: "country", Action: "retire", Method: "DELETE", PathTemplate: "/api/v1/countries/:id", RequiresAuth: true, Body: BodyNone, Fields: []Field{idField("country_id")}},

		{
			Resource:     "person",
			Action:       "list",
			Method:       "GET",
			PathTemplate: "/api/v1/people",
			Body:         BodyNone,
			Fields: []Field{
				{Name: "country", Prompt: "country_id", Type: FieldInt64, Query: true},
			},
		},
		{Resource: "person", Action: "get", Method: "GET", PathTemplate: "/api/v1/people/:id", Body: BodyNone, Fields: []Field{idField("person_id")}},
		{Resource: "person", Action: "create", Method: "POST", PathTemplate: "/api/v1/people", RequiresAuth: true, Fields: personFields(true)},
		{Resource: "person", Action: "update", Method: "PUT", PathTemplate: "/api/v1/people/:id", RequiresAuth: true, Fields: append([]Field{idField("person_id")}, personFields(false)...)},
		{Resource: "person", Action: "retire", Method: "DELETE", PathTemplate: "/api/v1/people/:id", RequiresAuth: true, Body: BodyNone, Fields: []Field{idField("person_id")}},

		{Resource: "user", Action: "list", Method: "GET", PathTemplate: "/api/v1/users", RequiresAuth: true, Body: BodyNone},
		{Resource: "user", Action: "create", Method: "POST", PathTemplate: "/api/v1/users", RequiresAuth: true, Fields: userFields(true)},
		{Resource: "user", Action: "update", Method: "PUT", PathTemplate: "/api/v1/users/:id", RequiresAuth: true, Fields: append([]Field{idField("user_id")}, userFields(false)...)},
		{Resource: "user", Action: "retire", Method: "DELETE", PathTemplate: "/api/v1/users/:id", RequiresAuth: true, Body: BodyNone, Fields: []Field{idField("user_id")}},

		{
			Resource:     "scores",
			Action:       "enter",
			Method:       "POST",
			PathTemplate: "/api/v1/scores",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "country_id", Aliases: []string{"country"}, Prompt: "country_id", Type: FieldInt64, Required: true},
				{Name: "problem", Aliases: []string{"p"}, Prompt: "problem", Type: FieldInt, Required: true},
				{Name: "scores", Prompt: "scores (CODE=score, comma-separated)", Type: FieldScores, Required: true},
			},
		},
		{Resource: "scores", Action: "board", Method: "GET", PathTemplate: "/api/v1/scoreboard", Body: BodyNone},

		export("countries", "/api/v1/exports/countries.csv"),
		export("people", "/api/v1/exports/people.csv",
			Field{Name: "private", Prompt: "private (yes/no)", Type: FieldBool, Query: true}),
		export("scores", "/api/v1/exports/scores.csv"),
		export("flags", "/api/v1/exports/flags.zip"),
		export("photos", "/api/v1/exports/photos.zip"),
		export("rss", "/api/v1/exports/scores-rss.xml"),

		{
			Resource:     "file",
			Action:       "upload",
			Method:       "POST",
			PathTemplate: "/api/v1/files",
			RequiresAuth: true,
			Body:         BodyMultipart,
			Fields: []Field{
				{Name: "kind", Prompt: "kind (flag/photo/consent_form)", Type: FieldString, Required: true},
				{Name: "file", Prompt: "file", Type: FieldFile, Required: true},
			},
		},
		{Resource: "bulk", Action: "countries", Method: "POST", PathTemplate: "/api/v1/bulk/countries", RequiresAuth: true, Body: BodyMultipart, Fields: bulkFields()},
		{Resource: "bulk", Action: "people", Method: "POST", PathTemplate: "/api/v1/bulk/people", RequiresAuth: true, Body: BodyMultipart, Fields: bulkFields()},
	}
}

// Registry returns all CLI commands keyed by "resource action".
func Registry() map[string]Command {
	commands := Commands()
	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}
	query := url.Values{}
	var bodyFields []Field
	for _, field := range cmd.Fields {
		switch {
		case field.Local || strings.Contains(cmd.PathTemplate, ":"+field.Name):
		case field.Query:
			if v := params.Get(field.Name); v != "" {
				if field.Type == FieldBool {
					b, err := ParseBool(v)
					if err != nil {
						return RequestSpec{}, fmt.Errorf("invalid %s: %w", field.Name, err)
					}
					v = "0"
					if b {
						v = "1"
					}
				}
				query.Set(field.Name, v)
			}
		default:
			bodyFields = append(bodyFields, field)
		}
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	spec := RequestSpec{Method: cmd.Method, Path: path, Headers: map[string]string{}}
	switch cmd.Body {
	case BodyJSON:
		payload, err := buildPayload(bodyFields, params)
		if err != nil {
			return RequestSpec{}, err
		}
		spec.Body, err = json.Marshal(payload)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
		}
	case BodyMultipart:
		body, contentType, err := buildMultipart(bodyFields, params)
		if err != nil {
			return RequestSpec{}, err
		}
		spec.Body = body
		spec.Headers["Content-Type"] = contentType
	}
	return spec, nil
}

func buildPath(template string, params Params) (string, error) {
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		key := seg[1:]
		value := params.Get(key)
		if value == "" {
			return "", fmt.Errorf("missing path parameter: %s", key)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}

// buildPayload converts the given fields to typed JSON values. Fields
// that were not supplied are omitted.
func buildPayload(fields []Field, params Params) (map[string]interface{}, error) {
	payload := make(map[string]interface{})
	for _, field := range fields {
		if !params.Has(field.Name) {
			continue
		}
		raw := params.Get(field.Name)
		var (
			value interface{}
			err   error
		)
		switch field.Type {
		case FieldString:
			value = raw
		case FieldInt:
			if raw == "" {
				continue
			}
			value, err = ParseInt(raw)
		case FieldInt64:
			if raw == "" {
				continue
			}
			value, err = ParseInt64(raw)
		case FieldBool:
			if raw == "" {
				continue
			}
			value, err = ParseBool(raw)
		case FieldStringList:
			value = ParseStringList(raw)
		case FieldInt64List:
			value, err = ParseInt64List(raw)
		case FieldScores:
			value, err = ParseScores(raw)
		default:
			return nil, fmt.Errorf("field %s cannot be sent as JSON", field.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", field.Name, err)
		}
		payload[field.Name] = value
	}
	return payload, nil
}

func buildMultipart(fields []Field, params Params) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range fields {
		value := params.Get(field.Name)
		if value == "" {
			continue
		}
		if field.Type != FieldFile {
			if err := w.WriteField(field.Name, value); err != nil {
				return nil, "", err
			}
			continue
		}
		data, err := ReadFile(value)
		if err != nil {
			return nil, "", err
		}
		part, err := w.CreateFormFile(field.Name, filepath.Base(value))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Resources returns the sorted resource names, for completion.
func Resources(commands map[string]Command) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, cmd := range commands {
		if _, ok := seen[cmd.Resource]; !ok {
			seen[cmd.Resource] = struct{}{}
			out = append(out, cmd.Resource)
		}
	}
	sort.Strings(out)
	return out
}
