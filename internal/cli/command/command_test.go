package command

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistryKeysUnique(t *testing.T) {
	commands := Commands()
	if len(Registry()) != len(commands) {
		t.Fatalf("expected %d unique commands, got %d", len(commands), len(Registry()))
	}
	for _, cmd := range commands {
		for _, field := range cmd.Fields {
			if field.Type == FieldFile && cmd.Body != BodyMultipart {
				t.Fatalf("expected multipart body for %s with file field %s", cmd.Key(), field.Name)
			}
		}
	}
}

func TestBuildPathParams(t *testing.T) {
	params := Params{}
	params.Set("id", "99")
	req, err := BuildRequest(Registry()["country get"], params)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if req.Path != "/api/v1/countries/99" || req.Body != nil {
		t.Fatalf("expected path /api/v1/countries/99 without body, got %q %q", req.Path, req.Body)
	}

	if _, err := BuildRequest(Registry()["country get"], Params{}); err == nil || !strings.Contains(err.Error(), "missing path parameter: id") {
		t.Fatalf("expected missing path parameter, got %v", err)
	}
}

func TestBuildPersonUpdate(t *testing.T) {
	params := Params{}
	params.Set("id", "7")
	params.Set("role", "Contestant 1")
	params.Set("languages", "English, French")
	params.Set("guide_for", "3,4")
	params.Set("event_photos_consent", "No")
	params.Set("room", "")

	req, err := BuildRequest(Registry()["person update"], params)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if req.Method != "PUT" || req.Path != "/api/v1/people/7" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("unmarshal body failed: %v", err)
	}
	if _, ok := payload["id"]; ok {
		t.Fatalf("expected path parameter to stay out of the body")
	}
	if payload["primary_role"] != "Contestant 1" {
		t.Fatalf("expected alias role to map to primary_role, got %v", payload["primary_role"])
	}
	langs, _ := payload["languages"].([]interface{})
	if len(langs) != 2 || langs[1] != "French" {
		t.Fatalf("expected two languages, got %v", payload["languages"])
	}
	guide, _ := payload["guide_for"].([]interface{})
	if len(guide) != 2 || guide[0] != float64(3) {
		t.Fatalf("expected guide_for [3 4], got %v", payload["guide_for"])
	}
	if payload["event_photos_consent"] != false {
		t.Fatalf("expected consent false, got %v", payload["event_photos_consent"])
	}
	if v, ok := payload["room_number"]; !ok || v != "" {
		t.Fatalf("expected explicit empty room_number, got %v %v", v, ok)
	}
	if _, ok := payload["family_name"]; ok {
		t.Fatalf("expected fields not given to be omitted")
	}
}

func TestBuildScores(t *testing.T) {
	params := Params{}
	params.Set("country", "3")
	params.Set("p", "2")
	params.Set("scores", "ABC1=7, ABC2=,ABC3=0")
	req, err := BuildRequest(Registry()["scores enter"], params)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	var payload struct {
		CountryID int64             `json:"country_id"`
		Problem   int               `json:"problem"`
		Scores    map[string]string `json:"scores"`
	}
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		t.Fatalf("unmarshal body failed: %v", err)
	}
	if payload.CountryID != 3 || payload.Problem != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Scores["ABC1"] != "7" || payload.Scores["ABC2"] != "" || payload.Scores["ABC3"] != "0" || len(payload.Scores) != 3 {
		t.Fatalf("unexpected scores %v", payload.Scores)
	}

	params.Set("scores", "ABC1")
	if _, err := BuildRequest(Registry()["scores enter"], params); err == nil {
		t.Fatalf("expected invalid score entry error")
	}
}

func TestBuildInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		cmd   string
		key   string
		value string
	}{
		{name: "int", cmd: "event boundaries", key: "gold", value: "x"},
		{name: "bool", cmd: "event registration", key: "enabled", value: "maybe"},
		{name: "int64 list", cmd: "person create", key: "guide_for", value: "1,a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := Params{}
			params.Set(tc.key, tc.value)
			_, err := BuildRequest(Registry()[tc.cmd], params)
			if err == nil || !strings.Contains(err.Error(), "invalid "+tc.key) {
				t.Fatalf("expected invalid %s error, got %v", tc.key, err)
			}
		})
	}
}

func TestBuildExportQuery(t *testing.T) {
	params := Params{}
	params.Set("private", "yes")
	params.Set("out", "people.csv")
	req, err := BuildRequest(Registry()["export people"], params)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if req.Path != "/api/v1/exports/people.csv?private=1" || req.Body != nil {
		t.Fatalf("unexpected request %q %q", req.Path, req.Body)
	}
}

func TestBuildMultipartUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flag.png")
	if err := os.WriteFile(path, []byte("png-bytes"), 0o600); err != nil {
		t.Fatalf("write temp file failed: %v", err)
	}
	params := Params{}
	params.Set("kind", "flag")
	params.Set("file", path)
	req, err := BuildRequest(Registry()["file upload"], params)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	mediaType, mp, err := mime.ParseMediaType(req.Headers["Content-Type"])
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart content type, got %q", req.Headers["Content-Type"])
	}
	r := multipart.NewReader(bytes.NewReader(req.Body), mp["boundary"])
	got := map[string]string{}
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part failed: %v", err)
		}
		data, _ := io.ReadAll(part)
		got[part.FormName()] = string(data)
		if part.FormName() == "file" && part.FileName() != "flag.png" {
			t.Fatalf("expected file name flag.png, got %q", part.FileName())
		}
	}
	if got["kind"] != "flag" || got["file"] != "png-bytes" {
		t.Fatalf("unexpected parts %v", got)
	}

	params.Set("file", filepath.Join(dir, "missing.png"))
	if _, err := BuildRequest(Registry()["file upload"], params); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseScores(t *testing.T) {
	got, err := ParseScores("")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty scores, got %v %v", got, err)
	}
	if _, err := ParseScores("=7"); err == nil {
		t.Fatalf("expected error for empty code")
	}
}
