package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"matholymp/internal/common/auth"
	"matholymp/internal/common/cache"
	"matholymp/internal/common/db"
	"matholymp/internal/common/storage"
	"matholymp/internal/registration/eventconfig"
	"matholymp/internal/registration/repository"
	"matholymp/internal/registration/service"
	pkgerrors "matholymp/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testEventConfig = `[main]
matholymp_short_name = XMO
matholymp_year = 2026
matholymp_event_number = 7
matholymp_tracker_url = https://reg.example.org/
matholymp_generic_url_base = https://www.example.org/
matholymp_num_problems = 2
matholymp_marks_per_problem = 7 7
matholymp_num_contestants_per_team = 2
matholymp_num_languages = 2
matholymp_earliest_date_of_birth = 2006-04-02
matholymp_sanity_date_of_birth = 2016-01-01
matholymp_earliest_arrival_date = 2026-04-01
matholymp_latest_arrival_date = 2026-04-05
matholymp_earliest_departure_date = 2026-04-06
matholymp_latest_departure_date = 2026-04-10
matholymp_age_day_date = 2026-04-08
matholymp_initial_languages = English, French
`

type testServer struct {
	router *gin.Engine
	hub    *ScoreboardHub
	svc    *service.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := eventconfig.Parse([]byte(testEventConfig))
	if err != nil {
		t.Fatalf("parse event config: %v", err)
	}
	database, err := db.Open(&db.Config{Driver: "sqlite", DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := repository.Migrate(context.Background(), database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	provider := db.NewManager(database)
	repos := repository.New(provider)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store, err := cache.NewRedisCacheWithClient(client)
	if err != nil {
		t.Fatalf("redis cache: %v", err)
	}

	svc := service.New(cfg, service.Deps{
		Provider: provider,
		Repos:    repos,
		Cache:    store,
		Storage:  storage.NewMemoryStorage(),
	}, service.Config{})
	if err := svc.Initialise(context.Background(), service.InitOptions{AdminPassword: "secret"}); err != nil {
		t.Fatalf("initialise: %v", err)
	}
	authSvc := service.NewAuthService(repos.Users, auth.NewTokenManager("test-secret", "matholymp", time.Hour), store, service.AuthServiceConfig{})

	hub := NewScoreboardHub()
	router := gin.New()
	RegisterRoutes(router, Handlers{Service: svc, Auth: authSvc, Hub: hub})
	return &testServer{router: router, hub: hub, svc: svc}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: username, Password: password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d %s", username, rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.AccessToken
}

func (s *testServer) createCountry(t *testing.T, token string, req CountryRequest) service.CountryResult {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/countries", token, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create country: status %d %s", rec.Code, rec.Body.String())
	}
	var res service.CountryResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode country: %v", err)
	}
	return res
}

func TestLoginAndCountries(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Username: "admin", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized || env.Code != int(pkgerrors.InvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/countries", "", CountryRequest{Code: "ABC", Name: "Alphabetia"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}

	admin := s.login(t, "admin", "secret")
	res := s.createCountry(t, admin, CountryRequest{Code: " ABC ", Name: "Alphabetia", ContactEmails: []string{"lead@example.org"}})
	if res.Country.Code != "ABC" || res.User == nil || res.Password == "" {
		t.Fatalf("unexpected country result %+v", res)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/countries", admin, CountryRequest{Code: "abc", Name: "X"})
	if rec.Code != http.StatusBadRequest || env.Message != "Country codes must be all capital letters" {
		t.Fatalf("expected validation error, got %d %s", rec.Code, rec.Body.String())
	}

	registrar := s.login(t, "ABC_reg", res.Password)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/countries", registrar, CountryRequest{Code: "DEF", Name: "Defland"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden for registrar, got %d", rec.Code)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/countries", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list countries: %d", rec.Code)
	}
	var list []service.CountryView
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[1].Code != "ABC" || len(list[1].ContactEmails) != 0 {
		t.Fatalf("unexpected public country list %+v", list)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/countries/x", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad id, got %d", rec.Code)
	}
	id := strconv.FormatInt(res.Country.ID, 10)
	rec, _ = s.do(t, http.MethodDelete, "/api/v1/countries/"+id, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("retire: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/countries/"+id, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected retired country to be gone, got %d", rec.Code)
	}
}

func TestPeopleAndScores(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "secret")
	abc := s.createCountry(t, admin, CountryRequest{Code: "ABC", Name: "Alphabetia"}).Country.ID

	person := PersonRequest{
		CountryID: abc, GivenName: "Ann", FamilyName: "Smith", Gender: "Female", PrimaryRole: "Contestant 1",
		Languages: []string{"English"}, DateOfBirth: "2009-05-01", TShirt: "M", ArrivalDate: "2026-04-02", ArrivalTime: "14:30",
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/people", admin, person)
	if rec.Code != http.StatusOK {
		t.Fatalf("create person: %d %s", rec.Code, rec.Body.String())
	}
	var view service.PersonView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode person: %v", err)
	}
	if view.ContestantCode != "ABC1" || view.Private == nil || view.Private.ArrivalTime != "14:30" {
		t.Fatalf("unexpected person %+v", view)
	}

	bad := person
	bad.PrimaryRole, bad.DateOfBirth = "Contestant 2", "2009-13-01"
	rec, env = s.do(t, http.MethodPost, "/api/v1/people", admin, bad)
	if rec.Code != http.StatusBadRequest || env.Code != int(pkgerrors.ValidationFailed) {
		t.Fatalf("expected bad date, got %d %s", rec.Code, rec.Body.String())
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/people?country="+strconv.FormatInt(abc, 10), "", nil)
	if rec.Code != http.StatusOK || strings.Contains(string(env.Data), "date_of_birth") {
		t.Fatalf("expected public people list, got %d %s", rec.Code, env.Data)
	}

	rec, _ = s.do(t, http.MethodPut, "/api/v1/event/registration", admin, map[string]bool{"enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable registration: %d %s", rec.Code, rec.Body.String())
	}
	rec, env = s.do(t, http.MethodPost, "/api/v1/scores", admin, EnterScoresRequest{CountryID: abc, Problem: 1, Scores: map[string]string{"ABC1": "9"}})
	if rec.Code != http.StatusBadRequest || env.Message != "Invalid score specified for ABC1" {
		t.Fatalf("expected invalid score, got %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/scores", admin, EnterScoresRequest{CountryID: abc, Problem: 1, Scores: map[string]string{"ABC1": "6"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("enter scores: %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/scoreboard", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("scoreboard: %d", rec.Code)
	}
	var sb service.Scoreboard
	if err := json.Unmarshal(rec.Body.Bytes(), &sb); err != nil {
		t.Fatalf("decode scoreboard: %v", err)
	}
	if len(sb.Contestants) != 1 || sb.Contestants[0].Total != 6 {
		t.Fatalf("unexpected scoreboard %s", rec.Body.String())
	}

	rec, _ = s.do(t, http.MethodGet, "/country"+strconv.FormatInt(abc, 10)+"/scores-rss.xml", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ABC P1: ABC1 = 6") {
		t.Fatalf("unexpected country feed %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodGet, "/elsewhere/scores-rss.xml", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/exports/scores.csv", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "scores.csv") {
		t.Fatalf("unexpected scores csv %d %v", rec.Code, rec.Header())
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/exports/people.csv?private=yes", "", nil)
	if rec.Code != http.StatusUnauthorized && rec.Code != http.StatusForbidden {
		t.Fatalf("expected private csv to be refused, got %d", rec.Code)
	}
	rec, _ = s.do(t, http.MethodGet, "/api/v1/status", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, data := range files {
		fw, err := w.CreateFormFile(name, name+".bin")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestAddArrivalPoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "secret")

	rec, _ := s.do(t, http.MethodPost, "/api/v1/lookups/arrivals", admin, ArrivalPointRequest{Name: " Airport "})
	if rec.Code != http.StatusOK {
		t.Fatalf("add arrival point: %d %s", rec.Code, rec.Body.String())
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/lookups/arrivals", admin, ArrivalPointRequest{Name: "Airport"})
	if env.Code != int(pkgerrors.RecordAlreadyExists) {
		t.Fatalf("expected duplicate arrival point, got %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodPost, "/api/v1/lookups/arrivals", "", ArrivalPointRequest{Name: "Port"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", rec.Code)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/lookups", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"Airport"`) {
		t.Fatalf("expected new arrival point in lookups, got %d %s", rec.Code, env.Data)
	}
}

func TestUploadAndAttachment(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "secret")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

	rec, _ := s.send(t, multipartRequest(t, "/api/v1/files", map[string]string{"kind": "banner"}, map[string][]byte{"file": png}), admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad kind, got %d", rec.Code)
	}
	rec, env := s.send(t, multipartRequest(t, "/api/v1/files", map[string]string{"kind": "flag"}, map[string][]byte{"file": png}), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var up UploadResponse
	if err := json.Unmarshal(env.Data, &up); err != nil || up.ID == 0 {
		t.Fatalf("decode upload: %v %s", err, env.Data)
	}

	rec, _ = s.do(t, http.MethodGet, "/attachments/file"+strconv.FormatInt(up.ID, 10)+"/file.bin", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Fatalf("unexpected attachment %d %v", rec.Code, rec.Header())
	}
	rec, _ = s.do(t, http.MethodGet, "/attachments/photo1/x.png", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}
}

func TestBulkCountriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin", "secret")
	csv := []byte("Code;Name\nDEF;Defland\n")

	rec, env := s.send(t, multipartRequest(t, "/api/v1/bulk/countries", map[string]string{"delimiter": ";"}, map[string][]byte{"csv_file": csv}), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk check: %d %s", rec.Code, rec.Body.String())
	}
	var checked service.BulkResult
	if err := json.Unmarshal(env.Data, &checked); err != nil {
		t.Fatalf("decode bulk: %v", err)
	}
	if checked.Committed || len(checked.Entries) != 1 {
		t.Fatalf("unexpected check %+v", checked)
	}

	rec, env = s.send(t, multipartRequest(t, "/api/v1/bulk/countries", map[string]string{"delimiter": ";", "csv_contents": checked.CSVContents}, nil), admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("bulk commit: %d %s", rec.Code, rec.Body.String())
	}
	var committed service.BulkResult
	if err := json.Unmarshal(env.Data, &committed); err != nil || !committed.Committed || committed.Entries[0].ID == 0 {
		t.Fatalf("unexpected commit %+v (%v)", committed, err)
	}
}

func TestScoreboardHub(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/scoreboard", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.hub.Notify(service.ChangeEvent{Type: service.EventScoresEntered, CountryID: 3, Problem: 2})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev service.ChangeEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != service.EventScoresEntered || ev.CountryID != 3 || ev.Problem != 2 {
		t.Fatalf("unexpected event %+v", ev)
	}

	_ = conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for s.hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
