package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"planline/internal/config"
	"planline/internal/db"
	"planline/internal/engine"
	"planline/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

var actorHeader = map[string]string{"X-Actor-Id": "tester"}

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default())
	e.Now = func() time.Time { return time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC) }
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{JWTSecret: "test-secret", AllowLegacyActorHeader: true},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
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
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestItemLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/items", map[string]any{
		"title": "Design review",
		"kind":  "meeting",
		"start": "2025-04-07T09:00:00Z",
		"end":   "2025-04-07T10:00:00Z",
	}, actorHeader)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d: %s", res.StatusCode, data)
	}
	var created ItemResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/items/"+created.ID+"/drop", map[string]any{
		"day":         "2025-04-08",
		"slot_minute": 11 * 60,
	}, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("drop = %d: %s", res.StatusCode, data)
	}
	var moved ItemResponse
	if err := json.Unmarshal(data, &moved); err != nil {
		t.Fatalf("decode drop: %v", err)
	}
	if moved.Start == nil || *moved.Start != "2025-04-08T11:00:00Z" {
		t.Fatalf("drop start = %v", moved.Start)
	}
	if moved.End == nil || *moved.End != "2025-04-08T12:00:00Z" {
		t.Fatalf("drop end = %v", moved.End)
	}

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/v0/calendar/items/"+created.ID, nil, actorHeader)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete = %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/calendar/items/"+created.ID, nil, actorHeader)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted = %d", res.StatusCode)
	}
}

func TestCreateItemRejectionEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/calendar/items", map[string]any{
		"title": "Late meeting",
		"kind":  "meeting",
		"start": "2025-04-07T10:00:00Z",
		"end":   "2025-04-07T09:00:00Z",
	}, actorHeader)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("reversed create = %d: %s", res.StatusCode, data)
	}
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error.Code != "end_before_start" {
		t.Fatalf("error code = %q", envelope.Error.Code)
	}
}

func TestAgendaEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	for _, body := range []map[string]any{
		{"title": "a", "kind": "meeting", "start": "2025-04-07T09:00:00Z", "end": "2025-04-07T10:00:00Z"},
		{"title": "b", "kind": "meeting", "start": "2025-04-07T09:30:00Z", "end": "2025-04-07T11:00:00Z"},
		{"title": "c", "kind": "meeting", "start": "2025-04-07T10:30:00Z", "end": "2025-04-07T12:00:00Z"},
	} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/items", body, actorHeader)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("seed item = %d: %s", res.StatusCode, data)
		}
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/calendar/agenda?anchor=2025-04-07&view=day", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("agenda = %d: %s", res.StatusCode, data)
	}
	var agenda struct {
		Days []struct {
			Date  string `json:"date"`
			Timed []struct {
				Item ItemResponse `json:"item"`
				Lane int          `json:"lane"`
			} `json:"timed"`
			TimedLanes int `json:"timed_lanes"`
		} `json:"days"`
	}
	if err := json.Unmarshal(data, &agenda); err != nil {
		t.Fatalf("decode agenda: %v", err)
	}
	if len(agenda.Days) != 1 || agenda.Days[0].TimedLanes != 2 {
		t.Fatalf("agenda layout = %+v", agenda.Days)
	}
	lanes := map[string]int{}
	for _, e := range agenda.Days[0].Timed {
		lanes[e.Item.Title] = e.Lane
	}
	if lanes["a"] != 0 || lanes["b"] != 1 || lanes["c"] != 0 {
		t.Fatalf("lanes = %v", lanes)
	}
}

func TestRangeEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/calendar/range?anchor=2025-01-15&view=quarter", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("range = %d: %s", res.StatusCode, data)
	}
	var r RangeResponse
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode range: %v", err)
	}
	if r.From != "2025-01-01" || r.To != "2025-03-31" || r.Label != "Q1 2025" {
		t.Fatalf("quarter range = %+v", r)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/calendar/agenda", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no auth = %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health = %d", res.StatusCode)
	}
}

func TestDevLoginAndJWT(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{"actor_id": "tester"}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("dev login = %d: %s", res.StatusCode, data)
	}
	var login DevLoginResponse
	if err := json.Unmarshal(data, &login); err != nil || login.Token == "" {
		t.Fatalf("decode login: %v %s", err, data)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me = %d: %s", res.StatusCode, data)
	}
	var who WhoAmIResponse
	if err := json.Unmarshal(data, &who); err != nil || who.ActorID != "tester" || who.Source != "jwt" {
		t.Fatalf("whoami = %+v %v", who, err)
	}
}

func TestCategoryRoutes(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	ids := map[string]string{}
	for _, body := range []map[string]any{
		{"title": "Standup", "kind": "meeting", "start": "2025-04-07T09:00:00Z", "end": "2025-04-07T09:15:00Z"},
		{"title": "Pack slides", "kind": "task"},
		{"title": "Dentist", "kind": "appointment", "start": "2025-04-09T14:00:00Z", "end": "2025-04-09T15:00:00Z"},
	} {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/items", body, actorHeader)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("seed item = %d: %s", res.StatusCode, data)
		}
		var created ItemResponse
		if err := json.Unmarshal(data, &created); err != nil {
			t.Fatalf("decode seed: %v", err)
		}
		ids[created.Kind] = created.ID
	}

	// each category route sees only its own kinds
	for category, want := range map[string]string{
		"events":       "Standup",
		"todos":        "Pack slides",
		"appointments": "Dentist",
	} {
		res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/calendar/"+category, nil, actorHeader)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("list %s = %d: %s", category, res.StatusCode, data)
		}
		var list ItemListResponse
		if err := json.Unmarshal(data, &list); err != nil {
			t.Fatalf("decode %s list: %v", category, err)
		}
		if len(list.Items) != 1 || list.Items[0].Title != want {
			t.Fatalf("%s list = %+v, want only %q", category, list.Items, want)
		}
	}

	// appointment create defaults the kind
	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/appointments", map[string]any{
		"title": "Vet",
		"start": "2025-04-10T10:00:00Z",
		"end":   "2025-04-10T10:30:00Z",
	}, actorHeader)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create appointment = %d: %s", res.StatusCode, data)
	}
	var appt ItemResponse
	if err := json.Unmarshal(data, &appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.Kind != "appointment" {
		t.Fatalf("default appointment kind = %q", appt.Kind)
	}

	// a tray kind does not belong on the events route
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/calendar/events", map[string]any{
		"title": "Stray",
		"kind":  "task",
	}, actorHeader)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("create task via events = %d: %s", res.StatusCode, data)
	}

	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/v0/calendar/events/"+ids["task"], nil, actorHeader)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("task fetched via events = %d", res.StatusCode)
	}
}

func TestPrefsRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/v0/prefs", map[string]any{
		"view_mode":   "quarter",
		"anchor_date": "2025-06-01",
	}, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("save prefs = %d: %s", res.StatusCode, data)
	}
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/prefs", nil, actorHeader)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get prefs = %d: %s", res.StatusCode, data)
	}
	var p PrefsResponse
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("decode prefs: %v", err)
	}
	if p.ViewMode != "quarter" || p.AnchorDate != "2025-06-01" {
		t.Fatalf("prefs = %+v", p)
	}
}
