package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/dukerupert/notepad/internal/auth"
	"github.com/dukerupert/notepad/internal/database"
	"github.com/dukerupert/notepad/internal/model"
	"github.com/dukerupert/notepad/internal/notesapi"
	ws "github.com/dukerupert/notepad/internal/websocket"
)

type fakeAPI struct {
	mu      sync.Mutex
	records []model.Record
	created []notesapi.Payload
}

func (f *fakeAPI) List(ctx context.Context) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func (f *fakeAPI) Create(ctx context.Context, p notesapi.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	return nil
}

func (f *fakeAPI) Update(ctx context.Context, id string, p notesapi.Payload) error { return nil }
func (f *fakeAPI) Delete(ctx context.Context, id string) error                     { return nil }

type passkeyVerifier string

func (v passkeyVerifier) Verify(ctx context.Context, passkey string) error {
	if passkey != string(v) {
		return auth.ErrInvalidPasskey
	}
	return nil
}

func newTestServer(t *testing.T) (*Server, *sql.DB, *fakeAPI) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	api := &fakeAPI{records: []model.Record{{ID: []byte(`"n1"`), Title: "Groceries", Note: "milk"}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(db, passkeyVerifier("dojo123"), api, Options{SessionTTL: time.Hour}, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, db, api
}

func setupServer(t *testing.T) (*Server, *httptest.Server, *fakeAPI) {
	t.Helper()
	srv, _, api := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts, api
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func login(t *testing.T, c *http.Client, base string) {
	t.Helper()
	resp, err := c.PostForm(base+"/login", url.Values{"passkey": {"dojo123"}})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.Request.URL.Path != "/" {
		t.Fatalf("landed on %s, want /", resp.Request.URL.Path)
	}
	if !strings.Contains(string(body), "Login Successful") {
		t.Error("expected login toast on first page")
	}
}

func TestHealth(t *testing.T) {
	_, ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestProtectedRedirectsToLogin(t *testing.T) {
	_, ts, _ := setupServer(t)
	c := newClient(t)
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := c.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}

	req, _ := http.NewRequest("GET", ts.URL+"/notes", nil)
	req.Header.Set("HX-Request", "true")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatalf("get notes: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
}

func TestLoginFlow(t *testing.T) {
	_, ts, api := setupServer(t)
	c := newClient(t)
	login(t, c, ts.URL)

	// Logged in visitors skip the login page.
	resp, err := c.Get(ts.URL + "/login")
	if err != nil {
		t.Fatalf("get login: %v", err)
	}
	resp.Body.Close()
	if resp.Request.URL.Path != "/" {
		t.Errorf("landed on %s, want /", resp.Request.URL.Path)
	}

	req, _ := http.NewRequest("POST", ts.URL+"/notes", strings.NewReader(url.Values{"title": {"Call mom"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	resp, err = c.Do(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	resp.Body.Close()
	if len(api.created) != 1 {
		t.Fatalf("created = %d, want 1", len(api.created))
	}

	resp, err = c.Get(ts.URL + "/api/notes")
	if err != nil {
		t.Fatalf("get notes: %v", err)
	}
	var got struct {
		Notes []model.Note `json:"notes"`
		Total int          `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if got.Total != 2 {
		t.Errorf("total = %d, want 2", got.Total)
	}
	if len(got.Notes) == 0 || got.Notes[0].Title != "Call mom" {
		t.Errorf("first note = %+v, want Call mom", got.Notes)
	}

	resp, err = c.PostForm(ts.URL+"/logout", nil)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.Request.URL.Path != "/login" {
		t.Errorf("landed on %s, want /login", resp.Request.URL.Path)
	}
	if !strings.Contains(string(body), "Logged Out") {
		t.Error("expected logged out toast")
	}
}

func TestLoginRateLimited(t *testing.T) {
	_, ts, _ := setupServer(t)

	var last *http.Response
	for i := 0; i <= loginLimit.Requests; i++ {
		resp, err := http.PostForm(ts.URL+"/login", url.Values{"passkey": {"wrong"}})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		last = resp
	}
	if last.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last.StatusCode, http.StatusTooManyRequests)
	}
	if last.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestLoginRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	_, ts, _ := setupServer(t)

	var last *http.Response
	for i := 0; i <= loginLimit.Requests; i++ {
		req, _ := http.NewRequest("POST", ts.URL+"/login", strings.NewReader("passkey=wrong"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		last = resp
	}
	if last.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last.StatusCode, http.StatusTooManyRequests)
	}
}

func TestLiveSyncBroadcast(t *testing.T) {
	srv, ts, _ := setupServer(t)
	c := newClient(t)
	login(t, c, ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", &websocket.DialOptions{HTTPClient: c})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// The first session in a fresh database has id 1.
	for srv.hub.ClientCount("1") == 0 {
		if ctx.Err() != nil {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	req, _ := http.NewRequest("POST", ts.URL+"/notes/n1/reminder", nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	resp.Body.Close()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg ws.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != ws.MessageNotesChanged {
		t.Errorf("type = %q, want %q", msg.Type, ws.MessageNotesChanged)
	}
	if msg.Total != 1 {
		t.Errorf("total = %d, want 1", msg.Total)
	}
}

func TestCleanupSessions(t *testing.T) {
	srv, db, _ := newTestServer(t)
	sess, err := srv.sessionStore.Create(time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE id = ?`, time.Now().UTC().Add(-time.Minute), sess.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	key := auth.SessionContext{SessionID: sess.ID}.Key()
	srv.pads.Get(context.Background(), key)

	n, err := srv.CleanupSessions()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if srv.pads.Len() != 0 {
		t.Errorf("pads = %d, want 0", srv.pads.Len())
	}
}
