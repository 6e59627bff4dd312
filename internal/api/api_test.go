package api

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomz197/galaxyblaster/internal/loop"
	"github.com/tomz197/galaxyblaster/internal/metrics"
	"github.com/tomz197/galaxyblaster/internal/object"
	"github.com/tomz197/galaxyblaster/internal/raster"
	"github.com/tomz197/galaxyblaster/internal/score"
	"github.com/tomz197/galaxyblaster/internal/session"
)

type testEnv struct {
	scores   *score.MemoryStore
	sessions *session.Registry
	hub      *Hub
	metrics  *metrics.Metrics
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		scores:   score.NewMemoryStore(),
		sessions: session.NewRegistry(),
		metrics:  metrics.New(),
	}
	env.hub = NewHub(env.sessions, nil, nil)
	env.router = NewRouter(Config{
		Scores:   env.scores,
		Sessions: env.sessions,
		Hub:      env.hub,
		Metrics:  env.metrics,
		RateLimiter: NewIPRateLimiter(RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
		}),
	})
	return env
}

func (env *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.Register("alice")

	rec := env.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["sessions"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestHighScores(t *testing.T) {
	env := newTestEnv(t)
	env.scores.Submit("alice", 300)
	env.scores.Submit("bob", 500)
	env.scores.Submit("carol", 100)

	rec := env.get(t, "/api/highscores?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []score.Entry
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].User != "bob" || entries[1].User != "alice" {
		t.Errorf("entries = %+v", entries)
	}

	for _, bad := range []string{"0", "101", "ten"} {
		if rec := env.get(t, "/api/highscores?limit="+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, want 400", bad, rec.Code)
		}
	}
}

func TestSessions(t *testing.T) {
	env := newTestEnv(t)
	s := env.sessions.Register("alice")
	s.UpdateHUD(loop.HUD{Score: 7, State: "playing"})

	rec := env.get(t, "/api/sessions")
	var infos []session.Info
	if err := json.NewDecoder(rec.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].User != "alice" || infos[0].HUD.Score != 7 {
		t.Errorf("sessions = %+v", infos)
	}
}

func TestSessionFrame(t *testing.T) {
	env := newTestEnv(t)
	s := env.sessions.Register("alice")

	if rec := env.get(t, "/api/sessions/abc/frame.png"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
	if rec := env.get(t, "/api/sessions/999/frame.png"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
	path := "/api/sessions/" + strconv.Itoa(s.ID) + "/frame.png"
	if rec := env.get(t, path); rec.Code != http.StatusNotFound {
		t.Errorf("no frame status = %d, want 404", rec.Code)
	}

	s.Render(&loop.Frame{
		Field:  object.Field{Width: 90, Height: 50},
		State:  loop.StatePlaying,
		Player: loop.PlayerView{X: 45, Y: 25, Radius: 8},
	})
	rec := env.get(t, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("frame status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 90 || b.Dy() != 50 {
		t.Errorf("frame size = %v", b)
	}
}

type brokenSessions struct{}

func (brokenSessions) Len() int             { return 0 }
func (brokenSessions) List() []session.Info { return nil }
func (brokenSessions) Get(int) (*session.Session, error) {
	return nil, errors.New("registry offline")
}

func TestSessionFrameLookupError(t *testing.T) {
	h := &handlers{sessions: brokenSessions{}, raster: raster.New(1), log: log.New(io.Discard)}
	r := chi.NewRouter()
	r.Get("/sessions/{id}/frame.png", h.sessionFrame)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/sessions/1/frame.png", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRouterWithoutSessions(t *testing.T) {
	r := NewRouter(Config{Scores: score.NewMemoryStore(), Logger: log.New(io.Discard)})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sessions") {
		t.Errorf("health reports sessions without a registry: %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t)
	env.metrics.SetSessions(4)

	rec := env.get(t, "/metrics")
	if !strings.Contains(rec.Body.String(), "galaxyblaster_sessions_active 4") {
		t.Errorf("metrics body missing session gauge")
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("OPTIONS", "/api/highscores", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestRateLimit(t *testing.T) {
	m := metrics.New()
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	router := NewRouter(Config{Scores: score.NewMemoryStore(), Metrics: m, RateLimiter: rl})

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/highscores", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		router.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// another address has its own bucket
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/highscores", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d", rec.Code)
	}

	// health checks are not limited
	for range 3 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("healthz status = %d", rec.Code)
		}
	}
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleAfter: time.Minute})
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(2 * time.Minute)
	rl.Allow("b")
	if n := rl.Len(); n != 1 {
		t.Errorf("tracked = %d, want 1 after sweep", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "1.2.3.4:80", "1.2.3.4"},
		{"forwarded", map[string]string{"X-Forwarded-For": "5.6.7.8, 9.9.9.9"}, "1.2.3.4:80", "5.6.7.8"},
		{"real ip", map[string]string{"X-Real-IP": " 7.7.7.7 "}, "1.2.3.4:80", "7.7.7.7"},
		{"no port", nil, "pipe", "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker([]string{"https://galaxy.example"})
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "game.local", true},
		{"https://galaxy.example", "game.local", true},
		{"http://game.local", "game.local", true},
		{"https://evil.example", "game.local", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("origin %q on %q = %v, want %v", tt.origin, tt.host, got, tt.want)
		}
	}
}

func TestWebSocketHUD(t *testing.T) {
	env := newTestEnv(t)
	s := env.sessions.Register("alice")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var hello struct {
		Event string         `json:"event"`
		Data  []session.Info `json:"data"`
	}
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Event != "sessions" || len(hello.Data) != 1 || hello.Data[0].User != "alice" {
		t.Errorf("hello = %+v", hello)
	}

	// the hub may subscribe after the first update; keep pushing until one arrives
	got := make(chan session.Info, 1)
	go func() {
		var msg struct {
			Event string       `json:"event"`
			Data  session.Info `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err == nil && msg.Event == "session:hud" {
			got <- msg.Data
		}
	}()
	deadline := time.After(3 * time.Second)
	for {
		s.UpdateHUD(loop.HUD{Score: 55, State: "playing"})
		select {
		case info := <-got:
			if info.HUD.Score != 55 {
				t.Errorf("hud score = %d, want 55", info.HUD.Score)
			}
			if n := env.hub.ClientCount(); n != 1 {
				t.Errorf("clients = %d, want 1", n)
			}
			return
		case <-deadline:
			t.Fatal("no HUD update received")
		case <-time.After(150 * time.Millisecond):
		}
	}
}
