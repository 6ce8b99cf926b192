package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/netcriptus/raiden-services/internal/app/store"
	"github.com/netcriptus/raiden-services/internal/domain"
)

type target struct {
	mu  sync.Mutex
	url string
}

func (t *target) BaseURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *target) SetBaseURL(u string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.url = u
}

type statsSource struct{ stats domain.PollStats }

func (s statsSource) Stats() domain.PollStats { return s.stats }

func newDeps(t *testing.T) (Deps, *store.Store) {
	t.Helper()
	st, err := store.New(20, []string{"online_nodes"}, []string{"tps"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	base := time.Unix(1700000000, 0).UTC()
	st.Apply(1, func(tx *store.Tx) {
		tx.Append("online_nodes", base, 4)
		tx.SetText("tps", "1.50")
	})
	return Deps{
		Store:    st,
		Target:   &target{url: "http://node:5001"},
		Stats:    statsSource{stats: domain.PollStats{TotalPolls: 3, SuccessfulPolls: 2, FailedPolls: 1}},
		Interval: 3 * time.Second,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("statsdash_polls_total 3\n"))
		}),
	}, st
}

func TestSeriesShow(t *testing.T) {
	deps, _ := newDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/series")
	if err != nil {
		t.Fatalf("get series: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		IntervalSeconds float64                    `json:"interval_seconds"`
		WindowSize      int                        `json:"window_size"`
		Series          map[string][]domain.Sample `json:"series"`
		Texts           map[string]string          `json:"texts"`
		ChartKeys       []string                   `json:"chart_keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.IntervalSeconds != 3 || body.WindowSize != 20 {
		t.Fatalf("unexpected header fields %+v", body)
	}
	if got := body.Series["online_nodes"]; len(got) != 1 || got[0].Value != 4 {
		t.Fatalf("unexpected series %v", got)
	}
	if body.Texts["tps"] != "1.50" {
		t.Fatalf("expected tps text 1.50, got %q", body.Texts["tps"])
	}
	if len(body.ChartKeys) != 1 || body.ChartKeys[0] != "online_nodes" {
		t.Fatalf("unexpected chart keys %v", body.ChartKeys)
	}
}

func TestBaseURLRoundTrip(t *testing.T) {
	deps, _ := newDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/base-url", strings.NewReader(`{"base_url":" http://other:6000 "}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put base url: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := deps.Target.BaseURL(); got != "http://other:6000" {
		t.Fatalf("expected trimmed base url, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/api/base-url")
	if err != nil {
		t.Fatalf("get base url: %v", err)
	}
	defer resp.Body.Close()
	var body baseURLBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.BaseURL != "http://other:6000" {
		t.Fatalf("unexpected base url %q", body.BaseURL)
	}
}

func TestBaseURLUpdateRejectsMalformedBody(t *testing.T) {
	deps, _ := newDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/base-url", strings.NewReader(`not json`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put base url: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if got := deps.Target.BaseURL(); got != "http://node:5001" {
		t.Fatalf("base url must be unchanged, got %q", got)
	}
}

func TestAuxiliaryRoutes(t *testing.T) {
	deps, _ := newDeps(t)
	srv := httptest.NewServer(NewRouter(deps))
	defer srv.Close()

	tests := map[string]string{
		"/healthz":        "ok",
		"/metrics":        "statsdash_polls_total 3",
		"/api/poll-stats": `"failed_polls":1`,
		"/":               "<title>statsdash</title>",
	}
	for path, want := range tests {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if !strings.Contains(string(body), want) {
			t.Fatalf("%s: expected body to contain %q, got %s", path, want, body)
		}
	}
}

func TestServerStreamsUpdates(t *testing.T) {
	deps, _ := newDeps(t)
	hub := NewHub(4, nil)
	deps.Hub = hub

	server, err := NewServer("127.0.0.1:0", deps, WithLogWriter(io.Discard))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	go func() { _ = server.Serve() }()
	defer func() { _ = server.Stop(context.Background()) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	update := domain.Update{
		Tick:   7,
		Points: []domain.Point{{Key: "online_nodes", Sample: domain.Sample{Timestamp: time.Unix(0, 0).UTC(), Value: 5}}},
		Texts:  []domain.Text{{Key: "tps", Value: "2.00"}},
	}
	if err := hub.Push(update); err != nil {
		t.Fatalf("push: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var got domain.Update
	if err := json.Unmarshal(frame, &got); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if got.Tick != 7 || len(got.Points) != 1 || got.Texts[0].Value != "2.00" {
		t.Fatalf("unexpected update %+v", got)
	}

	hub.Close()
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients after close")
	}
}

func TestFrameBufferDropsOldFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dropped int
	buf := newFrameBuffer(ctx, 2, func(missed int) { dropped += missed })
	for _, f := range []string{"0", "1", "2", "3", "4"} {
		buf.Set([]byte(f))
	}

	frame, ok := buf.Next()
	if !ok {
		t.Fatalf("expected a frame")
	}
	if string(frame) == "0" {
		t.Fatalf("expected oldest frame to be overwritten")
	}
	if dropped == 0 {
		t.Fatalf("expected drops to be reported")
	}

	cancel()
	if _, ok := buf.Next(); ok {
		t.Fatalf("expected Next to stop after cancel")
	}
}
