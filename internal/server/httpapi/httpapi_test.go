package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
	"github.com/Rauks/Minecraft-RCON-Console/internal/rcon"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus"
	"github.com/Rauks/Minecraft-RCON-Console/internal/server/eventbus/memory"
)

type fakeExecutor struct {
	mu       sync.Mutex
	commands []string
	exec     func(command string) (rcon.Response, error)
}

func (f *fakeExecutor) Exec(_ context.Context, command string) (rcon.Response, error) {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	f.mu.Unlock()
	return f.exec(command)
}

func (f *fakeExecutor) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func echoExecutor() *fakeExecutor {
	return &fakeExecutor{exec: func(command string) (rcon.Response, error) {
		if command == "bogus" {
			return rcon.Response{ID: 2, Payload: "Unknown command. Type \"/help\" for help."}, nil
		}
		return rcon.Response{ID: 1, Payload: "§aran " + command}, nil
	}}
}

func newTestAPI(t *testing.T, exec Executor) (http.Handler, *memory.Bus) {
	t.Helper()
	cfg, err := consoleconfig.Default()
	if err != nil {
		t.Fatalf("console config: %v", err)
	}
	bus := memory.New()
	ui := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>console</html>"))
	})
	return New(Options{
		RCON:      exec,
		Console:   cfg,
		Localizer: i18n.New(),
		Bus:       bus,
		UI:        ui,
	}), bus
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestExecCommand(t *testing.T) {
	exec := echoExecutor()
	handler, _ := newTestAPI(t, exec)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", strings.NewReader("list")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CommandResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != 1 || resp.Payload != "§aran list" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := exec.received(); len(got) != 1 || got[0] != "list" {
		t.Fatalf("executor received %v", got)
	}
}

func TestExecCommandErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: refused", rcon.ErrConnection), http.StatusBadGateway},
		{rcon.ErrAuthentication, http.StatusNetworkAuthenticationRequired},
		{fmt.Errorf("%w after 5s", rcon.ErrTimeout), http.StatusServiceUnavailable},
		{rcon.ErrDecode, http.StatusServiceUnavailable},
		{fmt.Errorf("%w: reset", rcon.ErrReceive), http.StatusServiceUnavailable},
		{fmt.Errorf("%w: 2000 bytes", rcon.ErrCommandTooLong), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		exec := &fakeExecutor{exec: func(string) (rcon.Response, error) { return rcon.Response{}, tc.err }}
		handler, _ := newTestAPI(t, exec)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", strings.NewReader("list")))
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
		var body ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error != tc.err.Error() {
			t.Fatalf("unexpected error body %q", body.Error)
		}
	}
}

func TestExecCommandTooLarge(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	rec := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("a", maxCommandBytes+1))
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", body))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestExecCommandLongerThanPacket(t *testing.T) {
	exec := echoExecutor()
	handler, _ := newTestAPI(t, exec)

	rec := httptest.NewRecorder()
	body := strings.NewReader("say " + strings.Repeat("a", rcon.MaxRequestPayload))
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", body))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if got := exec.received(); len(got) != 0 {
		t.Fatalf("oversized command reached the server: %d commands", len(got))
	}

	rec = httptest.NewRecorder()
	body = strings.NewReader(strings.Repeat("a", rcon.MaxRequestPayload))
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at the limit, got %d", rec.Code)
	}
}

func TestExecCommandPublishesEvent(t *testing.T) {
	handler, bus := newTestAPI(t, echoExecutor())
	events := make(chan any, 1)
	unsubscribe, err := bus.Subscribe(eventbus.TopicCommands, events)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rcon", strings.NewReader("seed")))

	select {
	case payload := <-events:
		event, ok := payload.(eventbus.CommandEvent)
		if !ok {
			t.Fatalf("unexpected payload %T", payload)
		}
		if event.Command != "seed" || event.Origin != eventbus.OriginAPI || event.Status != "ok" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}

func TestConsoleConfig(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/console/config", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cfg consoleconfig.Config
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Placeholder != "help" || len(cfg.StatusRules) == 0 || len(cfg.Shortcuts) == 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConsoleConfigMissing(t *testing.T) {
	handler := New(Options{RCON: echoExecutor()})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/console/config", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestOpenAPI(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Info.Title != "Minecraft RCON" {
		t.Fatalf("unexpected title %q", doc.Info.Title)
	}
	for _, p := range []string{"/healthz", "/api/rcon", "/api/rcon/events", "/api/console/config", "/ws/console"} {
		if _, ok := doc.Paths[p]; !ok {
			t.Fatalf("path %s not documented", p)
		}
	}
}

func TestUnknownRoutesReachUI(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/steve", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "console") {
		t.Fatalf("expected ui fallback, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCommandEventStream(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/rcon/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	post, err := http.Post(srv.URL+"/api/rcon", "text/plain", strings.NewReader("time query day"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_ = post.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var event eventbus.CommandEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Command != "time query day" {
			t.Fatalf("unexpected event %+v", event)
		}
		return
	}
	t.Fatalf("stream ended without an event: %v", scanner.Err())
}

type rawFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialConsole(t *testing.T, handler http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/console"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(rawFrame) bool) rawFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var frame rawFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if match(frame) {
			return frame
		}
	}
}

func historyOf(t *testing.T, frame rawFrame) []console.CommandResult {
	t.Helper()
	var history []console.CommandResult
	if err := json.Unmarshal(frame.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	return history
}

func TestConsoleSessionSubmit(t *testing.T) {
	exec := echoExecutor()
	handler, _ := newTestAPI(t, exec)
	conn := dialConsole(t, handler)

	if err := conn.WriteJSON(Intent{Type: IntentSubmit, Command: "  "}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readUntil(t, conn, func(f rawFrame) bool {
		return f.Type == FrameHistory && string(f.Data) != "[]"
	})
	history := historyOf(t, frame)
	if len(history) != 1 {
		t.Fatalf("expected one record, got %d", len(history))
	}
	record := history[0]
	if record.SourceCommand != "help" || record.MatchedStatus != console.StatusUnknown {
		t.Fatalf("unexpected record %+v", record)
	}
	if !strings.Contains(record.DecodedReply, "ran help") || !strings.Contains(record.DecodedReply, "<span") {
		t.Fatalf("reply not decoded: %q", record.DecodedReply)
	}

	if err := conn.WriteJSON(Intent{Type: IntentSubmit, Command: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame = readUntil(t, conn, func(f rawFrame) bool {
		return f.Type == FrameHistory && len(historyOf(t, f)) == 2
	})
	history = historyOf(t, frame)
	if history[0].SourceCommand != "bogus" || history[0].MatchedStatus != console.StatusError {
		t.Fatalf("expected newest error record first, got %+v", history[0])
	}
	if got := exec.received(); len(got) != 2 {
		t.Fatalf("executor received %v", got)
	}
}

func TestConsoleSessionRejectsUnknownIntent(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	conn := dialConsole(t, handler)

	if err := conn.WriteJSON(Intent{Type: "launch"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readUntil(t, conn, func(f rawFrame) bool { return f.Type == FrameError })
	var msg string
	if err := json.Unmarshal(frame.Data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(msg, `unknown intent "launch"`) {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestConsoleSessionPrefill(t *testing.T) {
	handler, _ := newTestAPI(t, echoExecutor())
	conn := dialConsole(t, handler)

	if err := conn.WriteJSON(Intent{Type: IntentPrefill, Command: "give "}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(f rawFrame) bool {
		return f.Type == FrameInput && string(f.Data) == `"give "`
	})
	if err := conn.WriteJSON(Intent{Type: IntentReset}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(f rawFrame) bool {
		return f.Type == FrameInput && string(f.Data) == `""`
	})
}
