package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type memorySink struct {
	mu     sync.Mutex
	events []Event
	gate   chan struct{}
	err    error
}

func (s *memorySink) Record(_ context.Context, e Event) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(KindParseResult, "schwab").WithCounts(3, 1, 2, 12)

	if e.Kind != KindParseResult || e.Broker != "schwab" {
		t.Errorf("Unexpected event: %+v", e)
	}
	if e.Rows != 3 || e.Invalid != 1 || e.Trades != 2 || e.DurationMs != 12 {
		t.Errorf("Expected counts 3/1/2/12, got %+v", e)
	}
	if e.At.IsZero() || e.At.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %v", e.At)
	}
	if other := NewEvent(KindDetect, "schwab"); other.ID == e.ID {
		t.Error("Expected distinct event ids")
	}
}

func TestRecorder_DeliversToAllSinks(t *testing.T) {
	a, b := &memorySink{}, &memorySink{err: errors.New("sink down")}
	r := NewRecorder(8, zerolog.Nop(), a, b)

	r.Emit(NewEvent(KindDetect, "trading212"))
	r.Emit(NewEvent(KindSuccess, "trading212"))
	r.Close()

	if a.len() != 2 || b.len() != 2 {
		t.Errorf("Expected 2 events in each sink, got %d and %d", a.len(), b.len())
	}
	if a.events[0].Kind != KindDetect || a.events[1].Kind != KindSuccess {
		t.Errorf("Expected events in emit order, got %s then %s", a.events[0].Kind, a.events[1].Kind)
	}
	if r.Dropped() != 0 {
		t.Errorf("Expected no drops, got %d", r.Dropped())
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	sink := &memorySink{gate: make(chan struct{})}
	r := NewRecorder(1, zerolog.Nop(), sink)

	const emitted = 5
	for i := 0; i < emitted; i++ {
		r.Emit(NewEvent(KindDetect, "kraken"))
	}

	// at most one event is queued and one is held by the blocked sink
	if r.Dropped() < emitted-2 {
		t.Errorf("Expected at least %d drops, got %d", emitted-2, r.Dropped())
	}

	close(sink.gate)
	r.Close()

	if int64(sink.len())+r.Dropped() != emitted {
		t.Errorf("Expected delivered plus dropped to be %d, got %d + %d", emitted, sink.len(), r.Dropped())
	}
}

func TestRecorder_EmitAfterClose(t *testing.T) {
	sink := &memorySink{}
	r := NewRecorder(0, zerolog.Nop(), sink)
	r.Close()
	r.Close()

	r.Emit(NewEvent(KindDetect, "ibkr_flex"))

	if sink.len() != 0 || r.Dropped() != 1 {
		t.Errorf("Expected the event to be dropped, got %d delivered and %d dropped", sink.len(), r.Dropped())
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	if err := sink.Record(context.Background(), NewEvent(KindParseResult, "degiro").WithCounts(4, 1, 3, 7)); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON log line, got %q", buf.String())
	}
	if line["broker"] != "degiro" || line["kind"] != "parseResult" || line["rows"] != float64(4) {
		t.Errorf("Unexpected log line: %s", buf.String())
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected client to register")
		}
		time.Sleep(10 * time.Millisecond)
	}

	sent := NewEvent(KindSuccess, "coinbase").WithCounts(2, 0, 2, 3)
	if err := hub.Record(context.Background(), sent); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.ID != sent.ID || got.Broker != "coinbase" || got.Trades != 2 {
		t.Errorf("Expected %+v, got %+v", sent, got)
	}
}

func TestHub_CheckOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop(), "https://dash.example/")
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	tests := []struct {
		name   string
		origin string
		status int
	}{
		{"no origin", "", http.StatusSwitchingProtocols},
		{"same host", srv.URL, http.StatusSwitchingProtocols},
		{"allowed origin", "https://DASH.example", http.StatusSwitchingProtocols},
		{"cross origin", "http://evil.example", http.StatusForbidden},
		{"allowed host other scheme", "http://dash.example", http.StatusForbidden},
		{"opaque origin", "null", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
			if conn != nil {
				defer conn.Close()
			}
			if resp == nil {
				t.Fatalf("Expected a handshake response, got error %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d (%v)", tt.status, resp.StatusCode, err)
			}
		})
	}
}
