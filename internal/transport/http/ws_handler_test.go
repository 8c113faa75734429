package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dollyeo/internal/app"
	"dollyeo/internal/infra/memory"
	"dollyeo/internal/roulette"
)

func newTestHandler() *WSHandler {
	picker := roulette.New(&roulette.Config{Seed: 7})
	sessions := memory.NewSessionStore(picker)
	service := app.NewSessionService(sessions, memory.NewRecordStore(), memory.NewGroupStore(), nil)
	handler := NewWSHandler(service, picker)
	handler.SpinBase = 0
	handler.SpinVariance = 0
	return handler
}

func dialWS(t *testing.T, server *httptest.Server, ownerID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?ownerId=" + ownerID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

// waitFor reads until a message of the wanted type arrives, skipping the
// state broadcasts that interleave with direct replies.
func waitFor(conn *websocket.Conn, t *testing.T, want string) json.RawMessage {
	t.Helper()
	for i := 0; i < 20; i++ {
		typ, payload := readNext(conn, t, "")
		if typ == want {
			return payload
		}
	}
	t.Fatalf("never received %s", want)
	return nil
}

func asMap(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	return m
}

func TestWebSocketSpinFlow(t *testing.T) {
	handler := newTestHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialWS(t, server, "owner-1")
	defer conn.Close()

	readNext(conn, t, "joined")

	send := func(msg map[string]any) {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(map[string]any{"type": "addParticipant", "payload": map[string]any{"name": "Alice"}})
	send(map[string]any{"type": "addQuestion", "payload": map[string]any{"content": "What went well this week?"}})
	send(map[string]any{"type": "spin"})

	waitFor(conn, t, "spinning")
	payload := asMap(t, waitFor(conn, t, "spinResult"))

	record, ok := payload["record"].(map[string]any)
	if !ok {
		t.Fatalf("expected record payload, got %v", payload)
	}
	if record["participantName"] != "Alice" {
		t.Fatalf("expected Alice's turn, got %v", record["participantName"])
	}
	if record["questionContent"] != "What went well this week?" {
		t.Fatalf("unexpected question %v", record["questionContent"])
	}
}

func TestWebSocketSpinWithoutParticipantsErrors(t *testing.T) {
	handler := newTestHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialWS(t, server, "owner-1")
	defer conn.Close()

	readNext(conn, t, "joined")

	if err := conn.WriteJSON(map[string]any{"type": "spin"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(conn, t, "spinning")
	payload := asMap(t, waitFor(conn, t, "error"))
	if payload["message"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestWebSocketGroupLifecycle(t *testing.T) {
	handler := newTestHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	conn := dialWS(t, server, "owner-1")
	defer conn.Close()

	readNext(conn, t, "joined")

	send := func(msg map[string]any) {
		t.Helper()
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	send(map[string]any{"type": "addParticipant", "payload": map[string]any{"name": "Alice"}})
	send(map[string]any{"type": "addQuestion", "payload": map[string]any{"content": "Q1"}})
	send(map[string]any{"type": "saveGroup", "payload": map[string]any{"name": "standup"}})

	saved := asMap(t, waitFor(conn, t, "groupSaved"))
	if saved["name"] != "standup" {
		t.Fatalf("unexpected group %v", saved)
	}

	send(map[string]any{"type": "listGroups"})
	var groups []map[string]any
	if err := json.Unmarshal(waitFor(conn, t, "groups"), &groups); err != nil {
		t.Fatalf("unmarshal groups: %v", err)
	}
	if len(groups) != 1 || groups[0]["name"] != "standup" {
		t.Fatalf("expected the saved group, got %v", groups)
	}
}

func TestWebSocketRequiresOwner(t *testing.T) {
	handler := newTestHandler()
	server := httptest.NewServer(http.HandlerFunc(handler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
