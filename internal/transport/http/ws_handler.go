package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dollyeo/internal/app"
	"dollyeo/internal/roulette"
)

// Default wheel animation timing, matching the dashboard front end.
const (
	DefaultSpinBase     = 3 * time.Second
	DefaultSpinVariance = time.Second
)

type WSHandler struct {
	service  *app.SessionService
	picker   *roulette.Picker
	upgrader websocket.Upgrader

	// SpinBase and SpinVariance control the reveal delay between the
	// spinning event and the spin result. Zero means reveal immediately.
	SpinBase     time.Duration
	SpinVariance time.Duration
}

func NewWSHandler(service *app.SessionService, picker *roulette.Picker) *WSHandler {
	return &WSHandler{
		service: service,
		picker:  picker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		SpinBase:     DefaultSpinBase,
		SpinVariance: DefaultSpinVariance,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type idPayload struct {
	ID string `json:"id"`
}

type contentPayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type namePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type markPayload struct {
	IsCorrect bool `json:"isCorrect"`
}

type groupPayload struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

type spinningPayload struct {
	DurationMs int64 `json:"durationMs"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// session use cases. One connection drives one owner's wheel; every state
// change is pushed back through the session's snapshot broadcast.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("ownerId")
	if ownerID == "" {
		http.Error(w, "missing ownerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	joined := h.service.Start(r.Context(), ownerID)

	updates, cancel, err := h.service.Subscribe(r.Context(), ownerID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joined}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, ownerID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, ownerID string, inbound inboundMessage, send chan<- outboundMessage[any]) {
	ctx := r.Context()

	fail := func(message string) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
	}

	switch inbound.Type {
	case "spin":
		duration := h.picker.SpinDuration(h.SpinBase, h.SpinVariance)
		send <- outboundMessage[any]{Type: "spinning", Payload: spinningPayload{DurationMs: duration.Milliseconds()}}
		question, outcome, err := h.service.Spin(ctx, ownerID)
		if err != nil {
			fail(err.Error())
			return
		}
		if duration > 0 {
			time.Sleep(duration)
		}
		send <- outboundMessage[any]{Type: "spinResult", Payload: map[string]any{
			"question": question,
			"record":   outcome,
		}}

	case "advance":
		if _, err := h.service.Advance(ctx, ownerID); err != nil {
			fail(err.Error())
		}

	case "markOutcome":
		var payload markPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid markOutcome payload")
			return
		}
		if _, err := h.service.MarkOutcome(ctx, ownerID, payload.IsCorrect); err != nil {
			fail(err.Error())
		}

	case "reset":
		if _, err := h.service.Reset(ctx, ownerID); err != nil {
			fail(err.Error())
		}

	case "addQuestion":
		var payload contentPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid addQuestion payload")
			return
		}
		session, ok := h.service.Session(ownerID)
		if !ok {
			fail("no active session")
			return
		}
		if _, err := session.AddQuestion(payload.Content); err != nil {
			fail(err.Error())
		}

	case "removeQuestion":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid removeQuestion payload")
			return
		}
		if session, ok := h.service.Session(ownerID); ok {
			session.RemoveQuestion(payload.ID)
		}

	case "toggleUsed":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid toggleUsed payload")
			return
		}
		if session, ok := h.service.Session(ownerID); ok {
			session.ToggleQuestionUsed(payload.ID)
		}

	case "updateQuestion":
		var payload contentPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid updateQuestion payload")
			return
		}
		session, ok := h.service.Session(ownerID)
		if !ok {
			fail("no active session")
			return
		}
		if err := session.UpdateQuestion(payload.ID, payload.Content); err != nil {
			fail(err.Error())
		}

	case "clearQuestions":
		if session, ok := h.service.Session(ownerID); ok {
			session.ClearQuestions()
		}

	case "addParticipant":
		var payload namePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid addParticipant payload")
			return
		}
		session, ok := h.service.Session(ownerID)
		if !ok {
			fail("no active session")
			return
		}
		if session.HasDuplicateParticipant(payload.Name) {
			send <- outboundMessage[any]{Type: "duplicateParticipant", Payload: namePayload{Name: payload.Name}}
		}
		if _, err := session.AddParticipant(payload.Name); err != nil {
			fail(err.Error())
		}

	case "removeParticipant":
		var payload idPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid removeParticipant payload")
			return
		}
		if session, ok := h.service.Session(ownerID); ok {
			session.RemoveParticipant(payload.ID)
		}

	case "shuffleParticipants":
		if session, ok := h.service.Session(ownerID); ok {
			session.ShuffleParticipants()
		}

	case "saveGroup":
		var payload groupPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid saveGroup payload")
			return
		}
		group, err := h.service.SaveGroup(ctx, ownerID, payload.Name)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "groupSaved", Payload: group}

	case "updateGroup":
		var payload groupPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid updateGroup payload")
			return
		}
		group, mode, err := h.service.UpdateGroup(ctx, ownerID, payload.GroupID, payload.Name)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "groupUpdated", Payload: map[string]any{
			"group": group,
			"mode":  mode,
		}}

	case "loadGroup":
		var payload groupPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid loadGroup payload")
			return
		}
		if _, err := h.service.LoadGroup(ctx, ownerID, payload.GroupID); err != nil {
			fail(err.Error())
		}

	case "listGroups":
		groups, err := h.service.ListGroups(ctx, ownerID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "groups", Payload: groups}

	case "deleteGroup":
		var payload groupPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid deleteGroup payload")
			return
		}
		if err := h.service.DeleteGroup(ctx, ownerID, payload.GroupID); err != nil {
			fail(err.Error())
		}

	case "records":
		records, err := h.service.Records(ctx, ownerID)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage[any]{Type: "records", Payload: records}

	default:
		fail("unsupported message type")
	}
}
