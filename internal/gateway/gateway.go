// Package gateway maps live client connections onto interview sessions:
// it serializes candidate input per session, fans replies out to the
// session's subscribers and handles connect/resume. Sessions never share
// state, so different sessions proceed fully in parallel.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"caseprep/internal/domain"
	"caseprep/internal/domain/models"
	"caseprep/internal/interview"
)

// EventType discriminates stream events.
type EventType string

const (
	// EventTurn carries a conversation turn (replayed or live).
	EventTurn EventType = "turn"
	// EventSystem carries a transient notice that is not part of the
	// conversation log (validation warnings, retry hints).
	EventSystem EventType = "system"
)

// Event is one message emitted to a session's subscribers.
type Event struct {
	Type      EventType    `json:"type"`
	Role      models.Role  `json:"role,omitempty"`
	Text      string       `json:"text"`
	Phase     models.Phase `json:"phase,omitempty"`
	Completed bool         `json:"completed,omitempty"`
}

// subscriberBuffer bounds each subscriber's event queue. A subscriber that
// stops draining loses events rather than blocking the turn pipeline.
const subscriberBuffer = 16

// room is the per-session fan-out and serialization point.
type room struct {
	// processMu serializes message processing: a second candidate
	// message for the same session waits until the in-flight one
	// commits or fails.
	processMu sync.Mutex

	subMu sync.RWMutex
	subs  map[chan Event]struct{}
	refs  int
}

// Gateway owns the live rooms. All durable state lives in storage; the
// gateway holds nothing that could diverge from it across a reconnect.
type Gateway struct {
	service *interview.Service
	logger  *slog.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

// New creates a gateway over the interview service.
func New(service *interview.Service, logger *slog.Logger) *Gateway {
	return &Gateway{
		service: service,
		logger:  logger,
		rooms:   make(map[string]*room),
	}
}

// Connect resolves the session, ensures the opening turn exists and
// returns the full replayable log. The caller subscribes separately.
func (g *Gateway) Connect(ctx context.Context, sessionID, userID string) (*models.InterviewSession, []models.Turn, error) {
	return g.service.Resume(ctx, sessionID, userID)
}

// Subscribe registers a live event channel for a session. The returned
// cancel function must be called on disconnect; it is the only cleanup a
// disconnect needs.
func (g *Gateway) Subscribe(sessionID string) (<-chan Event, func()) {
	r := g.acquireRoom(sessionID)

	ch := make(chan Event, subscriberBuffer)
	r.subMu.Lock()
	r.subs[ch] = struct{}{}
	r.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, ch)
			r.subMu.Unlock()
			close(ch)
			g.releaseRoom(sessionID)
		})
	}

	return ch, cancel
}

// Submit processes one candidate message. Messages for the same session
// are handled strictly one at a time, in arrival order; other sessions are
// unaffected. On success both the candidate turn and the reply are
// broadcast; on validation failure a system event carries the explanation
// and nothing enters the conversation log.
func (g *Gateway) Submit(ctx context.Context, sessionID, userID, text string) (*interview.Reply, error) {
	r := g.acquireRoom(sessionID)
	defer g.releaseRoom(sessionID)

	r.processMu.Lock()
	defer r.processMu.Unlock()

	reply, err := g.service.ProcessMessage(ctx, sessionID, userID, text)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			r.broadcast(Event{Type: EventSystem, Role: models.RoleSystem, Text: vErr.Message})
		} else if errors.Is(err, domain.ErrGenerationUnavailable) {
			r.broadcast(Event{Type: EventSystem, Role: models.RoleSystem, Text: "The interviewer is temporarily unavailable. Please try sending that again."})
		}
		return nil, err
	}

	r.broadcast(Event{Type: EventTurn, Role: models.RoleCandidate, Text: reply.Submitted, Phase: reply.Phase})
	r.broadcast(Event{
		Type:      EventTurn,
		Role:      models.RoleInterviewer,
		Text:      reply.Text,
		Phase:     reply.Phase,
		Completed: reply.Completed,
	})

	return reply, nil
}

// broadcast delivers an event to every subscriber without blocking the
// turn pipeline; a full subscriber queue drops the event.
func (r *room) broadcast(ev Event) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()

	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// acquireRoom returns the room for a session, creating it if needed and
// taking a reference.
func (g *Gateway) acquireRoom(sessionID string) *room {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[sessionID]
	if !ok {
		r = &room{subs: make(map[chan Event]struct{})}
		g.rooms[sessionID] = r
	}
	r.refs++
	return r
}

// releaseRoom drops a reference and removes the room once unused. The room
// holds no durable state, so dropping it loses nothing.
func (g *Gateway) releaseRoom(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[sessionID]
	if !ok {
		return
	}
	r.refs--
	if r.refs <= 0 {
		delete(g.rooms, sessionID)
	}
}
