package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/MrWong99/worldstate/internal/poller"
	"github.com/MrWong99/worldstate/pkg/worldstate"
)

// liveWriteTimeout bounds a single websocket write.
const liveWriteTimeout = 10 * time.Second

// LiveMessage is one message of the /v1/live feed. The first message after
// connecting describes the current snapshot; every later one a newly stored
// snapshot. State is only included when the client connected with ?full=1.
type LiveMessage struct {
	Type        string                 `json:"type"` // "hello" or "snapshot"
	SnapshotID  uuid.UUID              `json:"snapshotId"`
	FetchedAt   time.Time              `json:"fetchedAt"`
	NewAlerts   []worldstate.Alert     `json:"newAlerts"`
	NewFissures []worldstate.Fissure   `json:"newFissures"`
	State       *worldstate.WorldState `json:"state,omitempty"`
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	full := r.URL.Query().Get("full") == "1"

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("api: websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	events, cancel := s.cfg.State.Subscribe()
	defer cancel()

	m := s.cfg.Metrics
	m.LiveSubscribers.Add(r.Context(), 1)
	defer m.LiveSubscribers.Add(context.WithoutCancel(r.Context()), -1)

	// The feed is write-only; CloseRead handles pings and the client's close.
	ctx := conn.CloseRead(r.Context())

	hello := LiveMessage{Type: "hello", NewAlerts: []worldstate.Alert{}, NewFissures: []worldstate.Fissure{}}
	if state, snap, ok := s.cfg.State.Latest(); ok {
		hello.SnapshotID, hello.FetchedAt = snap.ID, snap.FetchedAt
		if full {
			hello.State = state
		}
	}
	if err := writeLive(ctx, conn, hello); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeLive(ctx, conn, liveMessage(ev, full)); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Debug("api: live write failed", "err", err)
				}
				return
			}
		}
	}
}

func liveMessage(ev poller.Event, full bool) LiveMessage {
	msg := LiveMessage{
		Type:        "snapshot",
		SnapshotID:  ev.Snapshot.ID,
		FetchedAt:   ev.Snapshot.FetchedAt,
		NewAlerts:   ev.NewAlerts,
		NewFissures: ev.NewFissures,
	}
	if msg.NewAlerts == nil {
		msg.NewAlerts = []worldstate.Alert{}
	}
	if msg.NewFissures == nil {
		msg.NewFissures = []worldstate.Fissure{}
	}
	if full {
		msg.State = ev.State
	}
	return msg
}

func writeLive(ctx context.Context, conn *websocket.Conn, msg LiveMessage) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
