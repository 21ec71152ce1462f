// Package events records what happens during a game.
//
// The Recorder receives the game notifications, logs them, counts them and
// hands an Event to each Sink: the persistent Log, the live websocket Hub and
// optionally an AMQP Publisher.
package events

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	IterationStarting   Type = "iteration-starting"
	IterationCompleted  Type = "iteration-completed"
	IterationFailed     Type = "iteration-failed"
	DispatchingQuestion Type = "dispatching"
	PlayerWon           Type = "player-won"
	PlayerLost          Type = "player-lost"
	PlayerOnline        Type = "player-online"
	UnsupportedStatus   Type = "unsupported-status"
	InvalidRegistration Type = "invalid-registration"
)

type Event struct {
	ID       uuid.UUID `json:"id"`
	Tick     uint      `json:"tick"`
	Type     Type      `json:"type"`
	Username string    `json:"username,omitempty"`
	Amount   float64   `json:"amount,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Online   bool      `json:"online"`
	Status   string    `json:"status,omitempty"`
	URL      string    `json:"url,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Sink consumes recorded events. Record must not block.
type Sink interface {
	Record(e Event)
}
