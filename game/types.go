package game

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Status classifies the result of dispatching a question to a player.
type Status uint8

const (
	// OK means the player answered.
	OK Status = iota + 1
	// QuestionRejected means the player refused the question as malformed.
	QuestionRejected
	UnreachablePlayer
	Timeout
	NoResponseReceived
	InvalidResponse
	// Error means the dispatch mechanism itself failed.
	Error
	// NotSent means the question was never sent to the player.
	NotSent
)

var statusNames = map[Status]string{
	OK:                 "ok",
	QuestionRejected:   "question-rejected",
	UnreachablePlayer:  "unreachable",
	Timeout:            "timeout",
	NoResponseReceived: "no-response",
	InvalidResponse:    "invalid-response",
	Error:              "error",
	NotSent:            "not-sent",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Answer is the decoded response of a player.
type Answer struct {
	Total    *float64 `json:"total,omitempty"`
	Response string   `json:"response,omitempty"`
}

// Empty reports whether the answer carries neither a total nor a response.
func (a Answer) Empty() bool {
	return a.Total == nil && a.Response == ""
}

// Question is the challenge of a tick. Implementations must be immutable.
type Question interface {
	// Payload is the content sent to the players.
	Payload() any
	// Invalid reports whether the question itself is malformed.
	Invalid() bool
	Accepts(answer Answer) bool
	GainAmount() float64
	// GainPenalty is the (negative) cash change of a wrong answer.
	GainPenalty() float64
}

// Player is a snapshot of a registered player.
type Player struct {
	Username string
	URL      string
	Cash     float64
	Online   bool
}

// Rates are the amounts an outcome can be worth.
// GainAmount and GainPenalty come from the question, OfflinePenalty and
// ErrorPenalty are the same for every question.
type Rates struct {
	GainAmount     float64
	GainPenalty    float64
	OfflinePenalty float64
	ErrorPenalty   float64
}

// Outcome is the result of dispatching one question to one player.
type Outcome struct {
	Username string
	Status   Status

	// ResponseAccepted is only meaningful for OK.
	ResponseAccepted bool
	// InvalidQuestion is only meaningful for QuestionRejected: it reports
	// whether the rejected question really was malformed.
	InvalidQuestion bool

	Rates

	// PlayerOnline is the online flag of the player before the dispatch.
	PlayerOnline bool
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (o Outcome) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("username", o.Username)
	enc.AddString("status", o.Status.String())
	enc.AddBool("accepted", o.ResponseAccepted)
	enc.AddBool("invalid_question", o.InvalidQuestion)
	enc.AddBool("was_online", o.PlayerOnline)
	return nil
}

type FeedbackKind uint8

const (
	NoFeedback FeedbackKind = iota
	Win
	Lose
)

func (k FeedbackKind) String() string {
	switch k {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "none"
	}
}

// Feedback is the message sent back to a player about its round.
type Feedback struct {
	Kind FeedbackKind
	// Error tags losses caused by an absent or broken player.
	Error   bool
	Amount  float64
	Outcome Outcome
}

func (f Feedback) HasFeedback() bool {
	return f.Kind != NoFeedback
}

func winning(o Outcome) Feedback {
	return Feedback{Kind: Win, Amount: o.GainAmount, Outcome: o}
}

func losing(o Outcome) Feedback {
	return Feedback{Kind: Lose, Amount: o.GainPenalty, Outcome: o}
}

func failing(o Outcome, amount float64) Feedback {
	return Feedback{Kind: Lose, Error: true, Amount: amount, Outcome: o}
}
