package game

// Verdict tells how a Decision affects the player's balance.
type Verdict uint8

const (
	// Ignored decisions leave the balance untouched.
	Ignored Verdict = iota
	Won
	Lost
)

// Loss reasons reported to the Listener.
const (
	ReasonInvalidResponse = "response-invalid"
	ReasonTimeout         = "timeout"
	ReasonError           = "error"
)

// Decision is what an Outcome is worth.
type Decision struct {
	Verdict  Verdict
	Delta    float64
	Online   bool
	Reason   string
	Feedback Feedback
}

// Evaluate classifies an outcome. It has no side effects and never fails:
// statuses it does not know are Ignored and mark the player offline.
func Evaluate(o Outcome) Decision {
	switch o.Status {
	case OK:
		if o.ResponseAccepted {
			return won(o)
		}
		return lost(o)
	case QuestionRejected:
		if o.InvalidQuestion {
			return won(o)
		}
		return lost(o)
	case UnreachablePlayer, Timeout, NoResponseReceived:
		return Decision{
			Verdict:  Lost,
			Delta:    o.OfflinePenalty,
			Online:   false,
			Reason:   ReasonTimeout,
			Feedback: failing(o, o.OfflinePenalty),
		}
	case InvalidResponse:
		// TODO: decide whether a malformed response should mark the player
		// offline like the other offline-penalized statuses.
		return Decision{
			Verdict:  Lost,
			Delta:    o.OfflinePenalty,
			Online:   true,
			Reason:   ReasonTimeout,
			Feedback: failing(o, o.OfflinePenalty),
		}
	case Error:
		return Decision{
			Verdict:  Lost,
			Delta:    o.ErrorPenalty,
			Online:   false,
			Reason:   ReasonError,
			Feedback: failing(o, o.ErrorPenalty),
		}
	default:
		return Decision{Verdict: Ignored, Online: false}
	}
}

func won(o Outcome) Decision {
	return Decision{
		Verdict:  Won,
		Delta:    o.GainAmount,
		Online:   true,
		Feedback: winning(o),
	}
}

func lost(o Outcome) Decision {
	return Decision{
		Verdict:  Lost,
		Delta:    o.GainPenalty,
		Online:   true,
		Reason:   ReasonInvalidResponse,
		Feedback: losing(o),
	}
}
