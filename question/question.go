// Package question generates the questions asked to the sellers.
//
// The first ticks of a game ask Text questions that only check the seller is
// able to answer. Then each tick asks the total price of an Order.
package question

import (
	"math"
	"math/rand"

	"github.com/extremecarpaccio/carpaccio/game"
)

const (
	TextGainAmount  = 450
	TextGainPenalty = -250

	// Gains of malformed orders, which have no total to scale on.
	InvalidOrderGainAmount  = 450
	InvalidOrderGainPenalty = -250
)

// NewRandomizer returns a randomizer producing the same questions for the same
// seed and sequence of ticks.
func NewRandomizer(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Text asks the seller to echo a word back.
type Text struct {
	Word string
}

type textPayload struct {
	Question string `json:"question"`
}

func (t Text) Payload() any {
	return textPayload{Question: t.Word}
}

func (Text) Invalid() bool { return false }

func (t Text) Accepts(answer game.Answer) bool {
	return answer.Response == t.Word
}

func (Text) GainAmount() float64  { return TextGainAmount }
func (Text) GainPenalty() float64 { return TextGainPenalty }

// Order asks the total price of a purchase, taxes and reduction included.
type Order struct {
	Prices     []float64 `json:"prices"`
	Quantities []int     `json:"quantities"`
	Country    string    `json:"country"`
	Reduction  string    `json:"reduction"`
}

func (o Order) Payload() any {
	return o
}

// Invalid reports whether the order cannot be priced.
func (o Order) Invalid() bool {
	if len(o.Prices) == 0 || len(o.Prices) != len(o.Quantities) {
		return true
	}
	if _, ok := vat[o.Country]; !ok {
		return true
	}
	return o.Reduction != Standard
}

// Total is the expected price of the order, rounded to cents.
// It is only meaningful for valid orders.
func (o Order) Total() float64 {
	var total float64
	for i, price := range o.Prices {
		total += price * float64(o.Quantities[i])
	}
	total *= 1 + vat[o.Country]/100
	total *= 1 - standardReduction(total)
	return roundCents(total)
}

func (o Order) Accepts(answer game.Answer) bool {
	if o.Invalid() || answer.Total == nil {
		return false
	}
	return math.Abs(*answer.Total-o.Total()) < 0.01
}

func (o Order) GainAmount() float64 {
	if o.Invalid() {
		return InvalidOrderGainAmount
	}
	return o.Total()
}

func (o Order) GainPenalty() float64 {
	if o.Invalid() {
		return InvalidOrderGainPenalty
	}
	return -roundCents(o.Total() / 2)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
