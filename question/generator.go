package question

import (
	"math"

	"github.com/extremecarpaccio/carpaccio/game"
)

const (
	maxItems    = 5
	maxQuantity = 20
	maxPrice    = 1000
)

// Generator picks the question of each tick from the randomizer only, so that
// a game can be replayed from its seed.
type Generator struct {
	// WarmupTicks is the number of first ticks asking Text questions.
	WarmupTicks uint
	// InvalidRatio is the probability for an order to be malformed.
	InvalidRatio float64
}

func (g Generator) NextQuestion(tick uint, rnd game.Randomizer) game.Question {
	if tick <= g.WarmupTicks {
		return Text{Word: words[rnd.Intn(len(words))]}
	}

	items := 1 + rnd.Intn(maxItems)
	order := Order{
		Prices:     make([]float64, items),
		Quantities: make([]int, items),
		Country:    countries[rnd.Intn(len(countries))],
		Reduction:  Standard,
	}
	for i := 0; i < items; i++ {
		order.Prices[i] = math.Max(0.01, roundCents(rnd.Float64()*maxPrice))
		order.Quantities[i] = 1 + rnd.Intn(maxQuantity)
	}

	if rnd.Float64() < g.InvalidRatio {
		corrupt(&order, rnd)
	}
	return order
}

func corrupt(order *Order, rnd game.Randomizer) {
	switch rnd.Intn(3) {
	case 0:
		order.Country = "XX"
	case 1:
		order.Quantities = append(order.Quantities, 1+rnd.Intn(maxQuantity))
	default:
		order.Reduction = "PAY THE PRICE"
	}
}
