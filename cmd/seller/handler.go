package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/extremecarpaccio/carpaccio/feedback"
	"github.com/extremecarpaccio/carpaccio/question"
)

// questionRequest holds either a text question or an order.
type questionRequest struct {
	Question   string    `json:"question"`
	Prices     []float64 `json:"prices"`
	Quantities []int     `json:"quantities"`
	Country    string    `json:"country"`
	Reduction  string    `json:"reduction"`
}

type answer struct {
	Total    *float64 `json:"total,omitempty"`
	Response string   `json:"response,omitempty"`
}

func newHandler(logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /order", func(w http.ResponseWriter, r *http.Request) {
		var req questionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("malformed question", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var a answer
		if req.Question != "" {
			a.Response = req.Question
		} else {
			order := question.Order{
				Prices:     req.Prices,
				Quantities: req.Quantities,
				Country:    req.Country,
				Reduction:  req.Reduction,
			}
			if order.Invalid() {
				logger.Info("rejecting order", zap.Any("order", order))
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			total := order.Total()
			a.Total = &total
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(a); err != nil {
			logger.Debug("failed to write answer", zap.Error(err))
		}
	})
	mux.HandleFunc("POST /feedback", func(w http.ResponseWriter, r *http.Request) {
		var msg feedback.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		logger.Info("feedback", zap.String("type", msg.Type), zap.String("content", msg.Content))
	})
	return mux
}
