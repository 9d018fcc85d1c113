package api

import (
	"errors"
	"net/http"
	"time"
)

type priceResponse struct {
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
}

type priceError struct {
	cause    error
	override bool
}

func (e *priceError) Error() string { return e.cause.Error() }
func (e *priceError) Unwrap() error { return e.cause }

// resolvePrice returns the ?price= override when present, otherwise the
// current price from the price source. ok is false only when neither is
// configured.
func (s *Server) resolvePrice(r *http.Request) (float64, bool, error) {
	price, ok, err := parsePriceOverride(r)
	if err != nil {
		return 0, false, &priceError{cause: err, override: true}
	}
	if ok {
		return price, true, nil
	}
	if s.prices == nil {
		return 0, false, nil
	}

	price, err = s.prices.Price(r.Context())
	s.metrics.ObservePrice(s.priceSource, price, err)
	if err != nil {
		s.logFor(r).WithError(err).WithField("source", s.priceSource).Warn("price fetch failed")
		return 0, false, &priceError{cause: err}
	}
	return price, true, nil
}

func writePriceError(w http.ResponseWriter, err error) {
	var pe *priceError
	if errors.As(err, &pe) && pe.override {
		writeError(w, http.StatusBadRequest, pe.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "failed to fetch price")
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	if s.prices == nil {
		writeError(w, http.StatusNotFound, "no price source configured")
		return
	}
	price, err := s.prices.Price(r.Context())
	s.metrics.ObservePrice(s.priceSource, price, err)
	if err != nil {
		s.logFor(r).WithError(err).WithField("source", s.priceSource).Warn("price fetch failed")
		writeError(w, http.StatusBadGateway, "failed to fetch price")
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Price:     price,
		Source:    s.priceSource,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
