package models

import "time"

// MQuote is the current priced snapshot of one symbol. Exactly one exists
// per symbol at any time; it is overwritten in place on every tick.
type MQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	LastUpdate    time.Time `json:"lastUpdate"`
}
