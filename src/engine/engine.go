package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"stockpulse/src/logger"
	"stockpulse/src/models"
)

// -----------------------------------------------------------------------------
// Deterministic time/randomness injection
// -----------------------------------------------------------------------------

// Clock supplies wall-clock time (swappable for deterministic tests)
type Clock interface {
	Now() time.Time
}

// Rand supplies randomness in [0, 1)
type Rand interface {
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type RealRand struct{ *rand.Rand }

func (r RealRand) Float64() float64 { return r.Rand.Float64() }

// -----------------------------------------------------------------------------
// PriceEngine
// -----------------------------------------------------------------------------

// PriceEngine owns the current quote for every symbol in the fixed catalog
// and advances it on demand via a pseudo-random walk. It retains no history.
type PriceEngine struct {
	Logger *logger.Logger

	symbols []string
	floor   float64
	rnd     Rand
	clock   Clock

	quotes map[string]models.MQuote
	mu     sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

// NewPriceEngine seeds one quote per configured symbol at
// base price +/- seed jitter, clamped to the price floor.
func NewPriceEngine(cfg *models.MConfig, log *logger.Logger, rnd Rand, clock Clock) *PriceEngine {
	e := &PriceEngine{
		Logger:  log,
		floor:   cfg.Engine.PriceFloor,
		rnd:     rnd,
		clock:   clock,
		symbols: make([]string, 0, len(cfg.Engine.Symbols)),
		quotes:  make(map[string]models.MQuote, len(cfg.Engine.Symbols)),
	}

	now := clock.Now()
	for _, sym := range cfg.Engine.Symbols {
		jitter := (rnd.Float64() - 0.5) * 2 * cfg.Engine.SeedJitter
		e.symbols = append(e.symbols, sym.Symbol)
		e.quotes[sym.Symbol] = models.MQuote{
			Symbol:     sym.Symbol,
			Price:      round2(math.Max(e.floor, sym.BasePrice+jitter)),
			LastUpdate: now,
		}
	}

	log.Info("Price engine seeded with %d symbols", len(e.symbols))
	return e
}

// -----------------------------------------------------------------------------
// Tick
// -----------------------------------------------------------------------------

// AdvanceAll derives a new quote for every symbol from the previous one and
// returns the full new quote set as a copy safe for callers to keep.
func (e *PriceEngine) AdvanceAll() map[string]models.MQuote {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	updates := make(map[string]models.MQuote, len(e.symbols))

	for _, sym := range e.symbols {
		prev := e.quotes[sym]
		delta := (e.rnd.Float64() - 0.5) * 2
		newPrice := math.Max(e.floor, prev.Price+delta)
		change := newPrice - prev.Price

		quote := models.MQuote{
			Symbol:        sym,
			Price:         round2(newPrice),
			Change:        round2(change),
			ChangePercent: round3(change / prev.Price * 100),
			LastUpdate:    now,
		}
		e.quotes[sym] = quote
		updates[sym] = quote
	}

	return updates
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Quote returns the last computed quote for a symbol.
func (e *PriceEngine) Quote(symbol string) (models.MQuote, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	q, ok := e.quotes[symbol]
	return q, ok
}

// -----------------------------------------------------------------------------

// AllQuotes returns a shallow copy of the current quote set.
func (e *PriceEngine) AllQuotes() map[string]models.MQuote {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]models.MQuote, len(e.quotes))
	for sym, q := range e.quotes {
		out[sym] = q
	}
	return out
}

// -----------------------------------------------------------------------------

// Symbols returns the fixed catalog in configured order.
func (e *PriceEngine) Symbols() []string {
	out := make([]string, len(e.symbols))
	copy(out, e.symbols)
	return out
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
