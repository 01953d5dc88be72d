package engine

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/src/logger"
	"stockpulse/src/models"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

// scriptedRand replays a fixed sequence, repeating the last value once
// exhausted.
type scriptedRand struct {
	values []float64
	idx    int
}

func (r *scriptedRand) Float64() float64 {
	if r.idx >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	v := r.values[r.idx]
	r.idx++
	return v
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func testConfig(symbols ...models.MSymbolConfig) *models.MConfig {
	return &models.MConfig{
		Name:     "test",
		LogLevel: "ERROR",
		Engine: models.MEngineConfig{
			PriceFloor: 1.0,
			SeedJitter: 0,
			Symbols:    symbols,
		},
		Broadcast: models.MBroadcastConfig{IntervalMs: 1000},
	}
}

func testLogger() *logger.Logger {
	return logger.NewLogger("ERROR", "test")
}

// -----------------------------------------------------------------------------

func TestAdvanceAll_KnownDelta(t *testing.T) {
	cfg := testConfig(models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50})
	// First value seeds the catalog (jitter 0), second drives the tick:
	// (0.75 - 0.5) * 2 = +0.5
	rnd := &scriptedRand{values: []float64{0.5, 0.75}}
	clock := fixedClock{t: time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)}

	eng := NewPriceEngine(cfg, testLogger(), rnd, clock)

	seed, ok := eng.Quote("GOOG")
	require.True(t, ok)
	require.Equal(t, 142.50, seed.Price)

	updates := eng.AdvanceAll()
	quote := updates["GOOG"]

	assert.Equal(t, 143.00, quote.Price)
	assert.Equal(t, 0.50, quote.Change)
	assert.Equal(t, 0.351, quote.ChangePercent)
	assert.Equal(t, clock.t, quote.LastUpdate)
}

func TestAdvanceAll_FloorClamp(t *testing.T) {
	cfg := testConfig(models.MSymbolConfig{Symbol: "PENNY", BasePrice: 1.0})
	// Every draw of 0 yields the maximum downward delta of -1
	rnd := &scriptedRand{values: []float64{0.5, 0}}
	eng := NewPriceEngine(cfg, testLogger(), rnd, fixedClock{t: time.Now()})

	for i := 0; i < 50; i++ {
		updates := eng.AdvanceAll()
		quote := updates["PENNY"]
		assert.GreaterOrEqual(t, quote.Price, 1.0)
	}

	quote, _ := eng.Quote("PENNY")
	assert.Equal(t, 1.0, quote.Price)
	assert.Equal(t, 0.0, quote.Change)
	assert.Equal(t, 0.0, quote.ChangePercent)
}

func TestAdvanceAll_ChangeArithmetic(t *testing.T) {
	cfg := testConfig(
		models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50},
		models.MSymbolConfig{Symbol: "NVDA", BasePrice: 875.40},
	)
	rnd := RealRand{Rand: rand.New(rand.NewSource(42))}
	eng := NewPriceEngine(cfg, testLogger(), rnd, RealClock{})

	for i := 0; i < 200; i++ {
		previous := eng.AllQuotes()
		updates := eng.AdvanceAll()

		for sym, quote := range updates {
			prev := previous[sym]
			assert.GreaterOrEqual(t, quote.Price, 1.0)

			// Rounding leaves at most 2 decimals on price/change, 3 on percent
			assert.InDelta(t, quote.Price*100, math.Round(quote.Price*100), 1e-9)
			assert.InDelta(t, quote.Change*100, math.Round(quote.Change*100), 1e-9)
			assert.InDelta(t, quote.ChangePercent*1000, math.Round(quote.ChangePercent*1000), 1e-9)

			// changePercent tracks change/previousPrice within rounding tolerance
			expected := (quote.Price - prev.Price) / prev.Price * 100
			assert.InDelta(t, expected, quote.ChangePercent, 0.02)
		}
	}
}

func TestSeeding_JitterWithinBounds(t *testing.T) {
	cfg := testConfig(
		models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50},
		models.MSymbolConfig{Symbol: "TSLA", BasePrice: 245.80},
	)
	cfg.Engine.SeedJitter = 10.0

	for seed := int64(0); seed < 20; seed++ {
		rnd := RealRand{Rand: rand.New(rand.NewSource(seed))}
		eng := NewPriceEngine(cfg, testLogger(), rnd, RealClock{})

		for _, sym := range cfg.Engine.Symbols {
			quote, ok := eng.Quote(sym.Symbol)
			require.True(t, ok)
			assert.InDelta(t, sym.BasePrice, quote.Price, 10.01)
			assert.Zero(t, quote.Change)
			assert.Zero(t, quote.ChangePercent)
		}
	}
}

func TestQuote_UnknownSymbol(t *testing.T) {
	cfg := testConfig(models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50})
	eng := NewPriceEngine(cfg, testLogger(), &scriptedRand{values: []float64{0.5}}, RealClock{})

	_, ok := eng.Quote("NOPE")
	assert.False(t, ok)
}

func TestAllQuotes_SnapshotIsolation(t *testing.T) {
	cfg := testConfig(models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50})
	eng := NewPriceEngine(cfg, testLogger(), &scriptedRand{values: []float64{0.5}}, RealClock{})

	snapshot := eng.AllQuotes()
	snapshot["GOOG"] = models.MQuote{Symbol: "GOOG", Price: -1}

	quote, _ := eng.Quote("GOOG")
	assert.Equal(t, 142.50, quote.Price)
}

func TestSymbols_ConfiguredOrder(t *testing.T) {
	cfg := testConfig(
		models.MSymbolConfig{Symbol: "GOOG", BasePrice: 142.50},
		models.MSymbolConfig{Symbol: "TSLA", BasePrice: 245.80},
		models.MSymbolConfig{Symbol: "AMZN", BasePrice: 178.25},
	)
	eng := NewPriceEngine(cfg, testLogger(), &scriptedRand{values: []float64{0.5}}, RealClock{})

	assert.Equal(t, []string{"GOOG", "TSLA", "AMZN"}, eng.Symbols())
}
