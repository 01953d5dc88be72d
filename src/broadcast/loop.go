package broadcast

import (
	"sync"
	"time"

	"stockpulse/src/engine"
	"stockpulse/src/logger"
	"stockpulse/src/models"
	"stockpulse/src/registry"
)

// -----------------------------------------------------------------------------
// Loop
// -----------------------------------------------------------------------------

// Loop advances the price engine on a fixed interval and pushes each active
// session the subset of new quotes matching its subscriptions. It reads the
// engine and registry without owning either; it exclusively owns its ticker.
type Loop struct {
	Engine   *engine.PriceEngine
	Registry *registry.UserRegistry
	Logger   *logger.Logger

	interval time.Duration
	mu       sync.Mutex
	stop     chan struct{}
}

// -----------------------------------------------------------------------------

func NewLoop(cfg *models.MConfig, eng *engine.PriceEngine, reg *registry.UserRegistry, log *logger.Logger) *Loop {
	return &Loop{
		Engine:   eng,
		Registry: reg,
		Logger:   log,
		interval: time.Duration(cfg.Broadcast.IntervalMs) * time.Millisecond,
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start begins ticking. Calling Start while running replaces the previous
// ticker goroutine.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop != nil {
		close(l.stop)
	}
	l.stop = make(chan struct{})
	go l.run(l.stop)

	l.Logger.Info("Broadcast loop started (interval %s)", l.interval)
}

// -----------------------------------------------------------------------------

// Stop releases the ticker. No-op if already stopped.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop == nil {
		return
	}
	close(l.stop)
	l.stop = nil

	l.Logger.Info("Broadcast loop stopped")
}

// -----------------------------------------------------------------------------

func (l *Loop) run(stop chan struct{}) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Tick()
		case <-stop:
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Tick
// -----------------------------------------------------------------------------

// Tick advances all prices once and fans the personalized subsets out.
// Sessions with empty subscription sets receive nothing. Delivery is
// fire-and-forget; a connection that cannot accept the frame drops it.
func (l *Loop) Tick() {
	allPrices := l.Engine.AdvanceAll()

	for _, sess := range l.Registry.ActiveSessions() {
		if len(sess.Subscriptions) == 0 {
			continue
		}

		userPrices := make(map[string]models.MQuote, len(sess.Subscriptions))
		for _, sym := range sess.Subscriptions {
			if quote, ok := allPrices[sym]; ok {
				userPrices[sym] = quote
			}
		}

		if len(userPrices) > 0 {
			sess.Conn.Push(models.EventPriceUpdate, userPrices)
		}
	}
}
