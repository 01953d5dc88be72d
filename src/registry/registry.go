package registry

import (
	"sort"
	"sync"

	"stockpulse/src/logger"
)

// -----------------------------------------------------------------------------
// Connection handle
// -----------------------------------------------------------------------------

// Conn is the transport handle a session pushes through. IDs must be unique
// per connection for the lifetime of the process; the reverse lookup map is
// keyed by them.
type Conn interface {
	ID() string
	Push(event string, data any)
}

// -----------------------------------------------------------------------------
// Session state
// -----------------------------------------------------------------------------

// session is the durable per-identity record. The connection is ephemeral
// and nulled (not deleted) on disconnect so subscriptions, holdings and
// baselines survive a reconnect.
type session struct {
	identity      string
	conn          Conn
	subscriptions map[string]struct{}
	holdings      map[string]float64
	initialPrices map[string]float64
}

// SessionView is a point-in-time copy of a session, safe to read after the
// registry lock is released.
type SessionView struct {
	Identity      string
	Conn          Conn
	Subscriptions []string
	Holdings      map[string]float64
	InitialPrices map[string]float64
}

// -----------------------------------------------------------------------------
// UserRegistry
// -----------------------------------------------------------------------------

// UserRegistry maps identities to sessions and live connections to
// identities. Disconnected sessions are kept forever; there is no
// eviction.
type UserRegistry struct {
	Logger *logger.Logger

	sessions     map[string]*session
	connIdentity map[string]string
	mu           sync.Mutex
}

// -----------------------------------------------------------------------------

func NewUserRegistry(log *logger.Logger) *UserRegistry {
	return &UserRegistry{
		Logger:       log,
		sessions:     make(map[string]*session),
		connIdentity: make(map[string]string),
	}
}

// -----------------------------------------------------------------------------
// Login / disconnect
// -----------------------------------------------------------------------------

// Login creates the session for an identity on first sight and rebinds the
// connection on every call. Last login wins: the previous connection's
// reverse entry is evicted.
func (r *UserRegistry) Login(identity string, conn Conn) *SessionView {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[identity]
	if !ok {
		sess = &session{
			identity:      identity,
			subscriptions: make(map[string]struct{}),
			holdings:      make(map[string]float64),
			initialPrices: make(map[string]float64),
		}
		r.sessions[identity] = sess
	}

	if sess.conn != nil {
		delete(r.connIdentity, sess.conn.ID())
	}
	sess.conn = conn
	r.connIdentity[conn.ID()] = identity

	return sess.view()
}

// -----------------------------------------------------------------------------

// Disconnect nulls the owning session's connection and removes the reverse
// mapping. Unknown handles report ok=false.
func (r *UserRegistry) Disconnect(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.connIdentity[conn.ID()]
	if !ok {
		return "", false
	}
	delete(r.connIdentity, conn.ID())

	if sess, ok := r.sessions[identity]; ok {
		sess.conn = nil
	}
	return identity, true
}

// -----------------------------------------------------------------------------
// Subscription mutation
// -----------------------------------------------------------------------------

// Subscribe adds a symbol to the identity's subscription set. Unknown
// identities no-op.
func (r *UserRegistry) Subscribe(identity, symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[identity]; ok {
		sess.subscriptions[symbol] = struct{}{}
	}
}

// -----------------------------------------------------------------------------

func (r *UserRegistry) Unsubscribe(identity, symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[identity]; ok {
		delete(sess.subscriptions, symbol)
	}
}

// -----------------------------------------------------------------------------

// ReplaceSubscriptions sets the subscription set to exactly the given
// symbols. Duplicates collapse, order is irrelevant.
func (r *UserRegistry) ReplaceSubscriptions(identity string, symbols []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[identity]
	if !ok {
		return
	}
	sess.subscriptions = make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		sess.subscriptions[sym] = struct{}{}
	}
}

// -----------------------------------------------------------------------------
// Portfolio mutation
// -----------------------------------------------------------------------------

// SetInitialPriceIfAbsent records the profit/loss baseline for an
// identity+symbol pair. First write wins; later calls no-op.
func (r *UserRegistry) SetInitialPriceIfAbsent(identity, symbol string, price float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[identity]
	if !ok {
		return
	}
	if _, exists := sess.initialPrices[symbol]; !exists {
		sess.initialPrices[symbol] = price
	}
}

// -----------------------------------------------------------------------------

// SetHolding overwrites the held units for a symbol.
func (r *UserRegistry) SetHolding(identity, symbol string, units float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[identity]; ok {
		sess.holdings[symbol] = units
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// ActiveSessions returns a snapshot of every session with a live
// connection, in arbitrary order.
func (r *UserRegistry) ActiveSessions() []*SessionView {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*SessionView
	for _, sess := range r.sessions {
		if sess.conn != nil {
			out = append(out, sess.view())
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (r *UserRegistry) SessionByConn(conn Conn) (*SessionView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.connIdentity[conn.ID()]
	if !ok {
		return nil, false
	}
	sess, ok := r.sessions[identity]
	if !ok {
		return nil, false
	}
	return sess.view(), true
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// view copies the session under the caller's lock.
func (s *session) view() *SessionView {
	subs := make([]string, 0, len(s.subscriptions))
	for sym := range s.subscriptions {
		subs = append(subs, sym)
	}
	sort.Strings(subs)

	holdings := make(map[string]float64, len(s.holdings))
	for sym, units := range s.holdings {
		holdings[sym] = units
	}
	initial := make(map[string]float64, len(s.initialPrices))
	for sym, price := range s.initialPrices {
		initial[sym] = price
	}

	return &SessionView{
		Identity:      s.identity,
		Conn:          s.conn,
		Subscriptions: subs,
		Holdings:      holdings,
		InitialPrices: initial,
	}
}
