package server

import (
	"encoding/json"
	"strconv"

	"stockpulse/src/models"
	"stockpulse/src/registry"
)

// -----------------------------------------------------------------------------
// Gateway message handling
// -----------------------------------------------------------------------------

// handleClientMessage dispatches one inbound frame. Messages from the same
// connection arrive in order through its read pump; frames from connections
// that never logged in are dropped, matching the unknown-identity taxonomy.
func (s *Server) handleClientMessage(c registry.Conn, raw []byte) {
	var msg models.MClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.Logger.Debug("Dropping unparseable frame from %s: %v", c.ID(), err)
		return
	}

	switch msg.Event {
	case models.EventLogin:
		s.handleLogin(c, msg.Data)
	case models.EventSubscribe:
		s.handleSubscribe(c, msg.Data)
	case models.EventUnsubscribe:
		s.handleUnsubscribe(c, msg.Data)
	case models.EventReplaceSubscriptions:
		s.handleReplaceSubscriptions(c, msg.Data)
	case models.EventUpdateHolding:
		s.handleUpdateHolding(c, msg.Data)
	default:
		s.Logger.Debug("Unknown event %q from %s", msg.Event, c.ID())
	}
}

// -----------------------------------------------------------------------------

// handleLogin binds the identity to this connection and replies with the
// full session state plus an immediate quote snapshot for its
// subscriptions. Baselines missing for already-subscribed symbols are
// backfilled from the current quotes.
func (s *Server) handleLogin(c registry.Conn, data json.RawMessage) {
	var identity string
	if err := json.Unmarshal(data, &identity); err != nil || identity == "" {
		s.Logger.Debug("Dropping login with bad identity from %s", c.ID())
		return
	}

	sess := s.Registry.Login(identity, c)
	s.Logger.Info("User logged in: %s (%s)", identity, c.ID())

	for _, sym := range sess.Subscriptions {
		if _, ok := sess.InitialPrices[sym]; ok {
			continue
		}
		if quote, ok := s.Engine.Quote(sym); ok {
			s.Registry.SetInitialPriceIfAbsent(identity, sym, quote.Price)
			sess.InitialPrices[sym] = quote.Price
		}
	}

	c.Push(models.EventLoginSuccess, models.MLoginSuccess{
		Identity:      sess.Identity,
		Subscriptions: sess.Subscriptions,
		Holdings:      sess.Holdings,
		InitialPrices: sess.InitialPrices,
		KnownSymbols:  s.Engine.Symbols(),
	})

	s.pushSnapshot(c, sess.Subscriptions)
}

// -----------------------------------------------------------------------------

func (s *Server) handleSubscribe(c registry.Conn, data json.RawMessage) {
	sess, ok := s.Registry.SessionByConn(c)
	if !ok {
		return
	}

	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil || symbol == "" {
		return
	}

	s.Registry.Subscribe(sess.Identity, symbol)
	s.Logger.Info("%s subscribed to %s", sess.Identity, symbol)

	if quote, ok := s.Engine.Quote(symbol); ok {
		s.Registry.SetInitialPriceIfAbsent(sess.Identity, symbol, quote.Price)
		c.Push(models.EventPriceUpdate, map[string]models.MQuote{symbol: quote})
	}
}

// -----------------------------------------------------------------------------

// handleUnsubscribe removes the symbol and sends nothing back; the client
// clears its own view.
func (s *Server) handleUnsubscribe(c registry.Conn, data json.RawMessage) {
	sess, ok := s.Registry.SessionByConn(c)
	if !ok {
		return
	}

	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil || symbol == "" {
		return
	}

	s.Registry.Unsubscribe(sess.Identity, symbol)
	s.Logger.Info("%s unsubscribed from %s", sess.Identity, symbol)
}

// -----------------------------------------------------------------------------

func (s *Server) handleReplaceSubscriptions(c registry.Conn, data json.RawMessage) {
	sess, ok := s.Registry.SessionByConn(c)
	if !ok {
		return
	}

	var symbols []string
	if err := json.Unmarshal(data, &symbols); err != nil {
		return
	}

	s.Registry.ReplaceSubscriptions(sess.Identity, symbols)
	s.Logger.Info("%s replaced subscriptions: %v", sess.Identity, symbols)

	for _, sym := range symbols {
		if quote, ok := s.Engine.Quote(sym); ok {
			s.Registry.SetInitialPriceIfAbsent(sess.Identity, sym, quote.Price)
		}
	}

	s.pushSnapshot(c, symbols)
}

// -----------------------------------------------------------------------------

func (s *Server) handleUpdateHolding(c registry.Conn, data json.RawMessage) {
	sess, ok := s.Registry.SessionByConn(c)
	if !ok {
		return
	}

	var update models.MHoldingUpdate
	if err := json.Unmarshal(data, &update); err != nil || update.Symbol == "" {
		return
	}

	units := coerceUnits(update.Units)
	s.Registry.SetHolding(sess.Identity, update.Symbol, units)
	s.Logger.Info("%s holding %s = %g", sess.Identity, update.Symbol, units)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// pushSnapshot sends the current quotes for the given symbols, skipping
// unknown ones. Nothing is sent when no symbol resolves.
func (s *Server) pushSnapshot(c registry.Conn, symbols []string) {
	prices := make(map[string]models.MQuote, len(symbols))
	for _, sym := range symbols {
		if quote, ok := s.Engine.Quote(sym); ok {
			prices[sym] = quote
		}
	}
	if len(prices) > 0 {
		c.Push(models.EventPriceUpdate, prices)
	}
}

// -----------------------------------------------------------------------------

// coerceUnits accepts a JSON number or numeric string. Anything malformed
// coerces to 0 rather than being rejected.
func coerceUnits(raw json.RawMessage) float64 {
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if parsed, err := strconv.ParseFloat(asString, 64); err == nil {
			return parsed
		}
	}

	return 0
}
