package models

import "encoding/json"

// Client -> server events
const (
	EventLogin                = "login"
	EventSubscribe            = "subscribe"
	EventUnsubscribe          = "unsubscribe"
	EventReplaceSubscriptions = "replaceSubscriptions"
	EventUpdateHolding        = "updateHolding"
)

// Server -> client events
const (
	EventLoginSuccess = "login_success"
	EventPriceUpdate  = "price_update"
)

// MClientMessage is the inbound websocket envelope. Data is decoded per
// event: a bare JSON string for login/subscribe/unsubscribe, a string array
// for replaceSubscriptions, an MHoldingUpdate for updateHolding.
type MClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MServerMessage is the outbound websocket envelope.
type MServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// MLoginSuccess acknowledges a login with the session state the client
// needs to rebuild its view after a reconnect.
type MLoginSuccess struct {
	Identity      string             `json:"identity"`
	Subscriptions []string           `json:"subscriptions"`
	Holdings      map[string]float64 `json:"holdings"`
	InitialPrices map[string]float64 `json:"initialPrices"`
	KnownSymbols  []string           `json:"knownSymbols"`
}

// MHoldingUpdate carries a holding change. Units stays raw because clients
// send it as either a number or a string; malformed values coerce to 0.
type MHoldingUpdate struct {
	Symbol string          `json:"symbol"`
	Units  json.RawMessage `json:"units"`
}
