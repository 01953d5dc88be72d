package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/src/logger"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

type fakeConn struct {
	id string
}

func (c *fakeConn) ID() string           { return c.id }
func (c *fakeConn) Push(_ string, _ any) {}

func newRegistry() *UserRegistry {
	return NewUserRegistry(logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestLogin_CreatesSession(t *testing.T) {
	reg := newRegistry()
	conn := &fakeConn{id: "c1"}

	sess := reg.Login("a@x.com", conn)

	assert.Equal(t, "a@x.com", sess.Identity)
	assert.Empty(t, sess.Subscriptions)
	assert.Empty(t, sess.Holdings)
	assert.Empty(t, sess.InitialPrices)

	active := reg.ActiveSessions()
	require.Len(t, active, 1)
	assert.Equal(t, "a@x.com", active[0].Identity)
}

func TestRelogin_PreservesSessionState(t *testing.T) {
	reg := newRegistry()
	reg.Login("a@x.com", &fakeConn{id: "c1"})
	reg.Subscribe("a@x.com", "GOOG")
	reg.Subscribe("a@x.com", "TSLA")
	reg.SetHolding("a@x.com", "GOOG", 12.5)
	reg.SetInitialPriceIfAbsent("a@x.com", "GOOG", 142.50)

	_, ok := reg.Disconnect(&fakeConn{id: "c1"})
	require.True(t, ok)
	assert.Empty(t, reg.ActiveSessions())

	sess := reg.Login("a@x.com", &fakeConn{id: "c2"})

	assert.Equal(t, []string{"GOOG", "TSLA"}, sess.Subscriptions)
	assert.Equal(t, map[string]float64{"GOOG": 12.5}, sess.Holdings)
	assert.Equal(t, map[string]float64{"GOOG": 142.50}, sess.InitialPrices)
}

func TestLogin_LastLoginWins(t *testing.T) {
	reg := newRegistry()
	oldConn := &fakeConn{id: "c1"}
	newConn := &fakeConn{id: "c2"}

	reg.Login("a@x.com", oldConn)
	reg.Login("a@x.com", newConn)

	// The old handle's reverse mapping is evicted
	_, ok := reg.SessionByConn(oldConn)
	assert.False(t, ok)

	sess, ok := reg.SessionByConn(newConn)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", sess.Identity)

	// Still exactly one active session for the identity
	assert.Len(t, reg.ActiveSessions(), 1)
}

func TestDisconnect_UnknownHandle(t *testing.T) {
	reg := newRegistry()

	identity, ok := reg.Disconnect(&fakeConn{id: "ghost"})

	assert.False(t, ok)
	assert.Empty(t, identity)
}

func TestDisconnect_RemovesFromActiveSessions(t *testing.T) {
	reg := newRegistry()
	reg.Login("a@x.com", &fakeConn{id: "c1"})
	reg.Login("b@x.com", &fakeConn{id: "c2"})

	identity, ok := reg.Disconnect(&fakeConn{id: "c1"})
	require.True(t, ok)
	assert.Equal(t, "a@x.com", identity)

	active := reg.ActiveSessions()
	require.Len(t, active, 1)
	assert.Equal(t, "b@x.com", active[0].Identity)
}

func TestSubscribe_UnknownIdentityNoOps(t *testing.T) {
	reg := newRegistry()

	reg.Subscribe("nobody@x.com", "GOOG")
	reg.Unsubscribe("nobody@x.com", "GOOG")
	reg.ReplaceSubscriptions("nobody@x.com", []string{"GOOG"})
	reg.SetHolding("nobody@x.com", "GOOG", 1)
	reg.SetInitialPriceIfAbsent("nobody@x.com", "GOOG", 1)

	assert.Empty(t, reg.ActiveSessions())
}

func TestReplaceSubscriptions_CollapsesDuplicates(t *testing.T) {
	reg := newRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Login("a@x.com", conn)
	reg.Subscribe("a@x.com", "NVDA")

	reg.ReplaceSubscriptions("a@x.com", []string{"GOOG", "TSLA", "GOOG"})

	sess, ok := reg.SessionByConn(conn)
	require.True(t, ok)
	assert.Equal(t, []string{"GOOG", "TSLA"}, sess.Subscriptions)
}

func TestSetInitialPriceIfAbsent_FirstWriteWins(t *testing.T) {
	reg := newRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Login("a@x.com", conn)

	reg.SetInitialPriceIfAbsent("a@x.com", "GOOG", 142.50)
	reg.SetInitialPriceIfAbsent("a@x.com", "GOOG", 999.99)

	sess, _ := reg.SessionByConn(conn)
	assert.Equal(t, 142.50, sess.InitialPrices["GOOG"])
}

func TestSetHolding_Overwrites(t *testing.T) {
	reg := newRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Login("a@x.com", conn)

	reg.SetHolding("a@x.com", "TSLA", 3)
	reg.SetHolding("a@x.com", "TSLA", 0)

	sess, _ := reg.SessionByConn(conn)
	assert.Equal(t, 0.0, sess.Holdings["TSLA"])
}

func TestSessionView_IsACopy(t *testing.T) {
	reg := newRegistry()
	conn := &fakeConn{id: "c1"}
	reg.Login("a@x.com", conn)
	reg.Subscribe("a@x.com", "GOOG")

	sess, _ := reg.SessionByConn(conn)
	sess.Holdings["GOOG"] = 99
	sess.InitialPrices["GOOG"] = 99

	fresh, _ := reg.SessionByConn(conn)
	assert.Empty(t, fresh.Holdings)
	assert.Empty(t, fresh.InitialPrices)
}
