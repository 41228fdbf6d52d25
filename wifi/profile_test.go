package wifi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnlite/portald/netman"
)

func TestConnectionForOpenNetwork(t *testing.T) {
	conn, err := ConnectionFor(SecurityNone, "test-wifi", "Free", "", "")
	require.NoError(t, err)

	open, ok := conn.(*netman.OpenConnection)
	require.True(t, ok, "expected an open connection, got %T", conn)
	assert.Equal(t, "test-wifi", open.Name)
	assert.Equal(t, "Free", open.Ssid)
}

func TestConnectionForPskNetworks(t *testing.T) {
	for _, security := range []Security{SecurityWep, SecurityWpa, SecurityWpa2} {
		conn, err := ConnectionFor(security, "test-wifi", "Cafe", "", "espresso")
		require.NoError(t, err, security)

		psk, ok := conn.(*netman.PskConnection)
		require.True(t, ok, "expected a psk connection for %v, got %T", security, conn)
		assert.Equal(t, "Cafe", psk.Ssid)
		assert.Equal(t, "espresso", psk.Psk)
	}
}

func TestConnectionForEnterpriseNetwork(t *testing.T) {
	conn, err := ConnectionFor(SecurityEnterprise, "test-wifi", "Corp", "alice", "secret")
	require.NoError(t, err)

	ent, ok := conn.(*netman.EnterpriseConnection)
	require.True(t, ok, "expected an enterprise connection, got %T", conn)
	assert.Equal(t, "Corp", ent.Ssid)
	assert.Equal(t, "alice", ent.Identity)
	assert.Equal(t, "secret", ent.Password)
}

func TestConnectionForMissingCredentials(t *testing.T) {
	// missing credentials become empty strings so the network service
	// itself gets to reject bad auth
	conn, err := ConnectionFor(SecurityWpa2, "test-wifi", "Cafe", "", "")
	require.NoError(t, err)
	assert.Equal(t, "", conn.(*netman.PskConnection).Psk)

	conn, err = ConnectionFor(SecurityEnterprise, "test-wifi", "Corp", "", "")
	require.NoError(t, err)
	assert.Equal(t, "", conn.(*netman.EnterpriseConnection).Identity)
	assert.Equal(t, "", conn.(*netman.EnterpriseConnection).Password)
}

func TestConnectionForEmptySsid(t *testing.T) {
	_, err := ConnectionFor(SecurityNone, "test-wifi", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestConnectionForUnknownSecurity(t *testing.T) {
	_, err := ConnectionFor(Security(42), "test-wifi", "Cafe", "", "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
