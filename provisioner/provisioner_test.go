package provisioner_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawnlite/portald/connectivity"
	"github.com/dawnlite/portald/netman"
	"github.com/dawnlite/portald/provisioner"
	"github.com/dawnlite/portald/statefile"
	"github.com/dawnlite/portald/wifi"
)

const (
	secKeyMgmtPsk   = uint32(0x100)
	secKeyMgmt8021X = uint32(0x200)
)

func testAccessPoints() []*netman.RawAccessPoint {
	return []*netman.RawAccessPoint{
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
		{Ssid: []byte("Free")},
		{Ssid: []byte("Corp"), RsnFlags: secKeyMgmt8021X},
	}
}

func newTestProvisioner(t *testing.T, mock *netman.Mock, state connectivity.State) (*provisioner.Provisioner, *statefile.Store) {
	t.Helper()

	status := statefile.NewStore(t.TempDir())

	p := provisioner.New(&provisioner.Config{
		Manager:            mock,
		Connectivity:       &connectivity.StaticReporter{State: state},
		Status:             status,
		HotspotName:        "test-hotspot",
		HotspotSsid:        "Portal-4c2f",
		HotspotAddress:     "192.168.42.1",
		ConnectionName:     "test-wifi",
		ActivationInterval: time.Millisecond,
	})

	return p, status
}

func repeatStates(state netman.DeviceState, n int, then ...netman.DeviceState) []netman.DeviceState {
	states := make([]netman.DeviceState, 0, n+len(then))
	for i := 0; i < n; i++ {
		states = append(states, state)
	}
	return append(states, then...)
}

func TestStartSkipsWhenAlreadyOnline(t *testing.T) {
	mock := netman.NewMock()
	p, _ := newTestProvisioner(t, mock, connectivity.Online)

	err := p.Start()
	assert.ErrorIs(t, err, provisioner.ErrAlreadyConnected)
	assert.Equal(t, 0, mock.ScanCount())
	assert.Empty(t, mock.StoredConnections())
}

func TestStartProvisionsWhenOffline(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, status := newTestProvisioner(t, mock, connectivity.Offline)

	require.NoError(t, p.Start())

	assert.Equal(t, provisioner.StateHotspot, p.State())
	assert.Equal(t, 1, mock.ScanCount())

	// the snapshot is classified and cached for the whole session
	aps := p.AccessPoints()
	require.Len(t, aps, 3)
	assert.Equal(t, wifi.SecurityWpa2, aps[0].Security)
	assert.Equal(t, wifi.SecurityNone, aps[1].Security)
	assert.Equal(t, wifi.SecurityEnterprise, aps[2].Security)

	// exactly one hotspot profile exists and is active
	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	hotspot, ok := conns[0].(*netman.HotspotConnection)
	require.True(t, ok, "expected a hotspot connection, got %T", conns[0])
	assert.Equal(t, "Portal-4c2f", hotspot.Ssid)
	assert.Equal(t, 1, mock.ActiveCount())

	mode, err := status.Current()
	require.NoError(t, err)
	assert.Equal(t, statefile.ModeHotspot, mode)
}

func TestHotspotRaiseIsIdempotent(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())

	// simulate a stale hotspot profile left over from a previous run
	_, err := mock.CreateConnection(&netman.HotspotConnection{
		Name: "test-hotspot",
		Ssid: "Portal-old",
	})
	require.NoError(t, err)

	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	assert.Equal(t, "Portal-4c2f", conns[0].(*netman.HotspotConnection).Ssid)
}

func TestConnectToOpenNetwork(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, status := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	require.NoError(t, p.Connect("Free", "", "", false))

	assert.Equal(t, provisioner.StateConnected, p.State())

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	open, ok := conns[0].(*netman.OpenConnection)
	require.True(t, ok, "expected an open connection, got %T", conns[0])
	assert.Equal(t, "Free", open.Ssid)

	mode, err := status.Current()
	require.NoError(t, err)
	assert.Equal(t, statefile.ModeClient, mode)

	select {
	case <-p.Done():
	default:
		t.Fatal("expected the session to be done after a successful connection")
	}
}

func TestConnectToPskNetwork(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	require.NoError(t, p.Connect("Cafe", "", "espresso", false))

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	psk, ok := conns[0].(*netman.PskConnection)
	require.True(t, ok, "expected a psk connection, got %T", conns[0])
	assert.Equal(t, "Cafe", psk.Ssid)
	assert.Equal(t, "espresso", psk.Psk)
}

func TestConnectToEnterpriseNetwork(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	require.NoError(t, p.Connect("Corp", "alice", "secret", false))

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	ent, ok := conns[0].(*netman.EnterpriseConnection)
	require.True(t, ok, "expected an enterprise connection, got %T", conns[0])
	assert.Equal(t, "alice", ent.Identity)
	assert.Equal(t, "secret", ent.Password)
}

func TestConnectDefaultsUnknownSsidToPsk(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	require.NoError(t, p.Connect("Ghost", "", "pass", false))

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	assert.IsType(t, &netman.PskConnection{}, conns[0])
}

func TestConnectTreatsHiddenSsidAsPsk(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	// "Free" is known to be open, but a hidden submission can't be
	// inspected and always takes the password path
	require.NoError(t, p.Connect("Free", "", "pass", true))

	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	assert.IsType(t, &netman.PskConnection{}, conns[0])
}

func TestConnectRejectsEmptySsid(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	err := p.Connect("", "", "", false)
	assert.ErrorIs(t, err, wifi.ErrInvalidRequest)

	// a malformed request must not cost us the hotspot
	assert.Equal(t, provisioner.StateHotspot, p.State())
	assert.Equal(t, 1, mock.ScanCount())
	require.Len(t, mock.StoredConnections(), 1)
	assert.IsType(t, &netman.HotspotConnection{}, mock.StoredConnections()[0])
}

func TestActivationSucceedsWithinBound(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	// activated on the 29th poll, just inside the bound
	mock.SetDeviceStates(repeatStates(netman.DeviceStateConfig, 28, netman.DeviceStateActivated)...)

	require.NoError(t, p.Connect("Free", "", "", false))
	assert.Equal(t, provisioner.StateConnected, p.State())
}

func TestActivationTimeoutRearmsHotspot(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, status := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	// 30 polls never activate; the re-armed hotspot then sees activated
	mock.SetDeviceStates(repeatStates(netman.DeviceStateConfig, 30, netman.DeviceStateActivated)...)

	err := p.Connect("Cafe", "", "wrong", false)
	assert.ErrorIs(t, err, provisioner.ErrActivationTimeout)

	// the session recovered: fresh scan, hotspot back up, failed
	// profile removed
	assert.Equal(t, provisioner.StateHotspot, p.State())
	assert.Equal(t, 2, mock.ScanCount())
	conns := mock.StoredConnections()
	require.Len(t, conns, 1)
	assert.IsType(t, &netman.HotspotConnection{}, conns[0])

	mode, err := status.Current()
	require.NoError(t, err)
	assert.Equal(t, statefile.ModeHotspot, mode)

	select {
	case <-p.Done():
		t.Fatal("the session must survive a failed attempt")
	default:
	}
}

func TestConnectAdapterErrorFails(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	serviceErr := &netman.Error{Op: "activate connection", Err: errors.New("boom")}
	mock.ActivateErr = serviceErr

	err := p.Connect("Free", "", "", false)
	assert.Error(t, err)

	// with the service broken the re-arm can't succeed either
	assert.Equal(t, provisioner.StateFailed, p.State())
}

func TestConnectRequiresHotspotState(t *testing.T) {
	mock := netman.NewMock()
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)

	// never started
	assert.Error(t, p.Connect("Free", "", "", false))
}

func TestShutdownTearsDownHotspot(t *testing.T) {
	mock := netman.NewMock()
	mock.SetAccessPoints(testAccessPoints())
	p, _ := newTestProvisioner(t, mock, connectivity.Offline)
	require.NoError(t, p.Start())

	p.Shutdown()

	assert.Empty(t, mock.StoredConnections())
	assert.Equal(t, 0, mock.ActiveCount())

	select {
	case <-p.Done():
	default:
		t.Fatal("expected the session to be done after shutdown")
	}

	// shutting down twice must be safe
	p.Shutdown()
}
