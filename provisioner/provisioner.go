// Package provisioner owns the single provisioning session: it raises
// the portal hotspot, hands submitted credentials to the network
// service and supervises the activation handshake, falling back to the
// hotspot whenever an attempt fails.
package provisioner

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/go-errors/errors"

	"github.com/dawnlite/portald/connectivity"
	"github.com/dawnlite/portald/netman"
	"github.com/dawnlite/portald/statefile"
	"github.com/dawnlite/portald/wifi"
)

// ErrAlreadyConnected is returned from Start when the device already
// has a working internet connection and nothing needs provisioning.
var ErrAlreadyConnected = stderrors.New("already connected to the internet")

// ErrActivationTimeout is returned when a connection did not reach the
// activated state within the bounded wait.
var ErrActivationTimeout = stderrors.New("connection activation timed out")

type State int

const (
	StateIdle State = iota
	StateScanning
	StateHotspot
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateScanning:
		return "SCANNING"
	case StateHotspot:
		return "HOTSPOT"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateFailed:
		return "FAILED"
	default:
		return "INVALID STATE"
	}
}

type Config struct {
	Manager      netman.Manager
	Connectivity connectivity.Reporter
	Status       *statefile.Store

	// HotspotName is the profile name of the portal hotspot.
	HotspotName string
	// HotspotSsid is the ssid the hotspot broadcasts.
	HotspotSsid string
	// HotspotAddress is the address the hotspot and portal live on.
	HotspotAddress string
	// ConnectionName is the profile name used for client connections.
	ConnectionName string

	// DeleteConnections removes all stored wireless profiles at startup.
	DeleteConnections bool
	// IgnoreConnectivity skips the internet reachability check.
	IgnoreConnectivity bool

	// ActivationInterval is the pause between activation polls.
	// Defaults to one second.
	ActivationInterval time.Duration
	// ActivationAttempts bounds the activation wait. Defaults to 30.
	ActivationAttempts int
	// SettleTime is the pause after bulk profile deletions, giving the
	// network service time to catch up. Defaults to two seconds.
	SettleTime time.Duration

	Logger Logger
}

// Provisioner is the per-process provisioning session. All transitions
// are serialized behind one mutex; the cached scan snapshot is replaced
// wholesale, never mutated.
type Provisioner struct {
	mtx sync.Mutex
	log Logger

	manager      netman.Manager
	connectivity connectivity.Reporter
	status       *statefile.Store

	hotspotName    string
	hotspotSsid    string
	hotspotAddress string
	connectionName string

	deleteConnections  bool
	ignoreConnectivity bool

	activationInterval time.Duration
	activationAttempts int
	settleTime         time.Duration

	state        State
	device       *netman.Device
	accessPoints []*wifi.AccessPoint

	hotspotActive netman.ActiveRef

	done     chan struct{}
	doneOnce sync.Once
}

func New(config *Config) *Provisioner {
	p := &Provisioner{
		manager:            config.Manager,
		connectivity:       config.Connectivity,
		status:             config.Status,
		hotspotName:        config.HotspotName,
		hotspotSsid:        config.HotspotSsid,
		hotspotAddress:     config.HotspotAddress,
		connectionName:     config.ConnectionName,
		deleteConnections:  config.DeleteConnections,
		ignoreConnectivity: config.IgnoreConnectivity,
		activationInterval: config.ActivationInterval,
		activationAttempts: config.ActivationAttempts,
		settleTime:         config.SettleTime,
		state:              StateIdle,
		done:               make(chan struct{}),
	}

	if config.Logger != nil {
		p.log = config.Logger
	} else {
		p.log = noopLogger{}
	}

	if p.hotspotName == "" {
		p.hotspotName = "portald-hotspot"
	}

	if p.hotspotSsid == "" {
		p.hotspotSsid = "Portal"
	}

	if p.hotspotAddress == "" {
		p.hotspotAddress = "192.168.42.1"
	}

	if p.connectionName == "" {
		p.connectionName = "portald-wifi"
	}

	if p.activationInterval == 0 {
		p.activationInterval = time.Second
	}

	if p.activationAttempts == 0 {
		p.activationAttempts = 30
	}

	return p
}

// Start brings the session from idle to a serving hotspot: optional
// profile purge, reachability gate, scan and hotspot raise. It returns
// ErrAlreadyConnected when there is nothing to provision. Any other
// error means the hotspot could not be raised and the session is
// unusable.
func (p *Provisioner) Start() error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.state = StateScanning

	if p.deleteConnections {
		if err := p.purgeConnections(); err != nil {
			p.log.Warnf("Could not delete existing connections: %v", err)
		}
	}

	if !p.ignoreConnectivity && p.connectivity.CurrentState() == connectivity.Online {
		p.state = StateConnected
		return ErrAlreadyConnected
	}

	device, err := p.findDevice()
	if err != nil {
		return err
	}

	p.device = device

	p.log.Infof("Using wireless device %v.", device.Interface)

	// The snapshot has to be taken before the hotspot goes up, or the
	// hotspot would be the only network in the list.
	if err := p.refreshAccessPoints(); err != nil {
		return err
	}

	if err := p.raiseHotspot(); err != nil {
		return err
	}

	return nil
}

// Connect tears down the hotspot and joins the submitted network,
// waiting for the activation to settle. On any failure the hotspot is
// re-armed with a fresh scan so the portal can serve another attempt.
// Hidden submissions are always treated as password-secured.
func (p *Provisioner) Connect(ssid string, identity string, passphrase string, hidden bool) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.state != StateHotspot {
		return errors.Errorf("cannot connect while in state %v", p.state)
	}

	security := p.securityOf(ssid, hidden)

	connection, err := wifi.ConnectionFor(security, p.connectionName, ssid, identity, passphrase)
	if err != nil {
		// a malformed request doesn't cost us the hotspot
		return err
	}

	p.log.Infof("Connecting to %v (%v)...", ssid, security)

	p.state = StateConnecting

	p.teardownHotspot()

	if err := p.connect(connection); err != nil {
		p.log.Errorf("Connection to %v failed: %v", ssid, err)
		p.rearmHotspot()
		return err
	}

	p.log.Infof("Connected to %v.", ssid)

	if err := p.status.Set(statefile.ModeClient); err != nil {
		p.log.Errorf("Could not persist client marker: %v", err)
	}

	p.state = StateConnected

	p.doneOnce.Do(func() {
		close(p.done)
	})

	return nil
}

// connect submits and activates a client profile, removing it again if
// activation doesn't settle.
func (p *Provisioner) connect(connection netman.Connection) error {
	if err := p.deleteConnectionsNamed(p.connectionName); err != nil {
		return err
	}

	ref, err := p.manager.CreateConnection(connection)
	if err != nil {
		return err
	}

	active, err := p.manager.ActivateConnection(ref, p.device)
	if err != nil {
		p.removeConnection()
		return err
	}

	if err := p.waitForActivation(); err != nil {
		if derr := p.manager.DeactivateConnection(active); derr != nil {
			p.log.Debugf("Could not deactivate failed connection: %v", derr)
		}
		p.removeConnection()
		return err
	}

	return nil
}

// removeConnection clears the client profile left behind by a failed
// attempt, so at most one profile of ours exists at any time.
func (p *Provisioner) removeConnection() {
	if err := p.deleteConnectionsNamed(p.connectionName); err != nil {
		p.log.Warnf("Could not remove stale connection: %v", err)
	}
}

// rearmHotspot recovers from a failed attempt: fresh scan, hotspot back
// up, portal serving again.
func (p *Provisioner) rearmHotspot() {
	p.state = StateFailed

	if err := p.refreshAccessPoints(); err != nil {
		p.log.Warnf("Could not refresh access points: %v", err)
	}

	if err := p.raiseHotspot(); err != nil {
		p.log.Errorf("Could not re-arm hotspot: %v", err)
	}
}

// raiseHotspot builds and activates the portal hotspot. Deleting any
// profile sharing the hotspot name first makes re-arming idempotent.
func (p *Provisioner) raiseHotspot() error {
	if err := p.deleteConnectionsNamed(p.hotspotName); err != nil {
		return err
	}

	connection := &netman.HotspotConnection{
		Name:    p.hotspotName,
		Ssid:    p.hotspotSsid,
		Address: p.hotspotAddress,
		Prefix:  24,
	}

	ref, err := p.manager.CreateConnection(connection)
	if err != nil {
		return err
	}

	active, err := p.manager.ActivateConnection(ref, p.device)
	if err != nil {
		return err
	}

	if err := p.waitForActivation(); err != nil {
		return err
	}

	p.hotspotActive = active

	if err := p.status.Set(statefile.ModeHotspot); err != nil {
		p.log.Errorf("Could not persist hotspot marker: %v", err)
	}

	p.state = StateHotspot

	p.log.Infof("Hotspot %v is up on %v.", p.hotspotSsid, p.hotspotAddress)

	return nil
}

// teardownHotspot takes the hotspot down before a connection attempt.
// Best effort; a half-removed hotspot must not block the attempt.
func (p *Provisioner) teardownHotspot() {
	if p.hotspotActive != "" {
		if err := p.manager.DeactivateConnection(p.hotspotActive); err != nil {
			p.log.Debugf("Could not deactivate hotspot: %v", err)
		}
		p.hotspotActive = ""
	}

	if err := p.deleteConnectionsNamed(p.hotspotName); err != nil {
		p.log.Debugf("Could not delete hotspot profile: %v", err)
	}
}

// waitForActivation polls the device state once per interval until it
// reports activated, for at most activationAttempts polls.
func (p *Provisioner) waitForActivation() error {
	for i := 0; i < p.activationAttempts; i++ {
		state, err := p.manager.DeviceState(p.device)
		if err != nil {
			return err
		}

		if state == netman.DeviceStateActivated {
			return nil
		}

		p.log.Debugf("Device state %v.", state)

		time.Sleep(p.activationInterval)
	}

	return ErrActivationTimeout
}

// refreshAccessPoints replaces the cached snapshot with a freshly
// scanned and classified access point list.
func (p *Provisioner) refreshAccessPoints() error {
	if err := p.manager.Scan(p.device); err != nil {
		return err
	}

	raw, err := p.manager.AccessPoints(p.device)
	if err != nil {
		return err
	}

	p.accessPoints = wifi.ClassifyAll(raw)

	p.log.Infof("Found %d access points.", len(p.accessPoints))

	return nil
}

// securityOf resolves the security class of a submitted ssid against
// the cached snapshot. Hidden and unknown ssids fall back to the
// password-secured class, since their security can't be inspected.
func (p *Provisioner) securityOf(ssid string, hidden bool) wifi.Security {
	if hidden {
		return wifi.SecurityWpa2
	}

	for _, ap := range p.accessPoints {
		if ap.Ssid == ssid {
			return ap.Security
		}
	}

	return wifi.SecurityWpa2
}

// findDevice picks the first managed wireless device.
func (p *Provisioner) findDevice() (*netman.Device, error) {
	devices, err := p.manager.WirelessDevices()
	if err != nil {
		return nil, err
	}

	for _, device := range devices {
		if device.Managed {
			return device, nil
		}
	}

	return nil, errors.New("no managed wireless device found")
}

// purgeConnections removes every stored wireless profile on every
// wireless device.
func (p *Provisioner) purgeConnections() error {
	devices, err := p.manager.WirelessDevices()
	if err != nil {
		return err
	}

	for _, device := range devices {
		conns, err := p.manager.Connections(device)
		if err != nil {
			return err
		}

		for _, conn := range conns {
			if err := p.manager.DeleteConnection(conn.Uuid); err != nil {
				return err
			}
		}
	}

	time.Sleep(p.settleTime)

	return nil
}

// deleteConnectionsNamed removes all profiles carrying the given name.
func (p *Provisioner) deleteConnectionsNamed(name string) error {
	conns, err := p.manager.Connections(p.device)
	if err != nil {
		return err
	}

	for _, conn := range conns {
		if conn.Id != name {
			continue
		}

		if err := p.manager.DeleteConnection(conn.Uuid); err != nil {
			return err
		}
	}

	return nil
}

// AccessPoints returns a copy of the cached scan snapshot.
func (p *Provisioner) AccessPoints() []*wifi.AccessPoint {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	aps := make([]*wifi.AccessPoint, len(p.accessPoints))
	copy(aps, p.accessPoints)

	return aps
}

// State reports the current session state.
func (p *Provisioner) State() State {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	return p.state
}

// Done is closed once the session reaches its terminal state, either
// through a successful client connection or through Shutdown. The
// hosting process observes it instead of the session exiting by itself.
func (p *Provisioner) Done() <-chan struct{} {
	return p.done
}

// Shutdown takes the hotspot down and ends the session. Safe to call
// from any exit path; the teardown runs at most once.
func (p *Provisioner) Shutdown() {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	if p.state == StateHotspot || p.state == StateFailed {
		p.teardownHotspot()
	}

	p.doneOnce.Do(func() {
		close(p.done)
	})
}
