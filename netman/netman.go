package netman

import (
	"fmt"
)

// Device is a wireless networking device as reported by the
// network-management service.
type Device struct {
	// Path uniquely identifies the device for subsequent calls.
	Path string
	// Interface is the kernel interface name, e.g. wlan0.
	Interface string
	// Managed reports whether the service manages the device.
	Managed bool
	// Configured reports whether the device carries an IPv4 configuration.
	Configured bool
}

// RawAccessPoint is an access point as seen by the service, before any
// security classification has happened.
type RawAccessPoint struct {
	Ssid []byte
	// Flags, WpaFlags and RsnFlags are bit OR'd combinations of the
	// service's 802.11 capability and security flags.
	Flags    uint32
	WpaFlags uint32
	RsnFlags uint32
}

// ConnectionInfo identifies a stored connection profile.
type ConnectionInfo struct {
	Id   string
	Uuid string
}

// ConnectionRef points at a connection profile owned by the service.
type ConnectionRef string

// ActiveRef points at an active connection held by the service.
type ActiveRef string

// DeviceState mirrors the service's device activation states.
type DeviceState uint32

const (
	DeviceStateUnknown      DeviceState = 0
	DeviceStateUnmanaged    DeviceState = 10
	DeviceStateUnavailable  DeviceState = 20
	DeviceStateDisconnected DeviceState = 30
	DeviceStatePrepare      DeviceState = 40
	DeviceStateConfig       DeviceState = 50
	DeviceStateNeedAuth     DeviceState = 60
	DeviceStateIpConfig     DeviceState = 70
	DeviceStateIpCheck      DeviceState = 80
	DeviceStateSecondaries  DeviceState = 90
	DeviceStateActivated    DeviceState = 100
	DeviceStateDeactivating DeviceState = 110
	DeviceStateFailed       DeviceState = 120
)

func (s DeviceState) String() string {
	switch s {
	case DeviceStateUnknown:
		return "UNKNOWN"
	case DeviceStateUnmanaged:
		return "UNMANAGED"
	case DeviceStateUnavailable:
		return "UNAVAILABLE"
	case DeviceStateDisconnected:
		return "DISCONNECTED"
	case DeviceStatePrepare:
		return "PREPARE"
	case DeviceStateConfig:
		return "CONFIG"
	case DeviceStateNeedAuth:
		return "NEED_AUTH"
	case DeviceStateIpConfig:
		return "IP_CONFIG"
	case DeviceStateIpCheck:
		return "IP_CHECK"
	case DeviceStateSecondaries:
		return "SECONDARIES"
	case DeviceStateActivated:
		return "ACTIVATED"
	case DeviceStateDeactivating:
		return "DEACTIVATING"
	case DeviceStateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("INVALID STATE (%d)", uint32(s))
	}
}

// Error wraps any failure coming out of the network-management service.
// The adapter never retries; callers decide how to recover.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("netman: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager is the capability interface the provisioner requires from the
// network-management service. Implementations are synchronous and do not
// retry on failure.
type Manager interface {
	// WirelessDevices lists all Wi-Fi devices known to the service.
	WirelessDevices() ([]*Device, error)
	// Scan asks the service to refresh the access point list of the
	// device. Results are observed through AccessPoints.
	Scan(device *Device) error
	// AccessPoints returns the access points currently known for the
	// device.
	AccessPoints(device *Device) ([]*RawAccessPoint, error)
	// Connections returns the stored wireless profiles usable by the
	// device, keyed by their last-activation timestamp.
	Connections(device *Device) (map[int64]ConnectionInfo, error)
	// DeleteConnection removes a stored profile.
	DeleteConnection(uuid string) error
	// CreateConnection submits a new profile to the service.
	CreateConnection(connection Connection) (ConnectionRef, error)
	// ActivateConnection brings a profile up on the device.
	ActivateConnection(ref ConnectionRef, device *Device) (ActiveRef, error)
	// DeactivateConnection takes an active connection down.
	DeactivateConnection(active ActiveRef) error
	// DeviceState reports the current activation state of the device.
	DeviceState(device *Device) (DeviceState, error)
}
