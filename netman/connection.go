package netman

// Connection describes a connection profile to be submitted to the
// network-management service. Exactly one of the four variants below
// is used per connection attempt.
type Connection interface{}

// HotspotConnection is the device's own temporary access point, hosting
// the captive portal on a fixed address.
type HotspotConnection struct {
	Name    string
	Ssid    string
	Address string
	Prefix  uint32
}

// OpenConnection joins a network without any authentication.
type OpenConnection struct {
	Name string
	Ssid string
}

// PskConnection joins a WEP/WPA/WPA2 network with a pre-shared key.
type PskConnection struct {
	Name string
	Ssid string
	Psk  string
}

// EnterpriseConnection joins an 802.1X network with a username and
// password checked against an authentication server.
type EnterpriseConnection struct {
	Name     string
	Ssid     string
	Identity string
	Password string
}

// connectionName returns the profile name a connection was requested under.
func connectionName(connection Connection) string {
	switch conn := connection.(type) {
	case *HotspotConnection:
		return conn.Name
	case *OpenConnection:
		return conn.Name
	case *PskConnection:
		return conn.Name
	case *EnterpriseConnection:
		return conn.Name
	default:
		return ""
	}
}
