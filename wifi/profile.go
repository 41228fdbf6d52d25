package wifi

import (
	"errors"

	"github.com/dawnlite/portald/netman"
)

// ErrInvalidRequest marks a connection request that can't be turned
// into a profile, e.g. because the ssid is missing.
var ErrInvalidRequest = errors.New("invalid connection request")

// ConnectionFor builds the connection profile variant matching the
// security class of the chosen network.
//
// Missing credentials are passed through as empty strings so the
// network service itself gets to reject bad auth.
func ConnectionFor(security Security, name string, ssid string, identity string, passphrase string) (netman.Connection, error) {
	if ssid == "" {
		return nil, ErrInvalidRequest
	}

	switch security {
	case SecurityNone:
		return &netman.OpenConnection{
			Name: name,
			Ssid: ssid,
		}, nil
	case SecurityWep, SecurityWpa, SecurityWpa2:
		return &netman.PskConnection{
			Name: name,
			Ssid: ssid,
			Psk:  passphrase,
		}, nil
	case SecurityEnterprise:
		return &netman.EnterpriseConnection{
			Name:     name,
			Ssid:     ssid,
			Identity: identity,
			Password: passphrase,
		}, nil
	default:
		return nil, ErrInvalidRequest
	}
}
