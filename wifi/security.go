package wifi

import (
	"github.com/dawnlite/portald/netman"
)

// 802.11 flag bits we care about when classifying an access point, as
// defined by the network service's NM80211ApFlags/NM80211ApSecurityFlags.
const (
	// FlagPrivacy marks an access point that requires some kind of key.
	FlagPrivacy = uint32(0x1)
	// SecKeyMgmt8021X marks 802.1X (enterprise) key management.
	SecKeyMgmt8021X = uint32(0x200)
)

// Security is the classified security requirement of an access point,
// ordered by precedence.
type Security int

const (
	SecurityNone Security = iota
	SecurityWep
	SecurityWpa
	SecurityWpa2
	SecurityEnterprise
)

func (s Security) String() string {
	switch s {
	case SecurityNone:
		return "NONE"
	case SecurityWep:
		return "WEP"
	case SecurityWpa:
		return "WPA"
	case SecurityWpa2:
		return "WPA2"
	case SecurityEnterprise:
		return "ENTERPRISE"
	default:
		return "INVALID SECURITY"
	}
}

// NeedsPassphrase reports whether a user must supply a passphrase to
// connect to a network of this class.
func (s Security) NeedsPassphrase() bool {
	return s != SecurityNone
}

// NeedsIdentity reports whether a user must supply a username in
// addition to a passphrase.
func (s Security) NeedsIdentity() bool {
	return s == SecurityEnterprise
}

// AccessPoint is a discovered network after classification. Immutable.
type AccessPoint struct {
	Ssid     string
	Security Security
}

// Classify derives the security class from the raw capability and
// security bitmasks of an access point.
//
// The rules are evaluated in order and later rules override earlier
// ones. In particular the 802.1X override must run last, after the
// WEP/WPA/WPA2 chain has settled.
func Classify(flags, wpaFlags, rsnFlags uint32) Security {
	security := SecurityNone

	if flags&FlagPrivacy != 0 && wpaFlags == 0 && rsnFlags == 0 {
		security = SecurityWep
	}

	if wpaFlags != 0 {
		security = SecurityWpa
	}

	if rsnFlags != 0 {
		security = SecurityWpa2
	}

	if wpaFlags&SecKeyMgmt8021X != 0 || rsnFlags&SecKeyMgmt8021X != 0 {
		security = SecurityEnterprise
	}

	return security
}

// ClassifyAll turns raw scan records into the classified access point
// list. Access points with an empty ssid are discarded and duplicate
// (ssid, security) pairs are suppressed, keeping the first occurrence.
func ClassifyAll(raw []*netman.RawAccessPoint) []*AccessPoint {
	aps := make([]*AccessPoint, 0, len(raw))
	seen := make(map[AccessPoint]bool)

	for _, r := range raw {
		if len(r.Ssid) == 0 {
			continue
		}

		ap := AccessPoint{
			Ssid:     string(r.Ssid),
			Security: Classify(r.Flags, r.WpaFlags, r.RsnFlags),
		}

		if seen[ap] {
			continue
		}
		seen[ap] = true

		aps = append(aps, &ap)
	}

	return aps
}
