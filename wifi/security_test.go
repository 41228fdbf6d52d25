package wifi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dawnlite/portald/netman"
)

const (
	// NM_802_11_AP_SEC_KEY_MGMT_PSK, stands in for any non-802.1X flag
	secKeyMgmtPsk = uint32(0x100)
)

func TestClassify(t *testing.T) {
	// all combinations of the privacy capability with the flag classes
	// that matter for the precedence chain
	tests := []struct {
		flags    uint32
		wpaFlags uint32
		rsnFlags uint32
		want     Security
	}{
		{0, 0, 0, SecurityNone},
		{0, 0, secKeyMgmtPsk, SecurityWpa2},
		{0, 0, SecKeyMgmt8021X, SecurityEnterprise},
		{0, secKeyMgmtPsk, 0, SecurityWpa},
		{0, secKeyMgmtPsk, secKeyMgmtPsk, SecurityWpa2},
		{0, secKeyMgmtPsk, SecKeyMgmt8021X, SecurityEnterprise},
		{0, SecKeyMgmt8021X, 0, SecurityEnterprise},
		{0, SecKeyMgmt8021X, secKeyMgmtPsk, SecurityEnterprise},
		{0, SecKeyMgmt8021X, SecKeyMgmt8021X, SecurityEnterprise},
		{FlagPrivacy, 0, 0, SecurityWep},
		{FlagPrivacy, 0, secKeyMgmtPsk, SecurityWpa2},
		{FlagPrivacy, 0, SecKeyMgmt8021X, SecurityEnterprise},
		{FlagPrivacy, secKeyMgmtPsk, 0, SecurityWpa},
		{FlagPrivacy, secKeyMgmtPsk, secKeyMgmtPsk, SecurityWpa2},
		{FlagPrivacy, secKeyMgmtPsk, SecKeyMgmt8021X, SecurityEnterprise},
		{FlagPrivacy, SecKeyMgmt8021X, 0, SecurityEnterprise},
		{FlagPrivacy, SecKeyMgmt8021X, secKeyMgmtPsk, SecurityEnterprise},
		{FlagPrivacy, SecKeyMgmt8021X, SecKeyMgmt8021X, SecurityEnterprise},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("flags=%#x,wpa=%#x,rsn=%#x", tt.flags, tt.wpaFlags, tt.rsnFlags)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.flags, tt.wpaFlags, tt.rsnFlags))
		})
	}
}

func TestSecurityStrings(t *testing.T) {
	assert.Equal(t, "NONE", SecurityNone.String())
	assert.Equal(t, "WEP", SecurityWep.String())
	assert.Equal(t, "WPA", SecurityWpa.String())
	assert.Equal(t, "WPA2", SecurityWpa2.String())
	assert.Equal(t, "ENTERPRISE", SecurityEnterprise.String())
}

func TestSecurityRequiredInputs(t *testing.T) {
	assert.False(t, SecurityNone.NeedsPassphrase())
	assert.False(t, SecurityNone.NeedsIdentity())

	for _, s := range []Security{SecurityWep, SecurityWpa, SecurityWpa2} {
		assert.True(t, s.NeedsPassphrase(), s)
		assert.False(t, s.NeedsIdentity(), s)
	}

	assert.True(t, SecurityEnterprise.NeedsPassphrase())
	assert.True(t, SecurityEnterprise.NeedsIdentity())
}

func TestClassifyAllDiscardsEmptySsids(t *testing.T) {
	aps := ClassifyAll([]*netman.RawAccessPoint{
		{Ssid: []byte{}},
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
		{Ssid: nil},
	})

	assert.Len(t, aps, 1)
	assert.Equal(t, "Cafe", aps[0].Ssid)
}

func TestClassifyAllSuppressesDuplicates(t *testing.T) {
	aps := ClassifyAll([]*netman.RawAccessPoint{
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
		{Ssid: []byte("Free")},
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
	})

	assert.Len(t, aps, 2)
	assert.Equal(t, "Cafe", aps[0].Ssid)
	assert.Equal(t, SecurityWpa2, aps[0].Security)
	assert.Equal(t, "Free", aps[1].Ssid)
	assert.Equal(t, SecurityNone, aps[1].Security)
}

func TestClassifyAllKeepsDistinctSecurities(t *testing.T) {
	// the same ssid with different security is a different network
	aps := ClassifyAll([]*netman.RawAccessPoint{
		{Ssid: []byte("Cafe"), RsnFlags: secKeyMgmtPsk},
		{Ssid: []byte("Cafe")},
	})

	assert.Len(t, aps, 2)
}
