package netman

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
)

const (
	nmService      = "org.freedesktop.NetworkManager"
	nmPath         = "/org/freedesktop/NetworkManager"
	nmSettingsPath = "/org/freedesktop/NetworkManager/Settings"

	nmIface         = "org.freedesktop.NetworkManager"
	nmDeviceIface   = "org.freedesktop.NetworkManager.Device"
	nmWirelessIface = "org.freedesktop.NetworkManager.Device.Wireless"
	nmApIface       = "org.freedesktop.NetworkManager.AccessPoint"
	nmSettingsIface = "org.freedesktop.NetworkManager.Settings"
	nmConnIface     = "org.freedesktop.NetworkManager.Settings.Connection"

	// NM_DEVICE_TYPE_WIFI
	nmDeviceTypeWifi = uint32(2)
)

// check NetworkManager compliance to its interface during compile time
var _ Manager = (*NetworkManager)(nil)

type Config struct {
	Logger Logger
}

// NetworkManager talks to the NetworkManager daemon over the system bus.
// The connection is opened once and reused for the life of the process.
type NetworkManager struct {
	log  Logger
	conn *dbus.Conn
}

// NewNetworkManager opens the system bus connection to NetworkManager.
func NewNetworkManager(config *Config) (*NetworkManager, error) {
	nm := &NetworkManager{}

	if config.Logger != nil {
		nm.log = config.Logger
	} else {
		nm.log = noopLogger{}
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, errors.Errorf("could not connect to system bus: %v", err)
	}

	nm.conn = conn

	return nm, nil
}

func (nm *NetworkManager) WirelessDevices() ([]*Device, error) {
	var paths []dbus.ObjectPath

	obj := nm.conn.Object(nmService, nmPath)
	err := obj.Call(nmIface+".GetDevices", 0).Store(&paths)
	if err != nil {
		return nil, &Error{Op: "list devices", Err: err}
	}

	var devices []*Device

	for _, path := range paths {
		dev := nm.conn.Object(nmService, path)

		deviceType, err := dev.GetProperty(nmDeviceIface + ".DeviceType")
		if err != nil {
			return nil, &Error{Op: "get device type", Err: err}
		}

		if deviceType.Value().(uint32) != nmDeviceTypeWifi {
			continue
		}

		ifname, err := dev.GetProperty(nmDeviceIface + ".Interface")
		if err != nil {
			return nil, &Error{Op: "get device interface", Err: err}
		}

		managed, err := dev.GetProperty(nmDeviceIface + ".Managed")
		if err != nil {
			return nil, &Error{Op: "get device managed flag", Err: err}
		}

		ip4Config, err := dev.GetProperty(nmDeviceIface + ".Ip4Config")
		if err != nil {
			return nil, &Error{Op: "get device ip4 config", Err: err}
		}

		devices = append(devices, &Device{
			Path:       string(path),
			Interface:  ifname.Value().(string),
			Managed:    managed.Value().(bool),
			Configured: ip4Config.Value().(dbus.ObjectPath) != "/",
		})
	}

	return devices, nil
}

func (nm *NetworkManager) Scan(device *Device) error {
	obj := nm.conn.Object(nmService, dbus.ObjectPath(device.Path))

	options := map[string]dbus.Variant{}
	err := obj.Call(nmWirelessIface+".RequestScan", 0, options).Err
	if err != nil {
		return &Error{Op: "request scan", Err: err}
	}

	return nil
}

func (nm *NetworkManager) AccessPoints(device *Device) ([]*RawAccessPoint, error) {
	var paths []dbus.ObjectPath

	obj := nm.conn.Object(nmService, dbus.ObjectPath(device.Path))
	err := obj.Call(nmWirelessIface+".GetAllAccessPoints", 0).Store(&paths)
	if err != nil {
		return nil, &Error{Op: "list access points", Err: err}
	}

	var aps []*RawAccessPoint

	for _, path := range paths {
		ap := nm.conn.Object(nmService, path)

		ssid, err := ap.GetProperty(nmApIface + ".Ssid")
		if err != nil {
			// the access point may have vanished since the listing
			nm.log.Debugf("Skipping vanished access point %v: %v", path, err)
			continue
		}

		flags, err := ap.GetProperty(nmApIface + ".Flags")
		if err != nil {
			return nil, &Error{Op: "get access point flags", Err: err}
		}

		wpaFlags, err := ap.GetProperty(nmApIface + ".WpaFlags")
		if err != nil {
			return nil, &Error{Op: "get access point wpa flags", Err: err}
		}

		rsnFlags, err := ap.GetProperty(nmApIface + ".RsnFlags")
		if err != nil {
			return nil, &Error{Op: "get access point rsn flags", Err: err}
		}

		aps = append(aps, &RawAccessPoint{
			Ssid:     ssid.Value().([]byte),
			Flags:    flags.Value().(uint32),
			WpaFlags: wpaFlags.Value().(uint32),
			RsnFlags: rsnFlags.Value().(uint32),
		})
	}

	return aps, nil
}

func (nm *NetworkManager) Connections(device *Device) (map[int64]ConnectionInfo, error) {
	var paths []dbus.ObjectPath

	obj := nm.conn.Object(nmService, nmSettingsPath)
	err := obj.Call(nmSettingsIface+".ListConnections", 0).Store(&paths)
	if err != nil {
		return nil, &Error{Op: "list connections", Err: err}
	}

	conns := make(map[int64]ConnectionInfo)

	for _, path := range paths {
		settingsObj := nm.conn.Object(nmService, path)

		var settings map[string]map[string]dbus.Variant
		err := settingsObj.Call(nmConnIface+".GetSettings", 0).Store(&settings)
		if err != nil {
			return nil, &Error{Op: "get connection settings", Err: err}
		}

		connection, ok := settings["connection"]
		if !ok {
			continue
		}

		if stringSetting(connection, "type") != "802-11-wireless" {
			continue
		}

		// a profile bound to another interface doesn't belong to this device
		ifname := stringSetting(connection, "interface-name")
		if ifname != "" && ifname != device.Interface {
			continue
		}

		var timestamp int64
		if v, ok := connection["timestamp"]; ok {
			switch t := v.Value().(type) {
			case uint64:
				timestamp = int64(t)
			case int64:
				timestamp = t
			}
		}

		conns[timestamp] = ConnectionInfo{
			Id:   stringSetting(connection, "id"),
			Uuid: stringSetting(connection, "uuid"),
		}
	}

	return conns, nil
}

func (nm *NetworkManager) DeleteConnection(uid string) error {
	var path dbus.ObjectPath

	obj := nm.conn.Object(nmService, nmSettingsPath)
	err := obj.Call(nmSettingsIface+".GetConnectionByUuid", 0, uid).Store(&path)
	if err != nil {
		return &Error{Op: "find connection by uuid", Err: err}
	}

	connObj := nm.conn.Object(nmService, path)
	err = connObj.Call(nmConnIface+".Delete", 0).Err
	if err != nil {
		return &Error{Op: "delete connection", Err: err}
	}

	return nil
}

func (nm *NetworkManager) CreateConnection(connection Connection) (ConnectionRef, error) {
	settings, err := settingsFor(connection)
	if err != nil {
		return "", err
	}

	var path dbus.ObjectPath

	obj := nm.conn.Object(nmService, nmSettingsPath)
	err = obj.Call(nmSettingsIface+".AddConnection", 0, settings).Store(&path)
	if err != nil {
		return "", &Error{Op: "add connection", Err: err}
	}

	nm.log.Debugf("Added connection %v as %v", connectionName(connection), path)

	return ConnectionRef(path), nil
}

func (nm *NetworkManager) ActivateConnection(ref ConnectionRef, device *Device) (ActiveRef, error) {
	var active dbus.ObjectPath

	obj := nm.conn.Object(nmService, nmPath)
	err := obj.Call(nmIface+".ActivateConnection", 0,
		dbus.ObjectPath(ref), dbus.ObjectPath(device.Path), dbus.ObjectPath("/")).Store(&active)
	if err != nil {
		return "", &Error{Op: "activate connection", Err: err}
	}

	return ActiveRef(active), nil
}

func (nm *NetworkManager) DeactivateConnection(active ActiveRef) error {
	obj := nm.conn.Object(nmService, nmPath)
	err := obj.Call(nmIface+".DeactivateConnection", 0, dbus.ObjectPath(active)).Err
	if err != nil {
		return &Error{Op: "deactivate connection", Err: err}
	}

	return nil
}

func (nm *NetworkManager) DeviceState(device *Device) (DeviceState, error) {
	obj := nm.conn.Object(nmService, dbus.ObjectPath(device.Path))

	state, err := obj.GetProperty(nmDeviceIface + ".State")
	if err != nil {
		return DeviceStateUnknown, &Error{Op: "get device state", Err: err}
	}

	return DeviceState(state.Value().(uint32)), nil
}

func stringSetting(settings map[string]dbus.Variant, key string) string {
	v, ok := settings[key]
	if !ok {
		return ""
	}

	s, ok := v.Value().(string)
	if !ok {
		return ""
	}

	return s
}

// settingsFor encodes a connection variant into the settings dictionary
// NetworkManager expects for AddConnection.
func settingsFor(connection Connection) (map[string]map[string]dbus.Variant, error) {
	switch conn := connection.(type) {
	case *HotspotConnection:
		return map[string]map[string]dbus.Variant{
			"802-11-wireless": {
				"band": dbus.MakeVariant("bg"),
				"mode": dbus.MakeVariant("ap"),
				"ssid": dbus.MakeVariant([]byte(conn.Ssid)),
			},
			"connection": {
				"autoconnect": dbus.MakeVariant(false),
				"id":          dbus.MakeVariant(conn.Name),
				"type":        dbus.MakeVariant("802-11-wireless"),
				"uuid":        dbus.MakeVariant(uuid.New().String()),
			},
			"ipv4": {
				"address-data": dbus.MakeVariant([]map[string]dbus.Variant{{
					"address": dbus.MakeVariant(conn.Address),
					"prefix":  dbus.MakeVariant(conn.Prefix),
				}}),
				"method": dbus.MakeVariant("manual"),
			},
			"ipv6": {
				"method": dbus.MakeVariant("auto"),
			},
		}, nil
	case *OpenConnection:
		return map[string]map[string]dbus.Variant{
			"802-11-wireless": {
				"mode": dbus.MakeVariant("infrastructure"),
				"ssid": dbus.MakeVariant([]byte(conn.Ssid)),
			},
			"connection": {
				"id":   dbus.MakeVariant(conn.Name),
				"type": dbus.MakeVariant("802-11-wireless"),
				"uuid": dbus.MakeVariant(uuid.New().String()),
			},
			"ipv4": {
				"method": dbus.MakeVariant("auto"),
			},
			"ipv6": {
				"method": dbus.MakeVariant("auto"),
			},
		}, nil
	case *PskConnection:
		return map[string]map[string]dbus.Variant{
			"802-11-wireless": {
				"mode":     dbus.MakeVariant("infrastructure"),
				"security": dbus.MakeVariant("802-11-wireless-security"),
				"ssid":     dbus.MakeVariant([]byte(conn.Ssid)),
			},
			"802-11-wireless-security": {
				"key-mgmt": dbus.MakeVariant("wpa-psk"),
				"psk":      dbus.MakeVariant(conn.Psk),
			},
			"connection": {
				"id":   dbus.MakeVariant(conn.Name),
				"type": dbus.MakeVariant("802-11-wireless"),
				"uuid": dbus.MakeVariant(uuid.New().String()),
			},
			"ipv4": {
				"method": dbus.MakeVariant("auto"),
			},
			"ipv6": {
				"method": dbus.MakeVariant("auto"),
			},
		}, nil
	case *EnterpriseConnection:
		return map[string]map[string]dbus.Variant{
			"802-11-wireless": {
				"mode":     dbus.MakeVariant("infrastructure"),
				"security": dbus.MakeVariant("802-11-wireless-security"),
				"ssid":     dbus.MakeVariant([]byte(conn.Ssid)),
			},
			"802-11-wireless-security": {
				"auth-alg": dbus.MakeVariant("open"),
				"key-mgmt": dbus.MakeVariant("wpa-eap"),
			},
			"802-1x": {
				"eap":         dbus.MakeVariant([]string{"peap"}),
				"identity":    dbus.MakeVariant(conn.Identity),
				"password":    dbus.MakeVariant(conn.Password),
				"phase2-auth": dbus.MakeVariant("mschapv2"),
			},
			"connection": {
				"id":   dbus.MakeVariant(conn.Name),
				"type": dbus.MakeVariant("802-11-wireless"),
				"uuid": dbus.MakeVariant(uuid.New().String()),
			},
			"ipv4": {
				"method": dbus.MakeVariant("auto"),
			},
			"ipv6": {
				"method": dbus.MakeVariant("auto"),
			},
		}, nil
	default:
		return nil, errors.Errorf("unsupported connection type %T", connection)
	}
}
