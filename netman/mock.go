package netman

import (
	"fmt"
	"sync"
)

// check Mock compliance to its interface during compile time
var _ Manager = (*Mock)(nil)

type mockConnection struct {
	uuid       string
	connection Connection
}

// Mock is an in-memory Manager used by tests and by --net=mock runs.
// Device states can be scripted and every mutating call is recorded.
type Mock struct {
	mtx    sync.Mutex
	device *Device

	aps []*RawAccessPoint

	// states are consumed one per DeviceState call; the last one repeats.
	states []DeviceState

	connections []*mockConnection
	active      map[ActiveRef]ConnectionRef
	nextRef     int

	scans   int
	deleted []string

	ScanErr        error
	DeviceStateErr error
	ActivateErr    error
}

func NewMock() *Mock {
	return &Mock{
		device: &Device{
			Path:      "/mock/devices/0",
			Interface: "wlan0",
			Managed:   true,
		},
		active: make(map[ActiveRef]ConnectionRef),
	}
}

// SetAccessPoints replaces the access points a scan will yield.
func (m *Mock) SetAccessPoints(aps []*RawAccessPoint) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.aps = aps
}

// SetDeviceStates scripts the sequence of states DeviceState reports.
func (m *Mock) SetDeviceStates(states ...DeviceState) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.states = states
}

func (m *Mock) WirelessDevices() ([]*Device, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return []*Device{m.device}, nil
}

func (m *Mock) Scan(device *Device) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.ScanErr != nil {
		return m.ScanErr
	}

	m.scans++

	return nil
}

func (m *Mock) AccessPoints(device *Device) ([]*RawAccessPoint, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.aps, nil
}

func (m *Mock) Connections(device *Device) (map[int64]ConnectionInfo, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	conns := make(map[int64]ConnectionInfo)

	for i, conn := range m.connections {
		conns[int64(i)] = ConnectionInfo{
			Id:   connectionName(conn.connection),
			Uuid: conn.uuid,
		}
	}

	return conns, nil
}

func (m *Mock) DeleteConnection(uuid string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for i, conn := range m.connections {
		if conn.uuid == uuid {
			m.connections = append(m.connections[:i], m.connections[i+1:]...)
			m.deleted = append(m.deleted, uuid)
			return nil
		}
	}

	return &Error{Op: "delete connection", Err: fmt.Errorf("no connection with uuid %v", uuid)}
}

func (m *Mock) CreateConnection(connection Connection) (ConnectionRef, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.nextRef++

	m.connections = append(m.connections, &mockConnection{
		uuid:       fmt.Sprintf("mock-uuid-%d", m.nextRef),
		connection: connection,
	})

	return ConnectionRef(fmt.Sprintf("/mock/connections/%d", m.nextRef)), nil
}

func (m *Mock) ActivateConnection(ref ConnectionRef, device *Device) (ActiveRef, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.ActivateErr != nil {
		return "", m.ActivateErr
	}

	m.nextRef++

	active := ActiveRef(fmt.Sprintf("/mock/active/%d", m.nextRef))
	m.active[active] = ref

	return active, nil
}

func (m *Mock) DeactivateConnection(active ActiveRef) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	delete(m.active, active)

	return nil
}

func (m *Mock) DeviceState(device *Device) (DeviceState, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.DeviceStateErr != nil {
		return DeviceStateUnknown, m.DeviceStateErr
	}

	if len(m.states) == 0 {
		return DeviceStateActivated, nil
	}

	state := m.states[0]
	if len(m.states) > 1 {
		m.states = m.states[1:]
	}

	return state, nil
}

// ScanCount reports how many scans have been requested.
func (m *Mock) ScanCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.scans
}

// StoredConnections returns the profiles currently held by the mock.
func (m *Mock) StoredConnections() []Connection {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	var conns []Connection
	for _, conn := range m.connections {
		conns = append(conns, conn.connection)
	}

	return conns
}

// ActiveCount reports how many connections are currently active.
func (m *Mock) ActiveCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return len(m.active)
}

// DeletedUuids returns the uuids of all deleted profiles, in order.
func (m *Mock) DeletedUuids() []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.deleted
}
