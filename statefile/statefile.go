// Package statefile persists the device's current provisioning mode as
// sentinel files that external supervisors (the LED indicator, service
// units) can watch without talking to the daemon.
package statefile

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-errors/errors"
)

// Mode is the persisted provisioning mode.
type Mode string

const (
	// ModeHotspot means the device is serving its own portal hotspot.
	ModeHotspot Mode = "hotspot"
	// ModeClient means the device has joined a network as a client.
	ModeClient Mode = "client"
	// ModeUnknown means no marker has been written yet.
	ModeUnknown Mode = ""
)

// Store keeps at most one of the two marker files in its directory.
// Writing one mode removes the other marker first.
type Store struct {
	mtx sync.Mutex
	dir string
}

func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
	}
}

func (s *Store) path(mode Mode) string {
	return filepath.Join(s.dir, string(mode))
}

func other(mode Mode) Mode {
	if mode == ModeHotspot {
		return ModeClient
	}

	return ModeHotspot
}

// Set writes the marker for mode, removing the opposite marker first so
// that at most one of the two ever exists.
func (s *Store) Set(mode Mode) error {
	if mode != ModeHotspot && mode != ModeClient {
		return errors.Errorf("unknown mode %v", mode)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Errorf("could not create state directory: %v", err)
	}

	if err := os.Remove(s.path(other(mode))); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("could not remove %v marker: %v", other(mode), err)
	}

	f, err := os.OpenFile(s.path(mode), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Errorf("could not create %v marker: %v", mode, err)
	}

	return f.Close()
}

// Current reports the persisted mode, or ModeUnknown if no marker exists.
func (s *Store) Current() (Mode, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for _, mode := range []Mode{ModeHotspot, ModeClient} {
		_, err := os.Stat(s.path(mode))
		if err == nil {
			return mode, nil
		}
		if !os.IsNotExist(err) {
			return ModeUnknown, errors.Errorf("could not stat %v marker: %v", mode, err)
		}
	}

	return ModeUnknown, nil
}
