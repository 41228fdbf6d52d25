// Package flasher drives the status LED from the persisted provisioning
// mode: a slow fade while the hotspot portal is up, solid on once the
// device has joined a network as a client.
package flasher

import (
	"sync"
	"time"

	"github.com/go-errors/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/dawnlite/portald/statefile"
)

const (
	pwmFrequency = 200 * physic.Hertz
	fadeStep     = gpio.DutyMax / 20
	fadeInterval = 50 * time.Millisecond
	pollInterval = time.Second
)

type Config struct {
	// Pin is the GPIO pin name the LED is wired to, e.g. GPIO18.
	Pin    string
	Store  *statefile.Store
	Logger Logger
}

type Flasher struct {
	log      Logger
	pin      gpio.PinIO
	store    *statefile.Store
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func New(config *Config) (*Flasher, error) {
	f := &Flasher{
		store: config.Store,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	if config.Logger != nil {
		f.log = config.Logger
	} else {
		f.log = noopLogger{}
	}

	if _, err := host.Init(); err != nil {
		return nil, errors.Errorf("could not initialize gpio host: %v", err)
	}

	pin := gpioreg.ByName(config.Pin)
	if pin == nil {
		return nil, errors.Errorf("no gpio pin named %v", config.Pin)
	}

	f.pin = pin

	return f, nil
}

func (f *Flasher) Start() error {
	go f.run()

	return nil
}

func (f *Flasher) run() {
	defer close(f.done)

	duty := gpio.Duty(0)
	up := true

	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	fade := time.NewTicker(fadeInterval)
	defer fade.Stop()

	mode, err := f.store.Current()
	if err != nil {
		f.log.Warnf("Could not read state marker: %v", err)
	}

	for {
		select {
		case <-poll.C:
			mode, err = f.store.Current()
			if err != nil {
				f.log.Warnf("Could not read state marker: %v", err)
			}

		case <-fade.C:
			switch mode {
			case statefile.ModeClient:
				if err := f.pin.Out(gpio.High); err != nil {
					f.log.Debugf("Could not drive led pin: %v", err)
				}
			case statefile.ModeHotspot:
				if up {
					duty += fadeStep
					if duty >= gpio.DutyMax {
						duty = gpio.DutyMax
						up = false
					}
				} else {
					if duty <= fadeStep {
						duty = 0
						up = true
					} else {
						duty -= fadeStep
					}
				}

				if err := f.pin.PWM(duty, pwmFrequency); err != nil {
					f.log.Debugf("Could not fade led pin: %v", err)
				}
			default:
				if err := f.pin.Out(gpio.Low); err != nil {
					f.log.Debugf("Could not drive led pin: %v", err)
				}
			}

		case <-f.stop:
			if err := f.pin.Out(gpio.Low); err != nil {
				f.log.Debugf("Could not drive led pin: %v", err)
			}
			return
		}
	}
}

func (f *Flasher) Stop() error {
	f.stopOnce.Do(func() {
		close(f.stop)
	})

	<-f.done

	return nil
}
