package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/dawnlite/portald/connectivity"
	"github.com/dawnlite/portald/dnsmasq"
	"github.com/dawnlite/portald/flasher"
	"github.com/dawnlite/portald/hwinfo"
	"github.com/dawnlite/portald/netman"
	"github.com/dawnlite/portald/portal"
	"github.com/dawnlite/portald/provisioner"
	"github.com/dawnlite/portald/statefile"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// Date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// portaldMain is the true entry point for portald. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func portaldMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Errorf("Failed parsing arguments: %v", err)
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	// The marker files external supervisors watch for the current mode
	status := statefile.NewStore(cfg.StateDir)

	// The network-management service every connection goes through
	var manager netman.Manager

	switch cfg.Net {
	case "networkmanager":
		manager, err = netman.NewNetworkManager(&netman.Config{
			Logger: log.New().WithField("system", "netman"),
		})
		if err != nil {
			return errors.Errorf("Could not connect to NetworkManager: %v", err)
		}

		log.Info("Connected to NetworkManager.")
	case "mock":
		manager = netman.NewMock()

		log.Info("Created a mock network service.")
	default:
		return errors.Errorf("Unknown networking type %v", cfg.Net)
	}

	// The status led, reflecting the hotspot/client markers
	if cfg.LedPin != "" {
		f, err := flasher.New(&flasher.Config{
			Pin:    cfg.LedPin,
			Store:  status,
			Logger: log.New().WithField("system", "flasher"),
		})
		if err != nil {
			return errors.Errorf("Could not create led flasher: %v", err)
		}

		if err := f.Start(); err != nil {
			return errors.Errorf("Could not start led flasher: %v", err)
		}

		log.Infof("Started led flasher on pin %v.", cfg.LedPin)

		defer func() {
			err := f.Stop()
			if err != nil {
				log.Errorf("Could not properly stop led flasher: %v", err)
			} else {
				log.Info("Stopped led flasher.")
			}
		}()
	}

	// The provisioning session itself
	prov := provisioner.New(&provisioner.Config{
		Manager:            manager,
		Connectivity:       connectivity.NewProbeReporter(cfg.ProbeAddress, 0),
		Status:             status,
		HotspotName:        cfg.HotspotName,
		HotspotSsid:        cfg.HotspotSsidPrefix + hwinfo.Suffix(4),
		HotspotAddress:     cfg.Address,
		ConnectionName:     cfg.ConnectionName,
		DeleteConnections:  cfg.DeleteConnections,
		IgnoreConnectivity: cfg.IgnoreConnectivity,
		Logger:             log.New().WithField("system", "provisioner"),
	})

	err = prov.Start()
	if err == provisioner.ErrAlreadyConnected {
		log.Info("Already connected to the internet, nothing to do.")
		return nil
	} else if err != nil {
		// inability to bring up the hotspot is the one fatal failure
		return errors.Errorf("Could not start provisioning: %v", err)
	}

	defer prov.Shutdown()

	// dnsmasq makes captive portal detection fire on connecting clients
	if !cfg.NoDnsmasq {
		d := dnsmasq.New(&dnsmasq.Config{
			Path:    cfg.DnsmasqPath,
			Address: cfg.Address,
			Logger:  log.New().WithField("system", "dnsmasq"),
		})

		if err := d.Start(); err != nil {
			log.Warnf("Could not start dnsmasq: %v", err)
		} else {
			defer func() {
				err := d.Stop()
				if err != nil {
					log.Errorf("Could not properly stop dnsmasq: %v", err)
				} else {
					log.Info("Stopped dnsmasq.")
				}
			}()
		}
	}

	// The captive portal itself
	p := portal.New(&portal.Config{
		Provisioner: prov,
		Address:     cfg.Address,
		UiDir:       cfg.UiDir,
		Logger:      log.New().WithField("system", "portal"),
	})

	if err := p.Start(fmt.Sprintf("%v:%d", cfg.Address, cfg.Port)); err != nil {
		return errors.Errorf("Could not start portal: %v", err)
	}

	defer func() {
		err := p.Stop()
		if err != nil {
			log.Errorf("Could not properly stop portal: %v", err)
		} else {
			log.Info("Stopped portal.")
		}
	}()

	// Handle interrupt signals correctly
	go func() {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt)
		sig := <-signals
		log.Info(sig)
		log.Info("Received an interrupt, stopping provisioning...")
		prov.Shutdown()
	}()

	// blocks until the session reached its terminal state
	<-prov.Done()

	if prov.State() == provisioner.StateConnected {
		log.Info("Successfully provisioned, exiting.")
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := portaldMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running portald.")
		}
		os.Exit(1)
	}
}
