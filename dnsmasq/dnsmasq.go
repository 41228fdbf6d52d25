// Package dnsmasq supervises an external dnsmasq process that answers
// every DNS query with the portal address and hands out DHCP leases on
// the hotspot, so that captive portal detection fires on clients.
package dnsmasq

import (
	"fmt"
	"net"
	"os/exec"

	"github.com/go-errors/errors"
)

type Config struct {
	// Path of the dnsmasq binary. Defaults to "dnsmasq" on PATH.
	Path string
	// Address the portal listens on, e.g. 192.168.42.1. All DNS names
	// resolve to it.
	Address string
	// Interface to serve DHCP on, e.g. wlan0.
	Interface string
	Logger    Logger
}

type Dnsmasq struct {
	log     Logger
	path    string
	address string
	ifname  string
	cmd     *exec.Cmd
}

func New(config *Config) *Dnsmasq {
	d := &Dnsmasq{
		path:    config.Path,
		address: config.Address,
		ifname:  config.Interface,
	}

	if d.path == "" {
		d.path = "dnsmasq"
	}

	if config.Logger != nil {
		d.log = config.Logger
	} else {
		d.log = noopLogger{}
	}

	return d
}

// dhcpRange derives a small lease range on the portal's /24.
func dhcpRange(address string) string {
	ip := net.ParseIP(address).To4()
	if ip == nil {
		return ""
	}

	from := net.IPv4(ip[0], ip[1], ip[2], 10)
	to := net.IPv4(ip[0], ip[1], ip[2], 250)

	return fmt.Sprintf("%v,%v,12h", from, to)
}

func (d *Dnsmasq) Start() error {
	if d.cmd != nil {
		return errors.New("dnsmasq is already running")
	}

	args := []string{
		"--no-daemon",
		"--no-hosts",
		"--bogus-priv",
		"--domain-needed",
		fmt.Sprintf("--listen-address=%v", d.address),
		fmt.Sprintf("--address=/#/%v", d.address),
	}

	if d.ifname != "" {
		args = append(args, fmt.Sprintf("--interface=%v", d.ifname))
	}

	if r := dhcpRange(d.address); r != "" {
		args = append(args, fmt.Sprintf("--dhcp-range=%v", r))
	}

	cmd := exec.Command(d.path, args...)

	err := cmd.Start()
	if err != nil {
		return errors.Errorf("could not start dnsmasq: %v", err)
	}

	d.cmd = cmd

	d.log.Infof("Started dnsmasq on %v.", d.address)

	// reap the process so a crashed dnsmasq doesn't linger as a zombie
	go func() {
		err := cmd.Wait()
		if err != nil {
			d.log.Debugf("dnsmasq exited: %v", err)
		}
	}()

	return nil
}

func (d *Dnsmasq) Stop() error {
	if d.cmd == nil {
		return nil
	}

	err := d.cmd.Process.Kill()
	d.cmd = nil
	if err != nil {
		return errors.Errorf("could not kill dnsmasq: %v", err)
	}

	return nil
}
