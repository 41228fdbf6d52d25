package main

import (
	"github.com/jessevdk/go-flags"
)

type config struct {
	ShowVersion bool `short:"V" long:"version" description:"Display version information and exit"`
	Debug       bool `long:"debug" description:"Start in debug mode"`

	Address string `short:"a" long:"address" default:"192.168.42.1" description:"Address the hotspot and the portal live on"`
	Port    uint16 `short:"p" long:"port" default:"80" description:"Port the portal listens on"`
	UiDir   string `short:"u" long:"ui" default:"./ui" description:"Directory the portal UI is served from"`

	DeleteConnections  bool `short:"d" long:"delete-connections" description:"Delete all stored Wifi connections before provisioning"`
	IgnoreConnectivity bool `short:"i" long:"ignore-connectivity" description:"Provision even if an internet connection already exists"`

	Net string `long:"net" default:"networkmanager" description:"Network service to use (networkmanager or mock)"`

	HotspotName       string `long:"hotspot-name" default:"portald-hotspot" description:"Profile name of the portal hotspot"`
	HotspotSsidPrefix string `long:"hotspot-ssid" default:"Portal-" description:"Hotspot ssid prefix; the device serial suffix is appended"`
	ConnectionName    string `long:"connection-name" default:"portald-wifi" description:"Profile name used for client connections"`

	StateDir string `long:"state-dir" default:"/etc/wifi_state" description:"Directory the hotspot/client markers are kept in"`

	NoDnsmasq   bool   `long:"no-dnsmasq" description:"Don't supervise a dnsmasq process for the captive portal"`
	DnsmasqPath string `long:"dnsmasq-path" default:"dnsmasq" description:"Path of the dnsmasq binary"`

	LedPin string `long:"led-pin" description:"GPIO pin of the status led, e.g. GPIO18 (disabled when empty)"`

	ProbeAddress string `long:"probe-address" default:"8.8.8.8:53" description:"host:port probed to detect an existing internet connection"`
}

func loadConfig() (*config, error) {
	cfg := &config{}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	return cfg, nil
}
