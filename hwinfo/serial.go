// Package hwinfo reads device identity from the hardware.
package hwinfo

import (
	"bufio"
	"os"
	"strings"
)

const cpuinfoPath = "/proc/cpuinfo"

// fallbackSerial is used when no serial can be read, so a hotspot ssid
// can still be derived.
const fallbackSerial = "0000000000000000"

// Serial returns the device serial number from /proc/cpuinfo. It never
// fails; an unreadable or serial-less cpuinfo yields a zero serial.
func Serial() string {
	return serialFrom(cpuinfoPath)
}

func serialFrom(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return fallbackSerial
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Serial") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		serial := strings.TrimSpace(parts[1])
		if serial != "" {
			return serial
		}
	}

	return fallbackSerial
}

// Suffix returns the last n characters of the device serial, commonly
// appended to the hotspot ssid to tell devices apart.
func Suffix(n int) string {
	serial := Serial()
	if len(serial) <= n {
		return serial
	}

	return serial[len(serial)-n:]
}
