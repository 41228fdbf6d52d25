package hwinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cpuinfoSample = `processor	: 0
model name	: ARMv7 Processor rev 4 (v7l)
BogoMIPS	: 38.40
Hardware	: BCM2835
Revision	: a02082
Serial		: 00000000d0e14c2f
`

func writeCpuinfo(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cpuinfo")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestSerialFrom(t *testing.T) {
	path := writeCpuinfo(t, cpuinfoSample)
	assert.Equal(t, "00000000d0e14c2f", serialFrom(path))
}

func TestSerialFromWithoutSerialLine(t *testing.T) {
	path := writeCpuinfo(t, "processor\t: 0\n")
	assert.Equal(t, fallbackSerial, serialFrom(path))
}

func TestSerialFromMissingFile(t *testing.T) {
	assert.Equal(t, fallbackSerial, serialFrom(filepath.Join(t.TempDir(), "nope")))
}
