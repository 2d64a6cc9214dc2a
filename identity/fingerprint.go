// Package identity resolves and persists the widget's two identity values:
// the remote-assigned user id and a locally derived device fingerprint.
package identity

import (
	"fmt"
	"hash/fnv"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Signals is the fixed ordered tuple of client attributes the device
// fingerprint is derived from. The fingerprint is a soft heuristic
// identifier, not a security token, so collisions are acceptable.
type Signals struct {
	OS              string
	Arch            string
	Hostname        string
	Locale          string
	TZOffsetMinutes int
	NumCPU          int
}

// CollectSignals gathers the fingerprint inputs from the running host.
func CollectSignals() Signals {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	if locale == "" {
		locale = "en_US"
	}

	_, offsetSeconds := time.Now().Zone()

	return Signals{
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
		Hostname:        hostname,
		Locale:          locale,
		TZOffsetMinutes: offsetSeconds / 60,
		NumCPU:          runtime.NumCPU(),
	}
}

// Fingerprint derives the device id for this host. Deterministic for a fixed
// signal tuple.
func Fingerprint() string {
	return fingerprintFrom(CollectSignals())
}

// fingerprintFrom hashes the signal tuple in its fixed order and encodes the
// result as "device_" plus the base-36 digest.
func fingerprintFrom(s Signals) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d|%d", s.OS, s.Arch, s.Hostname, s.Locale, s.TZOffsetMinutes, s.NumCPU)
	return "device_" + strconv.FormatUint(h.Sum64(), 36)
}
