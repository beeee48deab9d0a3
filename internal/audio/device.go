package audio

import "strings"

// Device describes an input device candidate.
type Device struct {
	Index            int
	Name             string
	HostAPI          string
	MaxInputChannels int
	DefaultRate      float64
	Default          bool
}

// Device source classes.
const (
	SourceUser   = "user"
	SourceSystem = "system"
)

var (
	systemKeywords    = []string{"blackhole", "vb-cable", "loopback", "monitor", "soundflower", "stereo mix"}
	micKeywords       = []string{"microphone", "input", "mic", "built-in", "headset"}
	preferredKeywords = []string{"built-in", "macbook", "headset"}
)

func classifyDevice(name string) string {
	for _, kw := range systemKeywords {
		if containsIgnoreCase(name, kw) {
			return SourceSystem
		}
	}
	for _, kw := range micKeywords {
		if containsIgnoreCase(name, kw) {
			return SourceUser
		}
	}
	return ""
}

func isExcluded(name string, excluded []string) bool {
	for _, ex := range excluded {
		if ex != "" && containsIgnoreCase(name, ex) {
			return true
		}
	}
	return false
}

func preferDevice(name, current string) bool {
	for _, p := range preferredKeywords {
		if containsIgnoreCase(name, p) && !containsIgnoreCase(current, p) {
			return true
		}
	}
	return false
}

// SelectDevice picks the capture device. A non-empty want matches by name
// substring. Otherwise the best user microphone wins, then the host default.
// Loopback devices are never picked implicitly.
func SelectDevice(devices []Device, want string, excluded []string) (Device, bool) {
	var inputs []Device
	for _, d := range devices {
		if d.MaxInputChannels >= 1 {
			inputs = append(inputs, d)
		}
	}

	if want != "" {
		for _, d := range inputs {
			if containsIgnoreCase(d.Name, want) {
				return d, true
			}
		}
		return Device{}, false
	}

	var best *Device
	for i := range inputs {
		d := &inputs[i]
		if isExcluded(d.Name, excluded) || classifyDevice(d.Name) != SourceUser {
			continue
		}
		if best == nil || preferDevice(d.Name, best.Name) {
			best = d
		}
	}
	if best != nil {
		return *best, true
	}

	for _, d := range inputs {
		if d.Default && !isExcluded(d.Name, excluded) {
			return d, true
		}
	}
	return Device{}, false
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
