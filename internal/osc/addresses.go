// Package osc speaks to VRChat over OSC: chatbox output and avatar parameter control.
package osc

import "errors"

var errMalformed = errors.New("malformed osc packet")

const (
	// ParameterPrefix is where VRChat publishes avatar parameters.
	ParameterPrefix = "/avatar/parameters/"
	// ConfigParameterPrefix marks avatar parameters that map onto runtime config keys.
	ConfigParameterPrefix = "vrcsub-"

	MuteSelfAddress = ParameterPrefix + "MuteSelf"

	ChatboxTypingAddress = "/chatbox/typing"
	ChatboxInputAddress  = "/chatbox/input"

	controlHost = "127.0.0.1"

	// Largest UDP payload
	maxPacketSize = 65535
)

// ConfigAddress returns the avatar parameter address controlling key.
func ConfigAddress(key string) string {
	return ParameterPrefix + ConfigParameterPrefix + key
}
