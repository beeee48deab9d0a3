package store

// Runtime state keys.
const (
	KeyCaptureMuted = "capture-muted"
)

// Runtime config keys. These double as the suffix of the
// /avatar/parameters/vrcsub-<Key> control addresses.
const (
	KeyFollowMicMute           = "FollowMicMute"
	KeyCapturedLanguage        = "CapturedLanguage"
	KeyEnableTranslation       = "EnableTranslation"
	KeyTranslateTo             = "TranslateTo"
	KeyAllowOSCControl         = "AllowOSCControl"
	KeyPause                   = "Pause"
	KeyTranslateInterimResults = "TranslateInterimResults"
	KeyControlPort             = "ControlPort"
	KeyMinMessageIntervalMs    = "MinMessageIntervalMs"
	KeyDebounceWindowMs        = "DebounceWindowMs"
	KeyMaxDisplayLength        = "MaxDisplayLength"
)

// StateDefaults returns the initial runtime state.
func StateDefaults() map[string]any {
	return map[string]any{
		KeyCaptureMuted: false,
	}
}

// ConfigDefaults returns the default runtime configuration.
func ConfigDefaults() map[string]any {
	return map[string]any{
		KeyFollowMicMute:           true,
		KeyCapturedLanguage:        "en-US",
		KeyEnableTranslation:       false,
		KeyTranslateTo:             "en-US",
		KeyAllowOSCControl:         true,
		KeyPause:                   false,
		KeyTranslateInterimResults: true,
		KeyControlPort:             0,
		KeyMinMessageIntervalMs:    1500,
		KeyDebounceWindowMs:        1000,
		KeyMaxDisplayLength:        144,
	}
}
