package ratelimit

// ChannelConfig defines the per-channel command budget
type ChannelConfig struct {
	Limit         int64 // Commands allowed per window
	WindowSeconds int   // Time window in seconds
}

// GlobalConfig contains the service-wide command budget
type GlobalConfig struct {
	Limit         int64
	WindowSeconds int
}

// DefaultChannelConfig bounds one display channel. Template updates
// arrive at most a few per second in normal operation; anything past
// this is a stuck automation loop.
var DefaultChannelConfig = ChannelConfig{
	Limit:         300,
	WindowSeconds: 60,
}

// DefaultGlobalConfig bounds all channels together
var DefaultGlobalConfig = GlobalConfig{
	Limit:         1000,
	WindowSeconds: 60,
}
