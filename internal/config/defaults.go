package config

const (
	defaultConfigPath      = "~/.config/stylebatch/config.toml"
	defaultRenderingIntent = "perceptual"
	defaultDevicePrefer    = "auto"
	defaultDeviceCount     = 1
	defaultScalePolicy     = "largest-side"
	defaultMemoryDim       = 512
	defaultRepresentation  = "image"
	defaultInterruptGrace  = 10
	defaultOnError         = "abort"
	defaultLogFormat       = "auto"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Profile: Profile{
			RenderingIntent: defaultRenderingIntent,
		},
		Devices: Devices{
			Prefer: defaultDevicePrefer,
			Count:  defaultDeviceCount,
		},
		Scale: Scale{
			Policy:    defaultScalePolicy,
			MemoryDim: defaultMemoryDim,
		},
		Output: Output{
			Representation: defaultRepresentation,
		},
		Stylizer: Stylizer{
			InterruptGrace: defaultInterruptGrace,
		},
		Batch: Batch{
			OnError: defaultOnError,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
