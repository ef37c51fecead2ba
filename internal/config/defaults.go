package config

const (
	defaultInputDir         = "~/.local/share/fragmill/ifc"
	defaultOutputDir        = "~/.local/share/fragmill/fragments"
	defaultLogDir           = "~/.local/share/fragmill/logs"
	defaultServerBind       = "127.0.0.1:8111"
	defaultConverterCommand = "node"
	defaultConverterScript  = ""
	defaultTimeoutSeconds   = 300
	defaultWorkers          = 2
	defaultQueueSize        = 64
	defaultMaxSourceMB      = 500
	defaultSettleSeconds    = 2
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:  defaultInputDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Converter: Converter{
			Command:        defaultConverterCommand,
			Script:         defaultConverterScript,
			TimeoutSeconds: defaultTimeoutSeconds,
			Workers:        defaultWorkers,
			QueueSize:      defaultQueueSize,
			MaxSourceMB:    defaultMaxSourceMB,
		},
		Watch: Watch{
			Enabled:        true,
			SettleSeconds:  defaultSettleSeconds,
			ConvertOnStart: true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
