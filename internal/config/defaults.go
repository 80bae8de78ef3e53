package config

const (
	defaultConfigPath               = "~/.config/birdtriage/config.toml"
	defaultLogDir                   = "~/.local/share/birdtriage/logs"
	defaultStateDir                 = "~/.local/share/birdtriage"
	defaultApprovedDir              = "filtered_species_files"
	defaultNoiseDir                 = "noise"
	defaultFalsePositiveDir         = "false_positive"
	defaultProgressFile             = "filtered species - updated list.txt"
	defaultApprovalThreshold        = 500
	defaultExpectedDurationSeconds  = 3.0
	defaultOrdering                 = OrderingSequential
	defaultMaxConsecutiveRejections = 25
	defaultRenderWidth              = 72
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 30
)

// Queue ordering policies.
const (
	OrderingSequential = "sequential"
	OrderingRandom     = "random"
)

func defaultExtensions() []string {
	return []string{".wav", ".mp3"}
}

func defaultPlayerCommand() []string {
	return []string{"aplay", "-q"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Layout: Layout{
			ApprovedDir:      defaultApprovedDir,
			NoiseDir:         defaultNoiseDir,
			FalsePositiveDir: defaultFalsePositiveDir,
			ProgressFile:     defaultProgressFile,
		},
		Review: Review{
			ApprovalThreshold:        defaultApprovalThreshold,
			ExpectedDurationSeconds:  defaultExpectedDurationSeconds,
			Ordering:                 defaultOrdering,
			Extensions:               defaultExtensions(),
			MaxConsecutiveRejections: defaultMaxConsecutiveRejections,
		},
		Playback: Playback{
			Enabled:  true,
			Autoplay: true,
			Command:  defaultPlayerCommand(),
		},
		Render: Render{
			Enabled: true,
			Width:   defaultRenderWidth,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
