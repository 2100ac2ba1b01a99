package postlint

import "github.com/goliatone/go-postlint/internal/runtimeconfig"

var (
	ErrContentDirRequired     = runtimeconfig.ErrContentDirRequired
	ErrWorkersInvalid         = runtimeconfig.ErrWorkersInvalid
	ErrFailOnInvalid          = runtimeconfig.ErrFailOnInvalid
	ErrSeverityInvalid        = runtimeconfig.ErrSeverityInvalid
	ErrLedgerDSNRequired      = runtimeconfig.ErrLedgerDSNRequired
	ErrLedgerDriverUnknown    = runtimeconfig.ErrLedgerDriverUnknown
	ErrOutputFormatInvalid    = runtimeconfig.ErrOutputFormatInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrDebounceInvalid        = runtimeconfig.ErrDebounceInvalid
)

type (
	Config        = runtimeconfig.Config
	LintConfig    = runtimeconfig.LintConfig
	RulesConfig   = runtimeconfig.RulesConfig
	LedgerConfig  = runtimeconfig.LedgerConfig
	OutputConfig  = runtimeconfig.OutputConfig
	WatchConfig   = runtimeconfig.WatchConfig
	LoggingConfig = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a `.postlint.yml` file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}

// FindConfig loads the config file found in dir, or DefaultConfig when
// there is none. The returned path is empty in that case.
func FindConfig(dir string) (Config, string, error) {
	return runtimeconfig.LoadDefault(dir)
}
