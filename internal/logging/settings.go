package logging

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownProvider = errors.New("logging: unknown provider")
	ErrUnknownLevel    = errors.New("logging: unknown level")
	ErrUnknownFormat   = errors.New("logging: unknown format")
)

// Level orders severities from Trace up to Fatal.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return levelNames[LevelInfo]
}

// Enabled reports whether an entry at level passes a threshold of l.
func (l Level) Enabled(level Level) bool { return level >= l }

// ParseLevel accepts level names in any case, plus "warning". Blank input
// selects LevelInfo.
func ParseLevel(value string) (Level, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	switch value {
	case "":
		return LevelInfo, nil
	case "WARNING":
		return LevelWarn, nil
	}
	for i, name := range levelNames {
		if name == value {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, value)
}

// Provider names a logger backend.
type Provider string

const (
	ProviderConsole  Provider = "console"
	ProviderGoLogger Provider = "gologger"
)

// ParseProvider defaults blank input to the console provider.
func ParseProvider(value string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "console":
		return ProviderConsole, nil
	case "gologger", "go-logger":
		return ProviderGoLogger, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, value)
	}
}

// Format is the go-logger output encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
	FormatPretty  Format = "pretty"
)

// ParseFormat defaults blank input to JSON.
func ParseFormat(value string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(value))); format {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatConsole, FormatPretty:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// Settings is the parsed, provider independent logging configuration.
// Format only applies to the go-logger provider.
type Settings struct {
	Provider  Provider
	Level     Level
	Format    Format
	AddSource bool
	Focus     []string
}

// ParseSettings resolves the raw config strings. The console provider does
// not read Format, so an unknown format only fails for go-logger.
func ParseSettings(provider, level, format string) (Settings, error) {
	var (
		settings Settings
		err      error
	)
	if settings.Provider, err = ParseProvider(provider); err != nil {
		return Settings{}, err
	}
	if settings.Level, err = ParseLevel(level); err != nil {
		return Settings{}, err
	}
	if settings.Provider == ProviderGoLogger {
		if settings.Format, err = ParseFormat(format); err != nil {
			return Settings{}, err
		}
	}
	return settings, nil
}
