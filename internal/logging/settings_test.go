package logging

import (
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"":        LevelInfo,
		"trace":   LevelTrace,
		" DEBUG ": LevelDebug,
		"warning": LevelWarn,
		"Error":   LevelError,
		"fatal":   LevelFatal,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestLevelEnabled(t *testing.T) {
	if !LevelWarn.Enabled(LevelError) || LevelWarn.Enabled(LevelInfo) {
		t.Fatalf("expected WARN threshold to pass ERROR and drop INFO")
	}
}

func TestParseSettings(t *testing.T) {
	settings, err := ParseSettings("go-logger", "warn", "")
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if settings.Provider != ProviderGoLogger || settings.Level != LevelWarn || settings.Format != FormatJSON {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	// console ignores format
	if _, err := ParseSettings("console", "info", "xml"); err != nil {
		t.Fatalf("expected console to ignore format, got %v", err)
	}

	if _, err := ParseSettings("gologger", "info", "xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := ParseSettings("syslog", "info", ""); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}
