package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

// =============================================================================
// Tests: DefaultConfig
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5.0, cfg.DefaultTimeout)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.TUIEnabled)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.Watches)
}

// =============================================================================
// Tests: WatchSpec
// =============================================================================

func TestWatchSpec_Argv(t *testing.T) {
	tests := []struct {
		name    string
		spec    WatchSpec
		want    []string
		wantErr string
	}{
		{"arglist", WatchSpec{Arglist: []string{"echo", "a b"}}, []string{"echo", "a b"}, ""},
		{"single element", WatchSpec{Arglist: []string{"uptime"}}, []string{"uptime"}, ""},
		{"command string", WatchSpec{Command: `git log -n 3 --format='%h %s'`}, []string{"git", "log", "-n", "3", "--format=%h %s"}, ""},
		{"empty", WatchSpec{}, nil, "arglist must not be empty"},
		{"both", WatchSpec{Arglist: []string{"a"}, Command: "b"}, nil, "mutually exclusive"},
		{"blank command", WatchSpec{Command: "   "}, nil, "blank"},
		{"unterminated quote", WatchSpec{Command: `echo "oops`}, nil, "split command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.Argv()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchSpec_TimeoutOr(t *testing.T) {
	assert.Equal(t, 5.0, WatchSpec{}.TimeoutOr(5))
	assert.Equal(t, 2.5, WatchSpec{Timeout: float(2.5)}.TimeoutOr(5))
}

func TestAdHocWatch(t *testing.T) {
	spec, err := AdHocWatch([]string{"date"}, "clock", "sleep 1")
	require.NoError(t, err)
	assert.Equal(t, "clock", spec.Title)
	assert.Equal(t, []string{"date"}, spec.Arglist)
	require.NotNil(t, spec.WaitCommand)
	assert.Equal(t, []string{"sleep", "1"}, spec.WaitCommand.Cmd)

	spec, err = AdHocWatch([]string{"date"}, "", "")
	require.NoError(t, err)
	assert.Nil(t, spec.WaitCommand)

	_, err = AdHocWatch([]string{"date"}, "", `sleep "1`)
	assert.Error(t, err)
}

// =============================================================================
// Tests: Validate
// =============================================================================

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Watches = []WatchSpec{{Arglist: []string{"uptime"}}}
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"no watches", func(c *Config) { c.Watches = nil }, "watches"},
		{"empty arglist", func(c *Config) { c.Watches[0].Arglist = []string{} }, "watches[0].arglist"},
		{"empty executable", func(c *Config) { c.Watches[0].Arglist = []string{""} }, "watches[0].arglist"},
		{"zero timeout", func(c *Config) { c.Watches[0].Timeout = float(0) }, "watches[0].timeout"},
		{"negative timeout", func(c *Config) { c.Watches[0].Timeout = float(-1) }, "watches[0].timeout"},
		{"empty wait command", func(c *Config) { c.Watches[0].WaitCommand = &WaitCommand{} }, "watches[0].wait_command.cmd"},
		{"bad default timeout", func(c *Config) { c.DefaultTimeout = 0 }, "default_timeout"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantField+":")
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Watches = append(cfg.Watches, WatchSpec{}, WatchSpec{Arglist: []string{"ls"}, Timeout: float(-2)})
	cfg.LogFormat = "xml"

	err := Validate(cfg)
	require.Error(t, err)

	var ve ValidationError
	assert.True(t, errors.As(err, &ve))
	msg := err.Error()
	assert.Contains(t, msg, "watches[1].arglist")
	assert.Contains(t, msg, "watches[2].timeout")
	assert.Contains(t, msg, "log_format")
	assert.NotContains(t, msg, "watches[0]")
}

// =============================================================================
// Tests: ParseWatches / LoadFile
// =============================================================================

func TestParseWatches_List(t *testing.T) {
	data := []byte(`
- title: load
  arglist: [uptime]
  timeout: 2.5
- arglist: [git, status, --short]
  wait_command:
    cmd: [inotifywait, -qq, -r, -e, modify, .]
- command: df -h /
`)
	specs, def, err := ParseWatches(data)
	require.NoError(t, err)
	assert.Nil(t, def)
	require.Len(t, specs, 3)

	assert.Equal(t, "load", specs[0].Title)
	assert.Equal(t, []string{"uptime"}, specs[0].Arglist)
	require.NotNil(t, specs[0].Timeout)
	assert.Equal(t, 2.5, *specs[0].Timeout)

	require.NotNil(t, specs[1].WaitCommand)
	assert.Equal(t, "inotifywait", specs[1].WaitCommand.Cmd[0])
	assert.Nil(t, specs[1].Timeout)

	argv, err := specs[2].Argv()
	require.NoError(t, err)
	assert.Equal(t, []string{"df", "-h", "/"}, argv)
}

func TestParseWatches_Mapping(t *testing.T) {
	data := []byte(`
default_timeout: 10
watches:
  - arglist: [date]
`)
	specs, def, err := ParseWatches(data)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, 10.0, *def)
	require.Len(t, specs, 1)
}

func TestParseWatches_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"scalar", "just a string"},
		{"unknown field in list", "- arglist: [date]\n  intervl: 3\n"},
		{"unknown top-level field", "watches: []\nextra: 1\n"},
		{"bad yaml", "- arglist: [date\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseWatches([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watches.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_timeout: 3\nwatches:\n  - arglist: [date]\n"), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(cfg, path))
	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, 3.0, cfg.DefaultTimeout)
	assert.Len(t, cfg.Watches, 1)

	err := LoadFile(DefaultConfig(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// =============================================================================
// Tests: BindFlags / Finalize
// =============================================================================

func TestBindFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs, cfg)

	err := fs.Parse([]string{"-n", "2", "--title", "clock", "--tui=false", "--metrics", "127.0.0.1:9000", "-v", "--skip-preflight", "--", "date", "+%T"})
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.DefaultTimeout)
	assert.Equal(t, "clock", cfg.Title)
	assert.False(t, cfg.TUIEnabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.MetricsAddr)
	assert.True(t, cfg.Verbose)
	assert.True(t, cfg.SkipPreflight)
	assert.Equal(t, []string{"date", "+%T"}, fs.Args())
}

func TestFinalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watches.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- arglist: [uptime]\n"), 0o600))

	cfg := DefaultConfig()
	cfg.ConfigPath = path
	cfg.WaitCommand = "sleep 1"
	require.NoError(t, Finalize(cfg, []string{"date"}))

	require.Len(t, cfg.Watches, 2)
	assert.Equal(t, []string{"uptime"}, cfg.Watches[0].Arglist)
	assert.Equal(t, []string{"date"}, cfg.Watches[1].Arglist)
	require.NotNil(t, cfg.Watches[1].WaitCommand)
	assert.NoError(t, Validate(cfg))
}

func TestFinalize_BadWaitCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WaitCommand = `sleep '1`
	err := Finalize(cfg, []string{"date"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "wait:"))
}
