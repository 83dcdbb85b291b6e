package process

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/multiwatch/internal/loop"
)

// =============================================================================
// Helpers
// =============================================================================

type runEvents struct {
	started []int
	results []Result
}

// spawnAndWait runs argv through a Runner backed by a Manual scheduler and
// drains events until the exit callback has been delivered.
func spawnAndWait(t *testing.T, argv ...string) runEvents {
	t.Helper()
	return spawnAndWaitLogged(t, slog.New(slog.NewTextHandler(io.Discard, nil)), argv...)
}

func spawnAndWaitLogged(t *testing.T, logger *slog.Logger, argv ...string) runEvents {
	t.Helper()

	sched := loop.NewManual(time.Now())
	runner := NewRunner(RunnerConfig{
		Poster: sched,
		Logger: logger,
	})

	var ev runEvents
	runner.Spawn(argv, Callbacks{
		OnStart: func(runID string, pid int) { ev.started = append(ev.started, pid) },
		OnExit:  func(r Result) { ev.results = append(ev.results, r) },
	})

	deadline := time.Now().Add(10 * time.Second)
	for len(ev.results) == 0 {
		require.True(t, time.Now().Before(deadline), "run did not finish")
		if sched.WaitPosted(100 * time.Millisecond) {
			sched.RunPending()
		}
	}
	// Nothing may arrive after the exit event.
	assert.False(t, sched.WaitPosted(20*time.Millisecond))
	return ev
}

// =============================================================================
// Tests: Spawn
// =============================================================================

func TestRunner_MergesStreamsInArrivalOrder(t *testing.T) {
	ev := spawnAndWait(t, "sh", "-c", "printf A; sleep 0.05; printf B >&2; sleep 0.05; printf C; exit 3")

	require.Len(t, ev.started, 1)
	require.Len(t, ev.results, 1)
	r := ev.results[0]
	assert.NoError(t, r.Err)
	assert.Equal(t, "ABC", r.Output)
	assert.Equal(t, 3, r.ExitCode)
	assert.Equal(t, KindNone, r.Kind())
	assert.NotEmpty(t, r.RunID)
	assert.GreaterOrEqual(t, r.Duration(), 100*time.Millisecond)
}

func TestRunner_StderrBeforeStdout(t *testing.T) {
	ev := spawnAndWait(t, "sh", "-c", "printf B >&2; printf A")
	assert.Equal(t, "BA", ev.results[0].Output)
	assert.Equal(t, 0, ev.results[0].ExitCode)
}

func TestRunner_SingleElementArglist(t *testing.T) {
	ev := spawnAndWait(t, "true")

	require.Len(t, ev.started, 1)
	r := ev.results[0]
	assert.NoError(t, r.Err)
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "", r.Output)
}

func TestRunner_StdinIsClosed(t *testing.T) {
	// cat exits immediately on EOF; an open stdin would hang the run.
	ev := spawnAndWait(t, "cat")
	assert.NoError(t, ev.results[0].Err)
	assert.Equal(t, 0, ev.results[0].ExitCode)
}

func TestRunner_SpawnFailure(t *testing.T) {
	ev := spawnAndWait(t, "/nonexistent/multiwatch-test-binary")

	assert.Empty(t, ev.started, "OnStart must not fire for a failed spawn")
	r := ev.results[0]
	assert.True(t, errors.Is(r.Err, ErrSpawnFailure))
	assert.Equal(t, KindSpawnFailure, r.Kind())
	assert.Equal(t, -1, r.ExitCode)
	assert.Empty(t, r.Output)
}

func TestRunner_SpawnFailureLoggedAtDebugOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ev := spawnAndWaitLogged(t, logger, "/nonexistent/multiwatch-test-binary")
	require.Len(t, ev.results, 1)
	assert.Empty(t, buf.String(), "the finished-run sink reports spawn failures")

	buf.Reset()
	debug := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	spawnAndWaitLogged(t, debug, "/nonexistent/multiwatch-test-binary")
	assert.Contains(t, buf.String(), "watch_spawn_failed")
	assert.Contains(t, buf.String(), "level=DEBUG")
}

func TestRunner_EmptyArglist(t *testing.T) {
	ev := spawnAndWait(t)
	assert.True(t, errors.Is(ev.results[0].Err, ErrSpawnFailure))
}

func TestRunner_AbnormalTermination(t *testing.T) {
	ev := spawnAndWait(t, "sh", "-c", "printf partial; kill -9 $$")

	require.Len(t, ev.started, 1)
	r := ev.results[0]
	assert.True(t, errors.Is(r.Err, ErrAbnormalTermination))
	assert.Equal(t, KindAbnormalTermination, r.Kind())

	var sigErr *SignalError
	require.True(t, errors.As(r.Err, &sigErr))
	assert.Equal(t, "SIGKILL", sigErr.Signal)
	assert.Contains(t, r.Err.Error(), "SIGKILL")
}

func TestRunner_OutputDecodeFailure(t *testing.T) {
	ev := spawnAndWait(t, "sh", "-c", `printf 'ok\377'`)

	r := ev.results[0]
	assert.True(t, errors.Is(r.Err, ErrOutputDecode))
	assert.Equal(t, KindOutputDecodeFailure, r.Kind())
	assert.Contains(t, r.Err.Error(), "offset 2")
	assert.Empty(t, r.Output)
}

// =============================================================================
// Tests: helpers
// =============================================================================

func TestValidateUTF8(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr bool
	}{
		{"empty", nil, false},
		{"ascii", []byte("hello"), false},
		{"multibyte", []byte("héllo ✓"), false},
		{"bad byte", []byte{'a', 0xff}, true},
		{"truncated rune", []byte{0xe2, 0x9c}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUTF8(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrOutputDecode))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{ErrSpawnFailure, KindSpawnFailure},
		{ErrOutputDecode, KindOutputDecodeFailure},
		{&SignalError{Signal: "SIGTERM"}, KindAbnormalTermination},
		{errors.New("other"), KindSpawnFailure},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "spawn_failure", KindSpawnFailure.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestResult_Duration(t *testing.T) {
	start := time.Unix(100, 0)
	r := Result{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
	assert.Equal(t, time.Duration(0), Result{}.Duration())
}
