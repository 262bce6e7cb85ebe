package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repeticio/repeticio/internal/authoring"
	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/devserver"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

// executeErr runs args and returns the output and the command error.
func executeErr(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func practiceServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := devserver.New(devserver.Options{
		Generator: authoring.NewSeedBank(),
		GinMode:   "test",
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("REPETICIO_CONFIG", "")
	t.Setenv("REPETICIO_LOG_LEVEL", "error")
}

func TestExerciseAndHistoryAgainstPracticeBackend(t *testing.T) {
	isolateEnv(t)

	ts := practiceServer(t)

	db := filepath.Join(t.TempDir(), "repeticio.db")
	common := []string{"--db", db, "--base-url", ts.URL, "--user", "ana"}

	out := execute(t, append(common, "exercise", "--answer", "1", "--rate", "", "--skip=false")...)
	assert.Contains(t, out, "Nosotros ___ al parque los domingos.")
	assert.Contains(t, out, "[1] a) vamos")
	assert.Contains(t, out, "Correct!")

	out = execute(t, "--db", db, "history")
	assert.Contains(t, out, "a) vamos")
	assert.Contains(t, out, "1 answers, 1 graded, 1 correct")

	out = execute(t, "--db", db, "requests")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "submit")
}

func TestExerciseRating(t *testing.T) {
	isolateEnv(t)
	ts := practiceServer(t)
	db := filepath.Join(t.TempDir(), "repeticio.db")
	common := []string{"--db", db, "--base-url", ts.URL, "--user", "ana"}

	out := execute(t, append(common, "exercise", "--answer", "2", "--rate", "down", "--skip=false")...)
	assert.Contains(t, out, "Not quite")
	assert.Contains(t, out, "You rated this exercise: thumbs down")

	out = execute(t, "--db", db, "requests")
	assert.Contains(t, out, "rate")

	_, err := executeErr(t, append(common, "exercise", "--answer", "1", "--rate", "sideways", "--skip=false")...)
	assert.ErrorContains(t, err, "--rate must be up or down")
}

func TestExerciseRecoversFromRestartedBackend(t *testing.T) {
	isolateEnv(t)
	db := filepath.Join(t.TempDir(), "repeticio.db")

	// Leave an exercise pending on the first server.
	first := practiceServer(t)
	out := execute(t, "--db", db, "--base-url", first.URL, "--user", "ana",
		"exercise", "--answer", "", "--rate", "", "--skip=false")
	assert.Contains(t, out, "stays pending")

	// A new server does not know it; the saved exercise is dropped.
	second := practiceServer(t)
	common := []string{"--db", db, "--base-url", second.URL, "--user", "ana"}
	out, err := executeErr(t, append(common, "exercise", "--answer", "1", "--rate", "", "--skip=false")...)
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrNotPending)
	assert.Contains(t, out, "no longer has that exercise")

	out = execute(t, append(common, "exercise", "--answer", "1", "--rate", "", "--skip=false")...)
	assert.Contains(t, out, "Correct!")
}

func TestExerciseSkip(t *testing.T) {
	isolateEnv(t)
	ts := practiceServer(t)
	db := filepath.Join(t.TempDir(), "repeticio.db")
	common := []string{"--db", db, "--base-url", ts.URL, "--user", "ana"}

	execute(t, append(common, "exercise", "--answer", "", "--rate", "", "--skip=false")...)
	out := execute(t, append(common, "exercise", "--answer", "1", "--rate", "", "--skip")...)
	assert.Contains(t, out, "Skipped the saved exercise.")
	assert.Contains(t, out, "Correct!")
}

func TestResetRequiresConfirmation(t *testing.T) {
	isolateEnv(t)
	db := filepath.Join(t.TempDir(), "repeticio.db")

	out := execute(t, "--db", db, "history")
	assert.Contains(t, out, "No answers recorded.")

	out = execute(t, "--db", db, "reset")
	assert.Contains(t, out, "--yes")
	assert.FileExists(t, db)

	out = execute(t, "--db", db, "reset", "--yes")
	assert.Contains(t, out, "Deleted")
	assert.NoFileExists(t, db)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "ñañ…", truncate("ñañañ", 4))
}
