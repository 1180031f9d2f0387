package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, false))
	logger.Info("Loaded page", "offset", 40, "rows", 20)
	logger.Debug("Hidden at info level")

	out := ansi.Strip(buf.String())
	require.Contains(t, out, "Loaded page")
	require.Contains(t, out, "offset=40")
	require.NotContains(t, out, "Hidden")
}

func TestConsoleHandler_Debug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(NewConsoleHandler(&buf, true)).Debug("Evicted page", "offset", 0)
	require.Contains(t, ansi.Strip(buf.String()), "Evicted page")
}

func TestRecoverPanic_RunsCleanup(t *testing.T) {
	t.Chdir(t.TempDir())

	var cleaned bool
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("curdled")
	}()
	require.True(t, cleaned)
}
