package cmd

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/pagelist/internal/cheese"
	"github.com/charmbracelet/pagelist/internal/gateway"
	"github.com/charmbracelet/pagelist/internal/pubsub"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestPrintRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printRows(&buf, 998, []cheese.Cheese{
		{ID: 7, Name: "Brie"},
		{ID: 12, Name: "Cheddar"},
	}, 1500)

	require.Equal(t, " 998 Brie #7\n 999 Cheddar #12\n999–1,000 of 1,500\n", ansi.Strip(buf.String()))

	buf.Reset()
	printRows(&buf, 10, nil, 3)
	require.Equal(t, "No rows at 10 of 3\n", ansi.Strip(buf.String()))
}

func TestPrintResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ok := printResult(&buf, pubsub.Event[gateway.Result]{
		Type:    pubsub.CreatedEvent,
		Payload: gateway.Result{ID: "0123456789abcdef", Op: gateway.OpInsert},
	})
	require.True(t, ok)
	require.Equal(t, "✓ 01234567 insert\n", ansi.Strip(buf.String()))

	buf.Reset()
	ok = printResult(&buf, pubsub.Event[gateway.Result]{
		Type: pubsub.FailedEvent,
		Payload: gateway.Result{ID: "abc", Op: gateway.OpDelete, Err: &gateway.MutationError{
			ID: "abc", Op: gateway.OpDelete, Err: cheese.ErrNotFound,
		}},
	})
	require.False(t, ok)
	require.Contains(t, ansi.Strip(buf.String()), "✗ abc delete abc failed")
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, float64(50), parseValue("50"))
	require.Equal(t, false, parseValue("false"))
	require.Equal(t, "id", parseValue("id"))
	require.Equal(t, map[string]any{"a": float64(1)}, parseValue(`{"a": 1}`))
}
