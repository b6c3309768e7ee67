package notify_test

import (
	"bytes"
	"testing"

	"github.com/kubestrap/kubestrap/pkg/utils/notify"
	"github.com/kubestrap/kubestrap/pkg/utils/timer"
	"github.com/stretchr/testify/require"
)

func TestErrorf_WritesSymbolAndContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Errorf(&buf, "failed to %s", "bootstrap")

	require.Contains(t, buf.String(), "✗ failed to bootstrap")
}

func TestWarningf_WritesSymbolAndContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Warningf(&buf, "timed out waiting for %d deployments", 3)

	require.Contains(t, buf.String(), "⚠ timed out waiting for 3 deployments")
}

func TestActivityf_WritesSymbolAndContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Activityf(&buf, "applying phase %s", "controllers")

	require.Contains(t, buf.String(), "► applying phase controllers")
}

func TestSuccessWithTimerf_EmitsTimingBlock(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.SuccessWithTimerf(&buf, timer.New(), "cluster created")

	out := buf.String()
	require.Contains(t, out, "✔ cluster created")
	require.Contains(t, out, "⏲ stage:")
	require.Contains(t, out, "total:")
}

func TestTitlef_UsesCustomEmoji(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.Titlef(&buf, "🚀", "Bootstrap cluster...")

	require.Contains(t, buf.String(), "🚀 Bootstrap cluster...")
}

func TestWriteMessage_IndentsMultilineContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	notify.WriteMessage(notify.Message{
		Type:    notify.InfoType,
		Content: "first\nsecond",
		Writer:  &buf,
	})

	require.Contains(t, buf.String(), "ℹ first\n  second")
}
