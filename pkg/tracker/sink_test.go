package tracker

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEventSink_ReceivesOnlyTrackerEntries(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Configure(WithEmitEach(true))
	require.NoError(t, err)

	var buf bytes.Buffer
	id, err := tr.AddEventSink(&buf)
	require.NoError(t, err)
	assert.Equal(t, []SinkID{id}, tr.Sinks())

	// Unrelated log traffic through the same logger is filtered out.
	tr.Logger().Info("application noise")
	assert.Empty(t, buf.String())

	span, err := tr.Info("upload")
	require.NoError(t, err)
	span.End(nil)

	out := buf.String()
	assert.Contains(t, out, "task=upload | elapsed=")
	assert.Contains(t, out, "status=OK")
}

func TestAddEventSink_SummaryIsWrittenVerbatim(t *testing.T) {
	tr, _ := newTestTracker(t)
	span, err := tr.Info("render")
	require.NoError(t, err)
	span.End(nil)

	var buf bytes.Buffer
	_, err = tr.AddEventSink(&buf, WithKinds(KindSummary))
	require.NoError(t, err)

	rendered, err := tr.Summary()
	require.NoError(t, err)

	assert.Equal(t, rendered+"\n", buf.String())
}

func TestAddEventSink_KindFilter(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Configure(WithEmitEach(true))
	require.NoError(t, err)

	var events, summaries bytes.Buffer
	_, err = tr.AddEventSink(&events, WithKinds(KindEvent))
	require.NoError(t, err)
	_, err = tr.AddEventSink(&summaries, WithKinds(KindSummary))
	require.NoError(t, err)

	span, err := tr.Info("work")
	require.NoError(t, err)
	span.End(nil)

	_, err = tr.Summary()
	require.NoError(t, err)

	assert.Contains(t, events.String(), "task=work")
	assert.NotContains(t, events.String(), "TOTAL (all tasks)")
	assert.Contains(t, summaries.String(), "TOTAL (all tasks)")
	assert.NotContains(t, summaries.String(), "status=")
}

func TestAddEventSink_Validation(t *testing.T) {
	tr, _ := newTestTracker(t)

	t.Run("nil writer", func(t *testing.T) {
		_, err := tr.AddEventSink(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("unknown kind", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := tr.AddEventSink(&buf, WithKinds("metrics"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestRemoveEventSink(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Configure(WithEmitEach(true))
	require.NoError(t, err)

	var buf bytes.Buffer
	id, err := tr.AddEventSink(&buf)
	require.NoError(t, err)

	assert.True(t, tr.RemoveEventSink(id))
	assert.False(t, tr.RemoveEventSink(id))
	assert.Empty(t, tr.Sinks())

	span, err := tr.Info("after-removal")
	require.NoError(t, err)
	span.End(nil)

	assert.Empty(t, buf.String())
}

func TestAddEventSink_CustomFormatter(t *testing.T) {
	tr, _ := newTestTracker(t)
	_, err := tr.Configure(WithEmitEach(true))
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = tr.AddEventSink(&buf, WithSinkFormatter(&logrus.JSONFormatter{}))
	require.NoError(t, err)

	span, err := tr.Info("encode")
	require.NoError(t, err)
	span.End(nil)

	assert.Contains(t, buf.String(), `"task":"encode"`)
	assert.Contains(t, buf.String(), `"`+MarkerKey+`":"`+MarkerValue+`"`)
}
