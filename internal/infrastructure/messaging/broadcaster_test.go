package messaging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
)

func newTestBroadcaster(t *testing.T) *SSEBroadcaster {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return NewSSEBroadcaster(logger)
}

func TestBroadcastReachesEveryTabOfAVisitor(t *testing.T) {
	b := newTestBroadcaster(t)

	tab1 := b.AddClient("v1")
	tab2 := b.AddClient("v1")
	other := b.AddClient("v2")

	b.ShowToast("v1", Toast{Message: "hello", Level: "warm"})

	msg1 := <-tab1
	msg2 := <-tab2
	assert.Equal(t, msg1, msg2)
	assert.Contains(t, msg1, "event: toast\n")
	assert.Contains(t, msg1, `"message":"hello"`)
	assert.Empty(t, other, "other visitors receive nothing")
}

func TestRemoveClientStopsDelivery(t *testing.T) {
	b := newTestBroadcaster(t)

	ch := b.AddClient("v1")
	assert.Equal(t, 1, b.GetConnectionCount("v1"))

	b.RemoveClient(ch, "v1")
	assert.Equal(t, 0, b.GetConnectionCount("v1"))

	b.ShowAchievement("v1", AchievementUnlock{ID: "first_steps"})
	assert.Empty(t, ch)
}

func TestFullChannelDropsInsteadOfBlocking(t *testing.T) {
	b := newTestBroadcaster(t)

	ch := b.AddClient("v1")
	for i := 0; i < cap(ch)+5; i++ {
		b.ShowQualifiedLeadWidget("v1")
	}
	assert.Len(t, ch, cap(ch))
}

func TestQualifiedWidgetEventShape(t *testing.T) {
	b := newTestBroadcaster(t)

	ch := b.AddClient("v1")
	b.ShowQualifiedLeadWidget("v1")

	msg := <-ch
	assert.Contains(t, msg, "event: qualified_lead_widget\n")
	assert.Contains(t, msg, `{"show":true}`)
}
