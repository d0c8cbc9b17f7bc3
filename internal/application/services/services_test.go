package services

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/caching/stores"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/persistence/documents"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
)

// testStart is a Monday afternoon, clear of night-owl, early-bird,
// vampire-hour, and weekend windows.
var testStart = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu           sync.Mutex
	toasts       []messaging.Toast
	achievements []messaging.AchievementUnlock
	widgetShows  int
}

func (n *recordingNotifier) ShowToast(_ string, toast messaging.Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, toast)
}

func (n *recordingNotifier) ShowAchievement(_ string, unlock messaging.AchievementUnlock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.achievements = append(n.achievements, unlock)
}

func (n *recordingNotifier) ShowQualifiedLeadWidget(string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.widgetShows++
}

func (n *recordingNotifier) toastCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.toasts)
}

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
		ChannelLevels:   make(map[logging.Channel]slog.Level),
	})
	require.NoError(t, err)
	return logger
}

type testEnv struct {
	clock      *scheduling.ManualClock
	scheduler  *scheduling.ManualScheduler
	notifier   *recordingNotifier
	store      *documents.MemoryStore
	cache      *stores.ProfileStore
	profiles   *ProfileService
	engagement *EngagementService
	sessions   *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := newTestLogger(t)
	clock := scheduling.NewManualClock(testStart)
	scheduler := scheduling.NewManualScheduler()
	notifier := &recordingNotifier{}
	store := documents.NewMemoryStore()
	cache := stores.NewProfileStore(logger)
	perfTracker := performance.NewTracker(nil)

	profiles := NewProfileService(store, cache, clock, logger, perfTracker)
	engagement := NewEngagementService(notifier, nil, clock, scheduler, logger)
	sessions := NewSessionService(profiles, engagement, clock, scheduler, logger, perfTracker)

	return &testEnv{
		clock:      clock,
		scheduler:  scheduler,
		notifier:   notifier,
		store:      store,
		cache:      cache,
		profiles:   profiles,
		engagement: engagement,
		sessions:   sessions,
	}
}
