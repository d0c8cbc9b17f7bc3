// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/withseismic/leadpulse-go/internal/application/services"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/caching/stores"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/email"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/messaging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/persistence/database"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/persistence/documents"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
	"github.com/withseismic/leadpulse-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services
	IdentityService    *services.IdentityService
	ProfileService     *services.ProfileService
	SessionService     *services.SessionService
	EngagementService  *services.EngagementService
	AchievementService *services.AchievementService
	SuggestionService  *services.SuggestionService
	SysOpService       *services.SysOpService

	// Infrastructure
	Logger           *logging.ChanneledLogger
	PerfTracker      *performance.Tracker
	Clock            scheduling.Clock
	Scheduler        scheduling.Scheduler
	DB               *database.DB // nil when running on the in-memory fallback
	DocumentStore    documents.Store
	ProfileStore     *stores.ProfileStore
	Broadcaster      *messaging.SSEBroadcaster
	SysOpBroadcaster *messaging.SysOpBroadcaster
	EmailService     email.Service // nil when lead alerts are disabled
}

// NewContainer creates and wires all singleton services
func NewContainer() (*Container, error) {
	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	perfTracker := performance.NewTracker(&performance.TrackerConfig{
		MaxMarkers:    10000,
		SlowThreshold: config.SlowOperationThreshold,
	})

	clock := scheduling.SystemClock{}
	scheduler := scheduling.NewTimerScheduler(config.FrameInterval)

	c := &Container{
		Logger:      logger,
		PerfTracker: perfTracker,
		Clock:       clock,
		Scheduler:   scheduler,
	}

	c.DocumentStore = openDocumentStore(c)
	c.ProfileStore = stores.NewProfileStore(logger)

	c.Broadcaster = messaging.NewSSEBroadcaster(logger)
	c.SysOpBroadcaster = messaging.NewSysOpBroadcaster(c.ProfileStore, config.SessionMapTick)

	if config.LeadAlertEnabled {
		svc, err := email.NewService()
		if err != nil {
			logger.Startup().Warn("Lead alert email disabled", "error", err.Error())
		} else {
			c.EmailService = svc
		}
	}

	c.IdentityService = services.NewIdentityService(logger)
	c.ProfileService = services.NewProfileService(c.DocumentStore, c.ProfileStore, clock, logger, perfTracker)
	c.EngagementService = services.NewEngagementService(c.Broadcaster, c.EmailService, clock, scheduler, logger)
	c.AchievementService = services.NewAchievementService(c.Broadcaster, clock, scheduler, logger)
	c.SessionService = services.NewSessionService(c.ProfileService, c.EngagementService, clock, scheduler, logger, perfTracker)
	c.SuggestionService = services.NewSuggestionService(logger)
	c.SysOpService = services.NewSysOpService(c.Broadcaster, logger, perfTracker)

	// Achievements are evaluated on every profile save.
	c.ProfileService.SetSaveHook(func(p *profile.VisitorProfile) {
		c.AchievementService.Evaluate(p)
	})

	return c, nil
}

// openDocumentStore opens the configured SQL-backed document store, falling
// back to an in-memory store when the database cannot be opened. The
// fallback keeps tracking alive for the process lifetime only.
func openDocumentStore(c *Container) documents.Store {
	start := time.Now()

	db, err := database.NewConnectionWithLogger(config.StorageDriver, config.StorageDSN, c.Logger)
	if err != nil {
		c.Logger.Startup().Error("Database unavailable, using in-memory profile storage",
			"driver", config.StorageDriver, "error", err.Error())
		return documents.NewMemoryStore()
	}

	store, err := documents.NewSQLStore(db, c.Logger)
	if err != nil {
		c.Logger.Startup().Error("Document store init failed, using in-memory profile storage",
			"error", err.Error())
		db.Close()
		return documents.NewMemoryStore()
	}

	c.DB = db
	c.Logger.LogStartupPhase("document_store", time.Since(start), true, map[string]any{
		"driver": config.StorageDriver,
	})
	return store
}

// Close releases container-held resources.
func (c *Container) Close() error {
	c.SessionService.FlushAll()
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return err
		}
	}
	return c.Logger.Close()
}
