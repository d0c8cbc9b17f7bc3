package services

import (
	"encoding/json"
	"time"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/caching/stores"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/performance"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/persistence/documents"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/scheduling"
)

// visitorKeyPrefix is the storage key namespace for profile documents. The
// legacy session key namespace ("leadpulse_session:") is cleared on reset
// but never written.
const (
	visitorKeyPrefix = "leadpulse_visitor:"
	sessionKeyPrefix = "leadpulse_session:"
)

// ProfileService owns the load/mutate/save round trips for visitor
// profiles. Storage failures degrade the visitor to an in-memory profile;
// no operation surfaces an error to tracking callers.
type ProfileService struct {
	store       documents.Store
	cache       *stores.ProfileStore
	clock       scheduling.Clock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	// saveHook runs inside Save before persistence, while the per-visitor
	// lock is held. The container points it at achievement evaluation.
	saveHook func(p *profile.VisitorProfile)
}

// NewProfileService creates a new profile service with injected dependencies
func NewProfileService(
	store documents.Store,
	cache *stores.ProfileStore,
	clock scheduling.Clock,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *ProfileService {
	return &ProfileService{
		store:       store,
		cache:       cache,
		clock:       clock,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// SetSaveHook installs the callback run on every save. Used to bolt
// achievement evaluation onto the save path without a dependency cycle.
func (s *ProfileService) SetSaveHook(hook func(p *profile.VisitorProfile)) {
	s.saveHook = hook
}

// Load returns the visitor's profile, creating a fresh one lazily when no
// document exists. Corrupt documents and storage failures are logged and
// replaced with defaults; a storage failure flags the visitor degraded.
func (s *ProfileService) Load(visitorID string) *profile.VisitorProfile {
	if p, ok := s.cache.Get(visitorID); ok {
		return p
	}

	marker := s.perfTracker.StartOperation("profile:load", visitorID)
	defer marker.Complete()

	now := s.clock.Now()
	raw, found, err := s.store.Get(visitorKeyPrefix + visitorID)
	if err != nil {
		s.logger.LogError(logging.ChannelProfile, "load", err, visitorID, nil)
		s.cache.MarkDegraded(visitorID)
		marker.SetError(err)
		return s.createFresh(visitorID, now)
	}
	if !found {
		return s.createFresh(visitorID, now)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logger.LogError(logging.ChannelProfile, "parse", err, visitorID, nil)
		return s.createFresh(visitorID, now)
	}

	p, err := profile.Migrate(doc, now)
	if err != nil {
		s.logger.LogError(logging.ChannelProfile, "migrate", err, visitorID, nil)
		return s.createFresh(visitorID, now)
	}
	if p.VisitorID == "" {
		p.VisitorID = visitorID
	}

	s.cache.Set(visitorID, p)
	s.logger.WithVisitor(logging.ChannelProfile, visitorID).Debug("Profile loaded",
		"score", p.Engagement.Score, "level", p.Engagement.Level)
	return p
}

// LoadOrCreate returns the profile, seeding identity, source, and metadata
// when the visitor is new.
func (s *ProfileService) LoadOrCreate(visitorID, sessionID string, source profile.SourceInfo, meta profile.Metadata) *profile.VisitorProfile {
	p := s.Load(visitorID)
	if p.Source.Type == "" {
		p.Source = source
		p.Metadata = meta
		p.CurrentSession.SessionID = sessionID
	}
	return p
}

func (s *ProfileService) createFresh(visitorID string, now time.Time) *profile.VisitorProfile {
	p := profile.NewVisitorProfile(visitorID, "", profile.SourceInfo{}, profile.Metadata{}, now)
	// Written through immediately so firstVisit survives a restart even
	// when the visitor never triggers a mutation.
	s.Save(p)
	s.logger.WithVisitor(logging.ChannelProfile, visitorID).Info("Profile created")
	return p
}

// Save stamps lastVisit, runs the save hook, and persists the profile.
// Returns false on write failure, after degrading the visitor to
// in-memory-only.
func (s *ProfileService) Save(p *profile.VisitorProfile) bool {
	marker := s.perfTracker.StartOperation("profile:save", p.VisitorID)
	defer marker.Complete()

	p.LastVisit = s.clock.Now()

	if s.saveHook != nil {
		s.saveHook(p)
	}

	s.cache.Set(p.VisitorID, p)

	if s.cache.IsDegraded(p.VisitorID) {
		return false
	}

	data, err := json.Marshal(p)
	if err != nil {
		s.logger.LogError(logging.ChannelProfile, "serialize", err, p.VisitorID, nil)
		marker.SetError(err)
		return false
	}

	if err := s.store.Set(visitorKeyPrefix+p.VisitorID, string(data)); err != nil {
		s.logger.LogError(logging.ChannelProfile, "save", err, p.VisitorID, nil)
		s.cache.MarkDegraded(p.VisitorID)
		marker.SetError(err)
		return false
	}

	return true
}

// Mutate runs fn against a freshly loaded profile under the per-visitor
// lock, then saves. This is the only mutation entry point other services
// use.
func (s *ProfileService) Mutate(visitorID string, fn func(p *profile.VisitorProfile)) *profile.VisitorProfile {
	s.cache.Lock(visitorID)
	defer s.cache.Unlock(visitorID)

	p := s.Load(visitorID)
	fn(p)
	s.Save(p)
	return p
}

// Update applies a partial document as a shallow top-level merge:
// object-valued keys are merged key-by-key, array and scalar keys are
// replaced outright.
func (s *ProfileService) Update(visitorID string, patch map[string]any) *profile.VisitorProfile {
	s.cache.Lock(visitorID)
	defer s.cache.Unlock(visitorID)

	p := s.Load(visitorID)

	data, err := json.Marshal(p)
	if err != nil {
		s.logger.LogError(logging.ChannelProfile, "update_serialize", err, visitorID, nil)
		return p
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.LogError(logging.ChannelProfile, "update_parse", err, visitorID, nil)
		return p
	}

	for key, value := range patch {
		existing, hasExisting := doc[key].(map[string]any)
		incoming, isObject := value.(map[string]any)
		if hasExisting && isObject {
			for k, v := range incoming {
				existing[k] = v
			}
			continue
		}
		doc[key] = value
	}

	merged, err := profile.Migrate(doc, s.clock.Now())
	if err != nil {
		s.logger.LogError(logging.ChannelProfile, "update_migrate", err, visitorID, nil)
		return p
	}
	merged.VisitorID = p.VisitorID

	*p = *merged
	s.Save(p)
	return p
}

// Reset clears the persisted document and the legacy session key. The
// profile is lazily recreated on next load.
func (s *ProfileService) Reset(visitorID string) {
	s.cache.Lock(visitorID)
	defer s.cache.Unlock(visitorID)

	if err := s.store.Remove(visitorKeyPrefix + visitorID); err != nil {
		s.logger.LogError(logging.ChannelProfile, "reset", err, visitorID, nil)
	}
	if err := s.store.Remove(sessionKeyPrefix + visitorID); err != nil {
		s.logger.LogError(logging.ChannelProfile, "reset_session", err, visitorID, nil)
	}
	s.cache.Remove(visitorID)

	s.logger.WithVisitor(logging.ChannelProfile, visitorID).Info("Profile reset")
}

// ResetTimeData zeroes global and per-page time totals and averages and
// clears all per-page session history, preserving visit counts and
// identities.
func (s *ProfileService) ResetTimeData(visitorID string) *profile.VisitorProfile {
	return s.Mutate(visitorID, func(p *profile.VisitorProfile) {
		p.Behavior.TotalTimeSpent = 0
		p.Behavior.AverageTimePerPage = 0
		for _, page := range p.Behavior.Pages {
			page.TotalTimeSpent = 0
			page.AverageTimeSpent = 0
			page.Sessions = []profile.SessionSnapshot{}
		}
	})
}

// ResetAchievements clears all unlocks so predicates can fire again.
func (s *ProfileService) ResetAchievements(visitorID string) *profile.VisitorProfile {
	return s.Mutate(visitorID, func(p *profile.VisitorProfile) {
		p.Achievements = profile.AchievementState{
			Unlocked:   []string{},
			UnlockedAt: make(map[string]time.Time),
		}
	})
}

// IsDegraded reports whether a visitor's profile is in-memory only.
func (s *ProfileService) IsDegraded(visitorID string) bool {
	return s.cache.IsDegraded(visitorID)
}
