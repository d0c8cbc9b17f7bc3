// Package services contains the application services orchestrating visitor
// tracking: identity, profiles, page sessions, engagement, achievements,
// suggestions, and the sysop surface.
package services

import (
	"net/url"
	"strings"

	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/observability/logging"
	"github.com/withseismic/leadpulse-go/internal/infrastructure/security"
)

// IdentityService generates visitor/session identifiers and classifies
// traffic sources.
type IdentityService struct {
	logger *logging.ChanneledLogger
}

// NewIdentityService creates a new identity service with injected dependencies
func NewIdentityService(logger *logging.ChanneledLogger) *IdentityService {
	return &IdentityService{logger: logger}
}

// GenerateVisitorID returns a new opaque visitor identifier.
func (s *IdentityService) GenerateVisitorID() string {
	return security.GeneratePrefixedID("visitor")
}

// GenerateSessionID returns a new opaque session identifier.
func (s *IdentityService) GenerateSessionID() string {
	return security.GeneratePrefixedID("session")
}

// DetectSource classifies how a visitor arrived, in priority order:
// utm_source query param, ref query param, external referrer hostname,
// direct. It is a pure function of its arguments; malformed URLs fall
// through to direct.
func (s *IdentityService) DetectSource(pageURL, referrer string) profile.SourceInfo {
	page, pageErr := url.Parse(pageURL)
	if pageErr == nil {
		query := page.Query()
		if utm := query.Get("utm_source"); utm != "" {
			return profile.SourceInfo{Type: profile.SourceUTM, Value: &utm}
		}
		if ref := query.Get("ref"); ref != "" {
			return profile.SourceInfo{Type: profile.SourceReferral, Value: &ref}
		}
	}

	if referrer != "" {
		ref, err := url.Parse(referrer)
		if err == nil && ref.Hostname() != "" {
			pageHost := ""
			if pageErr == nil {
				pageHost = page.Hostname()
			}
			if pageHost == "" || !strings.Contains(ref.Hostname(), pageHost) {
				host := ref.Hostname()
				return profile.SourceInfo{Type: profile.SourceExternal, Value: &host}
			}
		}
	}

	return profile.SourceInfo{Type: profile.SourceDirect, Value: nil}
}
