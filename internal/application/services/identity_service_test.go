package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/withseismic/leadpulse-go/internal/domain/entities/profile"
)

func TestGenerateIDsArePrefixedAndUnique(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	v1 := svc.GenerateVisitorID()
	v2 := svc.GenerateVisitorID()
	assert.True(t, strings.HasPrefix(v1, "visitor_"))
	assert.NotEqual(t, v1, v2)

	s1 := svc.GenerateSessionID()
	assert.True(t, strings.HasPrefix(s1, "session_"))
}

func TestDetectSourceUTMWins(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	source := svc.DetectSource(
		"https://example.com/page?utm_source=newsletter&ref=friend",
		"https://google.com/search",
	)
	assert.Equal(t, profile.SourceUTM, source.Type)
	require.NotNil(t, source.Value)
	assert.Equal(t, "newsletter", *source.Value)
}

func TestDetectSourceRefParam(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	source := svc.DetectSource("https://example.com/page?ref=partner", "")
	assert.Equal(t, profile.SourceReferral, source.Type)
	require.NotNil(t, source.Value)
	assert.Equal(t, "partner", *source.Value)
}

func TestDetectSourceExternalReferrer(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	source := svc.DetectSource("https://example.com/page", "https://news.ycombinator.com/item?id=1")
	assert.Equal(t, profile.SourceExternal, source.Type)
	require.NotNil(t, source.Value)
	assert.Equal(t, "news.ycombinator.com", *source.Value)
}

func TestDetectSourceInternalReferrerIsDirect(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	source := svc.DetectSource("https://example.com/page", "https://example.com/other")
	assert.Equal(t, profile.SourceDirect, source.Type)
	assert.Nil(t, source.Value)
}

func TestDetectSourceMalformedURLIsDirect(t *testing.T) {
	svc := NewIdentityService(newTestLogger(t))

	source := svc.DetectSource("://not-a-url", "also not a url")
	assert.Equal(t, profile.SourceDirect, source.Type)
}
