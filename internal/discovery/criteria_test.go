package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

func TestNormalize_Defaults(t *testing.T) {
	c, err := Normalize(model.SearchCriteria{Query: "  go tutorial  ", RegionCode: "br", RelevanceLanguage: "all"}, 0)

	require.NoError(t, err)
	assert.Equal(t, "go tutorial", c.Query)
	assert.Equal(t, model.DefaultSearchLimit, c.Limit)
	assert.Equal(t, "BR", c.RegionCode)
	assert.Empty(t, c.RelevanceLanguage)
}

func TestNormalize_CapsLimit(t *testing.T) {
	c, err := Normalize(model.SearchCriteria{Query: "q", Limit: 1000}, 120)

	require.NoError(t, err)
	assert.Equal(t, 120, c.Limit)
}

func TestNormalize_Invalid(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		criteria model.SearchCriteria
	}{
		{"blank query", model.SearchCriteria{Query: "   "}},
		{"negative limit", model.SearchCriteria{Query: "q", Limit: -1}},
		{"negative min views", model.SearchCriteria{Query: "q", MinViews: -5}},
		{"negative max subscribers", model.SearchCriteria{Query: "q", MaxSubscribers: int64Ptr(-1)}},
		{"max subscribers below min", model.SearchCriteria{Query: "q", MinSubscribers: 100, MaxSubscribers: int64Ptr(10)}},
		{"max views below min", model.SearchCriteria{Query: "q", MinViews: 100, MaxViews: int64Ptr(10)}},
		{"empty window", model.SearchCriteria{Query: "q", PublishedAfter: timePtr(now), PublishedBefore: timePtr(now)}},
		{"bad region", model.SearchCriteria{Query: "q", RegionCode: "BRA"}},
		{"bad language", model.SearchCriteria{Query: "q", RelevanceLanguage: "pt_BR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.criteria, 0)
			assert.ErrorIs(t, err, ErrInvalidCriteria)
		})
	}
}

func TestPeriodWindow(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)
	midnight := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		period     string
		wantAfter  *time.Time
		wantBefore *time.Time
	}{
		{"", nil, nil},
		{PeriodToday, timePtr(midnight), nil},
		{PeriodYesterday, timePtr(midnight.AddDate(0, 0, -1)), timePtr(midnight)},
		{PeriodWeek, timePtr(now.AddDate(0, 0, -7)), nil},
		{"Month", timePtr(now.AddDate(0, 0, -30)), nil},
		{PeriodYear, timePtr(now.AddDate(0, 0, -365)), nil},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			after, before, err := PeriodWindow(tt.period, now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAfter, after)
			assert.Equal(t, tt.wantBefore, before)
		})
	}

	_, _, err := PeriodWindow("decade", now)
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestApplyPeriod_ExplicitBoundsWin(t *testing.T) {
	now := time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)
	explicit := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	c := model.SearchCriteria{Query: "q", PublishedAfter: &explicit}
	require.NoError(t, ApplyPeriod(&c, PeriodYesterday, now))

	assert.Equal(t, explicit, *c.PublishedAfter)
	require.NotNil(t, c.PublishedBefore)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), *c.PublishedBefore)
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{3400, "3.4K"},
		{1_234_567, "1.2M"},
		{-3, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCount(tt.n))
		})
	}
}

func TestClassifyErrorAndKind(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	rl := ClassifyError(ErrRateLimited)
	assert.ErrorIs(t, rl, ErrRateLimited)
	assert.Equal(t, "rate_limited", Kind(rl))

	wrapped := ClassifyError(assert.AnError)
	assert.ErrorIs(t, wrapped, ErrMalformedResponse)
	assert.Equal(t, "malformed_response", Kind(wrapped))

	assert.Equal(t, "unknown", Kind(assert.AnError))
}
