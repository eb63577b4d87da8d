package discovery

import (
	"strings"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
	"github.com/ad-tracker/youtube-opportunity-finder/internal/validation"
)

// DefaultMaxResults caps SearchCriteria.Limit when no cap is configured.
const DefaultMaxResults = 200

// Normalize validates c and returns a copy with defaults applied: blank
// query rejected, zero limit defaulted, limit capped at maxResults, and the
// "all" placeholders for region and language cleared.
func Normalize(c model.SearchCriteria, maxResults int) (model.SearchCriteria, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	c.Query = strings.TrimSpace(c.Query)
	if c.Query == "" {
		return c, invalidCriteria("query is required")
	}

	switch {
	case c.Limit < 0:
		return c, invalidCriteria("limit must be positive, got %d", c.Limit)
	case c.Limit == 0:
		c.Limit = model.DefaultSearchLimit
	}
	if c.Limit > maxResults {
		c.Limit = maxResults
	}

	if c.MinViews < 0 || c.MinLikes < 0 || c.MinSubscribers < 0 {
		return c, invalidCriteria("minimum views, likes and subscribers must not be negative")
	}
	if c.MaxSubscribers != nil {
		if *c.MaxSubscribers < 0 {
			return c, invalidCriteria("maximum subscribers must not be negative")
		}
		if *c.MaxSubscribers < c.MinSubscribers {
			return c, invalidCriteria("maximum subscribers %d is below minimum %d", *c.MaxSubscribers, c.MinSubscribers)
		}
	}
	if c.MaxViews != nil {
		if *c.MaxViews < 0 {
			return c, invalidCriteria("maximum views must not be negative")
		}
		if *c.MaxViews < c.MinViews {
			return c, invalidCriteria("maximum views %d is below minimum %d", *c.MaxViews, c.MinViews)
		}
	}

	if c.PublishedAfter != nil && c.PublishedBefore != nil && !c.PublishedAfter.Before(*c.PublishedBefore) {
		return c, invalidCriteria("published window is empty: after %s is not before %s",
			c.PublishedAfter.Format(timeLayout), c.PublishedBefore.Format(timeLayout))
	}

	c.RegionCode = strings.TrimSpace(c.RegionCode)
	if strings.EqualFold(c.RegionCode, "all") {
		c.RegionCode = ""
	}
	if c.RegionCode != "" {
		if !validation.IsValidRegionCode(c.RegionCode) {
			return c, invalidCriteria("invalid region code %q", c.RegionCode)
		}
		c.RegionCode = strings.ToUpper(c.RegionCode)
	}

	c.RelevanceLanguage = strings.TrimSpace(c.RelevanceLanguage)
	if strings.EqualFold(c.RelevanceLanguage, "all") {
		c.RelevanceLanguage = ""
	}
	if c.RelevanceLanguage != "" && !validation.IsValidLanguage(c.RelevanceLanguage) {
		return c, invalidCriteria("invalid relevance language %q", c.RelevanceLanguage)
	}

	return c, nil
}
