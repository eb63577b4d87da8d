// Package validation checks identifiers and codes accepted from callers
// before they reach the YouTube API.
package validation

import (
	"fmt"
	"regexp"
)

var (
	videoIDRegex    = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	channelIDRegex  = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)
	regionCodeRegex = regexp.MustCompile(`^[a-zA-Z]{2}$`)
	languageRegex   = regexp.MustCompile(`^[a-zA-Z]{2,3}(-[a-zA-Z0-9]{2,8})*$`)
)

// MaxChannelIDs bounds how many channel ids a single request may name.
const MaxChannelIDs = 500

func IsValidVideoID(videoID string) bool {
	return videoIDRegex.MatchString(videoID)
}

func IsValidChannelID(channelID string) bool {
	return channelIDRegex.MatchString(channelID)
}

// IsValidRegionCode reports whether code looks like an ISO 3166-1 alpha-2 code.
func IsValidRegionCode(code string) bool {
	return regionCodeRegex.MatchString(code)
}

// IsValidLanguage reports whether lang looks like a BCP-47 language tag.
func IsValidLanguage(lang string) bool {
	return languageRegex.MatchString(lang)
}

// ValidateChannelIDs checks a caller-supplied list of channel ids.
func ValidateChannelIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one channel ID is required")
	}
	if len(ids) > MaxChannelIDs {
		return fmt.Errorf("too many channel IDs (max %d, got %d)", MaxChannelIDs, len(ids))
	}
	for _, id := range ids {
		if !IsValidChannelID(id) {
			return fmt.Errorf("invalid channel ID format: %s", id)
		}
	}
	return nil
}
