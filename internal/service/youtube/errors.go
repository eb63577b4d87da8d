package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/discovery"
)

var rateLimitReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// classifyError maps an API or transport failure onto the discovery error
// taxonomy. Context errors are returned unchanged.
func classifyError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s: %v", discovery.ErrRateLimited, operation, err)
		case apiErr.Code == http.StatusForbidden && hasRateLimitReason(apiErr):
			return fmt.Errorf("%w: %s: %v", discovery.ErrRateLimited, operation, err)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s rejected credentials: %v", discovery.ErrSourceUnavailable, operation, err)
		case apiErr.Code == http.StatusBadRequest && operation == OpSearchList:
			return fmt.Errorf("%w: %s: %v", discovery.ErrInvalidCriteria, operation, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s: %v", discovery.ErrSourceUnavailable, operation, err)
		}
		return fmt.Errorf("%w: %s: %v", discovery.ErrMalformedResponse, operation, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %s: %v", discovery.ErrMalformedResponse, operation, err)
	}

	return fmt.Errorf("%w: %s: %v", discovery.ErrSourceUnavailable, operation, err)
}

func hasRateLimitReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if rateLimitReasons[item.Reason] {
			return true
		}
	}
	return false
}
