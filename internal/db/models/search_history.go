package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ad-tracker/youtube-opportunity-finder/internal/model"
)

// SearchHistory records one executed search.
type SearchHistory struct {
	ID           uuid.UUID            `db:"id" json:"id"`
	Query        string               `db:"query" json:"query"`
	Criteria     model.SearchCriteria `db:"criteria" json:"criteria"`
	CriteriaHash string               `db:"criteria_hash" json:"criteria_hash"`
	ResultCount  int                  `db:"result_count" json:"result_count"`
	ErrorCount   int                  `db:"error_count" json:"error_count"`
	SearchedAt   time.Time            `db:"searched_at" json:"searched_at"`
}

// NewSearchHistory creates a history entry for a finished search run.
func NewSearchHistory(runID uuid.UUID, criteria model.SearchCriteria, resultCount, errorCount int, searchedAt time.Time) *SearchHistory {
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &SearchHistory{
		ID:           runID,
		Query:        criteria.Query,
		Criteria:     criteria,
		CriteriaHash: CriteriaHash(criteria),
		ResultCount:  resultCount,
		ErrorCount:   errorCount,
		SearchedAt:   searchedAt,
	}
}

// CriteriaHash is the hex SHA-256 of the JSON-encoded criteria. Searches
// with identical criteria share a hash.
func CriteriaHash(criteria model.SearchCriteria) string {
	// Marshalling a struct of plain fields cannot fail.
	data, _ := json.Marshal(criteria)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
