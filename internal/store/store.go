// Package store persists completed reports as one JSON array under a
// well-known key, either in a local file or in Redis.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

// Key names the persisted collection
const Key = "depguardian_reports"

// Store is an ordered collection of reports
type Store interface {
	// List returns every report in insertion order.
	List(ctx context.Context) ([]models.StoredReport, error)

	// Append adds a report, assigning an id and creation time when they are unset.
	Append(ctx context.Context, r models.StoredReport) (models.StoredReport, error)

	// Remove deletes the report with the given id. Unknown ids are not an error.
	Remove(ctx context.Context, id string) error
}

// Find returns the report with the given id
func Find(ctx context.Context, s Store, id string) (models.StoredReport, error) {
	reports, err := s.List(ctx)
	if err != nil {
		return models.StoredReport{}, err
	}
	i := slices.IndexFunc(reports, func(r models.StoredReport) bool { return r.ID == id })
	if i < 0 {
		return models.StoredReport{}, errs.NotFound("store.Find", fmt.Errorf("%s: %w", id, errs.ErrReportNotFound))
	}
	return reports[i], nil
}

// prepare fills in the id and creation time without overwriting supplied values
func prepare(r models.StoredReport, now func() time.Time) models.StoredReport {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now()
	}
	return r
}

func without(reports []models.StoredReport, id string) ([]models.StoredReport, bool) {
	out := slices.DeleteFunc(slices.Clone(reports), func(r models.StoredReport) bool { return r.ID == id })
	return out, len(out) != len(reports)
}

func decode(data []byte) ([]models.StoredReport, error) {
	if len(data) == 0 {
		return []models.StoredReport{}, nil
	}
	var reports []models.StoredReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", Key, err)
	}
	if reports == nil {
		reports = []models.StoredReport{}
	}
	return reports, nil
}

func encode(reports []models.StoredReport) ([]byte, error) {
	if reports == nil {
		reports = []models.StoredReport{}
	}
	data, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", Key, err)
	}
	return data, nil
}
