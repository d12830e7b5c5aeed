// ABOUTME: Data migration between lift storage backends.
// ABOUTME: Copies exercises, programs, days, and items from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/lift/internal/gateway"
)

// MigrateSummary holds counts of migrated records.
type MigrateSummary struct {
	Exercises int
	Programs  int
	Days      int
	Items     int
}

// Total is the number of records copied.
func (s MigrateSummary) Total() int {
	return s.Exercises + s.Programs + s.Days + s.Items
}

// MigrateData copies every record from src to dst, parents before children,
// so destinations with foreign keys accept each insert. The destination
// should be empty before calling this function.
func MigrateData(ctx context.Context, src, dst gateway.Gateway) (*MigrateSummary, error) {
	summary := &MigrateSummary{}
	counters := map[gateway.Collection]*int{
		gateway.Exercises: &summary.Exercises,
		gateway.Programs:  &summary.Programs,
		gateway.Days:      &summary.Days,
		gateway.DayItems:  &summary.Items,
	}

	for _, c := range gateway.Collections {
		recs, err := src.Read(ctx, c, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("list source %s: %w", c, err)
		}
		for _, r := range recs {
			if _, err := dst.Create(ctx, c, stripNulls(r)); err != nil {
				return nil, fmt.Errorf("create %s %s: %w", c, r.ID(), err)
			}
			*counters[c]++
		}
	}
	return summary, nil
}

// stripNulls drops nil fields so KV destinations store compact records.
func stripNulls(r gateway.Record) gateway.Record {
	out := make(gateway.Record, len(r))
	for k, v := range r {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
