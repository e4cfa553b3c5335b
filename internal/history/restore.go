package history

import (
	"context"
	"fmt"

	"fetchd/internal/jobs"
)

// Restore loads up to limit recent records into reg's finished collection.
// It must run before reg is handed to the control goroutine.
func Restore(ctx context.Context, store *Store, reg *jobs.Registry, limit int) (int, error) {
	if store == nil || reg == nil {
		return 0, nil
	}
	records, err := store.Recent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("restore finished records: %w", err)
	}
	return reg.RestoreFinished(records), nil
}
