package offline

import (
	"context"
	"fmt"
)

// Activate deletes every bucket whose name is not the current version's
// bucket name and returns the names it removed. Calling it again with the
// same version removes nothing.
func Activate(ctx context.Context, storage Storage, version Version) ([]string, error) {
	current := version.BucketName()

	names, err := storage.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list buckets: %w", ErrActivateFailed, err)
	}

	var deleted []string
	for _, name := range names {
		if name == current {
			continue
		}
		ok, err := storage.Delete(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("%w: delete %s: %w", ErrActivateFailed, name, err)
		}
		if ok {
			deleted = append(deleted, name)
		}
	}
	return deleted, nil
}
