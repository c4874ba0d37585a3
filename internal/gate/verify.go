package gate

import (
	"context"
	"fmt"
)

// Verify decides whether userID may see admin content. A nil record with a
// nil error means "not an admin", which is a normal outcome. Transport or
// permission failures come back wrapped in ErrLookup so callers can fail
// closed without inspecting the underlying cause.
func Verify(ctx context.Context, directory AdminDirectory, userID string) (*AdminRecord, error) {
	record, err := directory.FindActiveAdminByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookup, err)
	}
	if record != nil && !record.IsActive {
		// Directories should already filter inactive grants; treat a
		// surviving inactive record as not-admin.
		return nil, nil
	}
	return record, nil
}
