package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrEntryExists    = errors.New("entry already exists")
	ErrRemoteNotFound = errors.New("remote entry not found")
)

// MetadataError reports an entry whose frontmatter is missing or does not
// satisfy the schema. The entry is skipped, never silently repaired.
type MetadataError struct {
	Path string
	Err  error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("malformed metadata in %s: %v", e.Path, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// RemoteError reports a failed remote operation for a single entry.
type RemoteError struct {
	Op         string
	Identifier string
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed for %s: %v", e.Op, e.Identifier, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// WriteBackError reports a local write that failed after the remote side
// already accepted the change. The remote holds newer state than the file.
type WriteBackError struct {
	Identifier string
	Err        error
}

func (e *WriteBackError) Error() string {
	return fmt.Sprintf("write-back failed for %s: %v", e.Identifier, e.Err)
}

func (e *WriteBackError) Unwrap() error { return e.Err }
