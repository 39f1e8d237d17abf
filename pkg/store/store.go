package store

import "fmt"

// StoreError wraps network, auth, and index failures from a vector index.
// There is no local buffering or retry; the failure is visible to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
