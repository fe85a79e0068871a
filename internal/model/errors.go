package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by the places provider when a query has no match.
var ErrNotFound = errors.New("no results found")

// ProviderError is an upstream failure: bad credentials, quota, transport or
// an unexpected status. It ends the current flow.
type ProviderError struct {
	Op     string
	Status string
	Err    error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil && e.Status != "":
		return fmt.Sprintf("%s: provider status %s: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: provider status %s", e.Op, e.Status)
	}
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// PersistenceError is a repository failure scoped to a single mutating action.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
