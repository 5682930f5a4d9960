// Package store holds the goal record stores. Each store keeps one record
// per goal, keyed by goal id and scoped to an owner, and replaces that
// record whole on every Put.
package store

import "errors"

// ErrNotFound is returned when no record exists for the requested id
// within the store's owner scope.
var ErrNotFound = errors.New("goal record not found")
