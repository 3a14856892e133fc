// Package store holds the client-visible state of the marketplace session:
// one sub-store per domain (user, profile, products, saves, notifications,
// chat), all owned by an explicit State container. Stores gate redundant
// fetches behind per-collection freshness windows, apply optimistic updates
// with compensating rollback, and expose typed getters that never block.
//
// This file centralizes common store-level error values so that they can be
// consistently returned by store methods and checked by callers.
package store

import "errors"

var (
	// ErrNoUser is returned when a mutating operation requires an
	// authenticated actor and none is present. Callers treat this as a
	// silent no-op, not a failure to surface.
	ErrNoUser = errors.New("no authenticated user")

	// ErrInFlight is returned when an operation is rejected because another
	// operation on the same key is still outstanding.
	ErrInFlight = errors.New("operation already in flight")

	// ErrEmptyBody is returned when a message send carries an empty body.
	ErrEmptyBody = errors.New("message body is empty")

	// ErrTooLong is returned when a message body exceeds the configured
	// rune limit.
	ErrTooLong = errors.New("message body too long")

	// ErrThreadNotFound indicates the referenced conversation is not present
	// in the store or not accessible to the current user.
	ErrThreadNotFound = errors.New("conversation not found")
)
