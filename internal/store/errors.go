/**
 * @description
 * This file centralizes the sentinel errors of the storage layer. Handlers and
 * the application service match on them with errors.Is to produce
 * cause-specific responses. Any storage error that is not one of these
 * sentinels is an I/O level failure wrapping the underlying cause.
 */

package store

import "errors"

var (
	// ErrKeyNotFound is returned by a KV when the requested document does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAccountNotFound is returned when an account id or email resolves to nothing.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateEmail guards account creation: at most one account per email.
	ErrDuplicateEmail = errors.New("an account already exists for this email")

	// ErrAlreadyRegistered is returned when profile completion is attempted twice.
	ErrAlreadyRegistered = errors.New("account is already registered")

	// ErrIdentifierExhausted is returned when the account number space is
	// saturated and a fresh id could not be drawn within the retry cap.
	ErrIdentifierExhausted = errors.New("account identifier space exhausted")

	// ErrInsufficientBalance is returned when a debit would exceed the sender's
	// authoritative stored balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoSession is returned when no last-authenticated email is remembered.
	ErrNoSession = errors.New("no active session")
)
