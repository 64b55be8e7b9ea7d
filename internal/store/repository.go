/**
 * @description
 * This file defines the `Repository` interface, the contract for all account
 * and ledger state access in the ledger-service. The interface decouples the
 * business logic from the durable store, making the service easy to test with
 * in-memory stubs.
 *
 * The repository owns the only two shared mutable resources in the system: the
 * account population and the transfer log. Every balance mutation goes through
 * it; no other component writes either collection directly.
 */

package store

import (
	"context"

	"github.com/atlascoins/ledger-service/internal/domain"
)

// Repository defines the set of methods for interacting with durable ledger state.
type Repository interface {
	// Account lookups. Pure reads over a consistent snapshot.
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id string) (*domain.Account, error)

	// CreateAccount allocates a fresh 9-digit account number, credits the
	// starting grant, persists the provisional account and returns it.
	// Fails with ErrDuplicateEmail if an account for the email already exists.
	CreateAccount(ctx context.Context, email, name, avatarURL string) (*domain.Account, error)

	// CompleteRegistration finalizes profile setup exactly once.
	// Fails with ErrAccountNotFound or ErrAlreadyRegistered.
	CompleteRegistration(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error)

	// AdjustBalance atomically adds delta (which may be negative) to the stored
	// balance. This and ExecuteTransfer are the only balance mutation paths.
	AdjustBalance(ctx context.Context, id string, delta int64) (*domain.Account, error)

	// ExecuteTransfer runs the debit-credit-append sequence as a single
	// critical-section unit: it re-reads the authoritative sender balance,
	// debits, credits, and appends one immutable TransferRecord capturing the
	// pre-transfer display snapshots of both parties.
	// Fails with ErrAccountNotFound or ErrInsufficientBalance.
	ExecuteTransfer(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error)

	// ListTransfersFor returns every record where the account is sender or
	// recipient, most recent first.
	ListTransfersFor(ctx context.Context, accountID string) ([]domain.TransferRecord, error)

	// SumBalances returns the total balance across all accounts and the number
	// of accounts, for conservation auditing.
	SumBalances(ctx context.Context) (total int64, accounts int, err error)

	// Session pointer: the last-authenticated email persisted outside the
	// account entity, for continuity across restarts.
	RememberSessionEmail(ctx context.Context, email string) error
	CurrentSessionEmail(ctx context.Context) (string, error)
	ClearSessionEmail(ctx context.Context) error
}
