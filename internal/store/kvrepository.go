/**
 * @description
 * KV-backed implementation of the Repository. The two collections are stored
 * as whole JSON documents (the same shape the durable store contract exposes),
 * so every mutation is a read-modify-write of one document.
 *
 * Concurrency model: one mutex serializes every mutator, which makes the
 * debit-credit-append sequence of ExecuteTransfer a single-writer critical
 * section. Reads take the same lock briefly to decode a consistent snapshot
 * and never observe a half-updated account.
 *
 * The two balance mutations of a transfer land in one accounts-document write,
 * so total balance is conserved even if the subsequent ledger append fails; a
 * failed append triggers a compensating restore of the accounts document so
 * the transfer is either fully applied or fully unapplied.
 */

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atlascoins/ledger-service/internal/domain"
)

// KVRepository implements Repository over a durable key-value store.
type KVRepository struct {
	mu            sync.Mutex
	kv            KV
	startingGrant int64
}

// NewKVRepository returns a repository that credits startingGrant to every new
// account. A non-positive grant falls back to the default.
func NewKVRepository(kv KV, startingGrant int64) *KVRepository {
	if startingGrant <= 0 {
		startingGrant = domain.StartingGrantDefault
	}
	return &KVRepository{kv: kv, startingGrant: startingGrant}
}

// loadAccounts decodes the account population. A never-written collection is
// an empty population, not an error.
func (r *KVRepository) loadAccounts(ctx context.Context) ([]domain.Account, []byte, error) {
	doc, err := r.kv.Get(ctx, KeyAccounts)
	if err == ErrKeyNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load accounts: %w", err)
	}
	var accounts []domain.Account
	if err := json.Unmarshal(doc, &accounts); err != nil {
		return nil, nil, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, doc, nil
}

func (r *KVRepository) saveAccounts(ctx context.Context, accounts []domain.Account) error {
	doc, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := r.kv.Put(ctx, KeyAccounts, doc); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func (r *KVRepository) loadTransfers(ctx context.Context) ([]domain.TransferRecord, error) {
	doc, err := r.kv.Get(ctx, KeyTransfers)
	if err == ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load transfers: %w", err)
	}
	var records []domain.TransferRecord
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}
	return records, nil
}

func (r *KVRepository) saveTransfers(ctx context.Context, records []domain.TransferRecord) error {
	doc, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode transfers: %w", err)
	}
	if err := r.kv.Put(ctx, KeyTransfers, doc); err != nil {
		return fmt.Errorf("save transfers: %w", err)
	}
	return nil
}

// FindAccountByEmail resolves a login email to its account, if any.
func (r *KVRepository) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email == email {
			a := accounts[i]
			return &a, nil
		}
	}
	return nil, ErrAccountNotFound
}

// FindAccountByID resolves a 9-digit account number to its account, if any.
func (r *KVRepository) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			a := accounts[i]
			return &a, nil
		}
	}
	return nil, ErrAccountNotFound
}

// CreateAccount persists a fresh provisional account with the starting grant.
// The duplicate-email check happens inside the critical section, so the
// operation is safe even when the caller raced another login.
func (r *KVRepository) CreateAccount(ctx context.Context, email, name, avatarURL string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(accounts))
	for i := range accounts {
		if accounts[i].Email == email {
			return nil, ErrDuplicateEmail
		}
		taken[accounts[i].ID] = struct{}{}
	}

	id, err := newAccountNumber(taken)
	if err != nil {
		return nil, err
	}

	account := domain.Account{
		ID:         id,
		Email:      email,
		Name:       name,
		Avatar:     avatarURL,
		Balance:    r.startingGrant,
		Registered: false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.saveAccounts(ctx, append(accounts, account)); err != nil {
		return nil, err
	}
	return &account, nil
}

// CompleteRegistration flips the provisional account to registered exactly once.
func (r *KVRepository) CompleteRegistration(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID != id {
			continue
		}
		if accounts[i].Registered {
			return nil, ErrAlreadyRegistered
		}
		accounts[i].Name = name
		accounts[i].DateOfBirth = dob
		accounts[i].Avatar = avatar
		accounts[i].Registered = true
		if err := r.saveAccounts(ctx, accounts); err != nil {
			return nil, err
		}
		a := accounts[i]
		return &a, nil
	}
	return nil, ErrAccountNotFound
}

// AdjustBalance atomically adds delta to the stored balance.
func (r *KVRepository) AdjustBalance(ctx context.Context, id string, delta int64) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID != id {
			continue
		}
		accounts[i].Balance += delta
		if err := r.saveAccounts(ctx, accounts); err != nil {
			return nil, err
		}
		a := accounts[i]
		return &a, nil
	}
	return nil, ErrAccountNotFound
}

// ExecuteTransfer debits the sender, credits the recipient and appends one
// ledger record under a single critical section. The sender balance is the
// authoritative stored value re-read here, never a caller-held snapshot.
func (r *KVRepository) ExecuteTransfer(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, previousDoc, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}

	senderIdx, recipientIdx := -1, -1
	for i := range accounts {
		switch accounts[i].ID {
		case senderID:
			senderIdx = i
		case recipientID:
			recipientIdx = i
		}
	}
	if senderIdx < 0 || recipientIdx < 0 {
		return nil, ErrAccountNotFound
	}
	if accounts[senderIdx].Balance < amount {
		return nil, ErrInsufficientBalance
	}

	// Pre-transfer display snapshots, taken before any mutation.
	record := domain.TransferRecord{
		ID:              uuid.New(),
		FromID:          senderID,
		ToID:            recipientID,
		Amount:          amount,
		Timestamp:       time.Now().UTC(),
		SenderName:      accounts[senderIdx].Name,
		SenderAvatar:    accounts[senderIdx].Avatar,
		RecipientName:   accounts[recipientIdx].Name,
		RecipientAvatar: accounts[recipientIdx].Avatar,
	}

	accounts[senderIdx].Balance -= amount
	accounts[recipientIdx].Balance += amount
	if err := r.saveAccounts(ctx, accounts); err != nil {
		return nil, err
	}

	records, err := r.loadTransfers(ctx)
	if err == nil {
		err = r.saveTransfers(ctx, append(records, record))
	}
	if err != nil {
		// Fully unapplied beats partially applied: restore the balances that
		// were already written, then report the failure.
		if previousDoc == nil {
			previousDoc = []byte("[]")
		}
		if restoreErr := r.kv.Put(ctx, KeyAccounts, previousDoc); restoreErr != nil {
			return nil, fmt.Errorf("ledger append failed (%v) and balance restore failed: %w", err, restoreErr)
		}
		return nil, fmt.Errorf("ledger append failed, balances restored: %w", err)
	}

	return &domain.TransferResult{
		Record:    record,
		Sender:    accounts[senderIdx],
		Recipient: accounts[recipientIdx],
	}, nil
}

// ListTransfersFor returns the account's records, most recent first.
func (r *KVRepository) ListTransfersFor(ctx context.Context, accountID string) ([]domain.TransferRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.loadTransfers(ctx)
	if err != nil {
		return nil, err
	}
	var mine []domain.TransferRecord
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].FromID == accountID || records[i].ToID == accountID {
			mine = append(mine, records[i])
		}
	}
	return mine, nil
}

// SumBalances totals every account balance for conservation auditing.
func (r *KVRepository) SumBalances(ctx context.Context) (int64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accounts, _, err := r.loadAccounts(ctx)
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for i := range accounts {
		total += accounts[i].Balance
	}
	return total, len(accounts), nil
}

// RememberSessionEmail persists the last-authenticated email.
func (r *KVRepository) RememberSessionEmail(ctx context.Context, email string) error {
	doc, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.kv.Put(ctx, KeySession, doc); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// CurrentSessionEmail returns the remembered email or ErrNoSession.
func (r *KVRepository) CurrentSessionEmail(ctx context.Context) (string, error) {
	doc, err := r.kv.Get(ctx, KeySession)
	if err == ErrKeyNotFound {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	var email string
	if err := json.Unmarshal(doc, &email); err != nil {
		return "", fmt.Errorf("decode session: %w", err)
	}
	if email == "" {
		return "", ErrNoSession
	}
	return email, nil
}

// ClearSessionEmail forgets the remembered email.
func (r *KVRepository) ClearSessionEmail(ctx context.Context) error {
	if err := r.kv.Delete(ctx, KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
