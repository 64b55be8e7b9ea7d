/**
 * @description
 * This file contains the core business logic for the ledger-service. The
 * `Service` struct orchestrates every account and transfer operation,
 * coordinating between the ledger repository and the message broker.
 *
 * Key features:
 * - Login resolves a verified identity to an account, creating a provisional
 *   one (with the starting grant) on first sign-in.
 * - ExecuteTransfer is the only balance-changing path: it validates, then
 *   hands the debit-credit-append sequence to the repository's critical
 *   section so state is either fully applied or fully unapplied.
 * - Publishes transfer.completed events to RabbitMQ for other consumers; a
 *   publish failure never fails a committed transfer.
 *
 * @dependencies
 * - internal/domain, internal/store: domain models and data access.
 * - pkg/rabbitmq: event publishing.
 * - github.com/go-playground/validator/v10: profile payload validation.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/atlascoins/ledger-service/internal/domain"
	"github.com/atlascoins/ledger-service/internal/store"
	"github.com/atlascoins/ledger-service/pkg/rabbitmq"
)

var (
	// ErrInvalidAmount is returned when a transfer amount does not parse to a
	// finite positive whole number of ATC.
	ErrInvalidAmount = errors.New("invalid transfer amount")

	// ErrSelfTransfer is returned when sender and recipient are the same account.
	ErrSelfTransfer = errors.New("cannot send to yourself")

	// ErrRecipientNotFound is returned when the recipient account number does
	// not resolve to an account.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrInvalidProfile is returned when profile completion input fails validation.
	ErrInvalidProfile = errors.New("invalid profile input")

	// ErrTransferRateLimited is returned when a sender exceeds the configured
	// transfer rate limit.
	ErrTransferRateLimited = errors.New("too many transfers, slow down")
)

// amountCeiling bounds parsed amounts to values exactly representable in a
// float64, so the decimal parse can never silently round.
const amountCeiling = int64(1) << 53

// RateLimiter limits how often a subject may perform an action within a window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic of the ledger.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	validate      *validator.Validate
	startingGrant int64

	limiter            RateLimiter
	transfersPerMinute int
}

// NewService creates a new ledger service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, startingGrant int64) *Service {
	if startingGrant <= 0 {
		startingGrant = domain.StartingGrantDefault
	}
	return &Service{
		repo:          repo,
		eventProducer: producer,
		validate:      validator.New(),
		startingGrant: startingGrant,
	}
}

// SetTransferRateLimiter enables per-sender transfer rate limiting.
func (s *Service) SetTransferRateLimiter(limiter RateLimiter, transfersPerMinute int) {
	s.limiter = limiter
	s.transfersPerMinute = transfersPerMinute
}

// Login resolves a verified identity to its account, creating a provisional
// account with the starting grant on first sign-in, and remembers the email as
// the current session.
func (s *Service) Login(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	account, err := s.repo.FindAccountByEmail(ctx, identity.Email)
	if errors.Is(err, store.ErrAccountNotFound) {
		account, err = s.repo.CreateAccount(ctx, identity.Email, identity.Name, identity.AvatarURL)
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Lost a creation race against a concurrent login for the same
			// identity; the winner's account is the account.
			account, err = s.repo.FindAccountByEmail(ctx, identity.Email)
		}
		if err == nil {
			log.Printf("level=info component=app msg=\"account created\" account_id=%s grant=%d", account.ID, s.startingGrant)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve login account: %w", err)
	}

	if err := s.repo.RememberSessionEmail(ctx, identity.Email); err != nil {
		log.Printf("level=warn component=app msg=\"session pointer write failed\" err=%v", err)
	}
	return account, nil
}

// CurrentSession resolves the remembered session pointer to its account.
func (s *Service) CurrentSession(ctx context.Context) (*domain.Account, error) {
	email, err := s.repo.CurrentSessionEmail(ctx)
	if err != nil {
		return nil, err
	}
	account, err := s.repo.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, store.ErrNoSession
	}
	return account, err
}

// Logout clears the session pointer.
func (s *Service) Logout(ctx context.Context) error {
	return s.repo.ClearSessionEmail(ctx)
}

// AccountForIdentity resolves a verified identity to its existing account.
func (s *Service) AccountForIdentity(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	return s.repo.FindAccountByEmail(ctx, identity.Email)
}

// ProfileInput is the payload for completing profile setup.
type ProfileInput struct {
	Name   string             `json:"name" validate:"required,min=1,max=120"`
	DOB    domain.DateOfBirth `json:"dob"`
	Avatar string             `json:"avatar,omitempty"`
}

// CompleteProfile finalizes a provisional account. When no avatar payload is
// supplied a deterministic placeholder tile is synthesized so the avatar is
// never left broken for display.
func (s *Service) CompleteProfile(ctx context.Context, accountID string, input ProfileInput) (*domain.Account, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if !input.DOB.InRange(time.Now()) {
		return nil, fmt.Errorf("%w: date of birth fields out of range", ErrInvalidProfile)
	}

	avatar := input.Avatar
	if strings.TrimSpace(avatar) == "" {
		avatar = PlaceholderAvatar(input.Name, accountID)
	}

	account, err := s.repo.CompleteRegistration(ctx, accountID, input.Name, input.DOB, avatar)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=app msg=\"profile completed\" account_id=%s", account.ID)
	return account, nil
}

// LookupCounterparty returns the counterparty-visible profile for an account
// number, used by the send flow's recipient search.
func (s *Service) LookupCounterparty(ctx context.Context, accountID string) (*domain.PublicProfile, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	profile := account.Public()
	return &profile, nil
}

// ExecuteTransfer moves amount ATC from sender to recipient.
//
// Validation order follows the send flow: amount parse, self-transfer check,
// recipient resolution, then the authoritative balance check inside the
// repository's critical section. Validation failures mutate nothing.
func (s *Service) ExecuteTransfer(ctx context.Context, senderID, recipientID, rawAmount string) (*domain.TransferResult, error) {
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == senderID {
		return nil, ErrSelfTransfer
	}
	if _, err := s.repo.FindAccountByID(ctx, recipientID); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}

	if s.limiter != nil && s.transfersPerMinute > 0 {
		count, _, limitErr := s.limiter.ConsumeRateLimit(ctx, "transfer", senderID, s.transfersPerMinute, time.Minute)
		if limitErr != nil {
			// A broken limiter backend must not block transfers.
			log.Printf("level=warn component=app msg=\"rate limiter unavailable\" err=%v", limitErr)
		} else if count > s.transfersPerMinute {
			return nil, ErrTransferRateLimited
		}
	}

	result, err := s.repo.ExecuteTransfer(ctx, senderID, recipientID, amount)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=app msg=\"transfer completed\" record_id=%s from=%s to=%s amount=%d",
		result.Record.ID, senderID, recipientID, amount)

	if s.eventProducer != nil {
		event := rabbitmq.TransferCompletedEvent{
			RecordID:  result.Record.ID,
			FromID:    result.Record.FromID,
			ToID:      result.Record.ToID,
			Amount:    result.Record.Amount,
			Timestamp: result.Record.Timestamp,
		}
		if err := s.eventProducer.PublishTransferCompleted(ctx, event); err != nil {
			log.Printf("level=warn component=app msg=\"transfer event publish failed\" record_id=%s err=%v", result.Record.ID, err)
		}
	}
	return result, nil
}

// History returns the account's transfer records resolved for display,
// most recent first.
func (s *Service) History(ctx context.Context, accountID string) ([]domain.TransferView, error) {
	records, err := s.repo.ListTransfersFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.TransferView, 0, len(records))
	for i := range records {
		views = append(views, records[i].ViewFor(accountID))
	}
	return views, nil
}

// VerifyConservation checks the ledger's one true invariant: transfers never
// change the total balance, so the sum over all accounts must equal the number
// of accounts times the starting grant.
func (s *Service) VerifyConservation(ctx context.Context) error {
	total, count, err := s.repo.SumBalances(ctx)
	if err != nil {
		return fmt.Errorf("conservation audit read failed: %w", err)
	}
	expected := int64(count) * s.startingGrant
	if total != expected {
		log.Printf("level=error component=audit msg=\"balance conservation violated\" total=%d expected=%d accounts=%d", total, expected, count)
		return fmt.Errorf("conservation violated: total %d, expected %d over %d accounts", total, expected, count)
	}
	log.Printf("level=info component=audit msg=\"balance conservation holds\" total=%d accounts=%d", total, count)
	return nil
}

// parseAmount interprets the user-supplied amount string. It must parse to a
// finite positive number; fractional ATC is rejected because balances are kept
// in whole units.
func parseAmount(raw string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	if f <= 0 {
		return 0, ErrInvalidAmount
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: fractional ATC amounts are not supported", ErrInvalidAmount)
	}
	if f >= float64(amountCeiling) {
		return 0, ErrInvalidAmount
	}
	return int64(f), nil
}
