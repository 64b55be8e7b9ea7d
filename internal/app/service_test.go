package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atlascoins/ledger-service/internal/domain"
	"github.com/atlascoins/ledger-service/internal/store"
	"github.com/atlascoins/ledger-service/pkg/rabbitmq"
)

// repoStub embeds the Repository interface so each test only overrides the
// methods it exercises.
type repoStub struct {
	store.Repository

	findByEmail      func(ctx context.Context, email string) (*domain.Account, error)
	findByID         func(ctx context.Context, id string) (*domain.Account, error)
	create           func(ctx context.Context, email, name, avatarURL string) (*domain.Account, error)
	completeReg      func(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error)
	executeTransfer  func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error)
	listTransfersFor func(ctx context.Context, accountID string) ([]domain.TransferRecord, error)
	sumBalances      func(ctx context.Context) (int64, int, error)
	rememberSession  func(ctx context.Context, email string) error
}

func (s *repoStub) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findByEmail(ctx, email)
}

func (s *repoStub) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	return s.findByID(ctx, id)
}

func (s *repoStub) CreateAccount(ctx context.Context, email, name, avatarURL string) (*domain.Account, error) {
	return s.create(ctx, email, name, avatarURL)
}

func (s *repoStub) CompleteRegistration(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error) {
	return s.completeReg(ctx, id, name, dob, avatar)
}

func (s *repoStub) ExecuteTransfer(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
	return s.executeTransfer(ctx, senderID, recipientID, amount)
}

func (s *repoStub) ListTransfersFor(ctx context.Context, accountID string) ([]domain.TransferRecord, error) {
	return s.listTransfersFor(ctx, accountID)
}

func (s *repoStub) SumBalances(ctx context.Context) (int64, int, error) {
	return s.sumBalances(ctx)
}

func (s *repoStub) RememberSessionEmail(ctx context.Context, email string) error {
	if s.rememberSession != nil {
		return s.rememberSession(ctx, email)
	}
	return nil
}

// publisherStub records published events.
type publisherStub struct {
	events []rabbitmq.TransferCompletedEvent
	err    error
}

func (p *publisherStub) PublishTransferCompleted(ctx context.Context, event rabbitmq.TransferCompletedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *publisherStub) Close() {}

// limiterStub returns a fixed count.
type limiterStub struct {
	count int
	err   error
	calls int
}

func (l *limiterStub) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	l.calls++
	return l.count, 30, l.err
}

func account(id string, balance int64) *domain.Account {
	return &domain.Account{ID: id, Email: id + "@example.com", Name: "Holder " + id, Balance: balance}
}

func TestParseAmount(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    int64
		wantErr bool
	}{
		{"whole number", "300", 300, false},
		{"whitespace", "  42 ", 42, false},
		{"decimal point but whole", "300.0", 300, false},
		{"fractional", "0.5", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-5", 0, true},
		{"empty", "", 0, true},
		{"not a number", "lots", 0, true},
		{"nan literal", "NaN", 0, true},
		{"infinity", "Inf", 0, true},
		{"beyond float precision", "9007199254740993", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAmount(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("parseAmount(%q) err = %v, want ErrInvalidAmount", tc.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmount(%q) unexpected error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("parseAmount(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestExecuteTransferValidation(t *testing.T) {
	executed := false
	repo := &repoStub{
		findByID: func(ctx context.Context, id string) (*domain.Account, error) {
			if id == "222222222" {
				return account(id, 1000), nil
			}
			return nil, store.ErrAccountNotFound
		},
		executeTransfer: func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
			executed = true
			return &domain.TransferResult{}, nil
		},
	}
	service := NewService(repo, nil, 1000)
	ctx := context.Background()

	testCases := []struct {
		name      string
		recipient string
		amount    string
		wantErr   error
	}{
		{"invalid amount", "222222222", "abc", ErrInvalidAmount},
		{"fractional amount", "222222222", "1.5", ErrInvalidAmount},
		{"self transfer", "111111111", "10", ErrSelfTransfer},
		{"unknown recipient", "333333333", "10", ErrRecipientNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			executed = false
			_, err := service.ExecuteTransfer(ctx, "111111111", tc.recipient, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if executed {
				t.Error("validation failure must not reach the repository")
			}
		})
	}
}

func TestExecuteTransferPublishesEvent(t *testing.T) {
	recordID := uuid.New()
	repo := &repoStub{
		findByID: func(ctx context.Context, id string) (*domain.Account, error) {
			return account(id, 1000), nil
		},
		executeTransfer: func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
			return &domain.TransferResult{
				Record: domain.TransferRecord{ID: recordID, FromID: senderID, ToID: recipientID, Amount: amount},
			}, nil
		},
	}
	producer := &publisherStub{}
	service := NewService(repo, producer, 1000)

	result, err := service.ExecuteTransfer(context.Background(), "111111111", "222222222", "300")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Record.Amount != 300 {
		t.Errorf("amount = %d, want 300", result.Record.Amount)
	}
	if len(producer.events) != 1 {
		t.Fatalf("published %d events, want 1", len(producer.events))
	}
	if producer.events[0].RecordID != recordID || producer.events[0].Amount != 300 {
		t.Errorf("event payload wrong: %+v", producer.events[0])
	}
}

func TestExecuteTransferSurvivesPublishFailure(t *testing.T) {
	repo := &repoStub{
		findByID: func(ctx context.Context, id string) (*domain.Account, error) {
			return account(id, 1000), nil
		},
		executeTransfer: func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
			return &domain.TransferResult{Record: domain.TransferRecord{ID: uuid.New()}}, nil
		},
	}
	producer := &publisherStub{err: errors.New("broker down")}
	service := NewService(repo, producer, 1000)

	if _, err := service.ExecuteTransfer(context.Background(), "111111111", "222222222", "10"); err != nil {
		t.Fatalf("committed transfer must not fail on publish error, got %v", err)
	}
}

func TestExecuteTransferRateLimited(t *testing.T) {
	executed := false
	repo := &repoStub{
		findByID: func(ctx context.Context, id string) (*domain.Account, error) {
			return account(id, 1000), nil
		},
		executeTransfer: func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
			executed = true
			return &domain.TransferResult{}, nil
		},
	}
	service := NewService(repo, nil, 1000)
	limiter := &limiterStub{count: 6}
	service.SetTransferRateLimiter(limiter, 5)

	_, err := service.ExecuteTransfer(context.Background(), "111111111", "222222222", "10")
	if !errors.Is(err, ErrTransferRateLimited) {
		t.Fatalf("got %v, want ErrTransferRateLimited", err)
	}
	if executed {
		t.Error("rate limited transfer must not reach the repository")
	}
	if limiter.calls != 1 {
		t.Errorf("limiter called %d times, want 1", limiter.calls)
	}
}

func TestExecuteTransferLimiterOutageDoesNotBlock(t *testing.T) {
	repo := &repoStub{
		findByID: func(ctx context.Context, id string) (*domain.Account, error) {
			return account(id, 1000), nil
		},
		executeTransfer: func(ctx context.Context, senderID, recipientID string, amount int64) (*domain.TransferResult, error) {
			return &domain.TransferResult{}, nil
		},
	}
	service := NewService(repo, nil, 1000)
	service.SetTransferRateLimiter(&limiterStub{err: errors.New("redis down")}, 5)

	if _, err := service.ExecuteTransfer(context.Background(), "111111111", "222222222", "10"); err != nil {
		t.Fatalf("limiter outage must not block transfers, got %v", err)
	}
}

func TestLoginCreatesAccountOnFirstSignIn(t *testing.T) {
	known := false
	var remembered string
	repo := &repoStub{
		findByEmail: func(ctx context.Context, email string) (*domain.Account, error) {
			if known {
				return account("111111111", 1000), nil
			}
			return nil, store.ErrAccountNotFound
		},
		create: func(ctx context.Context, email, name, avatarURL string) (*domain.Account, error) {
			known = true
			return &domain.Account{ID: "111111111", Email: email, Name: name, Avatar: avatarURL, Balance: 1000}, nil
		},
		rememberSession: func(ctx context.Context, email string) error {
			remembered = email
			return nil
		},
	}
	service := NewService(repo, nil, 1000)

	acct, err := service.Login(context.Background(), domain.Identity{Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Balance != 1000 {
		t.Errorf("balance = %d, want the starting grant", acct.Balance)
	}
	if remembered != "ada@example.com" {
		t.Errorf("session pointer = %q, want ada@example.com", remembered)
	}
}

func TestLoginRecoversFromCreationRace(t *testing.T) {
	lookups := 0
	repo := &repoStub{
		findByEmail: func(ctx context.Context, email string) (*domain.Account, error) {
			lookups++
			if lookups == 1 {
				return nil, store.ErrAccountNotFound
			}
			return account("111111111", 1000), nil
		},
		create: func(ctx context.Context, email, name, avatarURL string) (*domain.Account, error) {
			return nil, store.ErrDuplicateEmail
		},
	}
	service := NewService(repo, nil, 1000)

	acct, err := service.Login(context.Background(), domain.Identity{Email: "ada@example.com", Name: "Ada"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.ID != "111111111" {
		t.Errorf("got account %s, want the race winner's account", acct.ID)
	}
}

func TestCompleteProfileValidation(t *testing.T) {
	repo := &repoStub{
		completeReg: func(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error) {
			return account(id, 1000), nil
		},
	}
	service := NewService(repo, nil, 1000)
	ctx := context.Background()
	goodDOB := domain.DateOfBirth{Day: "10", Month: "12", Year: "1990"}

	testCases := []struct {
		name  string
		input ProfileInput
	}{
		{"empty name", ProfileInput{Name: "   ", DOB: goodDOB}},
		{"day out of range", ProfileInput{Name: "Ada", DOB: domain.DateOfBirth{Day: "32", Month: "12", Year: "1990"}}},
		{"future year", ProfileInput{Name: "Ada", DOB: domain.DateOfBirth{Day: "1", Month: "1", Year: "2999"}}},
		{"non numeric month", ProfileInput{Name: "Ada", DOB: domain.DateOfBirth{Day: "1", Month: "May", Year: "1990"}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.CompleteProfile(ctx, "111111111", tc.input); !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("got %v, want ErrInvalidProfile", err)
			}
		})
	}
}

func TestCompleteProfileSynthesizesPlaceholderAvatar(t *testing.T) {
	var storedAvatar string
	repo := &repoStub{
		completeReg: func(ctx context.Context, id, name string, dob domain.DateOfBirth, avatar string) (*domain.Account, error) {
			storedAvatar = avatar
			return account(id, 1000), nil
		},
	}
	service := NewService(repo, nil, 1000)
	input := ProfileInput{Name: "Ada", DOB: domain.DateOfBirth{Day: "10", Month: "12", Year: "1990"}}

	if _, err := service.CompleteProfile(context.Background(), "111111111", input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(storedAvatar, "data:image/svg+xml;base64,") {
		t.Errorf("expected a synthesized data URL avatar, got %q", storedAvatar)
	}

	// A supplied avatar wins over the placeholder.
	input.Avatar = "data:custom"
	if _, err := service.CompleteProfile(context.Background(), "111111111", input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storedAvatar != "data:custom" {
		t.Errorf("supplied avatar ignored, got %q", storedAvatar)
	}
}

func TestHistoryResolvesViewerDirection(t *testing.T) {
	repo := &repoStub{
		listTransfersFor: func(ctx context.Context, accountID string) ([]domain.TransferRecord, error) {
			return []domain.TransferRecord{
				{ID: uuid.New(), FromID: "111111111", ToID: "222222222", Amount: 25, RecipientName: "Grace"},
				{ID: uuid.New(), FromID: "222222222", ToID: "111111111", Amount: 100, SenderName: "Grace"},
			}, nil
		},
	}
	service := NewService(repo, nil, 1000)

	views, err := service.History(context.Background(), "111111111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}
	if views[0].Direction != domain.DirectionSend || views[0].CounterpartyName != "Grace" {
		t.Errorf("first view wrong: %+v", views[0])
	}
	if views[1].Direction != domain.DirectionReceive || views[1].CounterpartyName != "Grace" {
		t.Errorf("second view wrong: %+v", views[1])
	}
}

func TestVerifyConservation(t *testing.T) {
	total := int64(3000)
	repo := &repoStub{
		sumBalances: func(ctx context.Context) (int64, int, error) {
			return total, 3, nil
		},
	}
	service := NewService(repo, nil, 1000)
	ctx := context.Background()

	if err := service.VerifyConservation(ctx); err != nil {
		t.Fatalf("balanced ledger reported as violated: %v", err)
	}

	total = 2999
	if err := service.VerifyConservation(ctx); err == nil {
		t.Fatal("leaked coin not detected")
	}
}
