package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestViewForResolvesBothParties(t *testing.T) {
	record := TransferRecord{
		ID:              uuid.New(),
		FromID:          "111111111",
		ToID:            "222222222",
		Amount:          300,
		Timestamp:       time.Now().UTC(),
		SenderName:      "Ada",
		SenderAvatar:    "data:ada",
		RecipientName:   "Grace",
		RecipientAvatar: "data:grace",
	}

	sent := record.ViewFor("111111111")
	if sent.Direction != DirectionSend {
		t.Errorf("sender view direction = %q, want %q", sent.Direction, DirectionSend)
	}
	if sent.CounterpartyID != "222222222" || sent.CounterpartyName != "Grace" || sent.CounterpartyAvatar != "data:grace" {
		t.Errorf("sender view counterparty wrong: %+v", sent)
	}

	received := record.ViewFor("222222222")
	if received.Direction != DirectionReceive {
		t.Errorf("recipient view direction = %q, want %q", received.Direction, DirectionReceive)
	}
	if received.CounterpartyID != "111111111" || received.CounterpartyName != "Ada" || received.CounterpartyAvatar != "data:ada" {
		t.Errorf("recipient view counterparty wrong: %+v", received)
	}

	if sent.ID != record.ID || received.ID != record.ID {
		t.Error("both views must reference the same ledger record")
	}
	if sent.Amount != 300 || received.Amount != 300 {
		t.Error("amount must be identical in both views")
	}
}
