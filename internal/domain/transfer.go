package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferRecord is the immutable ledger entry for one completed balance
// movement between two accounts. A single record serves both parties: the
// viewer-facing direction and counterparty fields are derived from it (see
// TransferView). Once appended the record is never mutated or deleted.
//
// Both parties' display info is captured as it was at the moment of transfer,
// so history renders without re-querying a possibly-changed profile.
type TransferRecord struct {
	ID              uuid.UUID `json:"id"`
	FromID          string    `json:"from_id"`
	ToID            string    `json:"to_id"`
	Amount          int64     `json:"amount"`
	Timestamp       time.Time `json:"timestamp"`
	SenderName      string    `json:"sender_name"`
	SenderAvatar    string    `json:"sender_avatar,omitempty"`
	RecipientName   string    `json:"recipient_name"`
	RecipientAvatar string    `json:"recipient_avatar,omitempty"`
}

// Transfer directions as seen by a particular viewer.
const (
	DirectionSend    = "send"
	DirectionReceive = "receive"
)

// TransferView is one ledger record resolved for a specific viewer: the
// direction tells whether the viewer sent or received, and the counterparty
// fields describe the other party.
type TransferView struct {
	ID                 uuid.UUID `json:"id"`
	Direction          string    `json:"direction"`
	Amount             int64     `json:"amount"`
	Timestamp          time.Time `json:"timestamp"`
	CounterpartyID     string    `json:"counterparty_id"`
	CounterpartyName   string    `json:"counterparty_name"`
	CounterpartyAvatar string    `json:"counterparty_avatar,omitempty"`
}

// ViewFor resolves the record for the given viewer account id. The viewer must
// be one of the two parties; callers are expected to have filtered on that.
func (r *TransferRecord) ViewFor(viewerID string) TransferView {
	v := TransferView{
		ID:        r.ID,
		Amount:    r.Amount,
		Timestamp: r.Timestamp,
	}
	if r.FromID == viewerID {
		v.Direction = DirectionSend
		v.CounterpartyID = r.ToID
		v.CounterpartyName = r.RecipientName
		v.CounterpartyAvatar = r.RecipientAvatar
	} else {
		v.Direction = DirectionReceive
		v.CounterpartyID = r.FromID
		v.CounterpartyName = r.SenderName
		v.CounterpartyAvatar = r.SenderAvatar
	}
	return v
}

// TransferResult carries the appended record together with the updated party
// accounts, so callers never need to re-read state after a transfer.
type TransferResult struct {
	Record    TransferRecord `json:"record"`
	Sender    Account        `json:"sender"`
	Recipient Account        `json:"recipient"`
}
