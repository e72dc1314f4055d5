package model

import (
	"time"
)

const (
	TxTypePurchase      = "purchase"
	TxTypeEarned        = "earned"
	TxTypeEscrowHold    = "escrow_hold"
	TxTypeEscrowRelease = "escrow_release"
	TxTypeEscrowRefund  = "escrow_refund"
)

// IsCreditType reports whether a transaction kind adds to the owner's balance.
func IsCreditType(txType string) bool {
	switch txType {
	case TxTypePurchase, TxTypeEarned, TxTypeEscrowRelease, TxTypeEscrowRefund:
		return true
	}
	return false
}

// Transaction is an append-only ledger row. Amount is signed: escrow holds are
// negative, everything else positive. Rows are never updated or deleted.
type Transaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Amount        int64     `gorm:"not null" json:"amount"`
	TxType        string    `gorm:"column:tx_type;type:varchar(20);not null" json:"tx_type"`
	Description   string    `gorm:"type:varchar(256)" json:"description"`
	Reference     string    `gorm:"type:varchar(64);index" json:"reference"` // payment id or session id
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
