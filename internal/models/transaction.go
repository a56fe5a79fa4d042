package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TransactionTypeEarn       TransactionType = "EARN"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeReferral   TransactionType = "REFERRAL"
)

// TransactionStatus is the lifecycle state of a ledger entry.
// Withdrawals move PENDING -> PAID | REJECTED; credits are created PAID.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED" // Reserved, never assigned by the ledger
	TransactionStatusPaid     TransactionStatus = "PAID"
	TransactionStatusRejected TransactionStatus = "REJECTED"
)

// Transaction is an append-only ledger entry. Only Status changes after creation.
type Transaction struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	Amount         int               `json:"amount"` // Signed: positive credit, negative debit
	Type           TransactionType   `json:"type"`
	Method         string            `json:"method,omitempty"`
	AccountNumber  string            `json:"accountNumber,omitempty"`
	PayoutValue    *decimal.Decimal  `json:"payoutValue,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
	Status         TransactionStatus `json:"status"`
	Date           time.Time         `json:"date"`
	Description    string            `json:"description"`
	ReviewedAt     *time.Time        `json:"reviewedAt,omitempty"`
}

// IsPendingWithdrawal reports whether the entry awaits an admin decision
func (t *Transaction) IsPendingWithdrawal() bool {
	return t.Type == TransactionTypeWithdrawal && t.Status == TransactionStatusPending
}

// WithdrawalRequest is the body of POST /wallet/withdrawals
type WithdrawalRequest struct {
	Amount         int    `json:"amount" binding:"required,gt=0"`
	Method         string `json:"method" binding:"required"`
	AccountNumber  string `json:"accountNumber" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// WithdrawalMethod describes a payout channel offered to users
type WithdrawalMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
