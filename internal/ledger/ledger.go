// Package ledger computes point balances, transaction records and streak
// transitions. Every function is pure: it receives copies and returns the
// updated copies, leaving persistence to the caller.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrInvalidKind         = errors.New("credit kind must be EARN or REFERRAL")
	ErrBelowMinimum        = errors.New("amount is below the minimum withdrawal")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrInvalidMethod       = errors.New("unsupported withdrawal method")
	ErrMissingAccount      = errors.New("account number is required")
	ErrNotPending          = errors.New("transaction is not a pending withdrawal")
)

// PayoutValue converts points to their payout value, rounded to cents
func PayoutValue(points int, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(points)).Mul(rate).Round(2)
}

// IDFunc generates unique transaction ids
type IDFunc func() string

// WithdrawalPolicy holds the configured withdrawal rules
type WithdrawalPolicy struct {
	MinPoints           int
	Methods             []string // Empty accepts any method
	PointToCurrencyRate decimal.Decimal
}

// WithdrawalInput is a user's payout request
type WithdrawalInput struct {
	Amount         int
	Method         string
	AccountNumber  string
	IdempotencyKey string
}

// Credit applies an EARN or REFERRAL credit to user. EARN credits advance the
// daily streak and may add a milestone bonus; the returned transaction is PAID.
func Credit(user models.User, amount int, description string, kind models.TransactionType, now time.Time, newID IDFunc) (models.User, models.Transaction, error) {
	if amount < 0 {
		return user, models.Transaction{}, ErrInvalidAmount
	}
	if kind != models.TransactionTypeEarn && kind != models.TransactionTypeReferral {
		return user, models.Transaction{}, ErrInvalidKind
	}

	bonus := 0
	if kind == models.TransactionTypeEarn {
		streak, b, advanced := AdvanceStreak(user.StreakCount, user.LastActiveDate, now)
		if advanced {
			active := now
			user.StreakCount = streak
			user.LastActiveDate = &active
			bonus = b
		}
	}

	total := amount + bonus
	if bonus > 0 {
		description = fmt.Sprintf("%s (+%d streak bonus!)", description, bonus)
	}

	tx := models.Transaction{
		ID:          newID(),
		UserID:      user.ID,
		Amount:      total,
		Type:        kind,
		Status:      models.TransactionStatusPaid,
		Date:        now,
		Description: description,
	}
	user.Points += total
	return user, tx, nil
}

// Withdraw validates a payout request and debits the user optimistically.
// Nothing is returned but the error when validation fails.
func Withdraw(user models.User, in WithdrawalInput, policy WithdrawalPolicy, now time.Time, newID IDFunc) (models.User, models.Transaction, error) {
	if in.Amount <= 0 {
		return user, models.Transaction{}, ErrInvalidAmount
	}
	if in.Amount < policy.MinPoints {
		return user, models.Transaction{}, fmt.Errorf("%w: minimum is %d points", ErrBelowMinimum, policy.MinPoints)
	}
	if in.Amount > user.Points {
		return user, models.Transaction{}, ErrInsufficientBalance
	}
	if !methodAllowed(policy.Methods, in.Method) {
		return user, models.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidMethod, in.Method)
	}
	if strings.TrimSpace(in.AccountNumber) == "" {
		return user, models.Transaction{}, ErrMissingAccount
	}

	payout := PayoutValue(in.Amount, policy.PointToCurrencyRate)
	tx := models.Transaction{
		ID:             newID(),
		UserID:         user.ID,
		Amount:         -in.Amount,
		Type:           models.TransactionTypeWithdrawal,
		Method:         in.Method,
		AccountNumber:  in.AccountNumber,
		PayoutValue:    &payout,
		IdempotencyKey: in.IdempotencyKey,
		Status:         models.TransactionStatusPending,
		Date:           now,
		Description:    fmt.Sprintf("Withdrawal via %s", in.Method),
	}
	user.Points -= in.Amount
	return user, tx, nil
}

// Approve marks a pending withdrawal as PAID
func Approve(tx models.Transaction, now time.Time) (models.Transaction, error) {
	if !tx.IsPendingWithdrawal() {
		return tx, ErrNotPending
	}
	tx.Status = models.TransactionStatusPaid
	tx.ReviewedAt = &now
	return tx, nil
}

// Reject marks a pending withdrawal as REJECTED. When refund is set the debited
// points are returned to the owner.
func Reject(tx models.Transaction, owner models.User, refund bool, now time.Time) (models.Transaction, models.User, error) {
	if !tx.IsPendingWithdrawal() {
		return tx, owner, ErrNotPending
	}
	tx.Status = models.TransactionStatusRejected
	tx.ReviewedAt = &now
	if refund && owner.ID == tx.UserID {
		owner.Points += -tx.Amount
	}
	return tx, owner, nil
}

func methodAllowed(methods []string, method string) bool {
	if strings.TrimSpace(method) == "" {
		return false
	}
	if len(methods) == 0 {
		return true
	}
	for _, m := range methods {
		if strings.EqualFold(m, method) {
			return true
		}
	}
	return false
}
