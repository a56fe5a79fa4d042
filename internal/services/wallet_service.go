package services

import (
	"context"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"golang.org/x/exp/slog"
)

var methodNames = map[string]string{
	"bkash":  "bKash",
	"nagad":  "Nagad",
	"paypal": "PayPal",
}

// WalletService handles withdrawals and their admin review
type WalletService struct {
	store   *store.Store
	methods []string
}

// NewWalletService creates a new WalletService
func NewWalletService(st *store.Store, methods []string) *WalletService {
	return &WalletService{
		store:   st,
		methods: methods,
	}
}

// Methods lists the accepted payout methods
func (s *WalletService) Methods() []models.WithdrawalMethod {
	out := make([]models.WithdrawalMethod, 0, len(s.methods))
	for _, id := range s.methods {
		name, ok := methodNames[strings.ToLower(id)]
		if !ok {
			name = id
		}
		out = append(out, models.WithdrawalMethod{ID: id, Name: name})
	}
	return out
}

// RequestWithdrawal submits a payout request for the session user
func (s *WalletService) RequestWithdrawal(ctx context.Context, req *models.WithdrawalRequest) (*models.Transaction, bool, error) {
	tx, replayed, err := s.store.RequestWithdrawal(ledger.WithdrawalInput{
		Amount:         req.Amount,
		Method:         strings.ToLower(strings.TrimSpace(req.Method)),
		AccountNumber:  strings.TrimSpace(req.AccountNumber),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		slog.Warn("Withdrawal refused", "error", err, "amount", req.Amount, "method", req.Method)
		return nil, false, err
	}
	return &tx, replayed, nil
}

// History lists the session user's transactions, newest first
func (s *WalletService) History(ctx context.Context) ([]models.Transaction, error) {
	user, ok := s.store.CurrentUser()
	if !ok {
		return nil, store.ErrNoSession
	}
	return s.store.Transactions(user.ID), nil
}

// PendingWithdrawals lists the review queue
func (s *WalletService) PendingWithdrawals(ctx context.Context) []models.Transaction {
	return s.store.PendingWithdrawals()
}

// Approve marks a withdrawal as paid
func (s *WalletService) Approve(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.store.ApproveWithdrawal(id)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Reject rejects a withdrawal
func (s *WalletService) Reject(ctx context.Context, id string) (*models.Transaction, error) {
	tx, err := s.store.RejectWithdrawal(id)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
