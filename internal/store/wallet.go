package store

import (
	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"golang.org/x/exp/slog"
)

// CreditPoints credits the session user. EARN credits advance the streak.
func (s *Store) CreditPoints(amount int, description string, kind models.TransactionType) (models.User, models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.sessionIndex()
	if err != nil {
		return models.User{}, models.Transaction{}, err
	}
	return s.creditLocked(idx, amount, description, kind)
}

func (s *Store) creditLocked(idx, amount int, description string, kind models.TransactionType) (models.User, models.Transaction, error) {
	user, tx, err := ledger.Credit(s.users[idx], amount, description, kind, s.now(), s.newID)
	if err != nil {
		return models.User{}, models.Transaction{}, err
	}
	s.users[idx] = user
	s.transactions = append([]models.Transaction{tx}, s.transactions...)
	s.persist(KeyUsers, KeyTransactions)
	s.syncSession()
	s.publish(EventUserChanged, user.ID)
	s.publish(EventTransactionsChanged, user.ID)
	return user, tx, nil
}

// RequestWithdrawal debits the session user and records a PENDING
// withdrawal. A repeated idempotency key returns the original transaction
// with replayed set and changes nothing.
func (s *Store) RequestWithdrawal(in ledger.WithdrawalInput) (tx models.Transaction, replayed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.sessionIndex()
	if err != nil {
		return models.Transaction{}, false, err
	}
	userID := s.users[idx].ID

	if in.IdempotencyKey != "" {
		for i := range s.transactions {
			if s.transactions[i].UserID == userID && s.transactions[i].IdempotencyKey == in.IdempotencyKey {
				return s.transactions[i], true, nil
			}
		}
	}

	user, tx, err := ledger.Withdraw(s.users[idx], in, s.policy.Withdrawal, s.now(), s.newID)
	if err != nil {
		return models.Transaction{}, false, err
	}
	s.users[idx] = user
	s.transactions = append([]models.Transaction{tx}, s.transactions...)
	s.persist(KeyUsers, KeyTransactions)
	s.syncSession()
	s.publish(EventUserChanged, userID)
	s.publish(EventTransactionsChanged, userID)
	slog.Info("Withdrawal requested", "userID", userID, "transactionID", tx.ID, "amount", in.Amount, "method", in.Method)
	return tx, false, nil
}

// ApproveWithdrawal marks a pending withdrawal PAID
func (s *Store) ApproveWithdrawal(id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.txIndex(id)
	if idx < 0 {
		return models.Transaction{}, ErrNotFound
	}
	tx, err := ledger.Approve(s.transactions[idx], s.now())
	if err != nil {
		return s.transactions[idx], err
	}
	s.transactions[idx] = tx
	s.persist(KeyTransactions)
	s.publish(EventTransactionsChanged, tx.UserID)
	slog.Info("Withdrawal approved", "transactionID", id, "userID", tx.UserID)
	return tx, nil
}

// RejectWithdrawal marks a pending withdrawal REJECTED, refunding the owner
// when the policy says so
func (s *Store) RejectWithdrawal(id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.txIndex(id)
	if idx < 0 {
		return models.Transaction{}, ErrNotFound
	}

	var owner models.User
	ownerIdx := s.userIndex(s.transactions[idx].UserID)
	if ownerIdx >= 0 {
		owner = s.users[ownerIdx]
	}
	refund := s.policy.RefundRejected && ownerIdx >= 0

	tx, owner, err := ledger.Reject(s.transactions[idx], owner, refund, s.now())
	if err != nil {
		return s.transactions[idx], err
	}
	s.transactions[idx] = tx
	if refund {
		s.users[ownerIdx] = owner
		s.persist(KeyUsers, KeyTransactions)
		s.syncSession()
		s.publish(EventUserChanged, owner.ID)
	} else {
		s.persist(KeyTransactions)
	}
	s.publish(EventTransactionsChanged, tx.UserID)
	slog.Info("Withdrawal rejected", "transactionID", id, "userID", tx.UserID, "refunded", refund)
	return tx, nil
}

// Transactions lists the ledger newest first. An empty userID lists everyone.
func (s *Store) Transactions(userID string) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Transaction{}
	for _, tx := range s.transactions {
		if userID == "" || tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out
}

// PendingWithdrawals lists the withdrawal review queue, oldest first
func (s *Store) PendingWithdrawals() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Transaction{}
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].IsPendingWithdrawal() {
			out = append(out, s.transactions[i])
		}
	}
	return out
}

// sessionIndex returns the directory index of the session user
func (s *Store) sessionIndex() (int, error) {
	if s.sessionID == "" {
		return -1, ErrNoSession
	}
	idx := s.userIndex(s.sessionID)
	if idx < 0 {
		return -1, ErrNoSession
	}
	if s.users[idx].IsBanned() {
		return -1, ErrAccountBanned
	}
	return idx, nil
}
