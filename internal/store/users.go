package store

import (
	"fmt"
	"strings"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Registration carries the optional fields used when a login synthesizes a new user
type Registration struct {
	Name         string
	ReferralCode string
}

// Login resolves identity by id or email and opens a session for it. Unknown
// identities are registered as new USER accounts. Banned accounts and the
// admin account are refused.
func (s *Store) Login(identity string, reg Registration) (models.User, bool, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return models.User{}, false, ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.findIdentity(identity); idx >= 0 {
		user := s.users[idx]
		if user.IsBanned() {
			return models.User{}, false, ErrAccountBanned
		}
		if user.IsAdmin() {
			return models.User{}, false, fmt.Errorf("%w: use the admin login", ErrAccessDenied)
		}
		s.sessionID = user.ID
		s.persist(KeySession)
		s.publish(EventUserChanged, user.ID)
		return user, false, nil
	}

	now := s.now()
	name := strings.TrimSpace(reg.Name)
	if name == "" {
		name = "EasyEarner"
	}
	user := models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        identity,
		Points:       s.policy.StartingBalance,
		ReferralCode: s.uniqueReferralCode(),
		Role:         models.RoleUser,
		Status:       models.UserStatusActive,
		JoinedAt:     now,
	}

	changed := []string{KeyUsers}
	if code := strings.TrimSpace(reg.ReferralCode); code != "" {
		if ridx := s.findReferralCode(code); ridx >= 0 && !s.users[ridx].IsBanned() {
			referrer, tx, err := ledger.Credit(s.users[ridx], s.policy.ReferralBonus,
				fmt.Sprintf("Referral bonus: %s joined", user.Name), models.TransactionTypeReferral, now, s.newID)
			if err == nil {
				referrer.ReferralsCount++
				s.users[ridx] = referrer
				s.transactions = append([]models.Transaction{tx}, s.transactions...)
				user.ReferredBy = referrer.ID
				changed = append(changed, KeyTransactions)
				slog.Info("Referral credited", "referrerID", referrer.ID, "newUserID", user.ID, "bonus", tx.Amount)
			}
		} else {
			slog.Info("Ignoring unknown referral code", "code", code)
		}
	}

	s.users = append(s.users, user)
	s.sessionID = user.ID
	s.persist(append(changed, KeySession)...)
	s.syncSession()
	s.publish(EventUserChanged, user.ID)
	if len(changed) > 1 {
		s.publish(EventTransactionsChanged, user.ReferredBy)
	}
	slog.Info("User registered", "userID", user.ID, "referred", user.ReferredBy != "")
	return user, true, nil
}

// LoginAdmin opens a session for the master admin account, creating the
// record if it is missing. Credentials are checked by the caller.
func (s *Store) LoginAdmin() (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(models.MasterAdminID)
	if idx < 0 {
		s.users = append(s.users, s.seedAdmin())
		idx = len(s.users) - 1
		s.persist(KeyUsers)
	}
	admin := s.users[idx]
	if admin.IsBanned() {
		return models.User{}, ErrAccountBanned
	}
	s.sessionID = admin.ID
	s.persist(KeySession)
	s.publish(EventUserChanged, admin.ID)
	return admin, nil
}

// Logout clears the session
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		return
	}
	userID := s.sessionID
	s.sessionID = ""
	s.persist(KeySession)
	s.publish(EventUserChanged, userID)
}

// CurrentUser returns the directory record of the session user
func (s *Store) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionID == "" {
		return models.User{}, false
	}
	idx := s.userIndex(s.sessionID)
	if idx < 0 {
		return models.User{}, false
	}
	return s.users[idx], true
}

// User returns the user with the given id
func (s *Store) User(id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, ErrNotFound
	}
	return s.users[idx], nil
}

// Users lists the directory, optionally filtered by a case-insensitive
// substring of name or email
func (s *Store) Users(term string) []models.User {
	term = strings.ToLower(strings.TrimSpace(term))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if term == "" || strings.Contains(strings.ToLower(u.Name), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	return out
}

// BanUser suspends a user; a banned session user is logged out immediately
func (s *Store) BanUser(id string) (models.User, error) {
	return s.setUserStatus(id, models.UserStatusBanned)
}

// UnbanUser reactivates a user
func (s *Store) UnbanUser(id string) (models.User, error) {
	return s.setUserStatus(id, models.UserStatusActive)
}

func (s *Store) setUserStatus(id string, status models.UserStatus) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndex(id)
	if idx < 0 {
		return models.User{}, ErrNotFound
	}
	if s.users[idx].IsAdmin() {
		return models.User{}, fmt.Errorf("%w: the admin account cannot be suspended", ErrAccessDenied)
	}
	if s.users[idx].Status == status {
		return s.users[idx], nil
	}

	s.users[idx].Status = status
	user := s.users[idx]
	s.persist(KeyUsers)
	s.syncSession()
	s.publish(EventUserChanged, id)
	slog.Info("User status changed", "userID", id, "status", status)
	return user, nil
}

// Stats summarises the directory, ledger and catalog
func (s *Store) Stats() models.AppStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.AppStats{
		TotalUsers:  len(s.users),
		ActiveTasks: s.tasks.Len(),
		TasksByType: s.tasks.CountByType(),
	}
	for _, u := range s.users {
		if u.IsBanned() {
			stats.BannedUsers++
		} else {
			stats.ActiveUsers++
		}
	}
	for i := range s.transactions {
		tx := &s.transactions[i]
		if tx.Type != models.TransactionTypeWithdrawal {
			continue
		}
		switch tx.Status {
		case models.TransactionStatusPaid:
			stats.TotalPaid += -tx.Amount
		case models.TransactionStatusPending:
			stats.PendingWithdrawals++
		}
	}
	return stats
}

func (s *Store) findIdentity(identity string) int {
	for i := range s.users {
		if s.users[i].ID == identity || (s.users[i].Email != "" && strings.EqualFold(s.users[i].Email, identity)) {
			return i
		}
	}
	return -1
}

func (s *Store) findReferralCode(code string) int {
	for i := range s.users {
		if strings.EqualFold(s.users[i].ReferralCode, code) {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueReferralCode() string {
	for attempt := 0; attempt < 32; attempt++ {
		code := utils.GenerateReferralCode(s.rng)
		if s.findReferralCode(code) < 0 {
			return code
		}
	}
	// The six digit space is nearly exhausted, fall back to an id suffix
	return "EE" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
}
