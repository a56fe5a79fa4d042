package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/registry"
	"github.com/ArowuTest/easyearning-backend/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "easyEarning_"

// flakyRepo fails every Put while fail is set
type flakyRepo struct {
	*memory.KVRepository
	fail error
}

func (r *flakyRepo) Put(ctx context.Context, key string, value []byte) error {
	if r.fail != nil {
		return r.fail
	}
	return r.KVRepository.Put(ctx, key, value)
}

type harness struct {
	repo  *flakyRepo
	now   time.Time
	ids   int
	store *Store
}

func testPolicy() Policy {
	return Policy{
		Withdrawal: ledger.WithdrawalPolicy{
			MinPoints:           4000,
			Methods:             []string{"bkash", "nagad", "paypal"},
			PointToCurrencyRate: decimal.RequireFromString("0.05"),
		},
		StartingBalance: 100,
		ReferralBonus:   100,
		RefundRejected:  true,
		Location:        time.UTC,
		AdminName:       "Master Admin",
		AdminEmail:      "admin@easyearning.local",
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		repo: &flakyRepo{KVRepository: memory.NewKVRepository()},
		now:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	h.open(t, testPolicy())
	return h
}

func (h *harness) open(t *testing.T, policy Policy) {
	t.Helper()
	s, err := New(context.Background(), h.repo, Options{
		KeyPrefix: prefix,
		Policy:    policy,
		Clock:     func() time.Time { return h.now },
		NewID: func() string {
			h.ids++
			return fmt.Sprintf("id-%d", h.ids)
		},
		Rand: rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	h.store = s
}

func (h *harness) stored(t *testing.T, name string, dst interface{}) {
	t.Helper()
	raw, err := h.repo.Get(context.Background(), prefix+name)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

// seedUser registers a user and tops the balance up to points
func (h *harness) seedUser(t *testing.T, email string, points int) models.User {
	t.Helper()
	user, created, err := h.store.Login(email, Registration{Name: email})
	require.NoError(t, err)
	require.True(t, created)
	if points > user.Points {
		user, _, err = h.store.CreditPoints(points-user.Points, "seed", models.TransactionTypeReferral)
		require.NoError(t, err)
	}
	return user
}

func TestHydrateDefaults(t *testing.T) {
	h := newHarness(t)

	tasks := h.store.Tasks("")
	assert.Len(t, tasks, 4)
	assert.Equal(t, models.DefaultMediationSettings().Networks, h.store.Mediation().Networks)

	admin, err := h.store.User(models.MasterAdminID)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, ok := h.store.CurrentUser()
	assert.False(t, ok)

	for _, key := range []string{KeyUsers, KeyTransactions, KeyTasks, KeyMediation, KeyCompletions} {
		_, err := h.repo.Get(context.Background(), prefix+key)
		assert.NoError(t, err, key)
	}
}

func TestHydrateRestoresPersistedState(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "rakib@example.com", 5000)
	_, err := h.store.CreateTask(models.TaskInput{Title: "Survey Sprint", Reward: 80, Type: models.TaskTypePTC})
	require.NoError(t, err)
	_, err = h.store.UpdateMediation("admin", func(m *models.MediationSettings) error {
		m.WaterfallEnabled = false
		return nil
	})
	require.NoError(t, err)

	h.open(t, testPolicy())

	current, ok := h.store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, user.ID, current.ID)
	assert.Equal(t, 5000, current.Points)
	assert.Len(t, h.store.Tasks(""), 5)
	assert.False(t, h.store.Mediation().WaterfallEnabled)
	assert.Len(t, h.store.Transactions(user.ID), 1)
}

func TestHydrateDropsBannedSession(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "faisal@gmail.com", 0)

	// Ban behind the store's back, as another process would
	var users []models.User
	h.stored(t, KeyUsers, &users)
	for i := range users {
		if users[i].ID == user.ID {
			users[i].Status = models.UserStatusBanned
		}
	}
	raw, _ := json.Marshal(users)
	require.NoError(t, h.repo.Put(context.Background(), prefix+KeyUsers, raw))

	h.open(t, testPolicy())
	_, ok := h.store.CurrentUser()
	assert.False(t, ok)
	_, err := h.repo.Get(context.Background(), prefix+KeySession)
	assert.Error(t, err)
}

func TestHydrateIgnoresCorruptCollection(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.repo.Put(context.Background(), prefix+KeyTasks, []byte("{not json")))

	h.open(t, testPolicy())
	assert.Len(t, h.store.Tasks(""), 4)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	user, created, err := h.store.Login("nabila@work.io", Registration{Name: "Nabila"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 100, user.Points)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.UserStatusActive, user.Status)
	assert.Regexp(t, `^EE\d{6}$`, user.ReferralCode)
	assert.Zero(t, user.StreakCount)

	h.store.Logout()
	_, ok := h.store.CurrentUser()
	assert.False(t, ok)

	// Matched by email, case-insensitively, and by id
	again, created, err := h.store.Login("NABILA@work.io", Registration{})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	again, _, err = h.store.Login(user.ID, Registration{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, _, err = h.store.Login("   ", Registration{})
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, _, err = h.store.Login("admin@easyearning.local", Registration{})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestLoginBannedDenied(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "faisal@gmail.com", 0)
	h.store.Logout()

	_, err := h.store.BanUser(user.ID)
	require.NoError(t, err)

	_, _, err = h.store.Login("faisal@gmail.com", Registration{})
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, ok := h.store.CurrentUser()
	assert.False(t, ok)
}

func TestLoginWithReferral(t *testing.T) {
	h := newHarness(t)
	referrer := h.seedUser(t, "rakib@example.com", 0)
	h.store.Logout()

	user, created, err := h.store.Login("new@example.com", Registration{Name: "Newbie", ReferralCode: referrer.ReferralCode})
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, referrer.ID, user.ReferredBy)

	updated, err := h.store.User(referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, referrer.Points+100, updated.Points)
	assert.Equal(t, 1, updated.ReferralsCount)
	assert.Zero(t, updated.StreakCount)

	txs := h.store.Transactions(referrer.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeReferral, txs[0].Type)

	// Unknown codes are ignored
	h.store.Logout()
	_, created, err = h.store.Login("other@example.com", Registration{ReferralCode: "EE000000X"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestLoginAdmin(t *testing.T) {
	h := newHarness(t)
	admin, err := h.store.LoginAdmin()
	require.NoError(t, err)
	assert.Equal(t, models.MasterAdminID, admin.ID)

	current, ok := h.store.CurrentUser()
	require.True(t, ok)
	assert.True(t, current.IsAdmin())

	_, err = h.store.BanUser(models.MasterAdminID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestCreditPointsRequiresSession(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.store.CreditPoints(50, "Watch Video Ad", models.TransactionTypeEarn)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, h.store.Transactions(""))
}

func TestCreditPointsStreakAcrossDays(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "rakib@example.com", 0)

	user, tx, err := h.store.CreditPoints(50, "Watch Video Ad", models.TransactionTypeEarn)
	require.NoError(t, err)
	assert.Equal(t, 1, user.StreakCount)
	assert.Equal(t, 150, user.Points)
	assert.Equal(t, models.TransactionStatusPaid, tx.Status)

	// Same day: no streak change
	user, _, err = h.store.CreditPoints(50, "Watch Video Ad", models.TransactionTypeEarn)
	require.NoError(t, err)
	assert.Equal(t, 1, user.StreakCount)

	h.now = h.now.AddDate(0, 0, 1)
	_, _, err = h.store.CreditPoints(10, "Visit", models.TransactionTypeEarn)
	require.NoError(t, err)
	h.now = h.now.AddDate(0, 0, 1)
	user, tx, err = h.store.CreditPoints(10, "Visit", models.TransactionTypeEarn)
	require.NoError(t, err)
	assert.Equal(t, 3, user.StreakCount)
	assert.Equal(t, 60, tx.Amount)
	assert.Equal(t, "Visit (+50 streak bonus!)", tx.Description)

	// Persisted directory and session mirror memory
	var users []models.User
	h.stored(t, KeyUsers, &users)
	var session models.User
	h.stored(t, KeySession, &session)
	assert.Equal(t, user.Points, session.Points)
	for _, u := range users {
		if u.ID == user.ID {
			assert.Equal(t, user.Points, u.Points)
		}
	}
}

func TestRequestWithdrawal(t *testing.T) {
	t.Run("below minimum leaves state untouched", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "rakib@example.com", 500)
		before := h.store.Transactions("")

		_, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 500, Method: "bkash", AccountNumber: "01700000000"})
		assert.ErrorIs(t, err, ledger.ErrBelowMinimum)

		user, _ := h.store.CurrentUser()
		assert.Equal(t, 500, user.Points)
		assert.Equal(t, before, h.store.Transactions(""))
	})

	t.Run("debits and records pending", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "rakib@example.com", 5000)

		tx, replayed, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4000, Method: "bkash", AccountNumber: "01700000000"})
		require.NoError(t, err)
		assert.False(t, replayed)
		assert.Equal(t, -4000, tx.Amount)
		assert.Equal(t, models.TransactionStatusPending, tx.Status)

		user, _ := h.store.CurrentUser()
		assert.Equal(t, 1000, user.Points)
		assert.Len(t, h.store.PendingWithdrawals(), 1)
	})

	t.Run("over balance rejected", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "rakib@example.com", 4500)

		_, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4600, Method: "bkash", AccountNumber: "x"})
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	})

	t.Run("idempotency key replays", func(t *testing.T) {
		h := newHarness(t)
		h.seedUser(t, "rakib@example.com", 9000)
		in := ledger.WithdrawalInput{Amount: 4000, Method: "nagad", AccountNumber: "0181", IdempotencyKey: "req-1"}

		first, _, err := h.store.RequestWithdrawal(in)
		require.NoError(t, err)
		second, replayed, err := h.store.RequestWithdrawal(in)
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, first.ID, second.ID)

		user, _ := h.store.CurrentUser()
		assert.Equal(t, 5000, user.Points)
		assert.Len(t, h.store.PendingWithdrawals(), 1)
	})

	t.Run("requires session", func(t *testing.T) {
		h := newHarness(t)
		_, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4000, Method: "bkash", AccountNumber: "x"})
		assert.ErrorIs(t, err, ErrNoSession)
	})
}

func TestReviewWithdrawals(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "rakib@example.com", 12000)
	first, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4000, Method: "bkash", AccountNumber: "1"})
	require.NoError(t, err)
	second, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4000, Method: "bkash", AccountNumber: "1"})
	require.NoError(t, err)

	approved, err := h.store.ApproveWithdrawal(first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPaid, approved.Status)

	_, err = h.store.ApproveWithdrawal(first.ID)
	assert.ErrorIs(t, err, ledger.ErrNotPending)
	_, err = h.store.RejectWithdrawal(first.ID)
	assert.ErrorIs(t, err, ledger.ErrNotPending)

	rejected, err := h.store.RejectWithdrawal(second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, rejected.Status)

	refunded, err := h.store.User(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 8000, refunded.Points)

	_, err = h.store.ApproveWithdrawal("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	stats := h.store.Stats()
	assert.Equal(t, 4000, stats.TotalPaid)
	assert.Zero(t, stats.PendingWithdrawals)
}

func TestRejectWithoutRefund(t *testing.T) {
	h := newHarness(t)
	policy := testPolicy()
	policy.RefundRejected = false
	h.open(t, policy)

	user := h.seedUser(t, "rakib@example.com", 5000)
	tx, _, err := h.store.RequestWithdrawal(ledger.WithdrawalInput{Amount: 4000, Method: "bkash", AccountNumber: "1"})
	require.NoError(t, err)

	_, err = h.store.RejectWithdrawal(tx.ID)
	require.NoError(t, err)
	after, _ := h.store.User(user.ID)
	assert.Equal(t, 1000, after.Points)
}

func TestBanClearsSession(t *testing.T) {
	h := newHarness(t)
	events, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	user := h.seedUser(t, "faisal@gmail.com", 0)
	banned, err := h.store.BanUser(user.ID)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned())

	_, ok := h.store.CurrentUser()
	assert.False(t, ok)
	_, _, err = h.store.CreditPoints(10, "x", models.TransactionTypeEarn)
	assert.ErrorIs(t, err, ErrNoSession)

	suspended := false
	for len(events) > 0 {
		if ev := <-events; ev.Type == EventSessionSuspended && ev.UserID == user.ID {
			suspended = true
		}
	}
	assert.True(t, suspended)

	unbanned, err := h.store.UnbanUser(user.ID)
	require.NoError(t, err)
	assert.False(t, unbanned.IsBanned())

	_, err = h.store.BanUser("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsersSearch(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "rakib@example.com", 0)
	h.seedUser(t, "nabila@work.io", 0)

	assert.Len(t, h.store.Users(""), 3)
	assert.Len(t, h.store.Users("WORK.IO"), 1)
	assert.Empty(t, h.store.Users("nobody"))
}

func TestTaskCRUD(t *testing.T) {
	h := newHarness(t)

	task, err := h.store.CreateTask(models.TaskInput{Title: "Watch Trailer", Reward: 40, Type: models.TaskTypeAd, CooldownMinutes: 5})
	require.NoError(t, err)

	_, err = h.store.CreateTask(models.TaskInput{Title: "", Reward: 40, Type: models.TaskTypeAd})
	assert.ErrorIs(t, err, registry.ErrInvalidTask)

	reward := 60
	updated, err := h.store.UpdateTask(task.ID, models.TaskPatch{Reward: &reward})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.Reward)

	_, err = h.store.UpdateTask("missing", models.TaskPatch{Reward: &reward})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, h.store.DeleteTask(task.ID))
	assert.False(t, h.store.DeleteTask(task.ID))
	_, err = h.store.Task(task.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var stored []models.Task
	h.stored(t, KeyTasks, &stored)
	assert.Len(t, stored, 4)
}

func TestCompleteTaskCooldown(t *testing.T) {
	h := newHarness(t)
	user := h.seedUser(t, "rakib@example.com", 0)

	_, tx, err := h.store.CompleteTask(user.ID, "1", 50, "Watch Video Ad")
	require.NoError(t, err)
	assert.Equal(t, 50, tx.Amount)

	_, err = h.store.CheckCooldown("1")
	assert.ErrorIs(t, err, ErrTaskOnCooldown)
	_, _, err = h.store.CompleteTask(user.ID, "1", 50, "Watch Video Ad")
	assert.ErrorIs(t, err, ErrTaskOnCooldown)

	// Other tasks are unaffected
	_, err = h.store.CheckCooldown("2")
	assert.NoError(t, err)

	h.now = h.now.Add(5 * time.Minute)
	_, err = h.store.CheckCooldown("1")
	assert.NoError(t, err)

	var completions map[string]time.Time
	h.stored(t, KeyCompletions, &completions)
	assert.Contains(t, completions, user.ID+"|1")

	_, _, err = h.store.CompleteTask(user.ID, "missing", 10, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteTaskRequiresExpectedSessionUser(t *testing.T) {
	h := newHarness(t)
	first := h.seedUser(t, "rakib@example.com", 0)
	second := h.seedUser(t, "nadia@example.com", 0)

	// The session now belongs to the second user
	_, _, err := h.store.CompleteTask(first.ID, "3", 100, "Daily Check-in")
	assert.ErrorIs(t, err, ErrNoSession)

	current, _ := h.store.CurrentUser()
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, second.Points, current.Points)

	_, tx, err := h.store.CompleteTask(second.ID, "3", 100, "Daily Check-in")
	require.NoError(t, err)
	assert.Equal(t, second.ID, tx.UserID)
}

func TestUpdateMediation(t *testing.T) {
	h := newHarness(t)

	settings, err := h.store.UpdateMediation("admin_master", func(m *models.MediationSettings) error {
		networks, err := mediation.MoveNetworkPriority(m.Networks, "unity", mediation.Up)
		m.Networks = networks
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "unity", settings.Networks[0].ID)
	assert.Equal(t, "admin_master", settings.UpdatedBy)

	_, err = h.store.UpdateMediation("admin_master", func(m *models.MediationSettings) error {
		m.Networks[0].FillRate = 150
		return nil
	})
	assert.ErrorIs(t, err, mediation.ErrInvalidSettings)
	assert.Equal(t, 70, h.store.Mediation().Networks[0].FillRate)

	boom := errors.New("boom")
	_, err = h.store.UpdateMediation("admin_master", func(*models.MediationSettings) error { return boom })
	assert.ErrorIs(t, err, boom)

	var stored models.MediationSettings
	h.stored(t, KeyMediation, &stored)
	assert.Equal(t, "unity", stored.Networks[0].ID)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "rakib@example.com", 0)
	h.repo.fail = errors.New("disk full")

	user, _, err := h.store.CreditPoints(50, "Watch Video Ad", models.TransactionTypeEarn)
	require.NoError(t, err)
	assert.Equal(t, 150, user.Points)

	current, _ := h.store.CurrentUser()
	assert.Equal(t, 150, current.Points)
}

func TestSubscribeUnsubscribe(t *testing.T) {
	h := newHarness(t)
	events, unsubscribe := h.store.Subscribe()

	_, err := h.store.CreateTask(models.TaskInput{Title: "x", Reward: 1, Type: models.TaskTypePTC})
	require.NoError(t, err)
	ev := <-events
	assert.Equal(t, EventTasksChanged, ev.Type)

	unsubscribe()
	unsubscribe()
	_, open := <-events
	assert.False(t, open)
}
