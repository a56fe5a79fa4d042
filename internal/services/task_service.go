package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/ArowuTest/easyearning-backend/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var (
	ErrViewNotFound = errors.New("ad view not found")
	ErrViewNotReady = errors.New("ad view has not been watched long enough")
)

// Unclaimed views are dropped after this long
const viewTTL = time.Hour

// TaskTimings holds the minimum view times before a reward can be claimed
type TaskTimings struct {
	AdWatch  time.Duration
	PTCWatch time.Duration
}

// TaskService drives the earning flow: waterfall-backed ad views, PTC views,
// spins and check-ins
type TaskService struct {
	store   *store.Store
	engine  *mediation.Engine
	timings TaskTimings
	clock   func() time.Time
	newID   func() string

	mu    sync.Mutex
	spin  ledger.IntnSource
	views map[string]models.AdView
}

// NewTaskService creates a new TaskService
func NewTaskService(st *store.Store, engine *mediation.Engine, spin ledger.IntnSource, timings TaskTimings) *TaskService {
	return &TaskService{
		store:   st,
		engine:  engine,
		timings: timings,
		clock:   time.Now,
		newID:   uuid.NewString,
		spin:    spin,
		views:   make(map[string]models.AdView),
	}
}

// ListTasks lists the catalog, optionally filtered
func (s *TaskService) ListTasks(ctx context.Context, term string) []models.Task {
	return s.store.Tasks(term)
}

// Start begins a task for the session user. AD and PTC tasks issue a view to
// be claimed later; SPIN and CHECKIN tasks are credited immediately.
func (s *TaskService) Start(ctx context.Context, taskID string) (*models.TaskStartResponse, error) {
	user, ok := s.store.CurrentUser()
	if !ok {
		return nil, store.ErrNoSession
	}
	task, err := s.store.CheckCooldown(taskID)
	if err != nil {
		return nil, err
	}

	switch task.Type {
	case models.TaskTypeAd:
		result, err := s.engine.Run(ctx, s.store.Mediation())
		if err != nil {
			slog.Warn("Waterfall did not serve an ad", "error", err, "userID", user.ID, "taskID", task.ID)
			return nil, err
		}
		view := s.issueView(user.ID, task, s.timings.AdWatch)
		view.NetworkID = result.Network.ID
		view.Network = result.Network.Name
		view.AdUnitID = result.AdUnitID
		s.saveView(view)
		slog.Info("Ad served", "userID", user.ID, "taskID", task.ID, "network", result.Network.ID, "probes", len(result.Attempts))
		return &models.TaskStartResponse{Task: task, View: &view, Balance: user.Points, StreakCount: user.StreakCount}, nil

	case models.TaskTypePTC:
		view := s.issueView(user.ID, task, s.timings.PTCWatch)
		s.saveView(view)
		return &models.TaskStartResponse{Task: task, View: &view, Balance: user.Points, StreakCount: user.StreakCount}, nil

	case models.TaskTypeSpin:
		s.mu.Lock()
		reward := ledger.SpinReward(s.spin)
		s.mu.Unlock()
		return s.complete(user.ID, task, reward, "Lucky Spin Reward")

	case models.TaskTypeCheckIn:
		return s.complete(user.ID, task, task.Reward, task.Title)
	}
	return nil, fmt.Errorf("unsupported task type %q", task.Type)
}

// Claim credits the reward of a watched view. Views are single use, bound to
// the user they were issued to and expire viewTTL after issue.
func (s *TaskService) Claim(ctx context.Context, viewID string) (*models.TaskStartResponse, error) {
	user, ok := s.store.CurrentUser()
	if !ok {
		return nil, store.ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view, ok := s.views[viewID]
	if !ok || view.UserID != user.ID {
		return nil, ErrViewNotFound
	}
	if s.clock().Sub(view.IssuedAt) > viewTTL {
		delete(s.views, viewID)
		return nil, fmt.Errorf("%w: view expired", ErrViewNotFound)
	}
	if remaining := view.ClaimAfter.Sub(s.clock()); remaining > 0 {
		return nil, fmt.Errorf("%w: %s remaining", ErrViewNotReady, remaining.Round(time.Second))
	}
	task, err := s.store.Task(view.TaskID)
	if err != nil {
		delete(s.views, viewID)
		return nil, err
	}

	resp, err := s.complete(view.UserID, task, task.Reward, task.Title)
	if err != nil {
		return nil, err
	}
	delete(s.views, viewID)
	return resp, nil
}

// Streak reports the session user's streak against the display milestones
func (s *TaskService) Streak(ctx context.Context) (*models.StreakStatus, error) {
	user, ok := s.store.CurrentUser()
	if !ok {
		return nil, store.ErrNoSession
	}
	next := ledger.NextMilestone(user.StreakCount)
	progress := 100
	if next.Days > 0 && user.StreakCount < next.Days {
		progress = user.StreakCount * 100 / next.Days
	}
	return &models.StreakStatus{
		StreakCount:     user.StreakCount,
		NextMilestone:   next.Days,
		MilestoneBonus:  next.Bonus,
		ProgressPercent: progress,
	}, nil
}

func (s *TaskService) complete(userID string, task models.Task, reward int, description string) (*models.TaskStartResponse, error) {
	user, tx, err := s.store.CompleteTask(userID, task.ID, reward, description)
	if err != nil {
		return nil, err
	}
	slog.Info("Task completed", "userID", user.ID, "taskID", task.ID, "credited", tx.Amount, "streak", user.StreakCount)
	return &models.TaskStartResponse{Task: task, Credited: &tx, Balance: user.Points, StreakCount: user.StreakCount}, nil
}

func (s *TaskService) issueView(userID string, task models.Task, wait time.Duration) models.AdView {
	now := s.clock()
	return models.AdView{
		ID:         s.newID(),
		UserID:     userID,
		TaskID:     task.ID,
		IssuedAt:   now,
		ClaimAfter: now.Add(wait),
	}
}

func (s *TaskService) saveView(view models.AdView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.views {
		if view.IssuedAt.Sub(v.IssuedAt) > viewTTL {
			delete(s.views, id)
		}
	}
	s.views[view.ID] = view
}

// CreateTask adds a task to the catalog
func (s *TaskService) CreateTask(ctx context.Context, in *models.TaskInput) (*models.Task, error) {
	in.Type = models.TaskType(strings.ToUpper(string(in.Type)))
	task, err := s.store.CreateTask(*in)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask merges patch into a task
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch *models.TaskPatch) (*models.Task, error) {
	if patch.Type != nil {
		t := models.TaskType(strings.ToUpper(string(*patch.Type)))
		patch.Type = &t
	}
	task, err := s.store.UpdateTask(id, *patch)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task; unknown ids are reported as ErrNotFound
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if !s.store.DeleteTask(id) {
		return store.ErrNotFound
	}
	return nil
}

// ImportTasks creates every parsed row, collecting per-row failures
func (s *TaskService) ImportTasks(ctx context.Context, result *utils.TaskImportResult) (created int) {
	for i := range result.Tasks {
		if _, err := s.CreateTask(ctx, &result.Tasks[i]); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Task %q: %v", result.Tasks[i].Title, err))
			continue
		}
		created++
	}
	return created
}
