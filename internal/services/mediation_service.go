package services

import (
	"context"
	"fmt"

	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/store"
)

// MediationService manages the ad mediation settings
type MediationService struct {
	store  *store.Store
	engine *mediation.Engine
}

// NewMediationService creates a new MediationService
func NewMediationService(st *store.Store, engine *mediation.Engine) *MediationService {
	return &MediationService{
		store:  st,
		engine: engine,
	}
}

// GetSettings retrieves the current mediation settings
func (s *MediationService) GetSettings(ctx context.Context) models.MediationSettings {
	return s.store.Mediation()
}

// UpdateSettings replaces the settings wholesale
func (s *MediationService) UpdateSettings(ctx context.Context, settings *models.MediationSettings, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		m.WaterfallEnabled = settings.WaterfallEnabled
		m.PrimaryNetworkID = settings.PrimaryNetworkID
		m.AdUnits = settings.AdUnits
		m.Networks = append([]models.MediationNetwork(nil), settings.Networks...)
		return nil
	})
}

// ToggleNetwork flips a network's enabled flag
func (s *MediationService) ToggleNetwork(ctx context.Context, networkID, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		idx := m.FindNetwork(networkID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", mediation.ErrUnknownNetwork, networkID)
		}
		m.Networks[idx].IsEnabled = !m.Networks[idx].IsEnabled
		return nil
	})
}

// MoveNetwork swaps a network's priority with its neighbour
func (s *MediationService) MoveNetwork(ctx context.Context, networkID string, dir mediation.Direction, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		networks, err := mediation.MoveNetworkPriority(m.Networks, networkID, dir)
		if err != nil {
			return err
		}
		m.Networks = networks
		return nil
	})
}

// SetFillRate sets a network's simulated fill rate; values outside 0-100 are rejected
func (s *MediationService) SetFillRate(ctx context.Context, networkID string, rate int, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		idx := m.FindNetwork(networkID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", mediation.ErrUnknownNetwork, networkID)
		}
		m.Networks[idx].FillRate = rate
		return nil
	})
}

// SetAdUnits replaces the ad unit ids
func (s *MediationService) SetAdUnits(ctx context.Context, units models.AdUnitConfig, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		m.AdUnits = units
		return nil
	})
}

// SetWaterfall enables or disables cascading past the primary network
func (s *MediationService) SetWaterfall(ctx context.Context, enabled bool, updatedBy string) (models.MediationSettings, error) {
	return s.store.UpdateMediation(updatedBy, func(m *models.MediationSettings) error {
		m.WaterfallEnabled = enabled
		return nil
	})
}

// TestRun runs the waterfall against the current settings without issuing a view
func (s *MediationService) TestRun(ctx context.Context) (*models.WaterfallResult, error) {
	return s.engine.Run(ctx, s.store.Mediation())
}
