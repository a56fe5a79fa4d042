package store

import (
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"golang.org/x/exp/slog"
)

// Mediation returns a copy of the mediation settings
func (s *Store) Mediation() models.MediationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediation.Clone()
}

// UpdateMediation applies fn to a copy of the settings and commits the copy
// when fn succeeds and the result is valid
func (s *Store) UpdateMediation(updatedBy string, fn func(*models.MediationSettings) error) (models.MediationSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.mediation.Clone()
	if err := fn(&next); err != nil {
		return s.mediation.Clone(), err
	}
	if err := mediation.Validate(next); err != nil {
		return s.mediation.Clone(), err
	}
	next.UpdatedAt = s.clock()
	next.UpdatedBy = updatedBy

	s.mediation = next
	s.persist(KeyMediation)
	s.publish(EventMediationChanged, "")
	slog.Info("Mediation settings updated", "updatedBy", updatedBy, "waterfallEnabled", next.WaterfallEnabled)
	return next.Clone(), nil
}
