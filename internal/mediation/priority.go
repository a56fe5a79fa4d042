package mediation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ArowuTest/easyearning-backend/internal/models"
)

// Direction of a priority move
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var (
	ErrUnknownNetwork   = errors.New("unknown ad network")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrInvalidSettings  = errors.New("invalid mediation settings")
)

// MoveNetworkPriority swaps the priority of the network with its neighbour in
// priority order and returns a new sorted slice. The input is not modified.
// Moving the first network up or the last one down is a no-op.
func MoveNetworkPriority(networks []models.MediationNetwork, networkID string, dir Direction) ([]models.MediationNetwork, error) {
	if dir != Up && dir != Down {
		return nil, ErrInvalidDirection
	}

	sorted := append([]models.MediationNetwork(nil), networks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	idx := -1
	for i := range sorted {
		if sorted[i].ID == networkID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNetwork, networkID)
	}

	other := idx - 1
	if dir == Down {
		other = idx + 1
	}
	if other < 0 || other >= len(sorted) {
		return sorted, nil
	}

	sorted[idx].Priority, sorted[other].Priority = sorted[other].Priority, sorted[idx].Priority
	sorted[idx], sorted[other] = sorted[other], sorted[idx]
	return sorted, nil
}

// Validate checks the invariants an admin update must keep: unique ids,
// fill rates within 0-100 and unique priorities among enabled networks.
func Validate(settings models.MediationSettings) error {
	ids := make(map[string]bool, len(settings.Networks))
	priorities := make(map[int]string, len(settings.Networks))
	for _, n := range settings.Networks {
		if n.ID == "" {
			return fmt.Errorf("%w: network id is required", ErrInvalidSettings)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate network %s", ErrInvalidSettings, n.ID)
		}
		ids[n.ID] = true
		if n.FillRate < 0 || n.FillRate > 100 {
			return fmt.Errorf("%w: fill rate of %s must be within 0-100", ErrInvalidSettings, n.ID)
		}
		if !n.IsEnabled {
			continue
		}
		if prev, ok := priorities[n.Priority]; ok {
			return fmt.Errorf("%w: %s and %s share priority %d", ErrInvalidSettings, prev, n.ID, n.Priority)
		}
		priorities[n.Priority] = n.ID
	}
	if settings.PrimaryNetworkID != "" && !ids[settings.PrimaryNetworkID] {
		return fmt.Errorf("%w: primary network %s is not configured", ErrInvalidSettings, settings.PrimaryNetworkID)
	}
	return nil
}
