package models

import (
	"time"
)

// MediationNetwork is one ad network taking part in the waterfall
type MediationNetwork struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsEnabled bool   `json:"isEnabled"`
	Priority  int    `json:"priority"` // Lower value is requested first
	FillRate  int    `json:"fillRate"` // Simulated fill probability, 0-100
}

// AdUnitConfig holds the ad unit ids of the primary network
type AdUnitConfig struct {
	AppID          string `json:"appId"`
	RewardedID     string `json:"rewardedId"`
	InterstitialID string `json:"interstitialId"`
	BannerID       string `json:"bannerId"`
}

// MediationSettings represents the ad-serving configuration managed by the admin
type MediationSettings struct {
	WaterfallEnabled bool               `json:"waterfallEnabled"`
	PrimaryNetworkID string             `json:"primaryNetworkId"`
	AdUnits          AdUnitConfig       `json:"adUnits"`
	Networks         []MediationNetwork `json:"networks"`
	UpdatedAt        time.Time          `json:"updatedAt,omitempty"`
	UpdatedBy        string             `json:"updatedBy,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate the stored network slice
func (m MediationSettings) Clone() MediationSettings {
	out := m
	out.Networks = append([]MediationNetwork(nil), m.Networks...)
	return out
}

// FindNetwork returns the index of the network with the given id, or -1
func (m *MediationSettings) FindNetwork(id string) int {
	for i := range m.Networks {
		if m.Networks[i].ID == id {
			return i
		}
	}
	return -1
}

// DefaultMediationSettings returns the seeded waterfall (Google test ad unit ids)
func DefaultMediationSettings() MediationSettings {
	return MediationSettings{
		WaterfallEnabled: true,
		PrimaryNetworkID: "admob",
		AdUnits: AdUnitConfig{
			AppID:          "ca-app-pub-3940256099942544~3347511713",
			RewardedID:     "ca-app-pub-3940256099942544/5224354917",
			InterstitialID: "ca-app-pub-3940256099942544/1033173712",
			BannerID:       "ca-app-pub-3940256099942544/6300978111",
		},
		Networks: []MediationNetwork{
			{ID: "admob", Name: "Google AdMob", IsEnabled: true, Priority: 1, FillRate: 90},
			{ID: "unity", Name: "Unity Ads", IsEnabled: true, Priority: 2, FillRate: 70},
			{ID: "applovin", Name: "AppLovin", IsEnabled: true, Priority: 3, FillRate: 60},
			{ID: "ironsource", Name: "ironSource", IsEnabled: true, Priority: 4, FillRate: 50},
		},
	}
}

// MoveNetworkRequest is the body of POST /admin/mediation/networks/:id/move
type MoveNetworkRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// FillRateRequest is the body of PUT /admin/mediation/networks/:id/fill-rate
type FillRateRequest struct {
	FillRate *int `json:"fillRate" binding:"required"`
}

// WaterfallAttempt is one probe of a waterfall run
type WaterfallAttempt struct {
	NetworkID string  `json:"networkId"`
	Network   string  `json:"network"`
	Priority  int     `json:"priority"`
	Draw      float64 `json:"draw"`
	Filled    bool    `json:"filled"`
}

// WaterfallResult is the outcome of a successful waterfall run
type WaterfallResult struct {
	Network  MediationNetwork   `json:"network"`
	AdUnitID string             `json:"adUnitId,omitempty"`
	Attempts []WaterfallAttempt `json:"attempts"`
}
