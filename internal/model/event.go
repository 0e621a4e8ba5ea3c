// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryMenu      = "menu"
	EventCategoryPromotion = "promotion"
	EventCategoryAnalytics = "analytics"
	EventCategoryCache     = "cache"
	EventCategorySystem    = "system"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"` // JSON string
	CreatedAt time.Time `json:"created_at"`
}

// MaxUserAgentLength bounds the stored user agent.
const MaxUserAgentLength = 512

// MenuView is one tracked visit to a public menu.
type MenuView struct {
	MenuID      string
	UserAgent   string
	DeviceType  string
	CountryCode string
	CreatedAt   time.Time
}

// PromoClick is one tracked click on a promotion card.
type PromoClick struct {
	PromotionID string
	CreatedAt   time.Time
}

// DailyStat is the rolled-up analytics of one menu for one day.
type DailyStat struct {
	Day    time.Time `json:"day"`
	Views  int       `json:"views"`
	Clicks int       `json:"clicks"`
}
