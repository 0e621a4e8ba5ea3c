// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"github.com/mileusna/useragent"
)

// Device classes stored on menu views.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// ParsedUA is the part of a user agent the tracker cares about.
type ParsedUA struct {
	DeviceType string
	Bot        bool
}

// ParseUserAgent classifies a user agent string.
func ParseUserAgent(uaString string) ParsedUA {
	if uaString == "" {
		return ParsedUA{DeviceType: DeviceUnknown}
	}

	ua := useragent.Parse(uaString)
	switch {
	case ua.Bot:
		return ParsedUA{DeviceType: DeviceBot, Bot: true}
	case ua.Tablet:
		return ParsedUA{DeviceType: DeviceTablet}
	case ua.Mobile:
		return ParsedUA{DeviceType: DeviceMobile}
	default:
		return ParsedUA{DeviceType: DeviceDesktop}
	}
}
