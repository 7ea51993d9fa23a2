package models

import (
	"strings"
	"time"
)

// Post represents a single original post fetched from the list view.
// Instances are immutable once fetched; posts are never merged across
// cycles except by ID for deduplication.
type Post struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	HasImage    bool      `json:"has_image"`
}

// AuthorKey returns the key used for cooldown bookkeeping: the handle
// if present, else the display name, else "unknown". Distinct authors
// with neither field collide under "unknown"; that is accepted.
func (p Post) AuthorKey() string {
	switch {
	case p.Username != "":
		return strings.ToLower(p.Username)
	case p.DisplayName != "":
		return strings.ToLower(p.DisplayName)
	default:
		return "unknown"
	}
}

// DailyStats is the persisted daily reply quota record.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
