package model

import "time"

const DefaultPageTheme = "classic"

// PageConfig holds the default settings row for a page. Created on first
// redemption, updated in place afterwards; there is never more than one row
// per page.
type PageConfig struct {
	PageID    string
	Title     string
	OwnerName string
	Greeting  string
	Theme     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPageConfig(pageID, title, ownerName, greeting string) *PageConfig {
	now := time.Now()
	return &PageConfig{
		PageID:    pageID,
		Title:     title,
		OwnerName: ownerName,
		Greeting:  greeting,
		Theme:     DefaultPageTheme,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
