// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// NoImage marks a chapter whose cover image could not be found in the listing.
const NoImage = "nf"

// User is a Telegram chat that has talked to the bot.
type User struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// TrackedTitle is a manga title a user wants chapter notifications for.
type TrackedTitle struct {
	OwnerID   int64
	Title     string
	CreatedAt time.Time
}

// Slug returns the normalized form of the title used to match listing links.
func (t TrackedTitle) Slug() string {
	return Slugify(t.Title)
}

// Slugify lowercases a title and replaces spaces with hyphens.
func Slugify(title string) string {
	return strings.ReplaceAll(strings.ToLower(title), " ", "-")
}

// ListingEntry is a chapter row of the listing page that matched a slug.
type ListingEntry struct {
	TitleSlugCandidate string
	ChapterLabel       string
	ChapterURL         string
	RelativeTimeText   string
	CoverImageURL      string
}

// ScanResult is a matched chapter with its recency classification.
type ScanResult struct {
	ChapterLabel     string
	ChapterURL       string
	RelativeTimeText string
	CoverImageURL    string
	IsRecent         bool
}

// ConversationMode defines how the next free-text message of a chat is read.
type ConversationMode int

// Supported conversation modes.
const (
	ModeIdle ConversationMode = iota
	ModeAwaitingAdd
	ModeAwaitingDelete
)

func (m ConversationMode) String() string {
	switch m {
	case ModeAwaitingAdd:
		return "awaiting_add"
	case ModeAwaitingDelete:
		return "awaiting_delete"
	default:
		return "idle"
	}
}

// ConversationState is the in-memory state of a single chat.
type ConversationState struct {
	ChatID    int64
	Mode      ConversationMode
	ExpiresAt time.Time
}
