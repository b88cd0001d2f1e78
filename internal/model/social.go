package model

import (
	"strings"
	"time"
)

// SocialLead is the handle-identity lead variant sourced from Instagram
// profile scrapes. The handle plays the role email plays for Lead.
type SocialLead struct {
	ID                int64     `json:"id,omitempty" csv:"-"`
	Handle            string    `json:"instagram_handle" csv:"instagram_handle"`
	FullName          string    `json:"full_name" csv:"full_name"`
	Bio               string    `json:"bio" csv:"bio"`
	FollowerCount     int       `json:"follower_count" csv:"follower_count"`
	FollowingCount    int       `json:"following_count" csv:"following_count"`
	PostCount         int       `json:"post_count" csv:"post_count"`
	Website           string    `json:"website" csv:"website"`
	IsBusinessAccount bool      `json:"is_business_account" csv:"is_business_account"`
	BusinessCategory  string    `json:"business_category" csv:"business_category"`
	IsVerified        bool      `json:"is_verified" csv:"is_verified"`
	LikelyUS          bool      `json:"likely_us" csv:"likely_us"`
	Score             int       `json:"score" csv:"score"`
	Status            string    `json:"status,omitempty" csv:"-"`
	ScrapedAt         time.Time `json:"scraped_at" csv:"scraped_at"`

	// Set by the outreach flow: EngagedAt records when the account was
	// marked engaged, DMDraft holds the generated opener for it.
	EngagedAt *time.Time `json:"engaged_at,omitempty" csv:"-"`
	DMDraft   string     `json:"dm_draft,omitempty" csv:"-"`
}

// FirstName returns the leading word of the full name, falling back to
// the handle when no name was scraped.
func (s SocialLead) FirstName() string {
	if fields := strings.Fields(s.FullName); len(fields) > 0 {
		return fields[0]
	}
	return s.DedupKey()
}

// DedupKey returns the normalized handle used for deduplication.
func (s SocialLead) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(s.Handle))
}
