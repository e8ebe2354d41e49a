package domain

import (
	"strings"
	"time"
)

// UserProfile holds the subscriber's interest keywords. This subsystem only
// reads it; the profile is owned and written elsewhere.
type UserProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Interests string    `gorm:"type:text" json:"interests"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string {
	return "user_profile"
}

// Keywords splits the comma-separated interests into trimmed, non-empty
// keyword strings, preserving order.
func (p *UserProfile) Keywords() []string {
	if p == nil || p.Interests == "" {
		return nil
	}
	parts := strings.Split(p.Interests, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if kw := strings.TrimSpace(part); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
