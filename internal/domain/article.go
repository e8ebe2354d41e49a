package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Article represents a content record eligible for topic enrichment.
// Producers hand over already-deduplicated records keyed by (source, source_id);
// only the result applier mutates the enrichment fields.
type Article struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	Source      string      `gorm:"type:text;not null;index:idx_articles_source,unique" json:"source"`
	SourceID    string      `gorm:"type:text;not null;index:idx_articles_source,unique" json:"source_id"`
	Title       string      `gorm:"type:text;not null" json:"title"`
	Authors     string      `gorm:"type:text" json:"authors,omitempty"`
	Abstract    string      `gorm:"type:text" json:"abstract,omitempty"`
	URL         string      `gorm:"type:text" json:"url,omitempty"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	FetchedAt   time.Time   `gorm:"index" json:"fetched_at"`
	Topics      StringArray `gorm:"type:text" json:"topics"`
	Processed   bool        `gorm:"default:false;index:idx_articles_processed" json:"processed"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
	// BatchJobID references the open batch job this article was submitted
	// with. Cleared when the job fails so the article is re-selectable.
	BatchJobID string    `gorm:"type:text;index:idx_articles_batch_job" json:"batch_job_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string {
	return "articles"
}
