package models

import "time"

// GroupTitleMaxLength is the longest accepted group title.
const GroupTitleMaxLength = 200

// Group is a topical community that posts may be filed under.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Slug        string    `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (g Group) String() string {
	return g.Title
}
