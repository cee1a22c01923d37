package models

import "time"

// Post is a text entry written by an author, optionally filed under a group
// and carrying an uploaded image.
//
// Deleting the author removes the post. Deleting the group keeps the post
// with GroupID set to NULL.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Text     string `gorm:"type:text;not null" json:"text"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint  `gorm:"index" json:"group_id,omitempty"`
	Group    *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is an opaque asset reference issued by the storage layer.
	Image string `gorm:"size:255" json:"image,omitempty"`
	// ImageURL is resolved from Image at presentation time; not persisted.
	ImageURL     string    `gorm:"-" json:"image_url,omitempty"`
	ThumbnailURL string    `gorm:"-" json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const postPreviewRunes = 15

// String returns the first 15 characters of the post text.
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) <= postPreviewRunes {
		return p.Text
	}
	return string(r[:postPreviewRunes])
}

// PostDetail bundles a post with its comments and the author's post count.
type PostDetail struct {
	Post            *Post     `json:"post"`
	Comments        []Comment `json:"comments"`
	AuthorPostCount int64     `json:"author_post_count"`
}
