// Package model defines database models
package model

import "time"

type File struct {
	ID uint `gorm:"primaryKey;autoIncrement;index" json:"id"`

	// S3 object key. Timestamp-prefixed so two files with the same
	// original name never collide
	Key string `gorm:"uniqueIndex;not null" json:"key"`

	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`

	// Resolvable location of the blob. Direct bucket URL, clients fall
	// back to the presign endpoint when the bucket isn't public
	URL string `json:"url"`

	IsFavorite bool `gorm:"default:false" json:"is_favorite"`
	IsTrash    bool `gorm:"default:false" json:"is_trash"`

	// Unix millisecond timestamp
	CreatedAt int64 `gorm:"not null" json:"created_at"`
}

// ListedFile is the wire shape of a file in list responses. Field names
// follow the S3-native casing the frontend was built against, with the
// metadata flags mixed in.
type ListedFile struct {
	ID           uint      `json:"_id"`
	Key          string    `json:"Key"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified"`
	IsFavorite   bool      `json:"isFavorite"`
	IsTrash      bool      `json:"isTrash"`
}

// Listed reshapes a record into the listing contract.
func (f *File) Listed() ListedFile {
	return ListedFile{
		ID:           f.ID,
		Key:          f.Key,
		Size:         f.Size,
		LastModified: time.UnixMilli(f.CreatedAt).UTC(),
		IsFavorite:   f.IsFavorite,
		IsTrash:      f.IsTrash,
	}
}

// FlagPatch is a partial update of the two mutable flags. Nil fields are
// left untouched.
type FlagPatch struct {
	IsFavorite *bool `json:"isFavorite"`
	IsTrash    *bool `json:"isTrash"`
}

// Empty reports whether the patch changes nothing.
func (p FlagPatch) Empty() bool {
	return p.IsFavorite == nil && p.IsTrash == nil
}
