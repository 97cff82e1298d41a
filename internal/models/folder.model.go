package models

import (
	"github.com/google/uuid"
)

type Folder struct {
	BaseUUIDModel
	Name     string     `gorm:"type:text;not null"                                     json:"name"`
	Slug     string     `gorm:"type:text;not null;index:idx_folders_owner_parent_slug,priority:3" json:"slug"`
	UserID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_folders_owner_parent_slug,priority:1" json:"userId"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_folders_owner_parent_slug,priority:2"          json:"parentId"`
}

// IsRoot reports whether the folder sits at the top level of its owner's tree.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
