package types

import (
	"strings"

	"github.com/google/uuid"
)

// RootFolderRef is the wire sentinel for the root level. It is equivalent to
// an omitted or null folder reference.
const RootFolderRef = "root"

// ParseFolderRef normalizes a folder reference from the boundary. Empty and
// "root" resolve to nil (root level).
func ParseFolderRef(ref string) (*uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == RootFolderRef || ref == "null" {
		return nil, nil
	}

	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// PathSegment is one ancestor in a root-first folder path.
type PathSegment struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parentId"`
}

// NotificationType classifies a user notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationInfo    NotificationType = "INFO"
	NotificationWarning NotificationType = "WARNING"
)
