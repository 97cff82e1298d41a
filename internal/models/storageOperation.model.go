package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StorageOperationKind string

const (
	StorageOperationMove   StorageOperationKind = "move"
	StorageOperationDelete StorageOperationKind = "delete"
)

type StorageOperationStatus string

const (
	StorageOperationPending    StorageOperationStatus = "pending"
	StorageOperationCompleted  StorageOperationStatus = "completed"
	StorageOperationFailed     StorageOperationStatus = "failed"
	StorageOperationSuperseded StorageOperationStatus = "superseded"
)

// StorageOperation is a write-ahead journal entry for an object store mutation
// that has to be reconciled with metadata rows. Move entries use Keys for the
// other locations the object may already sit at; delete entries for the
// objects to remove.
type StorageOperation struct {
	BaseUUIDModel
	UserID    uuid.UUID                   `gorm:"type:uuid;not null;index"         json:"userId"`
	Kind      StorageOperationKind        `gorm:"type:text;not null"               json:"kind"`
	FileID    *uuid.UUID                  `gorm:"type:uuid"                        json:"fileId,omitempty"`
	SourceKey string                      `gorm:"type:text"                        json:"sourceKey,omitempty"`
	TargetKey string                      `gorm:"type:text"                        json:"targetKey,omitempty"`
	Keys      datatypes.JSONSlice[string] `json:"keys,omitempty"`
	Status    StorageOperationStatus      `gorm:"type:text;not null;index"         json:"status"`
	Attempts  int                         `gorm:"not null;default:0"               json:"attempts"`
	LastError string                      `gorm:"type:text"                        json:"lastError,omitempty"`
}
