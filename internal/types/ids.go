package types

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ParseID parses a required identifier from the boundary, reporting failures
// as ErrValidation against field.
func ParseID(field string, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", ErrValidation, field)
	}

	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid id", ErrValidation, field)
	}

	return id, nil
}
