package rules

import (
	"errors"
	"fmt"
	"regexp"

	"fileforge/internal/types"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const MaxNameLength = 255

var (
	// ID is a required, well formed identifier.
	ID = []validation.Rule{validation.Required, is.UUID}

	// Name is a display name usable as a single path segment.
	Name = []validation.Rule{
		validation.Required,
		validation.Length(1, MaxNameLength),
		validation.Match(regexp.MustCompile(`^[^/\\]+$`)).Error("must not contain slashes"),
	}

	// FolderRef accepts a folder id or the root sentinel.
	FolderRef = validation.By(func(value any) error {
		value, isNil := validation.Indirect(value)
		if isNil {
			return nil
		}

		ref, ok := value.(string)
		if !ok {
			return errors.New("must be a string")
		}

		if _, err := types.ParseFolderRef(ref); err != nil {
			return errors.New("must be a folder id or \"root\"")
		}
		return nil
	})
)

// Check runs ozzo validation and reports failures as types.ErrValidation.
func Check(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	return fmt.Errorf("%w: %s", types.ErrValidation, err.Error())
}
