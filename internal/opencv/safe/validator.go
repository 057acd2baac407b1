package safe

import (
	"github.com/pkg/errors"
)

const maxSide = 32768

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return errors.Errorf("Mat is nil for operation: %s", operation)
	}
	if !mat.IsValid() {
		return errors.Errorf("Mat is closed for operation: %s", operation)
	}
	if mat.Empty() {
		return errors.Errorf("Mat is empty for operation: %s", operation)
	}
	return nil
}

func ValidateChannels(mat *Mat, want int, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}
	if got := mat.Channels(); got != want {
		return errors.Errorf("%s needs %d channels, got %d", operation, want, got)
	}
	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}
	if width > maxSide || height > maxSide {
		return errors.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}
	return nil
}
