package repository

import (
	"errors"
	"fmt"

	"github.com/staffsched/approvals/internal/approval"

	"gorm.io/gorm"
)

// translate maps gorm's not-found onto the workflow taxonomy so callers only test approval sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, approval.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
