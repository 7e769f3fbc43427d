package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func ScanImageKey(jobID uuid.UUID) string {
	return fmt.Sprintf("scan:image:%s", jobID)
}

func ScanMimeKey(jobID uuid.UUID) string {
	return fmt.Sprintf("scan:mime:%s", jobID)
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("scan:status:%s", jobID)
}
