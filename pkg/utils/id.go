package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a prefixed identifier like "run-9f2c...".
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
