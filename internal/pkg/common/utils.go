package common

import (
	"github.com/google/uuid"
)

// GenerateUUID returns a random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// StringOr returns s, or fallback when s is empty.
func StringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
