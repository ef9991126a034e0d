package utils

import (
	"strconv"
	"strings"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// OptionalString returns nil for a blank query value.
func OptionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// OptionalInt returns nil when value is blank or not a number.
func OptionalInt(value string) *int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil
	}
	return &result
}
