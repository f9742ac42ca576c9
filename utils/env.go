package utils

import (
	"os"
	"strconv"
)

// GetenvInt returns the integer value of the environment variable named by key, or
// defaultVal if it is unset or not an integer.
func GetenvInt(key string, defaultVal int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
