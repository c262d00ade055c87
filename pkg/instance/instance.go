package instance

import (
	"os"
	"strings"
)

// GetID returns the process instance identifier. ZYCART_INSTANCE_ID wins over
// the platform-provided DYNO; fallback is used when neither is set.
func GetID(fallback string) string {
	for _, key := range []string{"ZYCART_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return fallback
}
