package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const defaultNumberPrefix = "ZYC"

// NumberGenerator produces human-readable order numbers.
type NumberGenerator func() (string, error)

// NewNumberGenerator returns PREFIX-<unix millis>-<random hex>. Collisions are
// not impossible, only unlikely; the orders_order_number_key constraint catches
// the rest.
func NewNumberGenerator(prefix string, now func() time.Time) NumberGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	if now == nil {
		now = time.Now
	}
	return func() (string, error) {
		suffix := make([]byte, 3)
		if _, err := rand.Read(suffix); err != nil {
			return "", fmt.Errorf("order number entropy: %w", err)
		}
		return fmt.Sprintf("%s-%d-%s", prefix, now().UnixMilli(), strings.ToUpper(hex.EncodeToString(suffix))), nil
	}
}
