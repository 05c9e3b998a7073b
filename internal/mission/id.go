package mission

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// typePrefixes maps mission types to the 3-letter id prefix.
var typePrefixes = map[Type]string{
	TypeDevelopment:   "dev",
	TypeAudit:         "aud",
	TypeTesting:       "tst",
	TypeDeployment:    "dep",
	TypeMaintenance:   "mnt",
	TypeResearch:      "rsc",
	TypeDocumentation: "doc",
	TypeSecurity:      "sec",
	TypeIntegration:   "int",
}

// NewID generates a mission id of the form <prefix>-<year>-<8 hex chars>,
// e.g. "aud-2026-9f3a1c0b". The random component comes from crypto/rand,
// so concurrent calls with identical input never collide in practice.
func NewID(t Type) (string, error) {
	prefix, ok := typePrefixes[t]
	if !ok {
		return "", fmt.Errorf("unknown mission type %q", t)
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().Year(), hex.EncodeToString(buf)), nil
}
