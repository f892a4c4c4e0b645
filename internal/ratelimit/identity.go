package ratelimit

import (
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// UnknownIdentity is used when neither a session id nor an origin hint is present
const UnknownIdentity = "unknown"

// originHeaders are consulted in priority order when no session id is supplied
var originHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
}

// ResolveIdentity derives the rate-limit identity for a caller. The declared
// session id wins; otherwise the first network origin hint is used. Network
// addresses are hashed so raw IPs never reach the counter store.
func ResolveIdentity(sessionID string, header http.Header) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return "session:" + id
	}

	for _, name := range originHeaders {
		value := strings.TrimSpace(header.Get(name))
		if value == "" {
			continue
		}
		// X-Forwarded-For carries a chain; the client is the first hop
		if first, _, found := strings.Cut(value, ","); found {
			value = strings.TrimSpace(first)
		}
		if value != "" {
			return "ip:" + hashOrigin(value)
		}
	}

	return UnknownIdentity
}

func hashOrigin(addr string) string {
	sum := blake2b.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:16])
}
