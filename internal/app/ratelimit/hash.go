package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// HashIdentity derives the privacy-preserving client identity: a one-way
// SHA-256 digest of the identifier, hex-encoded. The raw identifier is never
// persisted or logged. An empty identifier hashes to the empty string so the
// limiter fails open.
func HashIdentity(identifier string) string {
	if identifier == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])
}

// ClientIP extracts the caller's public IP from the request. Any failure
// yields the empty string, which the limiter treats as "allow".
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First address in the list is the originating client.
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	return host
}
