package auth

import (
	"encoding/hex"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// VisitorHeader carries the opaque token a browser keeps for anonymous visits.
const VisitorHeader = "X-Visitor-Id"

// VisitorPrefix marks actor ids derived from visitor tokens.
const VisitorPrefix = "anon:"

// VisitorHasher turns client-held visitor tokens into stable actor ids.
// The raw token never reaches storage.
type VisitorHasher struct {
	Key []byte
}

// ActorID returns "anon:<hex>" for token, or "" if token is blank.
func (h VisitorHasher) ActorID(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	key := h.Key
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	mac, err := blake2b.New256(key)
	if err != nil {
		return ""
	}
	_, _ = mac.Write([]byte(token))
	return VisitorPrefix + hex.EncodeToString(mac.Sum(nil))
}

// FromRequest hashes the visitor header of r.
func (h VisitorHasher) FromRequest(r *http.Request) string {
	return h.ActorID(r.Header.Get(VisitorHeader))
}
