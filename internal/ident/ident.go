package ident

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Entity prefixes used across the application. Keep these stable: IDs are
// stored as plain text and external systems key off the prefix.
const (
	PrefixOrganisation = "org"
	PrefixUser         = "user"
	PrefixContact      = "cont"
	PrefixConversation = "conv"
	PrefixMessage      = "msg"
	PrefixFile         = "file"
)

// New returns a collision-resistant identifier of the form
// "<prefix>_<32 hex chars>", e.g. "conv_9f86d081884c7d65...".
// The random part is a UUIDv4 with the dashes stripped.
func New(prefix string) string {
	id := uuid.New()
	return prefix + "_" + hex.EncodeToString(id[:])
}

// HasPrefix reports whether id carries the given entity prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_")
}
