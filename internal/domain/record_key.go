package domain

import (
	"strings"

	"github.com/google/uuid"
)

// recordKeyNamespace scopes keys derived from identifiers that are not UUIDs.
var recordKeyNamespace = uuid.MustParse("0b6f3f0e-7d0c-4b8e-9d5a-3c1f8a2e6b41")

// RecordKey converts a provider record identifier into the 16-byte key stored
// alongside an occurrence.
//
// Identifiers spelled as a UUID (hyphenated, bare hex, braced or urn:uuid:)
// are taken as the key itself. Any other non-empty identifier is hashed into a
// name-based UUID so it still de-duplicates across runs. An empty identifier
// has no key.
func RecordKey(id string) (uuid.UUID, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.Nil, false
	}

	if key, err := uuid.Parse(id); err == nil {
		return key, true
	}

	return uuid.NewSHA1(recordKeyNamespace, []byte(id)), true
}
