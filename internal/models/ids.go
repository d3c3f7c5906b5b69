// internal/models/ids.go
package models

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes every derived id so repeated runs over the same batch yield the same ids.
var idNamespace = uuid.MustParse("6f1c8f0e-4b7a-5d2e-9c3f-0a1b2c3d4e5f")

// DeriveID returns a UUIDv5 built from the entity kind and its identifying parts.
func DeriveID(kind string, parts ...string) string {
	name := kind + "|" + strings.Join(parts, "|")
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
