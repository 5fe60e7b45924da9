// Package fingerprint computes a content hash of a catalog.Catalog so
// cmd/pgdrift apply can detect that the live database drifted between
// when a plan was computed and when it is executed. Grounded on the
// teacher's internal/fingerprint package, rewired from ir.IR onto
// catalog.Catalog.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

// SchemaFingerprint is a content hash of a catalog's managed schemas.
type SchemaFingerprint struct {
	Hash string `json:"hash"`
}

// Compute hashes the given schemas of cat (defaulting to all schemas
// when schemaNames is empty), ignoring schemas outside that set so an
// unrelated schema's drift doesn't false-positive an apply.
func Compute(cat *catalog.Catalog, schemaNames []string) (*SchemaFingerprint, error) {
	subset := map[string]*catalog.Schema{}
	if len(schemaNames) == 0 {
		subset = cat.Schemas
	} else {
		for _, name := range schemaNames {
			if s, ok := cat.Schemas[name]; ok {
				subset[name] = s
			}
		}
	}

	hash, err := hashObject(subset)
	if err != nil {
		return nil, fmt.Errorf("compute schema fingerprint: %w", err)
	}
	return &SchemaFingerprint{Hash: hash}, nil
}

func hashObject(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// String returns a short human-readable preview of the fingerprint.
func (f *SchemaFingerprint) String() string {
	if len(f.Hash) >= 8 {
		return fmt.Sprintf("Schema fingerprint: %s", f.Hash[:8])
	}
	return fmt.Sprintf("Schema fingerprint: %s", f.Hash)
}
