package scorer

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

// Model is a loaded set of scoring parameters. Models are immutable once
// built and are shared by pointer: every query that resolves to the same
// cache entry receives the same *Model.
type Model struct {
	// Key is the condition the parameters were actually loaded for. After a
	// fallback it differs from the query key.
	Key condition.Key
	// Source names the source that served the file.
	Source string
	Role   paramsource.Role
	// Digest is "sha256:" followed by the hex digest of Params.
	Digest   string
	Params   []byte
	LoadedAt time.Time
}

func newModel(key condition.Key, source string, role paramsource.Role, data []byte) *Model {
	sum := sha256.Sum256(data)
	return &Model{
		Key:      key,
		Source:   source,
		Role:     role,
		Digest:   "sha256:" + hex.EncodeToString(sum[:]),
		Params:   data,
		LoadedAt: time.Now().UTC(),
	}
}

// Name is the canonical name of the condition the model was loaded for.
func (m *Model) Name() string { return m.Key.Name() }
