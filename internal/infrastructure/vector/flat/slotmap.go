package flat

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/calyptra/regqa/internal/core/domain"
)

// SlotMap resolves vector index slots to fragment row ids. The artifact is a
// JSON array aligned with index insertion order: slot i maps to element i.
// Built once per index build, read-only at query time.
type SlotMap []int64

// LoadSlotMap reads the slot-to-rowid artifact from disk.
func LoadSlotMap(path string) (SlotMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "load slot map", err)
	}
	var m SlotMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.WrapError(domain.ErrIndexUnavailable, "parse slot map", err)
	}
	return m, nil
}

// RowID resolves one slot. The second return is false for slots outside the
// mapping, which callers skip.
func (m SlotMap) RowID(slot int) (int64, bool) {
	if slot < 0 || slot >= len(m) {
		return 0, false
	}
	return m[slot], true
}

// Write persists the mapping next to the index artifact.
func (m SlotMap) Write(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal slot map: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write slot map: %w", err)
	}
	return nil
}
