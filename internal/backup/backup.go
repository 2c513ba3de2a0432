// Package backup implements export and import of the durable studio
// state as a single versioned JSON document.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/store"
	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

// Version identifies the backup document format.
const Version = "4.0"

// Payload is the backup document. Only user-owned state is included:
// system presets are rebuilt from code and never exported.
type Payload struct {
	Version      string                   `json:"version"`
	ExportedAt   string                   `json:"exportedAt"`
	Presets      []studio.Preset          `json:"presets"`
	Ambiences    []studio.Ambience        `json:"ambiences"`
	History      []studio.HistoryMetadata `json:"history"`
	CurrentDraft *studio.FormData         `json:"currentDraft,omitempty"`
}

// Export assembles a backup document from the store and the live draft.
func Export(st *store.Store, draft *studio.FormData) (Payload, error) {
	presets, err := st.ListPresets()
	if err != nil {
		return Payload{}, fmt.Errorf("list presets: %w", err)
	}
	ambiences, err := st.ListAmbiences()
	if err != nil {
		return Payload{}, fmt.Errorf("list ambiences: %w", err)
	}
	history, err := st.ListHistory()
	if err != nil {
		return Payload{}, fmt.Errorf("list history: %w", err)
	}

	return Payload{
		Version:      Version,
		ExportedAt:   time.Now().UTC().Format(time.RFC3339),
		Presets:      presets,
		Ambiences:    ambiences,
		History:      history,
		CurrentDraft: draft,
	}, nil
}

// WriteTo serializes the payload as indented JSON.
func (p Payload) WriteTo(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// Parse decodes a backup document without touching any storage. Restore
// is best-effort: missing or legacy versions and absent sections are all
// tolerated, only malformed JSON is rejected.
func Parse(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decode backup: %w", err)
	}
	return p, nil
}

// Apply writes a parsed backup into the store. The document was fully
// validated before the first write, so a malformed file never leaves the
// store half-imported. Returns the imported draft (nil when the backup
// carried none) so the caller can load it into the session.
func Apply(st *store.Store, p Payload) (*studio.FormData, error) {
	for _, preset := range p.Presets {
		if preset.IsSystem {
			continue
		}
		if err := st.SavePreset(preset); err != nil {
			return nil, fmt.Errorf("import preset %s: %w", preset.ID, err)
		}
	}
	for _, ambience := range p.Ambiences {
		ambience.IsCustom = true
		if err := st.SaveAmbience(ambience); err != nil {
			return nil, fmt.Errorf("import ambience %s: %w", ambience.ID, err)
		}
	}
	if len(p.History) > 0 {
		if err := st.ReplaceHistory(p.History); err != nil {
			return nil, fmt.Errorf("import history: %w", err)
		}
	}
	if p.CurrentDraft != nil {
		if err := st.SaveDraft(*p.CurrentDraft); err != nil {
			return nil, fmt.Errorf("import draft: %w", err)
		}
	}
	return p.CurrentDraft, nil
}
