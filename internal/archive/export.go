package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/oakhamlabs/waypost/internal/snapshot"
)

// envelope wraps an archived snapshot with export metadata.
type envelope struct {
	Version    string             `json:"version"`
	ArchivedAt time.Time          `json:"archived_at"`
	Snapshot   *snapshot.Snapshot `json:"snapshot"`
}

// Export writes the snapshot to w as a single JSON document.
func Export(w io.Writer, snap *snapshot.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(envelope{
		Version:    "1",
		ArchivedAt: time.Now().UTC(),
		Snapshot:   snap,
	}); err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}
	return nil
}
