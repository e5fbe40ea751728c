// Package archive implements the portable backup container: a zip file
// holding the serialized cards and dashboards plus a versioned manifest.
// Every reference between items must resolve inside the container, except
// for database ids, which are remapped at restore time.
package archive

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/metasync-tools/metasync/internal/content"
)

// FormatVersion is the archive schema version this build reads and writes.
const FormatVersion = 1

const (
	manifestEntry   = "manifest.json"
	cardsEntry      = "cards.json"
	dashboardsEntry = "dashboards.json"
)

// Manifest describes an archive: its schema version, a unique id, and
// provenance of the snapshot.
type Manifest struct {
	FormatVersion  int       `json:"format_version"`
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	SourceVersion  string    `json:"source_version,omitempty"`
	CardCount      int       `json:"card_count"`
	DashboardCount int       `json:"dashboard_count"`
}

// Archive is a snapshot of an instance's cards and dashboards, keyed by
// their origin-instance identifiers.
type Archive struct {
	Manifest   Manifest
	Cards      []content.Card
	Dashboards []content.Dashboard
}

// New builds an archive around the given content and stamps its manifest.
func New(cards []content.Card, dashboards []content.Dashboard, sourceVersion string) *Archive {
	return &Archive{
		Manifest: Manifest{
			FormatVersion:  FormatVersion,
			ID:             uuid.NewString(),
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
			SourceVersion:  sourceVersion,
			CardCount:      len(cards),
			DashboardCount: len(dashboards),
		},
		Cards:      cards,
		Dashboards: dashboards,
	}
}

// Card returns the archived card with the given origin id.
func (a *Archive) Card(id int64) (content.Card, bool) {
	for _, c := range a.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return content.Card{}, false
}

// Validate checks the archive invariants: ids unique per type, and every
// saved-question and dashboard reference resolving inside the archive.
func (a *Archive) Validate() error {
	cardIDs := make(map[int64]bool, len(a.Cards))
	for _, c := range a.Cards {
		if cardIDs[c.ID] {
			return &content.ValidationError{Kind: "card", ID: c.ID, Name: c.Name, Reason: "duplicate card id in archive"}
		}
		cardIDs[c.ID] = true
	}
	dashIDs := make(map[int64]bool, len(a.Dashboards))
	for _, d := range a.Dashboards {
		if dashIDs[d.ID] {
			return &content.ValidationError{Kind: "dashboard", ID: d.ID, Name: d.Name, Reason: "duplicate dashboard id in archive"}
		}
		dashIDs[d.ID] = true
	}
	for _, c := range a.Cards {
		ref, ok, err := c.SourceCardRef()
		if err != nil {
			return err
		}
		if ok && !cardIDs[ref] {
			return &content.ValidationError{
				Kind: "card", ID: c.ID, Name: c.Name,
				Reason: fmt.Sprintf("references card %d which is not in the archive", ref),
			}
		}
	}
	for _, d := range a.Dashboards {
		for _, ref := range d.CardIDs() {
			if !cardIDs[ref] {
				return &content.ValidationError{
					Kind: "dashboard", ID: d.ID, Name: d.Name,
					Reason: fmt.Sprintf("references card %d which is not in the archive", ref),
				}
			}
		}
	}
	return nil
}

// Write serializes the archive to a zip file at path.
func Write(path string, a *Archive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries := []struct {
		name string
		data any
	}{
		{manifestEntry, a.Manifest},
		{cardsEntry, a.Cards},
		{dashboardsEntry, a.Dashboards},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("failed to create archive entry %s: %w", e.name, err)
		}
		if err := json.NewEncoder(w).Encode(e.data); err != nil {
			return fmt.Errorf("failed to encode %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// Read loads and validates an archive from a zip file at path.
func Read(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer zr.Close()

	a := &Archive{}
	if err := readEntry(&zr.Reader, manifestEntry, &a.Manifest); err != nil {
		return nil, err
	}
	if a.Manifest.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported archive format version %d (this build reads version %d)",
			a.Manifest.FormatVersion, FormatVersion)
	}
	if err := readEntry(&zr.Reader, cardsEntry, &a.Cards); err != nil {
		return nil, err
	}
	if err := readEntry(&zr.Reader, dashboardsEntry, &a.Dashboards); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func readEntry(zr *zip.Reader, name string, out any) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("archive is missing entry %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read archive entry %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode archive entry %s: %w", name, err)
	}
	return nil
}
