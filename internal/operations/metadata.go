package operations

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const MetadataFilename = "metadata.json"

// Metadata describes one dump. It is written into the dump directory and
// therefore travels inside the archive.
type Metadata struct {
	Engine       string    `json:"engine"`
	Database     string    `json:"database"`
	Host         string    `json:"host"`
	Port         string    `json:"port"`
	AuthDatabase string    `json:"auth_database,omitempty"`
	RunID        string    `json:"run_id"`
	Timestamp    string    `json:"timestamp"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	DurationMS   int64     `json:"duration_ms"`
	SizeBytes    int64     `json:"size_bytes"`
}

// LoadMetadata reads dir/metadata.json.
func LoadMetadata(dir string) (Metadata, error) {
	var m Metadata
	data, err := os.ReadFile(filepath.Join(dir, MetadataFilename))
	if err != nil {
		return m, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode metadata JSON: %w", err)
	}
	return m, nil
}

// Write stores the metadata as dir/metadata.json.
func (m *Metadata) Write(dir string) error {
	f, err := os.Create(filepath.Join(dir, MetadataFilename))
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode metadata JSON: %w", err)
	}
	return f.Close()
}

// DirSize sums the sizes of the regular files under dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
