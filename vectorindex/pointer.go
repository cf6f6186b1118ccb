package vectorindex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// pointerFile names the file holding the currently promoted collection name.
// The query path reads it at startup instead of a hardcoded collection, so a
// rebuild becomes visible without redeployment.
const pointerFile = "CURRENT"

// CollectionName builds a fresh collection name embedding a creation
// timestamp, letting stale and fresh collections coexist during a rebuild.
func CollectionName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%d", prefix, now.Unix())
}

// CurrentCollection reads the promoted collection name from the data
// directory. It returns fallback when no pointer has been written yet.
func CurrentCollection(dataDir, fallback string) string {
	data, err := os.ReadFile(filepath.Join(dataDir, pointerFile))
	if err != nil {
		return fallback
	}
	name := strings.TrimSpace(string(data))
	if name == "" {
		return fallback
	}
	return name
}

// Promote atomically repoints the current collection to name. The pointer is
// written to a temp file and renamed into place, so a reader either sees the
// previous collection or the new one, never a partial write.
func Promote(dataDir, name string) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("could not create data dir: %w", err)
	}
	tmp := filepath.Join(dataDir, pointerFile+".tmp-"+uuid.New().String())
	if err := os.WriteFile(tmp, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("could not write collection pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dataDir, pointerFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("could not promote collection %s: %w", name, err)
	}
	return nil
}
