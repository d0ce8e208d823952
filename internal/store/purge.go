package store

import (
	"fmt"
	"os"
)

// Purge removes the entire data directory tree: event logs, state files,
// and caches. Refuses to run without explicit confirmation from the caller.
func Purge(dataDir string, confirm bool) error {
	if !confirm {
		return fmt.Errorf("purge requires explicit confirmation")
	}
	if err := os.RemoveAll(dataDir); err != nil {
		return fmt.Errorf("remove data dir: %w", err)
	}
	return nil
}
