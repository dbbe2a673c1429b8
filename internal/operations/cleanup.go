package operations

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kebairia/mongomail/internal/logger"
)

// CleanupReport lists what a cleanup removed and what it could not.
type CleanupReport struct {
	Removed []string
	Err     error
}

// Cleanup removes this run's dump directory, every archive in dir except
// keepArchive, and every stored mail API response. Each removal is
// independent: a failure is recorded and the rest still run. Only entries
// directly inside dir are considered.
func Cleanup(log logger.Logger, dir, dumpDir, keepArchive string) CleanupReport {
	var (
		report CleanupReport
		errs   []error
	)

	remove := func(path string, rm func(string) error) {
		if err := rm(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("cleanup failed", "path", path, "error", err)
			errs = append(errs, err)
			return
		}
		report.Removed = append(report.Removed, path)
		log.Debug("removed", "path", path)
	}

	remove(dumpDir, os.RemoveAll)

	entries, err := os.ReadDir(dir)
	if err != nil {
		errs = append(errs, fmt.Errorf("list backup directory: %w", err))
	}
	keep := filepath.Base(keepArchive)
	for _, e := range entries {
		name := e.Name()
		switch {
		case isArchive(name) && name != keep, isResponse(name):
			remove(filepath.Join(dir, name), os.Remove)
		}
	}

	report.Err = errors.Join(errs...)
	return report
}

func isArchive(name string) bool {
	return strings.HasSuffix(name, ArchiveExt)
}

func isResponse(name string) bool {
	ok, _ := filepath.Match(ResponsePattern, name)
	return ok
}
