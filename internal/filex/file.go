// Package filex prepares local paths the store and the log sink write to.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureParentDir creates the directory that will hold the file at path.
// A bare file name needs nothing.
func EnsureParentDir(path string) (string, error) {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return dir, nil
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SQLiteFile extracts the database file from a sqlite DSN such as
// "file:data/kidsync.db?_pragma=busy_timeout(5000)". In-memory databases
// yield "".
func SQLiteFile(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || strings.Contains(path, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}
