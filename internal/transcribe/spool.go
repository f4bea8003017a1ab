package transcribe

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	// removeAttempts bounds how often a spool file removal is retried.
	// Antivirus scanners and slow filesystems occasionally hold a fresh
	// temp file open for a moment after close.
	removeAttempts = 3
	removeBackoff  = 50 * time.Millisecond
)

// spool writes data to a fresh temp file and returns its path together with
// a cleanup function. cleanup retries removal up to removeAttempts times and
// logs when the file ultimately survives; it is safe to call exactly once on
// every exit path.
func spool(dir string, data []byte, suffix string) (string, func(), error) {
	f, err := os.CreateTemp(dir, "clip-*"+suffix)
	if err != nil {
		return "", nil, fmt.Errorf("transcribe: create spool file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		removeWithRetry(path)
		return "", nil, fmt.Errorf("transcribe: write spool file: %w", err)
	}
	if err := f.Close(); err != nil {
		removeWithRetry(path)
		return "", nil, fmt.Errorf("transcribe: close spool file: %w", err)
	}

	return path, func() { removeWithRetry(path) }, nil
}

// removeWithRetry deletes path, retrying transient failures with a short
// backoff. A file that is already gone counts as success.
func removeWithRetry(path string) {
	var err error
	for attempt := 1; attempt <= removeAttempts; attempt++ {
		err = os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return
		}
		if attempt < removeAttempts {
			time.Sleep(removeBackoff)
		}
	}
	slog.Warn("failed to remove spool file", "path", path, "error", err)
}
