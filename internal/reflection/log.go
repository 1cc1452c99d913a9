package reflection

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/preflight/internal/filelock"
)

// LogFileName is the reflection log file within the log directory.
const LogFileName = "reflection_log.json"

// logEntry is one recorded assessment.
type logEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Assessment *Assessment `json:"assessment"`
}

type reflectionLog struct {
	Reflections []logEntry `json:"reflections"`
}

// RecordReflection appends the assessment to the reflection log. The log is
// rewritten atomically under a file lock; callers treat a returned error as
// diagnostic rather than fatal.
func (e *Engine) RecordReflection(a *Assessment) error {
	if e.logDir == "" {
		return nil
	}

	path := filepath.Join(e.logDir, LogFileName)
	return filelock.WithLock(path, func() error {
		log := reflectionLog{Reflections: []logEntry{}}

		data, err := os.ReadFile(path)
		if err == nil {
			if err := json.Unmarshal(data, &log); err != nil {
				// A corrupt log is replaced rather than blocking
				// future reflections.
				log = reflectionLog{Reflections: []logEntry{}}
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read reflection log: %w", err)
		}

		log.Reflections = append(log.Reflections, logEntry{
			Timestamp:  time.Now().UTC(),
			Assessment: a,
		})

		out, err := json.MarshalIndent(&log, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reflection log: %w", err)
		}
		return filelock.AtomicWrite(path, out)
	})
}
