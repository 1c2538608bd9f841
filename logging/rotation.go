package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const logFilePrefix = "portal-"

var numberedLogFile = regexp.MustCompile(`^portal-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingWriter is an io.Writer over weekly log files. A week's file rolls
// over to numbered siblings (portal-2026-W42_01.log, ...) once it reaches
// maxFileSize, and files older than the retention period are removed daily.
type RotatingWriter struct {
	dir         string
	retention   time.Duration
	maxFileSize int64
	now         func() time.Time

	mu          sync.Mutex
	file        *os.File
	week        string
	size        int64
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

// NewRotatingWriter opens (or creates) the current week's file in dir
func NewRotatingWriter(dir string, retentionWeeks int, maxFileSize int64) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	rw := &RotatingWriter{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		cleanupDone: make(chan struct{}),
	}

	rw.mu.Lock()
	err := rw.rotate(weekKey(rw.now()), false)
	rw.mu.Unlock()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rw.cancel = cancel
	go rw.cleanupLoop(ctx)

	return rw, nil
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Write appends p to the current file, rotating first when the week changed
// or the write would cross the size limit.
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	week := weekKey(rw.now())
	switch {
	case week != rw.week:
		if err := rw.rotate(week, false); err != nil {
			return 0, err
		}
	case rw.maxFileSize > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxFileSize:
		if err := rw.rotate(week, true); err != nil {
			return 0, err
		}
	}

	if rw.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

// rotate switches to the file for week; caller holds mu
func (rw *RotatingWriter) rotate(week string, full bool) error {
	if rw.file != nil {
		_ = rw.file.Close()
		rw.file = nil
	}

	name := rw.pickFile(week, full)
	path := filepath.Join(rw.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	rw.file = file
	rw.week = week
	rw.size = 0
	if info, err := file.Stat(); err == nil {
		rw.size = info.Size()
	}

	return nil
}

// pickFile returns the newest file of the week that still has room, or the
// next numbered file when full is set or every file has reached the limit.
func (rw *RotatingWriter) pickFile(week string, full bool) string {
	numbered := rw.numberedFiles(week)
	if len(numbered) == 0 {
		base := logFilePrefix + week + ".log"
		if !full && !rw.isFull(filepath.Join(rw.dir, base)) {
			return base
		}
		return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, 1)
	}

	last := numbered[len(numbered)-1]
	if !full && !rw.isFull(filepath.Join(rw.dir, last.name)) {
		return last.name
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, last.seq+1)
}

type numberedFile struct {
	name string
	seq  int
}

func (rw *RotatingWriter) numberedFiles(week string) []numberedFile {
	matches, _ := filepath.Glob(filepath.Join(rw.dir, logFilePrefix+week+"_??.log"))

	var files []numberedFile
	for _, match := range matches {
		name := filepath.Base(match)
		m := numberedLogFile.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		seq, _ := strconv.Atoi(m[1])
		files = append(files, numberedFile{name: name, seq: seq})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].seq < files[j].seq })
	return files
}

func (rw *RotatingWriter) isFull(path string) bool {
	if rw.maxFileSize <= 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() >= rw.maxFileSize
}

func (rw *RotatingWriter) cleanupLoop(ctx context.Context) {
	defer close(rw.cleanupDone)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rw.removeExpired(); err != nil {
				fmt.Fprintf(os.Stderr, "log cleanup failed: %v\n", err)
			}
		}
	}
}

// removeExpired deletes log files whose modification time is past retention
func (rw *RotatingWriter) removeExpired() (int, error) {
	entries, err := os.ReadDir(rw.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rw.now().Add(-rw.retention)
	removed := 0

	rw.mu.Lock()
	current := ""
	if rw.file != nil {
		current = filepath.Base(rw.file.Name())
	}
	rw.mu.Unlock()

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == current || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(rw.dir, name)); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// Close stops the cleanup goroutine and closes the current file
func (rw *RotatingWriter) Close() error {
	if rw.cancel != nil {
		rw.cancel()
		select {
		case <-rw.cleanupDone:
		case <-time.After(time.Second):
		}
	}

	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}
