package logging

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// FileWriter appends log lines to dir/filename, rotating by size and age and
// gzip-compressing rotated files.
type FileWriter struct {
	mu           sync.Mutex
	bg           sync.WaitGroup
	dir          string
	filename     string
	maxSize      int64
	maxFiles     int
	maxAge       time.Duration
	currentFile  *os.File
	currentSize  int64
	lastRotation time.Time
}

// NewFileWriter opens dir/filename for appending. Zero sizes fall back to
// 10MB per file and five rotated files.
func NewFileWriter(dir, filename string, maxSizeMB, maxFiles int) (*FileWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxFiles <= 0 {
		maxFiles = defaultMaxFiles
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	fw := &FileWriter{
		dir:          dir,
		filename:     filename,
		maxSize:      int64(maxSizeMB) * 1024 * 1024,
		maxFiles:     maxFiles,
		maxAge:       24 * time.Hour,
		lastRotation: time.Now(),
	}
	if err := fw.openFile(); err != nil {
		return nil, err
	}
	return fw, nil
}

// Path returns the path of the active log file.
func (fw *FileWriter) Path() string {
	return filepath.Join(fw.dir, fw.filename)
}

func (fw *FileWriter) openFile() error {
	f, err := os.OpenFile(fw.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	fw.currentFile = f
	fw.currentSize = info.Size()
	return nil
}

func (fw *FileWriter) Write(p []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.currentFile == nil {
		return 0, os.ErrClosed
	}
	if fw.currentSize+int64(len(p)) > fw.maxSize || time.Since(fw.lastRotation) > fw.maxAge {
		if err := fw.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := fw.currentFile.Write(p)
	fw.currentSize += int64(n)
	return n, err
}

// rotate is called with fw.mu held.
func (fw *FileWriter) rotate() error {
	if err := fw.currentFile.Close(); err != nil {
		return fmt.Errorf("close current file: %w", err)
	}

	rotated := fmt.Sprintf("%s.%s", fw.Path(), time.Now().Format("20060102-150405.000"))
	if err := os.Rename(fw.Path(), rotated); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rename log file: %w", err)
	}

	fw.bg.Add(1)
	go func() {
		defer fw.bg.Done()
		compressFile(rotated)
		fw.prune()
	}()

	if err := fw.openFile(); err != nil {
		return err
	}
	fw.lastRotation = time.Now()
	return nil
}

func compressFile(path string) {
	in, err := os.Open(path)
	if err != nil {
		return
	}
	defer in.Close()

	gzPath := path + ".gz"
	out, err := os.Create(gzPath)
	if err != nil {
		return
	}
	gz := gzip.NewWriter(out)
	_, copyErr := io.Copy(gz, in)
	closeErr := gz.Close()
	out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(gzPath)
		return
	}
	os.Remove(path)
}

// prune removes the oldest rotated files beyond maxFiles.
func (fw *FileWriter) prune() {
	matches, err := filepath.Glob(fw.Path() + ".*")
	if err != nil || len(matches) <= fw.maxFiles {
		return
	}
	modTimes := make(map[string]time.Time, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil {
			modTimes[m] = info.ModTime()
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return modTimes[matches[i]].Before(modTimes[matches[j]])
	})
	for _, path := range matches[:len(matches)-fw.maxFiles] {
		os.Remove(path)
	}
}

// Close waits for pending compression and closes the active file.
func (fw *FileWriter) Close() error {
	fw.mu.Lock()
	f := fw.currentFile
	fw.currentFile = nil
	fw.mu.Unlock()

	fw.bg.Wait()
	if f != nil {
		return f.Close()
	}
	return nil
}

// ReadRecent returns up to n of the newest entries in the log file at logPath.
// Malformed lines are skipped.
func ReadRecent(logPath string, n int) ([]Entry, error) {
	f, err := os.Open(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return []Entry{}, nil
	}
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ring))
	for _, line := range ring {
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
