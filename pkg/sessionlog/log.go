// Package sessionlog persists advisory sessions as a single JSON document.
//
// Every write replaces the whole file through a temp file in the same
// directory followed by a rename, so a reader never sees a partial document
// and a crash leaves either the old or the new version on disk.
package sessionlog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

// DefaultFileName is the session file name inside the advisor directory.
const DefaultFileName = "sessions.json"

// Config configures a Log.
type Config struct {
	// Path of the JSON document.
	Path string

	Logger *slog.Logger
}

// Log reads and writes the session document at a fixed path.
type Log struct {
	path   string
	logger *slog.Logger

	mu         sync.Mutex
	lastDigest [sha256.Size]byte
}

// New creates a Log. The file is not touched until Load or Write.
func New(c Config) (*Log, error) {
	if c.Path == "" {
		return nil, errors.New("session log path is required")
	}
	path, err := filepath.Abs(c.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving session log path: %w", err)
	}
	return &Log{
		path:   path,
		logger: logger.OrNop(c.Logger),
	}, nil
}

// Path returns the absolute path of the document.
func (l *Log) Path() string {
	return l.path
}

// Load reads the document. A missing or empty file yields an empty
// document; anything that cannot be parsed wraps ErrCorrupt.
func (l *Log) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.logger.Debug("session log not found, starting empty", "path", l.path)
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, l.path, err)
	}

	l.mu.Lock()
	l.lastDigest = sha256.Sum256(data)
	l.mu.Unlock()

	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, l.path, err)
	}

	l.logger.Debug("session log loaded",
		"path", l.path,
		"clients", len(doc.Clients.Names()),
		"sessions", doc.Len(),
	)
	return doc, nil
}

// Decode parses and normalizes a session document.
func Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}

	switch {
	case doc.SchemaVersion == 0:
		doc.SchemaVersion = SchemaVersion
	case doc.SchemaVersion > SchemaVersion:
		return nil, fmt.Errorf("unsupported schema version %d", doc.SchemaVersion)
	}
	if doc.Clients == nil {
		doc.Clients = NewClients()
	}

	for _, name := range doc.Clients.names {
		sessions := doc.Clients.buckets[name].Sessions
		for i := range sessions {
			switch sessions[i].ClientName {
			case "":
				sessions[i].ClientName = name
			case name:
			default:
				return nil, fmt.Errorf("session %q in bucket %q names client %q",
					sessions[i].SessionID, name, sessions[i].ClientName)
			}
		}
	}
	return doc, nil
}

// Append adds r to doc and persists the whole document. On failure the
// append is undone so doc matches the file again.
func (l *Log) Append(ctx context.Context, doc *Document, r session.Record) error {
	undo := doc.Clients.Append(r)
	if err := l.Write(ctx, doc); err != nil {
		undo()
		return err
	}
	return nil
}

// Write atomically replaces the file with doc.
func (l *Log) Write(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", ErrPersist, err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := writeFileAtomic(l.path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	l.lastDigest = sha256.Sum256(data)

	l.logger.Debug("session log written", "path", l.path, "bytes", len(data))
	return nil
}

// LastDigest is the SHA-256 of the content this Log last read or wrote.
func (l *Log) LastDigest() [sha256.Size]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastDigest
}

// Quarantine moves the current file aside as <path>.corrupt-<unix seconds>
// and returns the new path.
func (l *Log) Quarantine() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dest := l.path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(l.path, dest); err != nil {
		return "", fmt.Errorf("quarantining session log: %w", err)
	}
	l.lastDigest = [sha256.Size]byte{}

	l.logger.Warn("corrupt session log moved aside", "path", l.path, "quarantine", dest)
	return dest, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	committed = true

	// Make the rename durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
