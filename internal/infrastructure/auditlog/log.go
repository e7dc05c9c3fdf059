package auditlog

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/zero-trust-access-engine/internal/domain/audit"
)

// GenesisHash is the prev_hash of the first entry of a new log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

const maxLineSize = 1 << 20

// Entry is one line of the log.
type Entry struct {
	ID          uuid.UUID              `json:"id"`
	EventType   audit.EventType        `json:"event_type"`
	Description string                 `json:"description"`
	UserID      string                 `json:"user_id,omitempty"`
	TenantID    string                 `json:"tenant_id,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	PrevHash    string                 `json:"prev_hash"`
}

// Log is an append-only JSONL file of security events. Every entry carries
// the hash of the line before it, so any edit breaks the chain.
type Log struct {
	mu       sync.Mutex
	file     *os.File
	prevHash string
}

// Open opens or creates the log at path and resumes the chain from its last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("auditlog: create directory: %w", err)
	}

	prevHash, err := chainTail(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open file: %w", err)
	}

	return &Log{file: file, prevHash: prevHash}, nil
}

func chainTail(path string) (string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return GenesisHash, nil
	}
	if err != nil {
		return "", fmt.Errorf("auditlog: read existing log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var last []byte
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("auditlog: scan existing log: %w", err)
	}
	if len(last) == 0 {
		return GenesisHash, nil
	}
	return HashLine(last), nil
}

// LogSecurityEvent appends event and syncs the file.
func (l *Log) LogSecurityEvent(ctx context.Context, event *audit.SecurityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(Entry{
		ID:          event.ID,
		EventType:   event.Type,
		Description: event.Description,
		UserID:      event.UserID,
		TenantID:    event.TenantID,
		Details:     event.Details,
		Timestamp:   event.Timestamp.UTC(),
		PrevHash:    l.prevHash,
	})
	if err != nil {
		return fmt.Errorf("auditlog: marshal entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("auditlog: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("auditlog: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line.
func HashLine(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}
