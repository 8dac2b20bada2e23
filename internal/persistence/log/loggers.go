// Package log appends hub transfer events as zstd-compressed JSONL, one file
// per UTC day.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// TransferEntry is one executed (or rejected) transfer on the hub.
type TransferEntry struct {
	Time      string `json:"time"`
	SessionID string `json:"session_id"`
	ExecNode  string `json:"exec_node"`
	Direction string `json:"direction"`
	PeerNode  string `json:"peer_node"`
	Slot      int    `json:"slot"`
	Requested int    `json:"requested"`
	Moved     int    `json:"moved"`
	Code      string `json:"code,omitempty"`
}

type TransferLogger struct {
	dir string

	mu     sync.Mutex
	curDay string
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
}

func NewTransferLogger(dataDir string) *TransferLogger {
	return &TransferLogger{dir: filepath.Join(dataDir, "transfers")}
}

func (l *TransferLogger) Write(e TransferEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if day != l.curDay {
		if err := l.rotateLocked(day); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *TransferLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *TransferLogger) rotateLocked(day string) error {
	if err := l.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(l.dir, fmt.Sprintf("transfers-%s.jsonl.zst", day))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.f = f
	l.enc = enc
	l.w = bufio.NewWriterSize(enc, 64*1024)
	l.curDay = day
	return nil
}

func (l *TransferLogger) closeLocked() error {
	var firstErr error
	if l.w != nil {
		_ = l.w.Flush()
	}
	if l.enc != nil {
		firstErr = l.enc.Close()
		l.enc = nil
	}
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
	l.w = nil
	return firstErr
}
