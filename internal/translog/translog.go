package translog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"petbridge/internal/protocol"
)

// #region entries
const (
	EntryCommands = "commands"
	EntryResults  = "results"
	EntryContext  = "context"
	EntryChat     = "chat"
)

// Entry is one transcript line. Exactly one payload field is set, keyed by
// Type; the zero fields stay off the wire.
type Entry struct {
	Type     string                    `json:"type"`
	Time     time.Time                 `json:"time"`
	Commands []protocol.Command        `json:"commands,omitempty"`
	Results  []protocol.Result         `json:"results,omitempty"`
	Context  *protocol.ContextSnapshot `json:"context,omitempty"`
	Chat     *protocol.ChatEvent       `json:"chat,omitempty"`
}

// #endregion entries

// #region writer
// Writer records the full bridge exchange as hour-rotated zstd-compressed
// JSONL, one file per UTC hour.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, prefix: "session", now: time.Now}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) RecordCommands(cmds []protocol.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	return w.write(Entry{Type: EntryCommands, Commands: cmds})
}

func (w *Writer) RecordResults(results []protocol.Result) error {
	if len(results) == 0 {
		return nil
	}
	return w.write(Entry{Type: EntryResults, Results: results})
}

func (w *Writer) RecordContext(snap protocol.ContextSnapshot) error {
	return w.write(Entry{Type: EntryContext, Context: &snap})
}

func (w *Writer) RecordChat(ev protocol.ChatEvent) error {
	return w.write(Entry{Type: EntryChat, Chat: &ev})
}

func (w *Writer) write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UTC()
	e.Time = now
	hour := now.Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err
}

// #endregion writer

// #region reader
// ReadDir loads every transcript file under dir in chronological order.
// Appends across a restart land in the same hour file, so line order within
// a file is already temporal.
func ReadDir(dir string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read transcript dir: %w", err)
	}
	var paths []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".jsonl.zst") {
			paths = append(paths, filepath.Join(dir, f.Name()))
		}
	}
	sort.Strings(paths)

	var out []Entry
	for _, p := range paths {
		entries, err := readFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(p), err)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// #endregion reader
