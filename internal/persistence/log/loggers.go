package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"voxelfog.ai/internal/sim/world"
)

// DefaultSegmentTicks is one hour at the default 5 Hz.
const DefaultSegmentTicks = 18000

var ErrTickOrder = errors.New("tick log: ticks must strictly increase")

// segment is one open zstd JSONL file. Reopening an existing segment appends a
// new zstd frame, which the decoder reads as a continuation.
type segment struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func openSegment(path string) (*segment, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &segment{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (s *segment) writeLine(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *segment) close() error {
	_ = s.w.Flush()
	err := s.enc.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// TickLogger writes one JSON line per tick under <worldDir>/events, split into
// segments of SegmentTicks ticks. A segment is named after its first tick,
// zero padded, so file name order is tick order.
type TickLogger struct {
	dir          string
	segmentTicks uint64

	mu       sync.Mutex
	cur      *segment
	curStart uint64
	last     uint64
	wrote    bool
}

func NewTickLogger(worldDir string) *TickLogger {
	return NewTickLoggerSegmented(worldDir, DefaultSegmentTicks)
}

func NewTickLoggerSegmented(worldDir string, segmentTicks uint64) *TickLogger {
	if segmentTicks == 0 {
		segmentTicks = DefaultSegmentTicks
	}
	return &TickLogger{dir: filepath.Join(worldDir, "events"), segmentTicks: segmentTicks}
}

func segmentName(start uint64) string {
	return fmt.Sprintf("events-%012d.jsonl.zst", start)
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wrote && e.Tick <= l.last {
		return fmt.Errorf("%w: got %d after %d", ErrTickOrder, e.Tick, l.last)
	}
	start := e.Tick - e.Tick%l.segmentTicks
	if l.cur == nil || start != l.curStart {
		if err := l.closeLocked(); err != nil {
			return err
		}
		seg, err := openSegment(filepath.Join(l.dir, segmentName(start)))
		if err != nil {
			return err
		}
		l.cur, l.curStart = seg, start
	}
	if err := l.cur.writeLine(e); err != nil {
		return err
	}
	l.last, l.wrote = e.Tick, true
	return nil
}

func (l *TickLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeLocked()
}

func (l *TickLogger) closeLocked() error {
	if l.cur == nil {
		return nil
	}
	err := l.cur.close()
	l.cur = nil
	return err
}
