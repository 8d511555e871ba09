package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelfog.ai/internal/sim/tuning"
	"voxelfog.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of the tick log. Writes are
// queued to a single writer goroutine and dropped when it falls behind; the
// JSONL tick log remains the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends on ch against close(ch).
	mu     sync.RWMutex
	closed bool

	dropTick atomic.Uint64
}

type reqKind int

const (
	reqTick reqKind = iota + 1
)

type req struct {
	kind reqKind
	tick world.TickLogEntry
}

type Stats struct {
	QueueDepth    int    `json:"queue_depth"`
	QueueCapacity int    `json:"queue_capacity"`
	DropTickTotal uint64 `json:"drop_tick_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tuning (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ticks (
			tick INTEGER PRIMARY KEY,
			digest TEXT NOT NULL,
			spawns INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			visible INTEGER NOT NULL,
			memorized INTEGER NOT NULL,
			loaded_chunks INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS spawns (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			radius INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS steps (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			seeker_id TEXT NOT NULL,
			from_x INTEGER NOT NULL,
			from_y INTEGER NOT NULL,
			from_z INTEGER NOT NULL,
			to_x INTEGER NOT NULL,
			to_y INTEGER NOT NULL,
			to_z INTEGER NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_steps_seeker_tick ON steps(seeker_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTickTotal: s.dropTick.Load(),
	}
}

func (s *SQLiteIndex) WriteTick(entry world.TickLogEntry) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	select {
	case s.ch <- req{kind: reqTick, tick: entry}:
	default:
		s.dropTick.Add(1)
	}
	return nil
}

// UpsertTuning stores the tuning actually applied (canonical JSON) so a run
// can be reproduced from the index alone.
func (s *SQLiteIndex) UpsertTuning(worldID string, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(b)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('world_id',?)`, worldID); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tuning(name,digest,json,updated_at) VALUES('tuning',?,?,?)`,
		hex.EncodeToString(sum[:]), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadTuning returns the tuning stored by UpsertTuning.
func (s *SQLiteIndex) LoadTuning(ctx context.Context) (tuning.Tuning, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT json FROM tuning WHERE name='tuning'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return tuning.Tuning{}, false, nil
	}
	if err != nil {
		return tuning.Tuning{}, false, err
	}
	var t tuning.Tuning
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return tuning.Tuning{}, false, err
	}
	return t, true, nil
}

type TickRow struct {
	Tick         uint64
	Digest       string
	Steps        int
	Visible      int
	Memorized    int
	LoadedChunks int
}

// LastTick returns the newest indexed tick.
func (s *SQLiteIndex) LastTick(ctx context.Context) (TickRow, bool, error) {
	var r TickRow
	var tick int64
	err := s.db.QueryRowContext(ctx,
		`SELECT tick,digest,steps,visible,memorized,loaded_chunks FROM ticks ORDER BY tick DESC LIMIT 1`,
	).Scan(&tick, &r.Digest, &r.Steps, &r.Visible, &r.Memorized, &r.LoadedChunks)
	if err == sql.ErrNoRows {
		return TickRow{}, false, nil
	}
	if err != nil {
		return TickRow{}, false, err
	}
	r.Tick = uint64(tick)
	return r, true, nil
}

// SeekerTrail returns every tile a seeker stepped onto, oldest first.
func (s *SQLiteIndex) SeekerTrail(ctx context.Context, seekerID string) ([]world.Vec3i, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT to_x,to_y,to_z FROM steps WHERE seeker_id=? ORDER BY tick, seq`, seekerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.Vec3i
	for rows.Next() {
		var v world.Vec3i
		if err := rows.Scan(&v.X, &v.Y, &v.Z); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertTick, _ := s.db.Prepare(`INSERT OR REPLACE INTO ticks(tick,digest,spawns,moves,steps,visible,memorized,loaded_chunks,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`)
	insertSpawn, _ := s.db.Prepare(`INSERT OR REPLACE INTO spawns(tick,seq,kind,id,x,y,z,radius) VALUES(?,?,?,?,?,?,?,?)`)
	insertStep, _ := s.db.Prepare(`INSERT OR REPLACE INTO steps(tick,seq,seeker_id,from_x,from_y,from_z,to_x,to_y,to_z) VALUES(?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertTick, insertSpawn, insertStep} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqTick:
			e := r.tick
			b, _ := json.Marshal(e)
			if insertTick != nil {
				if _, err := tx.Stmt(insertTick).Exec(
					int64(e.Tick),
					e.Digest,
					len(e.Spawns),
					len(e.Moves),
					len(e.Steps),
					e.Visible,
					e.Memorized,
					e.LoadedChunks,
					string(b),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, sp := range e.Spawns {
				if insertSpawn == nil || tx == nil {
					break
				}
				if _, err := tx.Stmt(insertSpawn).Exec(int64(e.Tick), i, sp.Kind, sp.ID, sp.Pos.X, sp.Pos.Y, sp.Pos.Z, sp.Radius); err != nil {
					rollback()
					break
				}
				opCount++
			}
			for i, st := range e.Steps {
				if insertStep == nil || tx == nil {
					break
				}
				if _, err := tx.Stmt(insertStep).Exec(int64(e.Tick), i, st.SeekerID,
					st.From.X, st.From.Y, st.From.Z, st.To.X, st.To.Y, st.To.Z); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
