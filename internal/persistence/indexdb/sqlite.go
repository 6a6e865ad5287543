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

	"tilecraft.ai/internal/sim/catalogs"
	"tilecraft.ai/internal/sim/tuning"
	"tilecraft.ai/internal/sim/world"
)

// SQLiteIndex is a queryable secondary index of the audit log. Writes are
// queued and applied by one goroutine; the zstd JSONL log stays the source of
// truth, so a full queue drops rows.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan world.AuditEntry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
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
		return nil, fmt.Errorf("indexdb: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: %w", err)
	}

	s := &SQLiteIndex{
		db: db,
		// Combat and decay bursts come in thousands per tick.
		ch: make(chan world.AuditEntry, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
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
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor INTEGER NOT NULL,
			action TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			item INTEGER NOT NULL,
			count INTEGER NOT NULL,
			target INTEGER NOT NULL,
			value INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_actor_tick ON audits(actor, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_item_tick ON audits(item, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_pos_tick ON audits(x, y, z, tick);`,
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
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts entries lost to a full queue.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) WriteAudit(entry world.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- entry:
	default:
		s.dropped.Add(1)
	}
	return nil
}

// UpsertCatalogs stores the item table and the applied tuning with their
// digests so rows can be tied to the rules that produced them.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	rows, err := catalogRows(configDir, cats, tune)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type catalogRow struct {
	name   string
	digest string
	json   []byte
}

func catalogRows(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) ([]catalogRow, error) {
	var rows []catalogRow
	if configDir != "" {
		b, err := os.ReadFile(filepath.Join(configDir, "items.json"))
		if err != nil {
			return nil, fmt.Errorf("indexdb: %w", err)
		}
		rows = append(rows, catalogRow{name: "items", digest: cats.Items.Digest, json: b})
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return nil, fmt.Errorf("indexdb: tuning: %w", err)
	}
	sum := sha256.Sum256(b)
	rows = append(rows, catalogRow{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	return rows, nil
}

// CatalogDigest returns the stored digest for name, or "" when absent.
func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d string
	err := s.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name = ?`, name).Scan(&d)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return d, err
}

// AuditsByActor returns the newest entries by actor, newest first.
func (s *SQLiteIndex) AuditsByActor(ctx context.Context, actor uint32, limit int) ([]world.AuditEntry, error) {
	return s.queryAudits(ctx, `SELECT raw_json FROM audits WHERE actor = ? ORDER BY id DESC LIMIT ?`, actor, limit)
}

// AuditsAt returns entries that started at pos within [fromTick, toTick].
// Ticks restart with the server, so older runs can match too.
func (s *SQLiteIndex) AuditsAt(ctx context.Context, pos world.Position, fromTick, toTick uint64) ([]world.AuditEntry, error) {
	return s.queryAudits(ctx, `SELECT raw_json FROM audits WHERE x = ? AND y = ? AND z = ? AND tick BETWEEN ? AND ? ORDER BY id`,
		pos.X, pos.Y, pos.Z, int64(fromTick), int64(toTick))
}

func (s *SQLiteIndex) queryAudits(ctx context.Context, q string, args ...any) ([]world.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []world.AuditEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e world.AuditEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertAudit, err := s.db.Prepare(`INSERT INTO audits(tick,seq,actor,action,x,y,z,item,count,target,value,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		for range s.ch {
		}
		return
	}
	defer insertAudit.Close()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastTick uint64
		seq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
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

	ticker := time.NewTicker(commitMaxWait)
	defer ticker.Stop()
	for {
		var a world.AuditEntry
		var ok bool
		select {
		case a, ok = <-s.ch:
			if !ok {
				commit()
				return
			}
		case <-ticker.C:
			// Queries share the single connection, so an idle tx must not
			// hold it.
			if time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
			continue
		}

		begin()
		if tx == nil {
			s.dropped.Add(1)
			continue
		}
		if a.Tick != lastTick {
			lastTick = a.Tick
			seq = 0
		}
		raw, _ := json.Marshal(a)
		if _, err := tx.Stmt(insertAudit).Exec(
			int64(a.Tick),
			seq,
			a.Actor,
			a.Action,
			a.Pos[0], a.Pos[1], a.Pos[2],
			a.Item,
			a.Count,
			a.Target,
			a.Value,
			string(raw),
		); err != nil {
			_ = tx.Rollback()
			tx = nil
			continue
		}
		seq++
		opCount++
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}
}
