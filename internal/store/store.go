// Package store provides a thin bbolt wrapper for timetools' local data store.
//
// The store keeps named values the user saved explicitly. Nothing expires;
// entries stay until deleted or cleared.
//
// Buckets:
//
//	timestamps  named timestamps keyed by slug
//	durations   named durations keyed by slug
//	tables      named row tables keyed by slug
//	_meta       internal: schema version, created_at
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketTimestamps = []byte("timestamps")
	bucketDurations  = []byte("durations")
	bucketTables     = []byte("tables")
	bucketInternal   = []byte("_meta")
)

// AllBuckets lists every top-level bucket for stats and clear operations.
var AllBuckets = []string{"timestamps", "durations", "tables"}

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}
	slog.Debug("store opened", "path", path)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketTimestamps, bucketDurations, bucketTables, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			slog.Debug("store initialised", "schema_version", schemaVersion)
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// SchemaVersion returns the version recorded in the _meta bucket.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.View(func(tx *bolt.Tx) error {
		v = string(tx.Bucket(bucketInternal).Get([]byte("schema_version")))
		return nil
	})
	return v, err
}

// ─── Keys ─────────────────────────────────────────────────────────────────────

// Key normalizes a user-facing name into a store key: "Launch Day" and
// "launch-day" address the same entry.
func Key(name string) (string, error) {
	k := slug.Make(name)
	if k == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	return k, nil
}

func bucketFor(kind string) ([]byte, error) {
	switch kind {
	case model.EntryTimestamp, "timestamps":
		return bucketTimestamps, nil
	case model.EntryDuration, "durations":
		return bucketDurations, nil
	case "table", "tables":
		return bucketTables, nil
	}
	return nil, fmt.Errorf("unknown entry kind %q (want timestamp, duration or table)", kind)
}

// BucketName resolves a singular or plural kind to its bucket name.
func BucketName(kind string) (string, error) {
	b, err := bucketFor(kind)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ─── Named Values ─────────────────────────────────────────────────────────────

// PutTimestamp stores ts under name, replacing any previous value.
func (s *Store) PutTimestamp(name string, ts timeval.Timestamp) (model.Entry, error) {
	return s.put(model.EntryTimestamp, name, ts.ISO(false))
}

// PutDuration stores d under name, replacing any previous value.
func (s *Store) PutDuration(name string, d timeval.Duration) (model.Entry, error) {
	return s.put(model.EntryDuration, name, d.ISO(false))
}

// put writes an entry. An overwritten entry keeps its ID.
func (s *Store) put(kind, name, value string) (model.Entry, error) {
	key, err := Key(name)
	if err != nil {
		return model.Entry{}, err
	}
	bucket, err := bucketFor(kind)
	if err != nil {
		return model.Entry{}, err
	}
	e := model.Entry{
		ID:        uuid.NewString(),
		Key:       key,
		Name:      name,
		Kind:      kind,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if prev := b.Get([]byte(key)); prev != nil {
			var old model.Entry
			if err := json.Unmarshal(prev, &old); err == nil && old.ID != "" {
				e.ID = old.ID
			}
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding entry: %w", err)
		}
		return b.Put([]byte(key), data)
	})
	return e, err
}

// Get retrieves an entry by kind and name.
// Returns (entry, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) Get(kind, name string) (model.Entry, bool, error) {
	var e model.Entry
	key, err := Key(name)
	if err != nil {
		return e, false, err
	}
	bucket, err := bucketFor(kind)
	if err != nil {
		return e, false, err
	}
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		return e, false, err
	}
	return e, e.Key != "", nil
}

// GetTimestamp retrieves and parses a named timestamp.
func (s *Store) GetTimestamp(name string) (timeval.Timestamp, bool, error) {
	e, found, err := s.Get(model.EntryTimestamp, name)
	if err != nil || !found {
		return timeval.Timestamp{}, found, err
	}
	ts, err := timeval.ParseTimestamp(timeval.StringInput(e.Value))
	return ts, err == nil, err
}

// GetDuration retrieves and parses a named duration.
func (s *Store) GetDuration(name string) (timeval.Duration, bool, error) {
	e, found, err := s.Get(model.EntryDuration, name)
	if err != nil || !found {
		return timeval.Duration{}, found, err
	}
	d, err := timeval.ParseDuration(timeval.StringInput(e.Value))
	return d, err == nil, err
}

// List returns all entries of a kind, sorted by key.
func (s *Store) List(kind string) ([]model.Entry, error) {
	bucket, err := bucketFor(kind)
	if err != nil {
		return nil, err
	}
	var entries []model.Entry
	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, v []byte) error {
			var e model.Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decoding %s: %w", k, err)
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

// Delete removes a named entry and reports whether it existed.
func (s *Store) Delete(kind, name string) (bool, error) {
	key, err := Key(name)
	if err != nil {
		return false, err
	}
	bucket, err := bucketFor(kind)
	if err != nil {
		return false, err
	}
	var existed bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		existed = b.Get([]byte(key)) != nil
		return b.Delete([]byte(key))
	})
	return existed, err
}

// ─── Tables ───────────────────────────────────────────────────────────────────

// storedRow is the JSON-safe on-disk representation of a single row.
// Value is a *float64 so that missing values (NaN) are stored as JSON null
// rather than NaN, which encoding/json cannot handle.
type storedRow struct {
	Date     string   `json:"date"`
	Value    *float64 `json:"value"` // null = missing
	ValueRaw string   `json:"value_raw,omitempty"`
}

// storedTable is the on-disk envelope for a named table.
type storedTable struct {
	Name    string      `json:"name"`
	SavedAt time.Time   `json:"saved_at"`
	Rows    []storedRow `json:"rows"`
}

func rowToStored(r model.Row) storedRow {
	row := storedRow{Date: r.Date.ISO(false), ValueRaw: r.ValueRaw}
	if !r.IsMissing() {
		v := r.Value
		row.Value = &v
	}
	return row
}

func storedToRow(r storedRow) (model.Row, error) {
	ts, err := timeval.ParseTimestamp(timeval.StringInput(r.Date))
	if err != nil {
		return model.Row{}, err
	}
	row := model.Row{Date: ts, ValueRaw: r.ValueRaw, Value: math.NaN()}
	if r.Value != nil {
		row.Value = *r.Value
	}
	return row, nil
}

// PutTable stores rows under name, replacing any previous table.
func (s *Store) PutTable(name string, rows []model.Row) error {
	key, err := Key(name)
	if err != nil {
		return err
	}
	env := storedTable{Name: name, SavedAt: time.Now().UTC(), Rows: make([]storedRow, len(rows))}
	for i, r := range rows {
		env.Rows[i] = rowToStored(r)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTables).Put([]byte(key), data)
	})
}

// GetTable retrieves a table by name.
func (s *Store) GetTable(name string) (model.Table, bool, error) {
	key, err := Key(name)
	if err != nil {
		return model.Table{}, false, err
	}
	var env storedTable
	var found bool
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketTables).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &env)
	})
	if err != nil || !found {
		return model.Table{}, false, err
	}
	rows := make([]model.Row, len(env.Rows))
	for i, r := range env.Rows {
		if rows[i], err = storedToRow(r); err != nil {
			return model.Table{}, false, fmt.Errorf("table %s row %d: %w", name, i, err)
		}
	}
	return model.Table{Name: env.Name, Rows: rows}, true, nil
}

// ListTables returns the keys of all stored tables.
func (s *Store) ListTables() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTables).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// Compact rewrites the database into a fresh file and swaps it in place,
// returning the file size before and after. The store stays open.
func (s *Store) Compact() (before, after int64, err error) {
	path := s.db.Path()
	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	before = fi.Size()

	tmp := path + ".compact"
	_ = os.Remove(tmp)
	dst, err := bolt.Open(tmp, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("opening %s: %w", tmp, err)
	}
	if err := bolt.Compact(dst, s.db, 0); err != nil {
		dst.Close()
		_ = os.Remove(tmp)
		return before, 0, fmt.Errorf("copying buckets: %w", err)
	}
	if err := dst.Close(); err != nil {
		return before, 0, err
	}
	if err := s.db.Close(); err != nil {
		return before, 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return before, 0, fmt.Errorf("replacing %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return before, 0, fmt.Errorf("reopening %s: %w", path, err)
	}
	s.db = db
	slog.Debug("store compacted", "path", path)

	if fi, err = os.Stat(path); err != nil {
		return before, 0, err
	}
	return before, fi.Size(), nil
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}
