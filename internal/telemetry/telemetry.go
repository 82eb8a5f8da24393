// Package telemetry records run timing and per-output checksums in a bolt
// database. One record is written per run and one per written output,
// keyed under the run's ID.
package telemetry

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Event and LogText label every run record.
const (
	Event   = "dicommake"
	LogText = "Make output/final DICOM from images with measurements"
)

var (
	bucketRuns    = []byte("runs")
	bucketOutputs = []byte("outputs")
)

// Run is the summary of one invocation.
type Run struct {
	ID       string        `json:"id"`
	Event    string        `json:"event"`
	Log      string        `json:"log"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration_ns"`
	Written  int           `json:"written"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
}

// Output is one written document.
type Output struct {
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// Store is an open telemetry database.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Clean(path), 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telemetry %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRuns, bucketOutputs} {
			if _, e := tx.CreateBucketIfNotExists(b); e != nil {
				return e
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// RecordRun stores r under its ID, filling Event and Log when empty.
func (s *Store) RecordRun(r Run) error {
	if r.Event == "" {
		r.Event = Event
	}
	if r.Log == "" {
		r.Log = LogText
	}
	return s.put(bucketRuns, []byte(r.ID), r)
}

// RecordOutput stores o under "<run id>/<path>".
func (s *Store) RecordOutput(o Output) error {
	return s.put(bucketOutputs, outputKey(o.RunID, o.Path), o)
}

func (s *Store) put(bucket, key []byte, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucket)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		return bk.Put(key, val)
	})
}

// Runs returns every stored run in ID order.
func (s *Store) Runs() ([]Run, error) {
	var runs []Run
	err := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketRuns)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		return bk.ForEach(func(_, v []byte) error {
			var r Run
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			runs = append(runs, r)
			return nil
		})
	})
	return runs, err
}

// Outputs returns the outputs recorded for runID, ordered by path.
func (s *Store) Outputs(runID string) ([]Output, error) {
	var outs []Output
	prefix := outputKey(runID, "")
	err := s.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(bucketOutputs)
		if bk == nil {
			return bolt.ErrBucketNotFound
		}
		c := bk.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var o Output
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			outs = append(outs, o)
		}
		return nil
	})
	return outs, err
}

func outputKey(runID, path string) []byte {
	return []byte(runID + "/" + path)
}

// Checksum returns the hex BLAKE3 digest and size of the file at path.
func Checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := blake3.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
