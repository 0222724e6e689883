// Package store persists finished solves in a local bbolt database and
// implements core.SolveAttemptHandler so the engine never needs to know
// how (or whether) a solve gets saved. Grounded on the teacher's single
// PomodoroEngine/State persistence story (none — this repo has none, so
// the collaborator shape is learned from core.SolveAttemptHandler itself)
// and on bbolt's own bucket-per-concern idiom.
package store

import (
	"encoding/binary"
	"encoding/json"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/cubeware/cubetimer/internal/core"
)

var (
	bucketSolves     = []byte("solves")
	bucketCategories = []byte("categories")
)

// Category groups solves under a puzzle/event (e.g. "3x3", "OH").
type Category struct {
	Name         string `json:"name"`
	InspectionMs int64  `json:"inspection_ms"`
	HoldToStart  bool   `json:"hold_to_start"`
}

// Record is one finished attempt as persisted, independent of core's
// in-memory TimerState representation.
type Record struct {
	ID            uint64 `json:"id"`
	Category      string `json:"category"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	PrePlusTwo    int    `json:"pre_plus_two"`
	PreDNF        bool   `json:"pre_dnf"`
	PostPlusTwo   int    `json:"post_plus_two"`
	PostDNF       bool   `json:"post_dnf"`
	WallTimestamp int64  `json:"wall_timestamp_ms"`
	Scramble      string `json:"scramble"`
}

// IsDNF reports whether this record carries a DNF penalty on either side.
func (r Record) IsDNF() bool { return r.PreDNF || r.PostDNF }

// TotalMs is the time actually scored, per WCA convention (DNF sorts last,
// handled by callers that rank results, not stored as a sentinel here).
func (r Record) TotalMs() int64 { return r.ElapsedMs }

// pendingAttempt is the Solve handle minted by OnSolveAttemptStart; it is
// opaque to core and only gains real content at ApplyResult time.
type pendingAttempt struct {
	category string
	scramble string
	store    *Store
}

func (p *pendingAttempt) ApplyResult(elapsedMs int64, penalties core.Penalties, wallTimestampMs int64) {
	rec := Record{
		Category:      p.category,
		ElapsedMs:     elapsedMs,
		PrePlusTwo:    penalties.Pre.PlusTwoCount(),
		PreDNF:        penalties.Pre.IsDNF(),
		PostPlusTwo:   penalties.Post.PlusTwoCount(),
		PostDNF:       penalties.Post.IsDNF(),
		WallTimestamp: wallTimestampMs,
		Scramble:      p.scramble,
	}
	if err := p.store.save(rec); err != nil {
		p.store.log("failed to persist solve: %v", err)
	}
}

// Store is a bbolt-backed core.SolveAttemptHandler. Writes retry through a
// short exponential backoff (cenkalti/backoff) since bbolt can return
// ErrDatabaseNotOpen/ErrTimeout transiently under concurrent readers.
type Store struct {
	db           *bolt.DB
	category     string
	nextScramble func() string
	logf         func(format string, args ...any)
}

type Option func(*Store)

// WithScrambleSource sets the function called to label each new attempt
// with the scramble that was displayed for it.
func WithScrambleSource(fn func() string) Option {
	return func(s *Store) { s.nextScramble = fn }
}

func WithLogger(fn func(format string, args ...any)) Option {
	return func(s *Store) { s.logf = fn }
}

// Open opens (creating if necessary) a bbolt database at path.
func Open(path, category string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSolves); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketCategories)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create buckets")
	}
	s := &Store{db: db, category: category, nextScramble: func() string { return "" }, logf: func(string, ...any) {}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) log(format string, args ...any) { s.logf(format, args...) }

// OnSolveAttemptStart implements core.SolveAttemptHandler.
func (s *Store) OnSolveAttemptStart() core.Solve {
	return &pendingAttempt{category: s.category, scramble: s.nextScramble(), store: s}
}

// OnSolveAttemptStop implements core.SolveAttemptHandler. The attempt was
// already persisted by ApplyResult; this hook exists for collaborators
// (e.g. stats refresh) that want to react after the write lands.
func (s *Store) OnSolveAttemptStop(sv core.Solve) {}

func (s *Store) save(rec Record) error {
	op := func() error {
		return s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucketSolves)
			id, _ := b.NextSequence()
			rec.ID = id
			buf, err := json.Marshal(rec)
			if err != nil {
				return backoff.Permanent(err)
			}
			return b.Put(idKey(id), buf)
		})
	}
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	return backoff.Retry(op, bo)
}

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// Records returns every persisted record for category, oldest first.
func (s *Store) Records(category string) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSolves).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.Category == category {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan solves")
	}
	return out, nil
}

// Stats summarizes best single and rolling averages over records, in the
// order they were recorded (WCA ao5/ao12: drop best and worst of N, mean
// the rest; DNF counts as worst).
type Stats struct {
	Count  int
	BestMs int64
	Ao5Ms  int64
	Ao12Ms int64
}

func ComputeStats(records []Record) Stats {
	st := Stats{Count: len(records)}
	if len(records) == 0 {
		return st
	}
	st.BestMs = best(records)
	st.Ao5Ms = average(lastN(records, 5))
	st.Ao12Ms = average(lastN(records, 12))
	return st
}

func lastN(records []Record, n int) []Record {
	if len(records) < n {
		return nil
	}
	return records[len(records)-n:]
}

func best(records []Record) int64 {
	var b int64 = -1
	for _, r := range records {
		if r.IsDNF() {
			continue
		}
		if b == -1 || r.TotalMs() < b {
			b = r.TotalMs()
		}
	}
	return b
}

// average implements the WCA trimmed mean: drop one best and one worst
// (DNF sorts as worst), mean the remainder. Returns -1 if too many DNFs
// remain to compute a result, or if records is empty.
func average(records []Record) int64 {
	if len(records) == 0 {
		return -1
	}
	sorted := append([]Record(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].IsDNF() != sorted[j].IsDNF() {
			return !sorted[i].IsDNF()
		}
		return sorted[i].TotalMs() < sorted[j].TotalMs()
	})
	trimmed := sorted[1 : len(sorted)-1]
	var sum int64
	for _, r := range trimmed {
		if r.IsDNF() {
			return -1
		}
		sum += r.TotalMs()
	}
	return sum / int64(len(trimmed))
}
