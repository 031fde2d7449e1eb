package profilestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// badgerPrefix is prepended to every speaker name to form its key.
const badgerPrefix = "speaker:"

// Badger is a Store implementation backed by BadgerDB v4.
// Each Put is a single transaction, so readers see the old or new record only.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files.
	// Required unless InMemory is set.
	Dir string

	// InMemory runs BadgerDB in memory-only mode (no disk persistence).
	// Useful for testing with a real badger engine.
	InMemory bool

	// Logger receives badger warnings and errors. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("profilestore: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{logger.With("component", "badger")})

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("profilestore: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func badgerKey(name string) []byte {
	return []byte(badgerPrefix + name)
}

func (b *Badger) Put(_ context.Context, p Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(p.Name), data)
	})
}

func (b *Badger) Get(_ context.Context, name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return decodeProfile(name, val)
}

func (b *Badger) List(ctx context.Context) (*Listing, error) {
	prefix := []byte(badgerPrefix)
	l := &Listing{}
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.KeyCopy(nil))
			val, err := item.ValueCopy(nil)
			if err != nil {
				l.Skipped = append(l.Skipped, SkippedRecord{Key: key, Err: err})
				continue
			}
			p, err := decodeProfile(strings.TrimPrefix(key, badgerPrefix), val)
			if err != nil {
				l.Skipped = append(l.Skipped, SkippedRecord{Key: key, Err: err})
				continue
			}
			l.Profiles = append(l.Profiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.sort()
	return l, nil
}

func (b *Badger) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(name))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger forwards badger warnings and errors to slog, suppressing
// debug and info level messages.
type badgerLogger struct {
	l *slog.Logger
}

func (g badgerLogger) Errorf(f string, v ...interface{}) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (g badgerLogger) Warningf(f string, v ...interface{}) {
	g.l.Warn(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// Compile-time interface check.
var _ Store = (*Badger)(nil)
