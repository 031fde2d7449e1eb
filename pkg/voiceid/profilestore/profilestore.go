// Package profilestore persists enrolled speaker profiles.
//
// Each profile is one durable record keyed by speaker name. Records are
// msgpack-encoded and written atomically, so a concurrent reader observes
// either the previous record or the complete new one, never a partial write.
//
// Backends:
//
//   - [Dir]: one <name>.vpr file per speaker in a local directory,
//     written via temp-file-then-rename
//   - [Badger]: one speaker:<name> key per speaker in a BadgerDB database
//   - [S3]: one <prefix>/<name>.vpr object per speaker in an S3 bucket
//   - [Memory]: in-process map, for tests
//
// A record that cannot be decoded does not make the whole store unreadable:
// List skips it and reports it in [Listing.Skipped].
package profilestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no profile exists for a name.
	ErrNotFound = errors.New("profilestore: not found")

	// ErrCorrupt is wrapped by errors for records that cannot be decoded.
	ErrCorrupt = errors.New("profilestore: corrupt record")

	// ErrInvalidName is returned for names that cannot be used as a record key.
	ErrInvalidName = errors.New("profilestore: invalid speaker name")
)

// Ext is the file extension of profile records in file-oriented backends.
const Ext = ".vpr"

// MaxNameLen is the longest accepted speaker name in bytes.
const MaxNameLen = 128

// Profile is the stored reference for one enrolled speaker.
type Profile struct {
	// Name is the speaker name. Case-sensitive, unique within a store.
	Name string `json:"name" yaml:"name"`

	// Embedding is the reference embedding (mean MFCC vector).
	Embedding []float64 `json:"embedding" yaml:"embedding"`

	// Samples is the number of recordings averaged into Embedding.
	Samples int `json:"samples" yaml:"samples"`

	// EnrolledAt is when the profile was written.
	EnrolledAt time.Time `json:"enrolled_at" yaml:"enrolled_at"`
}

// SkippedRecord describes a stored record that List could not read.
type SkippedRecord struct {
	// Key identifies the record in its backend (file name, KV key, object key).
	Key string `json:"key" yaml:"key"`

	// Err is the decode or read failure. It wraps ErrCorrupt for undecodable data.
	Err error `json:"-" yaml:"-"`
}

func (s SkippedRecord) Error() string {
	return fmt.Sprintf("profilestore: skipped %s: %v", s.Key, s.Err)
}

func (s SkippedRecord) Unwrap() error { return s.Err }

// Listing is the result of Store.List.
type Listing struct {
	// Profiles holds every readable profile, sorted by name.
	Profiles []Profile

	// Skipped holds records that could not be read, sorted by key.
	Skipped []SkippedRecord
}

// Names returns the names of all readable profiles in listing order.
func (l *Listing) Names() []string {
	names := make([]string, len(l.Profiles))
	for i, p := range l.Profiles {
		names[i] = p.Name
	}
	return names
}

// sort orders profiles by name and skipped records by key so that every
// backend returns a stable, comparable order.
func (l *Listing) sort() {
	slices.SortFunc(l.Profiles, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	slices.SortFunc(l.Skipped, func(a, b SkippedRecord) int { return strings.Compare(a.Key, b.Key) })
}

// Store is the interface for durable speaker profile storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores p under p.Name, replacing any existing profile atomically.
	Put(ctx context.Context, p Profile) error

	// Get returns the profile for name. Returns ErrNotFound if not present.
	Get(ctx context.Context, name string) (Profile, error)

	// List reads every profile from durable state. Unreadable records are
	// reported in Listing.Skipped instead of failing the call.
	List(ctx context.Context) (*Listing, error)

	// Delete removes the profile for name. No error if it does not exist.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error
}

// ValidateName reports whether name can be used as a speaker key in every
// backend: non-empty, at most MaxNameLen bytes, no path separators or NUL,
// and not starting with '.'.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > MaxNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLen)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q starts with '.'", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidName, name)
	}
	return nil
}
