package profilestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir stores one <name>.vpr file per speaker in a local directory.
//
// Put writes to a hidden temporary file in the same directory and renames it
// over the target, so readers never observe a partially written record.
type Dir struct {
	root string
}

// NewDir creates a Dir store rooted at dir.
// The directory is created (with parents) if it does not already exist.
func NewDir(dir string) (*Dir, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute directory holding the records.
func (d *Dir) Root() string {
	return d.root
}

// path returns the record file for name.
func (d *Dir) path(name string) string {
	return filepath.Join(d.root, name+Ext)
}

func (d *Dir) Put(_ context.Context, p Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}

	tmp := filepath.Join(d.root, "."+p.Name+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, d.path(p.Name)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (d *Dir) Get(_ context.Context, name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	data, err := os.ReadFile(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	return decodeProfile(name, data)
}

// List reads every <name>.vpr file in the directory. Hidden files (including
// in-flight temporary files) and subdirectories are ignored. A missing
// directory yields an empty listing.
func (d *Dir) List(ctx context.Context) (*Listing, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return &Listing{}, nil
	}
	if err != nil {
		return nil, err
	}

	l := &Listing{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := e.Name()
		if e.IsDir() || strings.HasPrefix(file, ".") || !strings.HasSuffix(file, Ext) {
			continue
		}
		name := strings.TrimSuffix(file, Ext)
		data, err := os.ReadFile(filepath.Join(d.root, file))
		if err != nil {
			l.Skipped = append(l.Skipped, SkippedRecord{Key: file, Err: err})
			continue
		}
		p, err := decodeProfile(name, data)
		if err != nil {
			l.Skipped = append(l.Skipped, SkippedRecord{Key: file, Err: err})
			continue
		}
		l.Profiles = append(l.Profiles, p)
	}
	l.sort()
	return l, nil
}

// Delete removes the record for name. If it does not exist, Delete
// returns nil (idempotent).
func (d *Dir) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := os.Remove(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Dir) Close() error { return nil }

// Compile-time interface check.
var _ Store = (*Dir)(nil)
