package profilestore

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// backend constructs a fresh empty Store for the shared tests below.
type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Store { return NewMemory() }},
		{"dir", func(t *testing.T) Store {
			s, err := NewDir(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			return s
		}},
		{"badger", func(t *testing.T) Store {
			s, err := NewBadger(BadgerOptions{InMemory: true})
			if err != nil {
				t.Fatal(err)
			}
			return s
		}},
		{"s3", func(t *testing.T) Store { return NewS3(newMockS3(), "bucket", "speakers") }},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func vec(first float64) []float64 {
	v := make([]float64, 20)
	v[0] = first
	return v
}

func TestPutGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.Get(ctx, "alice")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		want := Profile{Name: "alice", Embedding: vec(1), Samples: 3, EnrolledAt: at}
		if err := s.Put(ctx, want); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := s.Get(ctx, "alice")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != "alice" || got.Samples != 3 || !got.EnrolledAt.Equal(at) {
			t.Fatalf("Get = %+v", got)
		}
		if !slices.Equal(got.Embedding, want.Embedding) {
			t.Fatalf("embedding = %v, want %v", got.Embedding, want.Embedding)
		}
	})
}

func TestPutOverwrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, Profile{Name: "bob", Embedding: vec(1), Samples: 1}); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, Profile{Name: "bob", Embedding: vec(5), Samples: 2}); err != nil {
			t.Fatal(err)
		}

		l, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(l.Profiles) != 1 {
			t.Fatalf("List returned %d profiles, want 1", len(l.Profiles))
		}
		if l.Profiles[0].Embedding[0] != 5 || l.Profiles[0].Samples != 2 {
			t.Fatalf("profile not replaced: %+v", l.Profiles[0])
		}
	})
}

func TestListSortedByName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for i, name := range []string{"carol", "a-b", "Alice", "a", "bob"} {
			if err := s.Put(ctx, Profile{Name: name, Embedding: vec(float64(i + 1))}); err != nil {
				t.Fatal(err)
			}
		}
		l, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"Alice", "a", "a-b", "bob", "carol"}
		if got := l.Names(); !slices.Equal(got, want) {
			t.Fatalf("Names = %v, want %v", got, want)
		}
		if len(l.Skipped) != 0 {
			t.Fatalf("unexpected skipped records: %v", l.Skipped)
		}
	})
}

func TestListEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		l, err := s.List(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if len(l.Profiles) != 0 || len(l.Skipped) != 0 {
			t.Fatalf("expected empty listing, got %+v", l)
		}
	})
}

func TestDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, Profile{Name: "dave", Embedding: vec(1)}); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(ctx, "dave"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Get(ctx, "dave"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := s.Delete(ctx, "dave"); err != nil {
			t.Fatalf("second Delete: %v", err)
		}
	})
}

func TestPutRejectsInvalid(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, Profile{Name: "../evil", Embedding: vec(1)}); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName, got %v", err)
		}
		if err := s.Put(ctx, Profile{Name: "empty"}); err == nil {
			t.Fatal("expected error for empty embedding")
		}
		l, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(l.Profiles) != 0 {
			t.Fatalf("invalid profiles were stored: %v", l.Names())
		}
	})
}

func TestConcurrentPutList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Put(ctx, Profile{Name: "eve", Embedding: vec(1)}); err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 100)
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				if err := s.Put(ctx, Profile{Name: "eve", Embedding: vec(float64(i + 1))}); err != nil {
					errs <- err
				}
			}(i)
			go func() {
				defer wg.Done()
				l, err := s.List(ctx)
				if err != nil {
					errs <- err
					return
				}
				if len(l.Skipped) != 0 || len(l.Profiles) != 1 {
					errs <- errors.New("reader observed a partial record")
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	})
}

func TestValidateName(t *testing.T) {
	valid := []string{"alice", "Alice", "bob smith", "名字", "a.b", "a:b"}
	for _, n := range valid {
		if err := ValidateName(n); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", n, err)
		}
	}
	invalid := []string{"", ".hidden", "a/b", `a\b`, "a\x00b", string(make([]byte, MaxNameLen+1))}
	for _, n := range invalid {
		if err := ValidateName(n); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", n, err)
		}
	}
}
