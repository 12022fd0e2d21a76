package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// storeUnderTest builds each backend fresh for the shared conformance tests.
func storeUnderTest(t *testing.T, name string) Store {
	t.Helper()

	switch name {
	case "memory":
		return NewMemory()
	case "file":
		store, err := NewFile(filepath.Join(t.TempDir(), "state.json"))
		if err != nil {
			t.Fatalf("NewFile failed: %v", err)
		}
		return store
	default:
		t.Fatalf("unknown store %q", name)
		return nil
	}
}

func TestStore_BoolDefaultsFalse(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"memory", "file"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := storeUnderTest(t, name)
			got, err := store.GetBool(context.Background(), "hasChecked")
			if err != nil {
				t.Fatalf("GetBool failed: %v", err)
			}
			if got {
				t.Error("unset bool should read false")
			}
		})
	}
}

func TestStore_SetGetBool(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"memory", "file"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := storeUnderTest(t, name)

			if err := store.SetBool(ctx, "hasChecked", true); err != nil {
				t.Fatalf("SetBool failed: %v", err)
			}
			got, err := store.GetBool(ctx, "hasChecked")
			if err != nil {
				t.Fatalf("GetBool failed: %v", err)
			}
			if !got {
				t.Error("bool should read true after SetBool(true)")
			}

			if err := store.SetBool(ctx, "hasChecked", false); err != nil {
				t.Fatalf("SetBool failed: %v", err)
			}
			got, err = store.GetBool(ctx, "hasChecked")
			if err != nil {
				t.Fatalf("GetBool failed: %v", err)
			}
			if got {
				t.Error("bool should read false after SetBool(false)")
			}
		})
	}
}

func TestStore_DataRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"memory", "file"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := storeUnderTest(t, name)
			payload := []byte(`{"matched":true,"link":{"id":"lnk_1"}}`)

			if _, err := store.GetData(ctx, "cachedResult"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetData on empty store: err = %v, want ErrNotFound", err)
			}

			if err := store.SetData(ctx, "cachedResult", payload); err != nil {
				t.Fatalf("SetData failed: %v", err)
			}
			got, err := store.GetData(ctx, "cachedResult")
			if err != nil {
				t.Fatalf("GetData failed: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("GetData = %s, want %s", got, payload)
			}
		})
	}
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"memory", "file"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := storeUnderTest(t, name)

			if err := store.SetBool(ctx, "hasChecked", true); err != nil {
				t.Fatalf("SetBool failed: %v", err)
			}
			if err := store.SetData(ctx, "cachedResult", []byte(`{}`)); err != nil {
				t.Fatalf("SetData failed: %v", err)
			}

			if err := store.Remove(ctx, "hasChecked"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if err := store.Remove(ctx, "cachedResult"); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}

			got, err := store.GetBool(ctx, "hasChecked")
			if err != nil {
				t.Fatalf("GetBool failed: %v", err)
			}
			if got {
				t.Error("removed bool should read false")
			}
			if _, err := store.GetData(ctx, "cachedResult"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetData after Remove: err = %v, want ErrNotFound", err)
			}

			// Removing an absent key is not an error.
			if err := store.Remove(ctx, "neverSet"); err != nil {
				t.Errorf("Remove of absent key failed: %v", err)
			}
		})
	}
}

func TestFile_SurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	first, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	if err := first.SetBool(ctx, "hasChecked", true); err != nil {
		t.Fatalf("SetBool failed: %v", err)
	}
	if err := first.SetData(ctx, "cachedResult", []byte(`{"matched":true}`)); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}

	second, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	checked, err := second.GetBool(ctx, "hasChecked")
	if err != nil {
		t.Fatalf("GetBool failed: %v", err)
	}
	if !checked {
		t.Error("bool should survive reopen")
	}
	data, err := second.GetData(ctx, "cachedResult")
	if err != nil {
		t.Fatalf("GetData failed: %v", err)
	}
	if string(data) != `{"matched":true}` {
		t.Errorf("data after reopen = %s", data)
	}
}
