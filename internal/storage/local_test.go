package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLocalBackend() error = %v", err)
	}
	return backend
}

func TestLocalBackendSaveOpenDelete(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	content := "fake image bytes"
	stored, err := backend.Save(ctx, CategoryVehicles, Upload{
		OriginalName: "front.JPG",
		ContentType:  "image/jpeg",
		Size:         int64(len(content)),
		Reader:       strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasSuffix(stored.Filename, ".jpg") {
		t.Errorf("Filename = %q, want .jpg suffix", stored.Filename)
	}
	if stored.Key != CategoryVehicles+"/"+stored.Filename {
		t.Errorf("Key = %q, want %q", stored.Key, CategoryVehicles+"/"+stored.Filename)
	}

	rc, err := backend.Open(ctx, stored.Key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	if err := backend.Delete(ctx, stored.Key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := backend.Open(ctx, stored.Key); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Open() after delete error = %v, want ErrFileNotFound", err)
	}
}

func TestLocalBackendDeleteMissing(t *testing.T) {
	backend := newTestBackend(t)

	if err := backend.Delete(context.Background(), "vehicles/nope.jpg"); err != nil {
		t.Errorf("Delete() of missing key error = %v, want nil", err)
	}
}

func TestKeyFromWebPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantKey string
		wantOK  bool
	}{
		{"vehicle photo", "/uploads/vehicles/a.jpg", "vehicles/a.jpg", true},
		{"buyer photo", "/uploads/buyers/b.png", "buyers/b.png", true},
		{"no prefix", "/other/a.jpg", "", false},
		{"empty key", "/uploads/", "", false},
		{"traversal", "/uploads/../secrets", "", false},
		{"nested traversal", "/uploads/vehicles/../../etc/passwd", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := KeyFromWebPath(tt.path)
			if ok != tt.wantOK || key != tt.wantKey {
				t.Errorf("KeyFromWebPath(%q) = (%q, %v), want (%q, %v)", tt.path, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}
