package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	if err := s.PutObject(ctx, "flags/1", strings.NewReader("png"), 3, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, stat, err := ReadAll(ctx, s, "flags/1")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png" || stat.ContentType != "image/png" || stat.SizeBytes != 3 {
		t.Fatalf("unexpected object %q %+v", data, stat)
	}
	if err := s.PutObject(ctx, "flags/2", strings.NewReader("pn"), 3, ""); err == nil {
		t.Fatalf("expected short object error")
	}
	if err := s.RemoveObject(ctx, "flags/1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.StatObject(ctx, "flags/1"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
