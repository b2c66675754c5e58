package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jivhala-motors/backoffice/internal/domain"
)

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) ResolveUser(ctx context.Context, userID int64) (*domain.User, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &domain.User{ID: userID, Username: "admin", IsActive: true}, nil
}

func TestCachingResolverHit(t *testing.T) {
	inner := &countingResolver{}
	r := NewCachingResolver(inner, time.Minute)
	defer r.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		user, err := r.ResolveUser(ctx, 7)
		if err != nil {
			t.Fatalf("ResolveUser() error = %v", err)
		}
		if user.ID != 7 {
			t.Errorf("user ID = %d, want 7", user.ID)
		}
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestCachingResolverExpiry(t *testing.T) {
	inner := &countingResolver{}
	r := NewCachingResolver(inner, 10*time.Millisecond)
	defer r.Close()
	ctx := context.Background()

	if _, err := r.ResolveUser(ctx, 7); err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := r.ResolveUser(ctx, 7); err != nil {
		t.Fatalf("ResolveUser() error = %v", err)
	}

	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}

func TestCachingResolverErrorNotCached(t *testing.T) {
	inner := &countingResolver{err: errors.New("db down")}
	r := NewCachingResolver(inner, time.Minute)
	defer r.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := r.ResolveUser(ctx, 7); err == nil {
			t.Fatal("ResolveUser() error = nil, want error")
		}
	}

	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}
