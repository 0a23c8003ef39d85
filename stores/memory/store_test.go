package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/internal/model"
)

func pending(id, email string, created time.Time) *model.Account {
	a := &model.Account{ID: id, Email: email, Name: "n", PasswordHash: "h", Role: model.RoleUser, CreatedAt: created, UpdatedAt: created}
	a.SetOTP(12345, created.Add(15*time.Minute))
	return a
}

func TestListUnverifiedNewestFirstWithIDTieBreak(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, a := range []*model.Account{
		pending("a", "x@example.com", base),
		pending("c", "x@example.com", base.Add(time.Minute)),
		pending("b", "x@example.com", base.Add(time.Minute)),
		pending("z", "other@example.com", base.Add(time.Hour)),
	} {
		if err := s.Insert(ctx, a); err != nil {
			t.Fatalf("Insert(%s): %v", a.ID, err)
		}
	}

	got, err := s.ListUnverifiedByEmail(ctx, "x@example.com")
	if err != nil {
		t.Fatalf("ListUnverifiedByEmail: %v", err)
	}
	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "b" || ids[2] != "a" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestDeleteUnverifiedExceptKeepsVerifiedAndKept(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	_ = s.Insert(ctx, pending("keep", "x@example.com", now))
	_ = s.Insert(ctx, pending("drop1", "x@example.com", now.Add(-time.Minute)))
	_ = s.Insert(ctx, pending("drop2", "x@example.com", now.Add(-2*time.Minute)))
	_ = s.Insert(ctx, pending("other", "y@example.com", now))

	removed, err := s.DeleteUnverifiedExcept(ctx, "x@example.com", "keep")
	if err != nil {
		t.Fatalf("DeleteUnverifiedExcept: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if n, _ := s.CountUnverifiedByEmail(ctx, "x@example.com"); n != 1 {
		t.Fatalf("expected 1 pending left, got %d", n)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", s.Len())
	}
}

func TestUpdateRejectsSecondVerified(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	first := pending("1", "x@example.com", now)
	second := pending("2", "x@example.com", now)
	_ = s.Insert(ctx, first)
	_ = s.Insert(ctx, second)

	first.Verified = true
	if err := s.Update(ctx, first); err != nil {
		t.Fatalf("first promote: %v", err)
	}
	second.Verified = true
	if err := s.Update(ctx, second); !errors.Is(err, model.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := s.Update(ctx, &model.Account{ID: "missing"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnedAccountsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Insert(ctx, pending("1", "x@example.com", time.Now()))

	a, _ := s.FindByID(ctx, "1")
	*a.OTPCode = 99999
	a.Name = "changed"

	b, _ := s.FindByID(ctx, "1")
	if *b.OTPCode != 12345 || b.Name != "n" {
		t.Fatal("store state leaked through returned pointer")
	}
}

func TestFindByResetTokenHashHonorsExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a := pending("1", "x@example.com", now)
	a.Verified = true
	a.ClearOTP()
	a.SetResetToken("digest", now.Add(15*time.Minute))
	_ = s.Insert(ctx, a)

	if _, err := s.FindByResetTokenHash(ctx, "digest", now.Add(14*time.Minute)); err != nil {
		t.Fatalf("expected live token, got %v", err)
	}
	if _, err := s.FindByResetTokenHash(ctx, "digest", now.Add(15*time.Minute)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected expiry at the boundary, got %v", err)
	}
	if _, err := s.FindByResetTokenHash(ctx, "other", now); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown digest, got %v", err)
	}
}
