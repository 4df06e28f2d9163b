package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	verGuild  = Ref{ID: "g1", Name: "traders"}
	verRole   = Ref{ID: "r1", Name: "member"}
	verMember = Ref{ID: "m1", Name: "alice"}
)

func TestCreateDuplicatePending(t *testing.T) {
	ctx := context.Background()
	vers := NewVerificationStore(newFakeBackend(), testLogger())
	now := time.Now()

	if _, err := vers.Create(ctx, verGuild, verRole, verMember, now); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := vers.Create(ctx, verGuild, verRole, verMember, now); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
}

func TestIsPendingToleratesGuildNameDrift(t *testing.T) {
	ctx := context.Background()
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	if _, err := vers.Create(ctx, verGuild, verRole, verMember, time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Same name, different id: the guild was re-registered.
	renamed := Ref{ID: "g1-new", Name: "traders"}
	if !vers.IsPending(renamed, verMember.ID) {
		t.Fatal("expected a match by guild name when the id changed")
	}

	// Same id, different name: the guild was renamed.
	reID := Ref{ID: "g1", Name: "daytraders"}
	if !vers.IsPending(reID, verMember.ID) {
		t.Fatal("expected a match by guild id when the name changed")
	}

	if vers.IsPending(Ref{ID: "other", Name: "other"}, verMember.ID) {
		t.Fatal("unrelated guild must not match")
	}
}

func TestValidateCorrectAnswerRemovesRecord(t *testing.T) {
	ctx := context.Background()
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	rec, err := vers.Create(ctx, verGuild, verRole, verMember, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.Meta.Answer = 7
	if err := vers.UpdateMeta(ctx, verGuild, verMember.ID, rec.Meta); err != nil {
		t.Fatalf("updateMeta: %v", err)
	}

	got, err := vers.Validate(ctx, verMember.ID, 7)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Role.ID != verRole.ID {
		t.Fatalf("expected the matched record back, got %+v", got)
	}
	if vers.IsPending(verGuild, verMember.ID) {
		t.Fatal("validated record must be removed")
	}
}

func TestValidateWrongAnswerKeepsRecord(t *testing.T) {
	ctx := context.Background()
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	rec, err := vers.Create(ctx, verGuild, verRole, verMember, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rec.Meta.Answer = 7
	if err := vers.UpdateMeta(ctx, verGuild, verMember.ID, rec.Meta); err != nil {
		t.Fatalf("updateMeta: %v", err)
	}

	if _, err := vers.Validate(ctx, verMember.ID, 3); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	if !vers.IsPending(verGuild, verMember.ID) {
		t.Fatal("record must survive a wrong answer")
	}
}

func TestValidateNoPendingVerification(t *testing.T) {
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	if _, err := vers.Validate(context.Background(), "nobody", 5); !errors.Is(err, ErrNoPendingVerification) {
		t.Fatalf("expected ErrNoPendingVerification, got %v", err)
	}
}

func TestValidateIgnoresUnsetAnswer(t *testing.T) {
	ctx := context.Background()
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	// Freshly created record carries no expected answer yet.
	if _, err := vers.Create(ctx, verGuild, verRole, verMember, time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := vers.Validate(ctx, verMember.ID, AnswerUnset); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("the unset sentinel must never validate, got %v", err)
	}
}

func TestRemoveUnknownVerification(t *testing.T) {
	vers := NewVerificationStore(newFakeBackend(), testLogger())

	if err := vers.Remove(context.Background(), verGuild, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
