package authz

import (
	"context"
	"testing"

	pkgerrors "github.com/lowvoltmgr/lowvolt-backend/pkg/errors"
)

func TestNewStaticPIN_RequiresPIN(t *testing.T) {
	if _, err := NewStaticPIN(""); err == nil {
		t.Fatal("expected error for empty pin")
	}
}

func TestStaticPIN_Confirm(t *testing.T) {
	confirmer, err := NewStaticPIN("8888")
	if err != nil {
		t.Fatalf("NewStaticPIN: %v", err)
	}

	if err := confirmer.Confirm(context.Background(), "8888"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	err = confirmer.Confirm(context.Background(), "1234")
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
