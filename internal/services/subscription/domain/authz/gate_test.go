package authz

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/fruitbox12/Subscription/internal/platform/errors"
	"github.com/fruitbox12/Subscription/internal/services/subscription/domain/principal"
)

type fakeAuthority struct {
	admin principal.ID
	err   error
	calls int
}

func (f *fakeAuthority) IsContractAdmin(_ context.Context, caller principal.ID) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return caller == f.admin, nil
}

func TestIsAuthorized(t *testing.T) {
	reader := &fakeAuthority{admin: "cosmos1admin"}
	gate := NewGate(reader)

	ok, err := gate.IsAuthorized(context.Background(), "cosmos1admin")
	if err != nil || !ok {
		t.Fatalf("admin: ok = %v, err = %v", ok, err)
	}
	ok, err = gate.IsAuthorized(context.Background(), "cosmos1other")
	if err != nil || ok {
		t.Fatalf("other: ok = %v, err = %v", ok, err)
	}
	if reader.calls != 2 {
		t.Fatalf("calls = %d, want 2", reader.calls)
	}
}

func TestIsAuthorizedComparesByteForByte(t *testing.T) {
	gate := NewGate(&fakeAuthority{admin: "cosmos1admin"})
	for _, caller := range []principal.ID{"COSMOS1ADMIN", " cosmos1admin", "cosmos1admin "} {
		ok, err := gate.IsAuthorized(context.Background(), caller)
		if err != nil {
			t.Fatalf("IsAuthorized(%q): %v", caller, err)
		}
		if ok {
			t.Fatalf("IsAuthorized(%q) = true, want false", caller)
		}
	}
}

func TestIsAuthorizedWrapsReadFailure(t *testing.T) {
	cause := stderrors.New("database is locked")
	gate := NewGate(&fakeAuthority{err: cause})

	ok, err := gate.IsAuthorized(context.Background(), "cosmos1admin")
	if ok {
		t.Fatal("expected not authorized on read failure")
	}
	if !errors.HasCode(err, errors.CodeStateRead) {
		t.Fatalf("err = %v, want STATE_READ_FAILED", err)
	}
	if errors.HasCode(err, errors.CodeUnauthorized) {
		t.Fatal("read failure must not look like unauthorized")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
}

func TestIsAuthorizedWithoutReader(t *testing.T) {
	_, err := Gate{}.IsAuthorized(context.Background(), "cosmos1admin")
	if !errors.HasCode(err, errors.CodeStateRead) {
		t.Fatalf("err = %v, want STATE_READ_FAILED", err)
	}
}
