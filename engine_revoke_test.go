package devcred

import (
	"context"
	"errors"
	"testing"
)

func TestRevokeFamilyUnknownDevice(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	n, err := engine.RevokeFamily(context.Background(), "identity-1", "never-seen", RevokeReasonLogout)
	if err != nil {
		t.Fatalf("RevokeFamily failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 revocations, got %d", n)
	}
}

func TestRevokeFamilyIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	if _, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	}); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	n, err := engine.RevokeFamily(context.Background(), "identity-1", "device-1", RevokeReasonLogout)
	if err != nil {
		t.Fatalf("RevokeFamily failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 revocation, got %d", n)
	}

	n, err = engine.RevokeFamily(context.Background(), "identity-1", "device-1", RevokeReasonLogout)
	if err != nil {
		t.Fatalf("repeat RevokeFamily failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected repeat to be a noop, got %d", n)
	}
}

func TestRevokeFamilyReplayReasonCompromises(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	if _, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	}); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	n, err := engine.RevokeFamily(context.Background(), "identity-1", "device-1", RevokeReasonReplay)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 revocation, got n=%d err=%v", n, err)
	}

	info, err := engine.FamilyInfo(context.Background(), "identity-1", "device-1")
	if err != nil {
		t.Fatalf("FamilyInfo failed: %v", err)
	}
	if info.Status != FamilyCompromised {
		t.Fatalf("expected compromised, got %v", info.Status)
	}

	// Compromised is sticky; an ordinary revoke cannot downgrade it.
	n, err = engine.RevokeFamily(context.Background(), "identity-1", "device-1", RevokeReasonLogout)
	if err != nil || n != 0 {
		t.Fatalf("expected sticky compromise, got n=%d err=%v", n, err)
	}
}

func TestRevokeFamilyIDUnknown(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	n, err := engine.RevokeFamilyID(context.Background(), "no-such-family", RevokeReasonAdmin)
	if err != nil {
		t.Fatalf("RevokeFamilyID failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 revocations, got %d", n)
	}
}

func TestFamilyInfoUnknownDevice(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	if _, err := engine.FamilyInfo(context.Background(), "identity-1", "device-1"); !errors.Is(err, ErrFamilyNotFound) {
		t.Fatalf("expected ErrFamilyNotFound, got %v", err)
	}
}

func TestFamilyInfoReflectsRotation(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	issued, err := engine.Issue(context.Background(), IssueInput{
		IdentityID: "identity-1",
		DeviceID:   "device-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := engine.Rotate(context.Background(), issued.Credential); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}

	info, err := engine.FamilyInfo(context.Background(), "identity-1", "device-1")
	if err != nil {
		t.Fatalf("FamilyInfo failed: %v", err)
	}
	if info.FamilyID != issued.FamilyID || info.Generation != 1 || info.Status != FamilyActive {
		t.Fatalf("unexpected family info: %+v", info)
	}
}
