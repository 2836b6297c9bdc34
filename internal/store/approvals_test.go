package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCreateApproval(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustCreateDecision(t, db, "d1", "obj", "PROCEED", time.Time{})

	adj := 0.5
	a := &Approval{ID: "a1", DecisionID: "d1", Approved: true, ConfidenceAdjustment: &adj, Reward: 1.5}
	if err := db.CreateApproval(ctx, a); err != nil {
		t.Fatalf("CreateApproval: %v", err)
	}
	if a.Timestamp.IsZero() {
		t.Error("expected timestamp to default to now")
	}

	got, err := db.GetApproval(ctx, "a1")
	if err != nil {
		t.Fatalf("GetApproval: %v", err)
	}
	if !got.Approved || got.Reward != 1.5 {
		t.Errorf("got %+v", got)
	}
	if got.ConfidenceAdjustment == nil || *got.ConfidenceAdjustment != 0.5 {
		t.Errorf("adjustment = %v, want 0.5", got.ConfidenceAdjustment)
	}
}

func TestCreateApprovalNoAdjustment(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustCreateDecision(t, db, "d1", "obj", "PROCEED", time.Time{})

	ts := time.UnixMilli(1700000000000).UTC()
	if err := db.CreateApproval(ctx, &Approval{ID: "a1", DecisionID: "d1", Approved: false, Timestamp: ts, Reward: -1}); err != nil {
		t.Fatalf("CreateApproval: %v", err)
	}

	got, err := db.GetApproval(ctx, "a1")
	if err != nil {
		t.Fatalf("GetApproval: %v", err)
	}
	if got.ConfidenceAdjustment != nil {
		t.Errorf("adjustment = %v, want nil", *got.ConfidenceAdjustment)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestCreateApprovalUnknownDecision(t *testing.T) {
	db := testDB(t)

	err := db.CreateApproval(context.Background(), &Approval{ID: "a1", DecisionID: "ghost", Approved: true, Reward: 1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListApprovals(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustCreateDecision(t, db, "d1", "obj", "PROCEED", time.Time{})
	mustCreateDecision(t, db, "d2", "obj", "HALT", time.Time{})

	base := time.UnixMilli(1700000000000)
	db.CreateApproval(ctx, &Approval{ID: "a1", DecisionID: "d1", Approved: true, Timestamp: base, Reward: 1})
	db.CreateApproval(ctx, &Approval{ID: "a2", DecisionID: "d1", Approved: false, Timestamp: base.Add(time.Minute), Reward: -1})
	db.CreateApproval(ctx, &Approval{ID: "a3", DecisionID: "d2", Approved: true, Timestamp: base, Reward: 1})

	list, err := db.ListApprovals(ctx, "d1")
	if err != nil {
		t.Fatalf("ListApprovals: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a2" {
		t.Fatalf("list = %+v, want [a2 a1]", list)
	}
}

func TestGetApprovalNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetApproval(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestQueryTimeout(t *testing.T) {
	db := testDB(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := db.GetDecision(ctx, "d1")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
}
