package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPlanCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	mustCreateDecision(t, db, "d1", "obj", "PROCEED", time.Time{})

	p := &Plan{ID: "p1", DecisionID: "d1", Name: "rollout", Description: "phase one"}
	if err := db.CreatePlan(ctx, p); err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if err := db.CreatePlan(ctx, &Plan{ID: "p2", Name: "standalone"}); err != nil {
		t.Fatalf("CreatePlan standalone: %v", err)
	}

	got, err := db.GetPlan(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.DecisionID != "d1" || got.Name != "rollout" {
		t.Errorf("got %+v", got)
	}

	plans, err := db.ListPlans(ctx, 10)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 2 {
		t.Errorf("len = %d, want 2", len(plans))
	}

	if err := db.DeletePlan(ctx, "p1"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := db.GetPlan(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
	if err := db.DeletePlan(ctx, "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestPlanUnknownDecision(t *testing.T) {
	db := testDB(t)

	err := db.CreatePlan(context.Background(), &Plan{ID: "p1", DecisionID: "ghost", Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeploymentCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	db.CreatePlan(ctx, &Plan{ID: "p1", Name: "rollout"})
	db.CreatePlan(ctx, &Plan{ID: "p2", Name: "other"})

	dep := &Deployment{ID: "dep1", PlanID: "p1", Environment: "staging"}
	if err := db.CreateDeployment(ctx, dep); err != nil {
		t.Fatalf("CreateDeployment: %v", err)
	}
	if dep.Status != "pending" {
		t.Errorf("status = %q, want pending", dep.Status)
	}
	db.CreateDeployment(ctx, &Deployment{ID: "dep2", PlanID: "p2", Environment: "prod", Status: "running"})

	if err := db.CreateDeployment(ctx, &Deployment{ID: "dep3", PlanID: "p1", Environment: "prod", Status: "exploded"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("invalid status err = %v, want ErrInvalid", err)
	}

	forP1, err := db.ListDeployments(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("ListDeployments: %v", err)
	}
	if len(forP1) != 1 || forP1[0].ID != "dep1" {
		t.Errorf("p1 deployments = %+v", forP1)
	}

	// Deleting a plan cascades to its deployments.
	if err := db.DeletePlan(ctx, "p1"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, err := db.GetDeployment(ctx, "dep1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cascade err = %v, want ErrNotFound", err)
	}

	if err := db.DeleteDeployment(ctx, "dep2"); err != nil {
		t.Fatalf("DeleteDeployment: %v", err)
	}
	all, _ := db.ListDeployments(ctx, "", 10)
	if len(all) != 0 {
		t.Errorf("remaining = %d, want 0", len(all))
	}
}
