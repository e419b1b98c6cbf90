package app

import (
	"context"
	"reflect"
	"testing"
)

func TestComputeAncestors(t *testing.T) {
	if got := computeAncestors(nil, nil); len(got) != 0 {
		t.Fatalf("root should get an empty chain, got %v", got)
	}

	parent := "p_root"
	if got := computeAncestors([]string{}, &parent); !reflect.DeepEqual(got, []string{"p_root"}) {
		t.Fatalf("child of a root: got %v", got)
	}

	deep := "p_c"
	got := computeAncestors([]string{"p_a", "p_b"}, &deep)
	if !reflect.DeepEqual(got, []string{"p_a", "p_b", "p_c"}) {
		t.Fatalf("chain should be parent chain plus parent, got %v", got)
	}
}

func TestMoveMaintainsAncestorChain(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	seedPost(fake, "p_a", "A", nil, nil)
	seedPost(fake, "p_b", "B", strPtr("p_a"), []string{"p_a"})
	seedPost(fake, "p_c", "C", strPtr("p_b"), []string{"p_a", "p_b"})
	seedPost(fake, "p_d", "D", nil, nil)

	moved, err := svc.Move(ctx, "p_c", strPtr("p_d"))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != "p_d" {
		t.Fatalf("parent not updated: %+v", moved.ParentID)
	}
	if !reflect.DeepEqual(moved.Ancestors, []string{"p_d"}) {
		t.Fatalf("ancestors not recomputed: %v", moved.Ancestors)
	}

	// deeper target: chain is the new parent's chain plus the parent
	moved, err = svc.Move(ctx, "p_c", strPtr("p_b"))
	if err != nil {
		t.Fatalf("move back: %v", err)
	}
	if !reflect.DeepEqual(moved.Ancestors, []string{"p_a", "p_b"}) {
		t.Fatalf("ancestors after second move: %v", moved.Ancestors)
	}
}

func TestMoveToRoot(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)

	seedPost(fake, "p_a", "A", nil, nil)
	seedPost(fake, "p_b", "B", strPtr("p_a"), []string{"p_a"})

	moved, err := svc.Move(context.Background(), "p_b", nil)
	if err != nil {
		t.Fatalf("move to root: %v", err)
	}
	if moved.ParentID != nil {
		t.Fatalf("parent should be nil, got %v", *moved.ParentID)
	}
	if len(moved.Ancestors) != 0 {
		t.Fatalf("ancestors should be empty, got %v", moved.Ancestors)
	}
}

func TestMoveRejectsSelfParent(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)

	seedPost(fake, "p_a", "A", nil, nil)

	_, err := svc.Move(context.Background(), "p_a", strPtr("p_a"))
	assertDomainCode(t, err, "SELF_PARENT")
}

func TestMoveRejectsUnknownParent(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)

	seedPost(fake, "p_a", "A", nil, nil)

	_, err := svc.Move(context.Background(), "p_a", strPtr("p_ghost"))
	assertDomainCode(t, err, "INVALID_PARENT")
}

func TestMoveRejectsCycleAndLeavesStateUnchanged(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	seedPost(fake, "p_a", "A", nil, nil)
	seedPost(fake, "p_b", "B", strPtr("p_a"), []string{"p_a"})
	seedPost(fake, "p_c", "C", strPtr("p_b"), []string{"p_a", "p_b"})

	// moving A under its own descendant C would make A its own ancestor
	_, err := svc.Move(ctx, "p_a", strPtr("p_c"))
	assertDomainCode(t, err, "CYCLIC")

	unchanged, err := svc.GetPost(ctx, "p_a")
	if err != nil {
		t.Fatalf("get after rejected move: %v", err)
	}
	if unchanged.ParentID != nil || len(unchanged.Ancestors) != 0 {
		t.Fatalf("rejected move mutated the post: parent=%v ancestors=%v", unchanged.ParentID, unchanged.Ancestors)
	}
}

func TestChildrenOrdering(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)

	seedPost(fake, "p_root", "Root", nil, nil)
	first := seedPost(fake, "p_1", "Zebra", strPtr("p_root"), []string{"p_root"})
	first.MenuOrder = 1
	fake.posts["p_1"] = first
	second := seedPost(fake, "p_2", "Apple", strPtr("p_root"), []string{"p_root"})
	second.MenuOrder = 2
	fake.posts["p_2"] = second
	third := seedPost(fake, "p_3", "Mango", strPtr("p_root"), []string{"p_root"})
	third.MenuOrder = 1
	fake.posts["p_3"] = third

	children, err := svc.Children(context.Background(), strPtr("p_root"), "")
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	got := make([]string, 0, len(children))
	for _, child := range children {
		got = append(got, child.ID)
	}
	// menu_order ties break on title
	want := []string{"p_3", "p_1", "p_2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("children order: got %v want %v", got, want)
	}
}

func TestBreadcrumbsOrderAndDeletedAncestors(t *testing.T) {
	fake := newFakeStore()
	svc := newTestService(fake)
	ctx := context.Background()

	seedPost(fake, "p_a", "A", nil, nil)
	seedPost(fake, "p_b", "B", strPtr("p_a"), []string{"p_a"})
	seedPost(fake, "p_c", "C", strPtr("p_b"), []string{"p_a", "p_b"})

	crumbs, err := svc.Breadcrumbs(ctx, "p_c")
	if err != nil {
		t.Fatalf("breadcrumbs: %v", err)
	}
	got := make([]string, 0, len(crumbs))
	for _, crumb := range crumbs {
		got = append(got, crumb.ID)
	}
	if !reflect.DeepEqual(got, []string{"p_a", "p_b", "p_c"}) {
		t.Fatalf("root-to-leaf order expected, got %v", got)
	}

	// a soft-deleted ancestor drops out of the trail instead of erroring
	deleted := fake.posts["p_b"]
	deleted.IsDeleted = true
	fake.posts["p_b"] = deleted

	crumbs, err = svc.Breadcrumbs(ctx, "p_c")
	if err != nil {
		t.Fatalf("breadcrumbs with deleted ancestor: %v", err)
	}
	got = got[:0]
	for _, crumb := range crumbs {
		got = append(got, crumb.ID)
	}
	if !reflect.DeepEqual(got, []string{"p_a", "p_c"}) {
		t.Fatalf("deleted ancestor should be skipped, got %v", got)
	}
}

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	domainErr, ok := err.(*DomainError)
	if !ok {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s", code, domainErr.Code)
	}
}
