package task

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestResolve_DefaultShowsVisiblePending(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "later", Due: "2021-01-10"})
	mustAdd(t, store, AddOptions{Description: "someday"})
	mustAdd(t, store, AddOptions{Description: "sooner", Due: "2021-01-08"})
	mustAdd(t, store, AddOptions{Description: "hidden", Due: "2021-01-20", Hide: "2021-01-09"})
	done := mustAdd(t, store, AddOptions{Description: "finished"})
	mustAdd(t, store, AddOptions{Description: "weekly review", Due: "2021-02-01", Recur: "W"})

	if _, err := store.Complete(ctx, ByID(done.ID)); err != nil {
		t.Fatalf("failed to complete task: %v", err)
	}

	got := descriptions(mustResolve(t, store, Filter{}))
	want := []string{"sooner", "later", "someday"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResolve_IDIgnoresHide(t *testing.T) {
	store, _ := openTestStore(t)

	hidden := mustAdd(t, store, AddOptions{Description: "hidden", Due: "2021-01-20", Hide: "+3"})
	mustAdd(t, store, AddOptions{Description: "visible"})

	tasks := mustResolve(t, store, mustFilter(t, store, "id:"+FormatID(hidden.ID)))
	if len(tasks) != 1 || tasks[0].UUID != hidden.UUID {
		t.Fatalf("expected the hidden task, got %v", descriptions(tasks))
	}
}

func TestResolve_IDWinsOverOtherTerms(t *testing.T) {
	store, _ := openTestStore(t)

	first := mustAdd(t, store, AddOptions{Description: "first", Groups: "WORK"})
	mustAdd(t, store, AddOptions{Description: "second", Groups: "HOME"})

	tasks := mustResolve(t, store, mustFilter(t, store, "gr:HOME", "id:"+FormatID(first.ID)))
	if got := descriptions(tasks); !reflect.DeepEqual(got, []string{"first"}) {
		t.Errorf("expected id branch to short-circuit, got %v", got)
	}
}

func TestResolve_Now(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "a"})
	b := mustAdd(t, store, AddOptions{Description: "b"})

	if tasks := mustResolve(t, store, mustFilter(t, store, "NOW")); len(tasks) != 0 {
		t.Fatalf("expected no now task yet, got %v", descriptions(tasks))
	}
	if _, err := store.ToggleNow(ctx, ByID(b.ID)); err != nil {
		t.Fatalf("failed to toggle now: %v", err)
	}
	tasks := mustResolve(t, store, mustFilter(t, store, "NOW", "gr:NOPE"))
	if got := descriptions(tasks); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected [b], got %v", got)
	}
}

func TestResolve_UUIDSpansAreas(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	binned := mustAdd(t, store, AddOptions{Description: "binned"})
	if _, err := store.Delete(ctx, ByID(binned.ID), DeleteOptions{}); err != nil {
		t.Fatalf("failed to delete task: %v", err)
	}

	tasks := mustResolve(t, store, mustFilter(t, store, "uuid:"+binned.UUID[:8]))
	if len(tasks) != 1 || tasks[0].Area != AreaBin {
		t.Fatalf("expected the binned task by uuid prefix, got %+v", tasks)
	}

	if tasks := mustResolve(t, store, mustFilter(t, store, "uuid:ffffffff-none")); len(tasks) != 0 {
		t.Errorf("expected unknown uuid to match nothing, got %v", descriptions(tasks))
	}
}

func TestResolve_UUIDPrefixAmbiguous(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"abcd0001-0000-0000-0000-000000000000", "abcd0002-0000-0000-0000-000000000000"} {
		if _, err := store.WriteVersion(ctx, Task{UUID: id, Description: id}); err != nil {
			t.Fatalf("failed to write task: %v", err)
		}
	}

	_, err := store.Resolve(ctx, mustFilter(t, store, "uuid:abcd"))
	if !errors.Is(err, ErrAmbiguousUUIDPrefix) {
		t.Fatalf("expected ErrAmbiguousUUIDPrefix, got %v", err)
	}

	tasks := mustResolve(t, store, mustFilter(t, store, "uuid:abcd0002"))
	if len(tasks) != 1 || tasks[0].UUID != "abcd0002-0000-0000-0000-000000000000" {
		t.Errorf("expected unique prefix to resolve, got %v", descriptions(tasks))
	}
}

func TestResolve_GroupAndTagIntersect(t *testing.T) {
	store, _ := openTestStore(t)

	mustAdd(t, store, AddOptions{Description: "electricity", Groups: "HOME.BILLS", Tags: "bills"})
	mustAdd(t, store, AddOptions{Description: "vacuum", Groups: "HOME", Tags: "chores"})
	mustAdd(t, store, AddOptions{Description: "invoice", Groups: "WORK", Tags: "bills"})
	mustAdd(t, store, AddOptions{Description: "office rent", Groups: "HOMEOFFICE", Tags: "bills,rent"})

	tasks := mustResolve(t, store, mustFilter(t, store, "group:HOME", "tag:bills"))
	got := descriptions(tasks)
	want := []string{"electricity", "office rent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if tasks := mustResolve(t, store, mustFilter(t, store, "group:home")); len(tasks) != 0 {
		t.Errorf("expected group match to be case-sensitive, got %v", descriptions(tasks))
	}
}

func TestResolve_Lenses(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "overdue", Due: "2021-01-01"})
	mustAdd(t, store, AddOptions{Description: "today", Due: "2021-01-06"})
	mustAdd(t, store, AddOptions{Description: "hidden overdue", Due: "2021-01-02", Hide: "2021-01-10"})
	started := mustAdd(t, store, AddOptions{Description: "started", Due: "2021-01-30"})
	mustAdd(t, store, AddOptions{Description: "plain"})
	if _, err := store.Start(ctx, ByID(started.ID)); err != nil {
		t.Fatalf("failed to start task: %v", err)
	}

	tests := []struct {
		args []string
		want []string
	}{
		{args: []string{"OVERDUE"}, want: []string{"overdue"}},
		{args: []string{"TODAY"}, want: []string{"today"}},
		{args: []string{"HIDDEN"}, want: []string{"hidden overdue"}},
		{args: []string{"STARTED"}, want: []string{"started"}},
		{args: []string{"OVERDUE", "TODAY"}, want: []string{"overdue", "today"}},
		{args: []string{"HIDDEN", "OVERDUE"}, want: []string{"overdue", "hidden overdue"}},
		{args: []string{"OVERDUE", "TODAY", "de:TOD"}, want: []string{"today"}},
	}
	for _, tt := range tests {
		got := descriptions(mustResolve(t, store, mustFilter(t, store, tt.args...)))
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%v: expected %v, got %v", tt.args, tt.want, got)
		}
	}
}

func TestResolve_DoneAndBinSwitchArea(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "laundry", Tags: "home"})
	mustAdd(t, store, AddOptions{Description: "taxes", Tags: "money"})
	mustAdd(t, store, AddOptions{Description: "junk", Tags: "home"})
	if _, err := store.Complete(ctx, mustFilter(t, store, "de:laundry")); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}
	if _, err := store.Complete(ctx, mustFilter(t, store, "de:taxes")); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}
	if _, err := store.Delete(ctx, mustFilter(t, store, "de:junk"), DeleteOptions{}); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	if got := descriptions(mustResolve(t, store, mustFilter(t, store, "DONE", "tag:home"))); !reflect.DeepEqual(got, []string{"laundry"}) {
		t.Errorf("expected [laundry], got %v", got)
	}
	if got := descriptions(mustResolve(t, store, mustFilter(t, store, "done"))); len(got) != 2 {
		t.Errorf("expected two completed tasks, got %v", got)
	}
	if got := descriptions(mustResolve(t, store, mustFilter(t, store, "BIN"))); !reflect.DeepEqual(got, []string{"junk"}) {
		t.Errorf("expected [junk], got %v", got)
	}
	if got := descriptions(mustResolve(t, store, mustFilter(t, store, "tag:home"))); len(got) != 0 {
		t.Errorf("expected no pending home tasks, got %v", got)
	}
}

func TestResolve_DatePredicates(t *testing.T) {
	store, _ := openTestStore(t)

	mustAdd(t, store, AddOptions{Description: "a", Due: "2021-01-05"})
	mustAdd(t, store, AddOptions{Description: "b", Due: "2021-01-10"})
	mustAdd(t, store, AddOptions{Description: "c", Due: "2021-01-15"})
	mustAdd(t, store, AddOptions{Description: "none"})

	tests := []struct {
		arg  string
		want []string
	}{
		{arg: "due:eq:2021-01-10", want: []string{"b"}},
		{arg: "due:lt:2021-01-10", want: []string{"a"}},
		{arg: "due:le:2021-01-10", want: []string{"a", "b"}},
		{arg: "due:gt:2021-01-10", want: []string{"c"}},
		{arg: "due:ge:2021-01-10", want: []string{"b", "c"}},
		{arg: "due:bt:2021-01-05:2021-01-10", want: []string{"a", "b"}},
		{arg: "due:bt:+4:-1", want: []string{"a", "b"}},
		{arg: "due:any", want: []string{"a", "b", "c"}},
		{arg: "end:any", want: nil},
	}
	for _, tt := range tests {
		got := mustResolve(t, store, mustFilter(t, store, tt.arg))
		if names := descriptions(got); len(names) != len(tt.want) || (len(names) > 0 && !reflect.DeepEqual(names, tt.want)) {
			t.Errorf("%s: expected %v, got %v", tt.arg, tt.want, names)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "one", Groups: "HOME"})
	mustAdd(t, store, AddOptions{Description: "two", Groups: "HOME", Due: "2021-01-07"})
	f := mustFilter(t, store, "gr:HOME")

	first, err := store.Resolve(ctx, f)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	second, err := store.Resolve(ctx, f)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %v and %v", first, second)
	}
}
