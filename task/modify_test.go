package task

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/amonks/myt/internal/dates"
)

func TestStore_Modify_TagDelta(t *testing.T) {
	store, _ := openTestStore(t)

	created := mustAdd(t, store, AddOptions{Description: "tagged", Tags: "tag1,tag2"})
	result, err := store.Modify(context.Background(), ByID(created.ID), ModifyOptions{
		Tags: SetTo("-tag1,+tag9,-missing"),
	})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if got := result.Tasks[0].Tags; !reflect.DeepEqual(got, []string{"tag2", "tag9"}) {
		t.Errorf("expected [tag2 tag9], got %v", got)
	}
}

func TestStore_Modify_RoundTrip(t *testing.T) {
	store, _ := openTestStore(t)

	created := mustAdd(t, store, AddOptions{
		Description: "everything set",
		Priority:    "M",
		Due:         "2021-02-01",
		Hide:        "-3",
		Groups:      "WORK.Q1",
		Tags:        "a,b",
	})
	result, err := store.Modify(context.Background(), ByID(created.ID), ModifyOptions{})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	got := result.Tasks[0]

	if got.Version != created.Version+1 {
		t.Errorf("expected version %d, got %d", created.Version+1, got.Version)
	}
	// Only the version key and write metadata change.
	got.Version, got.CreatedAt, got.EventID = created.Version, created.CreatedAt, created.EventID
	if !reflect.DeepEqual(got, created) {
		t.Errorf("expected fields to round-trip\n got  %+v\n want %+v", got, created)
	}
}

func TestStore_Modify_SetAndClear(t *testing.T) {
	store, _ := openTestStore(t)

	created := mustAdd(t, store, AddOptions{
		Description: "old",
		Priority:    "H",
		Due:         "2021-02-01",
		Groups:      "HOME",
		Tags:        "x",
	})
	result, err := store.Modify(context.Background(), ByID(created.ID), ModifyOptions{
		Description: SetTo("new   text"),
		Priority:    SetTo(ClearValue),
		Due:         SetTo("CLR"),
		Groups:      SetTo(ClearValue),
		Tags:        SetTo(ClearValue),
	})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	got := result.Tasks[0]
	if got.Description != "new text" {
		t.Errorf("expected description %q, got %q", "new text", got.Description)
	}
	if got.Priority != PriorityNormal {
		t.Errorf("expected cleared priority to be N, got %q", got.Priority)
	}
	if got.Due != nil || got.Groups != "" || len(got.Tags) != 0 {
		t.Errorf("expected cleared fields, got due %v groups %q tags %v", got.Due, got.Groups, got.Tags)
	}
}

func TestStore_Modify_DueKeepsHideOffset(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	created := mustAdd(t, store, AddOptions{Description: "renew", Due: "2021-01-20", Hide: "-4"})

	result, err := store.Modify(ctx, ByID(created.ID), ModifyOptions{Due: SetTo("2021-01-30")})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if got := dates.Format(result.Tasks[0].Hide); got != "2021-01-26" {
		t.Errorf("expected hide to follow due to 2021-01-26, got %s", got)
	}

	result, err = store.Modify(ctx, ByID(created.ID), ModifyOptions{Due: SetTo("2021-02-10"), Hide: SetTo("-1")})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if got := dates.Format(result.Tasks[0].Hide); got != "2021-02-09" {
		t.Errorf("expected explicit hide 2021-02-09, got %s", got)
	}
}

func TestStore_Modify_CompletedTask(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	created := mustAdd(t, store, AddOptions{Description: "done already"})
	if _, err := store.Complete(ctx, ByID(created.ID)); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	result, err := store.Modify(ctx, mustFilter(t, store, "DONE"), ModifyOptions{Groups: SetTo("ARCHIVE")})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Groups != "ARCHIVE" || result.Tasks[0].Area != AreaCompleted {
		t.Errorf("expected completed task regrouped, got %+v", result.Tasks)
	}
}

func TestStore_Modify_MakesTaskRecur(t *testing.T) {
	store, _ := openTestStore(t)

	created := mustAdd(t, store, AddOptions{Description: "stretch", Due: "2021-01-06"})
	result, err := store.Modify(context.Background(), ByID(created.ID), ModifyOptions{Recur: SetTo("daily")})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}

	base := result.Tasks[0]
	if base.UUID != created.UUID || base.Type != TypeBase || base.ID != IDTombstone {
		t.Fatalf("expected the task to become a template, got %+v", base)
	}
	instances := result.Visible()
	if got := dueDates(instances); !reflect.DeepEqual(got, []string{"2021-01-06", "2021-01-07"}) {
		t.Errorf("expected occurrences on 01-06 and 01-07, got %v", got)
	}
	for _, instance := range instances {
		if instance.BaseUUID != base.UUID {
			t.Errorf("expected occurrence to reference %s, got %s", base.UUID, instance.BaseUUID)
		}
	}
}

func TestStore_Modify_RecurrenceNeedsAllInstances(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	mustAdd(t, store, AddOptions{Description: "journal", Due: "2021-01-06", Recur: "D"})
	target := mustResolve(t, store, mustFilter(t, store, "due:eq:2021-01-06"))[0]

	_, err := store.Modify(ctx, ByID(target.ID), ModifyOptions{Recur: SetTo("W")})
	if !errors.Is(err, ErrRecurrenceScope) {
		t.Fatalf("expected ErrRecurrenceScope, got %v", err)
	}
	if !IsValidation(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
	if history, _ := store.History(ctx, target.UUID); len(history) != 1 {
		t.Errorf("expected nothing written, got %d versions", len(history))
	}

	// Other fields can change on a single occurrence.
	result, err := store.Modify(ctx, ByID(target.ID), ModifyOptions{Description: SetTo("journal (short)")})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Type != TypeDerived {
		t.Errorf("expected one derived version, got %+v", result.Tasks)
	}
}

func TestStore_Modify_AllInstancesDescriptive(t *testing.T) {
	store, clock := openTestStore(t)
	ctx := context.Background()

	base := mustAdd(t, store, AddOptions{Description: "water plants", Due: "2021-01-06", Recur: "D"})

	result, err := store.Modify(ctx, mustFilter(t, store, "due:eq:2021-01-07"), ModifyOptions{
		Description:  SetTo("water the plants"),
		Tags:         SetTo("garden"),
		AllInstances: true,
	})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}
	if len(result.Tasks) != 3 {
		t.Fatalf("expected template and two occurrences, got %d", len(result.Tasks))
	}
	if result.Tasks[0].UUID != base.UUID || result.Tasks[0].Type != TypeBase {
		t.Errorf("expected template written first, got %+v", result.Tasks[0])
	}
	for _, task := range result.Tasks {
		if task.Description != "water the plants" || !reflect.DeepEqual(task.Tags, []string{"garden"}) {
			t.Errorf("expected updated fields on %s, got %q %v", task.UUID, task.Description, task.Tags)
		}
	}
	if got := dueDates(result.Visible()); !reflect.DeepEqual(got, []string{"2021-01-06", "2021-01-07"}) {
		t.Errorf("expected dates kept, got %v", got)
	}

	// New occurrences pick up the edit.
	clock.advanceDays(1)
	created, err := store.Materialize(ctx)
	if err != nil {
		t.Fatalf("failed to materialize: %v", err)
	}
	if len(created.Tasks) != 1 || created.Tasks[0].Description != "water the plants" {
		t.Errorf("expected one new occurrence with the new description, got %+v", created.Tasks)
	}
}

func TestStore_Modify_AllInstancesRegenerates(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	oldBase := mustAdd(t, store, AddOptions{Description: "standup", Due: "2021-01-06", Recur: "D"})
	if _, err := store.Complete(ctx, mustFilter(t, store, "due:eq:2021-01-06")); err != nil {
		t.Fatalf("failed to complete: %v", err)
	}

	_, err := store.Modify(ctx, mustFilter(t, store, "de:standup"), ModifyOptions{
		Hide:         SetTo("-1"),
		AllInstances: true,
	})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}

	if got := mustCurrent(t, store, oldBase.UUID); got.Area != AreaBin {
		t.Errorf("expected old template in bin, got %s", got.Area)
	}

	all := allCurrent(t, store)
	bases := ofType(all, TypeBase, AreaPending)
	if len(bases) != 1 || bases[0].UUID == oldBase.UUID {
		t.Fatalf("expected one new template, got %+v", bases)
	}
	if got := dates.Format(bases[0].Due); got != "2021-01-07" {
		t.Errorf("expected template to resume at 2021-01-07, got %s", got)
	}

	pending := ofType(all, TypeDerived, AreaPending)
	if len(pending) != 1 {
		t.Fatalf("expected one regenerated occurrence, got %d", len(pending))
	}
	if pending[0].BaseUUID != bases[0].UUID {
		t.Errorf("expected occurrence to reference the new template")
	}
	if dates.Format(pending[0].Due) != "2021-01-07" || dates.Format(pending[0].Hide) != "2021-01-06" {
		t.Errorf("expected due 2021-01-07 hide 2021-01-06, got %s %s", dates.Format(pending[0].Due), dates.Format(pending[0].Hide))
	}

	if binned := ofType(all, TypeDerived, AreaBin); len(binned) != 1 {
		t.Errorf("expected the old pending occurrence binned, got %d", len(binned))
	}
	unlinked := ofType(all, TypeNormal, AreaCompleted)
	if len(unlinked) != 1 || unlinked[0].BaseUUID != "" || unlinked[0].Recur != nil {
		t.Errorf("expected the completed occurrence unlinked, got %+v", unlinked)
	}
}

func TestStore_Modify_StopRecurring(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	base := mustAdd(t, store, AddOptions{Description: "feed fish", Due: "2021-01-06", Recur: "D"})

	_, err := store.Modify(ctx, mustFilter(t, store, "de:fish"), ModifyOptions{
		Recur:        SetTo(ClearValue),
		AllInstances: true,
	})
	if err != nil {
		t.Fatalf("failed to modify: %v", err)
	}

	if got := mustCurrent(t, store, base.UUID); got.Area != AreaBin {
		t.Errorf("expected template in bin, got %s", got.Area)
	}
	tasks := mustResolve(t, store, Filter{})
	if len(tasks) != 2 {
		t.Fatalf("expected both occurrences kept, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Type != TypeNormal || task.BaseUUID != "" || task.Recur != nil {
			t.Errorf("expected plain task, got %+v", task)
		}
	}
}
