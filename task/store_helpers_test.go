package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advanceDays(n int) {
	c.now = c.now.AddDate(0, 0, n)
}

func openTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	return openTestStoreWith(t, OpenOptions{})
}

func openTestStoreWith(t *testing.T, opts OpenOptions) (*Store, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2021, 1, 6, 9, 30, 0, 0, time.UTC)}
	opts.Now = clock.Now
	store, err := Open(filepath.Join(t.TempDir(), "tasks.db"), opts)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Release() })
	return store, clock
}

func mustAdd(t *testing.T, store *Store, opts AddOptions) Task {
	t.Helper()

	result, err := store.Add(context.Background(), opts)
	if err != nil {
		t.Fatalf("failed to add task %q: %v", opts.Description, err)
	}
	if len(result.Tasks) == 0 {
		t.Fatalf("add %q wrote nothing", opts.Description)
	}
	return result.Tasks[0]
}

func mustFilter(t *testing.T, store *Store, args ...string) Filter {
	t.Helper()

	f, err := ParseFilter(args, store.Today())
	if err != nil {
		t.Fatalf("failed to parse filter %q: %v", args, err)
	}
	return f
}

func mustResolve(t *testing.T, store *Store, f Filter) []Task {
	t.Helper()

	tasks, err := store.ResolveTasks(context.Background(), f)
	if err != nil {
		t.Fatalf("failed to resolve filter: %v", err)
	}
	return tasks
}

func mustCurrent(t *testing.T, store *Store, uuid string) Task {
	t.Helper()

	current, err := store.ReadCurrent(context.Background(), uuid)
	if err != nil {
		t.Fatalf("failed to read %s: %v", uuid, err)
	}
	return *current
}

// allCurrent returns the current version of every task, including templates.
func allCurrent(t *testing.T, store *Store) []Task {
	t.Helper()

	tasks, err := queryTasks(context.Background(), store.db,
		`SELECT `+taskColumns+` FROM current_tasks ORDER BY created, due, uuid`)
	if err != nil {
		t.Fatalf("failed to list tasks: %v", err)
	}
	return tasks
}

func descriptions(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.Description
	}
	return out
}

func dueDates(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		if task.Due != nil {
			out[i] = task.Due.Format("2006-01-02")
		}
	}
	return out
}

func ofType(tasks []Task, typ Type, area Area) []Task {
	var out []Task
	for _, task := range tasks {
		if task.Type == typ && task.Area == area {
			out = append(out, task)
		}
	}
	return out
}

func day(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}
