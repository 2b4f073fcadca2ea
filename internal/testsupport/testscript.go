package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// ScriptToday is the calendar day scripts run on.
const ScriptToday = "2021-01-06"

var (
	buildOnce sync.Once
	mytPath   string
	buildErr  error
)

// BuildMyt builds the myt binary once and returns its path.
func BuildMyt(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "myt-bin-")
		if err != nil {
			buildErr = err
			return
		}

		mytPath = filepath.Join(binDir, "myt")
		cmd := exec.Command("go", "build", "-o", mytPath, "./cmd/myt")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build myt: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return mytPath
}

// SetupScriptEnv configures common environment variables for testscript.
// Every script gets its own home, database, and a clock pinned to ScriptToday.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("MYT", BuildMyt(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("MYT_DB", filepath.Join(env.WorkDir, "tasks.db"))
	env.Setenv("MYT_TODAY", ScriptToday)
	env.Setenv("NO_COLOR", "1")
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

type listedTask struct {
	ID          int    `json:"id"`
	UUID        string `json:"uuid"`
	Description string `json:"description"`
}

// CmdTaskID finds a task by description in `myt view --json` output and
// stores its sequence number in an env var.
func CmdTaskID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskid FILE DESCRIPTION VAR")
	}

	item := findListedTask(ts, args[0], args[1])
	ts.Setenv(args[2], strconv.Itoa(item.ID))
}

// CmdTaskUUID finds a task by description in `myt view --json` output and
// stores its UUID in an env var.
func CmdTaskUUID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("taskuuid does not support negation")
	}
	if len(args) != 3 {
		ts.Fatalf("usage: taskuuid FILE DESCRIPTION VAR")
	}

	item := findListedTask(ts, args[0], args[1])
	ts.Setenv(args[2], item.UUID)
}

func findListedTask(ts *testscript.TestScript, file, description string) listedTask {
	var items []listedTask
	data := ts.ReadFile(file)
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse task list: %v", err)
	}

	for _, item := range items {
		if item.Description == description {
			return item
		}
	}

	ts.Fatalf("task with description %q not found", description)
	return listedTask{}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
