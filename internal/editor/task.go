package editor

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/amonks/myt/internal/dates"
	internalstrings "github.com/amonks/myt/internal/strings"
	"github.com/amonks/myt/recur"
	"github.com/amonks/myt/task"
)

// TaskData represents the data used to render the TOML template.
type TaskData struct {
	// IsUpdate is true when editing an existing task.
	IsUpdate bool
	// ID is the sequence number (only for updates).
	ID string
	// UUID is the task identity (only for updates).
	UUID string
	// IsRecurring is true when the task belongs to a recurring set.
	IsRecurring bool
	Description string
	Priority    string
	Due         string
	Hide        string
	Groups      string
	Tags        []string
	Recur       string
	RecurEnd    string
}

// DefaultCreateData returns TaskData with default values for creating a new task.
func DefaultCreateData() TaskData {
	return TaskData{
		Priority: string(task.PriorityNormal),
	}
}

// DataFromTask creates TaskData from an existing task for editing.
func DataFromTask(t task.Task) TaskData {
	data := TaskData{
		IsUpdate:    true,
		ID:          task.FormatID(t.ID),
		UUID:        t.UUID,
		IsRecurring: t.IsRecurring(),
		Description: t.Description,
		Priority:    string(t.Priority),
		Due:         dates.Format(t.Due),
		Hide:        dates.Format(t.Hide),
		Groups:      t.Groups,
		Tags:        slices.Clone(t.Tags),
		RecurEnd:    dates.Format(t.RecurEnd),
	}
	if t.Recur != nil {
		data.Recur = t.Recur.String()
	}
	return data
}

var taskTemplate = template.Must(template.New("task").Funcs(template.FuncMap{
	"tags": func(tags []string) string {
		quoted := make([]string, 0, len(tags))
		for _, tag := range tags {
			quoted = append(quoted, fmt.Sprintf("%q", tag))
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	},
}).Parse(`{{- if .IsUpdate }}# task {{ .ID }} ({{ .UUID }})
{{ end -}}
priority = {{ printf "%q" .Priority }} # H, M, N, L
due = {{ printf "%q" .Due }} # YYYY-MM-DD, +N, -N, or empty
hide = {{ printf "%q" .Hide }} # YYYY-MM-DD, +N, -N (before due), or empty
groups = {{ printf "%q" .Groups }} # dot separated, e.g. HOME.BILLS
tags = {{ tags .Tags }}
{{- if or .IsRecurring (not .IsUpdate) }}
recur = {{ printf "%q" .Recur }} # D, W, M, WD1,5, ... or empty
recur_end = {{ printf "%q" .RecurEnd }}
{{- end }}
---
{{ .Description }}
`))

// RenderTaskTOML renders the task data as a TOML string for editing.
func RenderTaskTOML(data TaskData) (string, error) {
	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedTask represents the parsed result from the TOML editor output.
type ParsedTask struct {
	Priority    string   `toml:"priority"`
	Due         string   `toml:"due"`
	Hide        string   `toml:"hide"`
	Groups      string   `toml:"groups"`
	Tags        []string `toml:"tags"`
	Recur       string   `toml:"recur"`
	RecurEnd    string   `toml:"recur_end"`
	Description string
}

// ParseTaskTOML parses the TOML content from the editor.
func ParseTaskTOML(content string) (*ParsedTask, error) {
	frontmatter, body := splitFrontmatter(content)

	var parsed ParsedTask
	meta, err := toml.Decode(frontmatter, &parsed)
	if err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown field %q", undecoded[0].String())
	}

	parsed.Description = internalstrings.NormalizeWhitespace(body)
	parsed.Priority = strings.TrimSpace(parsed.Priority)
	parsed.Due = strings.TrimSpace(parsed.Due)
	parsed.Hide = strings.TrimSpace(parsed.Hide)
	parsed.Groups = strings.TrimSpace(parsed.Groups)
	parsed.Recur = strings.TrimSpace(parsed.Recur)
	parsed.RecurEnd = strings.TrimSpace(parsed.RecurEnd)

	// Validate required fields
	if parsed.Description == "" {
		return nil, task.ErrEmptyDescription
	}
	if _, err := task.ParsePriority(parsed.Priority); err != nil {
		return nil, err
	}
	if parsed.Recur != "" {
		if _, err := recur.Parse(parsed.Recur); err != nil {
			return nil, err
		}
	}

	return &parsed, nil
}

func splitFrontmatter(content string) (string, string) {
	content = strings.TrimLeft(content, "\n")
	if content == "" {
		return "", ""
	}

	lines := strings.Split(content, "\n")
	separatorIndex := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			separatorIndex = i
			break
		}
	}
	if separatorIndex == -1 {
		return content, ""
	}

	frontmatter := strings.Join(lines[:separatorIndex], "\n")
	body := strings.Join(lines[separatorIndex+1:], "\n")
	return frontmatter, body
}

// EditTask opens the editor for a task and returns the parsed result.
// For create: pass nil for existing.
func EditTask(existing *task.Task) (*ParsedTask, error) {
	data := DefaultCreateData()
	if existing != nil {
		data = DataFromTask(*existing)
	}
	return EditTaskWithData(data)
}

// EditTaskWithData opens the editor with pre-populated data and returns the parsed result.
func EditTaskWithData(data TaskData) (*ParsedTask, error) {
	content, err := RenderTaskTOML(data)
	if err != nil {
		return nil, err
	}

	tmpfile, err := os.CreateTemp("", "myt-task-*.toml")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}

	return ParseTaskTOML(string(edited))
}

// ToAddOptions converts a ParsedTask to task.AddOptions.
func (p *ParsedTask) ToAddOptions() task.AddOptions {
	return task.AddOptions{
		Description: p.Description,
		Priority:    p.Priority,
		Due:         p.Due,
		Hide:        p.Hide,
		Groups:      p.Groups,
		Tags:        strings.Join(p.Tags, ","),
		Recur:       p.Recur,
		RecurEnd:    p.RecurEnd,
	}
}

// ToModifyOptions converts a ParsedTask into the changes needed to turn
// existing into the edited task. Unchanged fields are left unset.
func (p *ParsedTask) ToModifyOptions(existing task.Task) task.ModifyOptions {
	var opts task.ModifyOptions

	if p.Description != existing.Description {
		opts.Description = task.SetTo(p.Description)
	}
	if priority, err := task.ParsePriority(p.Priority); err == nil && priority != existing.Priority {
		opts.Priority = task.SetTo(string(priority))
	}
	opts.Due = dateChange(p.Due, existing.Due)
	opts.Hide = dateChange(p.Hide, existing.Hide)
	// The form shows absolute dates, so an untouched hide stays put when due moves.
	if opts.Due.Set && !opts.Hide.Set && p.Hide != "" {
		opts.Hide = task.SetTo(p.Hide)
	}
	opts.Groups = textChange(p.Groups, existing.Groups)
	opts.Tags = tagDelta(existing.Tags, p.Tags)

	currentRule, editedRule := "", p.Recur
	if existing.Recur != nil {
		currentRule = existing.Recur.String()
	}
	if rule, err := recur.Parse(p.Recur); err == nil {
		editedRule = rule.String()
	}
	opts.Recur = textChange(editedRule, currentRule)
	opts.RecurEnd = dateChange(p.RecurEnd, existing.RecurEnd)
	opts.AllInstances = existing.Type == task.TypeDerived && (opts.Recur.Set || opts.RecurEnd.Set)
	return opts
}

func textChange(edited, current string) task.Change {
	if edited == current {
		return task.Change{}
	}
	if edited == "" {
		return task.SetTo(task.ClearValue)
	}
	return task.SetTo(edited)
}

func dateChange(edited string, current *time.Time) task.Change {
	return textChange(edited, dates.Format(current))
}

func tagDelta(current, edited []string) task.Change {
	var tokens []string
	for _, tag := range current {
		if !slices.Contains(edited, tag) {
			tokens = append(tokens, "-"+tag)
		}
	}
	for _, tag := range edited {
		tag = strings.TrimSpace(tag)
		if tag != "" && !slices.Contains(current, tag) {
			tokens = append(tokens, "+"+tag)
		}
	}
	if len(tokens) == 0 {
		return task.Change{}
	}
	return task.SetTo(strings.Join(tokens, ","))
}
