package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amonks/myt/internal/dates"
	"github.com/amonks/myt/task"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// taskOutput is the machine-readable form of a task version.
type taskOutput struct {
	ID          int       `json:"id" yaml:"id"`
	UUID        string    `json:"uuid" yaml:"uuid"`
	Version     int       `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Priority    string    `json:"priority" yaml:"priority"`
	Status      string    `json:"status" yaml:"status"`
	Area        string    `json:"area" yaml:"area"`
	Due         string    `json:"due,omitempty" yaml:"due,omitempty"`
	Hide        string    `json:"hide,omitempty" yaml:"hide,omitempty"`
	Groups      string    `json:"groups,omitempty" yaml:"groups,omitempty"`
	Tags        []string  `json:"tags" yaml:"tags"`
	Now         bool      `json:"now" yaml:"now"`
	Type        string    `json:"type" yaml:"type"`
	BaseUUID    string    `json:"base_uuid,omitempty" yaml:"base_uuid,omitempty"`
	Recur       string    `json:"recur,omitempty" yaml:"recur,omitempty"`
	RecurEnd    string    `json:"recur_end,omitempty" yaml:"recur_end,omitempty"`
	EventID     string    `json:"event_id" yaml:"event_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

func toTaskOutput(t task.Task) taskOutput {
	out := taskOutput{
		ID:          t.ID,
		UUID:        t.UUID,
		Version:     t.Version,
		Description: t.Description,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		Area:        string(t.Area),
		Due:         dates.Format(t.Due),
		Hide:        dates.Format(t.Hide),
		Groups:      t.Groups,
		Tags:        t.Tags,
		Now:         t.Now,
		Type:        string(t.Type),
		BaseUUID:    t.BaseUUID,
		RecurEnd:    dates.Format(t.RecurEnd),
		EventID:     t.EventID,
		CreatedAt:   t.CreatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if t.Recur != nil {
		out.Recur = t.Recur.String()
	}
	return out
}

func toTaskOutputs(tasks []task.Task) []taskOutput {
	out := make([]taskOutput, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskOutput(t))
	}
	return out
}

// outputFormat selects machine-readable output for view, show, and history.
type outputFormat struct {
	json bool
	yaml bool
}

func (f *outputFormat) register(flags *pflag.FlagSet) {
	flags.BoolVar(&f.json, "json", false, "Output as JSON")
	flags.BoolVar(&f.yaml, "yaml", false, "Output as YAML")
}

func (f outputFormat) machine() bool {
	return f.json || f.yaml
}

func (f outputFormat) validate() error {
	if f.json && f.yaml {
		return fmt.Errorf("--json and --yaml cannot be combined")
	}
	return nil
}

func (f outputFormat) encode(value any) error {
	if f.yaml {
		return encodeYAML(os.Stdout, value)
	}
	return encodeJSON(os.Stdout, value)
}

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func encodeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return err
	}
	return enc.Close()
}
