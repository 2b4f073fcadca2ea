package task

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseFilter(t *testing.T) {
	today := time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC)
	jan := func(d int) time.Time { return time.Date(2021, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		args []string
		want []Term
	}{
		{name: "empty", args: nil, want: nil},
		{name: "blank tokens", args: []string{" ", ""}, want: nil},
		{name: "ids", args: []string{"id:1,2"}, want: []Term{IDTerm{IDs: []int{1, 2}}}},
		{name: "uuid", args: []string{"uuid:abc"}, want: []Term{UUIDTerm{UUIDs: []string{"abc"}}}},
		{name: "now keyword", args: []string{"now"}, want: []Term{NowTerm{}}},
		{name: "lens keyword ignores case", args: []string{"overdue", "Today"}, want: []Term{
			LensTerm{Lens: LensOverdue}, LensTerm{Lens: LensToday},
		}},
		{name: "priority alias", args: []string{"pr:h,low"}, want: []Term{
			PriorityTerm{Priorities: []Priority{PriorityHigh, PriorityLow}},
		}},
		{name: "group keeps case", args: []string{"gr:HOME.Bills"}, want: []Term{GroupTerm{Prefix: "HOME.Bills"}}},
		{name: "tags", args: []string{"TAG:a,b"}, want: []Term{TagTerm{Tags: []string{"a", "b"}}}},
		{name: "description with spaces", args: []string{"de:buy milk"}, want: []Term{DescTerm{Text: "buy milk"}}},
		{name: "due less than", args: []string{"due:lt:2021-01-10"}, want: []Term{
			DateTerm{Field: FieldDue, Op: OpLt, From: jan(10)},
		}},
		{name: "relative date", args: []string{"hi:ge:+2"}, want: []Term{
			DateTerm{Field: FieldHide, Op: OpGe, From: jan(8)},
		}},
		{name: "between swaps reversed dates", args: []string{"du:bt:+7:2021-01-01"}, want: []Term{
			DateTerm{Field: FieldDue, Op: OpBt, From: jan(1), To: jan(13)},
		}},
		{name: "unknown operator degrades", args: []string{"end:soon"}, want: []Term{
			DateTerm{Field: FieldEnd, Op: OpAny},
		}},
		{name: "missing date degrades", args: []string{"due:lt"}, want: []Term{
			DateTerm{Field: FieldDue, Op: OpAny},
		}},
		{name: "incomplete between degrades", args: []string{"due:bt:2021-01-01"}, want: []Term{
			DateTerm{Field: FieldDue, Op: OpAny},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.args, today)
			if err != nil {
				t.Fatalf("ParseFilter(%q) returned error: %v", tt.args, err)
			}
			if !reflect.DeepEqual(got.Terms, tt.want) {
				t.Errorf("ParseFilter(%q) = %#v, want %#v", tt.args, got.Terms, tt.want)
			}
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	today := time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "unknown keyword", args: []string{"SOMEDAY"}, want: ErrInvalidFilter},
		{name: "unknown field", args: []string{"colour:red"}, want: ErrInvalidFilter},
		{name: "bad id", args: []string{"id:x"}, want: ErrInvalidFilter},
		{name: "zero id", args: []string{"id:0"}, want: ErrInvalidFilter},
		{name: "empty group", args: []string{"gr:"}, want: ErrInvalidFilter},
		{name: "bad priority", args: []string{"pr:urgent"}, want: ErrInvalidPriority},
		{name: "bad date with known operator", args: []string{"due:eq:someday"}, want: ErrInvalidDate},
		{name: "done and bin", args: []string{"DONE", "BIN"}, want: ErrConflictingLenses},
		{name: "done and overdue", args: []string{"DONE", "OVERDUE"}, want: ErrConflictingLenses},
		{name: "bin and started", args: []string{"started", "bin"}, want: ErrConflictingLenses},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.args, today)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseFilter(%q) error = %v, want %v", tt.args, err, tt.want)
			}
			if !IsValidation(err) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestFilterHelpers(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("expected zero filter to be empty")
	}
	if ByID(3).IsEmpty() {
		t.Error("expected ByID filter to have terms")
	}
	if got := ByUUID("a", "b").Terms[0].(UUIDTerm).UUIDs; len(got) != 2 {
		t.Errorf("expected two uuids, got %v", got)
	}
}
