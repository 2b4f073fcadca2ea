package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
)

// Lens selects tasks by their state rather than by an attribute.
type Lens string

const (
	// LensOverdue matches pending tasks due before today that are not hidden.
	LensOverdue Lens = "OVERDUE"

	// LensToday matches pending tasks due today that are not hidden.
	LensToday Lens = "TODAY"

	// LensHidden matches pending tasks whose hide date is after today.
	LensHidden Lens = "HIDDEN"

	// LensStarted matches pending tasks with status STARTED.
	LensStarted Lens = "STARTED"

	// LensDone scans the completed area instead of pending.
	LensDone Lens = "DONE"

	// LensBin scans the bin area instead of pending.
	LensBin Lens = "BIN"
)

// isPending reports whether the lens narrows the pending area.
func (l Lens) isPending() bool {
	switch l {
	case LensOverdue, LensToday, LensHidden, LensStarted:
		return true
	default:
		return false
	}
}

// DateField names a date column that can be compared in a filter.
type DateField string

const (
	FieldDue  DateField = "due"
	FieldHide DateField = "hide"
	FieldEnd  DateField = "recur_end"
)

// DateOp is a date comparison operator.
type DateOp string

const (
	OpEq DateOp = "eq"
	OpLt DateOp = "lt"
	OpLe DateOp = "le"
	OpGt DateOp = "gt"
	OpGe DateOp = "ge"
	OpBt DateOp = "bt"

	// OpAny matches any task that has the field set. Unknown or incomplete
	// operators degrade to it.
	OpAny DateOp = ""
)

// Term is one predicate of a filter.
type Term interface {
	isTerm()
}

// IDTerm matches pending tasks by sequence number.
type IDTerm struct{ IDs []int }

// UUIDTerm matches tasks in any area by UUID or unique UUID prefix.
type UUIDTerm struct{ UUIDs []string }

// NowTerm matches the task flagged as now.
type NowTerm struct{}

// PriorityTerm matches any of the listed priorities.
type PriorityTerm struct{ Priorities []Priority }

// GroupTerm matches groups starting with Prefix.
type GroupTerm struct{ Prefix string }

// TagTerm matches tasks carrying any of the listed tags.
type TagTerm struct{ Tags []string }

// DescTerm matches descriptions containing Text, ignoring case.
type DescTerm struct{ Text string }

// DateTerm compares a date field. To is only used by OpBt.
type DateTerm struct {
	Field DateField
	Op    DateOp
	From  time.Time
	To    time.Time
}

// LensTerm selects a lens.
type LensTerm struct{ Lens Lens }

func (IDTerm) isTerm()       {}
func (UUIDTerm) isTerm()     {}
func (NowTerm) isTerm()      {}
func (PriorityTerm) isTerm() {}
func (GroupTerm) isTerm()    {}
func (TagTerm) isTerm()      {}
func (DescTerm) isTerm()     {}
func (DateTerm) isTerm()     {}
func (LensTerm) isTerm()     {}

// Filter is a parsed filter expression.
type Filter struct {
	Terms []Term
}

// IsEmpty reports whether the filter has no terms.
func (f Filter) IsEmpty() bool {
	return len(f.Terms) == 0
}

// ByUUID returns a filter matching exactly the given UUIDs.
func ByUUID(uuids ...string) Filter {
	return Filter{Terms: []Term{UUIDTerm{UUIDs: uuids}}}
}

// ByID returns a filter matching the given sequence numbers.
func ByID(ids ...int) Filter {
	return Filter{Terms: []Term{IDTerm{IDs: ids}}}
}

// Validate rejects lens combinations that cannot be resolved.
func (f Filter) Validate() error {
	var done, bin, pending bool
	for _, term := range f.Terms {
		lens, ok := term.(LensTerm)
		if !ok {
			continue
		}
		switch {
		case lens.Lens == LensDone:
			done = true
		case lens.Lens == LensBin:
			bin = true
		case lens.Lens.isPending():
			pending = true
		default:
			return invalidf(ErrInvalidFilter, "unknown lens %q", lens.Lens)
		}
	}
	if (done && bin) || ((done || bin) && pending) {
		return invalid(ErrConflictingLenses)
	}
	return nil
}

var fieldAliases = map[string]string{
	"id":       "id",
	"uuid":     "uuid",
	"priority": "priority",
	"pr":       "priority",
	"group":    "group",
	"gr":       "group",
	"tag":      "tag",
	"tg":       "tag",
	"desc":     "desc",
	"de":       "desc",
	"due":      "due",
	"du":       "due",
	"hide":     "hide",
	"hi":       "hide",
	"end":      "end",
	"en":       "end",
}

// ParseFilter parses filter tokens such as "id:1,2", "OVERDUE", "gr:HOME",
// or "due:bt:2021-01-01:+7". Relative dates are counted from today.
func ParseFilter(args []string, today time.Time) (Filter, error) {
	var f Filter
	for _, arg := range args {
		token := strings.TrimSpace(arg)
		if token == "" {
			continue
		}
		term, err := parseTerm(token, today)
		if err != nil {
			return Filter{}, err
		}
		f.Terms = append(f.Terms, term)
	}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseTerm(token string, today time.Time) (Term, error) {
	name, value, hasValue := strings.Cut(token, ":")
	if !hasValue {
		switch keyword := strings.ToUpper(token); keyword {
		case "NOW":
			return NowTerm{}, nil
		case string(LensOverdue), string(LensToday), string(LensHidden), string(LensStarted), string(LensDone), string(LensBin):
			return LensTerm{Lens: Lens(keyword)}, nil
		}
		return nil, invalidf(ErrInvalidFilter, "unknown keyword %q", token)
	}

	field, ok := fieldAliases[strings.ToLower(name)]
	if !ok {
		return nil, invalidf(ErrInvalidFilter, "unknown field %q", name)
	}

	switch field {
	case "id":
		ids, err := parseIDList(value)
		if err != nil {
			return nil, err
		}
		return IDTerm{IDs: ids}, nil
	case "uuid":
		uuids := splitList(value)
		if len(uuids) == 0 {
			return nil, invalidf(ErrInvalidFilter, "uuid: needs a value")
		}
		return UUIDTerm{UUIDs: uuids}, nil
	case "priority":
		values := splitList(value)
		if len(values) == 0 {
			return nil, invalidf(ErrInvalidFilter, "priority: needs a value")
		}
		priorities := make([]Priority, 0, len(values))
		for _, v := range values {
			p, err := ParsePriority(v)
			if err != nil {
				return nil, err
			}
			priorities = append(priorities, p)
		}
		return PriorityTerm{Priorities: priorities}, nil
	case "group":
		if value == "" {
			return nil, invalidf(ErrInvalidFilter, "group: needs a value")
		}
		return GroupTerm{Prefix: value}, nil
	case "tag":
		tags := splitList(value)
		if len(tags) == 0 {
			return nil, invalidf(ErrInvalidFilter, "tag: needs a value")
		}
		return TagTerm{Tags: tags}, nil
	case "desc":
		if value == "" {
			return nil, invalidf(ErrInvalidFilter, "desc: needs a value")
		}
		return DescTerm{Text: value}, nil
	case "due":
		return parseDateTerm(FieldDue, value, today)
	case "hide":
		return parseDateTerm(FieldHide, value, today)
	default:
		return parseDateTerm(FieldEnd, value, today)
	}
}

// parseDateTerm reads "op:date" or "bt:date:date". Unknown operators and
// missing dates degrade to OpAny.
func parseDateTerm(field DateField, value string, today time.Time) (Term, error) {
	parts := strings.SplitN(value, ":", 3)
	op := DateOp(strings.ToLower(strings.TrimSpace(parts[0])))

	switch op {
	case OpEq, OpLt, OpLe, OpGt, OpGe:
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			return DateTerm{Field: field, Op: OpAny}, nil
		}
		from, err := parseFilterDate(parts[1], today)
		if err != nil {
			return nil, err
		}
		return DateTerm{Field: field, Op: op, From: from}, nil
	case OpBt:
		if len(parts) < 3 || strings.TrimSpace(parts[1]) == "" || strings.TrimSpace(parts[2]) == "" {
			return DateTerm{Field: field, Op: OpAny}, nil
		}
		from, err := parseFilterDate(parts[1], today)
		if err != nil {
			return nil, err
		}
		to, err := parseFilterDate(parts[2], today)
		if err != nil {
			return nil, err
		}
		if to.Before(from) {
			from, to = to, from
		}
		return DateTerm{Field: field, Op: op, From: from, To: to}, nil
	default:
		return DateTerm{Field: field, Op: OpAny}, nil
	}
}

func parseFilterDate(value string, today time.Time) (time.Time, error) {
	parsed, err := dates.Parse(value, today)
	if err != nil {
		return time.Time{}, invalid(fmt.Errorf("%w: %w", ErrInvalidDate, err))
	}
	return parsed, nil
}

func parseIDList(value string) ([]int, error) {
	parts := splitList(value)
	if len(parts) == 0 {
		return nil, invalidf(ErrInvalidFilter, "id: needs a value")
	}
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, invalidf(ErrInvalidFilter, "id %q is not a positive number", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
