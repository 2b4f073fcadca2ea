package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
	"github.com/amonks/myt/internal/ids"
)

const notHidden = `(c.hide IS NULL OR c.hide <= ?)`

const resolveOrder = `ORDER BY CASE WHEN c.due IS NULL THEN 1 ELSE 0 END, c.due,
	CASE WHEN c.id > 0 THEN 0 ELSE 1 END, c.id, c.created, c.uuid`

// sqlPart is a SELECT of (uuid, version) pairs with its arguments.
type sqlPart struct {
	query string
	args  []any
}

// Resolve returns the current versions matching f, in display order.
//
// The first matching branch wins:
//  1. no terms: pending tasks that are not hidden
//  2. id: pending tasks with the listed sequence numbers, hidden or not
//  3. now: the pending task flagged as now
//  4. uuid: tasks in any area with the listed UUIDs
//  5. otherwise the intersection of every attribute predicate, narrowed
//     by the union of the pending lenses or moved to another area by DONE or BIN
func (s *Store) Resolve(ctx context.Context, f Filter) ([]Ref, error) {
	return s.resolve(ctx, s.db, f, s.Today())
}

// ResolveTasks resolves f and loads the matching versions.
func (s *Store) ResolveTasks(ctx context.Context, f Filter) ([]Task, error) {
	refs, err := s.Resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.ReadVersions(ctx, refs)
}

func (s *Store) resolve(ctx context.Context, q queryer, f Filter, today time.Time) ([]Ref, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	day := today.Format(dates.Layout)

	part, branch, err := buildResolveQuery(ctx, q, f, day)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolve", "branch", branch, "terms", len(f.Terms))
	if part.query == "" {
		return nil, nil
	}

	query := `SELECT c.uuid, c.version FROM current_tasks c
		JOIN (` + part.query + `) r ON c.uuid = r.uuid AND c.version = r.version
		` + resolveOrder
	rows, err := q.QueryContext(ctx, query, part.args...)
	if err != nil {
		return nil, storageErr("resolve filter", err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.UUID, &ref.Version); err != nil {
			return nil, storageErr("scan resolved task", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("resolve filter", err)
	}
	return refs, nil
}

func buildResolveQuery(ctx context.Context, q queryer, f Filter, day string) (sqlPart, string, error) {
	if f.IsEmpty() {
		return areaSelect(AreaPending, notHidden, day), "default", nil
	}

	var (
		idList   []int
		uuidList []string
		hasNow   bool
	)
	for _, term := range f.Terms {
		switch t := term.(type) {
		case IDTerm:
			idList = append(idList, t.IDs...)
		case UUIDTerm:
			uuidList = append(uuidList, t.UUIDs...)
		case NowTerm:
			hasNow = true
		}
	}

	switch {
	case len(idList) > 0:
		args := make([]any, len(idList))
		for i, id := range idList {
			args[i] = id
		}
		return areaSelect(AreaPending, "c.id IN ("+placeholders(len(idList))+")", args...), "id", nil
	case hasNow:
		return areaSelect(AreaPending, "c.now_flag = 1"), "now", nil
	case len(uuidList) > 0:
		part, err := uuidSelect(ctx, q, uuidList)
		return part, "uuid", err
	}

	return intersectionSelect(f, day), "intersection", nil
}

// areaSelect selects current non-base tasks of an area matching cond.
func areaSelect(area Area, cond string, args ...any) sqlPart {
	query := `SELECT c.uuid, c.version FROM current_tasks c WHERE c.area = ? AND c.task_type != ?`
	if cond != "" {
		query += ` AND ` + cond
	}
	return sqlPart{query: query, args: append([]any{area, TypeBase}, args...)}
}

func uuidSelect(ctx context.Context, q queryer, prefixes []string) (sqlPart, error) {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT uuid FROM tasks`)
	if err != nil {
		return sqlPart{}, storageErr("list uuids", err)
	}
	var known []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return sqlPart{}, storageErr("scan uuid", err)
		}
		known = append(known, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return sqlPart{}, storageErr("list uuids", err)
	}

	var args []any
	for _, prefix := range prefixes {
		match, err := ids.MatchPrefix(known, prefix)
		if errors.Is(err, ids.ErrNoMatch) {
			continue
		}
		if err != nil {
			return sqlPart{}, invalid(fmt.Errorf("%w: %w", ErrAmbiguousUUIDPrefix, err))
		}
		args = append(args, match)
	}
	if len(args) == 0 {
		return sqlPart{}, nil
	}
	return sqlPart{
		query: `SELECT c.uuid, c.version FROM current_tasks c WHERE c.uuid IN (` + placeholders(len(args)) + `)`,
		args:  args,
	}, nil
}

func intersectionSelect(f Filter, day string) sqlPart {
	area := AreaPending
	var lenses []Lens
	for _, term := range f.Terms {
		lens, ok := term.(LensTerm)
		if !ok {
			continue
		}
		switch lens.Lens {
		case LensDone:
			area = AreaCompleted
		case LensBin:
			area = AreaBin
		default:
			lenses = append(lenses, lens.Lens)
		}
	}

	var parts []sqlPart
	switch {
	case len(lenses) > 0:
		parts = append(parts, lensUnion(lenses, day))
	case area == AreaPending:
		parts = append(parts, areaSelect(area, "c.id > 0 AND "+notHidden, day))
	default:
		parts = append(parts, areaSelect(area, ""))
	}

	for _, term := range f.Terms {
		cond, args, ok := predicate(term)
		if !ok {
			continue
		}
		parts = append(parts, areaSelect(area, cond, args...))
	}

	queries := make([]string, len(parts))
	var args []any
	for i, part := range parts {
		queries[i] = part.query
		args = append(args, part.args...)
	}
	return sqlPart{query: strings.Join(queries, "\nINTERSECT\n"), args: args}
}

func lensUnion(lenses []Lens, day string) sqlPart {
	seen := make(map[Lens]bool, len(lenses))
	var queries []string
	var args []any
	for _, lens := range lenses {
		if seen[lens] {
			continue
		}
		seen[lens] = true

		var part sqlPart
		switch lens {
		case LensOverdue:
			part = areaSelect(AreaPending, "c.due IS NOT NULL AND c.due < ? AND "+notHidden, day, day)
		case LensToday:
			part = areaSelect(AreaPending, "c.due = ? AND "+notHidden, day, day)
		case LensHidden:
			part = areaSelect(AreaPending, "c.hide IS NOT NULL AND c.hide > ?", day)
		case LensStarted:
			part = areaSelect(AreaPending, "c.status = ?", StatusStarted)
		}
		queries = append(queries, part.query)
		args = append(args, part.args...)
	}
	return sqlPart{
		query: `SELECT uuid, version FROM (` + strings.Join(queries, "\nUNION\n") + `)`,
		args:  args,
	}
}

// predicate returns the SQL condition for an attribute term.
func predicate(term Term) (string, []any, bool) {
	switch t := term.(type) {
	case PriorityTerm:
		args := make([]any, len(t.Priorities))
		for i, p := range t.Priorities {
			args[i] = p
		}
		return "c.priority IN (" + placeholders(len(args)) + ")", args, true
	case GroupTerm:
		// Plain string prefix: HOME also matches HOMEOFFICE.
		return "c.groups_path IS NOT NULL AND instr(c.groups_path, ?) = 1", []any{t.Prefix}, true
	case TagTerm:
		args := make([]any, len(t.Tags))
		for i, tag := range t.Tags {
			args[i] = tag
		}
		return `EXISTS (SELECT 1 FROM task_tags tt WHERE tt.uuid = c.uuid AND tt.version = c.version
			AND tt.tag IN (` + placeholders(len(args)) + `))`, args, true
	case DescTerm:
		return "c.description IS NOT NULL AND instr(lower(c.description), lower(?)) > 0", []any{t.Text}, true
	case DateTerm:
		return datePredicate(t)
	default:
		return "", nil, false
	}
}

func datePredicate(t DateTerm) (string, []any, bool) {
	column := "c." + string(t.Field)
	from := t.From.Format(dates.Layout)
	switch t.Op {
	case OpEq:
		return column + " = ?", []any{from}, true
	case OpLt:
		return column + " < ?", []any{from}, true
	case OpLe:
		return column + " <= ?", []any{from}, true
	case OpGt:
		return column + " > ?", []any{from}, true
	case OpGe:
		return column + " >= ?", []any{from}, true
	case OpBt:
		return column + " BETWEEN ? AND ?", []any{from, t.To.Format(dates.Layout)}, true
	default:
		return column + " IS NOT NULL", nil, true
	}
}
