// Package query builds deterministic filter and sort plans for todo
// listings. Filters accumulate as typed clauses combined with AND; the SQL
// realization happens at the repository boundary via Clause.Cond.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/pray3m/hyteno-fullstack-todo/internal/errors"
	"github.com/pray3m/hyteno-fullstack-todo/internal/model"
)

// SortField names a sortable todo column.
type SortField string

const (
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
	SortByCreatedAt SortField = "createdAt"
)

// SortOrder is the direction of the single-key sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Clause is a single filter predicate. Cond returns a SQL fragment with
// placeholder arguments.
type Clause interface {
	Cond() (string, []interface{})
}

// Contains matches rows whose column contains text, case-insensitively.
// The text is a literal substring, never a pattern.
type Contains struct {
	Column string
	Text   string
}

// likeEscaper neutralizes LIKE metacharacters so user input matches
// literally (MySQL's default escape character is backslash).
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Cond implements Clause.
func (c Contains) Cond() (string, []interface{}) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(c.Text)) + "%"
	return fmt.Sprintf("LOWER(%s) LIKE ?", c.Column), []interface{}{pattern}
}

// Equals matches rows whose column equals value exactly.
type Equals struct {
	Column string
	Value  interface{}
}

// Cond implements Clause.
func (e Equals) Cond() (string, []interface{}) {
	return fmt.Sprintf("%s = ?", e.Column), []interface{}{e.Value}
}

// Range matches rows whose column lies in [Lo, Hi] inclusive. A nil bound
// leaves that side open.
type Range struct {
	Column string
	Lo     *time.Time
	Hi     *time.Time
}

// Cond implements Clause.
func (r Range) Cond() (string, []interface{}) {
	var parts []string
	var args []interface{}
	if r.Lo != nil {
		parts = append(parts, fmt.Sprintf("%s >= ?", r.Column))
		args = append(args, *r.Lo)
	}
	if r.Hi != nil {
		parts = append(parts, fmt.Sprintf("%s <= ?", r.Column))
		args = append(args, *r.Hi)
	}
	return strings.Join(parts, " AND "), args
}

// Or combines sub-clauses disjunctively. The search term expands to an Or
// of two Contains terms over title and description.
type Or []Clause

// Cond implements Clause.
func (o Or) Cond() (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, c := range o {
		cond, a := c.Cond()
		parts = append(parts, cond)
		args = append(args, a...)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// Spec is the parsed, validated filter specification for one listing call.
// Nil pointer fields mean the filter is not applied.
type Spec struct {
	Search    string
	Status    *model.Status
	Priority  *model.Priority
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    SortField
	Order     SortOrder
}

// Params carries the raw, untrusted query parameters.
type Params struct {
	Search    string
	Status    string
	Priority  string
	StartDate string
	EndDate   string
	SortBy    string
	Order     string
}

// dueDateLayout is the calendar-date form accepted alongside RFC3339.
const dueDateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339 and normalizes to UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dueDateLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.NewValidation("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}

// ParseSpec validates raw parameters into a Spec. Unknown status or
// priority values and malformed dates are validation errors; an
// unsupported sortBy falls back to createdAt desc.
func ParseSpec(p Params) (*Spec, error) {
	spec := &Spec{
		Search: strings.TrimSpace(p.Search),
		SortBy: SortByCreatedAt,
		Order:  OrderDesc,
	}

	if p.Status != "" {
		st := model.Status(p.Status)
		if !st.Valid() {
			return nil, errors.NewValidation("invalid status %q", p.Status)
		}
		spec.Status = &st
	}

	if p.Priority != "" {
		pr := model.Priority(p.Priority)
		if !pr.Valid() {
			return nil, errors.NewValidation("invalid priority %q", p.Priority)
		}
		spec.Priority = &pr
	}

	if p.StartDate != "" {
		t, err := ParseDate(p.StartDate)
		if err != nil {
			return nil, err
		}
		spec.StartDate = &t
	}

	if p.EndDate != "" {
		t, err := ParseDate(p.EndDate)
		if err != nil {
			return nil, err
		}
		spec.EndDate = &t
	}

	switch SortField(p.SortBy) {
	case SortByDueDate, SortByPriority, SortByCreatedAt:
		spec.SortBy = SortField(p.SortBy)
		if SortOrder(p.Order) == OrderAsc {
			spec.Order = OrderAsc
		}
	default:
		// Unsupported sortBy keeps the createdAt desc default.
	}

	return spec, nil
}

// Clauses assembles the filter predicates. All returned clauses are
// combined with AND by the caller.
func (s *Spec) Clauses() []Clause {
	var clauses []Clause

	if s.Search != "" {
		clauses = append(clauses, Or{
			Contains{Column: "title", Text: s.Search},
			Contains{Column: "description", Text: s.Search},
		})
	}
	if s.Status != nil {
		clauses = append(clauses, Equals{Column: "status", Value: *s.Status})
	}
	if s.Priority != nil {
		clauses = append(clauses, Equals{Column: "priority", Value: *s.Priority})
	}
	if s.StartDate != nil || s.EndDate != nil {
		clauses = append(clauses, Range{Column: "due_date", Lo: s.StartDate, Hi: s.EndDate})
	}

	return clauses
}

// OrderBy returns the ORDER BY expression. Priority sorts by severity
// rather than lexicographically, and id breaks ties so that equal keys
// list deterministically.
func (s *Spec) OrderBy() string {
	dir := "DESC"
	if s.Order == OrderAsc {
		dir = "ASC"
	}
	switch s.SortBy {
	case SortByDueDate:
		return "due_date " + dir + ", id ASC"
	case SortByPriority:
		return "FIELD(priority, 'LOW', 'MEDIUM', 'HIGH') " + dir + ", id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}

// Fingerprint is a stable cache-key suffix for the spec.
func (s *Spec) Fingerprint() string {
	var b strings.Builder
	b.WriteString("q=" + strings.ToLower(s.Search))
	if s.Status != nil {
		b.WriteString("|s=" + string(*s.Status))
	}
	if s.Priority != nil {
		b.WriteString("|p=" + string(*s.Priority))
	}
	if s.StartDate != nil {
		b.WriteString("|from=" + s.StartDate.Format(time.RFC3339))
	}
	if s.EndDate != nil {
		b.WriteString("|to=" + s.EndDate.Format(time.RFC3339))
	}
	b.WriteString("|sort=" + string(s.SortBy) + ":" + string(s.Order))
	return b.String()
}
