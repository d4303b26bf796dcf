// Package cypher constructs parameterized Cypher statements from structured
// filter, ordering, and pagination inputs. All values are parameter-bound;
// only validated identifiers (labels, relationship types, property keys)
// ever appear in query text.
package cypher

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/perimeterlabs/graphgate/internal/apperr"
)

// TimeLayout is the fixed-width datetime rendering used for time-range
// bounds and timestamp properties (sub-second precision dropped).
const TimeLayout = "2006-01-02T15:04:05"

// nowFunc is swapped in tests to pin time-range defaults.
var nowFunc = time.Now

// Builder accumulates WHERE predicates and their bound parameters,
// then renders the final query text plus parameter map.
type Builder struct {
	preds  []string
	params map[string]any
	n      int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{params: make(map[string]any)}
}

// Bind stores v as a parameter and returns its placeholder, e.g. "$p0".
func (b *Builder) Bind(v any) string {
	name := fmt.Sprintf("p%d", b.n)
	b.n++
	b.params[name] = v
	return "$" + name
}

// Where appends a rendered predicate. Predicates AND-combine.
func (b *Builder) Where(pred string) {
	b.preds = append(b.preds, pred)
}

// WhereClause renders the accumulated predicates as a WHERE clause with a
// leading space, or an empty string when there are none.
func (b *Builder) WhereClause() string {
	if len(b.preds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.preds, " AND ")
}

// Params returns the bound parameter map.
func (b *Builder) Params() map[string]any {
	return b.params
}

// timeRange holds the optional inclusive bounds of one range-filtered field.
type timeRange struct {
	start any
	end   any
}

// AddFilters compiles a filter map into predicates on the given alias.
// Keys are processed in sorted order so rendered text is deterministic.
//
// Rules:
//   - "id" compares against the internal identifier: ID(alias) = $p
//   - "<field>_start"/"<field>_end" compile to an inclusive datetime range
//     on <field>; a missing bound defaults to now
//   - list values become per-element array membership: $p IN alias.key
//   - string values under partial matching become case-insensitive
//     substring containment; non-string values always compare exactly
func (b *Builder) AddFilters(alias string, filters map[string]any, partial bool) error {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ranges := make(map[string]*timeRange)
	rangeFields := make([]string, 0)

	rangeFor := func(field string) *timeRange {
		r, ok := ranges[field]
		if !ok {
			r = &timeRange{}
			ranges[field] = r
			rangeFields = append(rangeFields, field)
		}
		return r
	}

	for _, key := range keys {
		value := filters[key]

		if key == "id" {
			b.Where(fmt.Sprintf("ID(%s) = %s", alias, b.Bind(value)))
			continue
		}

		if field, ok := strings.CutSuffix(key, "_start"); ok && field != "" {
			if err := ValidateIdent(field); err != nil {
				return err
			}
			rangeFor(field).start = value
			continue
		}
		if field, ok := strings.CutSuffix(key, "_end"); ok && field != "" {
			if err := ValidateIdent(field); err != nil {
				return err
			}
			rangeFor(field).end = value
			continue
		}

		if err := ValidateIdent(key); err != nil {
			return err
		}

		switch v := value.(type) {
		case []any:
			for _, elem := range v {
				b.Where(fmt.Sprintf("%s IN %s.%s", b.Bind(elem), alias, key))
			}
		case []string:
			for _, elem := range v {
				b.Where(fmt.Sprintf("%s IN %s.%s", b.Bind(elem), alias, key))
			}
		case string:
			if partial {
				b.Where(fmt.Sprintf("toLower(%s.%s) CONTAINS toLower(%s)", alias, key, b.Bind(v)))
			} else {
				b.Where(fmt.Sprintf("%s.%s = %s", alias, key, b.Bind(v)))
			}
		default:
			b.Where(fmt.Sprintf("%s.%s = %s", alias, key, b.Bind(value)))
		}
	}

	now := nowFunc().UTC().Format(TimeLayout)
	for _, field := range rangeFields {
		r := ranges[field]
		if r.start == nil {
			r.start = now
		}
		if r.end == nil {
			r.end = now
		}
		b.Where(fmt.Sprintf("datetime(%s.%s) >= datetime(%s)", alias, field, b.Bind(r.start)))
		b.Where(fmt.Sprintf("datetime(%s.%s) <= datetime(%s)", alias, field, b.Bind(r.end)))
	}

	return nil
}

// validateOrder rejects malformed ordering inputs. Count statements
// carry no ORDER BY but the inputs are still checked.
func (o Options) validateOrder() error {
	if o.OrderBy == "" {
		if o.OrderType != "" {
			return apperr.New(apperr.KindInvalidArgument, "order_type given without order_by")
		}
		return nil
	}
	if err := ValidateIdent(o.OrderBy); err != nil {
		return err
	}
	_, err := NormalizeOrderType(o.OrderType)
	return err
}

// orderClause renders an ORDER BY for the alias, or "" when no ordering
// was requested. Invalid order keys and directions are rejected.
func (b *Builder) orderClause(alias string, opts Options) (string, error) {
	if err := opts.validateOrder(); err != nil {
		return "", err
	}
	if opts.OrderBy == "" {
		return "", nil
	}
	dir, err := NormalizeOrderType(opts.OrderType)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(" ORDER BY %s.%s %s", alias, opts.OrderBy, dir), nil
}

// pageClause renders SKIP/LIMIT with bound parameters.
func (b *Builder) pageClause(opts Options) string {
	var sb strings.Builder
	if opts.Skip > 0 {
		sb.WriteString(" SKIP ")
		sb.WriteString(b.Bind(opts.Skip))
	}
	if opts.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.Bind(opts.Limit))
	}
	return sb.String()
}
