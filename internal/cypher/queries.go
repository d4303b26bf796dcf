package cypher

import (
	"fmt"
	"strings"

	"github.com/perimeterlabs/graphgate/internal/apperr"
)

// Options carries the out-of-band query modifiers: partial matching,
// ordering, offset pagination, and count-only mode.
type Options struct {
	Partial   bool
	OrderBy   string
	OrderType string
	Skip      int64
	Limit     int64
	Count     bool
}

// Query is a rendered statement plus its bound parameters.
type Query struct {
	Text   string
	Params map[string]any
}

// NodeQuery builds a node match over one or more AND-combined labels.
// Count mode returns a cardinality-only statement with no ordering or
// pagination.
func NodeQuery(labels []string, filters map[string]any, opts Options) (Query, error) {
	labelExpr, err := LabelExpr(labels...)
	if err != nil {
		return Query{}, err
	}

	b := NewBuilder()
	if err := b.AddFilters("n", filters, opts.Partial); err != nil {
		return Query{}, err
	}

	match := fmt.Sprintf("MATCH (n%s)%s", labelExpr, b.WhereClause())

	if opts.Count {
		if err := opts.validateOrder(); err != nil {
			return Query{}, err
		}
		return Query{Text: match + " RETURN count(n)", Params: b.Params()}, nil
	}

	order, err := b.orderClause("n", opts)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Text:   match + " RETURN n" + order + b.pageClause(opts),
		Params: b.Params(),
	}, nil
}

// RelationQuery builds a directed edge-pattern match with independent
// filter sets on the start and end node. relType, startLabel, and
// endLabel may each be empty to broaden the match. sortNode chooses
// which end ordering applies to ("start" or "end"; default "start").
func RelationQuery(relType, startLabel, endLabel string, startFilters, endFilters map[string]any, sortNode string, opts Options) (Query, error) {
	relExpr, err := relTypeExpr(relType)
	if err != nil {
		return Query{}, err
	}
	startExpr, err := optionalLabelExpr(startLabel)
	if err != nil {
		return Query{}, err
	}
	endExpr, err := optionalLabelExpr(endLabel)
	if err != nil {
		return Query{}, err
	}

	b := NewBuilder()
	if err := b.AddFilters("start_node", startFilters, opts.Partial); err != nil {
		return Query{}, err
	}
	if err := b.AddFilters("end_node", endFilters, opts.Partial); err != nil {
		return Query{}, err
	}

	match := fmt.Sprintf("MATCH (start_node%s)-[r%s]->(end_node%s)%s",
		startExpr, relExpr, endExpr, b.WhereClause())

	if opts.Count {
		if err := opts.validateOrder(); err != nil {
			return Query{}, err
		}
		return Query{Text: match + " RETURN count(r)", Params: b.Params()}, nil
	}

	alias, err := sortAlias(sortNode)
	if err != nil {
		return Query{}, err
	}
	order, err := b.orderClause(alias, opts)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Text:   match + " RETURN r, start_node, end_node" + order + b.pageClause(opts),
		Params: b.Params(),
	}, nil
}

// PathQuery builds a single-hop path match between two nodes by internal
// identifier. Either end (and the relationship type) may be omitted to
// broaden the match. The returned rows carry the full path value.
func PathQuery(relType string, startID, endID *int64) (Query, error) {
	relExpr, err := relTypeExpr(relType)
	if err != nil {
		return Query{}, err
	}

	b := NewBuilder()
	if startID != nil {
		b.Where(fmt.Sprintf("ID(start_node) = %s", b.Bind(*startID)))
	}
	if endID != nil {
		b.Where(fmt.Sprintf("ID(end_node) = %s", b.Bind(*endID)))
	}

	text := fmt.Sprintf("MATCH p=(start_node)-[r%s]->(end_node)%s RETURN p",
		relExpr, b.WhereClause())
	return Query{Text: text, Params: b.Params()}, nil
}

// EndAlternative is one OR-branch of a multi-label relation query:
// an end-node label plus its own AND-combined filter set.
type EndAlternative struct {
	Label   string         `json:"label"`
	Filters map[string]any `json:"filters"`
}

// MultiLabelRelationQuery builds a traversal from one start node to end
// nodes matching any of the given label+filter alternatives. Filters
// AND-combine within an alternative and OR-combine across alternatives.
func MultiLabelRelationQuery(relType string, startID int64, alts []EndAlternative, opts Options) (Query, error) {
	if len(alts) == 0 {
		return Query{}, apperr.New(apperr.KindInvalidArgument, "at least one end-label alternative is required")
	}
	relExpr, err := relTypeExpr(relType)
	if err != nil {
		return Query{}, err
	}

	b := NewBuilder()
	b.Where(fmt.Sprintf("ID(start_node) = %s", b.Bind(startID)))

	groups := make([]string, 0, len(alts))
	for _, alt := range alts {
		if err := ValidateIdent(alt.Label); err != nil {
			return Query{}, err
		}

		ab := &Builder{params: b.params, n: b.n}
		ab.Where(fmt.Sprintf("end_node:%s", alt.Label))
		if err := ab.AddFilters("end_node", alt.Filters, opts.Partial); err != nil {
			return Query{}, err
		}
		b.n = ab.n

		groups = append(groups, "("+strings.Join(ab.preds, " AND ")+")")
	}
	b.Where("(" + strings.Join(groups, " OR ") + ")")

	match := fmt.Sprintf("MATCH (start_node)-[r%s]->(end_node)%s", relExpr, b.WhereClause())

	if opts.Count {
		if err := opts.validateOrder(); err != nil {
			return Query{}, err
		}
		return Query{Text: match + " RETURN count(end_node)", Params: b.Params()}, nil
	}

	order, err := b.orderClause("end_node", opts)
	if err != nil {
		return Query{}, err
	}

	return Query{
		Text:   match + " RETURN end_node" + order + b.pageClause(opts),
		Params: b.Params(),
	}, nil
}

// ConnectedQuery builds a variable-length traversal from a node looked up
// by its global entity id. maxDepth 0 means unbounded. Direction is
// relative to the start node: input matches incoming edges, output
// matches outgoing edges.
func ConnectedQuery(relType string, direction Direction, maxDepth int, geid string) (Query, error) {
	relExpr, err := relTypeExpr(relType)
	if err != nil {
		return Query{}, err
	}
	if maxDepth < 0 {
		return Query{}, apperr.Newf(apperr.KindInvalidArgument, "max depth must be non-negative, got %d", maxDepth)
	}

	depth := "*"
	if maxDepth > 0 {
		depth = fmt.Sprintf("*1..%d", maxDepth)
	}

	b := NewBuilder()
	geidParam := b.Bind(geid)

	var pattern string
	switch direction {
	case DirectionInput:
		pattern = fmt.Sprintf("(n)<-[%s%s]-(m)", relExpr, depth)
	case DirectionOutput:
		pattern = fmt.Sprintf("(n)-[%s%s]->(m)", relExpr, depth)
	case DirectionBoth:
		pattern = fmt.Sprintf("(n)-[%s%s]-(m)", relExpr, depth)
	default:
		return Query{}, apperr.Newf(apperr.KindInvalidArgument, "invalid direction %q", direction)
	}

	text := fmt.Sprintf("MATCH %s WHERE n.global_entity_id = %s RETURN DISTINCT m", pattern, geidParam)
	return Query{Text: text, Params: b.Params()}, nil
}

// relTypeExpr renders an optional relationship type as ":TYPE" or "".
func relTypeExpr(relType string) (string, error) {
	if relType == "" {
		return "", nil
	}
	if err := ValidateIdent(relType); err != nil {
		return "", err
	}
	return ":" + relType, nil
}

// optionalLabelExpr renders an optional single label as ":Label" or "".
func optionalLabelExpr(label string) (string, error) {
	if label == "" {
		return "", nil
	}
	return LabelExpr(label)
}

// sortAlias maps the sort_node selector onto a pattern alias.
func sortAlias(sortNode string) (string, error) {
	switch sortNode {
	case "", "start":
		return "start_node", nil
	case "end":
		return "end_node", nil
	default:
		return "", apperr.Newf(apperr.KindInvalidArgument, "invalid sort_node %q; must be start or end", sortNode)
	}
}
