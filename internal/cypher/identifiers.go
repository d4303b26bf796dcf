package cypher

import (
	"regexp"
	"strings"

	"github.com/perimeterlabs/graphgate/internal/apperr"
)

// identPattern is the allow-list grammar for labels, relationship types,
// and property keys that appear in query text. Values never go through
// this path; they are always parameter-bound.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdent checks that name is safe to interpolate into query text.
func ValidateIdent(name string) error {
	if name == "" {
		return apperr.New(apperr.KindInvalidArgument, "identifier must not be empty")
	}
	if !identPattern.MatchString(name) {
		return apperr.Newf(apperr.KindInvalidArgument, "invalid identifier %q", name)
	}
	return nil
}

// ValidateLabels checks every label in the list.
// At least one label is required.
func ValidateLabels(labels []string) error {
	if len(labels) == 0 {
		return apperr.New(apperr.KindInvalidArgument, "at least one label is required")
	}
	for _, label := range labels {
		if err := ValidateIdent(label); err != nil {
			return err
		}
	}
	return nil
}

// LabelExpr renders a validated label set as a Cypher label expression,
// e.g. ":User:Admin". Multiple labels AND-combine on node type.
func LabelExpr(labels ...string) (string, error) {
	if err := ValidateLabels(labels); err != nil {
		return "", err
	}
	return ":" + strings.Join(labels, ":"), nil
}

// NormalizeOrderType maps a caller-supplied sort direction to ASC or DESC.
// Empty input defaults to ASC. Anything else is rejected.
func NormalizeOrderType(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return "ASC", nil
	case "desc":
		return "DESC", nil
	default:
		return "", apperr.Newf(apperr.KindInvalidArgument, "invalid order_type %q; must be asc or desc", s)
	}
}

// Direction is a traversal direction relative to the start node.
type Direction string

const (
	DirectionInput  Direction = "input"  // incoming edges
	DirectionOutput Direction = "output" // outgoing edges
	DirectionBoth   Direction = "both"
)

// ParseDirection maps a caller-supplied direction string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "input":
		return DirectionInput, nil
	case "output":
		return DirectionOutput, nil
	case "both":
		return DirectionBoth, nil
	default:
		return "", apperr.Newf(apperr.KindInvalidArgument, "invalid direction %q; must be input, output, or both", s)
	}
}
