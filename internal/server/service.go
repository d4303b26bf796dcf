package server

import (
	"context"
	"encoding/json"

	"github.com/perimeterlabs/graphgate/internal/cypher"
	"github.com/perimeterlabs/graphgate/internal/graph"
)

// Graph is the surface of the graph client the HTTP handlers depend on.
// Defined here so handler tests can substitute a stub.
type Graph interface {
	Ping(ctx context.Context) error

	CreateNode(ctx context.Context, label, name string, props map[string]any, extraLabels []string) (map[string]any, error)
	BulkCreateNodes(ctx context.Context, label string, payloads []map[string]any, extraLabels []string) ([]map[string]any, error)
	GetNode(ctx context.Context, label string, id int64) (map[string]any, error)
	GetNodeByGeid(ctx context.Context, geid string) (map[string]any, error)
	QueryNodesByGeids(ctx context.Context, geids []string) ([]map[string]any, error)
	UpdateNode(ctx context.Context, label string, id int64, props map[string]any, touch bool, extraLabels []string) (map[string]any, error)
	ChangeLabels(ctx context.Context, id int64, labels []string) (map[string]any, error)
	DeleteNode(ctx context.Context, label string, id int64) error
	QueryNodes(ctx context.Context, labels []string, filters map[string]any, opts cypher.Options) ([]map[string]any, error)
	CountNodes(ctx context.Context, labels []string, filters map[string]any, opts cypher.Options) (int64, error)
	BulkUpdateNodes(ctx context.Context, property string, rows []graph.BulkUpdateRow) ([]map[string]any, error)
	GetPropertyOptions(ctx context.Context, label string) (map[string][]any, error)

	CreateRelationship(ctx context.Context, relType string, startID, endID int64, props map[string]any) (map[string]any, error)
	UpdateRelationship(ctx context.Context, relType, newType string, startID, endID int64, props map[string]any) (map[string]any, error)
	DeleteRelationship(ctx context.Context, startID, endID int64) error
	GetRelationship(ctx context.Context, relType string, startID, endID *int64) ([]map[string]any, error)
	QueryRelationships(ctx context.Context, relType, startLabel, endLabel string, startFilters, endFilters map[string]any, sortNode string, opts cypher.Options) ([]map[string]any, error)
	CountRelationships(ctx context.Context, relType, startLabel, endLabel string, startFilters, endFilters map[string]any, opts cypher.Options) (int64, error)
	QueryRelatedMultiLabel(ctx context.Context, relType string, startID int64, alts []cypher.EndAlternative, opts cypher.Options) ([]map[string]any, int64, error)
	GetNodesAlongRelation(ctx context.Context, relType string, id int64, start bool) ([]map[string]any, error)
	GetNodesOutsideRelation(ctx context.Context, relType string, id int64) ([]map[string]any, error)
	GetConnectedNodes(ctx context.Context, geid, relType string, direction cypher.Direction, maxDepth int) ([]map[string]any, error)
}

// idList accepts either a single JSON number or an array of numbers, so
// the relationship endpoints serve both scalar and batch payloads.
type idList []int64

func (l *idList) UnmarshalJSON(data []byte) error {
	var single int64
	if err := json.Unmarshal(data, &single); err == nil {
		*l = idList{single}
		return nil
	}

	var many []int64
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = idList(many)
	return nil
}
