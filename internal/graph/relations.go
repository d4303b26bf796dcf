package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/perimeterlabs/graphgate/internal/apperr"
	"github.com/perimeterlabs/graphgate/internal/cypher"
	"github.com/perimeterlabs/graphgate/internal/metrics"
)

// hierarchyRelationType marks the relationship type that forms a tree;
// creates of this type get a cycle check.
const hierarchyRelationType = "PARENT"

// NormalizeIDPairs expands a batch relationship payload into (start, end)
// pairs. Exactly one side may carry more than one id.
func NormalizeIDPairs(startIDs, endIDs []int64) ([][2]int64, error) {
	if len(startIDs) == 0 || len(endIDs) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "both start and end ids are required")
	}
	if len(startIDs) > 1 && len(endIDs) > 1 {
		return nil, apperr.New(apperr.KindInvalidArgument, "only one side of a batch may carry multiple ids")
	}

	pairs := make([][2]int64, 0, len(startIDs)*len(endIDs))
	for _, s := range startIDs {
		for _, e := range endIDs {
			pairs = append(pairs, [2]int64{s, e})
		}
	}
	return pairs, nil
}

// CreateRelationship creates a typed directed edge. Self-loops, duplicate
// (type, start, end) edges, and hierarchy cycles are rejected before the
// write.
func (c *Client) CreateRelationship(ctx context.Context, relType string, startID, endID int64, props map[string]any) (map[string]any, error) {
	if err := cypher.ValidateIdent(relType); err != nil {
		return nil, err
	}
	if startID == endID {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "cannot create %s relationship from node %d to itself", relType, startID)
	}

	exists, err := c.relationshipExists(ctx, relType, startID, endID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Newf(apperr.KindAlreadyExists, "relationship %s already exists between %d and %d", relType, startID, endID)
	}

	if relType == hierarchyRelationType {
		cyclic, err := c.wouldCreateCycle(ctx, relType, startID, endID)
		if err != nil {
			return nil, err
		}
		if cyclic {
			return nil, apperr.Newf(apperr.KindInvalidArgument, "%s edge from %d to %d would create a cycle", relType, startID, endID)
		}
	}

	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (s), (e) WHERE ID(s) = %s AND ID(e) = %s CREATE (s)-[r:%s]->(e)",
		b.Bind(startID), b.Bind(endID), relType)
	params := b.Params()
	if len(props) > 0 {
		text += " SET r = $props"
		params["props"] = sanitizeProps(props)
	}
	text += " RETURN r"

	records, err := c.run(ctx, "create_relationship", cypher.Query{Text: text, Params: params})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "start node %d or end node %d not found", startID, endID)
	}

	rel, ok := records[0].Values[0].(dbtype.Relationship)
	if !ok {
		return nil, apperr.Newf(apperr.KindUpstream, "create_relationship returned %T, expected relationship", records[0].Values[0])
	}

	metrics.RelationshipsCreated.Inc()
	return RelationshipToMap(rel), nil
}

// UpdateRelationship re-types an edge by recreating it, since edge types
// are immutable. Properties carry over, then merge with the given ones.
// Same type with no new properties short-circuits as a no-op.
func (c *Client) UpdateRelationship(ctx context.Context, relType, newType string, startID, endID int64, props map[string]any) (map[string]any, error) {
	if err := cypher.ValidateIdent(relType); err != nil {
		return nil, err
	}
	if err := cypher.ValidateIdent(newType); err != nil {
		return nil, err
	}

	if relType == newType && len(props) == 0 {
		rels, err := c.matchRelationships(ctx, relType, startID, endID)
		if err != nil {
			return nil, err
		}
		if len(rels) == 0 {
			return nil, apperr.Newf(apperr.KindNotFound, "relationship %s between %d and %d not found", relType, startID, endID)
		}
		return rels[0], nil
	}

	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (s)-[r:%s]->(e) WHERE ID(s) = %s AND ID(e) = %s"+
			" CREATE (s)-[r2:%s]->(e) SET r2 = properties(r)",
		relType, b.Bind(startID), b.Bind(endID), newType)
	params := b.Params()
	if len(props) > 0 {
		text += ", r2 += $props"
		params["props"] = sanitizeProps(props)
	}
	text += " DELETE r RETURN r2"

	result, err := c.writeTx(ctx, "update_relationship", func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, text, params)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, apperr.Newf(apperr.KindNotFound, "relationship %s between %d and %d not found", relType, startID, endID)
		}
		rel, ok := rec.Values[0].(dbtype.Relationship)
		if !ok {
			return nil, fmt.Errorf("unexpected update result %T", rec.Values[0])
		}
		return rel, nil
	})
	if err != nil {
		return nil, err
	}

	return RelationshipToMap(result.(dbtype.Relationship)), nil
}

// DeleteRelationship removes all edges between the ordered pair.
func (c *Client) DeleteRelationship(ctx context.Context, startID, endID int64) error {
	exists, err := c.relationshipExists(ctx, "", startID, endID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Newf(apperr.KindNotFound, "no relationship between %d and %d", startID, endID)
	}

	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (s)-[r]->(e) WHERE ID(s) = %s AND ID(e) = %s DELETE r",
		b.Bind(startID), b.Bind(endID))

	if _, err := c.run(ctx, "delete_relationship", cypher.Query{Text: text, Params: b.Params()}); err != nil {
		return err
	}

	metrics.RelationshipsDeleted.Inc()
	return nil
}

// GetRelationship matches single-hop paths and shapes each as a nested
// name-keyed tree. Either end may be omitted to broaden the match; an id
// that resolves to nothing yields an empty list.
func (c *Client) GetRelationship(ctx context.Context, relType string, startID, endID *int64) ([]map[string]any, error) {
	q, err := cypher.PathQuery(relType, startID, endID)
	if err != nil {
		return nil, err
	}

	records, err := c.run(ctx, "get_relationship", q)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if path, ok := record.Values[0].(dbtype.Path); ok {
			out = append(out, PathToTree(path))
		}
	}
	return out, nil
}

// QueryRelationships runs an edge-pattern query with independent filter
// sets on both ends. Each row shapes as {r, start_node, end_node}.
func (c *Client) QueryRelationships(ctx context.Context, relType, startLabel, endLabel string, startFilters, endFilters map[string]any, sortNode string, opts cypher.Options) ([]map[string]any, error) {
	q, err := cypher.RelationQuery(relType, startLabel, endLabel, startFilters, endFilters, sortNode, opts)
	if err != nil {
		return nil, err
	}

	records, err := c.run(ctx, "query_relationships", q)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		out = append(out, RecordToMap(record))
	}
	return out, nil
}

// CountRelationships returns the cardinality of an edge-pattern query.
func (c *Client) CountRelationships(ctx context.Context, relType, startLabel, endLabel string, startFilters, endFilters map[string]any, opts cypher.Options) (int64, error) {
	opts.Count = true
	q, err := cypher.RelationQuery(relType, startLabel, endLabel, startFilters, endFilters, "", opts)
	if err != nil {
		return 0, err
	}
	return c.runCount(ctx, "count_relationships", q)
}

// QueryRelatedMultiLabel traverses from one start node to end nodes
// matching any of the label+filter alternatives, returning the page of
// nodes plus the unpaginated total.
func (c *Client) QueryRelatedMultiLabel(ctx context.Context, relType string, startID int64, alts []cypher.EndAlternative, opts cypher.Options) ([]map[string]any, int64, error) {
	q, err := cypher.MultiLabelRelationQuery(relType, startID, alts, opts)
	if err != nil {
		return nil, 0, err
	}

	countOpts := opts
	countOpts.Count = true
	countQ, err := cypher.MultiLabelRelationQuery(relType, startID, alts, countOpts)
	if err != nil {
		return nil, 0, err
	}

	records, err := c.run(ctx, "query_related_multi_label", q)
	if err != nil {
		return nil, 0, err
	}
	total, err := c.runCount(ctx, "count_related_multi_label", countQ)
	if err != nil {
		return nil, 0, err
	}

	return collectNodes(records), total, nil
}

// GetNodesAlongRelation lists one-hop neighbors over a typed edge.
// start selects which side the given id anchors.
func (c *Client) GetNodesAlongRelation(ctx context.Context, relType string, id int64, start bool) ([]map[string]any, error) {
	if err := cypher.ValidateIdent(relType); err != nil {
		return nil, err
	}

	b := cypher.NewBuilder()
	var text string
	if start {
		text = fmt.Sprintf("MATCH (s)-[:%s]->(n) WHERE ID(s) = %s RETURN n", relType, b.Bind(id))
	} else {
		text = fmt.Sprintf("MATCH (n)-[:%s]->(e) WHERE ID(e) = %s RETURN n", relType, b.Bind(id))
	}

	records, err := c.run(ctx, "get_nodes_along_relation", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// GetNodesOutsideRelation lists nodes with no typed edge in either
// direction to the given node.
func (c *Client) GetNodesOutsideRelation(ctx context.Context, relType string, id int64) ([]map[string]any, error) {
	if err := cypher.ValidateIdent(relType); err != nil {
		return nil, err
	}

	b := cypher.NewBuilder()
	idParam := b.Bind(id)
	text := fmt.Sprintf(
		"MATCH (s), (n) WHERE ID(s) = %s AND ID(n) <> %s AND NOT (s)-[:%s]-(n) RETURN n",
		idParam, idParam, relType)

	records, err := c.run(ctx, "get_nodes_outside_relation", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// GetConnectedNodes runs a variable-length traversal from the node with
// the given global entity id. maxDepth 0 means unbounded.
func (c *Client) GetConnectedNodes(ctx context.Context, geid, relType string, direction cypher.Direction, maxDepth int) ([]map[string]any, error) {
	q, err := cypher.ConnectedQuery(relType, direction, maxDepth, geid)
	if err != nil {
		return nil, err
	}

	records, err := c.run(ctx, "get_connected_nodes", q)
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// matchRelationships fetches the typed edges between the ordered pair,
// shaped for response payloads.
func (c *Client) matchRelationships(ctx context.Context, relType string, startID, endID int64) ([]map[string]any, error) {
	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (s)-[r:%s]->(e) WHERE ID(s) = %s AND ID(e) = %s RETURN r",
		relType, b.Bind(startID), b.Bind(endID))

	records, err := c.run(ctx, "match_relationships", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if rel, ok := record.Values[0].(dbtype.Relationship); ok {
			out = append(out, RelationshipToMap(rel))
		}
	}
	return out, nil
}

// relationshipExists reports whether any edge (of relType, or any type
// when relType is empty) exists between the ordered pair.
func (c *Client) relationshipExists(ctx context.Context, relType string, startID, endID int64) (bool, error) {
	relExpr := ""
	if relType != "" {
		if err := cypher.ValidateIdent(relType); err != nil {
			return false, err
		}
		relExpr = ":" + relType
	}

	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (s)-[r%s]->(e) WHERE ID(s) = %s AND ID(e) = %s RETURN count(r)",
		relExpr, b.Bind(startID), b.Bind(endID))

	count, err := c.runCount(ctx, "relationship_exists", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// wouldCreateCycle reports whether adding start->end would close a loop
// through existing edges of the same type.
func (c *Client) wouldCreateCycle(ctx context.Context, relType string, startID, endID int64) (bool, error) {
	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH p=(e)-[:%s*]->(s) WHERE ID(e) = %s AND ID(s) = %s RETURN count(p)",
		relType, b.Bind(endID), b.Bind(startID))

	count, err := c.runCount(ctx, "cycle_check", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
