package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/perimeterlabs/graphgate/internal/apperr"
	"github.com/perimeterlabs/graphgate/internal/cypher"
	"github.com/perimeterlabs/graphgate/internal/metrics"
)

// Payload keys with side-channel meaning on create/update.
const (
	propParentID       = "parent_id"
	propParentRelation = "parent_relation"
)

// CreateNode creates a node with the given primary label, name, and
// properties. Reserved timestamps are injected server-side. When the
// payload carries parent_id and parent_relation, the parent edge is
// created in the same transaction, so a failed edge rolls back the node.
func (c *Client) CreateNode(ctx context.Context, label, name string, props map[string]any, extraLabels []string) (map[string]any, error) {
	labels := append([]string{label}, extraLabels...)
	labelExpr, err := cypher.LabelExpr(labels...)
	if err != nil {
		return nil, err
	}

	clean := sanitizeProps(props)

	var parentID int64
	var parentRelation string
	hasParent := false
	if rawID, ok := clean[propParentID]; ok {
		rawRelation, relOK := clean[propParentRelation]
		if !relOK {
			return nil, apperr.New(apperr.KindInvalidArgument, "parent_id given without parent_relation")
		}
		parentID, err = toInt64(rawID)
		if err != nil {
			return nil, err
		}
		parentRelation, _ = rawRelation.(string)
		if err := cypher.ValidateIdent(parentRelation); err != nil {
			return nil, err
		}
		hasParent = true
		delete(clean, propParentID)
		delete(clean, propParentRelation)
	}

	if name != "" {
		clean["name"] = name
	}
	if _, ok := clean[PropGlobalEntityID]; !ok {
		clean[PropGlobalEntityID] = uuid.NewString()
	}

	createText := fmt.Sprintf(
		"CREATE (n%s) SET n = $props, n.%s = datetime(), n.%s = datetime() RETURN n",
		labelExpr, PropTimeCreated, PropTimeLastModified)
	createParams := map[string]any{"props": clean}

	if !hasParent {
		records, err := c.run(ctx, "create_node", cypher.Query{Text: createText, Params: createParams})
		if err != nil {
			return nil, err
		}
		node, err := singleNode(records, "create_node")
		if err != nil {
			return nil, err
		}
		metrics.NodesCreated.Inc()
		return NodeToMap(node), nil
	}

	edgeText := fmt.Sprintf(
		"MATCH (n), (p) WHERE ID(n) = $nid AND ID(p) = $pid CREATE (n)-[r:%s]->(p) RETURN r",
		parentRelation)

	result, err := c.writeTx(ctx, "create_node_with_parent", func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, createText, createParams)
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		node, ok := rec.Values[0].(dbtype.Node)
		if !ok {
			return nil, fmt.Errorf("unexpected create result %T", rec.Values[0])
		}

		edgeRes, err := tx.Run(ctx, edgeText, map[string]any{"nid": node.Id, "pid": parentID})
		if err != nil {
			return nil, err
		}
		if _, err := edgeRes.Single(ctx); err != nil {
			return nil, apperr.Newf(apperr.KindNotFound, "parent node %d not found", parentID)
		}

		return node, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.NodesCreated.Inc()
	metrics.RelationshipsCreated.Inc()
	return NodeToMap(result.(dbtype.Node)), nil
}

// GetNode retrieves a node by label and internal identifier.
func (c *Client) GetNode(ctx context.Context, label string, id int64) (map[string]any, error) {
	q, err := cypher.NodeQuery([]string{label}, map[string]any{"id": id}, cypher.Options{})
	if err != nil {
		return nil, err
	}

	records, err := c.run(ctx, "get_node", q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "node %d with label %s not found", id, label)
	}

	node, err := singleNode(records, "get_node")
	if err != nil {
		return nil, err
	}
	return NodeToMap(node), nil
}

// GetNodeByGeid retrieves a node by its global entity id.
func (c *Client) GetNodeByGeid(ctx context.Context, geid string) (map[string]any, error) {
	b := cypher.NewBuilder()
	q := cypher.Query{
		Text:   fmt.Sprintf("MATCH (n) WHERE n.%s = %s RETURN n", PropGlobalEntityID, b.Bind(geid)),
		Params: b.Params(),
	}

	records, err := c.run(ctx, "get_node_by_geid", q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "node with global entity id %q not found", geid)
	}

	node, err := singleNode(records, "get_node_by_geid")
	if err != nil {
		return nil, err
	}
	return NodeToMap(node), nil
}

// QueryNodesByGeids returns all nodes whose global entity id is in geids.
func (c *Client) QueryNodesByGeids(ctx context.Context, geids []string) ([]map[string]any, error) {
	if len(geids) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "at least one global entity id is required")
	}

	b := cypher.NewBuilder()
	q := cypher.Query{
		Text:   fmt.Sprintf("MATCH (n) WHERE n.%s IN %s RETURN n", PropGlobalEntityID, b.Bind(geids)),
		Params: b.Params(),
	}

	records, err := c.run(ctx, "query_nodes_by_geids", q)
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// UpdateNode merges the given properties into an existing node.
// time_lastmodified refreshes unless touch is false (silent bumps such
// as last_login updates). Extra labels attach additively.
func (c *Client) UpdateNode(ctx context.Context, label string, id int64, props map[string]any, touch bool, extraLabels []string) (map[string]any, error) {
	if err := cypher.ValidateLabels([]string{label}); err != nil {
		return nil, err
	}

	clean := sanitizeProps(props)
	delete(clean, propParentID)
	delete(clean, propParentRelation)

	b := cypher.NewBuilder()
	text := fmt.Sprintf("MATCH (n:%s) WHERE ID(n) = %s SET n += $props", label, b.Bind(id))
	if touch {
		text += fmt.Sprintf(", n.%s = datetime()", PropTimeLastModified)
	}
	if len(extraLabels) > 0 {
		extraExpr, err := cypher.LabelExpr(extraLabels...)
		if err != nil {
			return nil, err
		}
		text += " SET n" + extraExpr
	}
	text += " RETURN n"

	params := b.Params()
	params["props"] = clean

	records, err := c.run(ctx, "update_node", cypher.Query{Text: text, Params: params})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "node %d with label %s not found", id, label)
	}

	node, err := singleNode(records, "update_node")
	if err != nil {
		return nil, err
	}
	return NodeToMap(node), nil
}

// ChangeLabels fully replaces a node's label set.
func (c *Client) ChangeLabels(ctx context.Context, id int64, labels []string) (map[string]any, error) {
	newExpr, err := cypher.LabelExpr(labels...)
	if err != nil {
		return nil, err
	}

	b := cypher.NewBuilder()
	lookup := cypher.Query{
		Text:   fmt.Sprintf("MATCH (n) WHERE ID(n) = %s RETURN n", b.Bind(id)),
		Params: b.Params(),
	}
	records, err := c.run(ctx, "change_labels", lookup)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.Newf(apperr.KindNotFound, "node %d not found", id)
	}
	current, err := singleNode(records, "change_labels")
	if err != nil {
		return nil, err
	}

	oldExpr, err := cypher.LabelExpr(current.Labels...)
	if err != nil {
		return nil, err
	}

	b = cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (n) WHERE ID(n) = %s REMOVE n%s SET n%s, n.%s = datetime() RETURN n",
		b.Bind(id), oldExpr, newExpr, PropTimeLastModified)

	records, err = c.run(ctx, "change_labels", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return nil, err
	}
	node, err := singleNode(records, "change_labels")
	if err != nil {
		return nil, err
	}
	return NodeToMap(node), nil
}

// DeleteNode detaches and deletes a node. Deleting an absent node is an
// error, not a no-op, so callers can distinguish the two.
func (c *Client) DeleteNode(ctx context.Context, label string, id int64) error {
	if err := cypher.ValidateLabels([]string{label}); err != nil {
		return err
	}

	b := cypher.NewBuilder()
	text := fmt.Sprintf(
		"MATCH (n:%s) WHERE ID(n) = %s WITH n, ID(n) AS nid DETACH DELETE n RETURN nid",
		label, b.Bind(id))

	records, err := c.run(ctx, "delete_node", cypher.Query{Text: text, Params: b.Params()})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return apperr.Newf(apperr.KindNotFound, "node %d with label %s not found", id, label)
	}

	metrics.NodesDeleted.Inc()
	return nil
}

// QueryNodes runs a filtered, ordered, paginated node query.
func (c *Client) QueryNodes(ctx context.Context, labels []string, filters map[string]any, opts cypher.Options) ([]map[string]any, error) {
	q, err := cypher.NodeQuery(labels, filters, opts)
	if err != nil {
		return nil, err
	}

	records, err := c.run(ctx, "query_nodes", q)
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// CountNodes returns the cardinality of a filtered node query.
func (c *Client) CountNodes(ctx context.Context, labels []string, filters map[string]any, opts cypher.Options) (int64, error) {
	opts.Count = true
	q, err := cypher.NodeQuery(labels, filters, opts)
	if err != nil {
		return 0, err
	}
	return c.runCount(ctx, "count_nodes", q)
}

// BulkCreateNodes creates one node per payload row in a single batched
// statement. Rows missing a global entity id get one assigned.
func (c *Client) BulkCreateNodes(ctx context.Context, label string, payloads []map[string]any, extraLabels []string) ([]map[string]any, error) {
	if len(payloads) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "at least one payload is required")
	}

	labels := append([]string{label}, extraLabels...)
	labelExpr, err := cypher.LabelExpr(labels...)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(payloads))
	for _, payload := range payloads {
		row := sanitizeProps(payload)
		delete(row, propParentID)
		delete(row, propParentRelation)
		if _, ok := row[PropGlobalEntityID]; !ok {
			row[PropGlobalEntityID] = uuid.NewString()
		}
		rows = append(rows, row)
	}

	text := fmt.Sprintf(
		"UNWIND $rows AS row CREATE (n%s) SET n = row, n.%s = datetime(), n.%s = datetime() RETURN n",
		labelExpr, PropTimeCreated, PropTimeLastModified)

	records, err := c.run(ctx, "bulk_create_nodes", cypher.Query{
		Text:   text,
		Params: map[string]any{"rows": rows},
	})
	if err != nil {
		return nil, err
	}

	metrics.NodesCreated.Add(float64(len(records)))
	return collectNodes(records), nil
}

// BulkUpdateRow is one row of a batch property update.
type BulkUpdateRow struct {
	Geid  string `json:"global_entity_id"`
	Value any    `json:"value"`
}

// BulkUpdateNodes sets one property across many nodes keyed by global
// entity id.
func (c *Client) BulkUpdateNodes(ctx context.Context, property string, rows []BulkUpdateRow) ([]map[string]any, error) {
	if err := cypher.ValidateIdent(property); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "at least one row is required")
	}

	params := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if row.Geid == "" {
			return nil, apperr.New(apperr.KindInvalidArgument, "every row needs a global_entity_id")
		}
		params = append(params, map[string]any{"geid": row.Geid, "value": row.Value})
	}

	text := fmt.Sprintf(
		"UNWIND $rows AS row MATCH (n) WHERE n.%s = row.geid SET n.%s = row.value, n.%s = datetime() RETURN n",
		PropGlobalEntityID, property, PropTimeLastModified)

	records, err := c.run(ctx, "bulk_update_nodes", cypher.Query{
		Text:   text,
		Params: map[string]any{"rows": params},
	})
	if err != nil {
		return nil, err
	}
	return collectNodes(records), nil
}

// GetPropertyOptions lists the distinct values of every property across
// nodes of a label. Timestamps are excluded; the result drives filter
// dropdowns.
func (c *Client) GetPropertyOptions(ctx context.Context, label string) (map[string][]any, error) {
	if err := cypher.ValidateLabels([]string{label}); err != nil {
		return nil, err
	}

	text := fmt.Sprintf(
		"MATCH (n:%s) UNWIND keys(n) AS key WITH key, collect(DISTINCT n[key]) AS options"+
			" WHERE NOT key IN [$t1, $t2] RETURN key, options",
		label)

	records, err := c.run(ctx, "get_property_options", cypher.Query{
		Text:   text,
		Params: map[string]any{"t1": PropTimeCreated, "t2": PropTimeLastModified},
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string][]any, len(records))
	for _, record := range records {
		key, ok := record.Values[0].(string)
		if !ok {
			continue
		}
		options, _ := record.Values[1].([]any)
		out[key] = options
	}
	return out, nil
}

// sanitizeProps copies props minus the reserved keys callers may not set.
func sanitizeProps(props map[string]any) map[string]any {
	clean := make(map[string]any, len(props))
	for k, v := range props {
		switch k {
		case "id", PropTimeCreated, PropTimeLastModified:
			continue
		}
		clean[k] = v
	}
	return clean
}

// toInt64 converts JSON-decoded numeric values to an internal id.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, apperr.Newf(apperr.KindInvalidArgument, "expected numeric id, got %T", v)
	}
}

// singleNode extracts the node from the first record's first column.
func singleNode(records []*neo4j.Record, op string) (dbtype.Node, error) {
	if len(records) == 0 || len(records[0].Values) == 0 {
		return dbtype.Node{}, apperr.Newf(apperr.KindUpstream, "%s returned no rows", op)
	}
	node, ok := records[0].Values[0].(dbtype.Node)
	if !ok {
		return dbtype.Node{}, apperr.Newf(apperr.KindUpstream, "%s returned %T, expected node", op, records[0].Values[0])
	}
	return node, nil
}

// collectNodes shapes the first column of every record as a node map.
func collectNodes(records []*neo4j.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if len(record.Values) == 0 {
			continue
		}
		if node, ok := record.Values[0].(dbtype.Node); ok {
			out = append(out, NodeToMap(node))
		}
	}
	return out
}
