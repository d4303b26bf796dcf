package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/perimeterlabs/graphgate/internal/cypher"
)

// Reserved timestamp properties set by the client, never by callers.
const (
	PropTimeCreated      = "time_created"
	PropTimeLastModified = "time_lastmodified"
	PropGlobalEntityID   = "global_entity_id"
)

// NodeToMap flattens a node into {id, labels, <properties>}. The two
// reserved timestamps render as fixed-width datetime strings with
// sub-second precision dropped.
func NodeToMap(node dbtype.Node) map[string]any {
	out := make(map[string]any, len(node.Props)+2)
	for k, v := range node.Props {
		if k == PropTimeCreated || k == PropTimeLastModified {
			out[k] = formatTimestamp(v)
			continue
		}
		out[k] = v
	}
	out["id"] = node.Id
	out["labels"] = node.Labels
	return out
}

// RelationshipToMap flattens a relationship into {type, <properties>}.
func RelationshipToMap(rel dbtype.Relationship) map[string]any {
	out := make(map[string]any, len(rel.Props)+1)
	for k, v := range rel.Props {
		out[k] = v
	}
	out["type"] = rel.Type
	return out
}

// PathToTree walks a path's hops in order and builds the nested
// {name: {id, children: {...}}} tree. The driver lists each distinct
// node once in Nodes regardless of how often the path visits it, so the
// walk follows Relationships and resolves every hop's endpoint through
// a node index. Nodes without a name property are skipped. When two
// nodes in the tree share a name, the later hop descends into the
// existing entry rather than replacing it.
func PathToTree(path dbtype.Path) map[string]any {
	root := map[string]any{}

	if len(path.Relationships) == 0 {
		level := root
		for _, node := range path.Nodes {
			level = treeInsert(level, node)
		}
		return root
	}

	byID := make(map[int64]dbtype.Node, len(path.Nodes))
	for _, node := range path.Nodes {
		byID[node.Id] = node
	}

	currentID := path.Relationships[0].StartId
	level := treeInsert(root, byID[currentID])

	for _, rel := range path.Relationships {
		nextID := rel.EndId
		if nextID == currentID {
			// The hop runs against the stored edge direction.
			nextID = rel.StartId
		}
		level = treeInsert(level, byID[nextID])
		currentID = nextID
	}

	return root
}

// treeInsert places node under level keyed by its name and returns the
// children map to descend into. Unnamed nodes leave the level unchanged.
func treeInsert(level map[string]any, node dbtype.Node) map[string]any {
	name, ok := node.Props["name"].(string)
	if !ok || name == "" {
		return level
	}

	entry, ok := level[name].(map[string]any)
	if !ok {
		entry = map[string]any{
			"id":       node.Id,
			"children": map[string]any{},
		}
		level[name] = entry
	}
	return entry["children"].(map[string]any)
}

// RecordToMap shapes each named value in a result row by kind. Values
// that are not a node, relationship, or path become nil, never an error.
func RecordToMap(record *neo4j.Record) map[string]any {
	out := make(map[string]any, len(record.Keys))
	for i, key := range record.Keys {
		switch v := record.Values[i].(type) {
		case dbtype.Node:
			out[key] = NodeToMap(v)
		case dbtype.Relationship:
			out[key] = RelationshipToMap(v)
		case dbtype.Path:
			out[key] = PathToTree(v)
		default:
			out[key] = nil
		}
	}
	return out
}

// formatTimestamp renders a timestamp property as a 19-character
// datetime string regardless of the driver-native type it arrived as.
func formatTimestamp(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(cypher.TimeLayout)
	case dbtype.LocalDateTime:
		return t.Time().Format(cypher.TimeLayout)
	case string:
		if len(t) > len(cypher.TimeLayout) {
			return t[:len(cypher.TimeLayout)]
		}
		return t
	default:
		return v
	}
}
