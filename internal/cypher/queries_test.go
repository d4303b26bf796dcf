package cypher

import (
	"reflect"
	"testing"

	"github.com/perimeterlabs/graphgate/internal/apperr"
)

func TestNodeQuery(t *testing.T) {
	tests := []struct {
		name       string
		labels     []string
		filters    map[string]any
		opts       Options
		wantText   string
		wantParams map[string]any
	}{
		{
			name:       "no filters",
			labels:     []string{"User"},
			wantText:   "MATCH (n:User) RETURN n",
			wantParams: map[string]any{},
		},
		{
			name:       "multi label AND target",
			labels:     []string{"User", "Admin"},
			filters:    map[string]any{"name": "alice"},
			wantText:   "MATCH (n:User:Admin) WHERE n.name = $p0 RETURN n",
			wantParams: map[string]any{"p0": "alice"},
		},
		{
			name:       "partial string match",
			labels:     []string{"User"},
			filters:    map[string]any{"name": "ali"},
			opts:       Options{Partial: true},
			wantText:   "MATCH (n:User) WHERE toLower(n.name) CONTAINS toLower($p0) RETURN n",
			wantParams: map[string]any{"p0": "ali"},
		},
		{
			name:       "order and pagination",
			labels:     []string{"User"},
			filters:    map[string]any{"active": true},
			opts:       Options{OrderBy: "name", OrderType: "desc", Skip: 10, Limit: 5},
			wantText:   "MATCH (n:User) WHERE n.active = $p0 RETURN n ORDER BY n.name DESC SKIP $p1 LIMIT $p2",
			wantParams: map[string]any{"p0": true, "p1": int64(10), "p2": int64(5)},
		},
		{
			name:       "count mode drops order and pagination",
			labels:     []string{"User"},
			filters:    map[string]any{"active": true},
			opts:       Options{OrderBy: "name", Skip: 10, Limit: 5, Count: true},
			wantText:   "MATCH (n:User) WHERE n.active = $p0 RETURN count(n)",
			wantParams: map[string]any{"p0": true},
		},
		{
			name:       "id filter uses identifier function",
			labels:     []string{"File"},
			filters:    map[string]any{"id": int64(42)},
			wantText:   "MATCH (n:File) WHERE ID(n) = $p0 RETURN n",
			wantParams: map[string]any{"p0": int64(42)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NodeQuery(tt.labels, tt.filters, tt.opts)
			if err != nil {
				t.Fatalf("NodeQuery() error = %v", err)
			}
			if q.Text != tt.wantText {
				t.Errorf("Text = %q\nwant   %q", q.Text, tt.wantText)
			}
			if !reflect.DeepEqual(q.Params, tt.wantParams) {
				t.Errorf("Params = %v; want %v", q.Params, tt.wantParams)
			}
		})
	}
}

func TestNodeQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		filters map[string]any
		opts    Options
	}{
		{name: "empty labels"},
		{name: "digit label", labels: []string{"9bad"}},
		{name: "bad order_type", labels: []string{"User"}, opts: Options{OrderBy: "name", OrderType: "sideways"}},
		{name: "bad order_by ident", labels: []string{"User"}, opts: Options{OrderBy: "na me"}},
		{name: "order_type without order_by", labels: []string{"User"}, opts: Options{OrderType: "desc"}},
		{name: "bad order_type in count mode", labels: []string{"User"}, opts: Options{Count: true, OrderBy: "name", OrderType: "sideways"}},
		{name: "bad order_by ident in count mode", labels: []string{"User"}, opts: Options{Count: true, OrderBy: "na me"}},
		{name: "bad filter key", labels: []string{"User"}, filters: map[string]any{"n;DROP": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NodeQuery(tt.labels, tt.filters, tt.opts)
			if err == nil {
				t.Fatal("NodeQuery() = nil error; want InvalidArgument")
			}
			if !apperr.Is(err, apperr.KindInvalidArgument) {
				t.Errorf("kind = %v; want KindInvalidArgument", apperr.KindOf(err))
			}
		})
	}
}

func TestRelationQuery(t *testing.T) {
	q, err := RelationQuery("MEMBER", "User", "Dataset",
		map[string]any{"id": int64(1)},
		map[string]any{"name": "climate"},
		"end",
		Options{OrderBy: "name", Limit: 25},
	)
	if err != nil {
		t.Fatalf("RelationQuery() error = %v", err)
	}

	want := "MATCH (start_node:User)-[r:MEMBER]->(end_node:Dataset)" +
		" WHERE ID(start_node) = $p0 AND end_node.name = $p1" +
		" RETURN r, start_node, end_node ORDER BY end_node.name ASC LIMIT $p2"
	if q.Text != want {
		t.Errorf("Text = %q\nwant   %q", q.Text, want)
	}
	wantParams := map[string]any{"p0": int64(1), "p1": "climate", "p2": int64(25)}
	if !reflect.DeepEqual(q.Params, wantParams) {
		t.Errorf("Params = %v; want %v", q.Params, wantParams)
	}
}

func TestRelationQueryUnconstrained(t *testing.T) {
	q, err := RelationQuery("", "", "", nil, nil, "", Options{})
	if err != nil {
		t.Fatalf("RelationQuery() error = %v", err)
	}
	want := "MATCH (start_node)-[r]->(end_node) RETURN r, start_node, end_node"
	if q.Text != want {
		t.Errorf("Text = %q; want %q", q.Text, want)
	}
}

func TestRelationQueryCount(t *testing.T) {
	q, err := RelationQuery("own", "User", "", map[string]any{"id": int64(3)}, nil, "", Options{Count: true})
	if err != nil {
		t.Fatalf("RelationQuery() error = %v", err)
	}
	want := "MATCH (start_node:User)-[r:own]->(end_node) WHERE ID(start_node) = $p0 RETURN count(r)"
	if q.Text != want {
		t.Errorf("Text = %q; want %q", q.Text, want)
	}
}

func TestRelationQueryCountBadOrder(t *testing.T) {
	_, err := RelationQuery("own", "", "", nil, nil, "", Options{Count: true, OrderBy: "name", OrderType: "sideways"})
	if !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Errorf("err = %v; want KindInvalidArgument", err)
	}
}

func TestRelationQueryBadSortNode(t *testing.T) {
	_, err := RelationQuery("", "", "", nil, nil, "middle", Options{OrderBy: "name"})
	if !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Errorf("err = %v; want KindInvalidArgument", err)
	}
}

func TestPathQuery(t *testing.T) {
	start, end := int64(1), int64(2)

	t.Run("both ends", func(t *testing.T) {
		q, err := PathQuery("own", &start, &end)
		if err != nil {
			t.Fatalf("PathQuery() error = %v", err)
		}
		want := "MATCH p=(start_node)-[r:own]->(end_node) WHERE ID(start_node) = $p0 AND ID(end_node) = $p1 RETURN p"
		if q.Text != want {
			t.Errorf("Text = %q; want %q", q.Text, want)
		}
	})

	t.Run("start only, any type", func(t *testing.T) {
		q, err := PathQuery("", &start, nil)
		if err != nil {
			t.Fatalf("PathQuery() error = %v", err)
		}
		want := "MATCH p=(start_node)-[r]->(end_node) WHERE ID(start_node) = $p0 RETURN p"
		if q.Text != want {
			t.Errorf("Text = %q; want %q", q.Text, want)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		if _, err := PathQuery("ow n", nil, nil); err == nil {
			t.Error("PathQuery() with invalid type should fail")
		}
	})
}

func TestMultiLabelRelationQuery(t *testing.T) {
	alts := []EndAlternative{
		{Label: "File", Filters: map[string]any{"archived": false}},
		{Label: "Folder"},
	}

	q, err := MultiLabelRelationQuery("own", 7, alts, Options{Limit: 25})
	if err != nil {
		t.Fatalf("MultiLabelRelationQuery() error = %v", err)
	}

	want := "MATCH (start_node)-[r:own]->(end_node)" +
		" WHERE ID(start_node) = $p0" +
		" AND ((end_node:File AND end_node.archived = $p1) OR (end_node:Folder))" +
		" RETURN end_node LIMIT $p2"
	if q.Text != want {
		t.Errorf("Text = %q\nwant   %q", q.Text, want)
	}
	wantParams := map[string]any{"p0": int64(7), "p1": false, "p2": int64(25)}
	if !reflect.DeepEqual(q.Params, wantParams) {
		t.Errorf("Params = %v; want %v", q.Params, wantParams)
	}
}

func TestMultiLabelRelationQueryCount(t *testing.T) {
	q, err := MultiLabelRelationQuery("", 7, []EndAlternative{{Label: "File"}}, Options{Count: true})
	if err != nil {
		t.Fatalf("MultiLabelRelationQuery() error = %v", err)
	}
	want := "MATCH (start_node)-[r]->(end_node) WHERE ID(start_node) = $p0 AND ((end_node:File)) RETURN count(end_node)"
	if q.Text != want {
		t.Errorf("Text = %q; want %q", q.Text, want)
	}
}

func TestMultiLabelRelationQueryErrors(t *testing.T) {
	if _, err := MultiLabelRelationQuery("own", 1, nil, Options{}); err == nil {
		t.Error("empty alternatives should fail")
	}
	if _, err := MultiLabelRelationQuery("own", 1, []EndAlternative{{Label: "9bad"}}, Options{}); err == nil {
		t.Error("invalid alternative label should fail")
	}
	if _, err := MultiLabelRelationQuery("own", 1, []EndAlternative{{Label: "File"}}, Options{Count: true, OrderType: "sideways"}); err == nil {
		t.Error("invalid order_type in count mode should fail")
	}
}

func TestConnectedQuery(t *testing.T) {
	tests := []struct {
		name      string
		relType   string
		direction Direction
		maxDepth  int
		want      string
	}{
		{
			name:      "input bounded",
			relType:   "PARENT",
			direction: DirectionInput,
			maxDepth:  5,
			want:      "MATCH (n)<-[:PARENT*1..5]-(m) WHERE n.global_entity_id = $p0 RETURN DISTINCT m",
		},
		{
			name:      "output unbounded",
			relType:   "PARENT",
			direction: DirectionOutput,
			maxDepth:  0,
			want:      "MATCH (n)-[:PARENT*]->(m) WHERE n.global_entity_id = $p0 RETURN DISTINCT m",
		},
		{
			name:      "both any type",
			direction: DirectionBoth,
			maxDepth:  2,
			want:      "MATCH (n)-[*1..2]-(m) WHERE n.global_entity_id = $p0 RETURN DISTINCT m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ConnectedQuery(tt.relType, tt.direction, tt.maxDepth, "geid-1")
			if err != nil {
				t.Fatalf("ConnectedQuery() error = %v", err)
			}
			if q.Text != tt.want {
				t.Errorf("Text = %q\nwant   %q", q.Text, tt.want)
			}
			if q.Params["p0"] != "geid-1" {
				t.Errorf("Params = %v", q.Params)
			}
		})
	}
}

func TestConnectedQueryErrors(t *testing.T) {
	if _, err := ConnectedQuery("PARENT", DirectionInput, -1, "g"); err == nil {
		t.Error("negative depth should fail")
	}
	if _, err := ConnectedQuery("PARENT", Direction("sideways"), 1, "g"); err == nil {
		t.Error("invalid direction should fail")
	}
}
