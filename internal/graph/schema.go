package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/perimeterlabs/graphgate/internal/cypher"
)

// indexedProperties are the lookup properties indexed per configured label.
var indexedProperties = []string{
	PropGlobalEntityID,
	"name",
	PropTimeCreated,
}

// initSchema creates lookup indexes for the configured labels.
// Safe to call multiple times; IF NOT EXISTS skips existing indexes.
func (c *Client) initSchema(ctx context.Context) error {
	for _, label := range c.config.IndexLabels {
		if err := cypher.ValidateIdent(label); err != nil {
			return fmt.Errorf("invalid index label; %w", err)
		}

		for _, prop := range indexedProperties {
			query := fmt.Sprintf(
				"CREATE INDEX %s_%s IF NOT EXISTS FOR (n:%s) ON (n.%s)",
				label, prop, label, prop)

			_, err := neo4j.ExecuteQuery(ctx, c.driver, query, nil,
				neo4j.EagerResultTransformer,
				neo4j.ExecuteQueryWithDatabase(c.config.Database))
			if err != nil {
				c.logger.Debug("schema query failed", "query", query, "error", err)
			}
		}
	}

	return nil
}
