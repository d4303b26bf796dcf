// Package graph wraps the Neo4j driver with typed node, relationship, and
// traversal operations. Query text comes from the cypher package; this
// package owns the single shared driver and the result shaping.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/perimeterlabs/graphgate/internal/apperr"
	"github.com/perimeterlabs/graphgate/internal/cypher"
	"github.com/perimeterlabs/graphgate/internal/metrics"
)

// Config contains graph connection configuration.
type Config struct {
	URI         string
	Username    string
	Password    string
	Database    string
	MaxPoolSize int

	// IndexLabels lists node labels to create lookup indexes for on Start.
	IndexLabels []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:         "bolt://localhost:7687",
		Username:    "neo4j",
		Database:    "neo4j",
		MaxPoolSize: 100,
	}
}

// Client is the only component holding a live connection to the graph
// store. One instance shares one driver pool across all requests.
type Client struct {
	mu        sync.RWMutex
	config    Config
	logger    *slog.Logger
	driver    neo4j.DriverWithContext
	connected bool
}

// Option configures the graph client.
type Option func(*Client)

// WithConfig sets the configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new graph client. Call Start before use.
func NewClient(opts ...Option) *Client {
	c := &Client{
		config: DefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start opens the driver and verifies connectivity.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	driver, err := neo4j.NewDriverWithContext(
		c.config.URI,
		neo4j.BasicAuth(c.config.Username, c.config.Password, ""),
		func(conf *neo4jconfig.Config) {
			conf.MaxConnectionPoolSize = c.config.MaxPoolSize
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create driver for %s; %w", c.config.URI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return fmt.Errorf("failed to connect to %s; %w", c.config.URI, err)
	}

	c.driver = driver
	c.connected = true

	if err := c.initSchema(ctx); err != nil {
		c.logger.Warn("failed to create schema indexes", "error", err)
	}

	c.logger.Info("connected to graph database",
		"uri", c.config.URI,
		"database", c.config.Database,
		"max_pool_size", c.config.MaxPoolSize)

	return nil
}

// Stop closes the driver.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close driver; %w", err)
	}

	c.connected = false
	c.logger.Info("disconnected from graph database")

	return nil
}

// IsConnected returns true if the client has been started.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Ping verifies the store is reachable. Used by readiness checks.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return apperr.New(apperr.KindUpstream, "not connected to graph database")
	}
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "graph database unreachable", err)
	}
	return nil
}

// run executes a read/write statement and returns the eager record set.
func (c *Client) run(ctx context.Context, op string, q cypher.Query) ([]*neo4j.Record, error) {
	if !c.IsConnected() {
		return nil, apperr.New(apperr.KindUpstream, "not connected to graph database")
	}

	start := time.Now()
	result, err := neo4j.ExecuteQuery(ctx, c.driver, q.Text, q.Params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.config.Database))
	metrics.ObserveQuery(op, err, time.Since(start))

	if err != nil {
		c.logger.Error("query failed", "operation", op, "error", err)
		return nil, apperr.Wrap(apperr.KindUpstream, "executing "+op, err)
	}

	return result.Records, nil
}

// runCount executes a cardinality query and returns the single count value.
func (c *Client) runCount(ctx context.Context, op string, q cypher.Query) (int64, error) {
	records, err := c.run(ctx, op, q)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 || len(records[0].Values) == 0 {
		return 0, nil
	}

	count, ok := records[0].Values[0].(int64)
	if !ok {
		return 0, apperr.Newf(apperr.KindUpstream, "unexpected count value %T in %s", records[0].Values[0], op)
	}
	return count, nil
}

// writeTx runs fn inside a single managed write transaction.
func (c *Client) writeTx(ctx context.Context, op string, fn neo4j.ManagedTransactionWork) (any, error) {
	if !c.IsConnected() {
		return nil, apperr.New(apperr.KindUpstream, "not connected to graph database")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.ExecuteWrite(ctx, fn)
	metrics.ObserveQuery(op, err, time.Since(start))

	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		c.logger.Error("write transaction failed", "operation", op, "error", err)
		return nil, apperr.Wrap(apperr.KindUpstream, "executing "+op, err)
	}
	return result, nil
}
