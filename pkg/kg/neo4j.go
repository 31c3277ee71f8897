package kg

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig locates the graph database holding the prebuilt knowledge
// graph. Graph construction stays external; this loader only reads.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// LoadNeo4j reads every relationship from Neo4j and materializes the
// immutable in-memory graph the traversal engine works against. Node identity
// is the `id` property, falling back to `name`.
func LoadNeo4j(ctx context.Context, cfg Neo4jConfig) (*MemoryGraph, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: cfg.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	g := NewMemoryGraph()

	query := `
		MATCH (a)-[r]->(b)
		RETURN coalesce(a.id, a.name) AS src,
		       coalesce(b.id, b.name) AS dst,
		       type(r) AS relation,
		       coalesce(r.desc, '') AS desc,
		       coalesce(r.weight, 1.0) AS weight
	`
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph edges: %w", err)
	}
	for result.Next(ctx) {
		record := result.Record()
		e := Edge{
			Source:   stringValue(record, "src"),
			Target:   stringValue(record, "dst"),
			Relation: stringValue(record, "relation"),
			Desc:     stringValue(record, "desc"),
			Weight:   floatValue(record, "weight"),
		}
		g.AddEdge(e)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graph edges: %w", err)
	}

	// Isolated nodes carry no edges but are still resolvable by FindNodes.
	nodeResult, err := session.Run(ctx, `MATCH (n) RETURN coalesce(n.id, n.name) AS id`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph nodes: %w", err)
	}
	for nodeResult.Next(ctx) {
		g.AddNode(stringValue(nodeResult.Record(), "id"))
	}
	if err := nodeResult.Err(); err != nil {
		return nil, fmt.Errorf("failed to read graph nodes: %w", err)
	}

	return g, nil
}

func stringValue(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func floatValue(record *neo4j.Record, key string) float64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 1.0
}
