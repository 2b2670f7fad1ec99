package deep

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "linkrelay/backend/pkg/errors"
	"linkrelay/backend/pkg/logger"
)

// Client is the link store surface the threading engine depends on.
type Client interface {
	// ID resolves a (space, name) pair to the id of the named type link.
	ID(ctx context.Context, space, name string) (int64, error)
	// Insert creates a link, plus any nested inbound edges, atomically.
	Insert(ctx context.Context, spec LinkSpec) (int64, error)
	// SelectByTypeValue returns links of a type whose value matches exactly.
	SelectByTypeValue(ctx context.Context, typeID int64, value string) ([]Link, error)
	// SelectTree returns links under a root in a tree index, deepest first.
	SelectTree(ctx context.Context, q TreeQuery) ([]TreeRow, error)
	// SelectContained returns links of a type positioned anywhere under a
	// parent in a tree index.
	SelectContained(ctx context.Context, treeID, parentID, typeID int64) ([]Link, error)
}

// Store is the Neo4j-backed link store. Links are (:Link) nodes; a link
// with endpoints additionally materializes an EDGE relationship between
// them so traversals stay Cypher-native. Type and tree definitions are
// (:Link:Type) and (:Link:Tree) nodes.
type Store struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewStore creates a new link store over a Neo4j driver
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the underlying Neo4j driver connection
func (s *Store) Close() error {
	return s.driver.Close(context.Background())
}

// ID resolves a named type link to its id
func (s *Store) ID(ctx context.Context, space, name string) (int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (t:Link:Type {space: $space, name: $name})
		RETURN t.id as id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"space": space,
		"name":  name,
	})
	if err != nil {
		return 0, apperrors.NewStoreQueryFailed("id", err)
	}

	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return 0, apperrors.NewStoreQueryFailed("id", err)
		}
		return 0, apperrors.NewStoreTypeNotFound(space, name)
	}

	return getInt64(result.Record(), "id", 0), nil
}

// Insert creates a link and its nested inbound edges in one write
// transaction. Conversation creation relies on this: the conversation
// node, its Contain edge and the first Reply edge land together or not
// at all.
func (s *Store) Insert(ctx context.Context, spec LinkSpec) (int64, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	id, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (interface{}, error) {
		linkID, err := s.insertOne(ctx, tx, spec.TypeID, spec.Value, spec.FromID, spec.ToID)
		if err != nil {
			return nil, err
		}

		for _, edge := range spec.In {
			if _, err := s.insertOne(ctx, tx, edge.TypeID, nil, edge.FromID, linkID); err != nil {
				return nil, err
			}
		}

		return linkID, nil
	})
	if err != nil {
		return 0, apperrors.NewStoreInsertFailed("insert", err)
	}

	s.logger.Debug("Link inserted",
		zap.Int64("link_id", id.(int64)),
		zap.Int64("type_id", spec.TypeID),
	)
	return id.(int64), nil
}

// insertOne creates a single link node inside tx, wiring the EDGE
// relationship when the link has endpoints.
func (s *Store) insertOne(ctx context.Context, tx neo4j.ManagedTransaction, typeID int64, value *string, fromID, toID int64) (int64, error) {
	seq, err := tx.Run(ctx, `
		MERGE (s:Sequence {name: 'links'})
		SET s.value = coalesce(s.value, 0) + 1
		RETURN s.value as id
	`, nil)
	if err != nil {
		return 0, err
	}
	seqRecord, err := seq.Single(ctx)
	if err != nil {
		return 0, err
	}
	linkID := getInt64(seqRecord, "id", 0)

	params := map[string]interface{}{
		"id":      linkID,
		"type_id": typeID,
		"from_id": fromID,
		"to_id":   toID,
	}

	if fromID != 0 && toID != 0 {
		query := `
			MATCH (f:Link {id: $from_id}), (t:Link {id: $to_id})
			CREATE (l:Link {id: $id, type_id: $type_id, from_id: $from_id, to_id: $to_id})
			CREATE (f)-[:EDGE {link_id: $id, type_id: $type_id}]->(t)
			RETURN l.id as id
		`
		if value != nil {
			params["value"] = *value
			query = `
				MATCH (f:Link {id: $from_id}), (t:Link {id: $to_id})
				CREATE (l:Link {id: $id, type_id: $type_id, from_id: $from_id, to_id: $to_id, value: $value})
				CREATE (f)-[:EDGE {link_id: $id, type_id: $type_id}]->(t)
				RETURN l.id as id
			`
		}
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return 0, err
		}
		if _, err := result.Single(ctx); err != nil {
			return 0, err
		}
		return linkID, nil
	}

	query := `CREATE (l:Link {id: $id, type_id: $type_id}) RETURN l.id as id`
	if value != nil {
		params["value"] = *value
		query = `CREATE (l:Link {id: $id, type_id: $type_id, value: $value}) RETURN l.id as id`
	}
	result, err := tx.Run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	if _, err := result.Single(ctx); err != nil {
		return 0, err
	}
	return linkID, nil
}

// SelectByTypeValue returns links of a type whose scalar value matches
// the given string exactly
func (s *Store) SelectByTypeValue(ctx context.Context, typeID int64, value string) ([]Link, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (l:Link {type_id: $type_id})
		WHERE l.value = $value
		RETURN l.id as id, l.type_id as type_id,
		       coalesce(l.from_id, 0) as from_id, coalesce(l.to_id, 0) as to_id,
		       coalesce(l.value, '') as value
		ORDER BY l.id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"type_id": typeID,
		"value":   value,
	})
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("select_by_type_value", err)
	}

	return collectLinks(ctx, result)
}

// SelectTree returns links of one type under a root, ordered by descending
// depth then descending link id. The tree definition names the edge type
// the traversal follows.
func (s *Store) SelectTree(ctx context.Context, q TreeQuery) ([]TreeRow, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	edgeTypeID, err := s.treeEdgeType(ctx, session, q.TreeID)
	if err != nil {
		return nil, err
	}

	query := `
		MATCH (root:Link {id: $root_id})
		MATCH p = (m:Link {type_id: $link_type_id})-[es:EDGE*1..]->(root)
		WHERE all(e IN es WHERE e.type_id = $edge_type_id)
		RETURN m.id as id, m.type_id as type_id,
		       coalesce(m.from_id, 0) as from_id, coalesce(m.to_id, 0) as to_id,
		       coalesce(m.value, '') as value,
		       length(p) as depth
		ORDER BY depth DESC, id DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"root_id":      q.RootID,
		"link_type_id": q.LinkTypeID,
		"edge_type_id": edgeTypeID,
	})
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("select_tree", err)
	}

	var rows []TreeRow
	for result.Next(ctx) {
		record := result.Record()
		rows = append(rows, TreeRow{
			Depth: getInt64(record, "depth", 0),
			Link:  recordLink(record),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewStoreQueryFailed("select_tree", err)
	}

	return rows, nil
}

// SelectContained returns links of a type positioned anywhere under a
// parent in a tree index
func (s *Store) SelectContained(ctx context.Context, treeID, parentID, typeID int64) ([]Link, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	edgeTypeID, err := s.treeEdgeType(ctx, session, treeID)
	if err != nil {
		return nil, err
	}

	query := `
		MATCH (p:Link {id: $parent_id})
		MATCH path = (p)-[es:EDGE*1..]->(l:Link {type_id: $type_id})
		WHERE all(e IN es WHERE e.type_id = $edge_type_id)
		RETURN l.id as id, l.type_id as type_id,
		       coalesce(l.from_id, 0) as from_id, coalesce(l.to_id, 0) as to_id,
		       coalesce(l.value, '') as value
		ORDER BY l.id
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"parent_id":    parentID,
		"type_id":      typeID,
		"edge_type_id": edgeTypeID,
	})
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("select_contained", err)
	}

	return collectLinks(ctx, result)
}

// treeEdgeType loads the edge type a tree index follows
func (s *Store) treeEdgeType(ctx context.Context, session neo4j.SessionWithContext, treeID int64) (int64, error) {
	result, err := session.Run(ctx, `
		MATCH (t:Link:Tree {id: $tree_id})
		RETURN t.edge_type_id as edge_type_id
	`, map[string]interface{}{
		"tree_id": treeID,
	})
	if err != nil {
		return 0, apperrors.NewStoreQueryFailed("tree_edge_type", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return 0, apperrors.NewStoreQueryFailed("tree_edge_type", err)
	}

	return getInt64(record, "edge_type_id", 0), nil
}

// Helper functions

func collectLinks(ctx context.Context, result neo4j.ResultWithContext) ([]Link, error) {
	var links []Link
	for result.Next(ctx) {
		links = append(links, recordLink(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewStoreQueryFailed("collect", err)
	}
	return links, nil
}

func recordLink(record *neo4j.Record) Link {
	return Link{
		ID:     getInt64(record, "id", 0),
		TypeID: getInt64(record, "type_id", 0),
		FromID: getInt64(record, "from_id", 0),
		ToID:   getInt64(record, "to_id", 0),
		Value:  getString(record, "value", ""),
	}
}

func getInt64(record *neo4j.Record, key string, defaultValue int64) int64 {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return defaultValue
}

func getString(record *neo4j.Record, key string, defaultValue string) string {
	val, ok := record.Get(key)
	if !ok {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}
