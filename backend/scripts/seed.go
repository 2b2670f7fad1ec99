// Seeds the link store: the named type links the relay resolves at
// startup, the tree definitions for reply threading and containment, and
// the operator's user link that owns created conversations. The user
// link id it prints is the id to mint deepTokens against. Idempotent;
// run with `go run backend/scripts/seed.go`.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"linkrelay/backend/internal/deep"
	"linkrelay/backend/pkg/config"
	"linkrelay/backend/pkg/logger"
)

type typeEntry struct {
	space string
	name  string
}

type treeEntry struct {
	space     string
	name      string
	edgeSpace string
	edgeName  string
}

var seedTypes = []typeEntry{
	{deep.SpaceCore, deep.NameUser},
	{deep.SpaceCore, deep.NameContain},
	{deep.SpaceMessaging, deep.NameMessage},
	{deep.SpaceMessaging, deep.NameAuthor},
	{deep.SpaceBot, deep.NameConversation},
	{deep.SpaceBot, deep.NameReply},
	{deep.SpaceBot, deep.NameMessageID},
	{deep.SpaceBot, deep.NameBotToken},
}

// Tree definitions double as named types so they resolve through the
// same (space, name) lookup.
var seedTrees = []treeEntry{
	{deep.SpaceMessaging, deep.NameMessagingTree, deep.SpaceBot, deep.NameReply},
	{deep.SpaceCore, deep.NameContainTree, deep.SpaceCore, deep.NameContain},
}

func main() {
	flag.Parse()

	if err := logger.Init(config.EnvDevelopment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	ctx := context.Background()
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, t := range seedTypes {
		if err := seedType(ctx, session, t.space, t.name); err != nil {
			log.Fatal("Failed to seed type",
				zap.String("space", t.space),
				zap.String("name", t.name),
				zap.Error(err),
			)
		}
		log.Info("Type seeded", zap.String("space", t.space), zap.String("name", t.name))
	}

	for _, t := range seedTrees {
		if err := seedTree(ctx, session, t.space, t.name, t.edgeSpace, t.edgeName); err != nil {
			log.Fatal("Failed to seed tree",
				zap.String("space", t.space),
				zap.String("name", t.name),
				zap.Error(err),
			)
		}
		log.Info("Tree seeded", zap.String("space", t.space), zap.String("name", t.name))
	}

	userLinkID, err := seedOperator(ctx, session)
	if err != nil {
		log.Fatal("Failed to seed operator user link", zap.Error(err))
	}
	log.Info("Operator user link ready", zap.Int64("user_link_id", userLinkID))

	log.Info("Seed complete")
}

// seedType allocates an id for a named type link unless one exists. Both
// right-hand sides of one SET clause read the pre-update state, so the
// type id is seq.value + 1, not seq.value.
func seedType(ctx context.Context, session neo4j.SessionWithContext, space, name string) error {
	_, err := session.Run(ctx, `
		MERGE (seq:Sequence {name: 'links'})
		ON CREATE SET seq.value = 0
		WITH seq
		MERGE (t:Link:Type {space: $space, name: $name})
		ON CREATE SET seq.value = seq.value + 1, t.id = seq.value + 1
	`, map[string]interface{}{
		"space": space,
		"name":  name,
	})
	return err
}

func seedTree(ctx context.Context, session neo4j.SessionWithContext, space, name, edgeSpace, edgeName string) error {
	_, err := session.Run(ctx, `
		MATCH (edge:Link:Type {space: $edge_space, name: $edge_name})
		MERGE (seq:Sequence {name: 'links'})
		ON CREATE SET seq.value = 0
		WITH seq, edge
		MERGE (t:Link:Type:Tree {space: $space, name: $name})
		ON CREATE SET seq.value = seq.value + 1, t.id = seq.value + 1
		SET t.edge_type_id = edge.id
	`, map[string]interface{}{
		"space":      space,
		"name":       name,
		"edge_space": edgeSpace,
		"edge_name":  edgeName,
	})
	return err
}

// seedOperator mints the operator's user link, the Contain endpoint for
// every conversation the relay creates. Returns the existing link's id
// on repeat runs.
func seedOperator(ctx context.Context, session neo4j.SessionWithContext) (int64, error) {
	result, err := session.Run(ctx, `
		MATCH (ut:Link:Type {space: $space, name: $name})
		MERGE (seq:Sequence {name: 'links'})
		ON CREATE SET seq.value = 0
		WITH seq, ut
		MERGE (u:Link {type_id: ut.id, value: $value})
		ON CREATE SET seq.value = seq.value + 1, u.id = seq.value + 1
		RETURN u.id AS id
	`, map[string]interface{}{
		"space": deep.SpaceCore,
		"name":  deep.NameUser,
		"value": "operator",
	})
	if err != nil {
		return 0, err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := record.Get("id")
	if !ok {
		return 0, fmt.Errorf("operator link id missing from seed result")
	}
	return id.(int64), nil
}
