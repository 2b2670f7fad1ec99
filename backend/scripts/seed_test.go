package main

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"linkrelay/backend/internal/deep"
)

// These tests require a running Neo4j instance. Set NEO4J_URI,
// NEO4J_USER, NEO4J_PASSWORD environment variables. They seed the same
// type table the seeder command does, so they are safe against a store
// that was already seeded.
func seedEverything(ctx context.Context, t *testing.T, session neo4j.SessionWithContext) int64 {
	t.Helper()
	for _, ty := range seedTypes {
		if err := seedType(ctx, session, ty.space, ty.name); err != nil {
			t.Fatalf("seedType %s/%s failed: %v", ty.space, ty.name, err)
		}
	}
	for _, tr := range seedTrees {
		if err := seedTree(ctx, session, tr.space, tr.name, tr.edgeSpace, tr.edgeName); err != nil {
			t.Fatalf("seedTree %s/%s failed: %v", tr.space, tr.name, err)
		}
	}
	userLinkID, err := seedOperator(ctx, session)
	if err != nil {
		t.Fatalf("seedOperator failed: %v", err)
	}
	return userLinkID
}

func TestSeed_TypeIDsStartAtOne(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := seedTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	userLinkID := seedEverything(ctx, t, session)
	if userLinkID == 0 {
		t.Fatal("Operator user link got id 0, the absent-value sentinel")
	}

	store := deep.NewStore(driver)
	types, err := deep.ResolveTypes(ctx, store)
	if err != nil {
		t.Fatalf("ResolveTypes against the seeded store failed: %v", err)
	}

	// Id 0 means "no endpoint" throughout the store, so no seeded type
	// may receive it, and no two types may share an id.
	seen := map[int64]string{}
	for name, id := range map[string]int64{
		"Conversation":  types.Conversation,
		"Message":       types.Message,
		"Author":        types.Author,
		"Contain":       types.Contain,
		"Reply":         types.Reply,
		"MessageId":     types.MessageID,
		"BotToken":      types.BotToken,
		"messagingTree": types.MessagingTree,
		"containTree":   types.ContainTree,
	} {
		if id == 0 {
			t.Errorf("Type %s seeded with id 0", name)
		}
		if prev, dup := seen[id]; dup {
			t.Errorf("Types %s and %s share id %d", prev, name, id)
		}
		seen[id] = name
	}

	// The tree definitions must point at the real edge type ids
	for _, check := range []struct {
		space  string
		name   string
		edgeID int64
	}{
		{deep.SpaceMessaging, deep.NameMessagingTree, types.Reply},
		{deep.SpaceCore, deep.NameContainTree, types.Contain},
	} {
		result, err := session.Run(ctx, `
			MATCH (t:Link:Type:Tree {space: $space, name: $name})
			RETURN t.edge_type_id AS edge_type_id
		`, map[string]interface{}{"space": check.space, "name": check.name})
		if err != nil {
			t.Fatalf("Tree lookup failed: %v", err)
		}
		record, err := result.Single(ctx)
		if err != nil {
			t.Fatalf("Tree %s/%s missing: %v", check.space, check.name, err)
		}
		edgeID, _ := record.Get("edge_type_id")
		if edgeID != check.edgeID {
			t.Errorf("Tree %s/%s has edge_type_id %v, want %d", check.space, check.name, edgeID, check.edgeID)
		}
	}
}

func TestSeed_FirstMessageInsertSucceeds(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := seedTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	userLinkID := seedEverything(ctx, t, session)
	session.Close(ctx)

	store := deep.NewStore(driver)
	types, err := deep.ResolveTypes(ctx, store)
	if err != nil {
		t.Fatalf("ResolveTypes failed: %v", err)
	}

	channel := "seed-test-" + time.Now().Format("20060102150405")
	defer cleanupSeedTest(ctx, driver, channel)

	msgID, err := store.Insert(ctx, deep.LinkSpec{
		TypeID: types.Message,
		Value:  deep.String("first message in " + channel),
	})
	if err != nil {
		t.Fatalf("Insert message failed: %v", err)
	}

	// The conversation-creation insert needs the operator link to exist:
	// its Contain edge matches the from endpoint by id.
	convID, err := store.Insert(ctx, deep.LinkSpec{
		TypeID: types.Conversation,
		Value:  deep.String(channel),
		In: []deep.EdgeSpec{
			{TypeID: types.Contain, FromID: userLinkID},
			{TypeID: types.Reply, FromID: msgID},
		},
	})
	if err != nil {
		t.Fatalf("Combined conversation insert failed against a freshly seeded store: %v", err)
	}
	if convID == 0 {
		t.Fatal("Conversation got id 0")
	}

	rows, err := store.SelectTree(ctx, deep.TreeQuery{
		TreeID:     types.MessagingTree,
		RootID:     convID,
		LinkTypeID: types.Message,
	})
	if err != nil {
		t.Fatalf("SelectTree failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Link.ID != msgID {
		t.Errorf("Expected the first message under the new conversation, got %v", rows)
	}
}

func seedTestDriver() (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext("bolt://localhost:7687", neo4j.BasicAuth("neo4j", "password", ""))
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}

func cleanupSeedTest(ctx context.Context, driver neo4j.DriverWithContext, channel string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, `
		MATCH (l:Link)
		WHERE l.value = $channel OR l.value = 'first message in ' + $channel
		DETACH DELETE l
	`, map[string]interface{}{"channel": channel})
}
