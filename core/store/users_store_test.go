package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"argus-console/config"
	"argus-console/core/store"
	"argus-console/core/utils"
)

func newTestDB(t *testing.T) store.UsersStore {
	t.Helper()
	cfg := &config.AppConfig{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "store.db"),
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, cfg.DBDriver, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewUsersStore(db)
}

func mustCreate(t *testing.T, users store.UsersStore, username string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), &store.User{
		Username: username,
		State:    store.StateNormal,
	})
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	return id
}

func TestFindByUsernameIgnoresCase(t *testing.T) {
	users := newTestDB(t)
	mustCreate(t, users, "Alice")

	u, err := users.FindByUsername(context.Background(), "aLiCe")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u == nil || u.Username != "Alice" {
		t.Fatalf("found %+v", u)
	}

	u, err = users.FindByUsername(context.Background(), "nobody")
	if err != nil || u != nil {
		t.Fatalf("missing user: %+v, %v", u, err)
	}
}

func TestListPageFiltersAndOrders(t *testing.T) {
	users := newTestDB(t)
	ctx := context.Background()
	for _, name := range []string{"carol", "alice", "bob"} {
		mustCreate(t, users, name)
	}

	rows, total, err := users.ListPage(ctx, store.ListParams{OrderKey: "username", OrderAsc: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("total = %d rows = %d", total, len(rows))
	}
	if rows[0].Username != "alice" || rows[2].Username != "carol" {
		t.Fatalf("order = %s..%s", rows[0].Username, rows[2].Username)
	}

	rows, total, err = users.ListPage(ctx, store.ListParams{
		Filter:   store.UserFilter{Search: "bo"},
		OrderKey: "username",
		OrderAsc: true,
	})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if total != 1 || rows[0].Username != "bob" {
		t.Fatalf("search hit = %v (total %d)", rows, total)
	}

	rows, total, err = users.ListPage(ctx, store.ListParams{
		OrderKey: "username",
		OrderAsc: true,
		Offset:   1,
		Limit:    1,
	})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if total != 3 || len(rows) != 1 || rows[0].Username != "bob" {
		t.Fatalf("page = %v (total %d)", rows, total)
	}
}

func TestSetStateTracksLockedAt(t *testing.T) {
	users := newTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, users, "alice")

	n, err := users.SetState(ctx, []int64{id}, store.StateLocked)
	if err != nil || n != 1 {
		t.Fatalf("lock: n=%d err=%v", n, err)
	}
	u, err := users.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.State != store.StateLocked || u.LockedAt == nil {
		t.Fatalf("after lock: state=%d lockedAt=%v", u.State, u.LockedAt)
	}

	if _, err := users.SetState(ctx, []int64{id}, store.StateNormal); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	u, _ = users.Get(ctx, id)
	if u.State != store.StateNormal || u.LockedAt != nil {
		t.Fatalf("after unlock: state=%d lockedAt=%v", u.State, u.LockedAt)
	}
}

func TestUnlockLockedBefore(t *testing.T) {
	users := newTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, users, "alice")
	keep := mustCreate(t, users, "bob")

	if _, err := users.SetState(ctx, []int64{id, keep}, store.StateLocked); err != nil {
		t.Fatalf("lock: %v", err)
	}

	n, err := users.UnlockLockedBefore(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("fresh locks expired: n=%d err=%v", n, err)
	}

	n, err = users.UnlockLockedBefore(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("expired unlock: n=%d err=%v", n, err)
	}
	u, _ := users.Get(ctx, id)
	if u.State != store.StateNormal {
		t.Fatalf("state = %d after expiry", u.State)
	}
}

func TestDeleteAndEmptyIDLists(t *testing.T) {
	users := newTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, users, "alice")

	if n, err := users.Delete(ctx, nil); err != nil || n != 0 {
		t.Fatalf("empty delete: n=%d err=%v", n, err)
	}
	if n, err := users.SetState(ctx, nil, store.StateLocked); err != nil || n != 0 {
		t.Fatalf("empty set state: n=%d err=%v", n, err)
	}

	if n, err := users.Delete(ctx, []int64{id}); err != nil || n != 1 {
		t.Fatalf("delete: n=%d err=%v", n, err)
	}
	if u, err := users.Get(ctx, id); err != nil || u != nil {
		t.Fatalf("deleted user still present: %+v, %v", u, err)
	}
}
