//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
	"github.com/Apurer/orderflow/internal/platform/migrations"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orderflow_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newStoredOrder(t *testing.T, repo *Repository, created time.Time) *domain.Order {
	t.Helper()
	id, err := repo.NextID(context.Background())
	require.NoError(t, err)
	order, err := domain.NewOrder(id, domain.Customer{Name: "Ada", Email: "ada@example.com"}, created)
	require.NoError(t, err)
	order.ProductDescription = "2 x Mug"
	order.EnsureLineItems()
	saved, err := repo.Insert(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestRepository_InsertAndGetByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	id, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", id)

	order, err := domain.NewOrder(id, domain.Customer{Name: "Ada"}, now)
	require.NoError(t, err)
	order.ProductDescription = "2 x Mug, 1 x Hat"
	order.EnsureLineItems()
	author := domain.User{ID: "t-1", Name: "Tia", Role: domain.RoleTeam}
	_, err = order.AddNote("n-1", "hello", author, domain.RoleDigitizer, now)
	require.NoError(t, err)
	order.AddAttachment("a-1", "proof.png", "https://blobs/proof.png", domain.RoleTeam, now)
	order.External = &domain.ExternalReference{
		Source:     "shopify",
		OrderID:    "5001",
		OrderName:  "#1001",
		TotalPrice: decimal.RequireFromString("42.50"),
		Currency:   "EUR",
	}

	saved, err := repo.Insert(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAtTeam, fetched.Status)
	require.Len(t, fetched.LineItems, 2)
	assert.Equal(t, "Mug", fetched.LineItems[0].Name)
	require.Len(t, fetched.Notes, 1)
	assert.Equal(t, domain.RoleDigitizer, fetched.Notes[0].TargetRole)
	require.Len(t, fetched.Attachments, 1)
	assert.True(t, fetched.IsAssociated("t-1"))
	require.NotNil(t, fetched.External)
	assert.True(t, decimal.RequireFromString("42.50").Equal(fetched.External.TotalPrice))

	bySource, err := repo.GetBySourceOrderID(ctx, "5001")
	require.NoError(t, err)
	assert.Equal(t, id, bySource.ID)

	_, err = repo.GetByID(ctx, "ORD-999")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_NextIDIsUniqueUnderConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	const workers = 20
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.NextID(context.Background())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}

func TestRepository_UpdateChecksVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	saved := newStoredOrder(t, repo, time.Now().UTC())

	first := saved.Clone()
	first.Status = domain.StatusAtDigitizer
	first.DigitizerID = "d-1"
	updated, err := repo.Update(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, domain.StatusAtDigitizer, updated.Status)

	stale := saved.Clone()
	stale.Priority = domain.PriorityHigh
	_, err = repo.Update(ctx, stale)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)

	missing := saved.Clone()
	missing.ID = "ORD-404"
	_, err = repo.Update(ctx, missing)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_DuplicateSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	for i, want := range []error{nil, ports.ErrDuplicateSource} {
		id, err := repo.NextID(ctx)
		require.NoError(t, err)
		order, err := domain.NewOrder(id, domain.Customer{}, time.Now().UTC())
		require.NoError(t, err)
		order.External = &domain.ExternalReference{Source: "shopify", OrderID: "7001"}
		_, err = repo.Insert(ctx, order)
		if want == nil {
			require.NoError(t, err, i)
		} else {
			assert.ErrorIs(t, err, want)
		}
	}
}

func TestRepository_ListSortAndFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := newStoredOrder(t, repo, base)
	b := newStoredOrder(t, repo, base.Add(time.Hour))

	withVendor := b.Clone()
	withVendor.VendorID = "v-1"
	_, err := repo.Update(ctx, withVendor)
	require.NoError(t, err)

	withUser := a.Clone()
	withUser.AssociateUser(domain.User{ID: "u-9", Name: "Uma", Role: domain.RoleSales})
	_, err = repo.Update(ctx, withUser)
	require.NoError(t, err)

	all, err := repo.List(ctx, ports.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{a.ID, b.ID}, []string{all[0].ID, all[1].ID})

	recent, err := repo.List(ctx, ports.ListOptions{SortByRecency: true})
	require.NoError(t, err)
	assert.Equal(t, b.ID, recent[0].ID)

	vendor, err := repo.List(ctx, ports.ListOptions{AssociatedUserID: "v-1"})
	require.NoError(t, err)
	require.Len(t, vendor, 1)
	assert.Equal(t, b.ID, vendor[0].ID)

	sales, err := repo.List(ctx, ports.ListOptions{AssociatedUserID: "u-9"})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, a.ID, sales[0].ID)
}

func TestRepository_ReadsLegacyStringNotes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	saved := newStoredOrder(t, repo, time.Now().UTC())

	err := db.Exec(`UPDATE orders SET notes = '["call customer first"]'::jsonb WHERE id = ?`, saved.ID).Error
	require.NoError(t, err)

	fetched, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Notes, 1)
	note := fetched.Notes[0]
	assert.Equal(t, "call customer first", note.Content)
	assert.Equal(t, domain.RoleTeam, note.AuthorRole)
	assert.Equal(t, domain.RoleTeam, note.TargetRole)
	assert.NotEmpty(t, note.ID)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()

	missing, err := store.Get(ctx, "req-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "req-1", RequestHash: "abc", OrderID: "ORD-001"})
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	replayed, err := store.Save(ctx, ports.IdempotencyRecord{Key: "req-1", RequestHash: "abc", OrderID: "ORD-001"})
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", replayed.OrderID)

	existing, err := store.Save(ctx, ports.IdempotencyRecord{Key: "req-1", RequestHash: "def", OrderID: "ORD-002"})
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.NotNil(t, existing)
	assert.Equal(t, "abc", existing.RequestHash)
}
