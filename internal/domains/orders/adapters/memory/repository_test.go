package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

func insertOrder(t *testing.T, repo *Repository, created time.Time) *domain.Order {
	t.Helper()
	id, err := repo.NextID(context.Background())
	require.NoError(t, err)
	order, err := domain.NewOrder(id, domain.Customer{Name: "Ada"}, created)
	require.NoError(t, err)
	saved, err := repo.Insert(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestNextID_SequentialAndConcurrent(t *testing.T) {
	repo := NewRepository()
	first, err := repo.NextID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ORD-001", first)

	const workers = 50
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
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
}

func TestInsert_AdvancesSequencePastExistingIDs(t *testing.T) {
	repo := NewRepository()
	order, err := domain.NewOrder("ORD-041", domain.Customer{}, time.Now())
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), order)
	require.NoError(t, err)

	next, err := repo.NextID(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ORD-042", next)
}

func TestUpdate_VersionCheck(t *testing.T) {
	repo := NewRepository()
	saved := insertOrder(t, repo, time.Now())
	require.Equal(t, int64(1), saved.Version)

	first := saved.Clone()
	first.Priority = domain.PriorityHigh
	updated, err := repo.Update(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)

	stale := saved.Clone()
	stale.Priority = domain.PriorityLow
	_, err = repo.Update(context.Background(), stale)
	require.ErrorIs(t, err, ports.ErrVersionConflict)

	got, err := repo.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PriorityHigh, got.Priority)
}

func TestGetByID_ReturnsCopies(t *testing.T) {
	repo := NewRepository()
	saved := insertOrder(t, repo, time.Now())

	got, err := repo.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
	got.Status = domain.StatusOutForDelivery

	again, err := repo.GetByID(context.Background(), saved.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAtTeam, again.Status)

	_, err = repo.GetByID(context.Background(), "ORD-999")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestInsert_DuplicateSource(t *testing.T) {
	repo := NewRepository()
	for i, want := range []error{nil, ports.ErrDuplicateSource} {
		id, err := repo.NextID(context.Background())
		require.NoError(t, err)
		order, err := domain.NewOrder(id, domain.Customer{}, time.Now())
		require.NoError(t, err)
		order.External = &domain.ExternalReference{Source: "shopify", OrderID: "5001"}
		_, err = repo.Insert(context.Background(), order)
		if want == nil {
			require.NoError(t, err, i)
		} else {
			require.ErrorIs(t, err, want)
		}
	}
	found, err := repo.GetBySourceOrderID(context.Background(), "5001")
	require.NoError(t, err)
	require.Equal(t, "ORD-001", found.ID)
}

func TestList_SortAndFilter(t *testing.T) {
	repo := NewRepository()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := insertOrder(t, repo, base)
	b := insertOrder(t, repo, base.Add(time.Hour))

	withUser := b.Clone()
	withUser.VendorID = "v-1"
	_, err := repo.Update(context.Background(), withUser)
	require.NoError(t, err)

	all, err := repo.List(context.Background(), ports.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID}, []string{all[0].ID, all[1].ID})

	recent, err := repo.List(context.Background(), ports.ListOptions{SortByRecency: true})
	require.NoError(t, err)
	require.Equal(t, b.ID, recent[0].ID)

	mine, err := repo.List(context.Background(), ports.ListOptions{AssociatedUserID: "v-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, b.ID, mine[0].ID)
}
