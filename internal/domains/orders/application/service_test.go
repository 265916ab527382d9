package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ordermemory "github.com/Apurer/orderflow/internal/domains/orders/adapters/memory"
	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Upload(ctx context.Context, data []byte, filename string) (ports.StoredBlob, error) {
	args := m.Called(ctx, data, filename)
	return args.Get(0).(ports.StoredBlob), args.Error(1)
}

func (m *mockBlobStore) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBlobStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type staticDirectory map[string]string

func (d staticDirectory) DisplayName(_ context.Context, id string) (string, error) {
	if name, ok := d[id]; ok {
		return name, nil
	}
	return "", errors.New("unknown user")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, events ...domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range events {
		p.events = append(p.events, e.EventName())
	}
	return nil
}

var (
	sales     = domain.User{ID: "u-sales", Name: "Sam", Email: "sam@example.com", Role: domain.RoleSales}
	team      = domain.User{ID: "u-team", Name: "Tess", Email: "tess@example.com", Role: domain.RoleTeam}
	digitizer = domain.User{ID: "u-dig", Name: "Dina", Email: "dina@example.com", Role: domain.RoleDigitizer}
	vendor    = domain.User{ID: "u-ven", Name: "Vic", Email: "vic@example.com", Role: domain.RoleVendor}
)

func ptr[T any](v T) *T { return &v }

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *ordermemory.Repository) {
	t.Helper()
	repo := ordermemory.NewRepository()
	base := []Option{
		WithIDGenerator(sequentialIDs()),
		WithDirectory(staticDirectory{"X": "Xena", "v-1": "Acme Prints"}),
	}
	return NewService(repo, append(base, opts...)...), repo
}

func createOrder(t *testing.T, svc *Service, description string) *domain.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{
		Actor:              sales,
		Customer:           domain.Customer{Name: "Ada", Email: "ada@example.com"},
		ProductDescription: description,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrder_AssignsSequentialIDs(t *testing.T) {
	svc, _ := newTestService(t)

	first := createOrder(t, svc, "2 x Mug")
	second := createOrder(t, svc, "1 x Hat")

	require.Equal(t, "ORD-001", first.ID)
	require.Equal(t, "ORD-002", second.ID)
	require.Equal(t, domain.StatusAtTeam, first.Status)
	require.Equal(t, []domain.LineItem{{Name: "Mug", Quantity: 2}}, first.LineItems)
	require.True(t, first.IsAssociated(sales.ID))
	require.Equal(t, int64(1), first.Version)
}

func TestCreateOrder_ConcurrentIDsAreUnique(t *testing.T) {
	svc, _ := newTestService(t)

	const workers = 25
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{Actor: sales, Customer: domain.Customer{Name: "Ada"}})
			if assert.NoError(t, err) {
				ids <- order.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		require.False(t, seen[id], id)
		seen[id] = true
	}
	require.Len(t, seen, workers)
}

func TestTransition_EndToEndWorkflow(t *testing.T) {
	blobs := &mockBlobStore{}
	blobs.On("Upload", mock.Anything, []byte("brief"), "brief.pdf").
		Return(ports.StoredBlob{Key: "k1", URL: "https://blob/brief.pdf"}, nil).Once()
	blobs.On("Upload", mock.Anything, []byte("design"), "design.png").
		Return(ports.StoredBlob{Key: "k2", URL: "https://blob/design.png"}, nil).Once()
	publisher := &recordingPublisher{}
	svc, _ := newTestService(t, WithBlobStore(blobs), WithEventPublisher(publisher))
	ctx := context.Background()
	order := createOrder(t, svc, "")

	// Team sends to digitizer X with high priority and one attachment.
	order, err := svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID:     order.ID,
		Actor:       team,
		Target:      domain.StatusAtDigitizer,
		DigitizerID: ptr("X"),
		Priority:    ptr(domain.PriorityHigh),
		Note:        "please rush",
		Files:       []ordertypes.FileUpload{{Name: "brief.pdf", Data: []byte("brief")}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusAtDigitizer, order.Status)
	require.Equal(t, "X", order.DigitizerID)
	require.Equal(t, domain.SubStatusPending, order.DigitizerStatus)
	require.Equal(t, domain.PriorityHigh, order.Priority)
	require.Len(t, order.Attachments, 1)
	last := order.Notes[len(order.Notes)-1]
	require.Equal(t, domain.RoleDigitizer, last.TargetRole)
	require.Equal(t, "Assigned to Xena\nplease rush", last.Content)

	// Digitizer uploads the design and requests review.
	order, err = svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID: order.ID,
		Actor:   digitizer,
		Target:  domain.StatusTeamReview,
		Note:    "Design completed: first draft",
		Files:   []ordertypes.FileUpload{{Name: "design.png", Data: []byte("design")}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusTeamReview, order.Status)
	require.Len(t, order.Attachments, 2)
	require.Equal(t, domain.RoleDigitizer, order.Attachments[1].UploadedBy)
	require.True(t, order.IsAssociated(digitizer.ID))

	// Team rejects back to the digitizer.
	order, err = svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID:      order.ID,
		Actor:        team,
		Target:       domain.StatusAtDigitizer,
		Rejection:    true,
		Note:         "Team rejected: fix colors",
		NoteAudience: domain.RoleDigitizer,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusAtDigitizer, order.Status)
	require.Equal(t, "Team rejected: fix colors", order.Notes[len(order.Notes)-1].Content)

	blobs.AssertExpectations(t)
	require.Contains(t, publisher.events, "orders.order.status_changed")
}

func TestTransition_RejectionNoteWithoutFlagIsNotARejection(t *testing.T) {
	svc, repo := newTestService(t)
	order := createOrder(t, svc, "")
	order.Status = domain.StatusTeamReview
	_, err := repo.Update(context.Background(), order)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID: order.ID,
		Actor:   team,
		Target:  domain.StatusAtDigitizer,
		Note:    "Team rejected: fix colors",
	})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestTransition_PartialShipments(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, "")
	order.Status = domain.StatusAtVendor
	order.LineItems = []domain.LineItem{{Name: "Mug", Quantity: 10}}
	order, err := repo.Update(ctx, order)
	require.NoError(t, err)

	order, err = svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID:  order.ID,
		Actor:    vendor,
		Target:   domain.StatusPartiallyShipped,
		Shipment: []domain.ShipmentEntry{{Name: "Mug", Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyShipped, order.Status)
	require.Equal(t, 4, order.LineItems[0].ShippedQuantity)

	order, err = svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID:  order.ID,
		Actor:    vendor,
		Target:   domain.StatusPartiallyShipped,
		Shipment: []domain.ShipmentEntry{{Name: "Mug", Quantity: 6}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOutForDelivery, order.Status)
	require.Equal(t, 10, order.LineItems[0].ShippedQuantity)
	require.Equal(t, "Order fully shipped.", order.Notes[len(order.Notes)-1].Content)

	_, err = svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID:  order.ID,
		Actor:    vendor,
		Target:   domain.StatusPartiallyShipped,
		Shipment: []domain.ShipmentEntry{{Name: "Mug", Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, err, domain.ErrOvershipment)
}

func TestTransition_ConcurrentSendsToDigitizer(t *testing.T) {
	svc, repo := newTestService(t)
	order := createOrder(t, svc, "")
	version := order.Version

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, digitizerID := range []string{"d-1", "d-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
				OrderID:         order.ID,
				ExpectedVersion: ptr(version),
				Actor:           team,
				Target:          domain.StatusAtDigitizer,
				DigitizerID:     ptr(id),
			})
			results <- err
		}(digitizerID)
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
		conflicted++
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, conflicted)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, version+1, stored.Version)
	require.Len(t, stored.Notes, 1)
}

func TestTransition_IllegalPairsLeaveStoreUnchanged(t *testing.T) {
	statuses := []domain.Status{
		domain.StatusAtTeam, domain.StatusAtDigitizer, domain.StatusTeamReview,
		domain.StatusAtVendor, domain.StatusPartiallyShipped, domain.StatusOutForDelivery,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if from == to || domain.CanTransition(from, to, false) {
				continue
			}
			svc, repo := newTestService(t)
			order := createOrder(t, svc, "")
			order.Status = from
			before, err := repo.Update(context.Background(), order)
			require.NoError(t, err)

			_, err = svc.Transition(context.Background(), ordertypes.TransitionInput{
				OrderID: order.ID,
				Actor:   team,
				Target:  to,
				Note:    "attempt",
			})
			require.ErrorIs(t, err, ErrConflict, "%s->%s", from, to)

			after, err := repo.GetByID(context.Background(), order.ID)
			require.NoError(t, err)
			require.Equal(t, before, after)
		}
	}
}

func TestTransition_NoOpIsConflict(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, "")

	_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID: order.ID,
		Actor:   team,
		Target:  domain.StatusAtTeam,
	})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorContains(t, err, "order already in this state")
}

func TestTransition_UploadFailureAbortsEverything(t *testing.T) {
	blobs := &mockBlobStore{}
	blobs.On("Upload", mock.Anything, []byte("a"), "a.png").
		Return(ports.StoredBlob{URL: "https://blob/a.png"}, nil).Once()
	blobs.On("Upload", mock.Anything, []byte("b"), "b.png").
		Return(ports.StoredBlob{}, errors.New("quota exceeded")).Once()
	blobs.On("Delete", mock.Anything, "https://blob/a.png").Return(nil).Once()
	svc, repo := newTestService(t, WithBlobStore(blobs))
	order := createOrder(t, svc, "")

	_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID:     order.ID,
		Actor:       team,
		Target:      domain.StatusAtDigitizer,
		DigitizerID: ptr("X"),
		Files: []ordertypes.FileUpload{
			{Name: "a.png", Data: []byte("a")},
			{Name: "b.png", Data: []byte("b")},
		},
	})
	require.ErrorIs(t, err, ErrUpload)
	require.ErrorContains(t, err, "quota exceeded")

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order, stored)
	blobs.AssertExpectations(t)
}

func TestTransition_UploadTimeout(t *testing.T) {
	blobs := &mockBlobStore{}
	blobs.On("Upload", mock.Anything, mock.Anything, "slow.png").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(ports.StoredBlob{}, context.DeadlineExceeded).Once()
	svc, _ := newTestService(t, WithBlobStore(blobs), WithUploadTimeout(10*time.Millisecond))
	order := createOrder(t, svc, "")

	_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID: order.ID,
		Actor:   team,
		Target:  domain.StatusAtTeam,
		Files:   []ordertypes.FileUpload{{Name: "slow.png", Data: []byte("x")}},
	})
	require.ErrorIs(t, err, ErrUpload)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransition_StaleExpectedVersion(t *testing.T) {
	svc, _ := newTestService(t)
	order := createOrder(t, svc, "")

	_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID:         order.ID,
		ExpectedVersion: ptr(order.Version + 5),
		Actor:           team,
		Target:          domain.StatusAtDigitizer,
	})
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ErrStaleVersion)
}

func TestTransition_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Transition(context.Background(), ordertypes.TransitionInput{
		OrderID: "ORD-404",
		Actor:   team,
		Target:  domain.StatusAtDigitizer,
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNotes_AddAndEdit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	order := createOrder(t, svc, "")

	order, err := svc.AddNote(ctx, ordertypes.AddNoteInput{OrderID: order.ID, Actor: digitizer, Content: "need hi-res logo", Audience: domain.RoleTeam})
	require.NoError(t, err)
	noteID := order.Notes[0].ID
	require.True(t, order.IsAssociated(digitizer.ID))

	_, err = svc.AddNote(ctx, ordertypes.AddNoteInput{OrderID: order.ID, Actor: digitizer, Content: ""})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.EditNote(ctx, ordertypes.EditNoteInput{OrderID: order.ID, Actor: vendor, NoteID: noteID, Content: "hijack"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.EditNote(ctx, ordertypes.EditNoteInput{OrderID: order.ID, Actor: digitizer, NoteID: "nope", Content: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	order, err = svc.EditNote(ctx, ordertypes.EditNoteInput{OrderID: order.ID, Actor: digitizer, NoteID: noteID, Content: "need vector logo"})
	require.NoError(t, err)
	require.True(t, order.Notes[0].IsEdited)
	require.Equal(t, "need vector logo", order.Notes[0].Content)
}

func TestAttachments_RemoveAndDownload(t *testing.T) {
	blobs := &mockBlobStore{}
	blobs.On("Upload", mock.Anything, []byte("proof"), "proof.pdf").
		Return(ports.StoredBlob{URL: "https://blob/proof.pdf"}, nil).Once()
	blobs.On("Download", mock.Anything, "https://blob/proof.pdf").
		Return(io.NopCloser(bytes.NewBufferString("proof")), nil).Once()
	blobs.On("Delete", mock.Anything, "https://blob/proof.pdf").Return(nil).Once()
	svc, _ := newTestService(t, WithBlobStore(blobs))
	ctx := context.Background()
	order := createOrder(t, svc, "")

	order, err := svc.Transition(ctx, ordertypes.TransitionInput{
		OrderID: order.ID,
		Actor:   team,
		Target:  domain.StatusAtTeam,
		Files:   []ordertypes.FileUpload{{Name: "proof.pdf", Data: []byte("proof")}},
	})
	require.NoError(t, err)
	attachmentID := order.Attachments[0].ID

	download, err := svc.DownloadAttachment(ctx, ordertypes.AttachmentIdentifier{OrderID: order.ID, AttachmentID: attachmentID})
	require.NoError(t, err)
	body, err := io.ReadAll(download.Body)
	require.NoError(t, err)
	require.NoError(t, download.Body.Close())
	require.Equal(t, "proof", string(body))

	_, err = svc.RemoveAttachment(ctx, ordertypes.RemoveAttachmentInput{
		AttachmentIdentifier: ordertypes.AttachmentIdentifier{OrderID: order.ID, AttachmentID: attachmentID},
		Actor:                vendor,
	})
	require.ErrorIs(t, err, ErrForbidden)

	order, err = svc.RemoveAttachment(ctx, ordertypes.RemoveAttachmentInput{
		AttachmentIdentifier: ordertypes.AttachmentIdentifier{OrderID: order.ID, AttachmentID: attachmentID},
		Actor:                team,
	})
	require.NoError(t, err)
	require.Empty(t, order.Attachments)
	blobs.AssertExpectations(t)
}

func TestImportOrders_DeduplicatesBySource(t *testing.T) {
	svc, _ := newTestService(t)
	candidate := ordertypes.ImportCandidate{
		Source:        "shopify",
		SourceOrderID: "5001",
		Customer:      domain.Customer{Name: "Ada"},
		LineItems:     []domain.LineItem{{Name: "Mug", Quantity: 2}},
		Attachments:   []ordertypes.AttachmentLink{{Name: "logo.png", URL: "https://cdn.example.com/logo.png"}},
	}
	invalid := ordertypes.ImportCandidate{SourceOrderID: "5002"}

	report, err := svc.ImportOrders(context.Background(), []ordertypes.ImportCandidate{candidate, candidate, invalid})
	require.NoError(t, err)
	require.Equal(t, []string{"ORD-001"}, report.Imported)
	require.Equal(t, []string{"5001"}, report.Skipped)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "5002", report.Failed[0].SourceOrderID)

	order, err := svc.GetOrder(context.Background(), "ORD-001")
	require.NoError(t, err)
	require.Equal(t, domain.StatusAtTeam, order.Status)
	require.True(t, order.Attachments[0].FromShopify)
	require.Equal(t, domain.RoleSales, order.Attachments[0].UploadedBy)
	require.Equal(t, "2 x Mug", order.ProductDescription)

	_, err = svc.RemoveAttachment(context.Background(), ordertypes.RemoveAttachmentInput{
		AttachmentIdentifier: ordertypes.AttachmentIdentifier{OrderID: order.ID, AttachmentID: order.Attachments[0].ID},
		Actor:                domain.User{ID: "admin", Name: "Ari", Role: domain.RoleAdmin},
	})
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorContains(t, err, "cannot delete attachments sourced externally")
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "orders:ORD-001")
	require.NoError(t, err)

	_, err = locker.Lock(context.Background(), "orders:ORD-001")
	require.ErrorIs(t, err, ports.ErrLockNotObtained)

	other, err := locker.Lock(context.Background(), "orders:ORD-002")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), "orders:ORD-001")
	require.NoError(t, err)
	again()
}

func TestCreateOrder_IdempotencyKeyReplaysFirstOrder(t *testing.T) {
	store := ordermemory.NewIdempotencyStore()
	svc, repo := newTestService(t, WithIdempotencyStore(store))
	input := ordertypes.CreateOrderInput{
		Actor:              sales,
		Customer:           domain.Customer{Name: "Ada"},
		ProductDescription: "2 x Mug",
		IdempotencyKey:     "req-1",
	}

	first, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	again, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	all, err := repo.List(context.Background(), ports.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	input.ProductDescription = "3 x Mug"
	_, err = svc.CreateOrder(context.Background(), input)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	input.IdempotencyKey = ""
	other, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestFingerprintCreateOrder(t *testing.T) {
	base := ordertypes.CreateOrderInput{
		Actor:              sales,
		Customer:           domain.Customer{Name: "Ada", Email: "Ada@Example.com"},
		ProductDescription: "2 x Mug",
		IdempotencyKey:     "a",
	}
	h1, err := FingerprintCreateOrder(base)
	require.NoError(t, err)

	sameButKey := base
	sameButKey.IdempotencyKey = "b"
	sameButKey.Customer.Email = " ada@example.com "
	h2, err := FingerprintCreateOrder(sameButKey)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	otherActor := base
	otherActor.Actor = team
	h3, err := FingerprintCreateOrder(otherActor)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
