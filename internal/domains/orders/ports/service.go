package ports

import (
	"context"

	ordertypes "github.com/Apurer/orderflow/internal/domains/orders/application/types"
	"github.com/Apurer/orderflow/internal/domains/orders/domain"
)

// Service defines the order use cases exposed to adapters (inbound/driving port).
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, input ordertypes.ListOrdersInput) ([]*domain.Order, error)
	Transition(ctx context.Context, input ordertypes.TransitionInput) (*domain.Order, error)
	AddNote(ctx context.Context, input ordertypes.AddNoteInput) (*domain.Order, error)
	EditNote(ctx context.Context, input ordertypes.EditNoteInput) (*domain.Order, error)
	RemoveAttachment(ctx context.Context, input ordertypes.RemoveAttachmentInput) (*domain.Order, error)
	DownloadAttachment(ctx context.Context, input ordertypes.AttachmentIdentifier) (*ordertypes.AttachmentDownload, error)
	ImportOrders(ctx context.Context, candidates []ordertypes.ImportCandidate) (*ordertypes.ImportReport, error)
}
