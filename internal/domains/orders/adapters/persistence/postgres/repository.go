package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/orderflow/internal/domains/orders/domain"
	"github.com/Apurer/orderflow/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

const orderSequenceName = "orders"

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OrderRecord maps the order aggregate to a relational table. Child collections
// are stored as JSON columns; associated user ids are duplicated into an array
// column so dashboards can filter on them.
type OrderRecord struct {
	ID                 string              `gorm:"primaryKey;column:id;size:32"`
	Seq                int64               `gorm:"column:seq;uniqueIndex"`
	Status             string              `gorm:"column:status;type:varchar(32);index"`
	DigitizerStatus    string              `gorm:"column:digitizer_status;type:varchar(32)"`
	VendorStatus       string              `gorm:"column:vendor_status;type:varchar(32)"`
	Priority           string              `gorm:"column:priority;type:varchar(16)"`
	ProductDescription string              `gorm:"column:product_description"`
	TextUnderDesign    string              `gorm:"column:text_under_design"`
	LineItems          []lineItemRecord    `gorm:"column:line_items;type:jsonb;serializer:json"`
	Attachments        []attachmentRecord  `gorm:"column:attachments;type:jsonb;serializer:json"`
	Notes              []storedNote        `gorm:"column:notes;type:jsonb;serializer:json"`
	AssociatedUsers    []userRecord        `gorm:"column:associated_users;type:jsonb;serializer:json"`
	AssociatedUserIDs  pq.StringArray      `gorm:"column:associated_user_ids;type:text[]"`
	DigitizerID        string              `gorm:"column:digitizer_id;index"`
	VendorID           string              `gorm:"column:vendor_id;index"`
	CustomerName       string              `gorm:"column:customer_name"`
	CustomerEmail      string              `gorm:"column:customer_email"`
	CustomerPhone      string              `gorm:"column:customer_phone"`
	ShippingAddress    addressRecord       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Source             string              `gorm:"column:source;type:varchar(32)"`
	SourceOrderID      *string             `gorm:"column:source_order_id;uniqueIndex"`
	SourceOrderName    string              `gorm:"column:source_order_name"`
	FinancialStatus    string              `gorm:"column:financial_status"`
	TotalPrice         decimal.NullDecimal `gorm:"column:total_price;type:numeric(14,2)"`
	Currency           string              `gorm:"column:currency;type:varchar(8)"`
	Version            int64               `gorm:"column:version;not null"`
	CreatedAt          time.Time           `gorm:"column:created_at;index"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;index"`
}

func (OrderRecord) TableName() string { return "orders" }

// NextID increments the order counter in a single statement. The counter is
// seeded from the highest stored sequence the first time it is used.
func (r *Repository) NextID(ctx context.Context) (string, error) {
	if err := r.ensureDB(); err != nil {
		return "", err
	}
	var seq int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO order_sequences (name, value)
			 SELECT ?, COALESCE(MAX(seq), 0) FROM orders
			 ON CONFLICT (name) DO NOTHING`, orderSequenceName).Error; err != nil {
			return err
		}
		return tx.Raw(
			`UPDATE order_sequences SET value = value + 1 WHERE name = ? RETURNING value`,
			orderSequenceName).Scan(&seq).Error
	})
	if err != nil {
		return "", err
	}
	return domain.FormatID(seq), nil
}

// Insert stores a new order at version 1.
func (r *Repository) Insert(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(order)
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && record.SourceOrderID != nil {
			if existing, lookupErr := r.GetBySourceOrderID(ctx, *record.SourceOrderID); lookupErr == nil && existing.ID != record.ID {
				return nil, ports.ErrDuplicateSource
			}
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// Update writes the order only if the stored version still equals order.Version.
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(order)
	record.Version = order.Version + 1
	result := r.db.WithContext(ctx).
		Model(&OrderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Select("*").
		Omit("id", "seq", "created_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s at version %d", ports.ErrVersionConflict, order.ID, order.Version)
	}
	return r.GetByID(ctx, order.ID)
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetBySourceOrderID fetches an imported order by its external reference.
func (r *Repository) GetBySourceOrderID(ctx context.Context, sourceOrderID string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record OrderRecord
	if err := r.db.WithContext(ctx).First(&record, "source_order_id = ?", sourceOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// List returns orders by id, or newest first when SortByRecency is set.
func (r *Repository) List(ctx context.Context, opts ports.ListOptions) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&OrderRecord{})
	if opts.AssociatedUserID != "" {
		query = query.Where("associated_user_ids @> ? OR digitizer_id = ? OR vendor_id = ?",
			pq.StringArray{opts.AssociatedUserID}, opts.AssociatedUserID, opts.AssociatedUserID)
	}
	if opts.SortByRecency {
		query = query.Order("created_at DESC").Order("seq DESC")
	} else {
		query = query.Order("seq ASC")
	}
	var records []OrderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}
