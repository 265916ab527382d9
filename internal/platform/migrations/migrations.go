package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters never automigrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderSequenceRecord{},
		&orderIdempotencyRecord{},
		&userRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter. Child collections live in jsonb columns.
type orderRecord struct {
	ID                 string              `gorm:"primaryKey;column:id;size:32"`
	Seq                int64               `gorm:"column:seq;uniqueIndex"`
	Status             string              `gorm:"column:status;type:varchar(32);index"`
	DigitizerStatus    string              `gorm:"column:digitizer_status;type:varchar(32)"`
	VendorStatus       string              `gorm:"column:vendor_status;type:varchar(32)"`
	Priority           string              `gorm:"column:priority;type:varchar(16)"`
	ProductDescription string              `gorm:"column:product_description"`
	TextUnderDesign    string              `gorm:"column:text_under_design"`
	LineItems          []byte              `gorm:"column:line_items;type:jsonb"`
	Attachments        []byte              `gorm:"column:attachments;type:jsonb"`
	Notes              []byte              `gorm:"column:notes;type:jsonb"`
	AssociatedUsers    []byte              `gorm:"column:associated_users;type:jsonb"`
	AssociatedUserIDs  pq.StringArray      `gorm:"column:associated_user_ids;type:text[]"`
	DigitizerID        string              `gorm:"column:digitizer_id;index"`
	VendorID           string              `gorm:"column:vendor_id;index"`
	CustomerName       string              `gorm:"column:customer_name"`
	CustomerEmail      string              `gorm:"column:customer_email"`
	CustomerPhone      string              `gorm:"column:customer_phone"`
	ShippingAddress    []byte              `gorm:"column:shipping_address;type:jsonb"`
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

func (orderRecord) TableName() string { return "orders" }

type orderSequenceRecord struct {
	Name  string `gorm:"primaryKey;column:name;size:32"`
	Value int64  `gorm:"column:value;not null"`
}

func (orderSequenceRecord) TableName() string { return "order_sequences" }

type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	OrderID     string    `gorm:"column:order_id;size:32"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }

// User schema mirrors the users Postgres adapter.
type userRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
	Role      string    `gorm:"column:role;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }
