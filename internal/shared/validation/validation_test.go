package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shipmentLine struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

type sample struct {
	Role     string         `json:"role" validate:"required,role"`
	Audience string         `json:"audience" validate:"audience"`
	Status   string         `json:"status" validate:"orderstatus"`
	Priority string         `json:"priority" validate:"priority"`
	Email    string         `json:"email" validate:"omitempty,email"`
	Lines    []shipmentLine `json:"lines" validate:"dive"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestConfigure_DomainTags(t *testing.T) {
	v := newValidator()
	require.NoError(t, v.Struct(sample{Role: "Team", Audience: "Vendor", Status: "AtVendor", Priority: "High"}))
	require.NoError(t, v.Struct(sample{Role: "Sales"}))

	err := v.Struct(sample{
		Role:     "Chef",
		Audience: "Sales",
		Status:   "Lost",
		Priority: "Urgent",
		Email:    "nope",
		Lines:    []shipmentLine{{Name: "", Quantity: -1}},
	})
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Contains(t, fields["role"], "must be one of")
	assert.Contains(t, fields["audience"], "Team, Digitizer, Vendor")
	assert.Equal(t, "must be a known order status", fields["status"])
	assert.Contains(t, fields["priority"], "High")
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "is required", fields["lines[0].name"])
	assert.Equal(t, "must be greater than or equal to 0", fields["lines[0].quantity"])
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	fields := FieldErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"_": "unexpected EOF"}, fields)
	assert.Empty(t, FieldErrors(nil))
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
