// Package validation configures request binding rules shared by the HTTP handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// Register points gin's validator at json field names and adds the domain tags:
// "role", "audience", "orderstatus" and "priority".
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		Configure(v)
	})
}

// Configure installs the tag name function and domain tags on v.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("role", oneOf("Admin", "Sales", "Team", "Digitizer", "Vendor", "Delivery"))
	_ = v.RegisterValidation("audience", oneOf("Team", "Digitizer", "Vendor"))
	_ = v.RegisterValidation("orderstatus", oneOf("AtTeam", "AtDigitizer", "TeamReview", "AtVendor", "PartiallyShipped", "OutForDelivery"))
	_ = v.RegisterValidation("priority", oneOf("High", "Medium", "Low"))
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		for _, allowed := range values {
			if value == allowed {
				return true
			}
		}
		return false
	}
}

// FieldErrors converts a binding error into field name -> message. Errors that
// are not validation failures (malformed JSON, type mismatches) land under "_".
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		if err != nil {
			out["_"] = err.Error()
		}
		return out
	}
	for _, fe := range ve {
		out[fieldPath(fe)] = message(fe)
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "role":
		return "must be one of Admin, Sales, Team, Digitizer, Vendor, Delivery"
	case "audience":
		return "must be one of Team, Digitizer, Vendor"
	case "orderstatus":
		return "must be a known order status"
	case "priority":
		return "must be one of High, Medium, Low"
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}
