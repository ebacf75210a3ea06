// Package mobile turns the flat payload of the handheld intake page into a
// receipt.
package mobile

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"coldstore/internal/core/apperror"
)

// Item is one scanned line.
type Item struct {
	ItemCode  string `json:"item_code" validate:"required"`
	ItemGroup string `json:"item_group"`
	Batch     string `json:"batch" validate:"required"`
	Qty       int64  `json:"qty"`
}

// Payload is the mobile receipt submission.
type Payload struct {
	Customer    string `json:"customer" validate:"required"`
	Warehouse   string `json:"warehouse" validate:"required"`
	VehicleNo   string `json:"vehicle_no" validate:"max=32"`
	DriverName  string `json:"driver_name" validate:"max=140"`
	DriverPhone string `json:"driver_phone" validate:"omitempty,max=20"`

	// Date defaults to today (YYYY-MM-DD).
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`

	Items []Item `json:"items"`

	// Submit posts the receipt right away instead of leaving a draft.
	Submit bool `json:"submit"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the header, then every item in order. The first bad item is
// reported by its 1-indexed row.
func (p *Payload) Validate() error {
	if err := validate.Struct(p); err != nil {
		return toAppError(err, 0)
	}

	if len(p.Items) == 0 {
		return apperror.NewValidation("At least one item line is required").
			WithDetail("field", "items")
	}

	for i := range p.Items {
		row := i + 1
		if err := validate.Struct(&p.Items[i]); err != nil {
			return toAppError(err, row)
		}
		if p.Items[i].Qty <= 0 {
			return apperror.NewRowValidation(row, "Number of Bags must be greater than 0").
				WithDetail("quantity", p.Items[i].Qty)
		}
	}
	return nil
}

// ReceiptDate returns the payload date or today.
func (p *Payload) ReceiptDate(now time.Time) (time.Time, error) {
	if p.Date == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, p.Date)
}

func toAppError(err error, row int) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return apperror.NewValidation("invalid payload").WithCause(err)
	}

	fe := verrs[0]
	msg := fieldMessage(fe)
	if row > 0 {
		return apperror.NewRowValidation(row, msg).WithDetail("field", fe.Field())
	}
	return apperror.NewValidation(msg).WithDetail("field", fe.Field())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in format YYYY-MM-DD", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
