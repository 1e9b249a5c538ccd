package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RowStatus is the validation state of a bulk row.
type RowStatus string

const (
	RowStatusPending RowStatus = "pending"
	RowStatusValid   RowStatus = "valid"
	RowStatusWarning RowStatus = "warning"
	RowStatusError   RowStatus = "error"
)

func (s RowStatus) valid() bool {
	switch s {
	case RowStatusPending, RowStatusValid, RowStatusWarning, RowStatusError:
		return true
	}
	return false
}

// MsgValidationFailed is attached to rows the catalog did not return.
const MsgValidationFailed = "Validation failed"

// ValidationDetails is what a completed validation round-trip attaches to a
// row. It is nil while the row is pending.
type ValidationDetails struct {
	CatalogID       string
	Description     string
	UnitPrice       float64
	DiscountedPrice *float64
	InStock         bool
}

// RowPatch is a manual correction. Nil fields are left as they are.
type RowPatch struct {
	SKU      *string
	Quantity *int
}

// BulkRow is one (SKU, quantity) line item. Its state only changes through
// the transition methods; Edit always leaves the row pending with no
// validation details, and only valid or warning rows are committable.
type BulkRow struct {
	id           string
	sku          string
	quantity     int
	status       RowStatus
	details      *ValidationDetails
	errorMessage string
	revision     int
}

// NewBulkRow returns a pending row. sku is normalised and quantity clamped to 1.
func NewBulkRow(sku string, quantity int) BulkRow {
	return BulkRow{
		id:       uuid.NewString(),
		sku:      NormalizeSKU(sku),
		quantity: ClampQuantity(quantity),
		status:   RowStatusPending,
	}
}

func (r *BulkRow) ID() string           { return r.id }
func (r *BulkRow) SKU() string          { return r.sku }
func (r *BulkRow) Quantity() int        { return r.quantity }
func (r *BulkRow) Status() RowStatus    { return r.status }
func (r *BulkRow) ErrorMessage() string { return r.errorMessage }

// Revision increases on every edit. Validation results computed for an older
// revision must not be applied.
func (r *BulkRow) Revision() int { return r.revision }

// Details returns a copy of the validation details, if any.
func (r *BulkRow) Details() (ValidationDetails, bool) {
	if r.details == nil {
		return ValidationDetails{}, false
	}
	d := *r.details
	if d.DiscountedPrice != nil {
		p := *d.DiscountedPrice
		d.DiscountedPrice = &p
	}
	return d, true
}

func (r *BulkRow) IsCommittable() bool {
	return (r.status == RowStatusValid || r.status == RowStatusWarning) && r.details != nil
}

// EffectivePrice is the discounted price, or the unit price when the catalog
// returned no discount.
func (r *BulkRow) EffectivePrice() float64 {
	if r.details == nil {
		return 0
	}
	if r.details.DiscountedPrice != nil {
		return *r.details.DiscountedPrice
	}
	return r.details.UnitPrice
}

// Edit applies patch and resets the row to pending, whatever its prior state.
func (r *BulkRow) Edit(patch RowPatch) {
	if patch.SKU != nil {
		r.sku = NormalizeSKU(*patch.SKU)
	}
	if patch.Quantity != nil {
		r.quantity = ClampQuantity(*patch.Quantity)
	}
	r.revision++
	r.MarkPending()
}

// MarkPending clears every validation outcome.
func (r *BulkRow) MarkPending() {
	r.status = RowStatusPending
	r.details = nil
	r.errorMessage = ""
}

// MarkError records a failure for a row with no catalog match.
func (r *BulkRow) MarkError(message string) {
	r.status = RowStatusError
	r.details = nil
	r.errorMessage = message
}

// MarkRejected turns a validated row into an error row, keeping its catalog
// details, when a downstream step refuses it.
func (r *BulkRow) MarkRejected(message string) {
	r.status = RowStatusError
	r.errorMessage = message
}

// ApplyValidationResult maps a matched catalog verdict onto the row: exactly
// "ok" becomes valid, "warn" becomes warning, anything else becomes error.
// The catalog details are kept in every case; only valid and warning rows are
// committable.
func (r *BulkRow) ApplyValidationResult(res ValidationResult) {
	switch res.Status {
	case "ok":
		r.status = RowStatusValid
		r.errorMessage = res.Message
	case "warn":
		r.status = RowStatusWarning
		r.errorMessage = res.Message
	default:
		r.status = RowStatusError
		r.errorMessage = res.Message
		if r.errorMessage == "" {
			r.errorMessage = MsgValidationFailed
		}
	}

	var discounted *float64
	if res.DiscountedPrice != nil {
		p := *res.DiscountedPrice
		discounted = &p
	}
	r.details = &ValidationDetails{
		CatalogID:       res.CatalogID,
		Description:     res.Description,
		UnitPrice:       res.Price,
		DiscountedPrice: discounted,
		InStock:         res.InStock,
	}
}

type rowJSON struct {
	ID              string    `json:"id"`
	SKU             string    `json:"sku"`
	Quantity        int       `json:"quantity"`
	Status          RowStatus `json:"status"`
	Description     string    `json:"description,omitempty"`
	UnitPrice       *float64  `json:"unit_price,omitempty"`
	DiscountedPrice *float64  `json:"discounted_price,omitempty"`
	InStock         *bool     `json:"in_stock,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CatalogID       string    `json:"catalog_id,omitempty"`
	Revision        int       `json:"revision"`
}

func (r BulkRow) MarshalJSON() ([]byte, error) {
	out := rowJSON{
		ID:           r.id,
		SKU:          r.sku,
		Quantity:     r.quantity,
		Status:       r.status,
		ErrorMessage: r.errorMessage,
		Revision:     r.revision,
	}
	if d := r.details; d != nil {
		price, inStock := d.UnitPrice, d.InStock
		out.Description = d.Description
		out.UnitPrice = &price
		out.DiscountedPrice = d.DiscountedPrice
		out.InStock = &inStock
		out.CatalogID = d.CatalogID
	}
	return json.Marshal(out)
}

func (r *BulkRow) UnmarshalJSON(data []byte) error {
	var in rowJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Status.valid() {
		return fmt.Errorf("unknown row status %q", in.Status)
	}
	if in.ID == "" {
		return fmt.Errorf("row without id")
	}

	*r = BulkRow{
		id:           in.ID,
		sku:          in.SKU,
		quantity:     ClampQuantity(in.Quantity),
		status:       in.Status,
		errorMessage: in.ErrorMessage,
		revision:     in.Revision,
	}
	if in.Status != RowStatusPending && in.UnitPrice != nil {
		d := &ValidationDetails{
			CatalogID:       in.CatalogID,
			Description:     in.Description,
			DiscountedPrice: in.DiscountedPrice,
		}
		if in.UnitPrice != nil {
			d.UnitPrice = *in.UnitPrice
		}
		if in.InStock != nil {
			d.InStock = *in.InStock
		}
		r.details = d
	}
	return nil
}
