package models

import "time"

type ParseTextRequest struct {
	Text string `json:"text" binding:"required" validate:"required,max=200000"`
}

// EditRowRequest accepts quantity as a number or a string.
type EditRowRequest struct {
	SKU      *string       `json:"sku" validate:"omitempty,max=64"`
	Quantity *FlexQuantity `json:"quantity"`
}

func (r EditRowRequest) Patch() RowPatch {
	var p RowPatch
	p.SKU = r.SKU
	if r.Quantity != nil {
		q := int(*r.Quantity)
		p.Quantity = &q
	}
	return p
}

// SessionResponse is a session plus the derived counts the client renders.
type SessionResponse struct {
	*Session
	Readiness   ReadinessCounts `json:"readiness"`
	Validating  bool            `json:"validating"`
	ParseReport *ParseReport    `json:"parse_report,omitempty"`
}

func NewSessionResponse(s *Session) *SessionResponse {
	return &SessionResponse{Session: s, Readiness: Readiness(s.Rows)}
}

// ParseReport describes lines Parse could not turn into rows.
type ParseReport struct {
	TotalLines   int           `json:"total_lines"`
	BlankLines   int           `json:"blank_lines"`
	ParsedRows   int           `json:"parsed_rows"`
	DroppedLines []DroppedLine `json:"dropped_lines"`
}

type DropReason string

const (
	DropTooFewFields   DropReason = "too_few_fields"
	DropEmptySKU       DropReason = "empty_sku"
	DropInvalidQty     DropReason = "invalid_quantity"
	DropNonPositiveQty DropReason = "non_positive_quantity"
	DropQtyTooLarge    DropReason = "quantity_too_large"
)

// DroppedLine is 1-based.
type DroppedLine struct {
	Line   int        `json:"line"`
	Text   string     `json:"text"`
	Reason DropReason `json:"reason"`
}

type ParseResponse struct {
	Rows   []BulkRow       `json:"rows"`
	Report ParseReport     `json:"report"`
	Counts ReadinessCounts `json:"readiness"`
}

type CommitResult struct {
	SessionID  string          `json:"session_id"`
	CartOwner  string          `json:"cart_owner"`
	ItemsAdded int             `json:"items_added"`
	Skipped    int             `json:"skipped"`
	Items      []CartInsertion `json:"items"`
}

// BulkOrderCommittedEvent is published to SNS after a successful commit.
type BulkOrderCommittedEvent struct {
	EventType  string    `json:"event_type"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id,omitempty"`
	CartOwner  string    `json:"cart_owner"`
	ItemsAdded int       `json:"items_added"`
	Skipped    int       `json:"skipped"`
	Timestamp  time.Time `json:"timestamp"`
}

const EventBulkOrderCommitted = "bulk_order.committed"
