// Package supplier maps the hotel supplier's JSON wire format to the
// AvailRS XML format consumed downstream, and flattens either form into
// per-option records suitable for filtering and display.
package supplier

// SupplierResponse is the supplier's JSON availability payload.
type SupplierResponse struct {
	Hotels    []SupplierHotel `json:"hotels"`
	SearchID  string          `json:"search_id"`
	Currency  string          `json:"currency"`
	Timestamp string          `json:"timestamp"`
}

// SupplierHotel is one hotel in the supplier payload.
type SupplierHotel struct {
	HotelID         string         `json:"hotel_id"`
	Name            string         `json:"name"`
	Category        int            `json:"category"`
	Rooms           []SupplierRoom `json:"rooms"`
	DestinationCode string         `json:"destination_code"`
}

// SupplierRoom is a bookable room with its rates.
type SupplierRoom struct {
	RoomID   string         `json:"room_id"`
	Name     string         `json:"name"`
	Rates    []SupplierRate `json:"rates"`
	Capacity RoomCapacity   `json:"capacity"`
}

// RoomCapacity is the occupancy a room supports.
type RoomCapacity struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

// SupplierRate is one priced rate for a room.
type SupplierRate struct {
	RateID               string                       `json:"rate_id"`
	BoardType            string                       `json:"board_type"`
	Price                float64                      `json:"price"`
	CancellationPolicies []SupplierCancellationPolicy `json:"cancellation_policies"`
	BookingCode          string                       `json:"booking_code"`
}

// SupplierCancellationPolicy is a penalty that applies from a date.
type SupplierCancellationPolicy struct {
	FromDate string  `json:"from_date"`
	Amount   float64 `json:"amount"`
}

// ProcessedResponse is the flattened view of an availability response:
// one HotelOption per hotel/meal-plan/room combination.
type ProcessedResponse struct {
	SearchID     string
	TotalOptions int
	Hotels       []HotelOption
	Currency     string
	Nationality  string
	CheckIn      string
	CheckOut     string
}

// HotelOption is one bookable combination.
type HotelOption struct {
	HotelID              string
	HotelName            string
	RoomType             string
	RoomDescription      string
	BoardType            string
	Price                Price
	CancellationPolicies []CancellationPolicy
	PaymentType          string
	IsRefundable         bool
	SearchToken          string
}

// Price is an amount in a currency.
type Price struct {
	Amount   float64
	Currency string
}

// CancellationPolicy is a flattened cancellation penalty.
type CancellationPolicy struct {
	Deadline      string // ISO date format
	PenaltyAmount float64
	Currency      string
	HoursBefore   int
	PenaltyType   string // "Importe" or "Porcentaje"
}

// FilterCriteria selects hotel options. Nil or zero fields match
// everything.
type FilterCriteria struct {
	MaxPrice         float64 // 0 means no limit
	BoardTypes       []string
	FreeCancellation bool
	HotelIDs         []string
	RoomTypeContains string
}

// SearchParams are the fields extracted from an AvailRQ search request.
type SearchParams struct {
	Currency    string
	Nationality string
	StartDate   string
	EndDate     string
}
