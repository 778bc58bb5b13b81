package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonwraymond/bookingkit/supplier"
)

// Transport performs one attempt of a supplier call. Implementations
// must be safe for concurrent use. Scheduling, rate limiting, retries,
// and circuit breaking happen above this interface.
type Transport interface {
	Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error)
}

// HTTPTransport talks JSON over HTTP to the supplier. Availability
// responses arrive in the supplier's JSON format and are reduced to
// per-hotel results.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPTransport creates a transport against the given endpoint. The
// http.Client carries no timeout of its own; attempts are bounded by
// the caller's context.
func NewHTTPTransport(baseURL, apiKey string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

type searchWireRequest struct {
	HotelIDs []string `json:"hotel_ids"`
	CheckIn  string   `json:"check_in"`
	CheckOut string   `json:"check_out"`
	Guests   int      `json:"guests"`
}

type bookingWireRequest struct {
	SearchID     string `json:"search_id"`
	HotelID      string `json:"hotel_id"`
	GuestName    string `json:"guest_name"`
	PaymentToken string `json:"payment_token"`
}

type bookingWireResponse struct {
	BookingID        string `json:"booking_id"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
}

type errorWireResponse struct {
	Message string `json:"message"`
}

// Search requests availability from the supplier.
func (t *HTTPTransport) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	wire := searchWireRequest{
		HotelIDs: req.HotelIDs,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		Guests:   req.Guests,
	}

	body, remaining, err := t.post(ctx, "search", "/availability/search", &req.Context, "", wire)
	if err != nil {
		return nil, err
	}

	supplierResp, err := supplier.ParseResponse(body)
	if err != nil {
		return nil, &ResponseError{StatusCode: http.StatusOK, Message: err.Error()}
	}

	return &SearchResponse{
		SearchID:           supplierResp.SearchID,
		Results:            resultsFromSupplier(req.HotelIDs, supplierResp),
		RateLimitRemaining: remaining,
	}, nil
}

// Book confirms a reservation with the supplier.
func (t *HTTPTransport) Book(ctx context.Context, req *BookingRequest) (*BookingResponse, error) {
	wire := bookingWireRequest{
		SearchID:     req.SearchID,
		HotelID:      req.HotelID,
		GuestName:    req.GuestName,
		PaymentToken: req.Payment.Token,
	}

	body, remaining, err := t.post(ctx, "book", "/bookings", &req.Context, req.IdempotencyKey, wire)
	if err != nil {
		return nil, err
	}

	var resp bookingWireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ResponseError{StatusCode: http.StatusOK, Message: fmt.Sprintf("decode booking response: %v", err)}
	}

	return &BookingResponse{
		BookingID:          resp.BookingID,
		Status:             resp.Status,
		ConfirmationCode:   resp.ConfirmationCode,
		RateLimitRemaining: remaining,
	}, nil
}

// post sends one JSON request and returns the response body and the
// supplier's remaining rate budget.
func (t *HTTPTransport) post(ctx context.Context, op, path string, reqCtx *RequestContext, idempotencyKey string, payload any) ([]byte, int, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("booking: encode %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, 0, fmt.Errorf("booking: build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", t.apiKey)
	if reqCtx.CorrelationID != "" {
		httpReq.Header.Set("X-Correlation-ID", reqCtx.CorrelationID)
	}
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, 0, &NetworkError{Op: op, Err: err}
	}

	remaining, _ := strconv.Atoi(httpResp.Header.Get("X-RateLimit-Remaining"))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, remaining, responseError(httpResp.StatusCode, body)
	}

	return body, remaining, nil
}

func responseError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var wire errorWireResponse
	if err := json.Unmarshal(body, &wire); err == nil && wire.Message != "" {
		msg = wire.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ResponseError{
		StatusCode: status,
		Message:    msg,
		Retryable:  retryableStatus(status),
	}
}

// retryableStatus reports whether a status code represents a transient
// supplier condition.
func retryableStatus(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout
}

// resultsFromSupplier reduces a supplier availability payload to one
// result per requested hotel: available when the supplier returned at
// least one rate, priced at the cheapest rate found.
func resultsFromSupplier(hotelIDs []string, resp *supplier.SupplierResponse) []SearchResult {
	type bestRate struct {
		price float64
		found bool
	}

	best := make(map[string]bestRate, len(resp.Hotels))
	for _, hotel := range resp.Hotels {
		entry := best[hotel.HotelID]
		for _, room := range hotel.Rooms {
			for _, rate := range room.Rates {
				if !entry.found || rate.Price < entry.price {
					entry = bestRate{price: rate.Price, found: true}
				}
			}
		}
		best[hotel.HotelID] = entry
	}

	results := make([]SearchResult, 0, len(hotelIDs))
	for _, id := range hotelIDs {
		entry := best[id]
		result := SearchResult{HotelID: id, Available: entry.found}
		if entry.found {
			result.Price = entry.price
			result.Currency = resp.Currency
		}
		results = append(results, result)
	}
	return results
}
