package supplier

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// AvailRS is the XML availability response document.
type AvailRS struct {
	XMLName xml.Name     `xml:"AvailRS"`
	Hotels  []AvailHotel `xml:"Hotels>Hotel"`
}

// AvailHotel is one hotel in an AvailRS document.
type AvailHotel struct {
	Code      string          `xml:"code,attr"`
	Name      string          `xml:"name,attr"`
	MealPlans []AvailMealPlan `xml:"MealPlans>MealPlan"`
}

// AvailMealPlan groups options under one board type code.
type AvailMealPlan struct {
	Code    string        `xml:"code,attr"`
	Options []AvailOption `xml:"Options>Option"`
}

// AvailOption is one bookable option.
type AvailOption struct {
	Type        string           `xml:"type,attr"`
	PaymentType string           `xml:"paymentType,attr"`
	Status      string           `xml:"status,attr"`
	Price       AvailPrice       `xml:"Price"`
	Rooms       []AvailRoom      `xml:"Rooms>Room"`
	Parameters  []AvailParameter `xml:"Parameters>Parameter"`
}

// AvailPrice carries amounts as strings, matching the wire format.
type AvailPrice struct {
	Currency            string `xml:"currency,attr"`
	Amount              string `xml:"amount,attr"`
	Binding             string `xml:"binding,attr"`
	Commission          string `xml:"commission,attr"`
	MinimumSellingPrice string `xml:"minimumSellingPrice,attr"`
}

// AvailRoom is a room within an option.
type AvailRoom struct {
	ID                 string               `xml:"id,attr"`
	RoomCandidateRefID string               `xml:"roomCandidateRefId,attr"`
	Code               string               `xml:"code,attr"`
	Description        string               `xml:"description,attr"`
	NumberOfUnits      string               `xml:"numberOfUnits,attr"`
	NonRefundable      string               `xml:"nonRefundable,attr"`
	Price              AvailPrice           `xml:"Price"`
	CancelPenalties    AvailCancelPenalties `xml:"CancelPenalties"`
}

// AvailCancelPenalties wraps the penalties of a room.
type AvailCancelPenalties struct {
	NonRefundable string               `xml:"nonRefundable,attr"`
	Penalties     []AvailCancelPenalty `xml:"CancelPenalty"`
}

// AvailCancelPenalty is one cancellation penalty.
type AvailCancelPenalty struct {
	HoursBefore string       `xml:"HoursBefore"`
	Penalty     AvailPenalty `xml:"Penalty"`
	Deadline    string       `xml:"Deadline"`
}

// AvailPenalty is the penalty amount with its type and currency.
type AvailPenalty struct {
	Type     string `xml:"type,attr"`
	Currency string `xml:"currency,attr"`
	Value    string `xml:",chardata"`
}

// AvailParameter is an opaque key/value attached to an option.
type AvailParameter struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// ParseResponse decodes the supplier's JSON availability payload.
func ParseResponse(data []byte) (*SupplierResponse, error) {
	var resp SupplierResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("supplier: parse JSON response: %w", err)
	}
	return &resp, nil
}

// ToAvailRS converts a supplier JSON response into the AvailRS document
// shape. Rooms are grouped into meal plans by board type, preserving
// first-appearance order; the option-level price is the first grouped
// rate's price.
func ToAvailRS(resp *SupplierResponse) *AvailRS {
	rs := &AvailRS{}

	for _, hotel := range resp.Hotels {
		type roomRate struct {
			room *SupplierRoom
			rate *SupplierRate
		}

		var boardOrder []string
		byBoard := make(map[string][]roomRate)
		for i := range hotel.Rooms {
			room := &hotel.Rooms[i]
			for j := range room.Rates {
				rate := &room.Rates[j]
				if _, seen := byBoard[rate.BoardType]; !seen {
					boardOrder = append(boardOrder, rate.BoardType)
				}
				byBoard[rate.BoardType] = append(byBoard[rate.BoardType], roomRate{room, rate})
			}
		}

		availHotel := AvailHotel{
			Code: hotel.HotelID,
			Name: hotel.Name,
		}

		for _, board := range boardOrder {
			pairs := byBoard[board]

			opt := AvailOption{
				Type:        "Hotel",
				PaymentType: "MerchantPay",
				Status:      "OK",
				Price:       availPrice(resp.Currency, pairs[0].rate.Price),
				Parameters: []AvailParameter{{
					Key:   "search_token",
					Value: fmt.Sprintf("%s|||||%s", hotel.HotelID, resp.SearchID),
				}},
			}

			for _, p := range pairs {
				penalties := make([]AvailCancelPenalty, 0, len(p.rate.CancellationPolicies))
				for _, cp := range p.rate.CancellationPolicies {
					penalties = append(penalties, AvailCancelPenalty{
						HoursBefore: "N/A",
						Penalty: AvailPenalty{
							Type:     "Importe",
							Currency: resp.Currency,
							Value:    formatAmount(cp.Amount),
						},
						Deadline: cp.FromDate,
					})
				}

				opt.Rooms = append(opt.Rooms, AvailRoom{
					ID:                 fmt.Sprintf("1#%s", p.room.RoomID),
					RoomCandidateRefID: "1",
					Code:               p.room.RoomID,
					Description:        p.room.Name,
					NumberOfUnits:      "1",
					NonRefundable:      "false",
					Price:              availPrice(resp.Currency, p.rate.Price),
					CancelPenalties: AvailCancelPenalties{
						NonRefundable: "false",
						Penalties:     penalties,
					},
				})
			}

			availHotel.MealPlans = append(availHotel.MealPlans, AvailMealPlan{
				Code:    board,
				Options: []AvailOption{opt},
			})
		}

		rs.Hotels = append(rs.Hotels, availHotel)
	}

	return rs
}

// ConvertJSONToXML converts a raw supplier JSON payload into an AvailRS
// XML document.
func ConvertJSONToXML(data []byte) ([]byte, error) {
	resp, err := ParseResponse(data)
	if err != nil {
		return nil, err
	}
	out, err := xml.Marshal(ToAvailRS(resp))
	if err != nil {
		return nil, fmt.Errorf("supplier: encode AvailRS: %w", err)
	}
	return out, nil
}

// ProcessXML decodes an AvailRS document and flattens it into hotel
// options.
func ProcessXML(data []byte) (*ProcessedResponse, error) {
	var rs AvailRS
	if err := xml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("supplier: parse AvailRS: %w", err)
	}
	return Flatten(&rs), nil
}

// Flatten expands an AvailRS document into one HotelOption per
// hotel/meal-plan/option/room combination.
func Flatten(rs *AvailRS) *ProcessedResponse {
	resp := &ProcessedResponse{}

	for _, hotel := range rs.Hotels {
		for _, plan := range hotel.MealPlans {
			for _, opt := range plan.Options {
				amount, _ := strconv.ParseFloat(opt.Price.Amount, 64)
				token := ""
				for _, p := range opt.Parameters {
					if p.Key == "search_token" {
						token = p.Value
						break
					}
				}

				for _, room := range opt.Rooms {
					policies := make([]CancellationPolicy, 0, len(room.CancelPenalties.Penalties))
					for _, pen := range room.CancelPenalties.Penalties {
						penaltyAmount, _ := strconv.ParseFloat(pen.Penalty.Value, 64)
						hoursBefore, _ := strconv.Atoi(pen.HoursBefore)
						policies = append(policies, CancellationPolicy{
							Deadline:      pen.Deadline,
							PenaltyAmount: penaltyAmount,
							Currency:      pen.Penalty.Currency,
							HoursBefore:   hoursBefore,
							PenaltyType:   pen.Penalty.Type,
						})
					}

					resp.Hotels = append(resp.Hotels, HotelOption{
						HotelID:              hotel.Code,
						HotelName:            hotel.Name,
						RoomType:             room.Code,
						RoomDescription:      room.Description,
						BoardType:            plan.Code,
						Price:                Price{Amount: amount, Currency: opt.Price.Currency},
						CancellationPolicies: policies,
						PaymentType:          opt.PaymentType,
						IsRefundable:         !strings.EqualFold(room.NonRefundable, "true"),
						SearchToken:          token,
					})
				}
			}
		}
	}

	resp.TotalOptions = len(resp.Hotels)
	return resp
}

// FilterOptions returns the hotel options matching every set criterion.
func FilterOptions(resp *ProcessedResponse, criteria FilterCriteria) []HotelOption {
	var filtered []HotelOption

	for _, opt := range resp.Hotels {
		if criteria.MaxPrice > 0 && opt.Price.Amount > criteria.MaxPrice {
			continue
		}
		if len(criteria.BoardTypes) > 0 && !containsString(criteria.BoardTypes, opt.BoardType) {
			continue
		}
		if criteria.FreeCancellation && !opt.IsRefundable {
			continue
		}
		if len(criteria.HotelIDs) > 0 && !containsString(criteria.HotelIDs, opt.HotelID) {
			continue
		}
		if criteria.RoomTypeContains != "" && !strings.Contains(opt.RoomType, criteria.RoomTypeContains) {
			continue
		}
		filtered = append(filtered, opt)
	}

	return filtered
}

// ExtractSearchParams pulls currency, nationality, and the stay window
// out of an AvailRQ search request, wherever the elements appear in the
// document.
func ExtractSearchParams(data []byte) (SearchParams, error) {
	var params SearchParams

	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return SearchParams{}, fmt.Errorf("supplier: parse AvailRQ: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		var target *string
		switch start.Name.Local {
		case "Currency":
			target = &params.Currency
		case "Nationality":
			target = &params.Nationality
		case "StartDate":
			target = &params.StartDate
		case "EndDate":
			target = &params.EndDate
		default:
			continue
		}

		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return SearchParams{}, fmt.Errorf("supplier: parse AvailRQ: %w", err)
		}
		*target = strings.TrimSpace(text)
	}

	return params, nil
}

func availPrice(currency string, amount float64) AvailPrice {
	return AvailPrice{
		Currency:            currency,
		Amount:              formatAmount(amount),
		Binding:             "false",
		Commission:          "-1",
		MinimumSellingPrice: "-1",
	}
}

// formatAmount renders an amount without trailing zeros, matching the
// supplier's own formatting.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
