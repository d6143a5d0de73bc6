package marketplace

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellerdesk/backend/internal/domain/marketplace"
)

// apiTimeFormat is the timestamp layout the marketplace API uses in both
// request filters and response payloads
const apiTimeFormat = "2006-01-02 15:04:05"

// readRequest is the body of every paginated read call
type readRequest struct {
	CurrentPage   int    `json:"currentPage"`
	ItemsPerPage  int    `json:"itemsPerPage"`
	ModifiedAfter string `json:"modifiedAfter,omitempty"`
}

// apiMessage is one diagnostic message attached to an API response
type apiMessage struct {
	Text string `json:"text"`
}

// apiEnvelope is the outer shape of every API response
type apiEnvelope struct {
	IsError    bool         `json:"isError"`
	Messages   []apiMessage `json:"messages"`
	TotalCount int64        `json:"totalCount"`
}

// catalogEnvelope is the response of a products or offers read
type catalogEnvelope struct {
	apiEnvelope
	Results []catalogResult `json:"results"`
}

// orderEnvelope is the response of an orders read
type orderEnvelope struct {
	apiEnvelope
	Results []orderResult `json:"results"`
}

// errorText joins the response's diagnostic messages into one string
func (e *apiEnvelope) errorText() string {
	if len(e.Messages) == 0 {
		return "unspecified error"
	}
	texts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "; ")
}

// catalogResult is one product or offer row on the wire
type catalogResult struct {
	ID            int64  `json:"id"`
	PartNumberKey string `json:"part_number_key"`
	PartNumber    string `json:"part_number"`
	Name          string `json:"name"`
	SalePrice     string `json:"sale_price"`
	MinSalePrice  string `json:"min_sale_price"`
	MaxSalePrice  string `json:"max_sale_price"`
	Currency      string `json:"currency"`
	GeneralStock  int    `json:"general_stock"`
	Status        int    `json:"status"`
}

// orderResult is one order row on the wire
type orderResult struct {
	ID       int64                `json:"id"`
	Status   int                  `json:"status"`
	Date     string               `json:"date"`
	Currency string               `json:"currency"`
	Products []orderProductResult `json:"products"`
}

// orderProductResult is one order line on the wire
type orderProductResult struct {
	ProductID  int64  `json:"product_id"`
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity"`
	SalePrice  string `json:"sale_price"`
}

// ParseDecimal parses a decimal string, returning zero for empty or
// malformed values
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (r *catalogResult) toDomain() marketplace.CatalogRecord {
	return marketplace.CatalogRecord{
		ExternalID:  formatInt(r.ID),
		MatchingKey: r.PartNumberKey,
		SKU:         r.PartNumber,
		Name:        r.Name,
		Price:       ParseDecimal(r.SalePrice),
		MinPrice:    ParseDecimal(r.MinSalePrice),
		MaxPrice:    ParseDecimal(r.MaxSalePrice),
		Currency:    r.Currency,
		Stock:       r.GeneralStock,
		Active:      r.Status == 1,
	}
}

func (r *orderResult) toDomain() marketplace.OrderRecord {
	record := marketplace.OrderRecord{
		ExternalID: formatInt(r.ID),
		Status:     mapOrderStatus(r.Status),
		Currency:   r.Currency,
		Lines:      make([]marketplace.OrderLine, 0, len(r.Products)),
	}
	if t, err := time.Parse(apiTimeFormat, r.Date); err == nil {
		record.OrderDate = t
	}
	for _, p := range r.Products {
		record.Lines = append(record.Lines, marketplace.OrderLine{
			ProductSKU: p.PartNumber,
			ExternalID: formatInt(p.ProductID),
			Quantity:   decimal.NewFromInt(int64(p.Quantity)),
			UnitPrice:  ParseDecimal(p.SalePrice),
		})
	}
	return record
}

// mapOrderStatus maps the API's numeric order status to the local vocabulary
func mapOrderStatus(status int) string {
	switch status {
	case 0:
		return "cancelled"
	case 1:
		return "new"
	case 2:
		return "in_progress"
	case 3:
		return "prepared"
	case 4:
		return "finalized"
	case 5:
		return "returned"
	default:
		return "unknown"
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
