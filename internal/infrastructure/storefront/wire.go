package storefront

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bva/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// flexID accepts an identifier serialized as either a JSON string or a JSON
// number. The clones are not consistent about this.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexID(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*f = flexID(num.String())
	return nil
}

func (f flexID) String() string {
	return string(f)
}

// flexTime accepts RFC3339 strings and unix epoch numbers
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = flexTime(time.Time{})
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return err
		}
		*f = flexTime(t)
		return nil
	}
	epoch, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexTime(time.Unix(epoch, 0))
	return nil
}

func (f flexTime) Time() time.Time {
	return time.Time(f)
}

// wireProduct is the clone's product JSON shape
type wireProduct struct {
	ID          flexID          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Stock       int             `json:"stock"`
}

func (w wireProduct) toDomain() integration.RemoteProduct {
	return integration.RemoteProduct{
		ExternalID:  w.ID.String(),
		SKU:         w.SKU,
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Cost:        w.Cost,
		Category:    w.Category,
		ImageURL:    w.ImageURL,
		Stock:       w.Stock,
	}
}

// wireOrderItem is the clone's order line JSON shape
type wireOrderItem struct {
	ProductID flexID          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// wireOrder is the clone's order JSON shape
type wireOrder struct {
	ID            flexID          `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Items         []wireOrderItem `json:"items"`
	CustomerName  string          `json:"customerName"`
	CustomerPhone string          `json:"customerPhone"`
	CreatedAt     flexTime        `json:"createdAt"`
}

func (w wireOrder) toDomain() integration.RemoteOrder {
	items := make([]integration.RemoteOrderItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, integration.RemoteOrderItem{
			ExternalProductID: it.ProductID.String(),
			Name:              it.Name,
			Quantity:          it.Quantity,
			Price:             it.Price,
		})
	}
	return integration.RemoteOrder{
		ExternalID:      w.ID.String(),
		PlatformOrderID: w.OrderNumber,
		Status:          w.Status,
		Total:           w.Total,
		Items:           items,
		CustomerName:    w.CustomerName,
		CustomerPhone:   w.CustomerPhone,
		OrderedAt:       w.CreatedAt.Time(),
	}
}
