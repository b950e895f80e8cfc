package repos

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"minishop/internal/domain"
)

// Item list encodings stored in orders.items_json, selected by orders.items_version.
//
//	1: one flat object using the historical field names (productName, qty, priceTaxIncl, ...)
//	2: JSON array of canonical items
const (
	itemsVersionFlat    = 1
	itemsVersionList    = 2
	currentItemsVersion = itemsVersionList
)

func encodeItems(items []domain.OrderItem) (int, string, error) {
	if items == nil {
		items = []domain.OrderItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return 0, "", err
	}
	return currentItemsVersion, string(b), nil
}

func decodeItems(version int, raw string) ([]domain.OrderItem, error) {
	switch version {
	case itemsVersionList:
		var items []domain.OrderItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("decode items v%d: %w", version, err)
		}
		return items, nil
	case itemsVersionFlat:
		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode items v%d: %w", version, err)
		}
		if item, ok := flatItem(doc); ok {
			return []domain.OrderItem{item}, nil
		}
		return []domain.OrderItem{}, nil
	default:
		return nil, fmt.Errorf("unknown items version %d", version)
	}
}

// DecodeLegacyOrder normalizes an order document exported from the previous document
// store into the canonical Order. Historical aliases are resolved here and nowhere else.
func DecodeLegacyOrder(id string, doc map[string]any) (domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Order{}, domain.New(domain.KindInvalid, "order document without id")
	}
	shopID, _ := doc["shopId"].(string)
	if shopID == "" {
		return domain.Order{}, domain.New(domain.KindInvalid, fmt.Sprintf("order %s has no shopId", id))
	}

	var items []domain.OrderItem
	if raw, ok := doc["items"].([]any); ok {
		for i, it := range raw {
			items = append(items, listItem(it, i))
		}
	}
	if len(items) == 0 {
		if item, ok := flatItem(doc); ok {
			items = []domain.OrderItem{item}
		}
	}
	if items == nil {
		items = []domain.OrderItem{}
	}

	o := domain.Order{
		ID:             id,
		ShopID:         shopID,
		Items:          items,
		Status:         domain.OrderPending,
		Memo:           stringish(doc["memo"]),
		Closed:         truthy(doc["closed"]),
		ContactPending: truthy(doc["contactPending"]),
	}

	if total, ok := number(doc["total"]); ok && isJSONNumber(doc["total"]) {
		o.Total = total
	} else {
		o.Total = domain.ItemsTotal(items)
	}

	if s, ok := doc["status"].(string); ok && domain.OrderStatus(s).Valid() {
		o.Status = domain.OrderStatus(s)
	}

	o.BuyerUserID, _ = doc["buyerUserId"].(string)
	switch v, _ := doc["buyerDisplayId"].(string); {
	case v != "":
		o.BuyerDisplayID = v
	case o.BuyerUserID != "":
		o.BuyerDisplayID = domain.BuyerDisplayID(o.BuyerUserID)
	default:
		o.BuyerDisplayID = "unknown"
	}

	o.QuestionResponse = questionResponse(doc)

	if t := timestamp(doc["createdAt"]); t != nil {
		o.CreatedAt = *t
	}
	if t := timestamp(doc["updatedAt"]); t != nil {
		o.UpdatedAt = *t
	} else {
		o.UpdatedAt = o.CreatedAt
	}
	o.AcceptedAt = timestamp(doc["acceptedAt"])
	o.CanceledAt = timestamp(doc["canceledAt"])
	return o, nil
}

func listItem(raw any, index int) domain.OrderItem {
	m, ok := raw.(map[string]any)
	if !ok {
		return domain.OrderItem{Name: fmt.Sprintf("Item %d", index+1)}
	}
	item := domain.OrderItem{Name: fmt.Sprintf("Item %d", index+1)}
	item.ProductID, _ = m["productId"].(string)
	if name, ok := m["name"].(string); ok {
		item.Name = name
	}
	if q, ok := number(m["quantity"]); ok {
		item.Quantity = int(q)
	}
	if p, ok := number(m["unitPrice"]); ok {
		item.UnitPrice = p
	}
	return item
}

// flatItem reads the single-item layout where the line lives on the order itself.
func flatItem(doc map[string]any) (domain.OrderItem, bool) {
	productID, _ := doc["productId"].(string)

	name := "Item 1"
	for _, key := range []string{"productName", "product"} {
		if v, ok := doc[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				name = s
			}
			break
		}
	}

	qty := int64(1)
	if q, ok := number(doc["quantity"]); ok {
		qty = q
	} else if q, ok := number(doc["qty"]); ok {
		qty = q
	}

	var price int64
	if p, ok := number(doc["unitPrice"]); ok {
		price = p
	} else if p, ok := number(doc["priceTaxIncl"]); ok {
		price = p
	}

	_, hasQty := doc["quantity"]
	_, hasLegacyQty := doc["qty"]
	if productID == "" && price == 0 && !hasQty && !hasLegacyQty {
		return domain.OrderItem{}, false
	}
	return domain.OrderItem{ProductID: productID, Name: name, UnitPrice: price, Quantity: int(qty)}, true
}

func questionResponse(doc map[string]any) *string {
	for _, key := range []string{"questionResponse", "questionAnswer"} {
		if s, ok := doc[key].(string); ok {
			return &s
		}
	}
	for _, key := range []string{"questionResponse", "questionAnswer"} {
		if v := doc[key]; v != nil {
			s := fmt.Sprint(v)
			return &s
		}
	}
	return nil
}

func number(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func isJSONNumber(v any) bool {
	switch v.(type) {
	case float64, int, int64, json.Number:
		return true
	}
	return false
}

func stringish(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0 && !math.IsNaN(b)
	case int:
		return b != 0
	case int64:
		return b != 0
	}
	return true
}

// timestamp accepts exported timestamp objects ({_seconds,_nanoseconds} or
// {seconds,nanoseconds}), epoch milliseconds, and RFC3339 strings.
func timestamp(v any) *time.Time {
	var t time.Time
	switch x := v.(type) {
	case map[string]any:
		secs, ok := number(x["_seconds"])
		if !ok {
			if secs, ok = number(x["seconds"]); !ok {
				return nil
			}
		}
		nanos, ok := number(x["_nanoseconds"])
		if !ok {
			nanos, _ = number(x["nanoseconds"])
		}
		t = time.Unix(secs, 0).Add(time.Duration(nanos/int64(time.Millisecond)) * time.Millisecond)
	case float64, int, int64, json.Number:
		ms, _ := number(x)
		t = time.UnixMilli(ms)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil
		}
		t = parsed
	default:
		return nil
	}
	return &t
}
