package notify

import (
	"fmt"
	"strings"

	"minishop/internal/domain"
)

// Push is one text message to one chat user.
type Push struct {
	To   string
	Text string
}

const maxOwnerOrderText = 1200

// Messages renders the chat messages an event produces.
func Messages(e Event) []Push {
	o := e.Order
	switch e.Type {
	case EventOrderCreated:
		return []Push{{To: e.Shop.OwnerUserID, Text: clip(newOrderText(o), maxOwnerOrderText)}}
	case EventOrderAccepted:
		text := fmt.Sprintf("Your order has been confirmed.\nOrder ID: %s\nItems:%s\nTotal: %s\n\n%s",
			o.ID, itemsBlock(o), yen(o.Total), e.Shop.PurchaseMessage)
		return []Push{{To: o.BuyerUserID, Text: text}}
	case EventOrderCanceled:
		return []Push{{To: o.BuyerUserID, Text: "Your order was canceled by the shop."}}
	case EventContactRequested:
		return []Push{
			{To: o.BuyerUserID, Text: "The shop will contact you shortly. Please reply in this chat."},
			{To: e.Shop.OwnerUserID, Text: fmt.Sprintf(
				"You can now send one message to the buyer of order %s.", o.ID)},
		}
	case EventContactRelayed:
		return []Push{
			{To: o.BuyerUserID, Text: "You have a message from the shop.\n" + e.Message},
			{To: e.Shop.OwnerUserID, Text: fmt.Sprintf("Your message for order %s was sent.", o.ID)},
		}
	}
	return nil
}

func newOrderText(o domain.Order) string {
	var b strings.Builder
	b.WriteString("New order received\n")
	fmt.Fprintf(&b, "Order ID: %s\n", o.ID)
	fmt.Fprintf(&b, "Buyer ID: %s\n", o.BuyerDisplayID)
	fmt.Fprintf(&b, "Items:%s\n", itemsBlock(o))
	fmt.Fprintf(&b, "Total: %s\n", yen(o.Total))
	if o.QuestionResponse != nil && *o.QuestionResponse != "" {
		fmt.Fprintf(&b, "Answer:\n%s\n", *o.QuestionResponse)
	}
	return b.String()
}

func itemsBlock(o domain.Order) string {
	if len(o.Items) == 0 {
		return " -"
	}
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("%s x %d (%s)", it.Name, it.Quantity, yen(it.UnitPrice)))
	}
	return "\n" + strings.Join(lines, "\n")
}

// yen formats whole yen with thousands separators.
func yen(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		s = "-" + s
	}
	return s + " yen"
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
