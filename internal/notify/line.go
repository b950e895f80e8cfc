package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LineNotifier pushes event texts through the LINE Messaging API.
type LineNotifier struct {
	pushURL string
	token   string
	timeout time.Duration
}

func NewLineNotifier(pushURL, accessToken string) *LineNotifier {
	return &LineNotifier{pushURL: pushURL, token: accessToken, timeout: 5 * time.Second}
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

func (n *LineNotifier) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range Messages(e) {
		if p.To == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.push(p); err != nil {
			errs = append(errs, fmt.Errorf("%s to %s: %w", e.Type, p.To, err))
		}
	}
	return errors.Join(errs...)
}

func (n *LineNotifier) push(p Push) error {
	a := fiber.Post(n.pushURL)
	a.Set(fiber.HeaderAuthorization, "Bearer "+n.token)
	a.JSON(pushRequest{To: p.To, Messages: []textMessage{{Type: "text", Text: p.Text}}})
	a.Timeout(n.timeout)
	if err := a.Parse(); err != nil {
		return err
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("line push: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("line push: status %d: %s", code, body)
	}
	return nil
}
