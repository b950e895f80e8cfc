package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
)

// Identity is the verified caller behind an id token.
type Identity struct {
	Subject string `json:"userId"`
	Name    string `json:"displayName,omitempty"`
	Picture string `json:"pictureUrl,omitempty"`
	Email   string `json:"email,omitempty"`
}

// Verifier turns a bearer credential into a stable subject id or fails with Unauthorized.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// LineVerifier checks LINE Login id tokens against the verify endpoint.
type LineVerifier struct {
	endpoint  string
	channelID string
	timeout   time.Duration
}

func NewLineVerifier(endpoint, channelID string) *LineVerifier {
	return &LineVerifier{endpoint: endpoint, channelID: channelID, timeout: 5 * time.Second}
}

type verifyResponse struct {
	Iss     string `json:"iss"`
	Sub     string `json:"sub"`
	Aud     string `json:"aud"`
	Exp     int64  `json:"exp"`
	Iat     int64  `json:"iat"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

func (v *LineVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	if v.channelID == "" {
		return Identity{}, errors.New("LINE_LOGIN_CHANNEL_ID is not configured")
	}
	if strings.TrimSpace(idToken) == "" {
		return Identity{}, domain.New(domain.KindUnauthorized, "missing id token")
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("id_token", idToken)
	args.Set("client_id", v.channelID)

	a := fiber.Post(v.endpoint)
	a.Form(args)
	a.Timeout(v.timeout)
	if err := a.Parse(); err != nil {
		return Identity{}, err
	}

	var out verifyResponse
	code, body, errs := a.Struct(&out)
	if code != 0 && code != fiber.StatusOK {
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", code)
		}
		return Identity{}, domain.New(domain.KindUnauthorized, "LINE verify API error: "+reason)
	}
	if len(errs) > 0 {
		return Identity{}, fmt.Errorf("LINE verify: %w", errors.Join(errs...))
	}
	if out.Aud != v.channelID {
		return Identity{}, domain.New(domain.KindUnauthorized, "LINE verify response audience mismatch")
	}
	if out.Sub == "" {
		return Identity{}, domain.New(domain.KindUnauthorized, "LINE verify response without subject")
	}
	return Identity{Subject: out.Sub, Name: out.Name, Picture: out.Picture, Email: out.Email}, nil
}
