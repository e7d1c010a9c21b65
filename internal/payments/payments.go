// Package payments turns a checkout price into a card payment intent.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aircnc/aircnc-server/pkg/apperrors"
	"github.com/aircnc/aircnc-server/pkg/metrics"
)

// Processor creates a payment intent for amount minor units and returns its
// client secret.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// Intent is the response body of POST /create-payment-intent.
type Intent struct {
	ClientSecret string `json:"clientSecret"`
}

type Service struct {
	proc     Processor
	currency string
}

// NewService returns a Service. A nil processor disables payments.
func NewService(proc Processor, currency string) *Service {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = "usd"
	}
	return &Service{proc: proc, currency: currency}
}

func (s *Service) Enabled() bool { return s != nil && s.proc != nil }

func (s *Service) Currency() string { return s.currency }

// MaxAmount is the largest intent amount the processor accepts, in minor units.
const MaxAmount = 99999999

// ParsePrice accepts a JSON number or a numeric string.
func ParsePrice(v interface{}) (float64, error) {
	var price float64
	switch p := v.(type) {
	case nil:
		return 0, apperrors.Validation("price is required")
	case float64:
		price = p
	case float32:
		price = float64(p)
	case int:
		price = float64(p)
	case int64:
		price = float64(p)
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, apperrors.ValidationWrap(err, "price must be a number")
		}
		price = f
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return 0, apperrors.Validation("price is required")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, apperrors.ValidationWrap(err, "price must be a number")
		}
		price = f
	default:
		return 0, apperrors.Validation("price must be a number")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, apperrors.Validation("price must be a number")
	}
	if price <= 0 {
		return 0, apperrors.Validation("price must be greater than zero")
	}
	if math.Round(price*100) > MaxAmount {
		return 0, apperrors.Validation(fmt.Sprintf("price must not exceed %.2f", float64(MaxAmount)/100))
	}
	return price, nil
}

// Amount converts a price in major units to minor units.
func Amount(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent validates price and asks the processor for a card intent.
func (s *Service) CreateIntent(ctx context.Context, price interface{}) (Intent, error) {
	if !s.Enabled() {
		return Intent{}, apperrors.Unavailable("payment processor")
	}
	p, err := ParsePrice(price)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("invalid").Inc()
		return Intent{}, err
	}
	amount := Amount(p)
	if amount < 1 {
		metrics.PaymentIntents.WithLabelValues("invalid").Inc()
		return Intent{}, apperrors.Validation("price is below the smallest currency unit")
	}

	secret, err := s.proc.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("failed").Inc()
		if ctx.Err() != nil {
			return Intent{}, apperrors.Timeout(err)
		}
		return Intent{}, apperrors.Upstream("payment processor", err)
	}
	metrics.PaymentIntents.WithLabelValues("created").Inc()
	return Intent{ClientSecret: secret}, nil
}
