package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/webhook"
)

// ErrInvalidSignature возвращается, когда подпись вебхука не прошла проверку.
// Непроверенным payload доверять нельзя, состояние при этом не меняется.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventCheckoutCompleted тип события шлюза об успешной оплате сессии.
const EventCheckoutCompleted = "checkout.session.completed"

// Session срез данных checkout-сессии, нужный сервисам.
type Session struct {
	ID   string
	URL  string
	Open bool
}

// CreateSessionInput параметры новой checkout-сессии. Метаданные несут
// полный контекст сделки, чтобы вебхук не зависел от локальных ключей.
type CreateSessionInput struct {
	Title     string
	Amount    float64
	OfferID   string
	RequestID string
	BuyerID   string
	SellerID  string
}

// CheckoutEvent разобранное событие вебхука.
type CheckoutEvent struct {
	Type      string
	SessionID string
	OfferID   string
	RequestID string
	BuyerID   string
	SellerID  string
}

// Gateway контракт платёжного шлюза. Сервисы зависят только от него,
// боевой Stripe подставляется при сборке приложения.
type Gateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ParseWebhook(payload []byte, signatureHeader string) (*CheckoutEvent, error)
}

// StripeGateway реализация Gateway поверх Stripe Checkout.
type StripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway настраивает глобальный клиент Stripe и возвращает шлюз.
func NewStripeGateway(apiKey, webhookSecret, successURL, cancelURL string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// CreateSession создаёт новую checkout-сессию с метаданными сделки.
func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Title),
					},
					UnitAmount: stripe.Int64(amountToCents(in.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("offerId", in.OfferID)
	params.AddMetadata("requestId", in.RequestID)
	params.AddMetadata("buyerId", in.BuyerID)
	params.AddMetadata("sellerId", in.SellerID)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session %w", err)
	}

	return &Session{ID: s.ID, URL: s.URL, Open: s.Status == stripe.CheckoutSessionStatusOpen}, nil
}

// GetSession запрашивает состояние существующей сессии.
func (g *StripeGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := session.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session %w", err)
	}

	return &Session{ID: s.ID, URL: s.URL, Open: s.Status == stripe.CheckoutSessionStatusOpen}, nil
}

// ParseWebhook проверяет подпись по сырым байтам тела и разбирает событие.
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*CheckoutEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	parsed := &CheckoutEvent{Type: string(event.Type)}
	if parsed.Type != EventCheckoutCompleted {
		return parsed, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: unmarshal checkout session %w", err)
	}

	parsed.SessionID = s.ID
	parsed.OfferID = s.Metadata["offerId"]
	parsed.RequestID = s.Metadata["requestId"]
	parsed.BuyerID = s.Metadata["buyerId"]
	parsed.SellerID = s.Metadata["sellerId"]
	return parsed, nil
}

// amountToCents переводит сумму в минимальные единицы валюты.
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
