package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Offer представляет предложение продавца на запрос покупателя.
// Статус и статус оплаты — две независимые оси: status ведёт жизненный цикл
// сделки, payment_status отражает состояние, о котором сообщил платёжный шлюз.
type Offer struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RequestID    uuid.UUID `db:"request_id" json:"request_id"`
	SellerID     uuid.UUID `db:"seller_id" json:"seller_id"`
	SellerName   string    `db:"seller_name" json:"seller_name"`
	Credentials  string    `db:"credentials" json:"credentials"`
	Amount       float64   `db:"amount" json:"amount"`
	Message      string    `db:"message" json:"message"`
	DeliveryDate time.Time `db:"delivery_date" json:"delivery_date"`
	Status       string    `db:"status" json:"status"`

	PaymentStatus   *string `db:"payment_status" json:"payment_status,omitempty"`
	PaymentID       *string `db:"payment_id" json:"payment_id,omitempty"`
	PaymentAttempts int     `db:"payment_attempts" json:"payment_attempts"`

	ShippingAddress json.RawMessage `db:"shipping_address" json:"shipping_address,omitempty"`
	TrackingNumber  *string         `db:"tracking_number" json:"tracking_number,omitempty"`
	Carrier         *string         `db:"carrier" json:"carrier,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsOwnedBy проверяет, принадлежит ли предложение продавцу.
func (o *Offer) IsOwnedBy(userID uuid.UUID) bool {
	return o.SellerID == userID
}

// IsPaid возвращает true, если шлюз подтвердил оплату.
func (o *Offer) IsPaid() bool {
	return o.PaymentStatus != nil && *o.PaymentStatus == PaymentStatusPaid
}

// HasPendingPayment возвращает true, если по предложению уже создана
// checkout-сессия, которую стоит попробовать переиспользовать.
func (o *Offer) HasPendingPayment() bool {
	return o.PaymentID != nil && o.PaymentStatus != nil && *o.PaymentStatus == PaymentStatusPending
}
