package models

// RequestStatus константы статусов запросов покупателей.
const (
	RequestStatusOpen      = "open"
	RequestStatusPending   = "pending"
	RequestStatusAccepted  = "accepted"
	RequestStatusCompleted = "completed"
	RequestStatusCancelled = "cancelled"
)

// OfferStatus константы статусов предложений продавцов.
const (
	OfferStatusPending   = "pending"
	OfferStatusAccepted  = "accepted"
	OfferStatusRejected  = "rejected"
	OfferStatusCancelled = "cancelled"
	OfferStatusDelivered = "delivered"
	OfferStatusCompleted = "completed"
	OfferStatusDisputed  = "disputed"
)

// PaymentStatus константы статусов оплаты (взгляд платёжного шлюза).
// Поле payment_status у предложения может быть NULL, пока оплата не начиналась.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// DisputeStatus константы статусов споров.
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"
)

// RequestStatusTransitions описывает допустимые переходы статуса запроса.
// Таблица единственный источник правды: и сервис, и тесты сверяются с ней,
// отдельные проверки по маршрутам не дублируются.
var RequestStatusTransitions = map[string][]string{
	RequestStatusOpen:      {RequestStatusPending, RequestStatusCancelled},
	RequestStatusPending:   {RequestStatusAccepted, RequestStatusCancelled},
	RequestStatusAccepted:  {RequestStatusCompleted, RequestStatusCancelled},
	RequestStatusCompleted: {},
	RequestStatusCancelled: {},
}

// OfferStatusTransitions описывает допустимые переходы статуса предложения.
var OfferStatusTransitions = map[string][]string{
	OfferStatusPending:   {OfferStatusAccepted, OfferStatusRejected, OfferStatusCancelled},
	OfferStatusAccepted:  {OfferStatusDelivered, OfferStatusCompleted, OfferStatusCancelled},
	OfferStatusDelivered: {OfferStatusCompleted, OfferStatusCancelled},
	OfferStatusRejected:  {},
	OfferStatusCancelled: {},
	OfferStatusCompleted: {},
}

// CanTransition проверяет, допустим ли переход from -> to по таблице.
func CanTransition(table map[string][]string, from, to string) bool {
	for _, allowed := range table[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions возвращает список допустимых целей из текущего статуса.
func AllowedTransitions(table map[string][]string, from string) []string {
	allowed := table[from]
	if allowed == nil {
		return []string{}
	}
	return allowed
}

// IsLiveOfferStatus возвращает true, если предложение ещё "живое":
// продавец не может иметь два живых предложения на один запрос.
func IsLiveOfferStatus(status string) bool {
	return status != OfferStatusCancelled && status != OfferStatusRejected
}

// CategoryOptions фиксированный набор категорий запросов.
var CategoryOptions = []string{
	"business-services",
	"products",
	"home-services",
	"professional-work",
	"creative-services",
	"technology",
}

// ValidCategories список валидных категорий для быстрой проверки.
var ValidCategories = map[string]struct{}{
	"business-services": {},
	"products":          {},
	"home-services":     {},
	"professional-work": {},
	"creative-services": {},
	"technology":        {},
}
