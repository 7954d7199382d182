package domain

import "time"

// PaymentProvider identifies an inbound payment-gateway webhook source
type PaymentProvider string

const (
	ProviderStripe    PaymentProvider = "stripe"
	ProviderPayPal    PaymentProvider = "paypal"
	ProviderJazzCash  PaymentProvider = "jazzcash"
	ProviderEasypaisa PaymentProvider = "easypaisa"
)

// SupportedProviders lists the payment gateways whose webhooks are accepted
var SupportedProviders = []PaymentProvider{
	ProviderStripe,
	ProviderPayPal,
	ProviderJazzCash,
	ProviderEasypaisa,
}

// IsSupportedProvider reports whether provider names a known payment gateway
func IsSupportedProvider(provider PaymentProvider) bool {
	for _, p := range SupportedProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// PaymentEventStatus is the status vocabulary of inbound payment webhooks
type PaymentEventStatus string

const (
	PaymentEventSuccess  PaymentEventStatus = "success"
	PaymentEventFailed   PaymentEventStatus = "failed"
	PaymentEventRefunded PaymentEventStatus = "refunded"
)

// PaymentEvent is the parsed body of a payment-gateway webhook
type PaymentEvent struct {
	TransactionID string             `json:"transaction_id"`
	Status        PaymentEventStatus `json:"status"`
	Amount        float64            `json:"amount"`
	ErrorMessage  string             `json:"error_message,omitempty"`
}

// WebhookLogEntry is an append-only record of one inbound webhook call.
// The payload stored here is sanitized before persistence.
type WebhookLogEntry struct {
	ID                string         `bson:"_id" json:"id"`
	Service           string         `bson:"service" json:"service"`
	EventType         string         `bson:"eventType" json:"eventType"`
	Payload           map[string]any `bson:"payload,omitempty" json:"payload,omitempty"`
	Success           bool           `bson:"success" json:"success"`
	IP                string         `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent         string         `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	SignatureVerified bool           `bson:"signatureVerified" json:"signatureVerified"`
	ResponseTimeMs    int64          `bson:"responseTimeMs" json:"responseTimeMs"`
	ErrorMessage      string         `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	CreatedAt         time.Time      `bson:"createdAt" json:"createdAt"`
}

// WebhookStats holds monotonically increasing counters per
// (service, event type), plus a running average response time.
type WebhookStats struct {
	Service               string    `bson:"service" json:"service"`
	EventType             string    `bson:"eventType" json:"eventType"`
	TotalReceived         int64     `bson:"totalReceived" json:"totalReceived"`
	SuccessfulProcessed   int64     `bson:"successfulProcessed" json:"successfulProcessed"`
	FailedProcessed       int64     `bson:"failedProcessed" json:"failedProcessed"`
	AverageResponseTimeMs float64   `bson:"averageResponseTimeMs" json:"averageResponseTimeMs"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WebhookVerifier validates the authenticity of a raw webhook payload.
// Implementations must compare signatures in constant time and fail closed
// when no secret is configured.
type WebhookVerifier interface {
	Provider() PaymentProvider
	Verify(body []byte, signature string) bool
}

// VerifierRegistry resolves a verifier by payment provider
type VerifierRegistry struct {
	verifiers map[PaymentProvider]WebhookVerifier
}

// NewVerifierRegistry creates an empty verifier registry
func NewVerifierRegistry() *VerifierRegistry {
	return &VerifierRegistry{
		verifiers: make(map[PaymentProvider]WebhookVerifier),
	}
}

// Register adds a verifier to the registry
func (r *VerifierRegistry) Register(v WebhookVerifier) {
	r.verifiers[v.Provider()] = v
}

// Get returns the verifier for provider, or false if none is registered
func (r *VerifierRegistry) Get(provider PaymentProvider) (WebhookVerifier, bool) {
	v, ok := r.verifiers[provider]
	return v, ok
}
