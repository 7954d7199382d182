package verifiers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

// Secrets holds the per-provider webhook secrets loaded from configuration.
// An empty secret makes the corresponding verifier fail closed.
type Secrets struct {
	StripeSecret      string
	PayPalSecret      string
	JazzCashSecret    string
	EasypaisaMerchant string
}

// NewRegistry builds a verifier registry covering all supported providers
func NewRegistry(secrets Secrets) *domain.VerifierRegistry {
	registry := domain.NewVerifierRegistry()
	registry.Register(&HMACHexVerifier{provider: domain.ProviderStripe, secret: secrets.StripeSecret})
	registry.Register(&HMACHexVerifier{provider: domain.ProviderPayPal, secret: secrets.PayPalSecret})
	registry.Register(&HMACBase64Verifier{provider: domain.ProviderJazzCash, secret: secrets.JazzCashSecret})
	registry.Register(&DigestVerifier{provider: domain.ProviderEasypaisa, merchantKey: secrets.EasypaisaMerchant})
	return registry
}

// HMACHexVerifier verifies an HMAC-SHA256 hex digest of the raw body
// (stripe, paypal)
type HMACHexVerifier struct {
	provider domain.PaymentProvider
	secret   string
}

// Provider returns the payment provider this verifier covers
func (v *HMACHexVerifier) Provider() domain.PaymentProvider {
	return v.provider
}

// Verify checks the signature in constant time; no secret fails closed
func (v *HMACHexVerifier) Verify(body []byte, signature string) bool {
	if v.secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// HMACBase64Verifier verifies an HMAC-SHA256 base64 digest of the raw body
// (jazzcash)
type HMACBase64Verifier struct {
	provider domain.PaymentProvider
	secret   string
}

// Provider returns the payment provider this verifier covers
func (v *HMACBase64Verifier) Provider() domain.PaymentProvider {
	return v.provider
}

// Verify checks the signature in constant time; no secret fails closed
func (v *HMACBase64Verifier) Verify(body []byte, signature string) bool {
	if v.secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// DigestVerifier verifies a plain SHA-256 hex digest of body + merchant key
// (easypaisa)
type DigestVerifier struct {
	provider    domain.PaymentProvider
	merchantKey string
}

// Provider returns the payment provider this verifier covers
func (v *DigestVerifier) Provider() domain.PaymentProvider {
	return v.provider
}

// Verify checks the digest in constant time; no merchant key fails closed
func (v *DigestVerifier) Verify(body []byte, signature string) bool {
	if v.merchantKey == "" {
		return false
	}

	sum := sha256.Sum256(append(append([]byte{}, body...), []byte(v.merchantKey)...))
	expected := hex.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(signature), []byte(expected)) == 1
}
