package domain

import "time"

// POSType identifies a POS gateway family
type POSType string

const (
	POSTypeSquare POSType = "square"
	POSTypeToast  POSType = "toast"
	POSTypeLocal  POSType = "local"
)

// SupportedPOSTypes lists the gateway families the service can talk to
var SupportedPOSTypes = []POSType{POSTypeSquare, POSTypeToast, POSTypeLocal}

// IsSupportedPOSType reports whether posType names a known gateway family
func IsSupportedPOSType(posType POSType) bool {
	for _, t := range SupportedPOSTypes {
		if t == posType {
			return true
		}
	}
	return false
}

// IntegrationConfig holds the per-integration connection settings
type IntegrationConfig struct {
	BaseURL       string `bson:"baseUrl" json:"baseUrl"`
	AccessToken   string `bson:"accessToken" json:"-"`
	APIKey        string `bson:"apiKey" json:"-"`
	WebhookSecret string `bson:"webhookSecret" json:"-"`
	LocationID    string `bson:"locationId,omitempty" json:"locationId,omitempty"`
}

// POSIntegration is the configuration record for one (restaurant, gateway)
// pair. It is owned by restaurant administration and read-only here.
type POSIntegration struct {
	ID           string            `bson:"_id" json:"id"`
	RestaurantID string            `bson:"restaurantId" json:"restaurantId"`
	POSType      POSType           `bson:"posType" json:"posType"`
	Config       IntegrationConfig `bson:"config" json:"config"`
	IsActive     bool              `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updatedAt" json:"updatedAt"`
}
