package domain

import "time"

// OrderStatus is the platform's order-status vocabulary
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderPaymentStatus is the payment state carried on the order
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// OrderItem is one line of an order
type OrderItem struct {
	Name     string  `bson:"name" json:"name"`
	Quantity int     `bson:"quantity" json:"quantity"`
	Price    float64 `bson:"price" json:"price"`
	Notes    string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Customer is the contact info attached to an order
type Customer struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
	Email string `bson:"email" json:"email"`
}

// Order is the platform order as seen by the sync layer. The full order
// aggregate lives in the order service; this is the projection needed to
// push an order to a POS gateway and apply webhook transitions.
type Order struct {
	ID                 string             `bson:"_id" json:"id"`
	RestaurantID       string             `bson:"restaurantId" json:"restaurantId"`
	OrderNumber        string             `bson:"orderNumber" json:"orderNumber"`
	Customer           Customer           `bson:"customer" json:"customer"`
	Items              []OrderItem        `bson:"items" json:"items"`
	Total              float64            `bson:"total" json:"total"`
	Currency           string             `bson:"currency" json:"currency"`
	Notes              string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status             OrderStatus        `bson:"status" json:"status"`
	PaymentStatus      OrderPaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	ConfirmedAt        *time.Time         `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancellationReason string             `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	RefundAmount       float64            `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
	RefundedAt         *time.Time         `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PaymentState is the lifecycle state of a payment record
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

// Payment is the payment record resolved by inbound webhooks
type Payment struct {
	ID            string       `bson:"_id" json:"id"`
	OrderID       string       `bson:"orderId" json:"orderId"`
	TransactionID string       `bson:"transactionId" json:"transactionId"`
	Provider      string       `bson:"provider" json:"provider"`
	Amount        float64      `bson:"amount" json:"amount"`
	Status        PaymentState `bson:"status" json:"status"`
	ErrorMessage  string       `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	RefundAmount  float64      `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
	RefundedAt    *time.Time   `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time    `bson:"updatedAt" json:"updatedAt"`
}

// CatalogItem is one item from a gateway catalog/menu fetch
type CatalogItem struct {
	GatewayItemID string  `json:"gatewayItemId"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	Category      string  `json:"category,omitempty"`
	Available     bool    `json:"available"`
}

// StockLevel is one item's inventory snapshot from a gateway
type StockLevel struct {
	GatewayItemID string `json:"gatewayItemId"`
	Quantity      int    `json:"quantity"`
	Available     bool   `json:"available"`
}

// MenuItem is the platform menu item the catalog sync writes
type MenuItem struct {
	ID            string    `bson:"_id" json:"id"`
	RestaurantID  string    `bson:"restaurantId" json:"restaurantId"`
	GatewayItemID string    `bson:"gatewayItemId" json:"gatewayItemId"`
	POSType       POSType   `bson:"posType" json:"posType"`
	Name          string    `bson:"name" json:"name"`
	Description   string    `bson:"description,omitempty" json:"description,omitempty"`
	Price         float64   `bson:"price" json:"price"`
	Category      string    `bson:"category,omitempty" json:"category,omitempty"`
	Available     bool      `bson:"available" json:"available"`
	StockQuantity int       `bson:"stockQuantity" json:"stockQuantity"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
