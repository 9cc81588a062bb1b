package db

import "time"

// Order is a customer order as persisted. Monetary amounts are stored in paise.
type Order struct {
	ID                string
	CustomerName      string
	Phone             string
	Email             string
	Address           string
	TotalPaise        int64
	PaymentMethod     string
	Status            string
	PaymentStatus     string
	UTRNumber         string
	RazorpayOrderID   string
	RazorpayPaymentID string
	ConsentWhatsApp   bool
	ConsentEmail      bool
	ConsentSMS        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Items             []OrderItem
}

// OrderItem is a single line on an order.
type OrderItem struct {
	ID        int64
	OrderID   string
	ProductID string
	Name      string
	Size      string
	Quantity  int
	UnitPaise int64
}

// PaymentOrder mirrors a gateway order handle created for online payment.
type PaymentOrder struct {
	ID          string
	OrderID     string
	AmountPaise int64
	Currency    string
	Receipt     string
	Status      string
	CreatedAt   time.Time
}

// Product is a catalog entry with bilingual copy.
type Product struct {
	ID            string
	NameEN        string
	NameHI        string
	TaglineEN     string
	TaglineHI     string
	DescriptionEN string
	DescriptionHI string
	Category      string
	ImageURL      string
	Featured      bool
	CreatedAt     time.Time
	Variants      []Variant
}

// Variant is a purchasable size of a product.
type Variant struct {
	ID        int64
	ProductID string
	Size      string
	MRPPaise  int64
	Stock     int
}

// StoreLocation is a physical retail location.
type StoreLocation struct {
	ID        string
	Name      string
	Address   string
	Phone     string
	Latitude  float64
	Longitude float64
	Hours     string
	MapsURL   string
}

// User is an admin account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// DomainEvent is an append-only record of a business event.
type DomainEvent struct {
	ID        string
	Topic     string
	Payload   []byte
	CreatedAt time.Time
}
