package domain

import (
	"context"
	"time"
)

// Mailer delivers plain-text email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// Email is a single outgoing message.
type Email struct {
	To      string
	Subject string
	Text    string
}

// CheckoutRequest describes a plan purchase handed to the payment provider.
type CheckoutRequest struct {
	Plan      Plan
	UserID    int64
	Email     string
	AmountINR int64
}

// CheckoutSession is the provider's hosted checkout page for a purchase.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentGateway opens hosted checkout sessions. Charging and confirmation
// happen on the provider's side.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// WeatherReport is the current weather at a coordinate.
type WeatherReport struct {
	TemperatureC float64
	Condition    string
	Description  string
	ObservedAt   time.Time
}

// WeatherClient resolves coordinates to a place and its current weather.
type WeatherClient interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Location, error)
	CurrentWeather(ctx context.Context, lat, lon float64) (*WeatherReport, error)
}
