package authsession

import "context"

// Delivery hands a freshly generated code to the user, e.g. by email.
type Delivery interface {
	DeliverOTP(ctx context.Context, identifier, code string) error
}

// DeliveryFunc adapts a function to Delivery.
type DeliveryFunc func(ctx context.Context, identifier, code string) error

func (f DeliveryFunc) DeliverOTP(ctx context.Context, identifier, code string) error {
	return f(ctx, identifier, code)
}

// NopDelivery drops every code. The caller is expected to learn the code
// some other way, e.g. from analytics events in a demo setup.
type NopDelivery struct{}

func (NopDelivery) DeliverOTP(context.Context, string, string) error { return nil }
