package models

import "errors"

var (
	// ErrNavigation is returned when the browser fails to load a page
	// after retries and fallback wait strategies.
	ErrNavigation = errors.New("navigation failed")

	// ErrEngagement is returned when the mandatory like action cannot
	// be completed after bounded retries.
	ErrEngagement = errors.New("engagement action failed")

	// ErrGeneration is returned when the text generator fails for any
	// reason, including rate limits and quota exhaustion.
	ErrGeneration = errors.New("reply generation failed")

	// ErrDelivery is returned when a composed reply cannot be sent.
	ErrDelivery = errors.New("reply delivery failed")
)
