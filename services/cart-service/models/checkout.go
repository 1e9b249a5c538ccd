package models

import "time"

const EventCheckoutRequested = "checkout.requested"

type CheckoutEvent struct {
	Event     string     `json:"event"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Timestamp time.Time  `json:"timestamp"`
}
