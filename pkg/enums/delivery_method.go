package enums

import (
	"fmt"
	"strings"
)

// DeliveryMethod identifies the shipping option chosen at checkout.
type DeliveryMethod string

const (
	DeliveryMethodStandard DeliveryMethod = "standard"
	DeliveryMethodExpress  DeliveryMethod = "express"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodStandard,
	DeliveryMethodExpress,
	DeliveryMethodPickup,
}

// String implements fmt.Stringer.
func (m DeliveryMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
