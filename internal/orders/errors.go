package orders

import "errors"

var (
	// ErrEmptyCart means no cart entry survived filtering.
	ErrEmptyCart = errors.New("orders: empty cart")
	// ErrMissingCustomer means submit was called without an identified customer.
	ErrMissingCustomer = errors.New("orders: missing customer")
)
