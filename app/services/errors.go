package services

import (
	"net/http"
)

// DetailError is a failure the API reports as {"detail": Detail} with
// Status.
type DetailError struct {
	Status int
	Detail string
}

func (e *DetailError) Error() string {
	return e.Detail
}

var (
	ErrBasketNotFound      = &DetailError{Status: http.StatusNotFound, Detail: "Basket not found."}
	ErrBasketLineNotFound  = &DetailError{Status: http.StatusNotFound, Detail: "Product not found in basket."}
	ErrProductNotFound     = &DetailError{Status: http.StatusNotFound, Detail: "Product not found."}
	ErrCategoryNotFound    = &DetailError{Status: http.StatusNotFound, Detail: "Category not found."}
	ErrOrderNotFound       = &DetailError{Status: http.StatusNotFound, Detail: "Order not found."}
	ErrSpecialNotFound     = &DetailError{Status: http.StatusNotFound, Detail: "Special not found."}
	ErrNotFound            = &DetailError{Status: http.StatusNotFound, Detail: "Not found."}
	ErrPrivateInfoExists   = &DetailError{Status: http.StatusBadRequest, Detail: "Order already has a linked private info model"}
	ErrDeliveryInfoExists  = &DetailError{Status: http.StatusBadRequest, Detail: "Order already has a linked delivery info model"}
	ErrPaymentInfoExists   = &DetailError{Status: http.StatusBadRequest, Detail: "Order already has a linked payment info model"}
	ErrPrivateInfoNotFound = &DetailError{Status: http.StatusNotFound, Detail: "Order has no private info."}
	ErrDeliveryNotFound    = &DetailError{Status: http.StatusNotFound, Detail: "Order has no delivery info."}
	ErrPaymentNotFound     = &DetailError{Status: http.StatusNotFound, Detail: "Order has no payment info."}
	ErrB2PNotFound         = &DetailError{Status: http.StatusNotFound, Detail: "Order has no card payment registration."}
	ErrOrderAlreadyPaid    = &DetailError{Status: http.StatusBadRequest, Detail: "You cant change status when order is paid."}
)

// RegistrationError is an account workflow failure with a message meant for
// the user.
type RegistrationError struct {
	Message string
	Code    int
}

func (e *RegistrationError) Error() string {
	return e.Message
}

// ActivationError is a RegistrationError raised while redeeming a signed
// activation or password reset key.
type ActivationError struct {
	*RegistrationError
}

func newActivationError(msg string) *ActivationError {
	return &ActivationError{&RegistrationError{Message: msg, Code: http.StatusBadRequest}}
}

func (e *ActivationError) Unwrap() error {
	return e.RegistrationError
}
