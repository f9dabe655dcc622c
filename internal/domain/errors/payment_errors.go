package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the payment core
const (
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidOrderAmount  = "INVALID_ORDER_AMOUNT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodeRefundFailed        = "REFUND_FAILED"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeAlreadyRefunded     = "ALREADY_REFUNDED"
	CodeInvalidPaymentState = "INVALID_PAYMENT_STATE"
	CodeInternal            = "INTERNAL"
)

// PaymentError is a coded error carrying the failure taxonomy of the
// payment core. Handlers map codes to HTTP statuses.
type PaymentError struct {
	code    string
	message string
	err     error
}

func (e *PaymentError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *PaymentError) Code() string {
	return e.code
}

func (e *PaymentError) Unwrap() error {
	return e.err
}

// NewPaymentError creates a new coded payment error
func NewPaymentError(code string, message string, err error) *PaymentError {
	return &PaymentError{
		code:    code,
		message: message,
		err:     err,
	}
}

// CodeOf extracts the error code from err, or CodeInternal when err does
// not carry one.
func CodeOf(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe.Code()
	}
	return CodeInternal
}

// OrderNotFound reports a missing order
func OrderNotFound(orderID string) *PaymentError {
	return NewPaymentError(CodeOrderNotFound, fmt.Sprintf("order %s not found", orderID), nil)
}

// Unauthorized reports an order access by someone other than the buyer
func Unauthorized(orderID string) *PaymentError {
	return NewPaymentError(CodeUnauthorized, fmt.Sprintf("not the buyer of order %s", orderID), nil)
}

// InvalidOrderAmount reports a mismatch between the requested and the
// order's amounts
func InvalidOrderAmount(requested, expected int64) *PaymentError {
	return NewPaymentError(CodeInvalidOrderAmount,
		fmt.Sprintf("invalid order amount: requested %d, order total %d", requested, expected), nil)
}

// InsufficientBalance reports a rejected ledger debit
func InsufficientBalance(requested int64, err error) *PaymentError {
	return NewPaymentError(CodeInsufficientBalance,
		fmt.Sprintf("insufficient deposit balance for debit of %d", requested), err)
}

// PaymentFailed wraps any gateway or internal failure during confirmation
func PaymentFailed(err error) *PaymentError {
	return NewPaymentError(CodePaymentFailed, "payment confirmation failed", err)
}

// RefundFailed wraps any gateway or internal failure during a refund
func RefundFailed(err error) *PaymentError {
	return NewPaymentError(CodeRefundFailed, "refund failed", err)
}

// PaymentNotFound reports a refund request for an order without a payment
func PaymentNotFound(orderID string) *PaymentError {
	return NewPaymentError(CodePaymentNotFound, fmt.Sprintf("no payment found for order %s", orderID), nil)
}

// AlreadyRefunded reports a second refund attempt on a settled refund
func AlreadyRefunded(orderID string) *PaymentError {
	return NewPaymentError(CodeAlreadyRefunded, fmt.Sprintf("payment for order %s is already refunded", orderID), nil)
}

// InvalidPaymentState reports a refund on a payment that is not SUCCESS
func InvalidPaymentState(orderID string, status string) *PaymentError {
	return NewPaymentError(CodeInvalidPaymentState,
		fmt.Sprintf("payment for order %s is in state %s and cannot be refunded", orderID, status), nil)
}
