package service

import (
	"fmt"
	"net/http"
)

// Error — типизированная ошибка сервисного слоя. Code — HTTP-статус,
// который хендлер отдает клиенту через jsonError.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmptyCart          = &Error{Code: http.StatusBadRequest, Message: "Cart is empty"}
	ErrPaymentProvider    = &Error{Code: http.StatusServiceUnavailable, Message: "Payment operational error"}
	ErrAccessDenied       = &Error{Code: http.StatusForbidden, Message: "Access denied"}
	ErrHomeworkApproved   = &Error{Code: http.StatusForbidden, Message: "Homework already approved"}
	ErrInvalidCredentials = &Error{Code: http.StatusUnauthorized, Message: "Invalid credentials"}
)

// NotFound — 404 для неизвестного идентификатора
func NotFound(entity string) *Error {
	return &Error{Code: http.StatusNotFound, Message: entity + " not found"}
}

// BadRequest — ошибка валидации входных данных
func BadRequest(message string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message}
}

// AlreadyPurchased — продукт нельзя купить повторно
func AlreadyPurchased(courseProductIDs, serviceProductIDs []uint) *Error {
	return &Error{
		Code: http.StatusForbidden,
		Message: fmt.Sprintf("One or more products already purchased, course: %v, service: %v",
			courseProductIDs, serviceProductIDs),
	}
}
