package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/s/courseMarket/internal/payments"
	"github.com/s/courseMarket/internal/service"
)

// CreateOrderAPI - оформление заказа из корзины
func (h *Handler) CreateOrderAPI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFrom(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var input service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	order, err := service.CreateOrder(h.DB, h.Payments, user, input)
	if err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// PaymentCallbackAPI - возврат с платежной страницы.
// В режиме CallbackProvider переход по ссылке и есть оплата.
func (h *Handler) PaymentCallbackAPI(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseUint(mux.Vars(r)["order_id"], 10, 32)
	if err != nil {
		jsonError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	if err := service.ConfirmPayment(h.DB, uint(orderID)); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "PAYED"})
}

// MidtransNotificationAPI - серверное уведомление Midtrans о платеже.
// Подтверждаем заказ только по финальным статусам.
func (h *Handler) MidtransNotificationAPI(w http.ResponseWriter, r *http.Request) {
	var notification struct {
		OrderID           string `json:"order_id"`
		TransactionStatus string `json:"transaction_status"`
		FraudStatus       string `json:"fraud_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	orderID, err := payments.ParseOrderID(notification.OrderID)
	if err != nil {
		jsonError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	settled := notification.TransactionStatus == "settlement" ||
		(notification.TransactionStatus == "capture" && notification.FraudStatus == "accept")
	if !settled {
		// Промежуточные статусы (pending, deny, expire) просто подтверждаем получение
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := service.ConfirmPayment(h.DB, orderID); err != nil {
		serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
