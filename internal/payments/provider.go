package payments

import (
	"fmt"

	"github.com/s/courseMarket/internal/models"
)

// Provider выдает платежную ссылку для заказа. Вызов синхронный,
// без ретраев: при ошибке заказ переводится в FAILED на стороне сервиса.
type Provider interface {
	CreateLink(order *models.Order) (string, error)
}

// CallbackProvider — заглушка без эквайринга: ссылка ведет сразу на
// наш callback, оплата подтверждается переходом по ней. Используется
// в разработке и тестах.
type CallbackProvider struct {
	BaseURL string
}

func (p CallbackProvider) CreateLink(order *models.Order) (string, error) {
	return fmt.Sprintf("%s/api/v1/payments/callback/%d", p.BaseURL, order.ID), nil
}
