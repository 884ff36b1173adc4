package payments

import (
	"fmt"
	"strconv"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	"github.com/s/courseMarket/internal/models"
)

// Префикс внешнего order_id: в Midtrans идентификатор строковый и
// должен быть уникален в рамках аккаунта
const midtransOrderPrefix = "order-"

// MidtransProvider — платежные ссылки через Midtrans Snap
type MidtransProvider struct {
	client snap.Client
}

func NewMidtransProvider(serverKey string, production bool) *MidtransProvider {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	var client snap.Client
	client.New(serverKey, env)
	return &MidtransProvider{client: client}
}

func (p *MidtransProvider) CreateLink(order *models.Order) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  fmt.Sprintf("%s%d", midtransOrderPrefix, order.ID),
			GrossAmt: int64(order.Price),
		},
	}
	if order.User != nil {
		req.CustomerDetail = &midtrans.CustomerDetails{
			FName: order.User.Name,
			LName: order.User.LastName,
			Email: order.User.Email,
			Phone: order.User.Phone,
		}
	}

	resp, snapErr := p.client.CreateTransaction(req)
	if snapErr != nil {
		return "", snapErr
	}
	return resp.RedirectURL, nil
}

// ParseOrderID разбирает внешний order_id из уведомления Midtrans
func ParseOrderID(externalID string) (uint, error) {
	raw := strings.TrimPrefix(externalID, midtransOrderPrefix)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("некорректный order_id %q: %w", externalID, err)
	}
	return uint(id), nil
}
