package service

import (
	"errors"
	"testing"

	"github.com/s/courseMarket/internal/models"
)

func TestCreateOrderEmptyCart(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)

	_, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("ожидалась ErrEmptyCart, получено: %v", err)
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)

	_, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{9999},
	})
	if code := serviceCode(t, err); code != 404 {
		t.Fatalf("ожидался код 404, получен %d", code)
	}
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	_, product := createCourse(t, db, 2, 1500, nil)

	order, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
		PromoCode:        "WELCOME",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.Price != 1500 {
		t.Fatalf("цена заказа %d, ожидалось 1500", order.Price)
	}
	if order.PaymentLink == "" {
		t.Fatal("платежная ссылка не сохранена")
	}
	if order.Status != models.OrderStatusCreated {
		t.Fatalf("статус %q, ожидался CREATED", order.Status)
	}

	// Продукт дорожает после оформления, позиция заказа не меняется
	if err := db.Model(product).Update("price", 9000).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}
	var item models.OrderCourseProductItem
	if err := db.First(&item, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("позиция заказа не найдена: %v", err)
	}
	if item.Price != 1500 {
		t.Fatalf("цена позиции %d, ожидалась зафиксированная 1500", item.Price)
	}
}

func TestCreateOrderProviderFailure(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	_, product := createCourse(t, db, 1, 500, nil)

	_, err := CreateOrder(db, stubProvider{err: errors.New("gateway down")}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	})
	if !errors.Is(err, ErrPaymentProvider) {
		t.Fatalf("ожидалась ErrPaymentProvider, получено: %v", err)
	}

	// Заказ остается в БД со статусом FAILED
	var order models.Order
	if err := db.First(&order, "user_id = ?", user.ID).Error; err != nil {
		t.Fatalf("заказ не сохранен: %v", err)
	}
	if order.Status != models.OrderStatusFailed {
		t.Fatalf("статус %q, ожидался FAILED", order.Status)
	}
}

func TestConfirmPaymentGrantsAccess(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	course, product := createCourse(t, db, 3, 1000, nil)

	order, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := ConfirmPayment(db, order.ID); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	var accessCount int64
	db.Model(&models.Access{}).Where("user_id = ?", user.ID).Count(&accessCount)
	if accessCount != 3 {
		t.Fatalf("выдано %d доступов, ожидалось 3", accessCount)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("заказ не найден: %v", err)
	}
	if got.Status != models.OrderStatusPayed {
		t.Fatalf("статус заказа %q, ожидался PAYED", got.Status)
	}

	var gotUser models.User
	if err := db.First(&gotUser, user.ID).Error; err != nil {
		t.Fatalf("пользователь не найден: %v", err)
	}
	if gotUser.Status != models.UserStatusActive {
		t.Fatalf("статус пользователя %q, ожидался ACTIVE", gotUser.Status)
	}

	var progress models.CourseProgressTracking
	if err := db.First(&progress, "user_id = ? AND course_id = ?", user.ID, course.ID).Error; err != nil {
		t.Fatalf("прогресс по курсу не создан: %v", err)
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	_, product := createCourse(t, db, 2, 1000, nil)

	order, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := ConfirmPayment(db, order.ID); err != nil {
		t.Fatalf("первое подтверждение: %v", err)
	}
	// Повторный вебхук — успешный no-op
	if err := ConfirmPayment(db, order.ID); err != nil {
		t.Fatalf("повторное подтверждение должно быть no-op: %v", err)
	}

	var accessCount int64
	db.Model(&models.Access{}).Where("user_id = ?", user.ID).Count(&accessCount)
	if accessCount != 2 {
		t.Fatalf("доступов %d, повторное подтверждение не должно дублировать", accessCount)
	}
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	db := setupDB(t)
	err := ConfirmPayment(db, 777)
	if code := serviceCode(t, err); code != 404 {
		t.Fatalf("ожидался код 404, получен %d", code)
	}
}

func TestCreateOrderAlreadyPurchased(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	_, product := createCourse(t, db, 1, 1000, nil)

	order, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := ConfirmPayment(db, order.ID); err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	_, err = CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	})
	if code := serviceCode(t, err); code != 403 {
		t.Fatalf("повторная покупка: ожидался код 403, получен %d (%v)", code, err)
	}
}

func TestCreateOrderAfterFailedOrderAllowed(t *testing.T) {
	db := setupDB(t)
	user := createUser(t, db, "student@test.io", models.RoleStudent)
	_, product := createCourse(t, db, 1, 1000, nil)

	// Неоплаченный заказ не блокирует повторную попытку покупки
	if _, err := CreateOrder(db, stubProvider{err: errors.New("down")}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	}); !errors.Is(err, ErrPaymentProvider) {
		t.Fatalf("ожидалась ErrPaymentProvider, получено: %v", err)
	}

	if _, err := CreateOrder(db, stubProvider{}, user, CreateOrderInput{
		CourseProductIDs: []uint{product.ID},
	}); err != nil {
		t.Fatalf("после FAILED-заказа покупка должна проходить: %v", err)
	}
}
