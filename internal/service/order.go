package service

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/s/courseMarket/internal/models"
	"github.com/s/courseMarket/internal/payments"
)

// CreateOrderInput — корзина: идентификаторы продуктов + промокод
type CreateOrderInput struct {
	PromoCode         string `json:"promocode"`
	CourseProductIDs  []uint `json:"course_product_ids"`
	ServiceProductIDs []uint `json:"service_product_ids"`
}

// CreateOrder создает заказ в статусе CREATED и запрашивает платежную
// ссылку. Цены позиций фиксируются на момент покупки. Если провайдер
// не смог выдать ссылку, заказ переводится в FAILED и остается в БД.
func CreateOrder(db *gorm.DB, provider payments.Provider, user *models.User, in CreateOrderInput) (*models.Order, error) {
	if len(in.CourseProductIDs)+len(in.ServiceProductIDs) == 0 {
		return nil, ErrEmptyCart
	}

	courseProducts := make([]models.CourseProduct, 0, len(in.CourseProductIDs))
	for _, id := range in.CourseProductIDs {
		var product models.CourseProduct
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NotFound("Product")
			}
			return nil, err
		}
		courseProducts = append(courseProducts, product)
	}
	serviceProducts := make([]models.ServiceProduct, 0, len(in.ServiceProductIDs))
	for _, id := range in.ServiceProductIDs {
		var product models.ServiceProduct
		if err := db.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, NotFound("Product")
			}
			return nil, err
		}
		serviceProducts = append(serviceProducts, product)
	}

	// Повторная покупка запрещена: сверяемся с позициями уже
	// оплаченных заказов пользователя.
	purchasedCourse, purchasedService, err := purchasedProductIDs(db, user.ID, 0)
	if err != nil {
		return nil, err
	}
	var dupCourse, dupService []uint
	for _, id := range in.CourseProductIDs {
		if purchasedCourse[id] {
			dupCourse = append(dupCourse, id)
		}
	}
	for _, id := range in.ServiceProductIDs {
		if purchasedService[id] {
			dupService = append(dupService, id)
		}
	}
	if len(dupCourse)+len(dupService) > 0 {
		return nil, AlreadyPurchased(dupCourse, dupService)
	}

	userID := user.ID
	order := models.Order{
		UserID:    &userID,
		Status:    models.OrderStatusCreated,
		PromoCode: in.PromoCode,
	}
	for _, product := range courseProducts {
		order.Price += product.Price
		order.CourseProductItems = append(order.CourseProductItems, models.OrderCourseProductItem{
			CourseProductID: product.ID,
			Price:           product.Price,
		})
	}
	for _, product := range serviceProducts {
		order.Price += product.Price
		order.ServiceProductItems = append(order.ServiceProductItems, models.OrderServiceProductItem{
			ServiceProductID: product.ID,
			Price:            product.Price,
		})
	}

	if err := db.Create(&order).Error; err != nil {
		return nil, err
	}

	link, err := provider.CreateLink(&order)
	if err != nil {
		// Заказ не удаляем: он остается в FAILED для разбора инцидента
		log.Printf("Платежный провайдер не выдал ссылку для заказа %d: %v", order.ID, err)
		if dbErr := db.Model(&order).Update("status", models.OrderStatusFailed).Error; dbErr != nil {
			return nil, dbErr
		}
		return nil, ErrPaymentProvider
	}

	if err := db.Model(&order).Update("payment_link", link).Error; err != nil {
		return nil, err
	}
	order.PaymentLink = link
	return &order, nil
}

// ConfirmPayment обрабатывает callback об оплате. Вебхук может прийти
// повторно, поэтому уже оплаченный заказ — успешный no-op.
func ConfirmPayment(db *gorm.DB, orderID uint) error {
	var order models.Order
	err := db.Preload("CourseProductItems.CourseProduct").
		Preload("ServiceProductItems").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("Order")
		}
		return err
	}

	if order.Status == models.OrderStatusPayed {
		return nil
	}
	if order.UserID == nil {
		return NotFound("Order user")
	}
	userID := *order.UserID

	// Страховка от гонки двух callback'ов: если позиции заказа уже
	// оплачены другим заказом, доступ не выдаем.
	purchasedCourse, purchasedService, err := purchasedProductIDs(db, userID, order.ID)
	if err != nil {
		return err
	}
	var dupCourse, dupService []uint
	for _, item := range order.CourseProductItems {
		if purchasedCourse[item.CourseProductID] {
			dupCourse = append(dupCourse, item.CourseProductID)
		}
	}
	for _, item := range order.ServiceProductItems {
		if purchasedService[item.ServiceProductID] {
			dupService = append(dupService, item.ServiceProductID)
		}
	}
	if len(dupCourse)+len(dupService) > 0 {
		return AlreadyPurchased(dupCourse, dupService)
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	for _, item := range order.CourseProductItems {
		if err := grantCourseProduct(tx, item.CourseProduct, userID); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", models.OrderStatusPayed).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Update("status", models.UserStatusActive).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// purchasedProductIDs собирает продукты из всех PAYED-заказов
// пользователя. excludeOrderID исключает подтверждаемый заказ.
func purchasedProductIDs(db *gorm.DB, userID, excludeOrderID uint) (map[uint]bool, map[uint]bool, error) {
	var courseIDs []uint
	err := db.Model(&models.OrderCourseProductItem{}).
		Joins("JOIN orders ON orders.id = order_course_product_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", userID, models.OrderStatusPayed).
		Where("orders.id <> ?", excludeOrderID).
		Pluck("order_course_product_items.course_product_id", &courseIDs).Error
	if err != nil {
		return nil, nil, err
	}

	var serviceIDs []uint
	err = db.Model(&models.OrderServiceProductItem{}).
		Joins("JOIN orders ON orders.id = order_service_product_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", userID, models.OrderStatusPayed).
		Where("orders.id <> ?", excludeOrderID).
		Pluck("order_service_product_items.service_product_id", &serviceIDs).Error
	if err != nil {
		return nil, nil, err
	}

	course := make(map[uint]bool, len(courseIDs))
	for _, id := range courseIDs {
		course[id] = true
	}
	service := make(map[uint]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		service[id] = true
	}
	return course, service, nil
}
