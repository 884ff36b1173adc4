package models

import "time"

// Order (Заказ). Price — сумма позиций на момент покупки.
// UserID nullable: при удалении пользователя заказы остаются для отчетности.
type Order struct {
	ID          uint      `gorm:"primarykey" json:"order_id"`
	UserID      *uint     `json:"user_id"`
	Status      string    `gorm:"size:10;not null;default:CREATED" json:"status"`
	Price       uint      `json:"price"`
	PromoCode   string    `gorm:"size:30" json:"promocode,omitempty"`
	PaymentLink string    `gorm:"size:255" json:"payment_link"`
	CreatedAt   time.Time `json:"created_at"`

	User                *User                     `json:"-"`
	CourseProductItems  []OrderCourseProductItem  `json:"course_product_items" gorm:"constraint:OnDelete:CASCADE;"`
	ServiceProductItems []OrderServiceProductItem `json:"service_product_items" gorm:"constraint:OnDelete:CASCADE;"`
}

// OrderCourseProductItem — позиция заказа с зафиксированной ценой.
// Цена копируется из продукта при создании заказа и больше не меняется.
type OrderCourseProductItem struct {
	ID              uint `gorm:"primarykey" json:"item_id"`
	OrderID         uint `gorm:"not null;index" json:"-"`
	CourseProductID uint `gorm:"not null" json:"course_product_id"`
	Price           uint `json:"price"`

	CourseProduct CourseProduct `json:"-"`
}

// OrderServiceProductItem — позиция заказа на услугу
type OrderServiceProductItem struct {
	ID               uint `gorm:"primarykey" json:"item_id"`
	OrderID          uint `gorm:"not null;index" json:"-"`
	ServiceProductID uint `gorm:"not null" json:"service_product_id"`
	Price            uint `json:"price"`

	ServiceProduct ServiceProduct `json:"-"`
}
