package models

// Роли пользователей. В БД хранится строка, чтобы JSON совпадал
// с публичным API (ADMIN/TEACHER/STUDENT).
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

// Статусы пользователя
const (
	UserStatusRegistered = "REGISTERED"
	UserStatusActive     = "ACTIVE"
	UserStatusArchived   = "ARCHIVED"
)

// Статусы заказа
const (
	OrderStatusCreated = "CREATED"
	OrderStatusFailed  = "FAILED"
	OrderStatusPayed   = "PAYED"
)

// Статусы проверки домашнего задания
const (
	HwStatusPending     = "PENDING"
	HwStatusNotApproved = "NOT_APPROVED"
	HwStatusApproved    = "APPROVED"
)

// Отправители сообщений в чате
const (
	SenderStudent = "STUDENT"
	SenderTeacher = "TEACHER"
)

// Типы скидок на продукты: P — процент, R — фиксированная сумма
const (
	DiscountTypePercent = "P"
	DiscountTypeRaw     = "R"
)
