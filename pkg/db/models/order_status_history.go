package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavolo-app/tavolo-backend/pkg/enums"
)

// OrderStatusHistory is the append-only audit trail of status changes.
// Rows are written inside the same transaction as the status update and are
// never updated or deleted individually.
type OrderStatusHistory struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ChangedAt       time.Time         `gorm:"column:changed_at;not null"`
	ChangedByUserID uuid.UUID         `gorm:"column:changed_by_user_id;type:uuid;not null"`
}
