package model

import (
	"time"
)

// User is the profile row for an account in the external auth service.
// SCBalance is spendable; SCHeld is locked in escrow for pending sessions.
type User struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Email     string    `gorm:"type:varchar(191);uniqueIndex" json:"email"`
	SCBalance int64     `gorm:"column:sc_balance;not null;default:0" json:"sc_balance"`
	SCHeld    int64     `gorm:"column:sc_held;not null;default:0" json:"sc_held"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
