package model

import "time"

const (
	SkillTypeOnline  = "Online"
	SkillTypeOffline = "Offline"
)

// Skill is a marketplace listing. SCCost is what a booking holds in escrow.
type Skill struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProviderID    string    `gorm:"type:varchar(64);index;not null" json:"provider_id"`
	Title         string    `gorm:"type:varchar(191);not null" json:"title"`
	Category      string    `gorm:"type:varchar(64);index" json:"category"`
	Type          string    `gorm:"type:varchar(16)" json:"type"`
	DurationHours int       `json:"duration_hours"`
	SCCost        int64     `gorm:"column:sc_cost;not null" json:"sc_cost"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Skill) TableName() string {
	return "skills"
}
