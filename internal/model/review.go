package model

import "time"

type Review struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	ReviewerID string    `gorm:"type:varchar(64);not null" json:"reviewer_id"`
	RevieweeID string    `gorm:"type:varchar(64);index;not null" json:"reviewee_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
