package models

import (
	"time"
)

// Client represents a customer who places orders
type Client struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClientName  string    `gorm:"not null" json:"client_name"`
	ClientPhone string    `gorm:"not null" json:"client_phone"`
	ClientEmail string    `gorm:"not null" json:"client_email"`
	Orders      []Order   `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"orders,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
