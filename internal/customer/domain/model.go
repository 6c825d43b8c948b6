package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Customer struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	Phone     string       `json:"phone" gorm:"type:text;not null;uniqueIndex:ux_customers_phone"`
	Email     string       `json:"email" gorm:"type:text;not null;default:''"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

var (
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrInvalidPhone     = errors.New("invalid_phone")
)
