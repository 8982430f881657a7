package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Review представляет отзыв посетителя
// CreatedAt заполняется хранилищем при вставке и больше не меняется
type Review struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Country   string    `json:"country" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName указывает имя таблицы для GORM
func (Review) TableName() string {
	return "reviews"
}

func (r Review) String() string {
	return fmt.Sprintf("Review by %s (%s)", r.Name, r.Country)
}

// Summary - строка списка в админке (колонки name, country, rating, created_at)
func (r Review) Summary() ReviewSummary {
	return ReviewSummary{
		ID:        r.ID,
		Name:      r.Name,
		Country:   r.Country,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}

type ReviewSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminUser - учетная запись администратора панели отзывов
type AdminUser struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	IsActive     bool       `json:"is_active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
