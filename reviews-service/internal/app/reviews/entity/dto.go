package entity

import (
	"strings"

	"opaque/pkg/ratingstats"
)

// CreateReviewRequest - запрос на создание отзыва (форма на сайте)
type CreateReviewRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Country string `json:"country" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// Normalize обрезает пробелы по краям до проверки: поле из одних пробелов считается пустым
func (r *CreateReviewRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Country = strings.TrimSpace(r.Country)
	r.Content = strings.TrimSpace(r.Content)
}

// UpdateReviewRequest - частичное обновление из админки
// created_at только для чтения, поэтому его здесь нет
type UpdateReviewRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Country *string `json:"country" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content" validate:"omitempty,min=1"`
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

// IsEmpty сообщает, что в запросе нет ни одного поля для обновления
func (r UpdateReviewRequest) IsEmpty() bool {
	return r.Name == nil && r.Country == nil && r.Content == nil && r.Rating == nil
}

func (r *UpdateReviewRequest) Normalize() {
	for _, f := range []*string{r.Name, r.Country, r.Content} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// LoginRequest - вход администратора
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ReviewListResponse - страница списка отзывов в админке
type ReviewListResponse struct {
	Reviews  []ReviewSummary `json:"reviews"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Filters  FilterChoices   `json:"filters"`
}

// FilterChoices - варианты боковых фильтров списка
type FilterChoices struct {
	Rating  []int        `json:"rating"`
	Created []DateChoice `json:"created"`
}

type DateChoice struct {
	Value DateRange `json:"value"`
	Label string    `json:"label"`
}

type RatingDistribution = ratingstats.Distribution
