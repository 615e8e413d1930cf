package models

import "time"

type Category struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name" validate:"required"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CategoryImg string    `json:"categoryImg,omitempty" bson:"categoryImg,omitempty"`
	Parent      *string   `json:"parent" bson:"parent"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Product struct {
	ID            string    `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name" validate:"required"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	OriginalPrice float64   `json:"originalPrice" bson:"originalPrice" validate:"gt=0"`
	CurrentPrice  float64   `json:"currentPrice" bson:"currentPrice" validate:"gt=0"`
	Category      string    `json:"category" bson:"category" validate:"required"`
	MainImage     string    `json:"mainImage,omitempty" bson:"mainImage,omitempty"`
	Images        []string  `json:"images,omitempty" bson:"images,omitempty"`
	Stock         int       `json:"stock" bson:"stock" validate:"gte=0"`
	Ratings       float64   `json:"ratings" bson:"ratings"`
	BestSeller    bool      `json:"bestSeller" bson:"bestSeller"`
	IsFeatured    bool      `json:"isFeatured" bson:"isFeatured"`
	IsTrending    bool      `json:"isTrending" bson:"isTrending"`
	Brand         string    `json:"brand,omitempty" bson:"brand,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}
