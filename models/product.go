package models

import (
	"time"
)

// Product represents a configurable made-to-order product in the catalog
type Product struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string      `gorm:"uniqueIndex;not null" json:"slug"`
	Description *string     `json:"description,omitempty"`
	BasePrice   float64     `gorm:"not null;check:base_price >= 0" json:"base_price"`
	ImageS3Key  *string     `json:"image_s3_key,omitempty"`                   // nullable, S3 key for the reference photo
	ImageURL    *string     `gorm:"-" json:"image_url,omitempty"`             // computed field, presigned URL for the photo
	Options     []Option    `gorm:"constraint:OnDelete:CASCADE" json:"options,omitempty"`
	Finishes    []Finish    `gorm:"many2many:product_finishes" json:"finishes,omitempty"`
	Components  []Component `gorm:"many2many:product_components" json:"components,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Component represents a physical part a product is built from
type Component struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"uniqueIndex;not null" json:"name"`
	Slug            string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description     *string   `json:"description,omitempty"`
	UnitCost        float64   `gorm:"not null;check:unit_cost >= 0" json:"unit_cost"`
	MeasurementUnit string    `gorm:"not null;default:'pc'" json:"measurement_unit"` // g, kg, l or pc
	SupplierSource  string    `json:"supplier_source"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Component model
func (Component) TableName() string {
	return "components"
}

// Option represents a configurable choice a product offers (e.g. size)
type Option struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Name      string        `gorm:"not null" json:"name"`
	ProductID uint          `gorm:"not null;index" json:"product_id"`
	Values    []OptionValue `gorm:"constraint:OnDelete:CASCADE" json:"values,omitempty"`
}

// TableName specifies the table name for the Option model
func (Option) TableName() string {
	return "options"
}

// OptionValue is one selectable value of an Option
type OptionValue struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	OptionID uint   `gorm:"not null;index" json:"option_id"`
	Value    string `gorm:"not null" json:"value"`
}

// TableName specifies the table name for the OptionValue model
func (OptionValue) TableName() string {
	return "option_values"
}

// Finish represents a surface-finish family (e.g. varnish, paint)
type Finish struct {
	ID      uint           `gorm:"primaryKey" json:"id"`
	Name    string         `gorm:"not null" json:"name"`
	Options []FinishOption `gorm:"constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// TableName specifies the table name for the Finish model
func (Finish) TableName() string {
	return "finishes"
}

// FinishOption is one selectable option within a Finish family
type FinishOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FinishID uint   `gorm:"not null;index" json:"finish_id"`
	Name     string `gorm:"not null" json:"name"`
}

// TableName specifies the table name for the FinishOption model
func (FinishOption) TableName() string {
	return "finish_options"
}
