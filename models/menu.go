package models

import "time"

type Category string

const (
	CategoryCoffee Category = "coffee"
	CategoryTea    Category = "tea"
	CategoryFood   Category = "food"
	CategoryOther  Category = "other"
)

var Categories = []Category{CategoryCoffee, CategoryTea, CategoryFood, CategoryOther}

func (c Category) Valid() bool {
	switch c {
	case CategoryCoffee, CategoryTea, CategoryFood, CategoryOther:
		return true
	}
	return false
}

type MenuItem struct {
	ID           string    `json:"id" yaml:"id"`
	StoreID      string    `json:"store_id" yaml:"-"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	Price        int64     `json:"price" yaml:"price"`
	Category     Category  `json:"category" yaml:"category"`
	ImageRef     string    `json:"image_ref,omitempty" yaml:"image_ref"`
	IsActive     bool      `json:"is_active" yaml:"is_active"`
	IsVisible    bool      `json:"is_visible" yaml:"is_visible"`
	StockManaged bool      `json:"stock_managed" yaml:"stock_managed"`
	Stock        int       `json:"stock" yaml:"stock"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// Sellable reports whether the item may be ordered at all. A stock-managed
// item with zero stock is never sellable, whatever its active flag says.
func (m *MenuItem) Sellable() bool {
	if !m.IsActive || !m.IsVisible {
		return false
	}
	return !m.StockManaged || m.Stock > 0
}

// CanFulfil is Sellable plus enough stock for qty units.
func (m *MenuItem) CanFulfil(qty int) bool {
	if !m.Sellable() {
		return false
	}
	return !m.StockManaged || m.Stock >= qty
}
