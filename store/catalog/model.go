// Package catalog manages the bookstore's public inventory: categories and
// the books within them. Reads are public, including for anonymous callers;
// all writes are admin only.
package catalog

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category groups books. Names are unique across the catalog.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// PK implements storage.Model.
func (c Category) PK() string {
	return c.ID
}

func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 120)),
	)
}

// Book is a catalog item. Prices are integer cents. Rating and ReviewCount
// are denormalized aggregates maintained by the reviews service.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Code          string    `json:"code,omitempty"` // External catalog code (ISBN); unique when set.
	Price         int64     `json:"price"`
	OriginalPrice *int64    `json:"originalPrice,omitempty"` // Pre-discount price, when discounted.
	CategoryID    string    `json:"categoryId,omitempty"`
	Stock         int       `json:"stock"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"reviewCount"`
	Featured      bool      `json:"featured"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

// PK implements storage.Model.
func (b Book) PK() string {
	return b.ID
}

func (b Book) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Title, validation.Required, validation.Length(1, 250)),
		validation.Field(&b.Author, validation.Required),
		validation.Field(&b.Price, validation.Min(int64(0))),
		validation.Field(&b.Stock, validation.Min(0)),
		validation.Field(&b.Rating, validation.Min(0.0), validation.Max(5.0)),
	)
}
