// model/book.go
package model

import "time"

type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          *string   `json:"isbn,omitempty"`
	Genre         string    `json:"genre,omitempty"`
	ShelfLocation string    `json:"shelf_location,omitempty"`
	Available     bool      `json:"available"`
	CreatedAt     time.Time `json:"created_at"`
}

// BookPatch carries a partial update; nil fields are left untouched.
type BookPatch struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	Genre         *string `json:"genre"`
	ShelfLocation *string `json:"shelf_location"`
	Available     *bool   `json:"available"`
}
