package models

import "time"

// Book is a catalog entry. Available is the only loan-state indicator: there
// is no loan record, so the borrower is never known.
type Book struct {
	ID        uint      `gorm:"primaryKey;column:id" json:"id"`
	Title     string    `gorm:"column:title;not null;uniqueIndex:idx_books_title_author" json:"title"`
	Author    string    `gorm:"column:author;not null;uniqueIndex:idx_books_title_author" json:"author"`
	Genre     string    `gorm:"column:genre;not null" json:"genre"`
	Available bool      `gorm:"column:available;not null" json:"available"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookCreate is the body of POST /admin/books. Available defaults to true.
type BookCreate struct {
	Title     string `json:"title" binding:"required"`
	Author    string `json:"author" binding:"required"`
	Genre     string `json:"genre" binding:"required"`
	Available *bool  `json:"available"`
}

// BookUpdate carries only the fields the caller wants changed.
type BookUpdate struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Genre     *string `json:"genre"`
	Available *bool   `json:"available"`
}

// Empty reports whether no field was supplied.
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil && u.Available == nil
}

// CirculationRequest is the body of POST /borrow and POST /return.
type CirculationRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
