package models

import "time"

// Book is a catalog entry. ISBN is unique when present.
type Book struct {
	ID              string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Title           string `gorm:"column:title;type:varchar(200);not null;index" json:"title"`
	Author          string `gorm:"column:author;type:varchar(100);not null;index" json:"author"`
	PublicationYear int    `gorm:"column:publication_year;not null" json:"publication_year"`
	Genre           string `gorm:"column:genre;type:varchar(50)" json:"genre"`
	ISBN            string `gorm:"column:isbn;type:varchar(20);uniqueIndex:udx_book_isbn,where:isbn <> ''" json:"isbn"`
	Description     string `gorm:"column:description;type:varchar(500)" json:"description"`
	PageCount       int    `gorm:"column:page_count" json:"page_count"`
	IsAvailable     bool   `gorm:"column:is_available;not null;default:true" json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "book"
}
