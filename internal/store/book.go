package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/pkg/apperr"
)

type BookStore interface {
	Get(ctx context.Context, id string) (*models.Book, error)
	GetByISBN(ctx context.Context, isbn string) (*models.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Save(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, from, size int) ([]*models.Book, int64, error)
	SearchByTerm(ctx context.Context, term string) ([]*models.Book, error)
	FindByYearRange(ctx context.Context, startYear, endYear int) ([]*models.Book, error)
	FindByAvailable(ctx context.Context, available bool) ([]*models.Book, error)
}

type bookStore struct {
	db *gorm.DB
}

func NewBookStore(db *gorm.DB) BookStore {
	return &bookStore{db: db}
}

func (s *bookStore) Get(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("book not found with id: %s", id)
		}
		return nil, fmt.Errorf("failed to load book %s: %w", id, err)
	}
	return &book, nil
}

func (s *bookStore) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, "isbn = ?", isbn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("book not found with isbn: %s", isbn)
		}
		return nil, fmt.Errorf("failed to load book by isbn: %w", err)
	}
	return &book, nil
}

func (s *bookStore) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	if isbn == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Book{}).Where("isbn = ?", isbn).Count(&count).Error
	return count > 0, err
}

func (s *bookStore) Save(ctx context.Context, book *models.Book) error {
	if err := s.db.WithContext(ctx).Save(book).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflictf("book already exists with isbn: %s", book.ISBN)
		}
		return fmt.Errorf("failed to save book: %w", err)
	}
	return nil
}

func (s *bookStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Book{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete book %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFoundf("book not found with id: %s", id)
	}
	return nil
}

func (s *bookStore) List(ctx context.Context, from, size int) ([]*models.Book, int64, error) {
	if size <= 0 {
		size = 10
	}
	if from < 0 {
		from = 0
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}
	var books []*models.Book
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Offset(from).
		Limit(size).
		Find(&books).Error
	return books, total, err
}

// SearchByTerm matches title or author, case-insensitive.
func (s *bookStore) SearchByTerm(ctx context.Context, term string) ([]*models.Book, error) {
	var books []*models.Book
	pattern := "%" + strings.ToLower(term) + "%"
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern).
		Find(&books).Error
	return books, err
}

func (s *bookStore) FindByYearRange(ctx context.Context, startYear, endYear int) ([]*models.Book, error) {
	var books []*models.Book
	err := s.db.WithContext(ctx).
		Where("publication_year >= ? AND publication_year <= ?", startYear, endYear).
		Order("publication_year asc").
		Find(&books).Error
	return books, err
}

func (s *bookStore) FindByAvailable(ctx context.Context, available bool) ([]*models.Book, error) {
	var books []*models.Book
	err := s.db.WithContext(ctx).Where("is_available = ?", available).Find(&books).Error
	return books, err
}
