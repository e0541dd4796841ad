package book

import (
	"context"

	"go.uber.org/zap"

	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/apperr"
	"github.com/letrasvivas/bookapi/pkg/tool"
)

type Service struct {
	books store.BookStore
	log   *zap.SugaredLogger
}

func NewService(books store.BookStore, log *zap.SugaredLogger) *Service {
	return &Service{books: books, log: log}
}

type CreateParams struct {
	Title           string
	Author          string
	PublicationYear int
	Genre           string
	ISBN            string
	Description     string
	PageCount       int
}

// UpdateParams is a partial update: nil fields are left unchanged.
type UpdateParams struct {
	Title           *string
	Author          *string
	PublicationYear *int
	Genre           *string
	ISBN            *string
	Description     *string
	PageCount       *int
	IsAvailable     *bool
}

func (s *Service) Create(ctx context.Context, p *CreateParams) (*models.Book, error) {
	if p.ISBN != "" {
		exists, err := s.books.ExistsByISBN(ctx, p.ISBN)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperr.Conflictf("book already exists with isbn: %s", p.ISBN)
		}
	}

	book := &models.Book{
		ID:              tool.GenerateUUIDV7(),
		Title:           p.Title,
		Author:          p.Author,
		PublicationYear: p.PublicationYear,
		Genre:           p.Genre,
		ISBN:            p.ISBN,
		Description:     p.Description,
		PageCount:       p.PageCount,
		IsAvailable:     true,
	}
	if err := s.books.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Book, error) {
	return s.books.Get(ctx, id)
}

func (s *Service) GetByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return s.books.GetByISBN(ctx, isbn)
}

func (s *Service) List(ctx context.Context, from, size int) ([]*models.Book, int64, error) {
	return s.books.List(ctx, from, size)
}

func (s *Service) Update(ctx context.Context, id string, p *UpdateParams) (*models.Book, error) {
	book, err := s.books.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.ISBN != nil && *p.ISBN != book.ISBN && *p.ISBN != "" {
		taken, err := s.books.ExistsByISBN(ctx, *p.ISBN)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflictf("book already exists with isbn: %s", *p.ISBN)
		}
	}
	if p.ISBN != nil {
		book.ISBN = *p.ISBN
	}
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.PublicationYear != nil {
		book.PublicationYear = *p.PublicationYear
	}
	if p.Genre != nil {
		book.Genre = *p.Genre
	}
	if p.Description != nil {
		book.Description = *p.Description
	}
	if p.PageCount != nil {
		book.PageCount = *p.PageCount
	}
	if p.IsAvailable != nil {
		book.IsAvailable = *p.IsAvailable
	}

	if err := s.books.Save(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.books.Delete(ctx, id)
}

func (s *Service) SearchByTerm(ctx context.Context, term string) ([]*models.Book, error) {
	return s.books.SearchByTerm(ctx, term)
}

func (s *Service) ListByYearRange(ctx context.Context, startYear, endYear int) ([]*models.Book, error) {
	return s.books.FindByYearRange(ctx, startYear, endYear)
}

func (s *Service) ListByAvailable(ctx context.Context, available bool) ([]*models.Book, error) {
	return s.books.FindByAvailable(ctx, available)
}
