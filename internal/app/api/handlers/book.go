package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	booksvc "github.com/letrasvivas/bookapi/internal/app/service/book"
	"github.com/letrasvivas/bookapi/pkg/response"
)

type CreateBookRequest struct {
	Title           string `json:"title" binding:"required,min=1,max=200"`
	Author          string `json:"author" binding:"required,min=1,max=100"`
	PublicationYear int    `json:"publication_year" binding:"required,min=1000"`
	Genre           string `json:"genre" binding:"omitempty,max=50"`
	ISBN            string `json:"isbn" binding:"omitempty,min=10,max=20"`
	Description     string `json:"description" binding:"omitempty,max=500"`
	PageCount       int    `json:"page_count" binding:"omitempty,min=1"`
}

type UpdateBookRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Author          *string `json:"author" binding:"omitempty,min=1,max=100"`
	PublicationYear *int    `json:"publication_year" binding:"omitempty,min=1000"`
	Genre           *string `json:"genre" binding:"omitempty,max=50"`
	ISBN            *string `json:"isbn" binding:"omitempty,min=10,max=20"`
	Description     *string `json:"description" binding:"omitempty,max=500"`
	PageCount       *int    `json:"page_count" binding:"omitempty,min=1"`
	IsAvailable     *bool   `json:"is_available"`
}

// @Summary      List books
// @Tags         Book
// @Produce      json
// @Param        from  query  int  false  "Offset"
// @Param        size  query  int  false  "Page size (max 100)"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/books [get]
func ApiListBooks(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, size, ok := paginationFromQuery(c)
		if !ok {
			return
		}
		books, total, err := svc.List(c.Request.Context(), from, size)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"items": books, "total": total}))
	}
}

// @Summary      Get book
// @Tags         Book
// @Produce      json
// @Param        id  path  string  true  "Book ID"
// @Success      200  {object}  response.APIResponse[models.Book]
// @Router       /api/v1/books/{id} [get]
func ApiGetBook(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(book))
	}
}

// @Summary      Get book by ISBN
// @Tags         Book
// @Produce      json
// @Param        isbn  path  string  true  "ISBN"
// @Success      200  {object}  response.APIResponse[models.Book]
// @Router       /api/v1/books/isbn/{isbn} [get]
func ApiGetBookByISBN(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		book, err := svc.GetByISBN(c.Request.Context(), c.Param("isbn"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(book))
	}
}

// @Summary      Create book
// @Tags         Book
// @Accept       json
// @Produce      json
// @Param        request  body  CreateBookRequest  true  "Book to create"
// @Success      201  {object}  response.APIResponse[models.Book]
// @Router       /api/v1/books [post]
func ApiCreateBook(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.PublicationYear > time.Now().Year()+1 {
			badRequest(c, "publication_year is in the future")
			return
		}
		book, err := svc.Create(c.Request.Context(), &booksvc.CreateParams{
			Title:           req.Title,
			Author:          req.Author,
			PublicationYear: req.PublicationYear,
			Genre:           req.Genre,
			ISBN:            req.ISBN,
			Description:     req.Description,
			PageCount:       req.PageCount,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(book))
	}
}

// @Summary      Update book
// @Description  Partial update; only fields present in the body are changed.
// @Tags         Book
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "Book ID"
// @Param        request  body  UpdateBookRequest  true  "Fields to update"
// @Success      200  {object}  response.APIResponse[models.Book]
// @Router       /api/v1/books/{id} [put]
func ApiUpdateBook(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		book, err := svc.Update(c.Request.Context(), c.Param("id"), &booksvc.UpdateParams{
			Title:           req.Title,
			Author:          req.Author,
			PublicationYear: req.PublicationYear,
			Genre:           req.Genre,
			ISBN:            req.ISBN,
			Description:     req.Description,
			PageCount:       req.PageCount,
			IsAvailable:     req.IsAvailable,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(book))
	}
}

// @Summary      Delete book
// @Tags         Book
// @Produce      json
// @Param        id  path  string  true  "Book ID"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/books/{id} [delete]
func ApiDeleteBook(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"message": "book deleted", "book_id": id}))
	}
}

// @Summary      Search books
// @Description  Case-insensitive match over title and author.
// @Tags         Book
// @Produce      json
// @Param        q  query  string  true  "Search term"
// @Success      200  {object}  response.APIResponse[[]models.Book]
// @Router       /api/v1/books/search [get]
func ApiSearchBooks(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		term := c.Query("q")
		if term == "" {
			badRequest(c, "missing q")
			return
		}
		books, err := svc.SearchByTerm(c.Request.Context(), term)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(books))
	}
}

// @Summary      Books by publication year range
// @Tags         Book
// @Produce      json
// @Param        start_year  query  int  true  "Range start"
// @Param        end_year    query  int  true  "Range end"
// @Success      200  {object}  response.APIResponse[[]models.Book]
// @Router       /api/v1/books/year-range [get]
func ApiBooksByYearRange(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		startYear, err := strconv.Atoi(c.Query("start_year"))
		if err != nil {
			badRequest(c, "invalid start_year")
			return
		}
		endYear, err := strconv.Atoi(c.Query("end_year"))
		if err != nil {
			badRequest(c, "invalid end_year")
			return
		}
		books, err := svc.ListByYearRange(c.Request.Context(), startYear, endYear)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(books))
	}
}

// @Summary      Books by availability
// @Tags         Book
// @Produce      json
// @Param        available  query  bool  false  "Availability flag (default true)"
// @Success      200  {object}  response.APIResponse[[]models.Book]
// @Router       /api/v1/books/available [get]
func ApiBooksByAvailable(svc *booksvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		available := true
		if v := c.Query("available"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(c, "invalid available flag")
				return
			}
			available = parsed
		}
		books, err := svc.ListByAvailable(c.Request.Context(), available)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(books))
	}
}

func RegisterBookRoutes(r gin.IRouter, svc *booksvc.Service) {
	r.GET("", ApiListBooks(svc))
	r.POST("", ApiCreateBook(svc))
	r.GET("/search", ApiSearchBooks(svc))
	r.GET("/year-range", ApiBooksByYearRange(svc))
	r.GET("/available", ApiBooksByAvailable(svc))
	r.GET("/isbn/:isbn", ApiGetBookByISBN(svc))
	r.GET("/:id", ApiGetBook(svc))
	r.PUT("/:id", ApiUpdateBook(svc))
	r.DELETE("/:id", ApiDeleteBook(svc))
}
