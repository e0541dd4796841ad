package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	usersvc "github.com/letrasvivas/bookapi/internal/app/service/user"
	"github.com/letrasvivas/bookapi/pkg/response"
)

type CreateUserRequest struct {
	FirstName   string `json:"first_name" binding:"required,min=1,max=50"`
	LastName    string `json:"last_name" binding:"required,min=1,max=50"`
	Email       string `json:"email" binding:"required,email,max=100"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=16"`
	Age         int    `json:"age" binding:"omitempty,min=0,max=150"`
}

type UpdateUserRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=50"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=50"`
	Email       *string `json:"email" binding:"omitempty,email,max=100"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=16"`
	Age         *int    `json:"age" binding:"omitempty,min=0,max=150"`
	IsActive    *bool   `json:"is_active"`
}

// @Summary      List users
// @Tags         User
// @Produce      json
// @Param        from  query  int  false  "Offset"
// @Param        size  query  int  false  "Page size (max 100)"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/users [get]
func ApiListUsers(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, size, ok := paginationFromQuery(c)
		if !ok {
			return
		}
		users, total, err := svc.List(c.Request.Context(), from, size)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"items": users, "total": total}))
	}
}

// @Summary      Get user
// @Tags         User
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  response.APIResponse[models.User]
// @Router       /api/v1/users/{id} [get]
func ApiGetUser(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// @Summary      Get user by email
// @Tags         User
// @Produce      json
// @Param        email  path  string  true  "Email"
// @Success      200  {object}  response.APIResponse[models.User]
// @Router       /api/v1/users/email/{email} [get]
func ApiGetUserByEmail(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.GetByEmail(c.Request.Context(), c.Param("email"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// @Summary      Create user
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request  body  CreateUserRequest  true  "User to create"
// @Success      201  {object}  response.APIResponse[models.User]
// @Router       /api/v1/users [post]
func ApiCreateUser(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		user, err := svc.Create(c.Request.Context(), &usersvc.CreateParams{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Age:         req.Age,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(user))
	}
}

// @Summary      Update user
// @Description  Partial update; only fields present in the body are changed.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "User ID"
// @Param        request  body  UpdateUserRequest  true  "Fields to update"
// @Success      200  {object}  response.APIResponse[models.User]
// @Router       /api/v1/users/{id} [put]
func ApiUpdateUser(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		user, err := svc.Update(c.Request.Context(), c.Param("id"), &usersvc.UpdateParams{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Age:         req.Age,
			IsActive:    req.IsActive,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(user))
	}
}

// @Summary      Delete user
// @Tags         User
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/users/{id} [delete]
func ApiDeleteUser(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"message": "user deleted", "user_id": id}))
	}
}

// @Summary      Search users by name
// @Tags         User
// @Produce      json
// @Param        name  query  string  true  "Name fragment, case-insensitive"
// @Success      200  {object}  response.APIResponse[[]models.User]
// @Router       /api/v1/users/search [get]
func ApiSearchUsers(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		term := c.Query("name")
		if term == "" {
			badRequest(c, "missing name")
			return
		}
		users, err := svc.SearchByName(c.Request.Context(), term)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(users))
	}
}

// @Summary      Users by active flag
// @Tags         User
// @Produce      json
// @Param        active  query  bool  false  "Active flag (default true)"
// @Success      200  {object}  response.APIResponse[[]models.User]
// @Router       /api/v1/users/active [get]
func ApiUsersByActive(svc *usersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := true
		if v := c.Query("active"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(c, "invalid active flag")
				return
			}
			active = parsed
		}
		users, err := svc.ListByActive(c.Request.Context(), active)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(users))
	}
}

func RegisterUserRoutes(r gin.IRouter, svc *usersvc.Service) {
	r.GET("", ApiListUsers(svc))
	r.POST("", ApiCreateUser(svc))
	r.GET("/search", ApiSearchUsers(svc))
	r.GET("/active", ApiUsersByActive(svc))
	r.GET("/email/:email", ApiGetUserByEmail(svc))
	r.GET("/:id", ApiGetUser(svc))
	r.PUT("/:id", ApiUpdateUser(svc))
	r.DELETE("/:id", ApiDeleteUser(svc))
}
