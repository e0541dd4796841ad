package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/letrasvivas/bookapi/internal/app/service/report"
	subsvc "github.com/letrasvivas/bookapi/internal/app/service/subscription"
	"github.com/letrasvivas/bookapi/internal/models"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/response"
	"github.com/letrasvivas/bookapi/pkg/types"
)

var maxSubscriptionPrice = decimal.RequireFromString("9999.99")

type CreateSubscriptionRequest struct {
	UserID         string          `json:"user_id" binding:"required,uuid"`
	PlanName       string          `json:"plan_name" binding:"required,min=3,max=50"`
	Price          decimal.Decimal `json:"price" binding:"required"`
	StartDate      types.Date      `json:"start_date" binding:"required"`
	DurationMonths int             `json:"duration_months" binding:"required,min=1,max=60"`
	AutoRenewal    bool            `json:"auto_renewal"`
	Description    string          `json:"description" binding:"max=255"`
}

type UpdateSubscriptionRequest struct {
	PlanName       *string          `json:"plan_name" binding:"omitempty,min=3,max=50"`
	Price          *decimal.Decimal `json:"price"`
	StartDate      *types.Date      `json:"start_date"`
	DurationMonths *int             `json:"duration_months" binding:"omitempty,min=1,max=60"`
	Status         *string          `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE SUSPENDED EXPIRED CANCELLED"`
	AutoRenewal    *bool            `json:"auto_renewal"`
	Description    *string          `json:"description" binding:"omitempty,max=255"`
}

type SubscriptionResponse struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"user_id"`
	PlanName            string          `json:"plan_name"`
	Price               decimal.Decimal `json:"price"`
	StartDate           types.Date      `json:"start_date"`
	EndDate             types.Date      `json:"end_date"`
	DurationMonths      int             `json:"duration_months"`
	Status              string          `json:"status"`
	AutoRenewal         bool            `json:"auto_renewal"`
	Description         string          `json:"description,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	IsExpired           bool            `json:"is_expired"`
	IsActive            bool            `json:"is_active"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
}

func toSubscriptionResponse(sub *models.Subscription, asOf types.Date) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                  sub.ID,
		UserID:              sub.UserID,
		PlanName:            sub.PlanName,
		Price:               sub.Price,
		StartDate:           sub.StartDate,
		EndDate:             sub.EndDate,
		DurationMonths:      sub.DurationMonths,
		Status:              string(sub.Status),
		AutoRenewal:         sub.AutoRenewal,
		Description:         sub.Description,
		CreatedAt:           sub.CreatedAt,
		UpdatedAt:           sub.UpdatedAt,
		IsExpired:           sub.IsExpired(asOf),
		IsActive:            sub.IsActive(asOf),
		DaysUntilExpiration: sub.DaysUntilExpiration(asOf),
	}
}

func toSubscriptionResponses(subs []*models.Subscription, asOf types.Date) []*SubscriptionResponse {
	return lo.Map(subs, func(sub *models.Subscription, _ int) *SubscriptionResponse {
		return toSubscriptionResponse(sub, asOf)
	})
}

func validateSubscriptionPrice(price decimal.Decimal) string {
	if !price.IsPositive() {
		return "price must be greater than 0"
	}
	if price.GreaterThan(maxSubscriptionPrice) {
		return "price must not exceed 9999.99"
	}
	if price.Exponent() < -2 {
		return "price must have at most 2 decimals"
	}
	return ""
}

// @Summary      List subscriptions
// @Description  Paginated subscription listing with from/size and sorting.
// @Tags         Subscription
// @Produce      json
// @Param        from       query  int     false  "Offset"
// @Param        size       query  int     false  "Page size (max 100)"
// @Param        sort_by    query  string  false  "Sort column"
// @Param        sort_order query  string  false  "asc or desc"
// @Success      200  {object}  response.APIResponse[store.SearchSubscriptionsResponse]
// @Router       /api/v1/subscriptions [get]
func ApiListSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, size, ok := paginationFromQuery(c)
		if !ok {
			return
		}
		sortBy := c.DefaultQuery("sort_by", "created_at")
		sortOrder := c.Query("sort_order")
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		res, err := svc.Search(c.Request.Context(), &store.SearchSubscriptionsRequest{
			From:      from,
			Size:      size,
			SortBy:    sortBy,
			SortOrder: sortOrder,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		asOf := types.Today()
		c.JSON(http.StatusOK, response.OKT(gin.H{
			"items": toSubscriptionResponses(res.Items, asOf),
			"total": res.Total,
		}))
	}
}

// @Summary      Get subscription
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  response.APIResponse[SubscriptionResponse]
// @Router       /api/v1/subscriptions/{id} [get]
func ApiGetSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponse(sub, types.Today())))
	}
}

// @Summary      Create subscription
// @Description  Creates an ACTIVE subscription; fails when the user is unknown or already holds an active subscription for the plan.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request  body  CreateSubscriptionRequest  true  "Subscription to create"
// @Success      201  {object}  response.APIResponse[SubscriptionResponse]
// @Router       /api/v1/subscriptions [post]
func ApiCreateSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if msg := validateSubscriptionPrice(req.Price); msg != "" {
			badRequest(c, msg)
			return
		}

		sub, err := svc.Create(c.Request.Context(), &subsvc.CreateParams{
			UserID:         req.UserID,
			PlanName:       req.PlanName,
			Price:          req.Price,
			StartDate:      req.StartDate,
			DurationMonths: req.DurationMonths,
			AutoRenewal:    req.AutoRenewal,
			Description:    req.Description,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.OKT(toSubscriptionResponse(sub, types.Today())))
	}
}

// @Summary      Update subscription
// @Description  Partial update; only fields present in the body are changed. The end date is recomputed when the start date or duration changes.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Subscription ID"
// @Param        request  body  UpdateSubscriptionRequest  true  "Fields to update"
// @Success      200  {object}  response.APIResponse[SubscriptionResponse]
// @Router       /api/v1/subscriptions/{id} [put]
func ApiUpdateSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.Price != nil {
			if msg := validateSubscriptionPrice(*req.Price); msg != "" {
				badRequest(c, msg)
				return
			}
		}

		params := &subsvc.UpdateParams{
			PlanName:       req.PlanName,
			Price:          req.Price,
			StartDate:      req.StartDate,
			DurationMonths: req.DurationMonths,
			AutoRenewal:    req.AutoRenewal,
			Description:    req.Description,
		}
		if req.Status != nil {
			status, err := types.ParseSubscriptionStatus(*req.Status)
			if err != nil {
				badRequest(c, err.Error())
				return
			}
			params.Status = &status
		}

		sub, err := svc.Update(c.Request.Context(), c.Param("id"), params)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponse(sub, types.Today())))
	}
}

// @Summary      Delete subscription
// @Description  Administrative hard delete, outside the lifecycle state machine.
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/subscriptions/{id} [delete]
func ApiDeleteSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"message": "subscription deleted", "subscription_id": id}))
	}
}

// @Summary      Cancel subscription
// @Description  Sets status to CANCELLED. Idempotent.
// @Tags         Subscription
// @Produce      json
// @Param        id  path  string  true  "Subscription ID"
// @Success      200  {object}  response.APIResponse[SubscriptionResponse]
// @Router       /api/v1/subscriptions/{id}/cancel [patch]
func ApiCancelSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.Cancel(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponse(sub, types.Today())))
	}
}

// @Summary      Subscriptions by user
// @Tags         Subscription
// @Produce      json
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/user/{userId} [get]
func ApiSubscriptionsByUser(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		subs, err := svc.ListByUser(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, types.Today())))
	}
}

// @Summary      Active subscriptions by user
// @Tags         Subscription
// @Produce      json
// @Param        userId  path  string  true  "User ID"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/user/{userId}/active [get]
func ApiActiveSubscriptionsByUser(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf := types.Today()
		subs, err := svc.ListActiveByUser(c.Request.Context(), c.Param("userId"), asOf)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, asOf)))
	}
}

// @Summary      Subscriptions by status
// @Tags         Subscription
// @Produce      json
// @Param        status  path  string  true  "ACTIVE|INACTIVE|SUSPENDED|EXPIRED|CANCELLED"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/status/{status} [get]
func ApiSubscriptionsByStatus(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := types.ParseSubscriptionStatus(c.Param("status"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		subs, err := svc.ListByStatus(c.Request.Context(), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, types.Today())))
	}
}

// @Summary      Expiring subscriptions
// @Description  ACTIVE subscriptions whose end date falls within the next days_ahead days.
// @Tags         Subscription
// @Produce      json
// @Param        days_ahead  query  int  false  "Days ahead (1-365, default 30)"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/expiring [get]
func ApiExpiringSubscriptions(rep *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		daysAhead := 30
		if v := c.Query("days_ahead"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 365 {
				badRequest(c, "days_ahead must be between 1 and 365")
				return
			}
			daysAhead = n
		}
		asOf := types.Today()
		subs, err := rep.ExpiringSoon(c.Request.Context(), daysAhead, asOf)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, asOf)))
	}
}

// @Summary      Expired but still ACTIVE subscriptions
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/expired-active [get]
func ApiExpiredActiveSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf := types.Today()
		subs, err := svc.ListExpiredButStillActive(c.Request.Context(), asOf)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, asOf)))
	}
}

// @Summary      Reconcile expired subscriptions
// @Description  Batch-transitions stale ACTIVE subscriptions to EXPIRED and reports the count.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/subscriptions/update-expired [patch]
func ApiUpdateExpiredSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := svc.ReconcileExpired(c.Request.Context(), types.Today())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"updated_count": count}))
	}
}

// @Summary      Search subscriptions by plan name
// @Tags         Subscription
// @Produce      json
// @Param        plan_name  query  string  true  "Plan name fragment, case-insensitive"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/search/plan [get]
func ApiSearchSubscriptionsByPlan(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		term := c.Query("plan_name")
		if term == "" {
			badRequest(c, "missing plan_name")
			return
		}
		subs, err := svc.SearchByPlanName(c.Request.Context(), term)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, types.Today())))
	}
}

// @Summary      Subscriptions by price range
// @Tags         Subscription
// @Produce      json
// @Param        min_price  query  string  true  "Minimum price"
// @Param        max_price  query  string  true  "Maximum price"
// @Success      200  {object}  response.APIResponse[[]SubscriptionResponse]
// @Router       /api/v1/subscriptions/price-range [get]
func ApiSubscriptionsByPriceRange(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		minPrice, err := decimal.NewFromString(c.Query("min_price"))
		if err != nil {
			badRequest(c, "invalid min_price")
			return
		}
		maxPrice, err := decimal.NewFromString(c.Query("max_price"))
		if err != nil {
			badRequest(c, "invalid max_price")
			return
		}
		subs, err := svc.ListByPriceRange(c.Request.Context(), minPrice, maxPrice)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(toSubscriptionResponses(subs, types.Today())))
	}
}

// @Summary      Advanced subscription search
// @Description  Filtered, paginated search over subscription fields.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request  body  store.SearchSubscriptionsRequest  true  "Search request"
// @Success      200  {object}  response.APIResponse[store.SearchSubscriptionsResponse]
// @Router       /api/v1/subscriptions/search [post]
func ApiSearchSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req store.SearchSubscriptionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.Search(c.Request.Context(), &req)
		if err != nil {
			writeError(c, err)
			return
		}
		asOf := types.Today()
		c.JSON(http.StatusOK, response.OKT(gin.H{
			"items": toSubscriptionResponses(res.Items, asOf),
			"total": res.Total,
		}))
	}
}

// @Summary      Count subscriptions by status
// @Tags         Subscription
// @Produce      json
// @Param        status  path  string  true  "ACTIVE|INACTIVE|SUSPENDED|EXPIRED|CANCELLED"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/subscriptions/count/status/{status} [get]
func ApiCountSubscriptionsByStatus(rep *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := types.ParseSubscriptionStatus(c.Param("status"))
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		count, err := rep.CountByStatus(c.Request.Context(), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"status": string(status), "count": count}))
	}
}

// @Summary      Revenue by date range
// @Description  Total subscription revenue for start dates inside [start_date, end_date]; zero when empty.
// @Tags         Subscription
// @Produce      json
// @Param        start_date  query  string  true  "Range start (YYYY-MM-DD)"
// @Param        end_date    query  string  true  "Range end (YYYY-MM-DD)"
// @Success      200  {object}  response.APIResponse[gin.H]
// @Router       /api/v1/subscriptions/revenue [get]
func ApiSubscriptionRevenue(rep *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := types.ParseDate(c.Query("start_date"))
		if err != nil {
			badRequest(c, "invalid start_date")
			return
		}
		end, err := types.ParseDate(c.Query("end_date"))
		if err != nil {
			badRequest(c, "invalid end_date")
			return
		}
		revenue, err := rep.Revenue(c.Request.Context(), start, end)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{
			"start_date":    start.String(),
			"end_date":      end.String(),
			"total_revenue": revenue,
		}))
	}
}

// @Summary      Most popular plans
// @Description  Plan names ranked by subscription count, descending; ties break alphabetically.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  response.APIResponse[[]store.PlanPopularity]
// @Router       /api/v1/subscriptions/popular-plans [get]
func ApiMostPopularPlans(rep *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := rep.MostPopularPlans(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(plans))
	}
}

// @Summary      Subscription statistics
// @Description  Per-status counts plus month-to-date revenue.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  response.APIResponse[report.Statistics]
// @Router       /api/v1/subscriptions/statistics [get]
func ApiSubscriptionStatistics(rep *report.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := rep.Statistics(c.Request.Context(), types.Today())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(stats))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subsvc.Service, rep *report.Service) {
	r.GET("", ApiListSubscriptions(svc))
	r.POST("", ApiCreateSubscription(svc))
	r.GET("/expiring", ApiExpiringSubscriptions(rep))
	r.GET("/expired-active", ApiExpiredActiveSubscriptions(svc))
	r.PATCH("/update-expired", ApiUpdateExpiredSubscriptions(svc))
	r.GET("/search/plan", ApiSearchSubscriptionsByPlan(svc))
	r.POST("/search", ApiSearchSubscriptions(svc))
	r.GET("/price-range", ApiSubscriptionsByPriceRange(svc))
	r.GET("/revenue", ApiSubscriptionRevenue(rep))
	r.GET("/popular-plans", ApiMostPopularPlans(rep))
	r.GET("/statistics", ApiSubscriptionStatistics(rep))
	r.GET("/user/:userId", ApiSubscriptionsByUser(svc))
	r.GET("/user/:userId/active", ApiActiveSubscriptionsByUser(svc))
	r.GET("/status/:status", ApiSubscriptionsByStatus(svc))
	r.GET("/count/status/:status", ApiCountSubscriptionsByStatus(rep))
	r.GET("/:id", ApiGetSubscription(svc))
	r.PUT("/:id", ApiUpdateSubscription(svc))
	r.DELETE("/:id", ApiDeleteSubscription(svc))
	r.PATCH("/:id/cancel", ApiCancelSubscription(svc))
}
