package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/univalle-lab/labstock-api/internal/middleware"
	"github.com/univalle-lab/labstock-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// responsibleFrom resolves the acting person for movement attribution.
func responsibleFrom(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return "system"
	}
	if claims.FullName != "" {
		return claims.FullName
	}
	return claims.UserID
}

func pageParams(c *gin.Context) (int, int) {
	page := 1
	pageSize := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	return page, pageSize
}

func paginationFor(page, pageSize, total int) *models.Pagination {
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
