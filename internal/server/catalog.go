package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/leadhub/internal/catalog/domain"
)

type createCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type updateCategoryRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type createServiceRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	CreditCost int64  `json:"credit_cost"`
}

type updateServiceRequest struct {
	Name       *string `json:"name"`
	CreditCost *int64  `json:"credit_cost"`
	IsActive   *bool   `json:"is_active"`
}

func (s *Server) ListCategories(c *gin.Context) {
	s.listCategories(c, false)
}

func (s *Server) AdminListCategories(c *gin.Context) {
	s.listCategories(c, true)
}

func (s *Server) listCategories(c *gin.Context, includeInactive bool) {
	categories, err := s.catalogSvc.ListCategories(c.Request.Context(), includeInactive)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}

func (s *Server) ListServices(c *gin.Context) {
	s.listServices(c, false)
}

func (s *Server) AdminListServices(c *gin.Context) {
	s.listServices(c, true)
}

func (s *Server) listServices(c *gin.Context, includeInactive bool) {
	categoryID, err := parseOptionalSnowflakeID(c.Query("category_id"))
	if err != nil {
		AbortWithError(c, newValidationError("category_id", "invalid_category_id", "invalid category_id"))
		return
	}

	offerings, err := s.catalogSvc.ListOfferings(c.Request.Context(), catalogdomain.ListOfferingsRequest{
		CategoryID:      categoryID,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offerings})
}

func (s *Server) AdminCreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.CreateCategory(c.Request.Context(), catalogdomain.CreateCategoryRequest{
		Name: strings.TrimSpace(req.Name),
		Slug: strings.TrimSpace(req.Slug),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": category})
}

func (s *Server) AdminUpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	category, err := s.catalogSvc.UpdateCategory(c.Request.Context(), catalogdomain.UpdateCategoryRequest{
		ID:       id,
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": category})
}

func (s *Server) AdminCreateService(c *gin.Context) {
	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	categoryID, err := parseOptionalSnowflakeID(req.CategoryID)
	if err != nil || categoryID == 0 {
		AbortWithError(c, newValidationError("category_id", "invalid_category_id", "invalid category_id"))
		return
	}

	offering, err := s.catalogSvc.CreateOffering(c.Request.Context(), catalogdomain.CreateOfferingRequest{
		CategoryID: categoryID,
		Name:       strings.TrimSpace(req.Name),
		Slug:       strings.TrimSpace(req.Slug),
		CreditCost: req.CreditCost,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": offering})
}

func (s *Server) AdminUpdateService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	offering, err := s.catalogSvc.UpdateOffering(c.Request.Context(), catalogdomain.UpdateOfferingRequest{
		ID:         id,
		Name:       req.Name,
		CreditCost: req.CreditCost,
		IsActive:   req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": offering})
}
