package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
)

type createBundleRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Credits  int64  `json:"credits"`
}

type updateBundleRequest struct {
	Name     *string `json:"name"`
	Price    *int64  `json:"price"`
	Credits  *int64  `json:"credits"`
	IsActive *bool   `json:"is_active"`
}

type listUsersQuery struct {
	pageQuery
	Role   string `form:"role"`
	Status string `form:"status"`
}

type setUserStatusRequest struct {
	Status string `json:"status"`
}

type setTrustScoreRequest struct {
	Score *int `json:"score"`
}

func (s *Server) AdminListBundles(c *gin.Context) {
	bundles, err := s.bundleSvc.List(c.Request.Context(), true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bundles})
}

func (s *Server) AdminCreateBundle(c *gin.Context) {
	var req createBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bundle, err := s.bundleSvc.Create(c.Request.Context(), bundledomain.CreateBundleRequest{
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Currency: strings.TrimSpace(req.Currency),
		Credits:  req.Credits,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": bundle})
}

func (s *Server) AdminUpdateBundle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	bundle, err := s.bundleSvc.Update(c.Request.Context(), bundledomain.UpdateBundleRequest{
		ID:       id,
		Name:     req.Name,
		Price:    req.Price,
		Credits:  req.Credits,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bundle})
}

func (s *Server) AdminListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.List(c.Request.Context(), userdomain.ListUsersRequest{
		Pagination: query.pagination(),
		Role:       strings.ToUpper(strings.TrimSpace(query.Role)),
		Status:     strings.ToUpper(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Users, "page_info": resp.PageInfo})
}

func (s *Server) AdminSetUserStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.SetStatus(c.Request.Context(), userdomain.SetStatusRequest{
		UserID: id,
		Status: strings.ToUpper(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) AdminSetTrustScore(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req setTrustScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Score == nil {
		AbortWithError(c, newValidationError("score", "invalid_trust_score", "score is required"))
		return
	}

	profile, err := s.userSvc.SetTrustScore(c.Request.Context(), userdomain.SetTrustScoreRequest{
		UserID: id,
		Score:  *req.Score,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profile})
}
