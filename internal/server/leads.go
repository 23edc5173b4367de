package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	leaddomain "github.com/smallbiznis/leadhub/internal/lead/domain"
)

type createLeadRequest struct {
	ServiceID    string `json:"service_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

type reportIssueRequest struct {
	Note string `json:"note"`
}

type listLeadsQuery struct {
	pageQuery
	Status string `form:"status"`
}

func (s *Server) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	serviceID, err := parseOptionalSnowflakeID(req.ServiceID)
	if err != nil || serviceID == 0 {
		AbortWithError(c, newValidationError("service_id", "invalid_service_id", "invalid service_id"))
		return
	}

	lead, err := s.leadSvc.Create(c.Request.Context(), leaddomain.CreateLeadRequest{
		ServiceID:    serviceID,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": lead})
}

func (s *Server) ListMyLeads(c *gin.Context) {
	s.listLeads(c, s.leadSvc.ListMine)
}

func (s *Server) AdminListLeads(c *gin.Context) {
	s.listLeads(c, s.leadSvc.ListAll)
}

func (s *Server) listLeads(c *gin.Context, list func(ctx context.Context, req leaddomain.ListLeadsRequest) (leaddomain.ListLeadsResponse, error)) {
	var query listLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := list(c.Request.Context(), leaddomain.ListLeadsRequest{
		Pagination: query.pagination(),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Leads, "page_info": resp.PageInfo})
}

func (s *Server) GetLead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lead, err := s.leadSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lead})
}

func (s *Server) CompleteLead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	lead, err := s.leadSvc.Complete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lead})
}

func (s *Server) ReportLeadIssue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lead, err := s.leadSvc.ReportIssue(c.Request.Context(), leaddomain.ReportIssueRequest{
		ID:   id,
		Note: req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lead})
}
