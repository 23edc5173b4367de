package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/leadhub/internal/assignment/domain"
)

type respondAssignmentRequest struct {
	Action string `json:"action"`
}

type assignLeadRequest struct {
	LeadID         string `json:"lead_id"`
	ProfessionalID string `json:"professional_id"`
}

type listAssignmentsQuery struct {
	pageQuery
	Status string `form:"status"`
	LeadID string `form:"lead_id"`
}

func (s *Server) RespondAssignment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req respondAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.assignmentSvc.Respond(c.Request.Context(), assignmentdomain.RespondRequest{
		AssignmentID: id,
		Action:       req.Action,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) ListMyAssignments(c *gin.Context) {
	s.listAssignments(c, s.assignmentSvc.ListMine)
}

func (s *Server) AdminListAssignments(c *gin.Context) {
	s.listAssignments(c, s.assignmentSvc.ListAll)
}

func (s *Server) listAssignments(c *gin.Context, list func(ctx context.Context, req assignmentdomain.ListRequest) (assignmentdomain.ListResponse, error)) {
	var query listAssignmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	leadID, err := parseOptionalSnowflakeID(query.LeadID)
	if err != nil {
		AbortWithError(c, newValidationError("lead_id", "invalid_lead_id", "invalid lead_id"))
		return
	}

	resp, err := list(c.Request.Context(), assignmentdomain.ListRequest{
		Pagination: query.pagination(),
		Status:     strings.TrimSpace(query.Status),
		LeadID:     leadID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Assignments, "page_info": resp.PageInfo})
}

func (s *Server) AdminAssignLead(c *gin.Context) {
	var req assignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	leadID, err := parseOptionalSnowflakeID(req.LeadID)
	if err != nil || leadID == 0 {
		AbortWithError(c, newValidationError("lead_id", "invalid_lead_id", "invalid lead_id"))
		return
	}
	professionalID, err := parseOptionalSnowflakeID(req.ProfessionalID)
	if err != nil || professionalID == 0 {
		AbortWithError(c, newValidationError("professional_id", "invalid_professional_id", "invalid professional_id"))
		return
	}

	assignment, err := s.assignmentSvc.Assign(c.Request.Context(), assignmentdomain.AssignRequest{
		LeadID:         leadID,
		ProfessionalID: professionalID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": assignment})
}

func (s *Server) AdminListLeadAssignments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	assignments, err := s.assignmentSvc.ListByLead(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

func (s *Server) AdminExpireAssignments(c *gin.Context) {
	expired, err := s.assignmentSvc.ExpireStale(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"expired": expired}})
}
