package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	notificationdomain "github.com/smallbiznis/leadhub/internal/notification/domain"
)

type listNotificationsQuery struct {
	pageQuery
	Unread string `form:"unread"`
}

func (s *Server) ListMyCredits(c *gin.Context) {
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ledgerSvc.ListMine(c.Request.Context(), ledgerdomain.ListEntriesRequest{
		Pagination: query.pagination(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      resp.Entries,
		"balance":   resp.Balance,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) ListNotifications(c *gin.Context) {
	var query listNotificationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	unread, err := parseOptionalBool(query.Unread)
	if err != nil {
		AbortWithError(c, newValidationError("unread", "invalid_unread", "invalid unread"))
		return
	}

	resp, err := s.notificationSvc.ListMine(c.Request.Context(), notificationdomain.ListRequest{
		Pagination: query.pagination(),
		UnreadOnly: unread != nil && *unread,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Notifications, "page_info": resp.PageInfo})
}

func (s *Server) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	notification, err := s.notificationSvc.MarkRead(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": notification})
}
