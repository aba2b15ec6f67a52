package server

import (
	"net/http"

	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	entries, info, err := s.auditSvc.List(c.Request.Context(), currentUserID(c), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"audit_logs": entries,
		"page_info":  info,
	})
}
