package server

import (
	"net/http"

	authordomain "github.com/billfold/billfold/internal/author/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type createAuthorRequest struct {
	Name         string  `json:"name"`
	LinkedUserID *string `json:"linked_user_id"`
}

type updateAuthorRequest struct {
	Name         *string `json:"name"`
	LinkedUserID *string `json:"linked_user_id"`
}

func (s *Server) ListAuthors(c *gin.Context) {
	authors, err := s.authorSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (s *Server) CreateAuthor(c *gin.Context) {
	var req createAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	linked, ok := parseOptionalID(req.LinkedUserID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	author, err := s.authorSvc.Create(c.Request.Context(), authordomain.CreateAuthorRequest{
		UserID:       currentUserID(c),
		Name:         req.Name,
		LinkedUserID: linked,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"author": author})
}

func (s *Server) GetAuthorByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, authordomain.ErrNotFound)
		return
	}

	author, err := s.authorSvc.GetByID(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"author": author})
}

func (s *Server) UpdateAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, authordomain.ErrNotFound)
		return
	}

	var req updateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	linked, ok := parseOptionalID(req.LinkedUserID)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	author, err := s.authorSvc.Update(c.Request.Context(), authordomain.UpdateAuthorRequest{
		UserID:       currentUserID(c),
		ID:           id,
		Name:         req.Name,
		LinkedUserID: linked,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"author": author})
}

func (s *Server) DeleteAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		AbortWithError(c, authordomain.ErrNotFound)
		return
	}

	if err := s.authorSvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseOptionalID(raw *string) (*snowflake.ID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := snowflake.ParseString(*raw)
	if err != nil || id == 0 {
		return nil, false
	}
	return &id, true
}
