package server

import (
	authdomain "github.com/billfold/billfold/internal/auth/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const contextUserKey = "current_user"

// AuthRequired resolves the session cookie into a user and aborts with 401
// when there is none.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authSvc.ResolveSession(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return authdomain.User{}, false
	}
	user, ok := value.(authdomain.User)
	return user, ok
}

func currentUserID(c *gin.Context) snowflake.ID {
	user, _ := currentUser(c)
	return user.ID
}
