package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/payrelay/internal/account/domain"
)

// GetAccount looks up a stored bank account by type and account number.
func (s *Server) GetAccount(c *gin.Context) {
	accType, ok := domain.ParseAccountType(c.Param("type"))
	if !ok {
		AbortWithError(c, domain.ErrInvalidType)
		return
	}

	account, err := s.accountSvc.Lookup(c.Request.Context(), accType, c.Param("acc_no"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": account})
}
