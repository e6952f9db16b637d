package handlers

import (
	"net/http"
	"strings"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

const devTokenTTL = 24 * time.Hour

type tokenRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

// IssueDevToken is mounted outside release mode only. Accounts live in
// the upstream identity service; this endpoint lets local clients act as
// any user.
// POST /api/auth/token
func (h *Handler) IssueDevToken(c *gin.Context) {
	var req tokenRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case domain.RoleDriver, domain.RolePassenger, domain.RoleAdmin:
	default:
		RespondDomainError(c, domain.ValidationError{Field: "role", Msg: "must be driver, passenger or admin"})
		return
	}
	if req.UserID <= 0 {
		RespondDomainError(c, domain.ValidationError{Field: "user_id", Msg: "must be positive"})
		return
	}

	token, err := middleware.IssueToken(h.Secret, req.UserID, role, devTokenTTL)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "cannot issue token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"user_id":    req.UserID,
		"role":       role,
		"expires_in": int(devTokenTTL.Seconds()),
	})
}
