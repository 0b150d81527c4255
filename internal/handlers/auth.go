package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veltahq/backoffice-backend/internal/modules/account"
	"github.com/veltahq/backoffice-backend/internal/platform/apierr"
	"github.com/veltahq/backoffice-backend/internal/platform/logger"
)

type AuthHandler struct {
	log  *logger.Logger
	auth account.Auth
}

func NewAuthHandler(log *logger.Logger, auth account.Auth) *AuthHandler {
	return &AuthHandler{
		log:  log.With("handler", "AuthHandler"),
		auth: auth,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeInvalidRequest, err))
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"token": token, "user": user})
}
