package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

func createNotificationConfigHandler(c *gin.Context) {
	var input models.NewNotificationConfig
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	cfg, err := models.CreateNotificationConfig(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func updateNotificationConfigHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewNotificationConfig
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	cfg, err := models.UpdateNotificationConfig(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func activateNotificationConfigHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	cfg, err := models.ActivateNotificationConfig(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func deleteNotificationConfigHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	cfg, err := models.DeleteNotificationConfig(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func listNotificationConfigsHandler(c *gin.Context) {
	configs, err := models.ListNotificationConfigs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

type resendReceiptRequest struct {
	Email string `json:"email"`
}

func resendReceiptHandler(dispatcher *workflow.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, err := models.ParseReceiptKind(c.Param("kind"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}

		// body is optional: empty body means resend to the member's email
		var req resendReceiptRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondBindError(c, err)
				return
			}
		}

		result, err := dispatcher.Resend(c.Request.Context(), kind, id, req.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
