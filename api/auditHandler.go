package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
)

func listAuditRecordsHandler(c *gin.Context) {
	var affectedTable *string
	if raw := c.Query("affected_table"); raw != "" {
		affectedTable = &raw
	}
	affectedId, ok := queryInt(c, "affected_id")
	if !ok {
		return
	}
	actorId, ok := queryInt(c, "actor_id")
	if !ok {
		return
	}
	records, err := models.GetAuditRecords(c.Request.Context(),
		affectedTable, affectedId, actorId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
