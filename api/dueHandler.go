package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/utils"
)

func createDueHandler(c *gin.Context) {
	var input models.NewDue
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	due, err := models.CreateDue(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, due)
}

func updateDueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var patch models.DuePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	due, err := models.UpdateDue(c.Request.Context(), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func payDueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.PayDueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	due, err := models.PayDue(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func deleteDueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	due, err := models.DeleteDue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func getDueHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	due, err := models.GetDue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, due)
}

func listDuesHandler(c *gin.Context) {
	var period *string
	if raw := c.Query("period"); raw != "" {
		period = utils.NilIfEmpty(raw)
	}
	memberId, ok := queryInt(c, "member_id")
	if !ok {
		return
	}
	paid, ok := queryBool(c, "paid")
	if !ok {
		return
	}
	dues, err := models.ListDues(c.Request.Context(), memberId, period, paid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dues)
}
