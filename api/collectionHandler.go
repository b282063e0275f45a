package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
)

func createCollectionHandler(c *gin.Context) {
	var input models.NewCollection
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	collection, err := models.CreateCollection(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func updateCollectionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var patch models.CollectionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	collection, err := models.UpdateCollection(c.Request.Context(), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func deleteCollectionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	collection, err := models.DeleteCollection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func getCollectionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	collection, err := models.GetCollection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func listCollectionsHandler(c *gin.Context) {
	fromDate, ok := queryDate(c, "from_date")
	if !ok {
		return
	}
	toDate, ok := queryDate(c, "to_date")
	if !ok {
		return
	}
	memberId, ok := queryInt(c, "member_id")
	if !ok {
		return
	}
	collections, err := models.ListCollections(c.Request.Context(), fromDate, toDate, memberId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}
