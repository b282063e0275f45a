package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
)

func createCategoryHandler(c *gin.Context) {
	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	category, err := models.CreateCategory(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func deleteCategoryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	category, err := models.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func listCategoriesHandler(c *gin.Context) {
	categories, err := models.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func createRetentionHandler(c *gin.Context) {
	var input models.NewRetention
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	retention, err := models.CreateRetention(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, retention)
}

func deleteRetentionHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	retention, err := models.DeleteRetention(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, retention)
}

func listRetentionsHandler(c *gin.Context) {
	retentions, err := models.ListRetentions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, retentions)
}
