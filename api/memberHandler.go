package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
)

func createMemberHandler(c *gin.Context) {
	var input models.NewMember
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	member, err := models.CreateMember(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func updateMemberHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var patch models.MemberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	member, err := models.UpdateMember(c.Request.Context(), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func deleteMemberHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	member, err := models.DeleteMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func getMemberHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	member, err := models.GetMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func listMembersHandler(c *gin.Context) {
	members, err := models.ListMembers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}
