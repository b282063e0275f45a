package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
)

func createPaymentHandler(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	payment, err := models.CreatePayment(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func updatePaymentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var patch models.PaymentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}
	payment, err := models.UpdatePayment(c.Request.Context(), id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func deletePaymentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	payment, err := models.DeletePayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func getPaymentHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	payment, err := models.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func listPaymentsHandler(c *gin.Context) {
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
	payments, err := models.ListPayments(c.Request.Context(), fromDate, toDate, memberId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
