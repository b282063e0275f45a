package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/models"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

func listLedgerEntriesHandler(c *gin.Context) {
	var kind *models.EntryKind
	if raw := c.Query("kind"); raw != "" {
		k := models.EntryKind(raw)
		kind = &k
	}
	var account *string
	if raw := c.Query("account"); raw != "" {
		account = &raw
	}
	fromDate, ok := queryDate(c, "from_date")
	if !ok {
		return
	}
	toDate, ok := queryDate(c, "to_date")
	if !ok {
		return
	}
	entries, err := models.ListLedgerEntries(c.Request.Context(), fromDate, toDate, kind, account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func getLedgerEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	entry, err := models.GetLedgerEntry(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func getLedgerBalanceHandler(c *gin.Context) {
	balance, err := models.GetLedgerBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": models.LedgerAccountCaja, "balance": balance})
}

func exportLedgerEntriesHandler(c *gin.Context) {
	fromDate, ok := queryDate(c, "from_date")
	if !ok {
		return
	}
	toDate, ok := queryDate(c, "to_date")
	if !ok {
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=ledger.xlsx")
	if err := models.ExportLedgerEntriesXLSX(c.Request.Context(), c.Writer, fromDate, toDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export ledger"})
	}
}

type voidEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func voidLedgerEntryHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var req voidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	entry, err := models.VoidLedgerEntry(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func recalculateBalancesHandler(c *gin.Context) {
	summary, err := workflow.RecalculateBalances(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
