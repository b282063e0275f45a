package api

import (
	"github.com/gin-gonic/gin"
	"github.com/socioadmin/tesoreria_backend/middlewares"
	"github.com/socioadmin/tesoreria_backend/workflow"
)

// RegisterRoutes wires the REST surface. Reads are open to any valid session;
// writes require an authenticated actor so the audit trail has someone to
// attribute.
func RegisterRoutes(r *gin.Engine, dispatcher *workflow.Dispatcher) {

	read := r.Group("/")
	{
		read.GET("/members", listMembersHandler)
		read.GET("/members/:id", getMemberHandler)
		read.GET("/categories", listCategoriesHandler)
		read.GET("/retentions", listRetentionsHandler)
		read.GET("/payments", listPaymentsHandler)
		read.GET("/payments/:id", getPaymentHandler)
		read.GET("/collections", listCollectionsHandler)
		read.GET("/collections/:id", getCollectionHandler)
		read.GET("/dues", listDuesHandler)
		read.GET("/dues/:id", getDueHandler)
		read.GET("/ledger-entries", listLedgerEntriesHandler)
		read.GET("/ledger-entries/export", exportLedgerEntriesHandler)
		read.GET("/ledger-entries/:id", getLedgerEntryHandler)
		read.GET("/ledger-balance", getLedgerBalanceHandler)
		read.GET("/audit-records", listAuditRecordsHandler)
		read.GET("/notification-configs", listNotificationConfigsHandler)
	}

	write := r.Group("/", middlewares.RequireActor())
	{
		write.POST("/members", createMemberHandler)
		write.PATCH("/members/:id", updateMemberHandler)
		write.DELETE("/members/:id", deleteMemberHandler)

		write.POST("/categories", createCategoryHandler)
		write.DELETE("/categories/:id", deleteCategoryHandler)
		write.POST("/retentions", createRetentionHandler)
		write.DELETE("/retentions/:id", deleteRetentionHandler)

		write.POST("/payments", createPaymentHandler)
		write.PATCH("/payments/:id", updatePaymentHandler)
		write.DELETE("/payments/:id", deletePaymentHandler)

		write.POST("/collections", createCollectionHandler)
		write.PATCH("/collections/:id", updateCollectionHandler)
		write.DELETE("/collections/:id", deleteCollectionHandler)

		write.POST("/dues", createDueHandler)
		write.PATCH("/dues/:id", updateDueHandler)
		write.POST("/dues/:id/pay", payDueHandler)
		write.DELETE("/dues/:id", deleteDueHandler)

		write.POST("/ledger-entries/:id/void", voidLedgerEntryHandler)
		write.POST("/recalculate-balances", recalculateBalancesHandler)

		write.POST("/receipts/:kind/:id/resend", resendReceiptHandler(dispatcher))

		write.POST("/notification-configs", createNotificationConfigHandler)
		write.PUT("/notification-configs/:id", updateNotificationConfigHandler)
		write.POST("/notification-configs/:id/activate", activateNotificationConfigHandler)
		write.DELETE("/notification-configs/:id", deleteNotificationConfigHandler)
	}
}
