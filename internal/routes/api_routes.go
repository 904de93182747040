// edumanage/internal/routes/api_routes.go
package routes

import (
	"edumanage/internal/handlers"
	"edumanage/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes registers every API route that requires a token.
// Mutation routes additionally check a named permission; reads need only
// a resolved tenant.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	{
		// --- TENANTS ---
		tenants := apiGroup.Group("/tenants")
		{
			tenants.POST("", handlers.SignupTenantHandler)
			tenants.GET("/current", handlers.GetTenantHandler)
			tenants.PUT("/current/period", middleware.PermissionMiddleware("tenant_manage"), handlers.SetPeriodHandler)
			tenants.PUT("/current/portal-password", middleware.PermissionMiddleware("tenant_manage"), handlers.SetPortalPasswordHandler)
			tenants.POST("/:id/suspend", middleware.PermissionMiddleware("tenant_admin"), handlers.SuspendTenantHandler)
			tenants.POST("/:id/activate", middleware.PermissionMiddleware("tenant_admin"), handlers.ActivateTenantHandler)
		}

		// --- GRADES ---
		grades := apiGroup.Group("/grades")
		{
			grades.GET("", handlers.ListGradesHandler)
			grades.POST("", middleware.PermissionMiddleware("grades_manage"), handlers.CreateGradeHandler)
			grades.PUT("/:id", middleware.PermissionMiddleware("grades_manage"), handlers.UpdateGradeHandler)
		}

		// --- STUDENTS ---
		students := apiGroup.Group("/students")
		{
			students.GET("", handlers.ListStudentsHandler)
			students.POST("", middleware.PermissionMiddleware("students_manage"), handlers.CreateStudentHandler)
			students.GET("/:id", handlers.GetStudentHandler)
			students.PUT("/:id", middleware.PermissionMiddleware("students_manage"), handlers.UpdateStudentHandler)
			students.DELETE("/:id", middleware.PermissionMiddleware("students_manage"), handlers.DeleteStudentHandler)
			students.POST("/:id/advance-term", middleware.PermissionMiddleware("tenant_manage"), handlers.AdvanceTermHandler)
		}

		// --- FEE STRUCTURES ---
		fees := apiGroup.Group("/fee-structures")
		{
			fees.GET("", handlers.ListFeeStructuresHandler)
			fees.POST("", middleware.PermissionMiddleware("fees_manage"), handlers.CreateFeeStructureHandler)
			fees.DELETE("/:id", middleware.PermissionMiddleware("fees_manage"), handlers.DeleteFeeStructureHandler)
			fees.PUT("/bulk", middleware.PermissionMiddleware("fees_manage"), handlers.BulkUpdateFeeStructuresHandler)
		}

		// --- LEDGER ---
		transactions := apiGroup.Group("/transactions")
		{
			transactions.POST("/payments", middleware.PermissionMiddleware("payments_record"), handlers.RecordPaymentHandler)
			transactions.POST("/invoices", middleware.PermissionMiddleware("fees_manage"), handlers.RecordInvoiceHandler)
			transactions.POST("/adjustments", middleware.PermissionMiddleware("payments_adjust"), handlers.RecordAdjustmentHandler)
			transactions.GET("/account/:accountId", handlers.ListTransactionsHandler)
			transactions.DELETE("/:id", middleware.PermissionMiddleware("payments_delete"), handlers.DeleteTransactionHandler)
			transactions.GET("/:id/receipt", handlers.GetReceiptHandler)
		}

		// --- MOBILE MONEY ---
		charges := apiGroup.Group("/charges")
		{
			charges.POST("/student", middleware.PermissionMiddleware("payments_record"), handlers.InitiateStudentChargeHandler)
			charges.POST("/subscription", middleware.PermissionMiddleware("tenant_manage"), handlers.InitiateSubscriptionChargeHandler)
			charges.GET("", handlers.ListPendingChargesHandler)
			charges.POST("/:reference/verify", handlers.VerifyChargeHandler)
		}

		// --- TRANSPORT ---
		transport := apiGroup.Group("/transport")
		{
			transport.GET("/routes", handlers.ListTransportRoutesHandler)
			transport.POST("/routes", middleware.PermissionMiddleware("fees_manage"), handlers.CreateTransportRouteHandler)
			transport.POST("/assignments", middleware.PermissionMiddleware("students_manage"), handlers.AssignTransportHandler)
			transport.POST("/bill-term", middleware.PermissionMiddleware("fees_manage"), handlers.BillTransportTermHandler)
		}

		// --- MEALS ---
		meals := apiGroup.Group("/meals")
		{
			meals.GET("/plans", handlers.ListMealPlansHandler)
			meals.POST("/plans", middleware.PermissionMiddleware("fees_manage"), handlers.CreateMealPlanHandler)
			meals.POST("/subscriptions", middleware.PermissionMiddleware("students_manage"), handlers.SubscribeMealHandler)
			meals.POST("/bill-term", middleware.PermissionMiddleware("fees_manage"), handlers.BillMealTermHandler)
		}

		// --- REPORTING ---
		dashboard := apiGroup.Group("/dashboard")
		{
			dashboard.GET("/summary", handlers.DashboardHandler)
			dashboard.GET("/trend", handlers.PaymentTrendHandler)
			dashboard.GET("/arrears", handlers.ArrearsHandler)
			dashboard.GET("/arrears/export", handlers.ExportArrearsHandler)
		}
	}
}
