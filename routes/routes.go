package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"contratos-backend/controllers"
	"contratos-backend/middlewares"
	"contratos-backend/models"
	"contratos-backend/services"
)

var (
	admin   = string(models.RoleAdmin)
	manager = string(models.RoleManager)
	finance = string(models.RoleFinance)
)

// Register wires all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, svc *services.Service, log logrus.FieldLogger) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/login", controllers.Login)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency(db))

	// Then per-request transaction (commits/rolls back) and contract visibility
	protected.Use(middlewares.RequestTx(db, log))
	protected.Use(middlewares.ResolveScope(svc))

	contracts := middlewares.RequireRole(admin, manager)
	money := middlewares.RequireRole(admin, finance)
	admins := middlewares.RequireRole(admin)

	protected.Get("/me", controllers.Me)

	// Users
	protected.Post("/users", admins, controllers.CreateUser)
	protected.Get("/users", admins, controllers.GetUsers)
	protected.Put("/users/:id/active", admins, controllers.SetUserActive)
	protected.Put("/users/:id/contracts", admins, controllers.GrantContracts)

	// Companies
	protected.Post("/companies", contracts, controllers.CreateCompany)
	protected.Get("/companies", controllers.GetCompanies)
	protected.Get("/companies/:id", controllers.GetCompany)
	protected.Put("/companies/:id", contracts, controllers.UpdateCompany)
	protected.Delete("/companies/:id", contracts, controllers.DeleteCompany)

	// Contracts
	protected.Post("/contracts", contracts, controllers.CreateContract)
	protected.Get("/contracts", controllers.GetContracts)
	protected.Get("/contracts/:id", controllers.GetContract)
	protected.Put("/contracts/:id", contracts, controllers.UpdateContract)
	protected.Delete("/contracts/:id", contracts, controllers.DeleteContract)

	// Amendments (every change recomputes the contract term)
	protected.Post("/contracts/:id/amendments", contracts, controllers.CreateAmendment)
	protected.Get("/contracts/:id/amendments", controllers.GetAmendments)
	protected.Get("/amendments/:id", controllers.GetAmendment)
	protected.Put("/amendments/:id", contracts, controllers.UpdateAmendment)
	protected.Delete("/amendments/:id", contracts, controllers.DeleteAmendment)

	// Participants and tax overrides (replace-all)
	protected.Put("/contracts/:id/participants", contracts, controllers.ReplaceParticipants)
	protected.Delete("/contracts/:id/participants", contracts, controllers.ClearParticipants)
	protected.Get("/contracts/:id/participants", controllers.GetParticipants)
	protected.Put("/contracts/:id/taxes", contracts, controllers.ReplaceTaxOverrides)
	protected.Get("/contracts/:id/taxes", controllers.GetTaxOverrides)

	// ARTs and insurance policies
	protected.Post("/contracts/:id/arts", contracts, controllers.CreateART)
	protected.Get("/contracts/:id/arts", controllers.GetARTs)
	protected.Get("/arts/:id", controllers.GetART)
	protected.Put("/arts/:id", contracts, controllers.UpdateART)
	protected.Delete("/arts/:id", contracts, controllers.DeleteART)
	protected.Post("/contracts/:id/policies", contracts, controllers.CreatePolicy)
	protected.Get("/contracts/:id/policies", controllers.GetPolicies)
	protected.Get("/policies/:id", controllers.GetPolicy)
	protected.Put("/policies/:id", contracts, controllers.UpdatePolicy)
	protected.Delete("/policies/:id", contracts, controllers.DeletePolicy)

	// Measurement reports
	protected.Post("/contracts/:id/reports", contracts, controllers.CreateReport)
	protected.Get("/contracts/:id/reports", controllers.GetReports)
	protected.Get("/reports/:id", controllers.GetReport)
	protected.Put("/reports/:id", contracts, controllers.UpdateReport)
	protected.Delete("/reports/:id", contracts, controllers.DeleteReport)
	protected.Put("/reports/:id/approve", contracts, controllers.ApproveReport)
	protected.Put("/reports/:id/cancel", contracts, controllers.CancelReport)
	protected.Put("/reports/:id/invoiced", money, controllers.MarkReportInvoiced)
	protected.Get("/reports/:id/snapshot", controllers.GetReportSnapshot)
	protected.Post("/reports/:id/apportion", money, controllers.ApportionReport)
	protected.Get("/reports/:id/apportionments", controllers.GetApportionmentRuns)

	// Invoices
	protected.Post("/invoices", money, controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Post("/invoices/overdue", money, controllers.MarkOverdueInvoices)
	protected.Get("/invoices/:id", controllers.GetInvoice)
	protected.Put("/invoices/:id", money, controllers.UpdateInvoice)
	protected.Delete("/invoices/:id", money, controllers.DeleteInvoice)
	protected.Put("/invoices/:id/cancel", money, controllers.CancelInvoice)
	protected.Put("/invoices/:id/reconcile", money, controllers.ReconcileInvoice)

	// Payments (each change reconciles the invoice)
	protected.Post("/invoices/:id/payments", money, controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", controllers.ListPayments)
	protected.Get("/payments/:id", controllers.GetPayment)
	protected.Put("/payments/:id", money, controllers.UpdatePayment)
	protected.Delete("/payments/:id", money, controllers.DeletePayment)
	protected.Put("/payments/:id/reverse", money, controllers.ReversePayment)
	protected.Post("/payments/:id/receipt", money, controllers.UploadReceipt)
	protected.Get("/payments/:id/receipt", controllers.GetReceiptURL)
}
