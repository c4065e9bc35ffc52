package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/ledger"
	"github.com/jhoicas/Trazabilidad-api/internal/application/lineage"
	"github.com/jhoicas/Trazabilidad-api/internal/application/usecase"
	"github.com/jhoicas/Trazabilidad-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine     *ledger.Engine
	Resolver   *lineage.Resolver
	AccountUC  *usecase.AccountUseCase
	MaterialUC *usecase.MaterialUseCase
	AlertsUC   *usecase.StockAlertUseCase
	LineagePDF LineageRenderer
	XLSX       DistributionExporter
	JWTSecret  string // vacío = atribución por X-User-ID
	JWTIssuer  string
	Logger     zerolog.Logger
}

// Router registra las rutas de la API. Las escrituras requieren rol operator; las lecturas
// admiten también auditor.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	read := RequireRole(jwt.RoleOperator, jwt.RoleAuditor)
	write := RequireRole(jwt.RoleOperator)

	// Transactions
	txHandler := NewTransactionHandler(deps.Engine, deps.Logger)
	transactions := api.Group("/transactions")
	transactions.Post("/", write, txHandler.Post)
	transactions.Post("/drafts", write, txHandler.SaveDraft)
	transactions.Post("/:id/post", write, txHandler.PostDraft)
	transactions.Post("/:id/void", write, txHandler.Void)
	transactions.Get("/", read, txHandler.List)
	transactions.Get("/:id", read, txHandler.GetByID)

	// Batches
	batchHandler := NewBatchHandler(deps.Resolver, deps.LineagePDF, deps.Logger)
	batches := api.Group("/batches", read)
	batches.Get("/", batchHandler.List)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Get("/:id/lineage.pdf", batchHandler.LineagePDF)
	batches.Get("/:id/lineage", batchHandler.Lineage)
	batches.Get("/:id/usage", batchHandler.Usage)

	// Materials
	materialHandler := NewMaterialHandler(deps.MaterialUC, deps.AlertsUC, deps.Resolver, deps.XLSX, deps.Logger)
	categories := api.Group("/material-categories")
	categories.Post("/", write, materialHandler.CreateCategory)
	categories.Get("/", read, materialHandler.ListCategories)

	materials := api.Group("/materials")
	materials.Post("/", write, materialHandler.Create)
	materials.Get("/", read, materialHandler.List)
	materials.Get("/low-stock", read, materialHandler.LowStock)
	materials.Get("/:id", read, materialHandler.GetByID)
	materials.Get("/:id/distribution.xlsx", read, materialHandler.DistributionXLSX)
	materials.Get("/:id/distribution", read, materialHandler.Distribution)

	// Accounts
	accountHandler := NewAccountHandler(deps.AccountUC, deps.Resolver, deps.Logger)
	accounts := api.Group("/accounts")
	accounts.Post("/", write, accountHandler.Create)
	accounts.Get("/", read, accountHandler.List)
	accounts.Get("/:id", read, accountHandler.GetByID)
	accounts.Post("/:id/archive", write, accountHandler.Archive)
}
