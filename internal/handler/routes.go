package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/realty-core/internal/authz"
	"github.com/andressep95/realty-core/internal/domain"
	"github.com/andressep95/realty-core/internal/handler/middleware"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth    *AuthHandler
	Me      *MeHandler
	Listing *ListingHandler
	Lead    *LeadHandler
	Company *CompanyHandler
	Quota   *QuotaHandler
	Admin   *AdminHandler
	Public  *PublicHandler
	Health  *HealthHandler
}

func SetupRoutes(
	app *fiber.App,
	h Handlers,
	resolver *authz.Resolver,
	authMiddleware fiber.Handler,
	metricsHandler fiber.Handler,
) {
	// Health checks (public)
	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	if metricsHandler != nil {
		app.Get("/metrics", metricsHandler)
	}

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", authMiddleware, h.Auth.Logout)

	// Customer-facing catalog (anonymous)
	public := api.Group("/public")
	public.Get("/listings", h.Public.ListListings)
	public.Get("/listings/:id", h.Public.GetListing)
	public.Post("/listings/:id/inquiries", h.Public.CreateInquiry)

	me := api.Group("/me", authMiddleware)
	me.Get("/", h.Me.GetMe)
	me.Get("/permissions", h.Me.GetMyPermissions)
	me.Get("/quota", middleware.RequirePermission(resolver, domain.PermViewOwnReports), h.Me.GetMyQuota)

	manageListings := middleware.RequireAnyPermission(resolver,
		domain.PermManageAllListings,
		domain.PermManageCorporateListings,
		domain.PermManageOwnListings,
	)
	listings := api.Group("/listings", authMiddleware, manageListings)
	listings.Post("/", h.Listing.CreateListing)
	listings.Get("/", h.Listing.ListListings)
	listings.Get("/:id", h.Listing.GetListing)
	listings.Patch("/:id/status", h.Listing.ChangeStatus)
	listings.Delete("/:id", h.Listing.DeleteListing)
	listings.Get("/:id/inquiries", h.Listing.ListInquiries)

	// view_all_leads is read-only; writes need a manage permission
	viewLeads := middleware.RequireAnyPermission(resolver,
		domain.PermViewAllLeads,
		domain.PermManageCorporateLeads,
		domain.PermManageOwnLeads,
	)
	manageLeads := middleware.RequireAnyPermission(resolver,
		domain.PermManageCorporateLeads,
		domain.PermManageOwnLeads,
	)
	leads := api.Group("/leads", authMiddleware)
	leads.Post("/", manageLeads, h.Lead.CreateLead)
	leads.Get("/", viewLeads, h.Lead.ListLeads)
	leads.Get("/:id", viewLeads, h.Lead.GetLead)
	leads.Delete("/:id", manageLeads, h.Lead.DeleteLead)

	company := api.Group("/company", authMiddleware, middleware.RequirePermission(resolver, domain.PermManageEmployees))
	company.Post("/employees", h.Company.AddEmployee)
	company.Get("/employees", h.Company.ListEmployees)

	quota := api.Group("/quota", authMiddleware)
	quota.Get("/listings", manageListings, h.Quota.CanCreateListing)
	quota.Get("/customers", manageLeads, h.Quota.CanAddCustomer)

	admin := api.Group("/admin", authMiddleware, middleware.RequirePermission(resolver, domain.PermManageAccounts))
	admin.Post("/accounts", h.Admin.CreateAccount)
	admin.Get("/accounts/:id/quota", h.Admin.GetAccountUsage)
	admin.Patch("/accounts/:id/quota", h.Admin.UpgradeQuota)
	admin.Post("/accounts/:id/deactivate", h.Admin.DeactivateAccount)
}

// ErrorHandler renders errors that escape a handler, including fiber's own
// route-not-found and the errors returned by principal and uuidParam.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
