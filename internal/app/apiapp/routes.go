package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coinmews/coinmews/internal/domain/enums"
	auditsvc "github.com/coinmews/coinmews/internal/services/audit"
	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	"github.com/coinmews/coinmews/internal/services/catalog"
	editorialsvc "github.com/coinmews/coinmews/internal/services/editorial"
	mediasvc "github.com/coinmews/coinmews/internal/services/media"
	moderationsvc "github.com/coinmews/coinmews/internal/services/moderation"
	sitemapsvc "github.com/coinmews/coinmews/internal/services/sitemap"
	submissionsvc "github.com/coinmews/coinmews/internal/services/submissions"
	votesvc "github.com/coinmews/coinmews/internal/services/votes"
	"github.com/coinmews/coinmews/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	CatalogService    *catalog.Service
	SubmissionService *submissionsvc.Service
	VoteService       *votesvc.Service
	MediaService      *mediasvc.Service
	EditorialService  *editorialsvc.Service
	AuditService      *auditsvc.Service
	ModerationService *moderationsvc.Service
	SitemapService    *sitemapsvc.Service
	Health            *handlers.HealthHandler
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	healthHandler := deps.Health
	if healthHandler == nil {
		healthHandler = handlers.NewHealthHandler()
	}
	catalogHandler := handlers.NewCatalogHandler(deps.CatalogService)
	votesHandler := handlers.NewVotesHandler(deps.VoteService)
	submissionsHandler := handlers.NewSubmissionsHandler(deps.SubmissionService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	sitemapHandler := handlers.NewSitemapHandler(deps.SitemapService)
	adminHandler := handlers.NewAdminHandler(deps.SubmissionService, deps.EditorialService)
	adminHandler.AttachAudit(deps.AuditService)
	adminHandler.AttachModeration(deps.ModerationService)

	var validator TokenValidator
	if deps.AuthService != nil {
		validator = deps.AuthService
	}
	authMW := AuthMiddleware(validator, deps.Logger)
	optionalAuthMW := OptionalAuth(validator)
	staffMW := RequireRole(enums.RoleModerator, enums.RoleAdmin)
	adminMW := RequireRole(enums.RoleAdmin)

	r.Get("/healthz", healthHandler.Get)
	r.Get("/sitemap.xml", sitemapHandler.Handle)

	r.With(optionalAuthMW).Get("/airdrops", catalogHandler.ListAirdrops)
	r.With(authMW).Post("/submissions", submissionsHandler.Store)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Route("/v1", func(r chi.Router) {
		r.With(authMW).Get("/me", authHandler.Me)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuthMW)
			r.Get("/articles", catalogHandler.ListArticles)
			r.Get("/articles/{slug}", catalogHandler.GetArticle)
			r.Get("/airdrops", catalogHandler.ListAirdrops)
			r.Get("/airdrops/{slug}", catalogHandler.GetAirdrop)
			r.Get("/presales", catalogHandler.ListPresales)
			r.Get("/presales/{slug}", catalogHandler.GetPresale)
			r.Get("/events", catalogHandler.ListEvents)
			r.Get("/events/{slug}", catalogHandler.GetEvent)
			r.Get("/exchanges", catalogHandler.ListExchanges)
			r.Get("/exchanges/{slug}", catalogHandler.GetExchange)
			r.Get("/memes", catalogHandler.ListMemes)
			r.Get("/memes/{slug}", catalogHandler.GetMeme)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)
			r.Post("/memes/{id}/upvote", votesHandler.UpvoteMeme)
			r.Post("/airdrops/{id}/vote", votesHandler.VoteAirdrop)
			r.Post("/presales/{id}/vote", votesHandler.VotePresale)

			r.Post("/submissions", submissionsHandler.Store)
			r.Get("/submissions", submissionsHandler.ListMine)
			r.Get("/submissions/{id}", submissionsHandler.GetMine)

			r.Post("/media/images", mediaHandler.UploadImage)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMW, staffMW)

			r.Post("/2fa/setup", authHandler.TOTPSetup)
			r.Post("/2fa/confirm", authHandler.TOTPConfirm)

			r.Get("/submissions", adminHandler.ListSubmissions)
			r.Post("/submissions/reconcile", adminHandler.Reconcile)
			r.Get("/submissions/{id}", adminHandler.GetSubmission)
			r.Post("/submissions/{id}/review", adminHandler.ReviewSubmission)
			r.Post("/submissions/{id}/approve", adminHandler.ApproveSubmission)
			r.Post("/submissions/{id}/reject", adminHandler.RejectSubmission)

			r.Post("/articles", adminHandler.CreateArticle)
			r.Post("/exchanges", adminHandler.CreateExchange)
			r.Post("/memes", adminHandler.CreateMeme)

			r.Get("/audit", adminHandler.ListAudit)

			r.With(adminMW).Patch("/{kind}/{id}/status", adminHandler.SetModelStatus)
			r.With(adminMW).Delete("/{kind}/{id}", adminHandler.DeleteModel)
			r.With(adminMW).Post("/users/{id}/telegram", adminHandler.LinkTelegram)
		})
	})
}
