package routes

import (
	"net/http"

	"github.com/affeed/affeed/internal/app"
	"github.com/affeed/affeed/internal/handler"
	"github.com/affeed/affeed/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	session := handler.NewSessionHandler(a.SessionService)
	draft := handler.NewDraftHandler(a.ComposerService, a.Cfg.MaxUploadSize)
	feed := handler.NewFeedHandler(a.FeedService)
	share := handler.NewShareHandler(a.ShareService, a.FeedService)
	media := handler.NewMediaHandler(a.Storage)

	loginLimiter := middleware.RateLimitLogin()
	captionLimiter := middleware.RateLimitCaption()

	mux := http.NewServeMux()

	// Identity + session
	mux.HandleFunc("GET /api/users", session.Users)
	mux.HandleFunc("POST /api/session", loginLimiter(session.Login))
	mux.HandleFunc("GET /api/session", middleware.RequireSession(session.Session))
	mux.HandleFunc("DELETE /api/session", session.Logout)
	mux.HandleFunc("POST /api/session/screen", middleware.RequireSession(session.Navigate))

	// Composer
	mux.HandleFunc("GET /api/draft", middleware.RequireSession(draft.Draft))
	mux.HandleFunc("POST /api/draft/media", middleware.RequireSession(draft.AttachMedia))
	mux.HandleFunc("PATCH /api/draft", middleware.RequireSession(draft.Update))
	mux.HandleFunc("POST /api/draft/caption", captionLimiter(middleware.RequireSession(draft.GenerateCaption)))
	mux.HandleFunc("DELETE /api/draft", middleware.RequireSession(draft.Reset))
	mux.HandleFunc("POST /api/draft/publish", middleware.RequireSession(draft.Publish))

	// Feed
	mux.HandleFunc("GET /api/feed", middleware.RequireSession(feed.Feed))
	mux.HandleFunc("POST /api/posts/{id}/like", middleware.RequireSession(feed.ToggleLike))

	// Sharing
	mux.HandleFunc("GET /api/posts/{id}/share", middleware.RequireSession(share.Share))
	mux.HandleFunc("POST /api/posts/{id}/share/email", middleware.RequireSession(share.ShareEmail))

	// Preview references
	mux.HandleFunc("GET /media/{key...}", media.Serve)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.SessionMiddleware(a.SessionService),
	)
}
