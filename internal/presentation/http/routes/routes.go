// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/withseismic/leadpulse-go/internal/application/container"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/handlers"
	"github.com/withseismic/leadpulse-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Serve static SysOp dashboard files from the /sysop URL.
	r.Static("/sysop", "web/sysop")
	r.StaticFile("/favicon.ico", "web/sysop/favicon.ico")

	// Initialize handlers
	visitHandlers := handlers.NewVisitHandlers(container.IdentityService, container.ProfileService, container.Logger, container.PerfTracker)
	profileHandlers := handlers.NewProfileHandlers(container.ProfileService, container.SuggestionService, container.Logger, container.PerfTracker)
	sessionHandlers := handlers.NewSessionHandlers(container.SessionService, container.Logger, container.PerfTracker)
	trackHandlers := handlers.NewTrackHandlers(container.SessionService, container.Logger)
	achievementHandlers := handlers.NewAchievementHandlers(container.ProfileService, container.AchievementService)
	notificationHandlers := handlers.NewNotificationHandlers(container.Broadcaster, container.ProfileService, container.Logger)
	sysopHandlers := handlers.NewSysOpHandlers(container)

	// SysOp API endpoints
	sysopAPI := r.Group("/api/sysop")
	{
		sysopAPI.GET("/auth", sysopHandlers.AuthCheck)
		sysopAPI.POST("/login", sysopHandlers.Login)

		// SysOp authenticated endpoints
		sysopAPI.Use(sysopHandlers.SysOpAuthMiddleware())
		{
			sysopAPI.GET("/logs/levels", sysopHandlers.GetLogLevels)
			sysopAPI.POST("/logs/levels", sysopHandlers.SetLogLevel)
			sysopAPI.GET("/performance", sysopHandlers.GetPerformanceStats)
			sysopAPI.POST("/force/toast", sysopHandlers.ForceToast)
			sysopAPI.POST("/force/achievement", sysopHandlers.ForceAchievement)
			sysopAPI.POST("/force/widget", sysopHandlers.ForceQualifiedWidget)
			sysopAPI.GET("/session-map", sysopHandlers.SessionMapWS)
		}
	}

	// Log streaming is a special case and can remain at top level.
	// EventSource cannot set headers so the middleware accepts ?token=.
	r.GET("/sysop-logs/stream", sysopHandlers.SysOpAuthMiddleware(), sysopHandlers.StreamLogs)

	api := r.Group("/api/v1")
	{
		// Visit bootstrap has no visitor requirement; it mints identifiers.
		api.POST("/visit", visitHandlers.PostVisit)

		tracked := api.Group("")
		tracked.Use(middleware.VisitorMiddleware())
		{
			// Profile surface
			tracked.GET("/profile", profileHandlers.GetProfile)
			tracked.PATCH("/profile", profileHandlers.PatchProfile)
			tracked.GET("/profile/pages", profileHandlers.GetPageData)
			tracked.GET("/profile/pages/top", profileHandlers.GetTopPages)
			tracked.GET("/profile/suggestion", profileHandlers.GetSuggestion)
			tracked.POST("/profile/reset", profileHandlers.Reset)
			tracked.POST("/profile/reset-time", profileHandlers.ResetTimeData)
			tracked.POST("/profile/reset-achievements", profileHandlers.ResetAchievements)

			// Page session lifecycle
			tracked.POST("/session/init", sessionHandlers.PostInit)
			tracked.POST("/session/scroll", sessionHandlers.PostScroll)
			tracked.POST("/session/tick", sessionHandlers.PostTick)
			tracked.POST("/session/hidden", sessionHandlers.PostHidden)
			tracked.POST("/session/visible", sessionHandlers.PostVisible)
			tracked.POST("/session/flush", sessionHandlers.PostFlush)

			// Explicit tracking calls
			tracked.POST("/track/event", trackHandlers.PostEvent)
			tracked.POST("/track/link", trackHandlers.PostLinkClick)
			tracked.POST("/track/tool", trackHandlers.PostTool)
			tracked.POST("/track/calculation", trackHandlers.PostCalculation)
			tracked.POST("/capture/interest", trackHandlers.PostInterest)
			tracked.POST("/capture/company", trackHandlers.PostCompany)
			tracked.POST("/capture/contact", trackHandlers.PostContact)

			// Achievements
			tracked.GET("/achievements", achievementHandlers.GetAchievements)
			tracked.GET("/achievements/unlocked", achievementHandlers.GetUnlocked)
			tracked.POST("/achievements/check", achievementHandlers.PostCheck)

			// Notifications
			tracked.GET("/notifications/stream", notificationHandlers.GetStream)
		}
	}

	return r
}
