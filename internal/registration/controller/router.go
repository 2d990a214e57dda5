package controller

import (
	commonmw "matholymp/internal/common/http/middleware"
	"matholymp/internal/registration/service"

	"github.com/gin-gonic/gin"
)

// Handlers bundles what the routes need. Hub and Limiter may be nil.
type Handlers struct {
	Service *service.Service
	Auth    *service.AuthService
	Hub     *ScoreboardHub
	Limiter *commonmw.RateLimiter
	Limits  RateLimits
}

// RateLimits are the per-route request limits.
type RateLimits struct {
	Login  commonmw.RateLimitPolicy `yaml:"login"`
	Export commonmw.RateLimitPolicy `yaml:"export"`
	Upload commonmw.RateLimitPolicy `yaml:"upload"`
}

// RegisterRoutes mounts the registration API on router. Reads that show
// more to signed-in users take an optional token; writes require one.
func RegisterRoutes(router gin.IRouter, h Handlers) {
	optional := commonmw.AuthMiddleware(h.Auth, commonmw.AuthPolicy{Mode: commonmw.AuthOptional})
	protected := commonmw.AuthMiddleware(h.Auth, commonmw.AuthPolicy{Mode: commonmw.AuthProtected})

	authCtl := NewAuthController(h.Auth)
	countries := NewCountryController(h.Service)
	people := NewPersonController(h.Service)
	users := NewUserController(h.Service)
	scores := NewScoreController(h.Service)
	exports := NewExportController(h.Service)
	files := NewFileController(h.Service)
	exportLimit := h.Limiter.Middleware("export", h.Limits.Export)
	uploadLimit := h.Limiter.Middleware("upload", h.Limits.Upload)

	router.GET("/attachments/:file/:name", files.Attachment)
	router.GET("/scores-rss.xml", exports.ScoresRSS)
	router.GET("/:page/scores-rss.xml", exports.CountryFeed)
	if h.Hub != nil {
		router.GET("/ws/scoreboard", h.Hub.Serve)
	}

	api := router.Group("/api/v1")
	api.POST("/auth/login", h.Limiter.Middleware("login", h.Limits.Login), authCtl.Login)
	api.GET("/event", scores.EventStatus)
	api.GET("/lookups", scores.Lookups)
	api.GET("/scoreboard", scores.Scoreboard)
	api.GET("/scoreboard.html", scores.ScoreboardHTML)
	api.GET("/scoreboard/display", scores.DisplayScoreboard)

	read := api.Group("", optional)
	read.GET("/countries", countries.List)
	read.GET("/countries/:id", countries.Get)
	read.GET("/countries/:id/scores-rss.xml", exports.ScoresRSS)
	read.GET("/people", people.List)
	read.GET("/people/:id", people.Get)
	read.GET("/exports/countries.csv", exportLimit, exports.CountriesCSV)
	read.GET("/exports/people.csv", exportLimit, exports.PeopleCSV)
	read.GET("/exports/scores.csv", exportLimit, exports.ScoresCSV)
	read.GET("/exports/flags.zip", exportLimit, exports.FlagsZIP)
	read.GET("/exports/photos.zip", exportLimit, exports.PhotosZIP)
	read.GET("/exports/scores-rss.xml", exports.ScoresRSS)

	write := api.Group("", protected)
	write.POST("/countries", countries.Create)
	write.PUT("/countries/:id", countries.Update)
	write.DELETE("/countries/:id", countries.Retire)
	write.POST("/people", people.Create)
	write.PUT("/people/:id", people.Update)
	write.DELETE("/people/:id", people.Retire)
	write.GET("/users", users.List)
	write.POST("/users", users.Create)
	write.PUT("/users/:id", users.Update)
	write.DELETE("/users/:id", users.Retire)
	write.POST("/scores", scores.EnterScores)
	write.PUT("/event/medal-boundaries", scores.SetMedalBoundaries)
	write.PUT("/event/registration", scores.SetRegistration)
	write.POST("/lookups/arrivals", scores.AddArrivalPoint)
	write.GET("/status", scores.Status)
	write.POST("/files", uploadLimit, files.Upload)
	write.POST("/bulk/countries", uploadLimit, files.BulkCountries)
	write.POST("/bulk/people", uploadLimit, files.BulkPeople)
}
