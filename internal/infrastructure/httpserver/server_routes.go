package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	auth := api.Group("/auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)
	auth.POST("/refresh", s.refreshToken)

	auth.GET("/verify-email", s.verifyEmail)
	auth.POST("/verify-email", s.verifyEmail)
	auth.POST("/resend-verification", s.resendVerificationEmail)

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())

	protected.POST("/auth/logout", s.logout)

	users := protected.Group("/users")
	users.GET("/me", s.getOwnProfile)
	users.PUT("/me", s.updateOwnProfile)
	users.POST("/me/password", s.changePassword)

	billing := protected.Group("/billing")
	billing.GET("/subscription", s.getSubscription)
	billing.POST("/subscription", s.activateSubscription)
	billing.DELETE("/subscription", s.cancelSubscription)

	// review routes require a usable subscription
	reviews := protected.Group("", s.middleware.Subscription.RequireActiveSubscription())
	reviews.GET("/locations", s.listLocations)
	reviews.GET("/locations/:id", s.getLocation)
	reviews.GET("/locations/:id/reviews", s.listReviews)
	reviews.GET("/locations/:id/reviews/unanswered", s.listUnansweredReviews)
	reviews.POST("/reviews/reply", s.replyToReview)
	reviews.POST("/ai/draft-reply", s.draftReply)

	admin := protected.Group("/admin")
	admin.GET("/cache", s.cacheStats)
	admin.DELETE("/cache", s.clearCache)
}
