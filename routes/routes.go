package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"rentora/admin"
	"rentora/auth"
	"rentora/booking"
	"rentora/cart"
	"rentora/categories"
	"rentora/chats"
	"rentora/checkout"
	"rentora/documents"
	"rentora/items"
	"rentora/middleware"
	"rentora/payments"
	"rentora/profile"
	"rentora/ratelim"
	"rentora/reviews"
	"rentora/search"
	"rentora/terms"
	"rentora/tickets"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/itempic/*filepath", http.Dir("static/itempic"))
	router.ServeFiles("/static/chatpic/*filepath", http.Dir("static/chatpic"))
	router.ServeFiles("/static/userpic/*filepath", http.Dir("static/userpic"))
	router.ServeFiles("/static/docs/*filepath", http.Dir("static/docs"))
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/users/:userid", profile.GetProfile)
	router.GET("/api/profile", middleware.Authenticate(profile.GetMyProfile))
	router.PUT("/api/profile", middleware.Authenticate(profile.UpdateProfile))
	router.PUT("/api/profile/avatar", middleware.Authenticate(profile.UploadAvatar))
}

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(auth.RefreshToken))
	router.POST("/api/auth/otp/request", ratelim.RateLimit(auth.RequestOTP))
	router.POST("/api/auth/otp/verify", ratelim.RateLimit(auth.VerifyOTP))
	router.POST("/api/auth/oauth/:provider", ratelim.RateLimit(auth.OAuthLogin))
}

func AddItemRoutes(router *httprouter.Router, h *items.Handler) {
	router.GET("/api/items", h.GetItems)
	router.GET("/api/items/:itemid", h.GetItem)
	router.POST("/api/items", middleware.Authenticate(h.CreateItem))
	router.PUT("/api/items/:itemid", middleware.Authenticate(h.EditItem))
	router.DELETE("/api/items/:itemid", middleware.Authenticate(h.DeleteItem))
	router.POST("/api/items/:itemid/images", middleware.Authenticate(h.UploadImage))
}

func AddReviewRoutes(router *httprouter.Router) {
	router.GET("/api/items/:itemid/reviews", reviews.GetReviews)
	router.POST("/api/items/:itemid/reviews", middleware.Authenticate(reviews.AddReview))
	router.DELETE("/api/items/:itemid/reviews/:reviewid", middleware.Authenticate(reviews.DeleteReview))
}

func AddCategoryRoutes(router *httprouter.Router, h *categories.Handler) {
	router.GET("/api/categories", h.GetCategories)
	router.POST("/api/admin/categories", middleware.AdminOnly(h.CreateCategory))
	router.PUT("/api/admin/categories/:categoryid", middleware.AdminOnly(h.UpdateCategory))
}

func AddSearchRoutes(router *httprouter.Router) {
	router.GET("/api/search", search.SearchItems)
	router.GET("/api/search/suggest", search.Autocomplete)
}

func AddCartRoutes(router *httprouter.Router) {
	router.GET("/api/cart", middleware.Authenticate(cart.GetCart))
	router.POST("/api/cart", middleware.Authenticate(cart.AddLine))
	router.PUT("/api/cart/:itemid", middleware.Authenticate(cart.UpdateLine))
	router.DELETE("/api/cart/:itemid", middleware.Authenticate(cart.RemoveLine))
}

func AddCheckoutRoutes(router *httprouter.Router, h *checkout.Handler) {
	router.POST("/api/checkout", ratelim.RateLimit(middleware.Authenticate(h.Checkout)))
}

func AddBookingRoutes(router *httprouter.Router, h *booking.Handler) {
	router.GET("/api/bookings", middleware.Authenticate(h.GetBookings))
	router.GET("/api/bookings/:bookingid", middleware.Authenticate(h.GetBooking))
	router.POST("/api/bookings/:bookingid/capture", ratelim.RateLimit(middleware.Authenticate(h.CaptureBooking)))
	router.PUT("/api/bookings/:bookingid/cancel", middleware.Authenticate(h.CancelBooking))
	router.GET("/api/bookings/:bookingid/receipt", middleware.Authenticate(h.PrintReceipt))
}

func AddPaymentRoutes(router *httprouter.Router, h *payments.Handler) {
	router.POST("/api/payments/onboarding", middleware.Authenticate(h.StartOnboarding))
	router.PUT("/api/payments/onboarding", middleware.Authenticate(h.CompleteOnboarding))
	router.GET("/api/payments/status", middleware.Authenticate(h.GetStatus))
}

func AddChatRoutes(router *httprouter.Router, hub *chats.Hub) {
	router.GET("/ws/chats/:chatid", middleware.Authenticate(chats.WebSocketHandler(hub)))
	router.POST("/api/chats", middleware.Authenticate(chats.CreateChat))
	router.GET("/api/chats", middleware.Authenticate(chats.GetChats))
	router.GET("/api/chats/:chatid/messages", middleware.Authenticate(chats.GetMessages))
	router.POST("/api/chats/:chatid/messages", middleware.Authenticate(chats.SendMessage(hub)))
	router.PUT("/api/chats/:chatid/messages/:messageid/read", middleware.Authenticate(chats.MarkRead(hub)))
	router.POST("/api/chats/:chatid/attachments", middleware.Authenticate(chats.UploadAttachment(hub)))
}

func AddTicketRoutes(router *httprouter.Router) {
	router.POST("/api/tickets", middleware.Authenticate(tickets.CreateTicket))
	router.GET("/api/tickets", middleware.Authenticate(tickets.GetTickets))
	router.GET("/api/tickets/:ticketid", middleware.Authenticate(tickets.GetTicket))
	router.POST("/api/tickets/:ticketid/replies", middleware.Authenticate(tickets.ReplyTicket))
	router.PUT("/api/tickets/:ticketid/close", middleware.Authenticate(tickets.CloseTicket))
}

func AddTermsRoutes(router *httprouter.Router) {
	router.GET("/api/terms", terms.GetPublishedTerms)
	router.GET("/api/admin/terms", middleware.AdminOnly(terms.ListVersions))
	router.POST("/api/admin/terms", middleware.AdminOnly(terms.CreateDraft))
	router.PUT("/api/admin/terms/draft", middleware.AdminOnly(terms.UpdateDraft))
	router.PUT("/api/admin/terms/publish", middleware.AdminOnly(terms.PublishDraft))
}

func AddDocumentRoutes(router *httprouter.Router) {
	router.POST("/api/documents", middleware.Authenticate(documents.UploadDocument))
	router.GET("/api/documents", middleware.Authenticate(documents.GetMyDocuments))
	router.GET("/api/admin/documents", middleware.AdminOnly(documents.ListPending))
	router.PUT("/api/admin/documents/:docid", middleware.AdminOnly(documents.ReviewDocument))
}

func AddAdminRoutes(router *httprouter.Router) {
	router.GET("/api/admin/stats", middleware.AdminOnly(admin.GetStats))
	router.GET("/api/admin/users", middleware.AdminOnly(admin.ListUsers))
	router.PUT("/api/admin/users/:userid/roles", middleware.AdminOnly(admin.SetUserRoles))
	router.GET("/api/admin/bookings/stale", middleware.AdminOnly(admin.ListStaleBookings))
}
