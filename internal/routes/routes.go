package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	ordercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/order/controllers"
	productcontrollers "github.com/SKANDA-SR/e-commerse-website/internal/product/controllers"
	usercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/user/controllers"
)

type Controllers struct {
	Products *productcontrollers.ProductController
	Users    *usercontrollers.UserController
	Orders   *ordercontrollers.OrderController
}

// Register mounts the storefront API under /api plus GET /health.
func Register(r *gin.Engine, tokens *auth.TokenService, c Controllers) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authenticated := auth.Authenticate(tokens)
	admin := auth.RequireAdmin()

	products := api.Group("/products")
	{
		products.GET("", c.Products.GetProducts)
		products.GET("/featured", c.Products.GetFeatured)
		products.GET("/categories", c.Products.GetCategories)
		products.GET("/:id", c.Products.GetProduct)
		products.POST("", authenticated, admin, c.Products.CreateProduct)
		products.PUT("/:id", authenticated, admin, c.Products.UpdateProduct)
		products.DELETE("/:id", authenticated, admin, c.Products.DeleteProduct)
		products.POST("/:id/image-upload-url", authenticated, admin, c.Products.CreateImageUploadURL)
	}

	users := api.Group("/users")
	{
		users.POST("/register", c.Users.Register)
		users.POST("/login", c.Users.Login)
		users.GET("/profile", authenticated, c.Users.GetProfile)
		users.PUT("/profile", authenticated, c.Users.UpdateProfile)
	}

	orders := api.Group("/orders", authenticated)
	{
		orders.POST("", c.Orders.PlaceOrder)
		orders.GET("", admin, c.Orders.GetOrders)
		orders.GET("/myorders", c.Orders.GetMyOrders)
		orders.GET("/:id", c.Orders.GetOrder)
		orders.PUT("/:id/pay", c.Orders.PayOrder)
		orders.PUT("/:id/cancel", c.Orders.CancelOrder)
		orders.PUT("/:id/fulfill", admin, c.Orders.FulfillOrder)
		orders.POST("/:id/payment-intent", c.Orders.CreatePaymentIntent)
	}

	api.POST("/payments/webhook", c.Orders.StripeWebhook)
}
