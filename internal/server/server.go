package server

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"zion-admin/internal/config"
	"zion-admin/internal/handler"
	"zion-admin/internal/middleware"
)

type Server struct {
	echo               *echo.Echo
	catalogHandler     *handler.CatalogHandler
	orderHandler       *handler.OrderHandler
	fulfillmentHandler *handler.FulfillmentHandler
	webhookHandler     *handler.StoreWebhookHandler
	promoHandler       *handler.PromoHandler
	cfg                *config.Config
}

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func NewServer(
	cfg *config.Config,
	catalogHandler *handler.CatalogHandler,
	orderHandler *handler.OrderHandler,
	fulfillmentHandler *handler.FulfillmentHandler,
	webhookHandler *handler.StoreWebhookHandler,
	promoHandler *handler.PromoHandler,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validator: validator.New()}

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:               e,
		catalogHandler:     catalogHandler,
		orderHandler:       orderHandler,
		fulfillmentHandler: fulfillmentHandler,
		webhookHandler:     webhookHandler,
		promoHandler:       promoHandler,
		cfg:                cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- inbound callbacks (signed, outside API-key auth) --------
	s.echo.POST("/webhooks/store", s.webhookHandler.Handle)
	s.echo.POST("/webhooks/dispatch-status", s.fulfillmentHandler.Status)

	api := s.echo.Group("/api", middleware.APIKeyAuth(s.cfg.AdminAPIKey))

	// -------- catalog --------
	api.GET("/games", s.catalogHandler.ListGames)
	api.POST("/games", s.catalogHandler.CreateGame)
	api.GET("/games/:id", s.catalogHandler.GetGame)
	api.PUT("/games/:id", s.catalogHandler.UpdateGame)
	api.DELETE("/games/:id", s.catalogHandler.DeleteGame)
	api.POST("/games/:id/accounts", s.catalogHandler.CreateAccount)
	api.PUT("/accounts/:id", s.catalogHandler.UpdateAccount)
	api.DELETE("/accounts/:id", s.catalogHandler.DeleteAccount)
	api.POST("/accounts/:id/codes", s.catalogHandler.AppendCodes)
	api.GET("/accounts/:id/codes/next", s.catalogHandler.PreviewNext)
	api.POST("/accounts/:id/codes/consume", s.catalogHandler.ConsumeNext)

	// -------- sku resolution / allocation --------
	api.GET("/resolve", s.catalogHandler.Resolve)
	api.POST("/allocate", s.catalogHandler.Allocate)
	api.POST("/consume", s.catalogHandler.ConsumeBySKU)

	// -------- snapshot import/export --------
	api.POST("/snapshot/import", s.catalogHandler.ImportSnapshot)
	api.GET("/snapshot/export", s.catalogHandler.ExportSnapshot)

	// -------- orders --------
	api.GET("/orders", s.orderHandler.ListOrders)
	api.POST("/orders", s.orderHandler.CreateOrder)
	api.GET("/orders/grouped", s.orderHandler.ListGrouped)
	api.GET("/orders/:id", s.orderHandler.GetOrder)
	api.PUT("/orders/:id", s.orderHandler.UpdateOrder)
	api.DELETE("/orders/:id", s.orderHandler.DeleteOrder)
	api.GET("/orders/:id/total", s.orderHandler.OrderTotal)
	api.GET("/orders/:id/items", s.orderHandler.ListItems)
	api.POST("/orders/:id/items", s.orderHandler.CreateItem)
	api.PUT("/items/:id", s.orderHandler.UpdateItem)
	api.DELETE("/items/:id", s.orderHandler.DeleteItem)
	api.POST("/items/:id/toggle-shipped", s.orderHandler.ToggleShipped)
	api.POST("/sales", s.orderHandler.CreateSale)
	api.GET("/customers", s.orderHandler.ListCustomers)

	// -------- promotions feed --------
	api.GET("/promos", s.promoHandler.Status)
	api.GET("/promos/list", s.promoHandler.List)
	api.POST("/promos/refresh", s.promoHandler.Refresh)

	// -------- fulfillment --------
	api.POST("/fulfillment/preview", s.fulfillmentHandler.Preview)
	api.POST("/fulfillment/dispatch", s.fulfillmentHandler.Dispatch)
	api.POST("/fulfillment/send-email", s.fulfillmentHandler.SendItemEmail)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
