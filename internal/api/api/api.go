package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"colloquium/cmd/middleware"
	"colloquium/internal/service"
)

type Routers struct {
	Service service.Service
	Mode    string
}

func NewRouters(r *Routers) *ginext.Engine {
	mode := r.Mode
	if mode == "" {
		mode = "release"
	}
	app := ginext.New(mode)

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	app.GET("/exec", r.Service.Read)
	app.POST("/exec", r.Service.Write)

	apiGroup := app.Group("/v1")
	apiGroup.GET("/exec", r.Service.Read)
	apiGroup.POST("/exec", r.Service.Write)

	app.GET("/healthz", r.Service.Health)
	app.GET("/qr", r.Service.QRCode)

	return app
}
