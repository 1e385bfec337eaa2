package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	"riprocess-image-list/internal/api/handler"
	"riprocess-image-list/pkg/router"

	_ "riprocess-image-list/docs"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/health", h.Health)
	r.POST("/api/v1/image-lists", h.CreateImageList)
	r.GET("/api/v1/image-lists", h.ListImageLists)
	r.GET("/api/v1/image-lists/*", h.GetImageList)
	r.GET("/api/v1/download/*/*", h.DownloadOutput)
	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
