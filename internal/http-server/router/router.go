package router

import (
	"net/http"

	"product-media-manager/internal/http-server/handler/media"
	"product-media-manager/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	MediaHandler *media.MediaHandler
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/products/{productID}", func(r chi.Router) {
			r.Route("/media", func(r chi.Router) {
				r.Get("/", h.MediaHandler.ListMedia)
				r.Post("/", h.MediaHandler.UploadMedia)
				r.Delete("/", h.MediaHandler.ClearMedia)
				r.Put("/order", h.MediaHandler.UpdateOrder)
				r.Post("/watermarks", h.MediaHandler.GenerateAllWatermarks)
				r.Post("/{index}/watermark", h.MediaHandler.GenerateWatermark)
				r.Put("/{index}/sku", h.MediaHandler.UpdateSKU)
				r.Delete("/{index}", h.MediaHandler.DeleteMedia)
			})

			r.Get("/gallery", h.MediaHandler.Gallery)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.MediaHandler.GetSettings)
			r.Put("/", h.MediaHandler.UpdateSettings)
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
