package imageproxy

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	proxymodel "github.com/Urbandonment/trophy-forge/internal/model/proxy"
	"github.com/Urbandonment/trophy-forge/internal/service/imagepipe"
	"github.com/Urbandonment/trophy-forge/pkg/utils"
)

// Pipeline is the transform unit behind the proxy endpoint.
type Pipeline interface {
	Proxy(ctx context.Context, rawURL string) (proxymodel.TransformedImage, error)
}

// Handler serves the image proxy endpoint.
type Handler struct {
	pipeline Pipeline
}

// New creates the image proxy handler.
func New(pipeline Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

// RegisterRoutes mounts the proxy route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/proxy-image", h.handleProxyImage)
}

func (h *Handler) handleProxyImage(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")

	transformed, err := h.pipeline.Proxy(r.Context(), rawURL)
	if err != nil {
		status := http.StatusInternalServerError
		var pipeErr *imagepipe.Error
		if errors.As(err, &pipeErr) {
			status = pipeErr.Status
		}
		if status >= http.StatusInternalServerError {
			log.Printf("[proxy-image] %s: %v", rawURL, err)
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	// Permissive CORS so canvas readback of the proxied pixels stays
	// untainted in the browser.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", transformed.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(transformed.ByteLength))
	if _, err := w.Write(transformed.Payload); err != nil {
		log.Printf("[proxy-image] failed to stream response: %v", err)
	}
}
