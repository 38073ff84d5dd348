package handlers

import (
	"net/http"
	"strconv"

	sitemapsvc "github.com/coinmews/coinmews/internal/services/sitemap"
)

type SitemapHandler struct {
	service *sitemapsvc.Service
}

func NewSitemapHandler(service *sitemapsvc.Service) *SitemapHandler {
	return &SitemapHandler{service: service}
}

func (h *SitemapHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SITEMAP_UNAVAILABLE", "sitemap is unavailable")
		return
	}

	body, err := h.service.XML(r.Context())
	if err != nil {
		writeFailure(w, r, "failed to build sitemap", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
