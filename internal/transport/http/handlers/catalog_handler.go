package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/coinmews/coinmews/internal/services/auth"
	"github.com/coinmews/coinmews/internal/services/catalog"
	httperrors "github.com/coinmews/coinmews/internal/transport/http/errors"
)

// CatalogHandler serves the public read API for every content kind.
type CatalogHandler struct {
	service *catalog.Service
}

func NewCatalogHandler(service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Articles)
}

func (h *CatalogHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Articles)
}

func (h *CatalogHandler) ListAirdrops(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Airdrops)
}

func (h *CatalogHandler) GetAirdrop(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Airdrops)
}

func (h *CatalogHandler) ListPresales(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Presales)
}

func (h *CatalogHandler) GetPresale(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Presales)
}

func (h *CatalogHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Events)
}

func (h *CatalogHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Events)
}

func (h *CatalogHandler) ListExchanges(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Exchanges)
}

func (h *CatalogHandler) GetExchange(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Exchanges)
}

func (h *CatalogHandler) ListMemes(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	listCollection(w, r, h.service.Memes)
}

func (h *CatalogHandler) GetMeme(w http.ResponseWriter, r *http.Request) {
	if h.unavailable(w) {
		return
	}
	getFromCollection(w, r, h.service.Memes)
}

func (h *CatalogHandler) unavailable(w http.ResponseWriter) bool {
	if h.service != nil {
		return false
	}
	writeInternal(w, "CATALOG_UNAVAILABLE", "catalog is unavailable")
	return true
}

func listCollection[T any](w http.ResponseWriter, r *http.Request, collection *catalog.Collection[T]) {
	page, err := collection.List(r.Context(), catalogQuery(r))
	if err != nil {
		writeFailure(w, r, "failed to load "+string(collection.Kind()), err)
		return
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	httperrors.Write(w, http.StatusOK, page)
}

func getFromCollection[T any](w http.ResponseWriter, r *http.Request, collection *catalog.Collection[T]) {
	item, err := collection.Get(r.Context(), chi.URLParam(r, "slug"), viewerFingerprint(r))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeNotFound(w, string(collection.Kind())+" not found")
			return
		}
		writeFailure(w, r, "failed to load "+string(collection.Kind()), err)
		return
	}
	httperrors.Write(w, http.StatusOK, item)
}

// catalogQuery reads the list filters. "type" fills both content and event type,
// each kind only looks at the one it has.
func catalogQuery(r *http.Request) catalog.Query {
	query := r.URL.Query()
	limit, offset := pageParams(r)

	kindType := query.Get("type")
	contentType := query.Get("content_type")
	if contentType == "" {
		contentType = kindType
	}
	eventType := query.Get("event_type")
	if eventType == "" {
		eventType = kindType
	}

	return catalog.Query{
		Status:      query.Get("status"),
		Category:    query.Get("category"),
		ContentType: contentType,
		EventType:   eventType,
		Kind:        query.Get("kind"),
		Blockchain:  query.Get("blockchain"),
		Q:           query.Get("q"),
		Limit:       limit,
		Offset:      offset,
	}
}

func viewerFingerprint(r *http.Request) string {
	var userID int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		userID = identity.UserID
	}
	return catalog.ViewerFingerprint(userID, remoteIP(r), r.UserAgent())
}

func remoteIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
