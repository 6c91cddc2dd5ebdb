package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/domain"
	"github.com/benline/priority-gateway/internal/observability"
	"github.com/benline/priority-gateway/internal/r2"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/mocks_test.go -package=httpapi

type Gateway interface {
	UpdateStatus(ctx context.Context, req domain.StatusUpdateRequest) (domain.UpdateResult, error)
	UpdateStatusAndAttach(ctx context.Context, req domain.StatusUpdateRequest) (domain.UpdateResult, error)
	FetchOrders(ctx context.Context) (*domain.OrderList, error)
	Snapshot(ctx context.Context) (*domain.OrderList, error)
	GetOrder(ctx context.Context, name string) (domain.Order, error)
}

type ObjectStore interface {
	PresignUpload(ctx context.Context, folder, orderID, filename, contentType string) (*r2.Upload, error)
	Put(ctx context.Context, folder, orderID, filename, dataURL string) (*r2.Upload, error)
	Delete(ctx context.Context, keyOrURL string) error
	Get(ctx context.Context, key string) (*r2.Object, error)
}

// Server exposes the gateway over HTTP. store may be nil; the /r2 routes
// then answer 500 with a store-unavailable message.
type Server struct {
	gateway Gateway
	store   ObjectStore
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(gateway Gateway, store ObjectStore, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		gateway: gateway,
		store:   store,
		router:  chi.NewRouter(),
		logger:  logger,
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}),
		ServerTimingApp(s.metrics),
	)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Get("/get-data", s.getData)
	s.router.Get("/run-python", s.runFetch)
	s.router.Get("/orders/{orderName}", s.getOrder)
	s.router.Post("/update-status", s.updateStatus)
	s.router.Post("/update-status-and-attach", s.updateStatusAndAttach)

	s.router.Post("/r2/presign-upload", s.presignUpload)
	s.router.Post("/r2/upload", s.upload)
	s.router.Post("/r2/delete", s.deleteObject)
	s.router.Get("/r2/get", s.getObject)
}

func (s *Server) getData(w http.ResponseWriter, r *http.Request) {
	list, err := s.gateway.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotMissing) {
			writeError(w, http.StatusNotFound, "data.json not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to read order snapshot")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) runFetch(w http.ResponseWriter, r *http.Request) {
	list, err := s.gateway.FetchOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch order details.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "orderName")
	if name == "" {
		writeError(w, http.StatusBadRequest, "order name required")
		return
	}
	order, err := s.gateway.GetOrder(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusNotFound, "no order with this name")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type updateResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Notified bool   `json:"notified"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Error("bad update-status body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	res, err := s.gateway.UpdateStatus(r.Context(), req)
	if err != nil {
		s.writeUpdateError(w, err, "Failed to update order status.")
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Status:   "success",
		Message:  res.Message,
		Notified: res.Notified,
	})
}

func (s *Server) updateStatusAndAttach(w http.ResponseWriter, r *http.Request) {
	var req domain.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Error("bad update-status-and-attach body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	res, err := s.gateway.UpdateStatusAndAttach(r.Context(), req)
	if err != nil {
		s.writeUpdateError(w, err, "Failed to update order status or add attachment.")
		return
	}

	writeJSON(w, http.StatusOK, updateResponse{
		Status:   "success",
		Message:  res.Message,
		Notified: res.Notified,
	})
}

func (s *Server) writeUpdateError(w http.ResponseWriter, err error, upstreamMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Missing orderName or status")
	case errors.Is(err, domain.ErrMissingNotificationFields):
		writeError(w, http.StatusBadRequest, "Missing email or reviewLink for sending email")
	default:
		writeError(w, http.StatusInternalServerError, upstreamMsg)
	}
}

type presignRequest struct {
	Folder      string `json:"folder"`
	OrderID     string `json:"orderId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

func (s *Server) presignUpload(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, domain.ErrStoreUnavailable.Error())
		return
	}

	var req presignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	up, err := s.store.PresignUpload(r.Context(), req.Folder, req.OrderID, req.Filename, req.ContentType)
	if err != nil {
		s.logger.Error("presign failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "presign failed")
		return
	}
	writeJSON(w, http.StatusOK, up)
}

type uploadRequest struct {
	Folder   string `json:"folder"`
	OrderID  string `json:"orderId"`
	Filename string `json:"filename"`
	DataURL  string `json:"dataUrl"`
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, domain.ErrStoreUnavailable.Error())
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DataURL == "" {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	up, err := s.store.Put(r.Context(), req.Folder, req.OrderID, req.Filename, req.DataURL)
	if err != nil {
		s.logger.Error("upload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, up)
}

type deleteRequest struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (s *Server) deleteObject(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, domain.ErrStoreUnavailable.Error())
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Key == "" && req.URL == "") {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	target := req.Key
	if target == "" {
		target = req.URL
	}
	if err := s.store.Delete(r.Context(), target); err != nil {
		s.logger.Error("delete failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) getObject(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusInternalServerError, domain.ErrStoreUnavailable.Error())
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "key required")
		return
	}

	obj, err := s.store.Get(r.Context(), key)
	if err != nil {
		s.logger.Error("object get failed", zap.String("key", key), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Disposition", "inline")
	if obj.Length > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", obj.Length))
	}
	_, _ = io.Copy(w, obj.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"status":  "error",
		"message": msg,
	})
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) Handler() http.Handler { return s.router }
