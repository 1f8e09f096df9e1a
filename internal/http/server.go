package httpapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/example/delivery-dispatch/internal/assignment"
	"github.com/example/delivery-dispatch/internal/models"
	"github.com/example/delivery-dispatch/internal/storage"
	"github.com/example/delivery-dispatch/internal/zone"
)

// Dispatcher is the dispatch service as seen by HTTP callers.
type Dispatcher interface {
	SubmitOrder(ctx context.Context, in models.NewOrder) (string, error)
	HandleRiderResponse(ctx context.Context, orderID, riderID string, accept bool) (assignment.Outcome, error)
	CancelOrder(ctx context.Context, orderID string) (models.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (models.Order, error)
	MarkPickedUp(ctx context.Context, orderID, riderID string) (models.Order, error)
	MarkDelivered(ctx context.Context, orderID, riderID string) (models.Order, error)
	UpdateLocation(ctx context.Context, p models.LocationPing) (models.RiderLocation, error)
	RiderStatus(riderID string) (models.RiderLocation, error)
	ListRiders(p models.Page) ([]models.RiderLocation, int)
	ResolveZone(p models.Point) (models.Zone, bool, error)
	AssignmentConfig() models.AssignmentConfig
}

type ZoneAdmin interface {
	List(ctx context.Context, f zone.ListFilter, p models.Page) ([]models.Zone, int, error)
	Get(ctx context.Context, id string) (models.Zone, error)
	Save(ctx context.Context, z models.Zone) (models.Zone, error)
	SetSurge(ctx context.Context, id string, multiplier float64) (models.Zone, error)
	SetActive(ctx context.Context, id string, active bool) (models.Zone, error)
}

// Records covers the persisted order history and the rider directory.
type Records interface {
	ListOrders(ctx context.Context, f storage.OrderFilter, p models.Page) ([]models.Order, int, error)
	SaveRider(ctx context.Context, r models.Rider) error
}

// NearbyRiders answers radius queries from the shared Redis GEO mirror.
type NearbyRiders interface {
	Nearby(ctx context.Context, p models.Point, radiusM float64, limit int) ([]string, error)
}

type RiderSockets interface {
	ServeRider(w http.ResponseWriter, r *http.Request, riderID string)
}

type Deps struct {
	Dispatch  Dispatcher
	Zones     ZoneAdmin
	Records   Records
	Sockets   RiderSockets
	Nearby    NearbyRiders
	AdminKeys []string
	// Ready reports whether backing services are reachable. Nil means always
	// ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	deps     Deps
	logger   *logrus.Logger
	validate *validator.Validate
	mux      *mux.Router
}

func NewServer(deps Deps, logger *logrus.Logger) *Server {
	s := &Server{
		deps:     deps,
		logger:   logger,
		validate: newValidator(),
		mux:      mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	s.mux.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws/riders/{id}", s.handleRiderSocket)

	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/riders/{id}/location", s.handleRiderLocation).Methods(http.MethodPost)
	api.HandleFunc("/riders/{id}/status", s.handleRiderStatus).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/cancel", s.handleCancelOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/response", s.handleRiderResponse).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/pickup", s.handlePickup).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/deliver", s.handleDeliver).Methods(http.MethodPost)
	api.HandleFunc("/zones/resolve", s.handleResolveZone).Methods(http.MethodGet)

	admin := s.mux.PathPrefix("/admin").Subrouter()
	admin.Use(s.apiKeyMiddleware)
	admin.HandleFunc("/zones", s.handleListZones).Methods(http.MethodGet)
	admin.HandleFunc("/zones", s.handleSaveZone).Methods(http.MethodPost)
	admin.HandleFunc("/zones/{id}", s.handleGetZone).Methods(http.MethodGet)
	admin.HandleFunc("/zones/{id}/surge", s.handleSetSurge).Methods(http.MethodPatch)
	admin.HandleFunc("/zones/{id}/active", s.handleSetActive).Methods(http.MethodPatch)
	admin.HandleFunc("/riders", s.handleListRiders).Methods(http.MethodGet)
	admin.HandleFunc("/riders", s.handleSaveRider).Methods(http.MethodPost)
	admin.HandleFunc("/riders/nearby", s.handleNearbyRiders).Methods(http.MethodGet)
	admin.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/assignment-config", s.handleAssignmentConfig).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		if err := s.deps.Ready(r.Context()); err != nil {
			s.logger.WithError(err).Warn("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, codeNotReady, "dependencies not ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleRiderSocket(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.deps.Dispatch.RiderStatus(id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.deps.Sockets.ServeRider(w, r, id)
}
