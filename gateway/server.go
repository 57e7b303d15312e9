package gateway

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seatswap/config"
	"seatswap/ledger"
	"seatswap/native/market"
	"seatswap/observability"
	"seatswap/storage"
)

// Config carries the dependencies required to construct the HTTP server.
type Config struct {
	Registry          *market.Registry
	Store             *storage.Store
	Ledger            ledger.Ledger
	JWTSecret         []byte
	Logger            *slog.Logger
	RequestsPerMinute float64
	RateBurst         int
}

// Server exposes the marketplace operations over HTTP.
type Server struct {
	registry *market.Registry
	store    *storage.Store
	ledger   ledger.Ledger
	auth     *Authenticator
	logger   *slog.Logger

	router http.Handler
}

// New constructs the configured HTTP router.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		registry: cfg.Registry,
		store:    cfg.Store,
		ledger:   cfg.Ledger,
		auth:     NewAuthenticator(cfg.JWTSecret),
		logger:   logger,
	}
	srv.router = srv.buildRouter(NewRateLimiter(cfg.RequestsPerMinute, cfg.RateBurst))
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler { return s.router }

// Auth exposes the token verifier, used by local tooling to mint tokens.
func (s *Server) Auth() *Authenticator { return s.auth }

func (s *Server) buildRouter(limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(limiter.Middleware)
	r.Use(s.observe)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.auth.Middleware)
		api.Post("/listings", s.CreateListing)
		api.Get("/listings", s.ListOpen)
		api.Get("/listings/{id}", s.GetListing)
		api.Get("/listings/{id}/events", s.ListEvents)
		api.Post("/listings/{id}/purchase", s.Purchase)
		api.Post("/listings/{id}/confirm/seller", s.SellerConfirm)
		api.Post("/listings/{id}/confirm/buyer", s.BuyerConfirm)
		api.Post("/listings/{id}/dispute", s.Dispute)
		api.Post("/listings/{id}/resolve", s.Resolve)
		api.Post("/listings/{id}/timeout", s.ClaimTimeout)
		api.Post("/listings/{id}/close", s.CloseListing)
		api.Get("/accounts/{address}/balance", s.Balance)
		api.Post("/accounts/approve", s.Approve)
	})

	r.Route("/ops", func(ops chi.Router) {
		ops.Use(s.auth.Middleware)
		ops.Post("/resolvers", s.AddResolver)
		ops.Delete("/resolvers/{address}", s.RemoveResolver)
		ops.Post("/factory/close", s.CloseFactory)
	})

	return r
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		status := strconv.Itoa(ww.Status())
		observability.Market().RequestLatency.
			WithLabelValues(route, r.Method, status).
			Observe(time.Since(start).Seconds())
		s.logger.Info("http request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type listingResponse struct {
	ID                uint64 `json:"id"`
	Seller            string `json:"seller"`
	Buyer             string `json:"buyer,omitempty"`
	UnitPrice         string `json:"unitPrice"`
	Quantity          uint64 `json:"quantity"`
	Description       string `json:"description,omitempty"`
	SellerConfirmed   bool   `json:"sellerConfirmed"`
	BuyerConfirmed    bool   `json:"buyerConfirmed"`
	Disputed          bool   `json:"disputed"`
	Closed            bool   `json:"closed"`
	PurchasedAt       int64  `json:"purchasedAt,omitempty"`
	SellerConfirmedAt int64  `json:"sellerConfirmedAt,omitempty"`
}

func listingView(l *market.Listing) listingResponse {
	view := listingResponse{
		ID:                l.ID,
		Seller:            hex.EncodeToString(l.Seller[:]),
		UnitPrice:         l.UnitPrice.String(),
		Quantity:          l.Quantity,
		Description:       l.Description,
		SellerConfirmed:   l.SellerConfirmed,
		BuyerConfirmed:    l.BuyerConfirmed,
		Disputed:          l.Disputed,
		Closed:            l.Closed,
		PurchasedAt:       l.PurchasedAt,
		SellerConfirmedAt: l.SellerConfirmedAt,
	}
	if l.HasBuyer() {
		view.Buyer = hex.EncodeToString(l.Buyer[:])
	}
	return view
}

type createListingRequest struct {
	UnitPrice   string `json:"unitPrice"`
	Quantity    uint64 `json:"quantity"`
	Description string `json:"description"`
}

// CreateListing handles POST /api/v1/listings.
func (s *Server) CreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	unitPrice, ok := new(big.Int).SetString(req.UnitPrice, 10)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "unitPrice must be a base-10 integer")
		return
	}
	listing, err := s.registry.ListTicket(caller, unitPrice, req.Quantity, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.Market().ListingsCreated.Inc()
	s.persist(listing.ID)
	writeJSON(w, http.StatusCreated, listingView(listing))
}

// ListOpen handles GET /api/v1/listings.
func (s *Server) ListOpen(w http.ResponseWriter, r *http.Request) {
	open := s.registry.ListOpen()
	views := make([]listingResponse, 0, len(open))
	for _, listing := range open {
		views = append(views, listingView(listing))
	}
	writeJSON(w, http.StatusOK, views)
}

// GetListing handles GET /api/v1/listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	listing, found := s.registry.Listing(id)
	if !found {
		writeJSONError(w, http.StatusNotFound, "not_found", "listing not found")
		return
	}
	writeJSON(w, http.StatusOK, listingView(listing))
}

// ListEvents handles GET /api/v1/listings/{id}/events.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	records, err := s.store.EventsFor(id)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Purchase handles POST /api/v1/listings/{id}/purchase.
func (s *Server) Purchase(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "", func(caller [20]byte, id uint64) error {
		return s.registry.PurchaseTicket(caller, id)
	}, false)
}

// SellerConfirm handles POST /api/v1/listings/{id}/confirm/seller.
func (s *Server) SellerConfirm(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, observability.OutcomeRelease, func(caller [20]byte, id uint64) error {
		return s.registry.SellerConfirm(caller, id)
	})
}

// BuyerConfirm handles POST /api/v1/listings/{id}/confirm/buyer.
func (s *Server) BuyerConfirm(w http.ResponseWriter, r *http.Request) {
	s.settle(w, r, observability.OutcomeRelease, func(caller [20]byte, id uint64) error {
		return s.registry.BuyerConfirm(caller, id)
	})
}

// Dispute handles POST /api/v1/listings/{id}/dispute.
func (s *Server) Dispute(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "", func(caller [20]byte, id uint64) error {
		return s.registry.CreateDispute(caller, id)
	}, false)
}

type resolveRequest struct {
	Winner string `json:"winner"`
}

// Resolve handles POST /api/v1/listings/{id}/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	winner, err := config.ParseAddress(req.Winner)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.registry.ResolveDispute(caller, id, winner); err != nil {
		writeDomainError(w, err)
		return
	}
	if listing, found := s.registry.Listing(id); found {
		outcome := observability.OutcomeDisputeSeller
		if winner == listing.Buyer {
			outcome = observability.OutcomeDisputeBuyer
		}
		observability.Market().Settlements.WithLabelValues(outcome).Inc()
	}
	s.persist(id)
	s.respondListing(w, id)
}

// ClaimTimeout handles POST /api/v1/listings/{id}/timeout.
func (s *Server) ClaimTimeout(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	before, _ := s.registry.Listing(id)
	if err := s.registry.ClaimTimeout(caller, id); err != nil {
		writeDomainError(w, err)
		return
	}
	outcome := observability.OutcomeTimeoutSeller
	if before != nil && before.SellerConfirmed {
		outcome = observability.OutcomeTimeoutBuyer
	}
	observability.Market().Settlements.WithLabelValues(outcome).Inc()
	s.persist(id)
	s.respondListing(w, id)
}

// CloseListing handles POST /api/v1/listings/{id}/close.
func (s *Server) CloseListing(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, observability.OutcomeWithdrawn, func(caller [20]byte, id uint64) error {
		return s.registry.CloseListing(caller, id)
	}, true)
}

type resolverRequest struct {
	Address string `json:"address"`
}

// AddResolver handles POST /ops/resolvers.
func (s *Server) AddResolver(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req resolverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	addr, err := config.ParseAddress(req.Address)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.registry.AddResolver(caller, addr); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// RemoveResolver handles DELETE /ops/resolvers/{address}.
func (s *Server) RemoveResolver(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	addr, err := config.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.registry.RemoveResolver(caller, addr); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// CloseFactory handles POST /ops/factory/close.
func (s *Server) CloseFactory(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	if err := s.registry.CloseFactory(caller); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Balance handles GET /api/v1/accounts/{address}/balance.
func (s *Server) Balance(w http.ResponseWriter, r *http.Request) {
	addr, err := config.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"address": hex.EncodeToString(addr[:]),
		"balance": s.ledger.BalanceOf(addr).String(),
	})
}

type approveRequest struct {
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount"`
}

// Approve handles POST /api/v1/accounts/approve. The spender defaults to the
// registry vault so parties can authorize deposit and payment pulls.
func (s *Server) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "amount must be a base-10 integer")
		return
	}
	spender := s.registry.Vault()
	if req.Spender != "" {
		parsed, err := config.ParseAddress(req.Spender)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		spender = parsed
	}
	if err := s.ledger.Approve(caller, spender, amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, outcome string, op func([20]byte, uint64) error, settled bool) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	if err := op(caller, id); err != nil {
		writeDomainError(w, err)
		return
	}
	if settled && outcome != "" {
		observability.Market().Settlements.WithLabelValues(outcome).Inc()
	}
	s.persist(id)
	s.respondListing(w, id)
}

// settle runs a confirmation and counts a release settlement only when the
// operation actually closed the listing.
func (s *Server) settle(w http.ResponseWriter, r *http.Request, outcome string, op func([20]byte, uint64) error) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing caller")
		return
	}
	id, ok := s.listingID(w, r)
	if !ok {
		return
	}
	if err := op(caller, id); err != nil {
		writeDomainError(w, err)
		return
	}
	if listing, found := s.registry.Listing(id); found && listing.Closed {
		observability.Market().Settlements.WithLabelValues(outcome).Inc()
	}
	s.persist(id)
	s.respondListing(w, id)
}

func (s *Server) listingID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) respondListing(w http.ResponseWriter, id uint64) {
	listing, found := s.registry.Listing(id)
	if !found {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, listingView(listing))
}

func (s *Server) persist(id uint64) {
	if s.store == nil {
		return
	}
	listing, found := s.registry.Listing(id)
	if !found {
		return
	}
	if err := s.store.SaveListing(listing); err != nil {
		s.logger.Error("persist listing", "id", id, "err", err)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
