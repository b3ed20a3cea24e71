package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"budget-advisor/internal/auth"
	"budget-advisor/internal/budget"
	"budget-advisor/internal/logging"
	"budget-advisor/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Accounts interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (auth.Session, error)
}

type Authorizer interface {
	Authorize(header string) (models.Identity, error)
}

type Planner interface {
	Generate(ctx context.Context, req budget.Request) (budget.Plan, error)
	History(ctx context.Context, userID int64) ([]models.BudgetRecord, error)
}

type Options struct {
	// Gatherer backs /metrics; the route is omitted when nil.
	Gatherer          prometheus.Gatherer
	FrontendDir       string
	CORSAllowedOrigin string
}

type Handler struct {
	accounts Accounts
	sessions Authorizer
	planner  Planner
	opts     Options
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// budgetRequest leaves every field raw; the budget package decides what each value means.
type budgetRequest struct {
	Salary             json.RawMessage `json:"salary"`
	SpendingCategories json.RawMessage `json:"spendingCategories"`
	SavingOptions      json.RawMessage `json:"savingOptions"`
	Notes              json.RawMessage `json:"notes"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginResponse struct {
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    models.Identity `json:"user"`
}

type budgetResponse struct {
	Message    string `json:"message"`
	BudgetPlan string `json:"budgetPlan"`
}

type historyResponse struct {
	Message string                `json:"message"`
	History []models.BudgetRecord `json:"history"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHandler(accounts Accounts, sessions Authorizer, planner Planner, opts Options) *Handler {
	if opts.CORSAllowedOrigin == "" {
		opts.CORSAllowedOrigin = "*"
	}
	return &Handler{
		accounts: accounts,
		sessions: sessions,
		planner:  planner,
		opts:     opts,
	}
}

// Routes returns the router wrapped in CORS and panic recovery.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(routeLabelMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", h.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)

	budgetRoutes := api.PathPrefix("/budget").Subrouter()
	budgetRoutes.Use(h.sessionGuard)
	budgetRoutes.HandleFunc("/save", h.handleSaveBudget).Methods(http.MethodPost)
	budgetRoutes.HandleFunc("/history", h.handleHistory).Methods(http.MethodGet)

	if h.opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	if dir := h.opts.FrontendDir; dir != "" {
		r.HandleFunc("/", servePage(dir, "index.html")).Methods(http.MethodGet)
		r.HandleFunc("/budget", servePage(dir, "budget.html")).Methods(http.MethodGet)
		r.HandleFunc("/about", servePage(dir, "about.html")).Methods(http.MethodGet)
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(dir))).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return CORSMiddleware(h.opts.CORSAllowedOrigin)(RecoverMiddleware(r))
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "OK", Message: "Budget Advisor API is running"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, auth.ErrUsernameTaken):
			writeError(w, http.StatusBadRequest, "Username already exists")
		default:
			logging.FromContext(r.Context()).Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Message: "User registered successfully", UserID: user.ID})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	session, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			logging.FromContext(r.Context()).Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: session.Token, User: session.User})
}

func (h *Handler) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	plan, err := h.planner.Generate(r.Context(), budget.Request{
		UserID:             identity.UserID,
		Salary:             req.Salary,
		SpendingCategories: req.SpendingCategories,
		SavingOptions:      req.SavingOptions,
		Notes:              req.Notes,
	})
	if err != nil {
		if errors.Is(err, budget.ErrSalaryRequired) {
			writeError(w, http.StatusBadRequest, "Salary is required")
			return
		}
		logging.FromContext(r.Context()).Error("budget generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate budget plan")
		return
	}

	writeJSON(w, http.StatusOK, budgetResponse{Message: plan.Message(), BudgetPlan: plan.Text})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required")
		return
	}

	records, err := h.planner.History(r.Context(), identity.UserID)
	if err != nil {
		logging.FromContext(r.Context()).Error("history retrieval failed", "user_id", identity.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	if records == nil {
		records = []models.BudgetRecord{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Message: "Budget history retrieved successfully", History: records})
}

func servePage(dir, name string) http.HandlerFunc {
	path := filepath.Join(dir, name)
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, path)
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
