package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type serviceAreaPayload struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type RegisterRequest struct {
	Email        string               `json:"email"`
	Password     string               `json:"password"`
	CompanyName  string               `json:"company_name"`
	FoundedYear  int                  `json:"founded_year"`
	City         string               `json:"city"`
	State        string               `json:"state"`
	Phone        string               `json:"phone"`
	ServiceAreas []serviceAreaPayload `json:"service_areas"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Status      string `json:"status"`
	Credits     int    `json:"credits"`
	City        string `json:"city"`
	State       string `json:"state"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.CompanyName == "" || req.City == "" || req.State == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	areas := make([]CityState, 0, len(req.ServiceAreas))
	for _, a := range req.ServiceAreas {
		if a.City == "" || a.State == "" {
			http.Error(w, "service areas require city and state", http.StatusBadRequest)
			return
		}
		areas = append(areas, CityState{City: a.City, State: a.State})
	}
	profile, err := h.svc.Register(r.Context(), RegisterParams{
		Email:        req.Email,
		Password:     req.Password,
		CompanyName:  req.CompanyName,
		FoundedYear:  req.FoundedYear,
		City:         req.City,
		State:        req.State,
		Phone:        req.Phone,
		ServiceAreas: areas,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.log.Error("register failed", "error", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(profileToResponse(profile))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "missing email or password", http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if err.Error() == "invalid credentials" {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.log.Error("login failed", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(LoginResponse{Token: token})
}

func profileToResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID.String(),
		Email:       p.Email,
		CompanyName: p.CompanyName,
		Status:      p.Status,
		Credits:     p.Credits,
		City:        p.City,
		State:       p.State,
	}
}
