package handlers

import (
	"net/http"
	"strings"

	"agrimart/models"
	"agrimart/utils"

	"github.com/julienschmidt/httprouter"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Admins come from ADMIN_EMAILS, never from a sign-up form.
	if req.Role != "" && models.Role(req.Role) != models.RoleFarmer {
		utils.RespondWithError(w, http.StatusForbidden, "Only farmer accounts can be registered")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	ok, err := client(r).Session.Register(ctx, name, req.Email, req.Password, models.RoleFarmer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Registration failed. Use a valid email and a password of at least 6 characters")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"message": "Registration successful. Please log in"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	c := client(r)
	ok := c.Session.Login(ctx, req.Email, req.Password)
	h.metrics.LoginAttempt(ok)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	id := c.Identity()
	token, err := h.tokens.Issue(c.ID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, authResponse{Token: token, User: id})
}

// Logout signs the session out and hands back an anonymous token for the
// same session so the cart survives.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	c := client(r)
	if err := c.Session.Logout(ctx); err != nil {
		h.logger.Warn("logout", "session", c.ID, "error", err)
	}
	token, err := h.tokens.Issue(c.ID, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, authResponse{Token: token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := requestContext(r)
	defer cancel()
	c := client(r)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"user":            c.Identity(),
		"rememberedEmail": c.Session.RememberedEmail(ctx),
	})
}
