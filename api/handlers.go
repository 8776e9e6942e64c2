package api

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"collabx/domain/chat"
	"collabx/errors"
	"collabx/observability"
	"collabx/repositories"
	"collabx/services"
)

type Handler struct {
	auth     services.IAuthService
	chat     services.IChatService
	accounts repositories.IAccountRepository
	stats    *observability.Stats
	log      *slog.Logger
}

func NewHandler(
	authService services.IAuthService,
	chatService services.IChatService,
	accounts repositories.IAccountRepository,
	stats *observability.Stats,
	log *slog.Logger,
) *Handler {
	return &Handler{auth: authService, chat: chatService, accounts: accounts, stats: stats, log: log}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}

type startupSignupRequest struct {
	CompanyName string `json:"companyName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FounderName string `json:"founderName"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

func (h *Handler) StartupSignup(c *gin.Context) {
	var req startupSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.signup(c, services.SignupCommand{
		Kind:        chat.KindStartup,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
		ContactName: req.FounderName,
		Industry:    req.Industry,
		Description: req.Description,
		Website:     req.Website,
	}, "Startup registered successfully")
}

type corporateSignupRequest struct {
	CompanyName   string `json:"companyName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	ContactPerson string `json:"contactPerson"`
	Industry      string `json:"industry"`
	Description   string `json:"description"`
	Website       string `json:"website"`
}

func (h *Handler) CorporateSignup(c *gin.Context) {
	var req corporateSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.signup(c, services.SignupCommand{
		Kind:        chat.KindCorporate,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Password:    req.Password,
		ContactName: req.ContactPerson,
		Industry:    req.Industry,
		Description: req.Description,
		Website:     req.Website,
	}, "Corporate registered successfully")
}

func (h *Handler) signup(c *gin.Context, cmd services.SignupCommand, successMessage string) {
	token, account, err := h.auth.Signup(cmd)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrEmailTaken.Error()})
		case stderrors.Is(err, errors.ErrInvalidSignup):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error("signup failed", "kind", cmd.Kind, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": successMessage, "token": token, "user": account})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) StartupLogin(c *gin.Context) {
	h.login(c, chat.KindStartup)
}

func (h *Handler) CorporateLogin(c *gin.Context) {
	h.login(c, chat.KindCorporate)
}

func (h *Handler) login(c *gin.Context, kind chat.Kind) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	token, account, err := h.auth.Login(kind, req.Email, req.Password)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errors.ErrInvalidCredentials.Error()})
			return
		}
		h.log.Error("login failed", "kind", kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token, "user": account})
}

func (h *Handler) Me(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided, authorization denied"})
		return
	}

	account, err := h.accounts.GetByID(claims.UserID)
	if err != nil {
		if stderrors.Is(err, errors.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.log.Error("account lookup failed", "user_id", claims.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	account.PasswordHash = ""
	c.JSON(http.StatusOK, gin.H{"user": account})
}

// ListChats returns the caller's threads, most recent activity first.
func (h *Handler) ListChats(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no token provided, authorization denied"})
		return
	}

	userID, err := chat.ParseUserID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user ID format"})
		return
	}

	threads, err := h.chat.ListThreads(userID)
	if err != nil {
		h.log.Error("thread listing failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if threads == nil {
		threads = []chat.Thread{}
	}
	c.JSON(http.StatusOK, threads)
}
