package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler serves the envelope endpoints.
type Handler struct {
	store       *Store
	log         *logger.Logger
	streamDelay time.Duration
}

// NewHandler creates the handler set.
func NewHandler(store *Store, log *logger.Logger, streamDelay time.Duration) *Handler {
	return &Handler{
		store:       store,
		log:         log.WithComponent("mockapi"),
		streamDelay: streamDelay,
	}
}

// bindData decodes the {"data": ...} request envelope into out.
func bindData(c *gin.Context, out any) bool {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request envelope"}})
		return false
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "invalid request data"}})
			return false
		}
	}
	return true
}

func respondResult(c *gin.Context, operation string, result any) {
	requestsTotal.WithLabelValues(operation, "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// respondError reports a domain failure through the protocol's error
// envelope. Transport status stays 200; only malformed requests get 4xx.
func respondError(c *gin.Context, operation, message string) {
	requestsTotal.WithLabelValues(operation, "error").Inc()
	c.JSON(http.StatusOK, gin.H{"error": gin.H{"message": message}})
}

// CreateAnonymousUser mints a fresh user id.
func (h *Handler) CreateAnonymousUser(c *gin.Context) {
	if !bindData(c, nil) {
		return
	}
	uid := h.store.CreateUser()
	h.log.Info("anonymous user created", "uid", uid)
	respondResult(c, "createAnonymousUser", gin.H{"uid": uid})
}

// OnboardUser records profile details for a user.
func (h *Handler) OnboardUser(c *gin.Context) {
	var req struct {
		UID         string `json:"uid"`
		DeviceID    string `json:"deviceId"`
		DisplayName string `json:"displayName"`
		BirthYear   int    `json:"birthYear"`
	}
	if !bindData(c, &req) {
		return
	}
	if req.UID == "" {
		respondError(c, "onboardUser", "uid is required")
		return
	}
	if err := h.store.Onboard(req.UID, req.DeviceID, req.DisplayName, req.BirthYear); err != nil {
		respondError(c, "onboardUser", err.Error())
		return
	}
	respondResult(c, "onboardUser", gin.H{})
}

// GetUserChats lists a user's conversations.
func (h *Handler) GetUserChats(c *gin.Context) {
	var req struct {
		UID string `json:"uid"`
	}
	if !bindData(c, &req) {
		return
	}
	summaries, err := h.store.Summaries(req.UID)
	if err != nil {
		respondError(c, "getUserChats", err.Error())
		return
	}
	respondResult(c, "getUserChats", gin.H{"conversations": summaries})
}

// ListCharacters returns the catalog.
func (h *Handler) ListCharacters(c *gin.Context) {
	var req struct {
		Limit        int      `json:"limit"`
		FilteredTags []string `json:"filteredTags"`
		PrefetchMode bool     `json:"prefetchMode"`
	}
	if !bindData(c, &req) {
		return
	}
	chars := h.store.Characters(req.Limit, req.FilteredTags)
	if chars == nil {
		chars = []models.Character{}
	}
	respondResult(c, "listCharacters", gin.H{"characters": chars})
}

// NewChat binds a new-or-existing conversation for (character, user).
func (h *Handler) NewChat(c *gin.Context) {
	var req struct {
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
	}
	if !bindData(c, &req) {
		return
	}
	if req.CharacterID == "" || req.UID == "" {
		respondError(c, "newChat", "characterId and uid are required")
		return
	}
	if _, ok := h.store.CharacterByID(req.CharacterID); !ok {
		respondError(c, "newChat", "character not found")
		return
	}
	handle, err := h.store.OpenConversation(req.CharacterID, req.UID)
	if err != nil {
		respondError(c, "newChat", err.Error())
		return
	}
	respondResult(c, "newChat", handle)
}

// GetChatHistory returns prior messages, oldest first.
func (h *Handler) GetChatHistory(c *gin.Context) {
	var req struct {
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
		Limit       int    `json:"limit"`
	}
	if !bindData(c, &req) {
		return
	}
	msgs, err := h.store.History(req.CharacterID, req.UID, req.Limit)
	if err != nil {
		respondError(c, "getChatHistory", err.Error())
		return
	}
	respondResult(c, "getChatHistory", gin.H{"messages": msgs})
}
