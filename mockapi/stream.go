package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-character-chat/widget/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type streamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// StreamChat serves the reply stream: a chunked text response of
// "data: <json>\n" events, ending with a complete event carrying the full
// reply.
func (h *Handler) StreamChat(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" || c.GetHeader("Authorization") != "Bearer "+uid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"message": "missing or mismatched credential"},
		})
		return
	}

	var req struct {
		Prompt      string `json:"prompt"`
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"message": "invalid request body"},
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	flusher, _ := c.Writer.(http.Flusher)

	writeEvent := func(ev streamEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	character, ok := h.store.CharacterByID(req.CharacterID)
	if !ok {
		writeEvent(streamEvent{Type: "error", Message: "character not found"})
		return
	}

	streamsTotal.Inc()
	h.log.Info("reply stream opened", "uid", uid, "character_id", character.ID)

	h.store.AppendMessage(character.ID, uid, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   req.Prompt,
		Timestamp: time.Now(),
	})

	reply := composeReply(character, req.Prompt)

	// Stream the reply a few words at a time, then confirm the whole text
	// with a complete event, mirroring the production service.
	words := strings.Fields(reply)
	for i := 0; i < len(words); i += 3 {
		end := i + 3
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if end < len(words) {
			chunk += " "
		}
		writeEvent(streamEvent{Type: "chunk", Content: chunk})
		streamChunksTotal.Inc()

		if h.streamDelay > 0 {
			select {
			case <-c.Request.Context().Done():
				return
			case <-time.After(h.streamDelay):
			}
		}
	}
	writeEvent(streamEvent{Type: "complete", Content: reply})

	h.store.AppendMessage(character.ID, uid, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	})
}

// composeReply fakes an in-character answer from the catalog snapshot.
func composeReply(ch models.Character, prompt string) string {
	traits := strings.Join(ch.PersonalityTags, ", ")
	if traits == "" {
		traits = "mysterious"
	}
	prompt = strings.TrimSpace(prompt)
	if len(prompt) > 60 {
		prompt = prompt[:60] + "..."
	}
	return fmt.Sprintf("%s here, %s as always. You said %q, and I have thoughts about that. %s",
		ch.Name, traits, prompt, ch.StatusText)
}
