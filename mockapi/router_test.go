package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/config"
	"ai-character-chat/widget/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})

	cfg := config.Get()
	characters := []models.Character{
		{ID: "char_luna", Name: "Luna", StatusText: "Stargazing", PersonalityTags: []string{"curious"}, FilterTags: []string{"fantasy"}},
		{ID: "char_rex", Name: "Rex", StatusText: "Coffee first", FilterTags: []string{"noir"}},
	}
	return NewRouter(NewStore(characters), log, cfg)
}

func postEnvelope(t *testing.T, r *Router, path string, data any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]any{"data": data})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Nil(t, env.Error, "unexpected error envelope: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(env.Result, out))
}

func decodeErrorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error, "expected error envelope, got: %s", w.Body.String())
	return env.Error.Message
}

func createUser(t *testing.T, r *Router) string {
	t.Helper()
	w := postEnvelope(t, r, "/api/createAnonymousUser", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		UID string `json:"uid"`
	}
	decodeResult(t, w, &res)
	require.NotEmpty(t, res.UID)
	return res.UID
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateAnonymousUser(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)
	assert.True(t, strings.HasPrefix(uid, "user_"))
}

func TestOnboardUser(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := postEnvelope(t, r, "/api/onboardUser", map[string]any{
		"uid": uid, "deviceId": "device_abc", "displayName": "Ada", "birthYear": 1990,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"result"`)
}

func TestOnboardUserRequiresUID(t *testing.T) {
	r := testRouter(t)
	w := postEnvelope(t, r, "/api/onboardUser", map[string]any{"displayName": "Ada"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeErrorMessage(t, w), "uid is required")
}

func TestListCharacters(t *testing.T) {
	r := testRouter(t)
	w := postEnvelope(t, r, "/api/listCharacters", map[string]any{"limit": 10})

	var res struct {
		Characters []models.Character `json:"characters"`
	}
	decodeResult(t, w, &res)
	assert.Len(t, res.Characters, 2)
}

func TestListCharactersFiltersByTag(t *testing.T) {
	r := testRouter(t)
	w := postEnvelope(t, r, "/api/listCharacters", map[string]any{
		"limit": 10, "filteredTags": []string{"noir"},
	})

	var res struct {
		Characters []models.Character `json:"characters"`
	}
	decodeResult(t, w, &res)
	require.Len(t, res.Characters, 1)
	assert.Equal(t, "Rex", res.Characters[0].Name)
}

func TestNewChatUnknownCharacter(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := postEnvelope(t, r, "/api/newChat", map[string]any{
		"characterId": "char_missing", "uid": uid,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "character not found", decodeErrorMessage(t, w))
}

func TestNewChatIdempotentPerPair(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	var first, second models.ChatHandle
	decodeResult(t, postEnvelope(t, r, "/api/newChat", map[string]any{"characterId": "char_luna", "uid": uid}), &first)
	decodeResult(t, postEnvelope(t, r, "/api/newChat", map[string]any{"characterId": "char_luna", "uid": uid}), &second)

	assert.True(t, first.IsNewConversation)
	assert.False(t, second.IsNewConversation)
	assert.Equal(t, first.ConversationID, second.ConversationID)
}

func TestGetUserChatsBeforeAnyConversation(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := postEnvelope(t, r, "/api/getUserChats", map[string]any{"uid": uid})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeErrorMessage(t, w), "not found")
}

func TestGetChatHistoryUnknownConversation(t *testing.T) {
	r := testRouter(t)
	w := postEnvelope(t, r, "/api/getChatHistory", map[string]any{
		"characterId": "char_luna", "uid": "user_none", "limit": 50,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeErrorMessage(t, w), "not found")
}

func TestMalformedEnvelopeRejected(t *testing.T) {
	r := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/newChat", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func streamRequest(uid, characterID, prompt string, authorized bool) *http.Request {
	body := fmt.Sprintf(`{"prompt":%q,"characterId":%q,"uid":%q}`, prompt, characterID, uid)
	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream?uid="+uid, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	return req
}

func TestStreamChatRequiresMatchingCredential(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, streamRequest(uid, "char_luna", "hi", false))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStreamChatEmitsChunksAndComplete(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, streamRequest(uid, "char_luna", "hello there", true))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"type":"chunk"`)
	assert.Contains(t, body, `"type":"complete"`)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		assert.True(t, strings.HasPrefix(line, "data: "), "unexpected line: %q", line)
	}
}

func TestStreamChatUnknownCharacter(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, streamRequest(uid, "char_missing", "hi", true))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"error"`)
	assert.Contains(t, w.Body.String(), "character not found")
}

func TestStreamChatPersistsBothMessages(t *testing.T) {
	r := testRouter(t)
	uid := createUser(t, r)

	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, streamRequest(uid, "char_luna", "hello", true))
	require.Equal(t, http.StatusOK, w.Code)

	hw := postEnvelope(t, r, "/api/getChatHistory", map[string]any{
		"characterId": "char_luna", "uid": uid, "limit": 50,
	})
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	decodeResult(t, hw, &res)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, models.RoleUser, res.Messages[0].Role)
	assert.Equal(t, "hello", res.Messages[0].Content)
	assert.Equal(t, models.RoleAssistant, res.Messages[1].Role)

	// The summary list now exists and leads with this conversation.
	sw := postEnvelope(t, r, "/api/getUserChats", map[string]any{"uid": uid})
	var sres struct {
		Conversations []models.ChatSummary `json:"conversations"`
	}
	decodeResult(t, sw, &sres)
	require.Len(t, sres.Conversations, 1)
	assert.Equal(t, "Luna", sres.Conversations[0].CharacterName)
	assert.NotEmpty(t, sres.Conversations[0].LastMessage)
}
