package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/gemini"
)

func testConfig() *config.Config {
	return &config.Config{
		StandardModel:     DefaultCatalog.Standard,
		PremiumModel:      DefaultCatalog.Premium,
		TextModel:         "gemini-2.5-flash",
		GenerationTimeout: time.Second,
		GenerationMode:    config.ModeDirect,
	}
}

type testEnv struct {
	router   *mux.Router
	models   *fakeModels
	keys     []string
	store    *MemoryCredentialStore
	sessions *fakeSessions
}

func newTestEnv(cfg *config.Config) *testEnv {
	env := &testEnv{
		router:   mux.NewRouter(),
		models:   &fakeModels{resp: imageResponse(genai.FinishReasonStop, "")},
		store:    NewMemoryCredentialStore(),
		sessions: &fakeSessions{sessions: map[string]ConsultSession{}},
	}
	factory := func(_ context.Context, apiKey string) (gemini.ContentGenerator, error) {
		env.keys = append(env.keys, apiKey)
		return env.models, nil
	}
	NewHandler(NewService(cfg, env.store, env.sessions, factory)).RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, clientID string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHandleGenerateMissingCredential(t *testing.T) {
	env := newTestEnv(testConfig())

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "c1", GenerateRequest{Config: DefaultGenerationConfig()})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(ReasonMissingCredential), out["errorCode"])
	assert.Equal(t, 0, env.models.calls)
}

func TestHandleGenerateUsesSavedKeyFirst(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "env-key"
	env := newTestEnv(cfg)

	rec, _ := env.do(t, http.MethodPut, "/api/studio/credential", "c1", CredentialRequest{APIKey: "user-key-123456"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "c1", GenerateRequest{Config: DefaultGenerationConfig(), VisionInput: "warm tones"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Contains(t, out["image"], "data:image/png;base64,")
	assert.Equal(t, []string{"user-key-123456"}, env.keys)
	assert.Contains(t, env.models.contents[0].Parts[0].Text, "Context: warm tones. Follow tags.")

	_, out = env.do(t, http.MethodPost, "/api/studio/generate", "c2", GenerateRequest{Config: DefaultGenerationConfig()})
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "env-key", env.keys[1])
	assert.Contains(t, env.models.contents[0].Parts[0].Text, "Follow tags strictly. High fidelity.")
}

func TestHandleGenerateIDPhotoStandard(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "env-key"
	env := newTestEnv(cfg)

	studioCfg := GenerationConfig{
		ModelTier:   TierStandard,
		AspectRatio: "3:4",
		Style:       "ID / Passport",
		Lighting:    "Butterfly",
		Camera:      "50mm Portrait Lens",
		Environment: "Solid Color Studio",
		Pose:        "Front Facing (ID)",
	}

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "c1", GenerateRequest{Config: studioCfg})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "data:image/png;base64,ZmFrZS1wbmc=", out["image"])
	assert.Equal(t, DefaultCatalog.Standard, out["modelId"])
	assert.Equal(t, DefaultCatalog.Standard, env.models.model)

	instruction := env.models.contents[0].Parts[0].Text
	for _, tag := range []string{"ID / Passport", "Butterfly", "50mm Portrait Lens", "Solid Color Studio", "Front Facing (ID)"} {
		assert.Contains(t, instruction, tag)
	}
	assert.Contains(t, instruction, IDPhotoClause)

	imageCfg := env.models.lastConfig().ImageConfig
	require.NotNil(t, imageCfg)
	assert.Equal(t, "3:4", imageCfg.AspectRatio)
	assert.Empty(t, imageCfg.ImageSize)
}

func TestHandleGenerateConsultationOverride(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "env-key"
	env := newTestEnv(cfg)

	session := NewConsultSession(DefaultGenerationConfig())
	session.Messages = append(session.Messages,
		ChatMessage{Role: RoleUser, Content: "navy blazer"},
		ChatMessage{Role: RoleModel, Content: "mood?"},
		ChatMessage{Role: RoleUser, Content: "calm"},
	)
	env.sessions.sessions[session.ID] = session

	rec, _ := env.do(t, http.MethodPost, "/api/studio/generate", "", GenerateRequest{
		Config: DefaultGenerationConfig(), Mode: ModeConsultation, SessionID: session.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, env.models.contents[0].Parts[0].Text, "Specific instructions: navy blazer calm")

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "", GenerateRequest{
		Config: DefaultGenerationConfig(), Mode: ModeConsultation, SessionID: "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeSessionNotFound, out["errorCode"])
}

func TestHandleGenerateInvalidConfig(t *testing.T) {
	env := newTestEnv(testConfig())
	cfg := DefaultGenerationConfig()
	cfg.AspectRatio = "5:4"

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "", GenerateRequest{Config: cfg})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRequest, out["errorCode"])
}

func TestHandleGenerateBlocked(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "env-key"
	env := newTestEnv(cfg)
	env.models.resp = imageResponse(genai.FinishReasonSafety, "")

	rec, out := env.do(t, http.MethodPost, "/api/studio/generate", "", GenerateRequest{Config: DefaultGenerationConfig()})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(ReasonBlockedContent), out["errorCode"])
	assert.Equal(t, "Generation Stopped. Reason: SAFETY", out["errorMessage"])
}

func TestHandleCredentialLifecycle(t *testing.T) {
	env := newTestEnv(testConfig())

	_, out := env.do(t, http.MethodGet, "/api/studio/credential", "c1", nil)
	assert.Equal(t, false, out["connected"])

	_, out = env.do(t, http.MethodPut, "/api/studio/credential", "c1", CredentialRequest{APIKey: "AIzaXXXXXXXX1234"})
	assert.Equal(t, true, out["connected"])
	assert.Equal(t, "user", out["source"])
	assert.Equal(t, "AIza********1234", out["masked"])

	_, out = env.do(t, http.MethodDelete, "/api/studio/credential", "c1", nil)
	assert.Equal(t, false, out["connected"])

	rec, _ := env.do(t, http.MethodPut, "/api/studio/credential", "", CredentialRequest{APIKey: "k"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTags(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKey = "env-key"
	env := newTestEnv(cfg)
	env.models.resp = textResponse(`{"style":"Vintage Polaroid"}`)

	base := DefaultGenerationConfig()
	rec, out := env.do(t, http.MethodPost, "/api/studio/tags", "", TagsRequest{Text: "grandma's 1970s photo", Config: &base})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StyleVintage, out["suggestion"].(map[string]interface{})["style"])
	assert.Equal(t, StyleVintage, out["config"].(map[string]interface{})["style"])

	rec, out = env.do(t, http.MethodGet, "/api/studio/tags", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["categories"], len(TagCategories))
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusForCode(""))
	assert.Equal(t, http.StatusForbidden, StatusForCode(string(ReasonPermissionDenied)))
	assert.Equal(t, http.StatusGatewayTimeout, StatusForCode(string(ReasonTimeout)))
	assert.Equal(t, http.StatusBadGateway, StatusForCode(string(ReasonTransport)))
}
