package studio

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"
)

// --- Mocks ---

type fakeModels struct {
	mu       sync.Mutex
	resp     *genai.GenerateContentResponse
	err      error
	delay    time.Duration
	calls    int
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeModels) lastConfig() *genai.GenerateContentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

type fakeSessions struct {
	sessions map[string]ConsultSession
}

func (f *fakeSessions) Get(_ context.Context, id string) (ConsultSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return ConsultSession{}, ErrSessionNotFound
	}
	return s, nil
}

// imageResponse - 인라인 이미지 1장 + 선택 텍스트
func imageResponse(finish genai.FinishReason, text string) *genai.GenerateContentResponse {
	parts := []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("fake-png")}}}
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: finish,
			Content:      &genai.Content{Role: string(genai.RoleModel), Parts: parts},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content:      &genai.Content{Role: string(genai.RoleModel), Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// tiny PNG header bytes, base64
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR4nGMAAQAABQABDQottAAAAABJRU5ErkJggg=="
