package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestNewConsultSession(t *testing.T) {
	cfg := DefaultGenerationConfig()
	cfg.Style = StyleMinimalist

	s := NewConsultSession(cfg)

	assert.NotEmpty(t, s.ID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleModel, s.Messages[0].Role)
	assert.Equal(t, "neue studio online. style: Swiss Minimalist. upload references or describe your vision.", s.Messages[0].Content)
	assert.Contains(t, s.SystemInstruction, "Style: Swiss Minimalist")
	assert.Contains(t, s.SystemInstruction, "Do NOT generate the image yourself")
}

func TestRefinerSend(t *testing.T) {
	models := &fakeModels{resp: textResponse("tags confirmed. shirt color?")}
	session := NewConsultSession(DefaultGenerationConfig())

	next, reply := NewRefiner(models, "gemini-2.5-flash").Send(context.Background(), session, "make it moody")

	assert.Equal(t, "tags confirmed. shirt color?", reply)
	require.Len(t, next.Messages, 3)
	assert.Equal(t, RoleUser, next.Messages[1].Role)
	assert.Equal(t, RoleModel, next.Messages[2].Role)
	assert.Len(t, session.Messages, 1, "input session untouched")

	// 인사 메시지는 히스토리에서 제외
	require.Len(t, models.contents, 1)
	assert.Equal(t, "make it moody", models.contents[0].Parts[0].Text)
	require.NotNil(t, models.lastConfig().SystemInstruction)
	assert.Contains(t, models.lastConfig().SystemInstruction.Parts[0].Text, "Neue")
}

func TestRefinerSendFailure(t *testing.T) {
	models := &fakeModels{err: errors.New("Error 503")}
	session := NewConsultSession(DefaultGenerationConfig())

	next, reply := NewRefiner(models, "m").Send(context.Background(), session, "hello")

	assert.Equal(t, ConsultFailureReply, reply)
	require.Len(t, next.Messages, 3)
	assert.True(t, next.Messages[2].Degraded)

	// 다음 호출에서 degraded 응답은 재전송되지 않음
	models.err = nil
	models.resp = textResponse("ok")
	_, reply = NewRefiner(models, "m").Send(context.Background(), next, "again")
	assert.Equal(t, "ok", reply)
	require.Len(t, models.contents, 2)
	assert.Equal(t, "hello", models.contents[0].Parts[0].Text)
	assert.Equal(t, "again", models.contents[1].Parts[0].Text)
}

func TestRefinerSendEmptyReply(t *testing.T) {
	models := &fakeModels{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonStop}}}}

	_, reply := NewRefiner(models, "m").Send(context.Background(), NewConsultSession(DefaultGenerationConfig()), "hi")
	assert.Equal(t, ConsultEmptyReply, reply)
}

func TestRefinerWithoutModels(t *testing.T) {
	_, reply := NewRefiner(nil, "m").Send(context.Background(), NewConsultSession(DefaultGenerationConfig()), "hi")
	assert.Equal(t, ConsultFailureReply, reply)
}

func TestFoldOverride(t *testing.T) {
	msgs := []ChatMessage{
		{Role: RoleModel, Content: "greeting"},
		{Role: RoleUser, Content: "one"},
		{Role: RoleModel, Content: "q"},
		{Role: RoleUser, Content: "two"},
		{Role: RoleSystem, Content: "User uploaded 2 reference images."},
		{Role: RoleUser, Content: "three"},
		{Role: RoleUser, Content: "four"},
	}
	assert.Equal(t, "two three four", FoldOverride(msgs))
	assert.Equal(t, "", FoldOverride(msgs[:1]))
}

func TestNoteReferenceUpload(t *testing.T) {
	s := NewConsultSession(DefaultGenerationConfig()).NoteReferenceUpload(2)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleSystem, s.Messages[1].Role)
	assert.Equal(t, "User uploaded 2 reference images.", s.Messages[1].Content)

	history := ProviderHistory(append(s.Messages, ChatMessage{Role: RoleUser, Content: "go"}))
	require.Len(t, history, 1)
}
