package studio

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"neue-studio-server/modules/common/gemini"
	"neue-studio-server/modules/common/metrics"
)

// 컨설트 고정 응답
const (
	ConsultFailureReply = "connection unstable. try again."
	ConsultEmptyReply   = "processing request..."
)

// FoldTurns - 생성 시 override 로 접어 넣는 최근 사용자 메시지 수
const FoldTurns = 3

// ConsultSession - 대화 상태. Send 는 새 값을 반환하고 원본은 건드리지 않음
type ConsultSession struct {
	ID                string        `json:"id"`
	SystemInstruction string        `json:"systemInstruction"`
	Messages          []ChatMessage `json:"messages"`
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// NewConsultSession - 세션 시작 시점의 설정으로 persona 스냅샷 + 인사 메시지
func NewConsultSession(cfg GenerationConfig) ConsultSession {
	now := time.Now()
	return ConsultSession{
		ID:                uuid.New().String(),
		SystemInstruction: consultInstruction(cfg),
		Messages: []ChatMessage{{
			Role:    RoleModel,
			Content: fmt.Sprintf("neue studio online. style: %s. upload references or describe your vision.", cfg.Style),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func consultInstruction(cfg GenerationConfig) string {
	return fmt.Sprintf(`You are "Neue", a strict, minimalist art director and professional photographer.
Your aesthetic is Swiss International Style: clean, objective, grid-based.

Current User Configuration:
- Style: %s
- Lighting: %s
- Camera: %s
- Environment: %s
- Pose: %s

Guidelines:
1. Be concise. Use short sentences. Lowercase often. Minimalist tone.
2. Confirm the user's tags.
3. Ask ONE critical question to refine the shot (e.g., specific clothing color, exact mood).
4. Do not offer encouragement. Offer solutions.

Do NOT generate the image yourself. You are preparing the spec.`,
		cfg.Style, cfg.Lighting, cfg.Camera, cfg.Environment, cfg.Pose)
}

// NoteReferenceUpload - 레퍼런스 업로드 시스템 메모 추가
func (s ConsultSession) NoteReferenceUpload(n int) ConsultSession {
	if n <= 0 {
		return s
	}
	return s.appendMessages(ChatMessage{
		Role:    RoleSystem,
		Content: fmt.Sprintf("User uploaded %d reference images.", n),
	})
}

// UserMessages - 사용자 메시지 내용만
func (s ConsultSession) UserMessages() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

func (s ConsultSession) appendMessages(msgs ...ChatMessage) ConsultSession {
	next := s
	next.Messages = make([]ChatMessage, 0, len(s.Messages)+len(msgs))
	next.Messages = append(next.Messages, s.Messages...)
	next.Messages = append(next.Messages, msgs...)
	next.UpdatedAt = time.Now()
	return next
}

// FoldOverride - 최근 사용자 메시지 3개를 공백으로 연결
func FoldOverride(messages []ChatMessage) string {
	var turns []string
	for _, m := range messages {
		if m.Role == RoleUser && strings.TrimSpace(m.Content) != "" {
			turns = append(turns, m.Content)
		}
	}
	if len(turns) > FoldTurns {
		turns = turns[len(turns)-FoldTurns:]
	}
	return strings.Join(turns, " ")
}

// Refiner - 컨설트 대화 클라이언트
type Refiner struct {
	models gemini.ContentGenerator
	model  string
}

func NewRefiner(models gemini.ContentGenerator, model string) *Refiner {
	return &Refiner{models: models, model: model}
}

// Send - 사용자 메시지 + 응답을 덧붙인 새 세션과 응답 텍스트 반환
// 호출 실패 시 고정 문구로 응답하고 해당 메시지는 degraded 로 표시
func (r *Refiner) Send(ctx context.Context, session ConsultSession, text string) (ConsultSession, string) {
	userMsg := ChatMessage{Role: RoleUser, Content: text}
	withUser := session.appendMessages(userMsg)

	reply, err := r.call(ctx, withUser)
	if err != nil {
		gemini.LogCallError("Consult", r.model, err)
		metrics.ObserveAuxiliaryCall("consult", "fallback")
		return withUser.appendMessages(ChatMessage{Role: RoleModel, Content: ConsultFailureReply, Degraded: true}), ConsultFailureReply
	}

	metrics.ObserveAuxiliaryCall("consult", "ok")
	if strings.TrimSpace(reply) == "" {
		reply = ConsultEmptyReply
	}
	return withUser.appendMessages(ChatMessage{Role: RoleModel, Content: reply}), reply
}

func (r *Refiner) call(ctx context.Context, session ConsultSession) (string, error) {
	if r.models == nil {
		return "", ErrMissingCredential
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(session.SystemInstruction, genai.RoleUser),
	}

	resp, err := r.models.GenerateContent(ctx, r.model, ProviderHistory(session.Messages), config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	if len(resp.Candidates) == 0 {
		log.Printf("⚠️ [Consult] Empty candidates (feedback: %s)", PromptFeedbackDetail(resp.PromptFeedback))
		return "", nil
	}
	return ExtractCandidate(resp.Candidates[0]).Text, nil
}

// ProviderHistory - 첫 사용자 메시지부터, system/degraded 제외
func ProviderHistory(messages []ChatMessage) []*genai.Content {
	start := -1
	for i, m := range messages {
		if m.Role == RoleUser {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var history []*genai.Content
	for _, m := range messages[start:] {
		if m.Role == RoleSystem || m.Degraded {
			continue
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleModel {
			role = genai.RoleModel
		}

		parts := []*genai.Part{genai.NewPartFromText(m.Content)}
		if m.Image != "" {
			if img, err := referenceImagePart(m.Image); err == nil {
				parts = append(parts, img)
			}
		}
		history = append(history, genai.NewContentFromParts(parts, role))
	}
	return history
}
