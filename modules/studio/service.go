package studio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"neue-studio-server/modules/common/config"
	"neue-studio-server/modules/common/gemini"
)

// ErrSessionNotFound - 컨설트 세션 없음 (만료 포함)
var ErrSessionNotFound = errors.New("consult session not found")

// SessionLookup - consultation 모드에서 대화 기록 조회
type SessionLookup interface {
	Get(ctx context.Context, id string) (ConsultSession, error)
}

// ModelsFactory - 해석된 키로 ContentGenerator 생성
type ModelsFactory func(ctx context.Context, apiKey string) (gemini.ContentGenerator, error)

// DefaultModelsFactory - genai SDK 기반
func DefaultModelsFactory(cfg *config.Config) ModelsFactory {
	return func(ctx context.Context, apiKey string) (gemini.ContentGenerator, error) {
		return gemini.NewContentGenerator(ctx, cfg, apiKey)
	}
}

type Service struct {
	cfg         *config.Config
	catalog     ModelCatalog
	credentials CredentialStore
	sessions    SessionLookup
	newModels   ModelsFactory
	proxy       Transport // proxied 모드에서만 설정
}

func NewService(cfg *config.Config, credentials CredentialStore, sessions SessionLookup, newModels ModelsFactory) *Service {
	s := &Service{
		cfg:         cfg,
		catalog:     ModelCatalog{Standard: cfg.StandardModel, Premium: cfg.PremiumModel},
		credentials: credentials,
		sessions:    sessions,
		newModels:   newModels,
	}
	if cfg.GenerationMode == config.ModeProxied {
		s.proxy = NewProxyTransport(cfg.ProxyURL, nil)
		log.Printf("🔀 [Studio] Proxied mode: %s", cfg.ProxyURL)
	}
	return s
}

// Generate - 설정 검증 → override → compose → 모델 선택 → 호출
func (s *Service) Generate(ctx context.Context, clientID string, req GenerateRequest) GenerateResponse {
	cfg := req.Config
	if cfg.ModelTier == "" {
		cfg.ModelTier = TierStandard
	}
	if err := cfg.Validate(); err != nil {
		return GenerateResponse{ErrorCode: CodeInvalidRequest, ErrorMessage: err.Error()}
	}

	override, err := s.deriveOverride(ctx, req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return GenerateResponse{ErrorCode: CodeSessionNotFound, ErrorMessage: err.Error()}
		}
		return GenerateResponse{ErrorCode: string(ReasonTransport), ErrorMessage: err.Error(), Suggestion: "Try again."}
	}

	payload := Compose(cfg, override)
	spec := SelectModel(ParseTier(string(cfg.ModelTier)), s.catalog)

	log.Printf("🎨 [Studio] Generate: mode=%s, tier=%s, model=%s, style=%q, images=%d",
		req.Mode, spec.Tier, spec.ID, cfg.Style, payload.ImageCount())

	transport, err := s.transportFor(ctx, clientID)
	if err != nil {
		outcome := Failure(ReasonMissingCredential, err.Error())
		outcome.ModelID = spec.ID
		return ResponseFromOutcome(outcome)
	}

	outcome := NewGenerator(transport, s.cfg.GenerationTimeout).Generate(ctx, payload, spec.ID, spec.Params(cfg.AspectRatio))
	return ResponseFromOutcome(outcome)
}

// deriveOverride - consultation: 최근 사용자 메시지 / fast: 비전 입력 또는 고정 문구
func (s *Service) deriveOverride(ctx context.Context, req GenerateRequest) (string, error) {
	if req.Mode == ModeConsultation {
		if req.SessionID == "" || s.sessions == nil {
			return "", ErrSessionNotFound
		}
		session, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return "", err
		}
		return FoldOverride(session.Messages), nil
	}
	return FastOverride(req.VisionInput), nil
}

// FastOverride - fast 모드 override 문구
func FastOverride(vision string) string {
	if v := strings.TrimSpace(vision); v != "" {
		return fmt.Sprintf("Context: %s. Follow tags.", v)
	}
	return "Follow tags strictly. High fidelity."
}

func (s *Service) transportFor(ctx context.Context, clientID string) (Transport, error) {
	if s.proxy != nil {
		return s.proxy, nil
	}
	models, _, err := s.ModelsFor(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return NewDirectTransport(models), nil
}

// ModelsFor - 클라이언트 저장 키 → 환경 키 순서로 해석해 ContentGenerator 생성
func (s *Service) ModelsFor(ctx context.Context, clientID string) (gemini.ContentGenerator, Credential, error) {
	cred, err := s.resolve(ctx, clientID)
	if err != nil {
		return nil, Credential{}, err
	}
	models, err := s.newModels(ctx, cred.Key)
	if err != nil {
		return nil, Credential{}, fmt.Errorf("failed to create model client: %w", err)
	}
	return models, cred, nil
}

func (s *Service) resolve(ctx context.Context, clientID string) (Credential, error) {
	var saved string
	if s.credentials != nil && clientID != "" {
		key, err := s.credentials.Load(ctx, clientID)
		if err != nil {
			log.Printf("⚠️ [Studio] Credential lookup failed for %s: %v", clientID, err)
		}
		saved = key
	}

	cred, err := ResolveCredential(CredentialSources{Saved: saved, Environment: s.cfg.GeminiAPIKey})
	if err != nil && s.cfg.UseVertexAI {
		// Vertex 는 서비스 계정 인증
		return Credential{Source: SourceEnvironment}, nil
	}
	return cred, err
}

// InferTags - 키가 없거나 호출이 실패하면 빈 제안
func (s *Service) InferTags(ctx context.Context, clientID, text string) TagSuggestion {
	models, _, err := s.ModelsFor(ctx, clientID)
	if err != nil {
		log.Printf("⚠️ [Studio] Tag inference skipped: %v", err)
		return TagSuggestion{}
	}
	return NewTagInferrer(models, s.cfg.TextModel).InferTags(ctx, text)
}

// Refiner - 클라이언트 키로 컨설트 클라이언트 생성. 키가 없으면 모든 Send 가 실패 응답
func (s *Service) Refiner(ctx context.Context, clientID string) *Refiner {
	models, _, err := s.ModelsFor(ctx, clientID)
	if err != nil {
		log.Printf("⚠️ [Studio] Consult without model client: %v", err)
		return NewRefiner(nil, s.cfg.TextModel)
	}
	return NewRefiner(models, s.cfg.TextModel)
}

// CredentialStatus - 현재 해석되는 키 상태
func (s *Service) CredentialStatus(ctx context.Context, clientID string) CredentialStatus {
	cred, err := s.resolve(ctx, clientID)
	if err != nil {
		return CredentialStatus{}
	}
	return CredentialStatus{Connected: true, Source: cred.Source, Masked: MaskKey(cred.Key)}
}

func (s *Service) SaveCredential(ctx context.Context, clientID, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if clientID == "" || apiKey == "" {
		return fmt.Errorf("client id and api key are required")
	}
	if err := s.credentials.Save(ctx, clientID, apiKey); err != nil {
		return err
	}
	log.Printf("🔑 [Studio] Credential saved for %s (%s)", clientID, MaskKey(apiKey))
	return nil
}

func (s *Service) ClearCredential(ctx context.Context, clientID string) error {
	if clientID == "" {
		return fmt.Errorf("client id is required")
	}
	return s.credentials.Clear(ctx, clientID)
}

// ResponseFromOutcome - GenerationOutcome → API 응답
func ResponseFromOutcome(o GenerationOutcome) GenerateResponse {
	resp := GenerateResponse{
		ModelID:      o.ModelID,
		FinishReason: o.FinishReason,
		Text:         o.Text,
	}
	if o.Kind == OutcomeSuccess {
		resp.Success = true
		resp.Image = o.DataURI()
		return resp
	}

	var genErr *GenerationError
	if errors.As(o.Err(), &genErr) {
		resp.ErrorCode = string(genErr.Reason)
		resp.ErrorMessage = genErr.Error()
		resp.Suggestion = genErr.Suggestion()
	}
	return resp
}
