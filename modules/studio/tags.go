package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"neue-studio-server/modules/common/gemini"
	"neue-studio-server/modules/common/metrics"
)

// TagSuggestion - 자유 텍스트에서 추론한 태그. 빈 필드는 "제안 없음"
type TagSuggestion struct {
	Style       string `json:"style,omitempty"`
	Lighting    string `json:"lighting,omitempty"`
	Camera      string `json:"camera,omitempty"`
	Environment string `json:"environment,omitempty"`
	Pose        string `json:"pose,omitempty"`
}

// IsEmpty - 제안이 하나도 없는지
func (s TagSuggestion) IsEmpty() bool {
	return s == TagSuggestion{}
}

// ApplyTo - 비어 있지 않은 필드만 cfg 에 덮어씀
func (s TagSuggestion) ApplyTo(cfg GenerationConfig) GenerationConfig {
	for categoryID, value := range map[string]string{
		CategoryStyle:       s.Style,
		CategoryLighting:    s.Lighting,
		CategoryCamera:      s.Camera,
		CategoryEnvironment: s.Environment,
		CategoryPose:        s.Pose,
	} {
		if v := strings.TrimSpace(value); v != "" {
			cfg = cfg.WithTag(categoryID, v)
		}
	}
	return cfg
}

// TagInferrer - 텍스트 → 카테고리별 태그 (structured output)
type TagInferrer struct {
	models gemini.ContentGenerator
	model  string
}

func NewTagInferrer(models gemini.ContentGenerator, model string) *TagInferrer {
	return &TagInferrer{models: models, model: model}
}

// InferTags - 실패는 모두 빈 제안으로 흡수
func (t *TagInferrer) InferTags(ctx context.Context, text string) TagSuggestion {
	text = strings.TrimSpace(text)
	if text == "" || t.models == nil {
		return TagSuggestion{}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(buildTagPrompt(text))}, genai.RoleUser),
	}

	resp, err := t.models.GenerateContent(ctx, t.model, contents, tagResponseConfig())
	if err != nil {
		gemini.LogCallError("Tags", t.model, err)
		metrics.ObserveAuxiliaryCall("tags", "fallback")
		return TagSuggestion{}
	}

	suggestion, err := parseTagSuggestion(resp)
	if err != nil {
		log.Printf("⚠️ [Tags] Tag analysis failed: %v", err)
		metrics.ObserveAuxiliaryCall("tags", "fallback")
		return TagSuggestion{}
	}

	metrics.ObserveAuxiliaryCall("tags", "ok")
	log.Printf("🏷️ [Tags] Inferred: style=%q lighting=%q camera=%q", suggestion.Style, suggestion.Lighting, suggestion.Camera)
	return suggestion
}

func buildTagPrompt(text string) string {
	var categories strings.Builder
	for _, cat := range TagCategories {
		fmt.Fprintf(&categories, "%s: [%s]\n", cat.ID, strings.Join(cat.Options, ", "))
	}

	return fmt.Sprintf(`Analyze the following user description: %q.
Map it to the closest matching options for the following categories.
You MUST pick exactly one option from the provided lists for each category.

Categories:
%s`, text, categories.String())
}

func tagResponseConfig() *genai.GenerateContentConfig {
	properties := make(map[string]*genai.Schema, len(TagCategories))
	for _, cat := range TagCategories {
		properties[cat.ID] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
		},
	}
}

// parseTagSuggestion - 첫 후보의 텍스트를 JSON 으로 해석
func parseTagSuggestion(resp *genai.GenerateContentResponse) (TagSuggestion, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return TagSuggestion{}, fmt.Errorf("no candidates")
	}
	text := strings.TrimSpace(ExtractCandidate(resp.Candidates[0]).Text)
	if text == "" {
		return TagSuggestion{}, fmt.Errorf("empty response")
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```json"), "```")

	var s TagSuggestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &s); err != nil {
		return TagSuggestion{}, fmt.Errorf("invalid tag JSON: %w", err)
	}
	return s, nil
}
