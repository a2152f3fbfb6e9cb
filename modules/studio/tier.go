package studio

import "google.golang.org/genai"

// ModelFamily - 모델 계열. 계열마다 허용되는 선택 파라미터가 다름
type ModelFamily string

const (
	FamilyFlashImage ModelFamily = "flash-image"
	FamilyProImage   ModelFamily = "pro-image"
)

// PremiumImageSize - 프리미엄 티어 전용 해상도 힌트
const PremiumImageSize = "2K"

// Optional generation fields
const (
	FieldAspectRatio = "aspectRatio"
	FieldImageSize   = "imageSize"
)

// ImageParams - 모델 계열별 이미지 파라미터 (닫힌 집합)
// 계열이 받지 않는 필드는 타입에 존재하지 않음
type ImageParams interface {
	Family() ModelFamily
	AcceptedFields() []string
	apply(cfg *genai.GenerateContentConfig)
}

// FlashImageParams - standard 계열: 비율만 허용
type FlashImageParams struct {
	AspectRatio AspectRatio
}

func (FlashImageParams) Family() ModelFamily { return FamilyFlashImage }

func (FlashImageParams) AcceptedFields() []string { return []string{FieldAspectRatio} }

func (p FlashImageParams) apply(cfg *genai.GenerateContentConfig) {
	if p.AspectRatio == "" {
		return
	}
	cfg.ImageConfig = &genai.ImageConfig{
		AspectRatio: string(p.AspectRatio),
	}
}

// ProImageParams - premium 계열: 비율 + 해상도
type ProImageParams struct {
	AspectRatio AspectRatio
	ImageSize   string
}

func (ProImageParams) Family() ModelFamily { return FamilyProImage }

func (ProImageParams) AcceptedFields() []string {
	return []string{FieldAspectRatio, FieldImageSize}
}

func (p ProImageParams) apply(cfg *genai.GenerateContentConfig) {
	size := p.ImageSize
	if size == "" {
		size = PremiumImageSize
	}
	cfg.ImageConfig = &genai.ImageConfig{
		AspectRatio: string(p.AspectRatio),
		ImageSize:   size,
	}
}

// ModelCatalog - 티어별 실제 모델 id
type ModelCatalog struct {
	Standard string
	Premium  string
}

// DefaultCatalog - 기본 모델 구성
var DefaultCatalog = ModelCatalog{
	Standard: "gemini-2.5-flash-image",
	Premium:  "gemini-3-pro-image-preview",
}

// ModelSpec - 선택된 모델
type ModelSpec struct {
	ID     string
	Tier   ModelTier
	Family ModelFamily
}

// SelectModel - 티어 → 모델. 알 수 없는 티어는 standard
func SelectModel(tier ModelTier, catalog ModelCatalog) ModelSpec {
	if catalog.Standard == "" {
		catalog.Standard = DefaultCatalog.Standard
	}
	if catalog.Premium == "" {
		catalog.Premium = DefaultCatalog.Premium
	}

	if tier == TierPremium {
		return ModelSpec{ID: catalog.Premium, Tier: TierPremium, Family: FamilyProImage}
	}
	return ModelSpec{ID: catalog.Standard, Tier: TierStandard, Family: FamilyFlashImage}
}

// Params - 계열에 맞는 파라미터 생성
func (m ModelSpec) Params(ratio AspectRatio) ImageParams {
	if m.Family == FamilyProImage {
		return ProImageParams{AspectRatio: ratio, ImageSize: PremiumImageSize}
	}
	return FlashImageParams{AspectRatio: ratio}
}

// BuildGenerateConfig - 파라미터가 가진 필드만 설정
func BuildGenerateConfig(params ImageParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if params != nil {
		params.apply(cfg)
	}
	return cfg
}
