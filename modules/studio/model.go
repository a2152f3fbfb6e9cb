package studio

import (
	"fmt"
	"strings"
)

// AspectRatio - 지원하는 고정 비율
type AspectRatio string

const (
	RatioSquare    AspectRatio = "1:1"
	RatioPortrait  AspectRatio = "3:4"
	RatioLandscape AspectRatio = "4:3"
	RatioWide      AspectRatio = "16:9"
	RatioStory     AspectRatio = "9:16"
)

// AspectRatios - UI 노출 순서
var AspectRatios = []AspectRatio{RatioSquare, RatioPortrait, RatioLandscape, RatioWide, RatioStory}

// IsValid - 비율 유효성 검사
func (r AspectRatio) IsValid() bool {
	for _, v := range AspectRatios {
		if v == r {
			return true
		}
	}
	return false
}

// ModelTier - 품질 티어
type ModelTier string

const (
	TierStandard ModelTier = "standard"
	TierPremium  ModelTier = "premium"
)

// ParseTier - 알 수 없는 값은 standard. 구버전 클라이언트가 보내던 모델 id 도 허용
func ParseTier(s string) ModelTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "premium", "pro", "imagen-3.0-generate-001", "gemini-3-pro-image-preview":
		return TierPremium
	default:
		return TierStandard
	}
}

// Photo styles
const (
	StyleIDPhoto    = "ID / Passport"
	StyleLinkedIn   = "LinkedIn Professional"
	StyleArtistic   = "Artistic Portrait"
	StyleCyberpunk  = "Cyberpunk / Neon"
	StyleBWFilm     = "B&W Film Grain"
	StyleMinimalist = "Swiss Minimalist"
	StyleFashion    = "High Fashion Editorial"
	StyleVintage    = "Vintage Polaroid"
)

// Tag category ids
const (
	CategoryStyle       = "style"
	CategoryLighting    = "lighting"
	CategoryCamera      = "camera"
	CategoryEnvironment = "environment"
	CategoryPose        = "pose"
)

// TagCategory - 고정 태그 카테고리 (UI 에서 자유 입력으로 확장 가능)
type TagCategory struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// TagCategories - 카테고리 정의. 순서가 프롬프트/스키마 순서를 결정함
var TagCategories = []TagCategory{
	{
		ID:   CategoryStyle,
		Name: "Style & Format",
		Options: []string{
			StyleIDPhoto, StyleLinkedIn, StyleArtistic, StyleCyberpunk,
			StyleBWFilm, StyleMinimalist, StyleFashion, StyleVintage,
		},
	},
	{
		ID:   CategoryLighting,
		Name: "Lighting",
		Options: []string{
			"Natural Sunlight", "Studio Softbox", "Rembrandt", "Butterfly",
			"Neon Rim Light", "Cinematic Haze", "Dark & Moody",
		},
	},
	{
		ID:   CategoryCamera,
		Name: "Camera & Lens",
		Options: []string{
			"35mm Film", "50mm Portrait Lens", "85mm Sharp Focus", "Wide Angle",
			"Telephoto", "Polaroid", "Fish-eye",
		},
	},
	{
		ID:   CategoryEnvironment,
		Name: "Environment",
		Options: []string{
			"Solid Color Studio", "Gradient Background", "Urban Street", "Nature / Forest",
			"Office Interior", "Abstract Geometric", "Cyber City",
		},
	},
	{
		ID:   CategoryPose,
		Name: "Pose & Expression",
		Options: []string{
			"Front Facing (ID)", "Three Quarter Turn", "Profile Side View", "Candid Laughing",
			"Serious Professional", "Looking at Horizon",
		},
	},
}

// FindCategory - id 로 카테고리 조회
func FindCategory(id string) (TagCategory, bool) {
	for _, c := range TagCategories {
		if c.ID == id {
			return c, true
		}
	}
	return TagCategory{}, false
}

func firstOption(id string) string {
	if c, ok := FindCategory(id); ok && len(c.Options) > 0 {
		return c.Options[0]
	}
	return ""
}

// GenerationConfig - 스튜디오 생성 설정
type GenerationConfig struct {
	ModelTier       ModelTier   `json:"modelTier"`
	AspectRatio     AspectRatio `json:"aspectRatio"`
	Style           string      `json:"style"`
	Lighting        string      `json:"lighting"`
	Camera          string      `json:"camera"`
	Environment     string      `json:"environment"`
	Pose            string      `json:"pose"`
	ReferenceImages []string    `json:"referenceImages"` // data URI 또는 raw base64
}

// MaxReferenceImages - composer 가 받아들이는 최대 레퍼런스 이미지 수
const MaxReferenceImages = 3

// DefaultGenerationConfig - 스튜디오 세션 시작 시 기본값
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		ModelTier:       TierStandard,
		AspectRatio:     RatioPortrait,
		Style:           StyleIDPhoto,
		Lighting:        firstOption(CategoryLighting),
		Camera:          firstOption(CategoryCamera),
		Environment:     firstOption(CategoryEnvironment),
		Pose:            firstOption(CategoryPose),
		ReferenceImages: []string{},
	}
}

// Validate - 모든 필드가 채워졌는지 확인
func (c GenerationConfig) Validate() error {
	if !c.AspectRatio.IsValid() {
		return fmt.Errorf("invalid aspect ratio: %q", c.AspectRatio)
	}
	fields := []struct {
		name, value string
	}{
		{CategoryStyle, c.Style},
		{CategoryLighting, c.Lighting},
		{CategoryCamera, c.Camera},
		{CategoryEnvironment, c.Environment},
		{CategoryPose, c.Pose},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	if len(c.ReferenceImages) > MaxReferenceImages {
		return fmt.Errorf("too many reference images (max %d)", MaxReferenceImages)
	}
	return nil
}

// WithTag - 카테고리 id 로 필드 갱신 (자유 입력 태그 허용)
func (c GenerationConfig) WithTag(categoryID, value string) GenerationConfig {
	switch categoryID {
	case CategoryStyle:
		c.Style = value
	case CategoryLighting:
		c.Lighting = value
	case CategoryCamera:
		c.Camera = value
	case CategoryEnvironment:
		c.Environment = value
	case CategoryPose:
		c.Pose = value
	}
	return c
}

// Chat roles
const (
	RoleUser   = "user"
	RoleModel  = "model"
	RoleSystem = "system"
)

// ChatMessage - 컨설트 세션 메시지
type ChatMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Image    string `json:"image,omitempty"`
	Degraded bool   `json:"degraded,omitempty"` // 폴백 응답, 프로바이더 히스토리에서 제외
}
