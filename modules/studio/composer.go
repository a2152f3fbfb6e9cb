package studio

import (
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/genai"
)

// IDPhotoClause - "ID / Passport" 스타일일 때만 들어가는 강제 조건
const IDPhotoClause = "- ID / Passport format: solid background and even lighting across the face."

const defaultImageMIME = "image/jpeg"

// Payload - 프로바이더로 보낼 멀티파트 요청
// Parts[0] 은 항상 instruction 텍스트, 이후 레퍼런스 이미지 순서 유지
type Payload struct {
	Parts []*genai.Part
}

// Instruction - instruction 텍스트
func (p Payload) Instruction() string {
	if len(p.Parts) == 0 || p.Parts[0] == nil {
		return ""
	}
	return p.Parts[0].Text
}

// ImageCount - 인라인 이미지 파트 수
func (p Payload) ImageCount() int {
	n := 0
	for _, part := range p.Parts {
		if part != nil && part.InlineData != nil {
			n++
		}
	}
	return n
}

// Contents - genai 요청 형태
func (p Payload) Contents() []*genai.Content {
	return []*genai.Content{genai.NewContentFromParts(p.Parts, genai.RoleUser)}
}

// Compose - 설정 + 선택적 override 로 요청 페이로드 생성 (순수 함수)
func Compose(cfg GenerationConfig, promptOverride string) Payload {
	refs := cfg.ReferenceImages
	if len(refs) > MaxReferenceImages {
		refs = refs[:MaxReferenceImages]
	}

	var images []*genai.Part
	for i, ref := range refs {
		part, err := referenceImagePart(ref)
		if err != nil {
			log.Printf("⚠️ [Composer] Skipping reference image %d: %v", i+1, err)
			continue
		}
		images = append(images, part)
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(buildInstruction(cfg, len(images), promptOverride)))
	parts = append(parts, images...)
	return Payload{Parts: parts}
}

func buildInstruction(cfg GenerationConfig, imageCount int, promptOverride string) string {
	var b strings.Builder

	b.WriteString("Professional studio photography. High-end retouching.\n")
	fmt.Fprintf(&b, "Style: %s.\n", cfg.Style)
	fmt.Fprintf(&b, "Lighting: %s.\n", cfg.Lighting)
	fmt.Fprintf(&b, "Camera: %s.\n", cfg.Camera)
	fmt.Fprintf(&b, "Environment: %s.\n", cfg.Environment)
	fmt.Fprintf(&b, "Subject Pose: %s.\n", cfg.Pose)
	if cfg.AspectRatio != "" {
		fmt.Fprintf(&b, "Aspect Ratio: %s.\n", cfg.AspectRatio)
	}

	b.WriteString("\nCRITICAL REQUIREMENTS:\n")
	b.WriteString("- Photorealistic, 8k resolution.\n")
	b.WriteString("- NO watermarks, NO text, NO logos, NO overlays.\n")
	b.WriteString("- Pure, clean image suitable for professional use.\n")
	if cfg.Style == StyleIDPhoto {
		b.WriteString(IDPhotoClause + "\n")
	}

	if imageCount > 0 {
		fmt.Fprintf(&b, "\nREFERENCE IMAGES: %d image(s) provided.\n", imageCount)
		b.WriteString("- Keep the subject's identity and facial features from the references.\n")
		b.WriteString("- The tags above decide style, lighting, camera and environment.\n")
	}

	if override := strings.TrimSpace(promptOverride); override != "" {
		fmt.Fprintf(&b, "\nSpecific instructions: %s\n", override)
	}

	return b.String()
}

// referenceImagePart - data URI 헤더에서 MIME 추출 후 헤더 제거, 디코딩
func referenceImagePart(ref string) (*genai.Part, error) {
	raw, mimeType, err := DecodeImage(ref)
	if err != nil {
		return nil, err
	}
	return &genai.Part{
		InlineData: &genai.Blob{
			MIMEType: mimeType,
			Data:     raw,
		},
	}, nil
}

// DecodeImage - data URI 또는 raw base64 를 바이트로 디코딩.
// 헤더에 MIME 이 없으면 내용으로 추정하고, 그래도 모르면 image/jpeg
func DecodeImage(s string) ([]byte, string, error) {
	mimeType, data := SplitDataURI(s)
	raw, err := decodeBase64(data)
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("empty image")
	}

	if mimeType == "" {
		if detected := mimetype.Detect(raw); strings.HasPrefix(detected.String(), "image/") {
			mimeType = detected.String()
		}
	}
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	return raw, mimeType, nil
}

// SplitDataURI - "data:image/png;base64,xxxx" → ("image/png", "xxxx")
// 헤더가 없거나 image 타입이 아니면 MIME 은 빈 문자열
func SplitDataURI(s string) (string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	header, data, ok := strings.Cut(s, ",")
	if !ok {
		return "", s
	}
	mimeType := strings.TrimPrefix(header, "data:")
	mimeType, _, _ = strings.Cut(mimeType, ";")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}
	return mimeType, data
}

// DataURI - 바이트를 data URI 로 변환
func DataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// decodeBase64 - 패딩 유무 모두 허용
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	raw, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return raw, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("invalid base64: %w", err)
}
