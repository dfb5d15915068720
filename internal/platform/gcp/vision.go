package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/chadayu1004/smart-apartment-ai/internal/platform/ctxutil"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type Vision interface {
	OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*VisionOCRResult, error)
	Close() error
}

type VisionOCRResult struct {
	Provider string `json:"provider"`
	MimeType string `json:"mime_type,omitempty"`
	// RawText keeps the line breaks returned by the API.
	RawText     string  `json:"raw_text"`
	PrimaryText string  `json:"primary_text"`
	Confidence  float64 `json:"confidence"`
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
	timeout      time.Duration
}

func NewVision(log *logger.Logger, opts ...option.ClientOption) (Vision, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if len(opts) == 0 {
		opts = ClientOptionsFromEnv()
	}
	vClient, err := vision.NewImageAnnotatorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &visionService{
		log:          log.With("service", "gcp.Vision"),
		visionClient: vClient,
		timeout:      60 * time.Second,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

func (s *visionService) OCRImageBytes(ctx context.Context, img []byte, mimeType string) (*VisionOCRResult, error) {
	empty := &VisionOCRResult{Provider: "gcp_vision", MimeType: mimeType}
	if len(img) == 0 {
		return empty, nil
	}

	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.timeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
			},
			ImageContext: &visionpb.ImageContext{LanguageHints: []string{"th", "en"}},
		}},
	}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return empty, nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return empty, nil
	}

	conf := 0.0
	for _, pg := range fta.Pages {
		conf += avgBlockConfidence(pg.GetBlocks())
	}
	if len(fta.Pages) > 0 {
		conf /= float64(len(fta.Pages))
	}

	s.log.Debug("Vision OCR done", "bytes", len(img), "chars", len(fta.Text), "confidence", conf)
	return &VisionOCRResult{
		Provider:    "gcp_vision",
		MimeType:    mimeType,
		RawText:     fta.Text,
		PrimaryText: collapseWhitespace(fta.Text),
		Confidence:  conf,
	}, nil
}

func avgBlockConfidence(blocks []*visionpb.Block) float64 {
	n, sum := 0, 0.0
	for _, b := range blocks {
		if b == nil {
			continue
		}
		sum += float64(b.Confidence)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
