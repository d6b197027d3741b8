package llm

import (
	"context"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/muse/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/option"
	unifiedgenai "google.golang.org/genai"
)

// maxGeminiResponseLogBytes is the max length of a Gemini response body to log in full (to avoid huge logs).
const maxGeminiResponseLogBytes = 8192

// httpClientForEndpoint returns an http.Client that rewrites request URLs to the given base endpoint.
func httpClientForEndpoint(baseEndpoint string) *http.Client {
	base, err := url.Parse(baseEndpoint)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", baseEndpoint).Msg("Invalid GEMINI_API_ENDPOINT, using default")
		return nil
	}
	base.Path = strings.TrimSuffix(base.Path, "/")
	return &http.Client{
		Transport: &endpointRoundTripper{base: base, next: http.DefaultTransport},
	}
}

// endpointRoundTripper rewrites request URLs to a custom base (scheme, host, path prefix).
type endpointRoundTripper struct {
	base *url.URL
	next http.RoundTripper
}

func (e *endpointRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req2 := req.Clone(req.Context())
	req2.URL.Scheme = e.base.Scheme
	req2.URL.Host = e.base.Host
	req2.URL.Path = path.Join(e.base.Path, strings.TrimPrefix(req.URL.Path, "/"))
	if req.URL.RawQuery != "" {
		req2.URL.RawQuery = req.URL.RawQuery
	}
	return e.next.RoundTrip(req2)
}

// logGeminiResponse logs Gemini response text, truncating if over maxGeminiResponseLogBytes.
func logGeminiResponse(caller, raw string) {
	if len(raw) <= maxGeminiResponseLogBytes {
		log.Info().Str("caller", caller).Str("gemini_response", raw).Msg("Gemini response")
		return
	}
	log.Info().
		Str("caller", caller).
		Str("gemini_response", raw[:maxGeminiResponseLogBytes]+"... [truncated]").
		Int("gemini_response_len", len(raw)).
		Msg("Gemini response")
}

// Client wraps the Gemini API clients behind the four call shapes the
// orchestrators need: text rewrite, image generation, speech synthesis and
// long-running video jobs.
type Client struct {
	apiKey     string
	modelText  string // rewrite model, e.g. gemini-2.5-flash
	modelImage string // image generation, e.g. gemini-3-pro-image-preview
	modelTTS   string // TTS model, e.g. gemini-2.5-pro-preview-tts
	ttsVoice   string // TTS voice name, e.g. Zephyr, Puck, Aoede
	modelVideo string // video generation, e.g. veo-2.0-generate-001

	videoResolution  string
	videoAspectRatio string

	llmText       llms.Model           // langchaingo model for rewrite
	genaiClient   *genai.Client        // strict IMAGE modality
	unifiedClient *unifiedgenai.Client // unified genai SDK for TTS and video
	httpClient    *http.Client         // artifact downloads

	opsMu sync.Mutex
	ops   map[string]*unifiedgenai.GenerateVideosOperation // in-flight video operations by name
}

// NewClient creates a new LLM client from config. A custom API endpoint, when
// set, is applied to every Gemini call.
func NewClient(cfg *config.Config) *Client {
	apiKey := cfg.GeminiAPIKey
	apiEndpoint := cfg.GeminiAPIEndpoint

	var langchaingoHTTPClient *http.Client
	if apiEndpoint != "" {
		langchaingoHTTPClient = httpClientForEndpoint(apiEndpoint)
	}

	textOpts := []googleai.Option{googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(cfg.GeminiModelText)}
	if langchaingoHTTPClient != nil {
		textOpts = append(textOpts, googleai.WithHTTPClient(langchaingoHTTPClient))
	}
	llmText, err := googleai.New(context.Background(), textOpts...)
	if err != nil {
		log.Error().Err(err).Str("model", cfg.GeminiModelText).Msg("Failed to initialize text model")
	}

	// genai client for strict modality (IMAGE); requires API key
	var genaiClient *genai.Client
	if apiKey != "" {
		genaiOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
		if apiEndpoint != "" {
			genaiOpts = append(genaiOpts, option.WithEndpoint(apiEndpoint))
		}
		genaiClient, err = genai.NewClient(context.Background(), genaiOpts...)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize genai client for image generation")
		}
	}

	// Unified genai client for TTS (response_modalities: audio) and video operations
	var unifiedClient *unifiedgenai.Client
	if apiKey != "" {
		unifiedCfg := &unifiedgenai.ClientConfig{APIKey: apiKey}
		if apiEndpoint != "" {
			unifiedCfg.HTTPOptions = unifiedgenai.HTTPOptions{BaseURL: apiEndpoint}
		}
		unifiedClient, err = unifiedgenai.NewClient(context.Background(), unifiedCfg)
		if err != nil {
			log.Error().Err(err).Msg("Failed to initialize unified genai client")
		}
	}

	log.Info().
		Str("model_text", cfg.GeminiModelText).
		Str("model_image", cfg.GeminiModelImage).
		Str("model_tts", cfg.GeminiModelTTS).
		Str("tts_voice", cfg.GeminiTTSVoice).
		Str("model_video", cfg.GeminiModelVideo).
		Str("api_endpoint", apiEndpoint).
		Bool("genai_client", genaiClient != nil).
		Bool("unified_client", unifiedClient != nil).
		Msg("LLM client initialized")

	return &Client{
		apiKey:           apiKey,
		modelText:        cfg.GeminiModelText,
		modelImage:       cfg.GeminiModelImage,
		modelTTS:         cfg.GeminiModelTTS,
		ttsVoice:         cfg.GeminiTTSVoice,
		modelVideo:       cfg.GeminiModelVideo,
		videoResolution:  cfg.VideoResolution,
		videoAspectRatio: cfg.VideoAspectRatio,
		llmText:          llmText,
		genaiClient:      genaiClient,
		unifiedClient:    unifiedClient,
		httpClient:       &http.Client{Timeout: 2 * time.Minute},
		ops:              make(map[string]*unifiedgenai.GenerateVideosOperation),
	}
}
