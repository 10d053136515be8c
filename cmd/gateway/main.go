// Command gateway runs the realtime websocket server: it wires STT/LLM/TTS
// providers from the environment the same way cmd/agent does, then serves
// GET /v1/realtime instead of opening a local microphone.
package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lokutor-ai/realtime-gateway/internal/obslog"
	"github.com/lokutor-ai/realtime-gateway/internal/transport/ws"
	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	llmProvider "github.com/lokutor-ai/realtime-gateway/pkg/providers/llm"
	sttProvider "github.com/lokutor-ai/realtime-gateway/pkg/providers/stt"
	ttsProvider "github.com/lokutor-ai/realtime-gateway/pkg/providers/tts"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/event"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	logger := obslog.New(parseLevel(os.Getenv("LOG_LEVEL")))

	stt := buildSTT()
	llm := buildLLM()
	tts := buildTTS()

	defaultCfg := buildDefaultConfig()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/v1/realtime", &ws.Handler{
		DefaultConfig: defaultCfg,
		Logger:        logger,
		IdleTimeout:   5 * time.Minute,
		Providers: func(sessionID string) session.Providers {
			return session.Providers{STT: stt, LLM: llm, TTS: tts}
		},
	})

	addr := envOr("GATEWAY_ADDR", ":8080")
	logger.Info("realtime gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func buildSTT() orchestrator.STTProvider {
	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	assemblyKey := os.Getenv("ASSEMBLYAI_API_KEY")

	switch envOr("STT_PROVIDER", "groq") {
	case "openai":
		requireEnv("OPENAI_API_KEY", openaiKey)
		return sttProvider.NewOpenAISTT(openaiKey, "whisper-1")
	case "deepgram":
		requireEnv("DEEPGRAM_API_KEY", deepgramKey)
		return sttProvider.NewDeepgramSTT(deepgramKey)
	case "assemblyai":
		requireEnv("ASSEMBLYAI_API_KEY", assemblyKey)
		return sttProvider.NewAssemblyAISTT(assemblyKey)
	default:
		requireEnv("GROQ_API_KEY", groqKey)
		return sttProvider.NewGroqSTT(groqKey, envOr("GROQ_STT_MODEL", "whisper-large-v3-turbo"))
	}
}

func buildLLM() llmProvider.StreamingProvider {
	groqKey := os.Getenv("GROQ_API_KEY")
	openaiKey := os.Getenv("OPENAI_API_KEY")
	anthropicKey := os.Getenv("ANTHROPIC_API_KEY")
	googleKey := os.Getenv("GOOGLE_API_KEY")

	switch envOr("LLM_PROVIDER", "openai") {
	case "openai":
		requireEnv("OPENAI_API_KEY", openaiKey)
		return llmProvider.NewOpenAILLM(openaiKey, envOr("OPENAI_MODEL", "gpt-4o"))
	case "anthropic":
		requireEnv("ANTHROPIC_API_KEY", anthropicKey)
		return llmProvider.NewFallbackStreamer(llmProvider.NewAnthropicLLM(anthropicKey, envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022")))
	case "google":
		requireEnv("GOOGLE_API_KEY", googleKey)
		return llmProvider.NewFallbackStreamer(llmProvider.NewGoogleLLM(googleKey, envOr("GOOGLE_MODEL", "gemini-1.5-flash")))
	default:
		requireEnv("GROQ_API_KEY", groqKey)
		return llmProvider.NewFallbackStreamer(llmProvider.NewGroqLLM(groqKey, envOr("GROQ_MODEL", "llama-3.3-70b-versatile")))
	}
}

func buildTTS() orchestrator.TTSProvider {
	lokutorKey := os.Getenv("LOKUTOR_API_KEY")
	requireEnv("LOKUTOR_API_KEY", lokutorKey)
	return ttsProvider.NewLokutorTTS(lokutorKey)
}

func buildDefaultConfig() event.SessionConfig {
	instructions := envOr("GATEWAY_INSTRUCTIONS", "You are a helpful and concise voice assistant. Use short sentences suitable for speech.")
	voice := envOr("GATEWAY_VOICE", "alloy")
	inFmt, outFmt := "pcm16", "pcm16"
	lang := envOr("GATEWAY_LANGUAGE", string(orchestrator.LanguageEn))

	return event.SessionConfig{
		Instructions:            &instructions,
		Voice:                   &voice,
		Modalities:              []string{"text", "audio"},
		InputAudioFormat:        &inFmt,
		OutputAudioFormat:       &outFmt,
		InputAudioTranscription: &event.InputAudioTranscription{Language: lang},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key, val string) {
	if val == "" {
		log.Fatalf("Error: %s must be set", key)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
