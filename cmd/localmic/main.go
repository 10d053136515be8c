// Command localmic is a manual test client for the realtime gateway: it
// opens the local microphone with malgo the same way cmd/agent does, but
// instead of driving an in-process orchestrator it dials a running gateway
// over the websocket and speaks the wire protocol directly, playing back
// response.audio.delta chunks through the speaker.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coder/websocket"
	"github.com/gen2brain/malgo"
	"github.com/lokutor-ai/realtime-gateway/pkg/orchestrator"
	"github.com/lokutor-ai/realtime-gateway/pkg/realtime/audiobuf"
)

const (
	sampleRate = audiobuf.SampleRate
	channels   = 1
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/v1/realtime", "gateway websocket address")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		log.Fatalf("failed to dial gateway: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	var playbackMu sync.Mutex
	var playbackBytes []byte

	echo := orchestrator.NewEchoSuppressor()

	go readLoop(ctx, conn, &playbackMu, &playbackBytes, echo)

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer mctx.Uninit()

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		if pInput != nil && !echo.IsEcho(pInput) {
			appendAudio(ctx, conn, pInput)
		}
		if pOutput != nil {
			playbackMu.Lock()
			n := copy(pOutput, playbackBytes)
			playbackBytes = playbackBytes[n:]
			for i := n; i < len(pOutput); i++ {
				pOutput[i] = 0
			}
			playbackMu.Unlock()
			if n > 0 {
				echo.RecordPlayedAudio(pOutput[:n])
			}
		}
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = channels
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		log.Fatal(err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Connected to gateway. Listening to microphone. Press Ctrl+C to exit.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("\nShutting down...")
}

func appendAudio(ctx context.Context, conn *websocket.Conn, pcm []byte) {
	msg := map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	_ = conn.Write(ctx, websocket.MessageText, raw)
}

func readLoop(ctx context.Context, conn *websocket.Conn, playbackMu *sync.Mutex, playbackBytes *[]byte, echo *orchestrator.EchoSuppressor) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var envelope struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
			Text  string `json:"text"`
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case "response.audio.delta":
			chunk, err := base64.StdEncoding.DecodeString(envelope.Delta)
			if err != nil {
				continue
			}
			playbackMu.Lock()
			*playbackBytes = append(*playbackBytes, chunk...)
			playbackMu.Unlock()
		case "response.text.delta":
			fmt.Print(envelope.Delta)
		case "response.audio_transcript.delta":
			fmt.Print(envelope.Delta)
		case "error":
			fmt.Printf("\n[error] %s\n", envelope.Error.Message)
		case "response.done":
			fmt.Println()
		}
	}
}
