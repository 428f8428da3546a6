package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/room4-2/OpenCompanion/audio"
	"github.com/room4-2/OpenCompanion/capture"
	"github.com/room4-2/OpenCompanion/client"
	"github.com/room4-2/OpenCompanion/config"
	"github.com/room4-2/OpenCompanion/history"
	"github.com/room4-2/OpenCompanion/playback"
	"github.com/room4-2/OpenCompanion/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Transcript store; degrades to a no-op when Redis is unavailable
	hist := history.Open(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.HistoryTTL)
	defer hist.Close()

	clientID := uuid.New().String()
	conn, err := client.Dial(ctx, client.URL(cfg.Host, cfg.Port, clientID))
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("✅ Client %s connected to server", clientID)

	stdin := bufio.NewReader(os.Stdin)

	// Handshake, strictly ordered: greeting in, companion out, mode out
	greeting, err := conn.ReadGreeting()
	if err != nil {
		log.Fatalf("Handshake failed: %v", err)
	}
	fmt.Println(greeting)

	companion := cfg.Companion
	if companion == "" {
		companion, err = promptLine(stdin, "Select companion: ")
		if err != nil {
			log.Fatalf("Failed to read companion selection: %v", err)
		}
	}
	if err := conn.SendText(companion); err != nil {
		log.Fatalf("Handshake failed: %v", err)
	}

	modeSelection := cfg.Mode
	if modeSelection == "" {
		modeSelection, err = promptLine(stdin, "Select mode (a: audio, t: text): ")
		if err != nil {
			log.Fatalf("Failed to read mode selection: %v", err)
		}
	}
	if err := conn.SendText(modeSelection); err != nil {
		log.Fatalf("Handshake failed: %v", err)
	}
	mode := session.ModeFromSelection(modeSelection)

	opts := session.Options{
		History: hist,
		Pool:    capture.NewPool(cfg.CaptureWorkers),
		Pause:   cfg.CapturePause,
		Input:   stdin,
	}

	if mode == session.ModeAudio {
		if err := capture.Initialize(); err != nil {
			log.Fatalf("Failed to init audio capture: %v", err)
		}
		defer capture.Terminate()

		dev, err := capture.PromptDevice(stdin, os.Stdout)
		if err != nil {
			log.Fatalf("Device selection failed: %v", err)
		}

		micCfg := capture.DefaultConfig()
		micCfg.SampleRate = cfg.SampleRate
		micCfg.Channels = cfg.Channels
		micCfg.PhraseTimeLimit = cfg.PhraseTimeLimit

		fmt.Println("Adjusting for ambient noise... wait for 2 seconds")
		mic, err := capture.NewMic(dev, micCfg)
		if err != nil {
			log.Fatalf("Failed to open microphone: %v", err)
		}
		defer mic.Close()
		opts.Recorder = mic

		fmt.Println("Okay, start talking!")
	}

	speaker, err := audio.NewSpeaker(cfg.SampleRate)
	if err != nil {
		log.Fatalf("Failed to init speaker: %v", err)
	}
	player := playback.NewPlayer(speaker)

	sess := session.New(clientID, companion, mode, conn, player, opts)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived shutdown signal...")
		cancel()
	}()

	if err := sess.Run(ctx); err != nil {
		log.Printf("Session ended: %v", err)
	}
	log.Println("Client stopped")
}

func promptLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
