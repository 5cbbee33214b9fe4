// Command watch follows a game from the terminal: it prints the game's countdown and tails a
// chat room through the realtime feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/weddingbets/backend/client"
	"github.com/weddingbets/backend/internal/livesync"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/timergate"
)

func main() {
	api := flag.String("api", "http://localhost:8080", "API base URL")
	email := flag.String("email", os.Getenv("WATCH_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("WATCH_PASSWORD"), "account password")
	gameArg := flag.String("game", "", "game ID to count down")
	roomArg := flag.String("room", "", "chat room ID to tail")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiClient := client.New(*api)
	if _, err := apiClient.Login(ctx, *email, *password); err != nil {
		logger.Fatal("login failed", zap.Error(err))
	}

	if *gameArg != "" {
		gameID, err := uuid.Parse(*gameArg)
		if err != nil {
			logger.Fatal("invalid game id", zap.String("game", *gameArg))
		}
		game, err := apiClient.Game(ctx, gameID)
		if err != nil {
			logger.Fatal("load game", zap.Error(err))
		}
		cd := timergate.NewCountdown(nil, game.TimerEnd,
			func(v string) { fmt.Printf("\r%s  %s ", game.Name, v) },
			func() { fmt.Printf("\n%s: betting closed\n", game.Name) })
		cd.Start()
		defer cd.Stop()
	}

	if *roomArg != "" {
		roomID, err := uuid.Parse(*roomArg)
		if err != nil {
			logger.Fatal("invalid room id", zap.String("room", *roomArg))
		}
		chat := livesync.NewChatSync(apiClient, apiClient, logger)
		printed := 0
		chat.OnChange = func(msgs []models.Message) {
			for _, m := range msgs[printed:] {
				fmt.Printf("\n[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), m.UserID.String()[:8], m.Content)
			}
			printed = len(msgs)
		}
		if err := chat.Open(ctx, roomID); err != nil {
			logger.Fatal("open room", zap.Error(err))
		}
		defer chat.Close()
	}

	<-ctx.Done()
	logger.Info("stopping")
}
