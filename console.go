package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"triviarcade/config"
	"triviarcade/engine"
	"triviarcade/logger"
	"triviarcade/models"
	"triviarcade/oracle"
	"triviarcade/services"

	"go.uber.org/zap"
)

// runConsole plays one game synchronously in the terminal. Checkpoints stay in
// process; session rows and the answer ledger still go to the database.
func runConsole(cfg *config.Config) {
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.AutoMigrate(&models.GameSession{}, &models.AnswerLog{}); err != nil {
		logger.Log.Fatal("failed to migrate database", zap.Error(err))
	}

	gateway := oracle.NewClient(oracle.Config{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  cfg.Oracle.APIKey,
		Model:   cfg.Oracle.Model,
	})
	sessionService := services.NewSessionService(db)
	gameEngine := engine.New(engine.NewMemoryCheckpointStore(), sessionService, gateway, cfg.Game.MaxQuestions)
	gameService := services.NewGameService(gameEngine, sessionService, nil)

	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	fmt.Printf("Welcome to Triviarcade (%d questions per game)\n\n", cfg.Game.MaxQuestions)

	playerName := promptLine(reader, "Your name: ")
	if playerName == "" {
		fmt.Println("A name is required to play.")
		return
	}

	topic := promptLine(reader, fmt.Sprintf("Topic [%s]: ", cfg.Game.DefaultTopic))
	if topic == "" {
		topic = cfg.Game.DefaultTopic
	}

	start, err := gameService.StartGame(ctx, &services.StartGameRequest{
		PlayerName: playerName,
		Topic:      topic,
	})
	if err != nil {
		fmt.Printf("Could not start the game: %v\n", err)
		return
	}

	question := start.Question
	score := start.Score
	for round := 1; ; round++ {
		fmt.Printf("\nQuestion %d/%d: %s\n", round, cfg.Game.MaxQuestions, question)

		answer := promptLine(reader, "Your answer > ")
		result, err := gameService.SubmitAnswer(ctx, start.SessionID, &services.SubmitAnswerRequest{
			Answer: answer,
		})
		if err != nil {
			fmt.Printf("Judging failed: %v. Try the same answer again.\n", err)
			round--
			continue
		}

		fmt.Printf("\nFeedback: %s\n", result.Feedback)
		score = result.Score

		if result.GameOver {
			break
		}
		question = result.NextQuestion
	}

	fmt.Printf("\nGame over, %s! Final score: %d\n", playerName, score)

	entries, err := gameService.Leaderboard(services.DefaultLeaderboardSize)
	if err != nil {
		return
	}
	fmt.Println("\nLeaderboard:")
	for i, entry := range entries {
		fmt.Printf("%d. %-20s %4d pts  (%s)\n", i+1, entry.PlayerName, entry.Score, entry.Date)
	}
}

func promptLine(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
