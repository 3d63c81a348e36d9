package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"wedding-journey/internal/admin"
	"wedding-journey/internal/models"
	"wedding-journey/internal/session"
)

// startCLI runs the operator menu on in until exit is chosen or in closes
func startCLI(in io.Reader, adminService *admin.Service, sessions *session.Registry, quit func()) {
	scanner := bufio.NewScanner(in)
	ctx := context.Background()

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. View players")
		fmt.Println("  2. Reset a player")
		fmt.Println("  3. Reset both players")
		fmt.Println("  4. View photos")
		fmt.Println("  5. Wipe (reset players and drop sessions)")
		fmt.Println("  6. Exit")
		fmt.Print("\nEnter command (1-6): ")

		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			viewPlayers(ctx, adminService, sessions)
		case "2":
			resetPlayer(ctx, scanner, adminService)
		case "3":
			printResult(adminService.ResetBoth(ctx))
		case "4":
			viewPhotos(ctx, adminService)
		case "5":
			printResult(adminService.Wipe(ctx))
		case "6":
			fmt.Println("Exiting...")
			quit()
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func viewPlayers(ctx context.Context, adminService *admin.Service, sessions *session.Registry) {
	players, err := adminService.ListPlayers(ctx)
	if err != nil {
		fmt.Printf("❌ Error loading players: %v\n", err)
		return
	}

	fmt.Printf("\n📋 Players (%d live sessions):\n", sessions.Len())
	fmt.Println(strings.Repeat("-", 60))
	for _, p := range players {
		fmt.Printf("Player: %s\n", p.ID)
		fmt.Printf("Quiz completed: %t (score %d)\n", p.QuizCompleted, p.QuizScore)
		fmt.Printf("Swipes: %d\n", len(p.QuizAnswers.Swipe))
		if p.CompletedAt != nil {
			fmt.Printf("Journey completed: %s\n", p.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println(strings.Repeat("-", 60))
	}
}

func resetPlayer(ctx context.Context, scanner *bufio.Scanner, adminService *admin.Service) {
	fmt.Print("Enter player (manoj/pooja): ")
	if !scanner.Scan() {
		return
	}

	id, err := models.ParsePlayerID(strings.ToLower(strings.TrimSpace(scanner.Text())))
	if err != nil {
		fmt.Println("Invalid player.")
		return
	}
	printResult(adminService.ResetPlayer(ctx, id))
}

func viewPhotos(ctx context.Context, adminService *admin.Service) {
	photos, err := adminService.ListPhotos(ctx)
	if err != nil {
		fmt.Printf("❌ Error loading photos: %v\n", err)
		return
	}
	if len(photos) == 0 {
		fmt.Println("\nNo photos uploaded, guests see placeholders.")
		return
	}

	fmt.Printf("\n📷 Photos (%d total):\n", len(photos))
	for _, p := range photos {
		fmt.Printf("[%s #%d] %s %s\n", p.Chapter, p.Order, p.Caption, p.URL)
	}
}

func printResult(res admin.Result) {
	for _, st := range res.Steps {
		switch {
		case st.OK:
			fmt.Printf("✅ %s\n", st.Name)
		case st.Skipped:
			fmt.Printf("⏭️  %s\n", st.Name)
		default:
			fmt.Printf("❌ %s: %s\n", st.Name, st.Error)
		}
	}
}
