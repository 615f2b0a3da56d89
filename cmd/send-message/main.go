package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DevRickLin/feishu-nightwatch/internal/conf"
	"github.com/DevRickLin/feishu-nightwatch/internal/data"
	"github.com/DevRickLin/feishu-nightwatch/internal/infra/feishu"
	"github.com/joho/godotenv"
)

// Posts a text to a chat or topic the way notices are posted, then prints the message IDs.
// Handy to check that the bot may post in a topic before enabling production mode.
// With "delete" as first argument it retracts the given message IDs instead.
func main() {
	_ = godotenv.Load()

	appID := os.Getenv("FEISHU_APP_ID")
	appSecret := os.Getenv("FEISHU_APP_SECRET")

	if appID == "" || appSecret == "" {
		fmt.Println("Error: FEISHU_APP_ID and FEISHU_APP_SECRET must be set")
		os.Exit(1)
	}

	if len(os.Args) < 4 {
		fmt.Println("Usage: send-message <chat_id> <topic_id|none> <message>")
		fmt.Println("       send-message delete <chat_id> <msg_id>...")
		os.Exit(1)
	}

	maxRunes := 4000
	if v, err := strconv.Atoi(os.Getenv("MAX_MESSAGE_RUNES")); err == nil && v > 0 {
		maxRunes = v
	}
	messages := data.NewFeishuRepo(feishu.NewClient(appID, appSecret, false), maxRunes)
	ctx := context.Background()

	if os.Args[1] == "delete" {
		if err := messages.Delete(ctx, os.Args[2], os.Args[3:]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Messages deleted successfully!")
		return
	}

	chatID := os.Args[1]
	topicID := conf.NormalizeTopic(os.Args[2])
	text := strings.Join(os.Args[3:], " ")

	ids, err := messages.Send(ctx, chatID, topicID, text)
	for _, id := range ids {
		fmt.Println(id)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Message sent successfully in %d part(s)!\n", len(ids))
}
