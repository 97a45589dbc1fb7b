package line

import (
	"net/http"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// Config configuration of the LINE client
type Config struct {
	ChannelSecret string
	ChannelToken  string
	// UserID is the fixed push recipient for alert notifications.
	UserID string
}

// Client LINE messaging interaction client
type Client struct {
	bot        *linebot.Client
	config     Config
	httpClient *http.Client
}
