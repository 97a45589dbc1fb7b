package line

import (
	"context"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v7/linebot"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	// MessagesHandled and CommandsProcessed are exported so main can
	// persist them across restarts.
	MessagesHandled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockbot",
		Subsystem: "line",
		Name:      "messages_handled",
		Help:      "The total number of handled text messages",
	})
	CommandsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "stockbot",
		Subsystem: "line",
		Name:      "commands_processed",
		Help:      "The total number of commands answered with a reply",
	})
)

func init() {
	prometheus.MustRegister(MessagesHandled)
	prometheus.MustRegister(CommandsProcessed)
}

// pushTimeout bounds every call to the LINE API; a stalled push must not
// block the poll loop.
const pushTimeout = 10 * time.Second

// MessageHandler turns one inbound message text into a reply.
type MessageHandler interface {
	Handle(ctx context.Context, text string) string
}

// NewClient creates a new LINE messaging client
func NewClient(c Config) (*Client, error) {
	httpClient := &http.Client{Timeout: pushTimeout}
	bot, err := linebot.New(c.ChannelSecret, c.ChannelToken, linebot.WithHTTPClient(httpClient))
	if err != nil {
		return nil, errors.Wrap(err, "could not create line client")
	}

	return &Client{
		bot:        bot,
		config:     c,
		httpClient: httpClient,
	}, nil
}

// Push sends a one-way message to the configured recipient.
func (c *Client) Push(text string) error {
	_, err := c.bot.PushMessage(c.config.UserID, linebot.NewTextMessage(text)).Do()
	return errors.Wrap(err, "could not push message")
}

// Reply answers an inbound event via its reply token.
func (c *Client) Reply(replyToken, text string) error {
	_, err := c.bot.ReplyMessage(replyToken, linebot.NewTextMessage(text)).Do()
	return errors.Wrap(err, "could not reply to message")
}

// CallbackHandler returns the webhook endpoint. Signature verification is
// done by the SDK during parsing; an invalid signature is rejected with 400
// and never reaches the interpreter.
func (c *Client) CallbackHandler(handler MessageHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		events, err := c.bot.ParseRequest(r)
		if err != nil {
			if err == linebot.ErrInvalidSignature {
				log.Warnf("rejected callback with invalid signature from %s", r.RemoteAddr)
				w.WriteHeader(http.StatusBadRequest)
			} else {
				log.Errorf("failed to parse callback request: %v", err)
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		for _, event := range events {
			if event.Type != linebot.EventTypeMessage {
				continue
			}
			message, ok := event.Message.(*linebot.TextMessage)
			if !ok {
				log.Debug("Received non-text message")
				continue
			}

			MessagesHandled.Inc()

			reply := handler.Handle(r.Context(), message.Text)
			if reply == "" {
				continue
			}
			if err := c.Reply(event.ReplyToken, reply); err != nil {
				log.Errorf("Failed to send reply: %v", err)
			} else {
				CommandsProcessed.Inc()
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
