package connectors

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"tradetracker/src/model"
)

// QuoteSink receives streamed quote updates. The risk summary's quote
// cache implements it.
type QuoteSink interface {
	Put(quote model.Quote)
}

// streamerRequest is the envelope the streamer expects for every command.
type streamerRequest struct {
	Service    string            `json:"service"`
	Command    string            `json:"command"`
	RequestID  string            `json:"requestid"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// streamerMessage is the data envelope pushed by the streamer.
type streamerMessage struct {
	Data []struct {
		Service string            `json:"service"`
		Content []json.RawMessage `json:"content"`
	} `json:"data"`
}

// levelOneQuote uses the streamer's numeric field ids: 1 bid, 2 ask,
// 3 last, 12 close, 49 mark.
type levelOneQuote struct {
	Key   string  `json:"key"`
	Last  float64 `json:"3"`
	Close float64 `json:"12"`
	Mark  float64 `json:"49"`
}

// QuoteStreamer keeps a level-one quote subscription open and feeds every
// update into the sink. It is supplemental to the pull-based quote fetch:
// the system stays correct without it, marks are just staler.
type QuoteStreamer struct {
	url         string
	symbols     []string
	accessToken func(ctx context.Context) (string, error)
	sink        QuoteSink
}

// NewQuoteStreamer wires a streamer for the given symbols. accessToken is
// usually SchwabClient.getAccessToken via StreamerTokenSource.
func NewQuoteStreamer(url string, symbols []string, tokenSource func(ctx context.Context) (string, error), sink QuoteSink) *QuoteStreamer {
	return &QuoteStreamer{
		url:         url,
		symbols:     symbols,
		accessToken: tokenSource,
		sink:        sink,
	}
}

// StreamerTokenSource exposes the client's token refresh for the streamer
// login without exporting the token cache itself.
func (c *SchwabClient) StreamerTokenSource() func(ctx context.Context) (string, error) {
	return c.getAccessToken
}

// Run connects and consumes quote updates until ctx is canceled,
// reconnecting with a fixed backoff on any failure.
func (s *QuoteStreamer) Run(ctx context.Context) {
	const reconnectDelay = 5 * time.Second

	for {
		if err := s.streamOnce(ctx); err != nil {
			logger.WithError(err).Warn("quote stream dropped, will reconnect")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *QuoteStreamer) streamOnce(ctx context.Context) error {
	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = conn.Close()
	}()

	login := streamerRequest{
		Service:   "ADMIN",
		Command:   "LOGIN",
		RequestID: uuid.NewString(),
		Parameters: map[string]string{
			"Authorization": token,
		},
	}
	if err := conn.WriteJSON(login); err != nil {
		return err
	}

	subscribe := streamerRequest{
		Service:   "LEVELONE_EQUITIES",
		Command:   "SUBS",
		RequestID: uuid.NewString(),
		Parameters: map[string]string{
			"keys":   strings.Join(s.symbols, ","),
			"fields": "1,2,3,12,49",
		},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"component": "QuoteStreamer",
		"symbols":   len(s.symbols),
	}).Info("quote stream subscribed")

	// Close the socket when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.handleMessage(payload)
	}
}

func (s *QuoteStreamer) handleMessage(payload []byte) {
	var msg streamerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		// heartbeats and admin responses use other envelopes, skip them
		return
	}

	for _, data := range msg.Data {
		if data.Service != "LEVELONE_EQUITIES" {
			continue
		}
		for _, raw := range data.Content {
			var q levelOneQuote
			if err := json.Unmarshal(raw, &q); err != nil || q.Key == "" {
				continue
			}
			s.sink.Put(model.Quote{
				Symbol:     strings.ToUpper(q.Key),
				LastPrice:  q.Last,
				Mark:       q.Mark,
				ClosePrice: q.Close,
			})
		}
	}
}
