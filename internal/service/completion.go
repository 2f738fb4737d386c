package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompletionOptions are the sampling parameters sent with every prompt.
type CompletionOptions struct {
	MaxTokens     int
	Temperature   float64
	TopP          float64
	TopK          int
	RepeatPenalty float64
	Stop          []string
}

// Completer generates text for a prompt, delivering chunks to emit as they
// arrive. Returning an error from emit stops the generation.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions, emit func(chunk string) error) error
}

type LlamaCompleterOptions struct {
	Endpoint   string
	HTTPClient *http.Client
}

// LlamaCompleter talks to a llama.cpp compatible server's /completion endpoint.
type LlamaCompleter struct {
	endpoint string
	client   *http.Client
}

type llamaCompletionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict"`
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	TopK          int      `json:"top_k"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop,omitempty"`
	Stream        bool     `json:"stream"`
}

type llamaCompletionChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

func NewLlamaCompleter(opts LlamaCompleterOptions) (*LlamaCompleter, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("completion endpoint is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	return &LlamaCompleter{endpoint: endpoint, client: client}, nil
}

func (l *LlamaCompleter) Complete(ctx context.Context, prompt string, opts CompletionOptions, emit func(chunk string) error) error {
	if l == nil || l.client == nil {
		return errors.New("completion backend is not configured")
	}

	payload, err := json.Marshal(llamaCompletionRequest{
		Prompt:        prompt,
		NPredict:      opts.MaxTokens,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		TopK:          opts.TopK,
		RepeatPenalty: opts.RepeatPenalty,
		Stop:          opts.Stop,
		Stream:        true,
	})
	if err != nil {
		return fmt.Errorf("completion: failed to encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("completion: failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")

	response, err := l.client.Do(request)
	if err != nil {
		return fmt.Errorf("completion: request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		message := strings.TrimSpace(string(data))
		if message == "" {
			message = response.Status
		}
		return fmt.Errorf("completion: backend returned status %s: %s", response.Status, message)
	}

	return readCompletionStream(response.Body, emit)
}

// readCompletionStream parses "data: {...}" lines until a chunk flags stop
// or the body ends.
func readCompletionStream(body io.Reader, emit func(chunk string) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if line == "[DONE]" {
			return nil
		}

		var chunk llamaCompletionChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return fmt.Errorf("completion: malformed stream chunk: %w", err)
		}
		if chunk.Content != "" {
			if err := emit(chunk.Content); err != nil {
				return err
			}
		}
		if chunk.Stop {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("completion: failed to read stream: %w", err)
	}
	return nil
}
