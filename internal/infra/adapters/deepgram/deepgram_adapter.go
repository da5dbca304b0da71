package deepgram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"voice-analytics/internal/domain"
	"voice-analytics/internal/domain/model"
	"voice-analytics/internal/domain/ports/adapter"
	"voice-analytics/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Transcriber = (*Adapter)(nil)

const transcriptPath = "results.channels.0.alternatives.0.transcript"

// maxErrorBody caps how much of a failed response ends up in the error message.
const maxErrorBody = 4 << 10

type Options struct {
	APIKey      string
	BaseURL     string // e.g., https://api.deepgram.com/v1/listen
	Model       string
	Language    string
	SmartFormat bool
	Timeout     time.Duration // 0 = none
}

// Adapter calls the Deepgram pre-recorded audio endpoint.
type Adapter struct {
	apiKey string
	base   string
	query  url.Values
	client *http.Client
}

func NewAdapter(opts Options) (*Adapter, error) {
	if opts.APIKey == "" {
		return nil, errors.New("deepgram api key empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.deepgram.com/v1/listen"
	}
	if opts.Model == "" {
		opts.Model = "nova-3"
	}
	if opts.Language == "" {
		opts.Language = "multi"
	}
	q := url.Values{}
	q.Set("model", opts.Model)
	q.Set("smart_format", strconv.FormatBool(opts.SmartFormat))
	q.Set("language", opts.Language)

	return &Adapter{
		apiKey: opts.APIKey,
		base:   opts.BaseURL,
		query:  q,
		client: &http.Client{Timeout: opts.Timeout},
	}, nil
}

func (a *Adapter) Name() string { return "deepgram" }

// Transcribe uploads the raw audio and returns the first alternative of the
// first channel. Any other response shape is an error.
func (a *Adapter) Transcribe(ctx context.Context, in adapter.TranscribeInput) (transcript string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(a.Name(), "transcription", time.Since(start), err == nil) }()

	contentType := in.ContentType
	if contentType == "" {
		contentType = model.AudioContentType(in.Filename)
	}

	endpoint := a.base
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + a.query.Encode()
	} else {
		endpoint += "?" + a.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(in.Audio))
	if err != nil {
		return "", fmt.Errorf("%w: build deepgram request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Token "+a.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: deepgram request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read deepgram response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", fmt.Errorf("%w: deepgram http %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: deepgram returned invalid json", domain.ErrUpstream)
	}
	res := gjson.GetBytes(body, transcriptPath)
	if res.Type != gjson.String {
		return "", fmt.Errorf("%w: deepgram response has no %s", domain.ErrUpstream, transcriptPath)
	}
	return res.String(), nil
}
