package scribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/nao1215/compliancescribe/internal/audio"
	"github.com/nao1215/compliancescribe/internal/model"
)

const (
	// DefaultBaseURL is the service root.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultModel supports diarization, word timestamps and entity detection.
	DefaultModel = "scribe_v2"

	// endpoint is the path of the transcription endpoint.
	endpoint = "/v1/speech-to-text"

	// apiKeyHeader carries the credential.
	apiKeyHeader = "xi-api-key" //nolint:gosec // header name, not a credential

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Request describes one transcription.
type Request struct {
	// Path is the audio file to upload. Ignored when Reader is set.
	Path string

	// Reader supplies the audio content directly.
	Reader io.Reader

	// FileName is the upload file name. Defaults to the base name of Path.
	FileName string

	// ContentType overrides the MIME type derived from the file name.
	ContentType string

	// Model overrides the client's model for this request.
	Model string
}

// Client talks to the speech-to-text service.
// A Client is safe for concurrent use.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	timeout      time.Duration
	proxyAddress string
	httpClient   *http.Client
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service root URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithModel sets the default transcription model.
func WithModel(m string) Option {
	return func(c *Client) {
		c.model = m
	}
}

// WithTimeout bounds each request. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(c *Client) {
		c.proxyAddress = address
	}
}

// WithHTTPClient replaces the HTTP client. WithProxy and WithTimeout are
// ignored when this option is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client authenticated with apiKey.
// It returns an error if the key is empty or the proxy cannot be configured.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := newHTTPClient(c.proxyAddress, c.timeout)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}

	return c, nil
}

// newHTTPClient builds the HTTP client, dialing through SOCKS5 when
// proxyAddress is set.
func newHTTPClient(proxyAddress string, timeout time.Duration) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default

	if proxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("SOCKS5 dialer does not support contexts")
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return contextDialer.DialContext(ctx, network, addr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

// Model returns the default model of the client.
func (c *Client) Model() string {
	return c.model
}

// Transcribe uploads the audio and returns the normalized transcription.
// Any failure is returned as *Error.
func (c *Client) Transcribe(ctx context.Context, req Request) (*model.TranscriptionResult, error) {
	body, fileName, err := req.open()
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	defer body.Close()

	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = audio.ContentType(fileName)
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, modelID, fileName, contentType, body))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, pr)
	if err != nil {
		return nil, &Error{Op: "upload", Err: err}
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("uploading audio",
		"file", fileName,
		"model", modelID,
		"content_type", contentType,
	)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		msg := ""
		if json.Unmarshal(data, &eb) == nil {
			msg = eb.message()
		}
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		c.logger.Warn("transcription rejected",
			"file", fileName,
			"status", resp.StatusCode,
		)
		return nil, &Error{Op: "status", StatusCode: resp.StatusCode, Message: msg, Err: readErr}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}

	result := r.toModel()
	result.Normalize()
	result.Raw = data

	c.logger.Debug("transcription received",
		"file", fileName,
		"words", len(result.Words),
		"entities", len(result.Entities),
		"language", result.LanguageCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return result, nil
}

// open returns the audio content and upload file name.
func (r Request) open() (io.ReadCloser, string, error) {
	fileName := r.FileName
	if r.Reader != nil {
		if fileName == "" {
			fileName = "audio"
		}
		return io.NopCloser(r.Reader), fileName, nil
	}
	if r.Path == "" {
		return nil, "", ErrNoAudio
	}
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, "", err
	}
	if fileName == "" {
		fileName = filepath.Base(r.Path)
	}
	return f, fileName, nil
}

// writeForm streams the multipart body. The fields enable diarization,
// word-level timestamps and entity detection.
func writeForm(mw *multipart.Writer, modelID, fileName, contentType string, audioBody io.Reader) error {
	fields := []struct{ key, value string }{
		{"model_id", modelID},
		{"diarize", "true"},
		{"timestamps_granularity", "word"},
		{"entity_detection", "true"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.key, f.value); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="file"; filename="`+escapeQuotes(fileName)+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audioBody); err != nil {
		return err
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
