package panel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultQuote0URL is the Quote/0 cloud API host.
	DefaultQuote0URL = "https://dot.mindreset.tech"

	quote0ImageEndpoint = "/api/open/image"
	quote0Width         = 296
	quote0Height        = 152
	maxResponseBodySize = 4 << 20
)

var (
	// ErrDeviceIDMissing indicates the Quote/0 serial number is not configured.
	ErrDeviceIDMissing = errors.New("quote0: device id is required")
	// ErrTokenMissing indicates the Quote/0 API token is not configured.
	ErrTokenMissing = errors.New("quote0: API token is required")
)

// Quote0Options configures the Quote/0 backend.
type Quote0Options struct {
	Token   string
	Device  string
	BaseURL string
	// BlackBorder paints the screen edge black instead of white.
	BlackBorder bool
	HTTPClient  *http.Client
}

// Quote0 pushes frames to a MindReset Quote/0 Wi-Fi e-ink display through its
// open image API. The device refreshes as soon as the upload is accepted.
type Quote0 struct {
	baseURL string
	token   string
	device  string
	border  int
	http    *http.Client
	limiter *rate.Limiter
	delay   time.Duration
}

// quote0ImageRequest matches the /api/open/image payload.
type quote0ImageRequest struct {
	RefreshNow bool   `json:"refreshNow"`
	DeviceID   string `json:"deviceId"`
	Image      string `json:"image"`
	Border     int    `json:"border,omitempty"`
	DitherType string `json:"ditherType,omitempty"`
}

// quote0Response reflects the JSON envelope returned by the service.
type quote0Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// APIError captures a rejected upload. The service may answer in JSON or plain text.
type APIError struct {
	StatusCode int
	// Code is the server error code when present (e.g. "429").
	Code    string
	Message string
	RawBody []byte
}

func (e *APIError) Error() string {
	b := strings.Builder{}
	b.WriteString("quote0: API error (status=")
	b.WriteString(strconv.Itoa(e.StatusCode))
	if e.Code != "" {
		b.WriteString(", code=")
		b.WriteString(e.Code)
	}
	b.WriteString(")")
	if m := strings.TrimSpace(e.Message); m != "" {
		b.WriteString(": ")
		b.WriteString(m)
	}
	return b.String()
}

// IsAuthError reports whether err is an APIError with HTTP status 401 or 403.
func IsAuthError(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode == http.StatusUnauthorized || ae.StatusCode == http.StatusForbidden
	}
	return false
}

func buildAPIError(status int, body []byte) *APIError {
	trimmed := strings.TrimSpace(string(body))
	ae := &APIError{StatusCode: status, RawBody: body, Message: trimmed}

	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]interface{}
		if err := json.Unmarshal(body, &obj); err == nil {
			if v, ok := obj["message"].(string); ok && v != "" {
				ae.Message = v
			} else if v, ok := obj["error"].(string); ok && v != "" {
				ae.Message = v
			}
			switch c := obj["code"].(type) {
			case string:
				ae.Code = strings.TrimSpace(c)
			case float64:
				ae.Code = strconv.Itoa(int(c))
			}
		}
	}
	return ae
}

// NewQuote0 builds the Quote/0 backend. Uploads are paced at the documented 1 QPS.
func NewQuote0(opts Quote0Options, delay time.Duration) (*Quote0, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	device := strings.TrimSpace(opts.Device)
	if device == "" {
		return nil, ErrDeviceIDMissing
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultQuote0URL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	q := &Quote0{
		baseURL: baseURL,
		token:   token,
		device:  device,
		http:    hc,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		delay:   delay,
	}
	if opts.BlackBorder {
		q.border = 1
	}
	return q, nil
}

func (q *Quote0) Name() string { return KindQuote0 }

func (q *Quote0) Bounds() image.Rectangle { return image.Rect(0, 0, quote0Width, quote0Height) }

func (q *Quote0) TimeToRefresh() time.Duration { return q.delay }

func (q *Quote0) Refresh(ctx context.Context, frame image.Image) error {
	data, err := EncodePNG(Fit(frame, q.Bounds()))
	if err != nil {
		return err
	}

	// Frames are already two-tone; server-side dithering would only add grain.
	payload := quote0ImageRequest{
		RefreshNow: true,
		DeviceID:   q.device,
		Image:      base64.StdEncoding.EncodeToString(data),
		Border:     q.border,
		DitherType: "NONE",
	}
	return q.post(ctx, quote0ImageEndpoint, payload)
}

func (q *Quote0) post(ctx context.Context, endpoint string, payload interface{}) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("quote0: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("quote0: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+q.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "magtag-weather/1.0")

	resp, err := q.http.Do(req)
	if err != nil {
		return fmt.Errorf("quote0: execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("quote0: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return buildAPIError(resp.StatusCode, raw)
	}

	// A 200 can still carry a non-zero code in the envelope.
	var out quote0Response
	if json.Unmarshal(raw, &out) == nil && out.Code != 0 {
		return &APIError{StatusCode: resp.StatusCode, Code: strconv.Itoa(out.Code), Message: out.Message, RawBody: raw}
	}
	return nil
}
