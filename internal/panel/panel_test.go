package panel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sabarrett328/SBMagtag-Weather/internal/db"
)

// testFrame is a 296x128 frame with a black pixel in the top-left corner.
func testFrame() *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, 296, 128), Palette)
	img.SetColorIndex(0, 0, 1)
	return img
}

func isBlack(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0 && b == 0
}

func TestFitSameSizeCopies(t *testing.T) {
	out := Fit(testFrame(), image.Rect(0, 0, 296, 128))
	assert.Equal(t, image.Rect(0, 0, 296, 128), out.Bounds())
	assert.True(t, isBlack(out.At(0, 0)))
	assert.False(t, isBlack(out.At(1, 0)))
}

func TestFitCentresSmallerFrame(t *testing.T) {
	out := Fit(testFrame(), image.Rect(0, 0, 296, 152))
	// 24 spare rows split evenly above and below.
	assert.True(t, isBlack(out.At(0, 12)))
	assert.False(t, isBlack(out.At(0, 0)))
}

func TestFitScalesDown(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 296, 128), Palette)
	for y := 0; y < 128; y++ {
		for x := 0; x < 296; x++ {
			src.SetColorIndex(x, y, 1)
		}
	}
	out := Fit(src, image.Rect(0, 0, 148, 100))
	// Scale 0.5 gives 148x64 centred vertically at y=18.
	assert.True(t, isBlack(out.At(74, 50)))
	assert.False(t, isBlack(out.At(74, 5)))
	assert.False(t, isBlack(out.At(74, 95)))
}

func TestRotate90(t *testing.T) {
	out := Rotate90(testFrame())
	assert.Equal(t, image.Rect(0, 0, 128, 296), out.Bounds())
	// Top-left of a clockwise-rotated landscape frame lands top-right.
	assert.True(t, isBlack(out.At(127, 0)))
	assert.False(t, isBlack(out.At(0, 0)))
}

func TestFilePanelWritesFrameAndHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := db.NewDB(filepath.Join(dir, "magtag.db"))
	require.NoError(t, err)
	defer store.Close()

	p := NewFile(filepath.Join(dir, "out", "frame.png"), image.Pt(296, 128), 0, store, nil)
	drawn := time.UnixMilli(1792252800000)
	p.now = func() time.Time { return drawn }
	assert.Equal(t, KindFile, p.Name())
	assert.Equal(t, time.Duration(0), p.TimeToRefresh())

	blank, at, err := p.LastFrame()
	require.NoError(t, err)
	assert.Nil(t, blank)
	assert.True(t, at.IsZero())

	require.NoError(t, p.Refresh(context.Background(), testFrame()))

	f, err := os.Open(p.Path())
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 296, 128), img.Bounds())
	assert.True(t, isBlack(img.At(0, 0)))

	stored, err := store.LastFrame(KindFile)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 296, stored.Width)

	last, at, err := p.LastFrame()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, isBlack(last.At(0, 0)))
	assert.True(t, drawn.Equal(at))

	entries, err := os.ReadDir(filepath.Dir(p.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFilePanelWithoutStoreReadsFile(t *testing.T) {
	p := NewFile(filepath.Join(t.TempDir(), "frame.png"), image.Point{}, time.Second, nil, nil)
	require.NoError(t, p.Refresh(context.Background(), testFrame()))

	last, at, err := p.LastFrame()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, image.Rect(0, 0, 296, 128), last.Bounds())
	assert.False(t, at.IsZero(), "file modification time")
}

func TestFilePanelHistoryFailureKeepsRefresh(t *testing.T) {
	dir := t.TempDir()
	store, err := db.NewDB(filepath.Join(dir, "magtag.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	core, logs := observer.New(zapcore.WarnLevel)
	p := NewFile(filepath.Join(dir, "frame.png"), image.Pt(296, 128), 0, store, zap.New(core).Sugar())

	require.NoError(t, p.Refresh(context.Background(), testFrame()))

	_, err = os.Stat(p.Path())
	assert.NoError(t, err, "frame written despite the closed store")
	assert.Equal(t, 1, logs.FilterMessage("Failed to store frame history").Len())
}

func TestOpen(t *testing.T) {
	p, err := Open(Options{Kind: KindFile, Path: filepath.Join(t.TempDir(), "f.png"), Size: image.Pt(296, 128)})
	require.NoError(t, err)
	assert.Equal(t, KindFile, p.Name())

	_, err = Open(Options{Kind: "crt"})
	assert.Error(t, err)

	_, err = Open(Options{Kind: KindQuote0, Quote0: Quote0Options{Device: "ABC"}})
	assert.ErrorIs(t, err, ErrTokenMissing)

	_, err = Open(Options{Kind: KindQuote0, Quote0: Quote0Options{Token: "dot_app_x"}})
	assert.ErrorIs(t, err, ErrDeviceIDMissing)
}

func TestQuote0Refresh(t *testing.T) {
	var got quote0ImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/open/image", r.URL.Path)
		assert.Equal(t, "Bearer dot_app_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":0,"message":"ok"}`))
	}))
	defer srv.Close()

	q, err := NewQuote0(Quote0Options{Token: "dot_app_test", Device: "ABCD1234", BaseURL: srv.URL + "/", BlackBorder: true}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 296, 152), q.Bounds())

	require.NoError(t, q.Refresh(context.Background(), testFrame()))

	assert.True(t, got.RefreshNow)
	assert.Equal(t, "ABCD1234", got.DeviceID)
	assert.Equal(t, 1, got.Border)
	assert.Equal(t, "NONE", got.DitherType)

	raw, err := base64.StdEncoding.DecodeString(got.Image)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 296, 152), img.Bounds())
}

func TestQuote0Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
		auth     bool
	}{
		{"json error", http.StatusUnauthorized, `{"code":401,"message":"invalid token"}`, "401", "invalid token", true},
		{"plain text", http.StatusInternalServerError, "设备不在线", "", "设备不在线", false},
		{"envelope code on 200", http.StatusOK, `{"code":1003,"message":"device offline"}`, "1003", "device offline", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			q, err := NewQuote0(Quote0Options{Token: "t", Device: "d", BaseURL: srv.URL}, 0)
			require.NoError(t, err)

			err = q.Refresh(context.Background(), testFrame())
			var ae *APIError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.status, ae.StatusCode)
			assert.Equal(t, tt.wantCode, ae.Code)
			assert.Equal(t, tt.wantMsg, ae.Message)
			assert.Equal(t, tt.auth, IsAuthError(err))
		})
	}
}
