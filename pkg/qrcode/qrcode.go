package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 2048
)

var ErrEmptyContent = errors.New("qr code content cannot be empty")

// Level is the error correction level: L, M, Q or H.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

type Options struct {
	// Size is the PNG edge length in pixels. Zero means DefaultSize.
	Size          int
	Level         Level
	DisableBorder bool
}

// ParseLevel accepts a level letter in either case. Empty means medium.
func ParseLevel(value string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(value))) {
	case "", LevelMedium:
		return LevelMedium, nil
	case LevelLow:
		return LevelLow, nil
	case LevelQuartile:
		return LevelQuartile, nil
	case LevelHigh:
		return LevelHigh, nil
	default:
		return "", fmt.Errorf("unsupported error correction level %q", value)
	}
}

func (l Level) recoveryLevel() goqrcode.RecoveryLevel {
	switch l {
	case LevelLow:
		return goqrcode.Low
	case LevelQuartile:
		return goqrcode.High
	case LevelHigh:
		return goqrcode.Highest
	default:
		return goqrcode.Medium
	}
}

func (o Options) size() (int, error) {
	if o.Size == 0 {
		return DefaultSize, nil
	}
	if o.Size < MinSize || o.Size > MaxSize {
		return 0, fmt.Errorf("qr code size must be between %d and %d, got %d", MinSize, MaxSize, o.Size)
	}
	return o.Size, nil
}

func encode(content string, options Options) (*goqrcode.QRCode, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	code, err := goqrcode.New(content, options.Level.recoveryLevel())
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	code.DisableBorder = options.DisableBorder
	return code, nil
}

// PNG renders content as a square PNG image.
func PNG(content string, options Options) ([]byte, error) {
	size, err := options.size()
	if err != nil {
		return nil, err
	}
	code, err := encode(content, options)
	if err != nil {
		return nil, err
	}
	image, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return image, nil
}

// DataURL renders content as a base64 PNG data URL.
func DataURL(content string, options Options) (string, error) {
	image, err := PNG(content, options)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(image), nil
}

// Terminal renders content with half-block characters, two modules per
// character row.
func Terminal(content string, options Options) (string, error) {
	code, err := encode(content, options)
	if err != nil {
		return "", err
	}
	return code.ToSmallString(false), nil
}

// Bitmap returns the module grid, true for dark modules.
func Bitmap(content string, options Options) ([][]bool, error) {
	code, err := encode(content, options)
	if err != nil {
		return nil, err
	}
	return code.Bitmap(), nil
}
