package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrOCRUnavailable is returned when the tesseract binary cannot be found.
var ErrOCRUnavailable = errors.New("tesseract not available (install tesseract-ocr)")

// Tesseract runs the tesseract CLI on a single image.
type Tesseract struct {
	Binary string // defaults to "tesseract"
	Lang   string // defaults to "eng"
	// PSM is the page segmentation mode. 4 assumes a single column of text
	// of variable sizes, which suits statements.
	PSM int
}

func (t Tesseract) binary() string {
	if t.Binary == "" {
		return "tesseract"
	}
	return t.Binary
}

// Available reports whether the tesseract binary is on PATH.
func (t Tesseract) Available() bool {
	_, err := exec.LookPath(t.binary())
	return err == nil
}

// Recognize converts img to RGBA, writes it as a temporary PNG and returns
// tesseract's text output.
func (t Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	bin, err := exec.LookPath(t.binary())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOCRUnavailable, err)
	}

	tmp, err := os.CreateTemp("", "ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := png.Encode(tmp, ToRGBA(img)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encoding OCR input: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing OCR input: %w", err)
	}

	lang := t.Lang
	if lang == "" {
		lang = "eng"
	}
	psm := t.PSM
	if psm == 0 {
		psm = 4
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, tmp.Name(), "stdout", "-l", lang, "--psm", strconv.Itoa(psm))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (output: %s)", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
