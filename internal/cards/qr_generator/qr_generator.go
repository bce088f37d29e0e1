package qr

import (
	"errors"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 280
)

var ErrEmptyContent = errors.New("qr content is empty")

// QRGenerator renders the codes staff scan at the counter.
type QRGenerator struct {
	size  int
	level qrcode.RecoveryLevel
}

func NewQRGenerator(size int) *QRGenerator {
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{size: size, level: qrcode.High}
}

// GenerateProgramCode returns a PNG encoding the program id.
func (q *QRGenerator) GenerateProgramCode(programID string) ([]byte, error) {
	if programID == "" {
		return nil, ErrEmptyContent
	}
	return qrcode.Encode(programID, q.level, q.size)
}

// Size is the rendered edge length in pixels.
func (q *QRGenerator) Size() int {
	return q.size
}
