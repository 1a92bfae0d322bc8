// Package gatepass builds the scannable artifact for a granted leave
// request: a deterministic text payload, its QR rendering, and a printable
// PDF pass.
package gatepass

import (
	"fmt"
	"strconv"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"leavegate/internal/domain/leave"
)

const (
	dateLayout = "2006-01-02"

	// pngSize is the rendered QR edge in pixels. Visual parameters are not
	// a compatibility requirement; the payload round-trip is.
	pngSize = 256
)

// Payload renders the canonical gate-pass text for a request approved at
// now. The timestamp carries a fractional part so two approvals of the same
// data at different instants produce different payloads.
func Payload(req leave.Request, now time.Time) string {
	ts := strconv.FormatFloat(float64(now.UnixNano())/1e9, 'f', 6, 64)
	return fmt.Sprintf("LEAVE_GRANTED_ID:%s NAME:%s FROM:%s TO:%s TS:%s",
		req.StudentID,
		req.StudentName,
		req.StartDate.Format(dateLayout),
		req.EndDate.Format(dateLayout),
		ts,
	)
}

// Filename is the suggested download name for the pass image.
func Filename(req leave.Request) string {
	return fmt.Sprintf("gatepass_%s_%s.png", req.StudentID, req.StartDate.Format(dateLayout))
}

// RenderPNG encodes a payload as a square QR PNG at the highest error
// correction level (~30% recovery), black on white with the standard quiet
// zone.
func RenderPNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Highest, pngSize)
	if err != nil {
		return nil, fmt.Errorf("render gate pass: %w", err)
	}
	return png, nil
}

// Generator issues complete passes; it satisfies leave.PassIssuer.
type Generator struct{}

func NewGenerator() Generator { return Generator{} }

func (Generator) Issue(req leave.Request, now time.Time) (leave.GatePass, error) {
	payload := Payload(req, now)
	png, err := RenderPNG(payload)
	if err != nil {
		return leave.GatePass{}, err
	}
	return leave.GatePass{
		RequestID: req.ID,
		Payload:   payload,
		PNG:       png,
		Filename:  Filename(req),
	}, nil
}
