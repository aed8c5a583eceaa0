// Package ganttrenderer draws a proposed schedule's per-phase timeline as a
// PNG and stores it in object storage so the operator channel can attach it
// to a proposal message (spec §6).
package ganttrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
	"github.com/bitfantasy/novaboard-scheduler/internal/phaseplanner"
)

const (
	rowHeight   = 48
	labelWidth  = 160
	chartWidth  = 960
	topMargin   = 40
	bottomMargin = 24
	pxPerHour   = 18.0
)

var phaseColors = map[domain.PhaseType]color.NRGBA{
	domain.PhaseSMT:     {R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff},
	domain.PhaseReflow:  {R: 0x81, G: 0xc7, B: 0x84, A: 0xff},
	domain.PhaseTHT:     {R: 0xff, G: 0xb7, B: 0x4d, A: 0xff},
	domain.PhaseAOI:     {R: 0xba, G: 0x68, B: 0xc8, A: 0xff},
	domain.PhaseTest:    {R: 0xf0, G: 0x62, B: 0x92, A: 0xff},
	domain.PhaseCoating: {R: 0x4d, G: 0xb6, B: 0xac, A: 0xff},
	domain.PhasePack:    {R: 0xae, G: 0xd5, B: 0x81, A: 0xff},
}

var defaultPhaseColor = color.NRGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}

// Renderer draws PlannedOrder timelines and uploads the result to MinIO.
type Renderer struct {
	minioClient *minio.Client
	bucket      string
}

func New(minioClient *minio.Client, bucket string) *Renderer {
	return &Renderer{minioClient: minioClient, bucket: bucket}
}

// Render draws one horizontal row per order, one coloured segment per
// phase, and returns the encoded PNG bytes.
func Render(orders []phaseplanner.PlannedOrder) ([]byte, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("cannot render a gantt chart with no orders")
	}

	windowStart := orders[0].Start
	windowEnd := orders[0].End
	for _, o := range orders {
		if o.Start.Before(windowStart) {
			windowStart = o.Start
		}
		if o.End.After(windowEnd) {
			windowEnd = o.End
		}
	}

	height := topMargin + bottomMargin + rowHeight*len(orders)
	dc := gg.NewContext(chartWidth, height)
	dc.SetColor(color.White)
	dc.Clear()

	for i, o := range orders {
		y := topMargin + i*rowHeight
		dc.SetColor(color.Black)
		dc.DrawString(o.SalesOrderID, 4, float64(y+rowHeight/2))

		for _, ph := range o.Phases {
			x0 := labelWidth + hoursSince(windowStart, ph.Start)*pxPerHour
			x1 := labelWidth + hoursSince(windowStart, ph.End)*pxPerHour
			if x1 <= x0 {
				x1 = x0 + 1
			}
			col, ok := phaseColors[ph.PhaseType]
			if !ok {
				col = defaultPhaseColor
			}
			dc.SetColor(col)
			dc.DrawRectangle(x0, float64(y+6), x1-x0, float64(rowHeight-12))
			dc.Fill()
		}

		if o.Late {
			dc.SetColor(color.RGBA{R: 0xd3, G: 0x2f, B: 0x2f, A: 0xff})
			dc.DrawString("LATE", float64(chartWidth-44), float64(y+rowHeight/2))
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode gantt png: %w", err)
	}
	return buf.Bytes(), nil
}

func hoursSince(base, t time.Time) float64 {
	return t.Sub(base).Hours()
}

// Upload stores the rendered PNG under a proposal-scoped key with a short
// random suffix and returns that object key for later retrieval.
func (r *Renderer) Upload(ctx context.Context, proposalID string, png []byte) (string, error) {
	objectName := fmt.Sprintf("gantt/%s/%s.png", proposalID, uuid.New().String()[:8])

	_, err := r.minioClient.PutObject(ctx, r.bucket, objectName, bytes.NewReader(png), int64(len(png)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("upload gantt chart: %w", err)
	}
	return objectName, nil
}

// Download retrieves a previously rendered chart for re-attaching to a
// follow-up message.
func (r *Renderer) Download(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := r.minioClient.GetObject(ctx, r.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download gantt chart: %w", err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, fmt.Errorf("read gantt chart: %w", err)
	}
	return buf.Bytes(), nil
}
