package printer

import (
	"context"
	"fmt"
	"time"

	"github.com/thelabel/label-engine/internal/raster"
	"github.com/thelabel/label-engine/internal/tspl"
	"github.com/thelabel/label-engine/pkg/labelformat"
)

// DefaultInterLabelDelay paces consecutive sends. The printer needs time
// to feed and cut between labels; sending too fast silently corrupts the
// following label.
const DefaultInterLabelDelay = time.Second

// Job encodes one label into its command stream
type Job interface {
	Encode() ([]byte, error)
}

// ShippingJob prints one shipping label with the built-in template
type ShippingJob struct {
	Config labelformat.LabelConfig
	Label  labelformat.ShippingLabel
	Logo   *raster.Processed
}

// Encode implements Job
func (j ShippingJob) Encode() ([]byte, error) {
	return tspl.EncodeShipping(j.Config, j.Label, j.Logo)
}

// DesignJob prints one custom label design
type DesignJob struct {
	Design *labelformat.CustomLabelDesign
	Image  *raster.Processed
}

// Encode implements Job
func (j DesignJob) Encode() ([]byte, error) {
	return tspl.EncodeDesign(j.Design, j.Image)
}

// ImageJob prints one processed image on otherwise blank stock
type ImageJob struct {
	Config labelformat.LabelConfig
	Image  *raster.Processed
}

// Encode implements Job
func (j ImageJob) Encode() ([]byte, error) {
	return tspl.EncodeImage(j.Config, j.Image)
}

// Batch sequences label jobs against the connection manager
type Batch struct {
	manager *Manager
	Delay   time.Duration
}

// NewBatch creates a batch printer with the default inter-label delay
func NewBatch(manager *Manager) *Batch {
	return &Batch{
		manager: manager,
		Delay:   DefaultInterLabelDelay,
	}
}

// Print sends the jobs in order. It requires a connected manager up
// front and never reconnects on its own. Each label's stream gets a gap
// label appended when the stock has inter-label spacing, so the feed
// stays aligned. On the first failure the batch stops: skipping a label
// and continuing would desynchronize the physical stock. The returned
// count is the number of labels fully sent.
func (b *Batch) Print(ctx context.Context, cfg labelformat.LabelConfig, jobs []Job) (int, error) {
	if !b.manager.Status().Connected {
		return 0, ErrNotConnected
	}

	for i, job := range jobs {
		data, err := job.Encode()
		if err != nil {
			return i, &BatchError{Completed: i, Err: err}
		}

		if cfg.SpacingMm > 0 {
			gap, err := tspl.EncodeGap(cfg)
			if err != nil {
				return i, &BatchError{Completed: i, Err: err}
			}
			data = append(data, gap...)
		}

		if err := b.manager.Send(ctx, data); err != nil {
			return i, &BatchError{Completed: i, Err: err}
		}

		if i < len(jobs)-1 {
			select {
			case <-time.After(b.Delay):
			case <-ctx.Done():
				return i + 1, &BatchError{Completed: i + 1, Err: ctx.Err()}
			}
		}
	}

	return len(jobs), nil
}

// PrintShipping is a convenience wrapper printing shipping labels with
// the built-in template
func (b *Batch) PrintShipping(ctx context.Context, cfg labelformat.LabelConfig, labels []labelformat.ShippingLabel, logo *raster.Processed) (int, error) {
	jobs := make([]Job, len(labels))
	for i, label := range labels {
		if !label.ReadyToPrint() {
			return 0, &BatchError{
				Completed: 0,
				Err:       fmt.Errorf("%w: label %s is not ready to print", tspl.ErrEncode, label.ID),
			}
		}
		jobs[i] = ShippingJob{Config: cfg, Label: label, Logo: logo}
	}

	return b.Print(ctx, cfg, jobs)
}
