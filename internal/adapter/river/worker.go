package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// ReceiptWorker processes receipt-generation jobs from the River queue.
// For now it logs the rendered summary; the PDF renderer and storage
// hand-off live in a collaborator service.
type ReceiptWorker struct {
	river.WorkerDefaults[ReceiptJobArgs]
}

// Work processes a single receipt job.
func (w *ReceiptWorker) Work(ctx context.Context, job *river.Job[ReceiptJobArgs]) error {
	slog.InfoContext(ctx, "generating receipt",
		"order_id", job.Args.OrderID,
		"tenant_id", job.Args.TenantID,
		"total_cents", job.Args.TotalCents,
		"line_count", len(job.Args.Lines),
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
