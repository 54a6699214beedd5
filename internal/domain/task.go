package domain

// WatermarkTask is the broker payload asking the worker to generate a
// watermark for one freshly uploaded original. The worker re-resolves the
// record by its original handle, so a stale index can never be applied.
type WatermarkTask struct {
	ID           string      `json:"id"`
	ProductID    int64       `json:"product_id"`
	OriginalPath ImageHandle `json:"original_path"`
}
