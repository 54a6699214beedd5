// Package mediastore holds the ordered per-product media record list and its
// serialization. The whole list is persisted as one opaque blob and rewritten
// wholesale on every save; record identity is the index within the list.
package mediastore

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"product-media-manager/internal/domain"
)

type List struct {
	records []domain.MediaRecord
}

// Load parses a serialized record list. Malformed or empty input yields an
// empty list, never an error: the editing surface must stay usable even when
// the stored blob is junk.
func Load(raw []byte) *List {
	if len(raw) == 0 {
		return &List{}
	}
	var records []domain.MediaRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return &List{}
	}
	return &List{records: records}
}

func New(records ...domain.MediaRecord) *List {
	return &List{records: records}
}

func (l *List) Len() int {
	return len(l.records)
}

// Records returns a copy of the ordered sequence.
func (l *List) Records() []domain.MediaRecord {
	out := make([]domain.MediaRecord, len(l.records))
	copy(out, l.records)
	return out
}

func (l *List) Get(index int) (domain.MediaRecord, bool) {
	if index < 0 || index >= len(l.records) {
		return domain.MediaRecord{}, false
	}
	return l.records[index], true
}

// Append pushes a record to the end and returns its index. An empty SKU
// defaults to the filename with its extension stripped.
func (l *List) Append(rec domain.MediaRecord) int {
	if rec.SKU == "" {
		rec.SKU = DefaultSKU(rec.Filename)
	}
	l.records = append(l.records, rec)
	return len(l.records) - 1
}

// RemoveAt deletes the record at index and returns the watermark handle that
// should be deleted as a side effect. The store never performs the deletion
// itself, and the original handle is never part of the cascade.
func (l *List) RemoveAt(index int) (domain.ImageHandle, error) {
	if index < 0 || index >= len(l.records) {
		return "", ErrIndexOutOfRange
	}
	wm := l.records[index].WatermarkRef
	l.records = append(l.records[:index], l.records[index+1:]...)
	return wm, nil
}

// Reorder replaces the sequence with the records at the given prior indices,
// in the given order. The order must reference existing records and may not
// repeat any; records omitted from it are silently dropped, mirroring a
// rebuild from the rendered row order.
func (l *List) Reorder(order []int) error {
	seen := make(map[int]bool, len(order))
	next := make([]domain.MediaRecord, 0, len(order))

	for _, idx := range order {
		if idx < 0 || idx >= len(l.records) {
			return ErrIndexOutOfRange
		}
		if seen[idx] {
			return ErrNotPermutation
		}
		seen[idx] = true
		next = append(next, l.records[idx])
	}

	l.records = next
	return nil
}

func (l *List) SetSKU(index int, sku string) error {
	if index < 0 || index >= len(l.records) {
		return ErrIndexOutOfRange
	}
	l.records[index].SKU = sku
	return nil
}

func (l *List) SetWatermark(index int, ref domain.ImageHandle) error {
	if index < 0 || index >= len(l.records) {
		return ErrIndexOutOfRange
	}
	l.records[index].WatermarkRef = ref
	return nil
}

// SetWatermarkByOriginal applies a finished render to the record whose
// original handle matches, regardless of where the record has moved since the
// render started. Returns false when no record carries that original anymore.
func (l *List) SetWatermarkByOriginal(original, watermark domain.ImageHandle) bool {
	for i := range l.records {
		if l.records[i].OriginalRef == original {
			l.records[i].WatermarkRef = watermark
			return true
		}
	}
	return false
}

// MissingWatermarks lists the indices without a watermark, in ascending order.
func (l *List) MissingWatermarks() []int {
	var missing []int
	for i, rec := range l.records {
		if !rec.HasWatermark() {
			missing = append(missing, i)
		}
	}
	return missing
}

// Watermarked returns only the records with a rendered watermark, keeping
// their relative order. This is the gallery's view of the list.
func (l *List) Watermarked() []domain.MediaRecord {
	var out []domain.MediaRecord
	for _, rec := range l.records {
		if rec.HasWatermark() {
			out = append(out, rec)
		}
	}
	return out
}

// Serialize re-encodes the full sequence as the persisted blob.
func (l *List) Serialize() ([]byte, error) {
	if l.records == nil {
		return json.Marshal([]domain.MediaRecord{})
	}
	return json.Marshal(l.records)
}

// DefaultSKU derives the initial SKU from a filename by stripping the
// extension.
func DefaultSKU(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
