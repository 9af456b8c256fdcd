package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"lobmm/internal/model"
)

// FillLogEntry is one line of the append-only fill log (the fill output
// schema, `{ ts, taker_id, maker_id, price, size, taker_origin,
// maker_origin }`).
type FillLogEntry struct {
	Ts          int64  `json:"ts"`
	TakerID     string `json:"taker_id"`
	MakerID     string `json:"maker_id"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	TakerOrigin string `json:"taker_origin"`
	MakerOrigin string `json:"maker_origin"`
}

// FileFillLog appends fills to a JSON-Lines file, one object per line.
// This is the idiomatic Go stand-in for a columnar append-only file,
// following the same append-only JSONL trace idiom used elsewhere in this
// codebase; the exact on-disk format is a collaborator concern, not a
// normative one.
type FileFillLog struct {
	f *os.File
}

// OpenFileFillLog opens (creating if necessary) a fill log at path,
// appending to any existing content.
func OpenFileFillLog(path string) (*FileFillLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("replay: open fill log: %w", err)
	}
	return &FileFillLog{f: f}, nil
}

// Append writes one fill as a JSON line.
func (l *FileFillLog) Append(f model.Fill) error {
	entry := FillLogEntry{
		Ts:          f.Timestamp.UnixNano(),
		TakerID:     f.TakerOrderID,
		MakerID:     f.MakerOrderID,
		Price:       f.Price.String(),
		Size:        f.Size.String(),
		TakerOrigin: f.TakerOrigin.String(),
		MakerOrigin: f.MakerOrigin.String(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("replay: marshal fill: %w", err)
	}
	if _, err := fmt.Fprintf(l.f, "%s\n", data); err != nil {
		return fmt.Errorf("replay: append fill: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *FileFillLog) Close() error { return l.f.Close() }
