package sheet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"crypto-live-sheet/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPath is the file name that identifies the live workbook.
const DefaultPath = "Crypto_Live_Data.xlsx"

// ErrDocumentUnavailable marks failures to open, create or save the workbook.
var ErrDocumentUnavailable = errors.New("spreadsheet document unavailable")

// Document is the live workbook. The handle is resolved once and kept until Close.
// It has a single writer; two processes on the same path interleave unpredictably.
type Document struct {
	path   string
	tracer trace.Tracer

	file      *excelize.File
	sheetName string
	boldStyle int
	extent    int
}

func NewDocument(tracer trace.Tracer, path string) *Document {
	if path == "" {
		path = DefaultPath
	}
	return &Document{path: path, tracer: tracer}
}

func (d *Document) Path() string {
	return d.path
}

// Acquire opens the workbook at Path, or creates and saves a new one.
// It is a no-op once the handle is held.
func (d *Document) Acquire(ctx context.Context) error {
	if d.file != nil {
		return nil
	}

	_, span := d.tracer.Start(ctx, "sheet.acquire")
	defer span.End()

	file, created, err := d.resolve()
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttributes(attribute.Bool("created", created))

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		_ = file.Close()
		return fmt.Errorf("%w: %s has no sheets", ErrDocumentUnavailable, d.path)
	}
	sheetName := sheets[0]

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: create style: %w", ErrDocumentUnavailable, err)
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("%w: read %s: %w", ErrDocumentUnavailable, d.path, err)
	}

	d.file = file
	d.sheetName = sheetName
	d.boldStyle = bold
	d.extent = len(rows)

	if created {
		log.Printf("Created workbook %s", d.path)
	} else {
		log.Printf("Opened workbook %s (%d rows in use)", d.path, d.extent)
	}
	return nil
}

func (d *Document) resolve() (*excelize.File, bool, error) {
	_, err := os.Stat(d.path)
	switch {
	case err == nil:
		file, err := excelize.OpenFile(d.path)
		if err != nil {
			return nil, false, fmt.Errorf("%w: open %s: %w", ErrDocumentUnavailable, d.path, err)
		}
		return file, false, nil
	case errors.Is(err, fs.ErrNotExist):
		file := excelize.NewFile()
		if err := file.SaveAs(d.path); err != nil {
			_ = file.Close()
			return nil, false, fmt.Errorf("%w: create %s: %w", ErrDocumentUnavailable, d.path, err)
		}
		return file, true, nil
	default:
		return nil, false, fmt.Errorf("%w: stat %s: %w", ErrDocumentUnavailable, d.path, err)
	}
}

// Publish overwrites the sheet with the snapshot and its analysis, then saves.
// Rows left over from a larger previous write are blanked.
func (d *Document) Publish(ctx context.Context, snap domain.Snapshot, result domain.AnalysisResult) error {
	ctx, span := d.tracer.Start(ctx, "sheet.publish")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", snap.Len()))

	if err := d.Acquire(ctx); err != nil {
		return err
	}

	lines := Layout(snap, result)
	last := max(LastRow(snap.Len()), d.extent)

	if err := d.file.SetCellStyle(d.sheetName, "A1", cellName(Columns, last), 0); err != nil {
		return fmt.Errorf("reset styles: %w", err)
	}

	byRow := make(map[int]Line, len(lines))
	for _, l := range lines {
		byRow[l.Row] = l
	}

	for row := 1; row <= last; row++ {
		cells := make([]any, Columns)
		line, ok := byRow[row]
		if ok {
			copy(cells, line.Cells)
		}
		if err := d.file.SetSheetRow(d.sheetName, cellName(1, row), &cells); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if ok && line.Bold {
			if err := d.file.SetCellStyle(d.sheetName, cellName(1, row), cellName(len(line.Cells), row), d.boldStyle); err != nil {
				return fmt.Errorf("style row %d: %w", row, err)
			}
		}
	}

	if err := d.file.Save(); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrDocumentUnavailable, d.path, err)
	}
	d.extent = LastRow(snap.Len())
	return nil
}

// Close releases the workbook handle. The file on disk is left as last saved.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
