package export

import "fmt"

// Format names an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Dataset defines tabular export content. Rows are keyed by header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer turns a dataset into a file body.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// ParseFormat validates a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Registry resolves renderers by format.
type Registry map[Format]Renderer

// NewRegistry wires every built-in renderer.
func NewRegistry() Registry {
	return Registry{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}

// Render encodes data with the renderer registered for format.
func (r Registry) Render(format Format, data Dataset) ([]byte, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for %s", format)
	}
	return renderer.Render(data)
}

func row(data Dataset, values map[string]string) []string {
	record := make([]string, len(data.Headers))
	for i, header := range data.Headers {
		record[i] = values[header]
	}
	return record
}
