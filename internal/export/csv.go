package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/zenith/internal/model"
)

// Filename returns the download name for a collection exported on day.
func Filename(name string, day time.Time) string {
	return fmt.Sprintf("zenith_%s_%s.csv", name, day.Format(model.DateLayout))
}

// quote wraps a field in double quotes, doubling embedded quotes.
func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// WriteCSV writes t with every data field quoted and rows joined by "\n".
// The header row is left bare. An empty table is ErrNoData.
func WriteCSV(w io.Writer, t Table) error {
	if len(t.Rows) == 0 {
		return fmt.Errorf("%w for %s", ErrNoData, t.Name)
	}

	var b strings.Builder
	b.WriteString(strings.Join(t.Header, ","))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		for i, field := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(field))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Name, err)
	}
	return nil
}
