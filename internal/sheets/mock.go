package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/zenith/internal/export"
)

// TableWriter writes export tables somewhere and returns its identifier.
type TableWriter interface {
	Write(ctx context.Context, tables []export.Table) (string, error)
}

var (
	_ TableWriter = (*Writer)(nil)
	_ TableWriter = (*MockWriter)(nil)
)

// MockWriter records writes for tests.
type MockWriter struct {
	WriteFunc  func(ctx context.Context, tables []export.Table) (string, error)
	LastTables []export.Table
	WriteCalls int
	mu         sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements TableWriter.
func (m *MockWriter) Write(ctx context.Context, tables []export.Table) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCalls++
	m.LastTables = tables
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, tables)
	}
	return "mock-spreadsheet", nil
}
