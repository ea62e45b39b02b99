// Package pipeline validates retrieved collections and writes them out.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aluiziolira/go-tse-id/models"
	"github.com/aluiziolira/go-tse-id/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after Close.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records models.Collection) error
	Close() error
	Validate() error
}

// Pipeline drops inconsistent records and hands the rest to a writer.
type Pipeline struct {
	writer  OutputWriter
	metrics metrics

	mu     sync.Mutex
	closed bool
}

// NewPipeline builds a pipeline that writes to writer.
func NewPipeline(writer OutputWriter) *Pipeline {
	return &Pipeline{
		writer:  writer,
		metrics: newMetrics(),
	}
}

// Process validates records and writes the valid ones. It returns what was
// written.
func (p *Pipeline) Process(records models.Collection) (models.Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPipelineClosed
	}

	valid := make(models.Collection, len(records))
	for key, record := range records {
		if err := parser.ValidateRecord(key, &record); err != nil {
			p.metrics.addValidation("invalid_record")
			slog.Warn("dropping invalid record", slog.String("key", key), slog.Any("error", err))
			continue
		}
		valid[key] = record
	}

	if err := p.writer.Write(valid); err != nil {
		return nil, fmt.Errorf("write records: %w", err)
	}
	p.metrics.addProcessed(len(valid))
	return valid, nil
}

// Close closes the writer and rejects further submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

type metrics struct {
	mu         *sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		mu:         &sync.Mutex{},
		validation: make(map[string]int),
	}
}

func (m *metrics) addProcessed(n int) {
	m.mu.Lock()
	m.processed += int64(n)
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_records": m.processed,
		"validation_errors": copyValidation,
	}
}
