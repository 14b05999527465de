package funcs

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/eval"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/trace"
	"github.com/go-fhirpath/fhirpath/pkg/fhirpath/types"
)

// TraceLogger receives structured log entries emitted by trace() calls.
// Swap in a custom implementation via SetTraceLogger to route trace output
// somewhere other than stderr, or to NullTraceLogger{} to silence it.
type TraceLogger interface {
	Log(entry TraceEntry)
}

// TraceEntry is one trace() invocation: the focus collection it was called
// on, the name it was tagged with, and - when a projection argument was
// given - the projected collection alongside it.
type TraceEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Name       string      `json:"name"`
	Input      interface{} `json:"input"`
	Projection interface{} `json:"projection,omitempty"`
	Count      int         `json:"count"`
}

// DefaultTraceLogger writes trace entries to an io.Writer, either as JSON
// lines or as a human-readable "[trace] name: { ... }" rendering.
type DefaultTraceLogger struct {
	mu     sync.Mutex
	writer io.Writer
	json   bool
}

// NewDefaultTraceLogger builds a logger writing to writer; jsonFormat
// selects JSON-lines output over the human-readable rendering.
func NewDefaultTraceLogger(writer io.Writer, jsonFormat bool) *DefaultTraceLogger {
	return &DefaultTraceLogger{writer: writer, json: jsonFormat}
}

// Log implements TraceLogger.
func (l *DefaultTraceLogger) Log(entry TraceEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.json {
		data, _ := json.Marshal(entry)
		l.writer.Write(data)
		l.writer.Write([]byte("\n"))
		return
	}

	prefix := "[trace] "
	if entry.Name != "" {
		prefix += entry.Name + ": "
	}
	io.WriteString(l.writer, prefix+formatCollection(entry.Input)+"\n")
	if entry.Projection != nil {
		io.WriteString(l.writer, "[trace] "+entry.Name+" projection: "+formatCollection(entry.Projection)+"\n")
	}
}

// NullTraceLogger discards every entry - the logger to install in
// production when trace() calls should have no observable side effect.
type NullTraceLogger struct{}

// Log implements TraceLogger by doing nothing.
func (NullTraceLogger) Log(TraceEntry) {}

var (
	traceLogger   TraceLogger = NewDefaultTraceLogger(os.Stderr, false)
	traceLoggerMu sync.RWMutex
)

// SetTraceLogger replaces the global trace logger.
func SetTraceLogger(logger TraceLogger) {
	traceLoggerMu.Lock()
	defer traceLoggerMu.Unlock()
	traceLogger = logger
}

// GetTraceLogger returns the current global trace logger.
func GetTraceLogger() TraceLogger {
	traceLoggerMu.RLock()
	defer traceLoggerMu.RUnlock()
	return traceLogger
}

// formatCollection renders a trace payload for the human-readable logger:
// FHIRPath-style `{ a, b, c }` for a Collection, JSON for anything else.
func formatCollection(input interface{}) string {
	col, ok := input.(types.Collection)
	if !ok {
		data, _ := json.Marshal(input)
		return string(data)
	}
	if col.Empty() {
		return "{ }"
	}
	parts := make([]string, len(col))
	for i, item := range col {
		parts[i] = item.String()
	}
	out := "{ "
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out + " }"
}

func init() {
	Register(FuncDef{Name: "trace", MinArgs: 1, MaxArgs: 2, Fn: fnTrace})
}

// fnTrace logs the focus collection (and, when given, a second projection
// argument) through the configured TraceLogger and the context's trace
// Provider, then returns the focus unchanged so trace() can sit
// transparently in the middle of a pipeline.
func fnTrace(ctx *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("trace", 1, 0)
	}

	name, _ := toStringArg(args[0])
	entry := TraceEntry{
		Timestamp: time.Now(),
		Name:      name,
		Input:     collectionToInterface(input),
		Count:     len(input),
	}
	if len(args) > 1 {
		if projection, ok := args[1].(types.Collection); ok {
			entry.Projection = collectionToInterface(projection)
		}
	}

	GetTraceLogger().Log(entry)
	if tracer := ctx.Tracer(); tracer != nil {
		record := trace.Entry{Timestamp: entry.Timestamp, Name: name}
		for _, item := range input {
			record.Input = append(record.Input, item.String())
		}
		if len(args) > 1 {
			if projection, ok := args[1].(types.Collection); ok {
				for _, item := range projection {
					record.Projection = append(record.Projection, item.String())
				}
			}
		}
		tracer.Trace(record)
	}
	return input, nil
}

// collectionToInterface renders a Collection as a plain []interface{} of
// string forms, suitable for json.Marshal inside a TraceEntry.
func collectionToInterface(col types.Collection) interface{} {
	if col.Empty() {
		return []interface{}{}
	}
	out := make([]interface{}, len(col))
	for i, item := range col {
		out[i] = item.String()
	}
	return out
}
