package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// StationInput is one raw gauge file waiting to be analyzed.
type StationInput struct {
	Station string
	Source  string // file path or upload name, for logs
	Data    []byte
}

// StationReport is an Analysis tagged for delivery to report sinks.
type StationReport struct {
	ID          string    `json:"id"`
	Station     string    `json:"station"`
	Source      string    `json:"source,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
	Analysis
}

// StationFromFilename derives a station identifier from a gauge file name:
// the base name without its .txt extension, upper-cased.
func StationFromFilename(name string) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".txt") {
		base = base[:len(base)-len(ext)]
	}
	return strings.ToUpper(base)
}

// NewStationReport wraps an analysis with a deterministic ID and the processing time.
func NewStationReport(in StationInput, a Analysis) StationReport {
	return StationReport{
		ID:          generateID(in.Station, in.Data, a.Options),
		Station:     in.Station,
		Source:      in.Source,
		ProcessedAt: clock.Now().UTC(),
		Analysis:    a,
	}
}

// generateID hashes the station, the raw bytes and the options, so reprocessing the
// same file with the same settings produces the same ID.
func generateID(station string, data []byte, opts Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|", station, opts.Columns, opts.Strategy, opts.LowFlowWindow)
	h.Write(data)
	short := hex.EncodeToString(h.Sum(nil)[:8])
	if station == "" {
		return short
	}
	return strings.ToLower(station) + "-" + short
}

// ContentKey identifies an analysis by input bytes and options, ignoring the station.
func ContentKey(data []byte, opts Options) string {
	return generateID("", data, opts.withDefaults())
}

// SerializeReport marshals a report for message sinks.
func SerializeReport(r StationReport) (OutputMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize station report: %w", err)
	}
	return OutputMessage{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"station":      r.Station,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// OutputMessage is the serialized form destined for a message sink.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
