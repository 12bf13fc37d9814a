package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alchemorsel/pipeline/internal/ports/outbound"
)

// csvHeader is the shared audit format for batch inputs and the feed sink.
var csvHeader = []string{"date", "num_comments", "title", "user", "comment", "n_char"}

// ReadCSV loads feed events from a batch input file. Rows with the wrong
// column count or unparseable numbers are returned as events with zeroed
// counters rather than dropped; the parse and validation stages decide.
func ReadCSV(path string) ([]outbound.FeedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch input: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var events []outbound.FeedEvent
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read batch input: %w", err)
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == csvHeader[0] {
				continue
			}
		}
		if len(record) < 6 {
			continue
		}
		numComments, _ := strconv.Atoi(record[1])
		charCount, _ := strconv.Atoi(record[5])
		events = append(events, outbound.FeedEvent{
			Date:        record[0],
			NumComments: numComments,
			Title:       record[2],
			Author:      record[3],
			Text:        record[4],
			CharCount:   charCount,
		})
	}
	return events, nil
}

// AppendCSV appends feed events to the audit sink, writing the header when
// the file is new. An empty path disables the sink.
func AppendCSV(path string, events []outbound.FeedEvent) error {
	if path == "" || len(events) == 0 {
		return nil
	}

	info, statErr := os.Stat(path)
	needHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open csv sink: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for _, event := range events {
		record := []string{
			event.Date,
			strconv.Itoa(event.NumComments),
			event.Title,
			event.Author,
			event.Text,
			strconv.Itoa(event.CharCount),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
