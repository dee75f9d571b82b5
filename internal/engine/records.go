package engine

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampLayout matches the fixed-width prefix of every log line:
// "2026-08-30 12:34:56.789 +02:00".
const timestampLayout = "2006-01-02 15:04:05.000 -07:00"

const timestampWidth = len(timestampLayout)

var (
	recordStartRe = regexp.MustCompile(`(?m)^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} [+-]\d{2}:\d{2}\|`)
	payloadOpenRe  = regexp.MustCompile(`(?m)^\{\r?$`)
	payloadCloseRe = regexp.MustCompile(`(?m)^\}\r?$`)
)

// Record is one timestamped log message, possibly carrying a JSON payload.
type Record struct {
	Timestamp time.Time
	Body      string
	Payload   json.RawMessage // nil when the record has no embedded object
}

// SplitRecords cuts raw chunk text into records at date-stamped line starts.
// Text before the first boundary is discarded (a chunk is assumed to begin
// at a read boundary, which for live tailing always falls on a record start).
func SplitRecords(text string) []Record {
	bounds := recordStartRe.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return nil
	}

	records := make([]Record, 0, len(bounds))
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1][0]
		}
		raw := text[b[0]:end]
		if len(raw) < timestampWidth+1 {
			continue
		}
		ts, err := time.Parse(timestampLayout, raw[:timestampWidth])
		if err != nil {
			continue
		}
		body := strings.TrimRight(raw[timestampWidth+1:], "\r\n")
		records = append(records, Record{
			Timestamp: ts,
			Body:      body,
			Payload:   extractPayload(body),
		})
	}
	return records
}

// extractPayload returns the JSON object delimited by a bare "{" at line
// start through a bare "}" at line start, or nil when absent or invalid.
func extractPayload(body string) json.RawMessage {
	open := payloadOpenRe.FindStringIndex(body)
	if open == nil {
		return nil
	}
	closes := payloadCloseRe.FindAllStringIndex(body[open[0]:], -1)
	if len(closes) == 0 {
		return nil
	}
	last := closes[len(closes)-1]
	raw := body[open[0] : open[0]+last[0]+1]
	raw = strings.TrimRight(raw, "\r")
	if !json.Valid([]byte(raw)) {
		return nil
	}
	return json.RawMessage(raw)
}

// parseSeconds parses a duration field using culture-invariant rules: the
// source log writes the decimal separator as either "." or "," depending on
// the client locale.
func parseSeconds(s string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}
