package engine

import (
	"testing"
	"time"
)

func TestSplitRecords(t *testing.T) {
	text := "2026-08-30 12:00:00.000 +02:00|app|Info|first line\n" +
		"continuation of first\n" +
		"2026-08-30 12:00:01.500 +02:00|app|Info|second line\n"

	records := SplitRecords(text)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.FixedZone("", 2*3600))
	if !records[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", records[0].Timestamp, want)
	}
	if records[0].Body != "app|Info|first line\ncontinuation of first" {
		t.Errorf("body = %q", records[0].Body)
	}
	if records[1].Body != "app|Info|second line" {
		t.Errorf("second body = %q", records[1].Body)
	}
}

func TestSplitRecordsExtractsPayload(t *testing.T) {
	text := "2026-08-30 12:00:00.000 +00:00|notifications|Info|ChatMessageReceived\n" +
		"{\n" +
		"  \"message\": {\n" +
		"    \"type\": 10\n" +
		"  }\n" +
		"}\n"

	records := SplitRecords(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Payload == nil {
		t.Fatal("payload not extracted")
	}
	if got := string(records[0].Payload); got[0] != '{' || got[len(got)-1] != '}' {
		t.Errorf("payload = %q, want a JSON object", got)
	}
}

func TestSplitRecordsIgnoresPartialLeadingText(t *testing.T) {
	// Chunk boundaries align with file reads, not record boundaries; leading
	// text without a stamp is dropped.
	text := "tail of previous record\n2026-08-30 12:00:00.000 +00:00|app|Info|whole record\n"
	records := SplitRecords(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Body != "app|Info|whole record" {
		t.Errorf("body = %q", records[0].Body)
	}
}

func TestSplitRecordsEmpty(t *testing.T) {
	if got := SplitRecords(""); got != nil {
		t.Errorf("SplitRecords(\"\") = %v, want nil", got)
	}
	if got := SplitRecords("no stamps here\n"); got != nil {
		t.Errorf("unstamped text = %v, want nil", got)
	}
}

func TestSplitRecordsInvalidPayload(t *testing.T) {
	text := "2026-08-30 12:00:00.000 +00:00|app|Info|marker\n" +
		"{\n" +
		"  not json at all\n" +
		"}\n"
	records := SplitRecords(text)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Payload != nil {
		t.Errorf("payload = %q, want nil for invalid JSON", records[0].Payload)
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1.5", 1.5, false},
		{"1,5", 1.5, false},
		{"30,2", 30.2, false},
		{"0.0", 0, false},
		{" 4,5 ", 4.5, false},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSeconds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSeconds(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
