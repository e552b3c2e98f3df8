package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleRecord() *Record {
	now := time.Now()
	return &Record{
		SchemaVersion: CurrentSchemaVersion,
		UserID:        "user-1",
		DisplayName:   "Alice",
		Email:         "alice@example.com",
		Role:          "user",
		IssuedAt:      now.Unix(),
		ExpiresAt:     now.Add(time.Hour).Unix(),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	rec := sampleRecord()

	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if *got != *rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestEncode_RejectsOversizedFields(t *testing.T) {
	rec := sampleRecord()
	rec.Email = strings.Repeat("a", 256)

	if _, err := Encode(rec); err == nil {
		t.Fatal("oversized field must be rejected")
	}
}

func TestDecode_V1RecordWithoutDisplayName(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(1)
	buf.WriteByte(byte(len("user-1")))
	buf.WriteString("user-1")
	buf.WriteByte(byte(len("alice@example.com")))
	buf.WriteString("alice@example.com")
	buf.WriteByte(byte(len("admin")))
	buf.WriteString("admin")
	if err := binary.Write(&buf, binary.BigEndian, int64(100)); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(200)); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	rec, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.SchemaVersion != 1 {
		t.Fatalf("decoded version should be preserved, got %d", rec.SchemaVersion)
	}
	if rec.UserID != "user-1" || rec.Email != "alice@example.com" || rec.Role != "admin" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.DisplayName != "" {
		t.Fatalf("v1 records carry no display name, got %q", rec.DisplayName)
	}
	if rec.IssuedAt != 100 || rec.ExpiresAt != 200 {
		t.Fatalf("unexpected times: %+v", rec)
	}
}

func TestDecode_RejectsCorruptInput(t *testing.T) {
	rec := sampleRecord()
	data, err := Encode(rec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	cases := map[string][]byte{
		"empty":            {},
		"unknown version":  {99, 0},
		"truncated":        data[:len(data)/2],
		"trailing garbage": append(append([]byte{}, data...), 0xFF),
	}

	for name, input := range cases {
		if _, err := Decode(input); !errors.Is(err, ErrRecordCorrupt) {
			t.Fatalf("%s: expected ErrRecordCorrupt, got %v", name, err)
		}
	}
}

func FuzzDecode(f *testing.F) {
	seed, err := Encode(sampleRecord())
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed)
	f.Add([]byte{})
	f.Add([]byte{1})
	f.Add([]byte{2, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := Decode(data)
		if err != nil {
			return
		}
		// Anything that decodes must re-encode and decode to the same record.
		rec.SchemaVersion = CurrentSchemaVersion
		encoded, err := Encode(rec)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		again, err := Decode(encoded)
		if err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
		if *again != *rec {
			t.Fatalf("round trip mismatch: %+v vs %+v", again, rec)
		}
	})
}
