package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	recordFormatVersionCurrent = CurrentSchemaVersion
	recordFormatVersionV1      = 1
)

// ErrRecordCorrupt is an exported constant or variable used by the session core.
var ErrRecordCorrupt = errors.New("session record corrupt")

func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if len(r.UserID) > 255 {
		return nil, errors.New("userID too long")
	}
	buf.WriteByte(byte(len(r.UserID)))
	buf.WriteString(r.UserID)

	if len(r.DisplayName) > 255 {
		return nil, errors.New("displayName too long")
	}
	buf.WriteByte(byte(len(r.DisplayName)))
	buf.WriteString(r.DisplayName)

	if len(r.Email) > 255 {
		return nil, errors.New("email too long")
	}
	buf.WriteByte(byte(len(r.Email)))
	buf.WriteString(r.Email)

	if len(r.Role) > 255 {
		return nil, errors.New("role too long")
	}
	buf.WriteByte(byte(len(r.Role)))
	buf.WriteString(r.Role)

	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, ErrRecordCorrupt
	}
	if version != recordFormatVersionCurrent && version != recordFormatVersionV1 {
		return nil, ErrRecordCorrupt
	}

	r := &Record{SchemaVersion: version}

	r.UserID, err = readString(reader)
	if err != nil {
		return nil, ErrRecordCorrupt
	}

	if version >= recordFormatVersionCurrent {
		r.DisplayName, err = readString(reader)
		if err != nil {
			return nil, ErrRecordCorrupt
		}
	}

	r.Email, err = readString(reader)
	if err != nil {
		return nil, ErrRecordCorrupt
	}

	r.Role, err = readString(reader)
	if err != nil {
		return nil, ErrRecordCorrupt
	}

	if err := binary.Read(reader, binary.BigEndian, &r.IssuedAt); err != nil {
		return nil, ErrRecordCorrupt
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, ErrRecordCorrupt
	}
	if reader.Len() != 0 {
		return nil, ErrRecordCorrupt
	}

	return r, nil
}

func readString(reader *bytes.Reader) (string, error) {
	length, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
