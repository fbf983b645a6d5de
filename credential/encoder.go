package credential

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const recordFormatVersionCurrent = 1

const (
	flagHasPrevious = 1 << 0
	flagScrubbed    = 1 << 1
)

// Fixed-width tail of the record after the variable-length identity and
// device fields: status(1) flags(1) generation(4) currentHash(32)
// previousHash(32) previousDeadline(8) issuedAt(8) expiresAt(8)
// statusChangedAt(8). The Lua scripts in store.go depend on this layout;
// any change requires a new format version on both sides.
const recordFixedTailSize = 102

func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	if len(r.IdentityID) > 255 {
		return nil, errors.New("identityID too long")
	}
	buf.WriteByte(byte(len(r.IdentityID)))
	buf.WriteString(r.IdentityID)

	if len(r.DeviceID) > 255 {
		return nil, errors.New("deviceID too long")
	}
	buf.WriteByte(byte(len(r.DeviceID)))
	buf.WriteString(r.DeviceID)

	buf.WriteByte(byte(r.Status))

	var flags byte
	if r.HasPrevious {
		flags |= flagHasPrevious
	}
	if r.Scrubbed {
		flags |= flagScrubbed
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, r.Generation); err != nil {
		return nil, err
	}

	buf.Write(r.CurrentHash[:])
	buf.Write(r.PreviousHash[:])

	if err := binary.Write(&buf, binary.BigEndian, r.PreviousDeadline); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, r.StatusChangedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}

	idLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	identityID := make([]byte, idLen)
	if _, err := io.ReadFull(reader, identityID); err != nil {
		return nil, err
	}
	r.IdentityID = string(identityID)

	devLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	deviceID := make([]byte, devLen)
	if _, err := io.ReadFull(reader, deviceID); err != nil {
		return nil, err
	}
	r.DeviceID = string(deviceID)

	status, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.Status = Status(status)

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	r.HasPrevious = flags&flagHasPrevious != 0
	r.Scrubbed = flags&flagScrubbed != 0

	if err := binary.Read(reader, binary.BigEndian, &r.Generation); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(reader, r.CurrentHash[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, r.PreviousHash[:]); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &r.PreviousDeadline); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.IssuedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &r.StatusChangedAt); err != nil {
		return nil, err
	}

	return r, nil
}
