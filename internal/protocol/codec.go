package protocol

import (
	"encoding/binary"
	"errors"
)

var ErrShortDatagram = errors.New("datagram shorter than header")

// EncodeUint64 renders a size header or an ACK.
func EncodeUint64(v uint64) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint64 reads an 8-byte big-endian value. Datagrams of any other
// length are rejected so that a stray chunk is never taken for a header.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != HeaderSize {
		return 0, ErrShortDatagram
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeChunk prefixes payload with its sequence number.
func EncodeChunk(seq uint64, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint64(buf, seq)
	copy(buf[HeaderSize:], payload)
	return buf
}

// DecodeChunk splits a semi-reliable datagram. The payload aliases b.
func DecodeChunk(b []byte) (uint64, []byte, error) {
	if len(b) < HeaderSize {
		return 0, nil, ErrShortDatagram
	}
	return binary.BigEndian.Uint64(b[:HeaderSize]), b[HeaderSize:], nil
}
