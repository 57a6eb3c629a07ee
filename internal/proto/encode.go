package proto

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// EncodeRequest renders req as one fixed-size wire record.
func EncodeRequest(req *Request) []byte {
	buf := make([]byte, RequestSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(req.Type))
	putString(buf[4:4+VIPLen], req.VIP)
	return buf
}

// DecodeRequest parses one wire record. Anything other than an exact-size
// record is an error; the caller decides whether that ends the session.
func DecodeRequest(data []byte) (*Request, error) {
	if len(data) != RequestSize {
		return nil, errors.Errorf("request must be %d bytes, got %d", RequestSize, len(data))
	}
	return &Request{
		Type: int32(binary.BigEndian.Uint32(data[0:4])),
		VIP:  getString(data[4 : 4+VIPLen]),
	}, nil
}

// EncodeResponse renders resp as one fixed-size wire record. Field values
// longer than their buffer are truncated.
func EncodeResponse(resp *Response) []byte {
	buf := make([]byte, ResponseSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(resp.Type))
	off := 4
	putString(buf[off:off+VIPLen], resp.VIP)
	off += VIPLen
	putString(buf[off:off+IPLen], resp.IP)
	off += IPLen
	putString(buf[off:off+IDLen], resp.ID)
	off += IDLen
	putString(buf[off:off+NameLen], resp.Name)
	return buf
}

// DecodeResponse parses one wire record, requiring the exact record size.
func DecodeResponse(data []byte) (*Response, error) {
	if len(data) != ResponseSize {
		return nil, errors.Errorf("response must be %d bytes, got %d", ResponseSize, len(data))
	}
	resp := &Response{Type: int32(binary.BigEndian.Uint32(data[0:4]))}
	off := 4
	resp.VIP = getString(data[off : off+VIPLen])
	off += VIPLen
	resp.IP = getString(data[off : off+IPLen])
	off += IPLen
	resp.ID = getString(data[off : off+IDLen])
	off += IDLen
	resp.Name = getString(data[off : off+NameLen])
	return resp, nil
}

// putString copies s into dst, truncating so that the final byte of dst is
// always a NUL. dst is assumed to be zeroed.
func putString(dst []byte, s string) {
	n := len(s)
	if n > len(dst)-1 {
		n = len(dst) - 1
	}
	copy(dst, s[:n])
}

// getString returns the bytes of b up to the first NUL.
func getString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
