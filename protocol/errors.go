package protocol

import "errors"

var (
	ErrShortPayload   = errors.New("payload shorter than minimum decodable size")
	ErrInvalidChannel = errors.New("invalid channel (valid range: 0-125)")
	ErrInvalidAddress = errors.New("invalid pipe address")
)
