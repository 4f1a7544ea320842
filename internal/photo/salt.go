package photo

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
)

var ErrSalt = errors.New("photo: cannot embed salt")

const saltKeyword = "Comment"

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Salt embeds a hex-encoded nonce as a comment segment of an already encoded
// image: a COM marker in JPEG, a tEXt chunk in PNG and a comment extension in
// GIF. Decoders ignore all three, so pixels are untouched.
func Salt(format string, data []byte, nonce []byte) ([]byte, error) {
	payload := []byte(hex.EncodeToString(nonce))
	switch EncodedFormat(format) {
	case "png":
		return saltPNG(data, payload)
	case "gif":
		return saltGIF(data, payload)
	default:
		return saltJPEG(data, payload)
	}
}

func saltJPEG(data, payload []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("%w: missing JPEG SOI marker", ErrSalt)
	}
	if len(payload) > 0xFFFF-2 {
		payload = payload[:0xFFFF-2]
	}

	out := make([]byte, 0, len(data)+len(payload)+4)
	out = append(out, data[:2]...)
	out = append(out, 0xFF, 0xFE)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, data[2:]...), nil
}

func saltPNG(data, payload []byte) ([]byte, error) {
	// signature + IHDR (length, type, 13 bytes of data, crc)
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("%w: missing PNG IHDR chunk", ErrSalt)
	}

	chunk := append([]byte("tEXt"+saltKeyword+"\x00"), payload...)
	out := make([]byte, 0, len(data)+len(chunk)+8)
	out = append(out, data[:ihdrEnd]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(chunk)-4))
	out = append(out, chunk...)
	out = binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(chunk))
	return append(out, data[ihdrEnd:]...), nil
}

func saltGIF(data, payload []byte) ([]byte, error) {
	const screenEnd = 6 + 7
	if len(data) < screenEnd || string(data[:3]) != "GIF" {
		return nil, fmt.Errorf("%w: missing GIF header", ErrSalt)
	}

	offset := screenEnd
	if packed := data[10]; packed&0x80 != 0 {
		offset += 3 << ((packed & 0x07) + 1)
	}
	if len(data) < offset {
		return nil, fmt.Errorf("%w: truncated GIF colour table", ErrSalt)
	}

	out := make([]byte, 0, len(data)+len(payload)+len(payload)/255+4)
	out = append(out, "GIF89a"...)
	out = append(out, data[6:offset]...)
	out = append(out, 0x21, 0xFE)
	for rest := payload; len(rest) > 0; {
		n := min(len(rest), 255)
		out = append(out, byte(n))
		out = append(out, rest[:n]...)
		rest = rest[n:]
	}
	out = append(out, 0x00)
	return append(out, data[offset:]...), nil
}
