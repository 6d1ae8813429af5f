package encoding

import "github.com/EXCCoin/base58"

// Base58CheckEncode prepends version to payload, appends the first 4 bytes
// of double-SHA-256(version||payload) as a checksum, and Base58-encodes the
// result.
func Base58CheckEncode(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+4)
	buf = append(buf, version)
	buf = append(buf, payload...)
	sum := DoubleSHA256(buf)
	buf = append(buf, sum[:4]...)
	return base58.Encode(buf)
}

// Base58CheckDecode is the inverse of Base58CheckEncode. It returns
// ErrInvalidEncoding if the string isn't valid Base58 or the checksum
// doesn't match.
func Base58CheckDecode(s string) (version byte, payload []byte, err error) {
	raw := base58.Decode(s)
	if len(raw) < 1+4 {
		return 0, nil, ErrInvalidEncoding("base58check: input too short")
	}
	body := raw[:len(raw)-4]
	checksum := raw[len(raw)-4:]
	sum := DoubleSHA256(body)
	for i := 0; i < 4; i++ {
		if sum[i] != checksum[i] {
			return 0, nil, ErrInvalidEncoding("base58check: checksum mismatch")
		}
	}
	return body[0], body[1:], nil
}
