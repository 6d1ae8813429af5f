package encoding

import "encoding/binary"

// PutVarInt appends n to dst using the CompactSize varint encoding: values
// below 0xfd encode as a single byte; 0xfd/0xfe/0xff introduce a 2/4/8 byte
// little-endian value. Encoding is always minimal.
func PutVarInt(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(n))
		return append(dst, buf[:]...)
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(n))
		return append(dst, buf[:]...)
	default:
		dst = append(dst, 0xff)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		return append(dst, buf[:]...)
	}
}

// ReadVarInt decodes a CompactSize varint from b starting at *off, advancing
// *off past the bytes consumed. It rejects non-minimal encodings.
func ReadVarInt(b []byte, off *int) (uint64, error) {
	tag, err := ReadU8(b, off)
	if err != nil {
		return 0, err
	}
	switch {
	case tag < 0xfd:
		return uint64(tag), nil
	case tag == 0xfd:
		v, err := ReadU16LE(b, off)
		if err != nil {
			return 0, err
		}
		if v < 0xfd {
			return 0, ErrInvalidEncoding("varint: non-minimal 0xfd encoding")
		}
		return uint64(v), nil
	case tag == 0xfe:
		v, err := ReadU32LE(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffff {
			return 0, ErrInvalidEncoding("varint: non-minimal 0xfe encoding")
		}
		return uint64(v), nil
	default:
		v, err := ReadU64LE(b, off)
		if err != nil {
			return 0, err
		}
		if v <= 0xffffffff {
			return 0, ErrInvalidEncoding("varint: non-minimal 0xff encoding")
		}
		return v, nil
	}
}

// ReadU8 reads a single byte from b at *off.
func ReadU8(b []byte, off *int) (uint8, error) {
	if *off+1 > len(b) {
		return 0, ErrInvalidEncoding("unexpected EOF (u8)")
	}
	v := b[*off]
	*off++
	return v, nil
}

// ReadU16LE reads a little-endian uint16 from b at *off.
func ReadU16LE(b []byte, off *int) (uint16, error) {
	if *off+2 > len(b) {
		return 0, ErrInvalidEncoding("unexpected EOF (u16le)")
	}
	v := binary.LittleEndian.Uint16(b[*off : *off+2])
	*off += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32 from b at *off.
func ReadU32LE(b []byte, off *int) (uint32, error) {
	if *off+4 > len(b) {
		return 0, ErrInvalidEncoding("unexpected EOF (u32le)")
	}
	v := binary.LittleEndian.Uint32(b[*off : *off+4])
	*off += 4
	return v, nil
}

// ReadU64LE reads a little-endian uint64 from b at *off.
func ReadU64LE(b []byte, off *int) (uint64, error) {
	if *off+8 > len(b) {
		return 0, ErrInvalidEncoding("unexpected EOF (u64le)")
	}
	v := binary.LittleEndian.Uint64(b[*off : *off+8])
	*off += 8
	return v, nil
}

// ReadBytes reads n raw bytes from b at *off.
func ReadBytes(b []byte, off *int, n int) ([]byte, error) {
	if n < 0 || *off+n > len(b) {
		return nil, ErrInvalidEncoding("unexpected EOF (bytes)")
	}
	v := b[*off : *off+n]
	*off += n
	return v, nil
}

// AppendU32LE appends v to dst as 4 little-endian bytes.
func AppendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// AppendU64LE appends v to dst as 8 little-endian bytes.
func AppendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}
