// Package crc provides the table driven checksums used by the referee link.
package crc

// Initial values used on the referee link.
const (
	Init8  uint8  = 0xff
	Init16 uint16 = 0xffff
)

// reflected polynomials
const (
	poly8  uint8  = 0x8c   // x^8+x^5+x^4+1 (0x31)
	poly16 uint16 = 0x8408 // x^16+x^12+x^5+1 (0x1021)
)

var (
	table8  [256]uint8
	table16 [256]uint16
)

func init() {
	for i := 0; i < 256; i++ {
		c8, c16 := uint8(i), uint16(i)
		for bit := 0; bit < 8; bit++ {
			if c8&1 != 0 {
				c8 = (c8 >> 1) ^ poly8
			} else {
				c8 >>= 1
			}
			if c16&1 != 0 {
				c16 = (c16 >> 1) ^ poly16
			} else {
				c16 >>= 1
			}
		}
		table8[i], table16[i] = c8, c16
	}
}

// CRC8 calculates the 8-bit checksum of data starting from init.
func CRC8(data []byte, init uint8) uint8 {
	crc := init
	for _, b := range data {
		crc = table8[crc^b]
	}
	return crc
}

// CRC16 calculates the 16-bit checksum of data starting from init.
func CRC16(data []byte, init uint16) uint16 {
	crc := init
	for _, b := range data {
		crc = (crc >> 8) ^ table16[byte(crc)^b]
	}
	return crc
}

// Verify8 checks the last byte of data is the CRC8 of the preceding bytes.
func Verify8(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	n := len(data) - 1
	return CRC8(data[:n], Init8) == data[n]
}

// Append8 appends the CRC8 of data.
func Append8(data []byte) []byte {
	return append(data, CRC8(data, Init8))
}

// Verify16 checks the last two bytes (little-endian) of data are the CRC16
// of the preceding bytes.
func Verify16(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	n := len(data) - 2
	crc := CRC16(data[:n], Init16)
	return byte(crc) == data[n] && byte(crc>>8) == data[n+1]
}

// Append16 appends the CRC16 of data in little-endian.
func Append16(data []byte) []byte {
	crc := CRC16(data, Init16)
	return append(data, byte(crc), byte(crc>>8))
}

// Put16 writes the CRC16 of data[:len(data)-2] into the last two bytes.
func Put16(data []byte) {
	n := len(data) - 2
	crc := CRC16(data[:n], Init16)
	data[n], data[n+1] = byte(crc), byte(crc>>8)
}
