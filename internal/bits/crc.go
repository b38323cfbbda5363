// SPDX-License-Identifier: EPL-2.0

package bits

// The checksums used by the FLAC framing layer: CRC-8 with polynomial
// x^8 + x^2 + x + 1 (0x07) over frame headers, and CRC-16 with
// polynomial x^16 + x^15 + x^2 + 1 (0x8005) over whole frames. Both
// start at zero and are unreflected.

var (
	crc8Table  [256]uint8
	crc16Table [256]uint16
)

func init() {
	for i := 0; i < 256; i++ {
		c8 := uint8(i)
		c16 := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if c8&0x80 != 0 {
				c8 = c8<<1 ^ 0x07
			} else {
				c8 <<= 1
			}
			if c16&0x8000 != 0 {
				c16 = c16<<1 ^ 0x8005
			} else {
				c16 <<= 1
			}
		}
		crc8Table[i] = c8
		crc16Table[i] = c16
	}
}

// CRC8 computes the checksum of p in one shot.
func CRC8(p []byte) uint8 {
	var crc uint8
	for _, b := range p {
		crc = crc8Table[crc^b]
	}
	return crc
}

// CRC16 computes the checksum of p in one shot.
func CRC16(p []byte) uint16 {
	var crc uint16
	for _, b := range p {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}
