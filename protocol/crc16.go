package protocol

// CRC16 computes the block checksum (CRC-16/CCITT, 0xFFFF seed, byte-reflected
// update) over the length, sequence and payload bytes of a block
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
