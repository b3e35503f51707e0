// internal/frame/checksum.go
package frame

// Checksum computes the protocol checksum of a 9-byte frame:
// the two's complement of the sum of bytes 1..7.
//
// For the all-zero read request this is 0x79.
// Frames shorter than Size sum whatever bytes 1..7 are present.
func Checksum(b []byte) byte {
	var sum byte
	for i := 1; i < Size-1 && i < len(b); i++ {
		sum += b[i]
	}
	return 0xFF - sum + 1
}
