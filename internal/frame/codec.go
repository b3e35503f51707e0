// internal/frame/codec.go
package frame

// Wire constants for the 9-byte UART protocol.
// These values define the protocol and MUST NOT be configurable.
const (
	// Size is the fixed length of every request and response frame.
	Size = 9

	// Marker is the start byte of every frame.
	Marker byte = 0xFF

	// SensorNumber is the request addressing byte (always 0x01).
	SensorNumber byte = 0x01

	// CmdReadConcentration is the read command, echoed in byte 1 of the response.
	CmdReadConcentration byte = 0x86
)

// Kind classifies the outcome of one extraction attempt.
type Kind int

const (
	// Incomplete: a marker was found but the frame is not fully buffered yet.
	Incomplete Kind = iota
	// Invalid: the consumed prefix holds no frame and can be dropped.
	Invalid
	// Valid: a frame was validated and decoded.
	Valid
	// Corrupt: marker and command matched but the checksum did not.
	// Only produced when checksum verification is enabled.
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case Incomplete:
		return "incomplete"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Frame is one validated response.
type Frame struct {
	Command byte
	PPM     uint16
	Raw     [Size]byte
}

// Result is returned by TryExtract.
//
// Consumed is the number of leading bytes the caller may drop.
// Frame is set only when Kind == Valid.
type Result struct {
	Kind     Kind
	Consumed int
	Frame    Frame
}

// EncodeReadCommand returns the fixed read request:
//
//	FF 01 86 00 00 00 00 00 79
func EncodeReadCommand() []byte {
	return encodeCommand(CmdReadConcentration)
}

func encodeCommand(cmd byte) []byte {
	b := make([]byte, Size)
	b[0] = Marker
	b[1] = SensorNumber
	b[2] = cmd
	b[8] = Checksum(b)
	return b
}

// Decoder scans a byte stream for response frames.
// The zero value accepts any frame with a valid marker and command byte.
type Decoder struct {
	VerifyChecksum bool
}

// TryExtract scans buf with the default Decoder.
func TryExtract(buf []byte) Result {
	return Decoder{}.TryExtract(buf)
}

// TryExtract looks for the first response frame in buf.
// No IO. buf is never modified.
func (d Decoder) TryExtract(buf []byte) Result {
	k := -1
	for i, b := range buf {
		if b == Marker {
			k = i
			break
		}
	}

	// No marker anywhere: nothing in buf can start a frame.
	if k < 0 {
		return Result{Kind: Invalid, Consumed: len(buf)}
	}

	if len(buf)-k < Size {
		return Result{Kind: Incomplete, Consumed: k}
	}

	// False marker: never eat the 9 bytes, a real frame may start inside them.
	if buf[k+1] != CmdReadConcentration {
		return Result{Kind: Invalid, Consumed: skipHeader(buf, k)}
	}

	var raw [Size]byte
	copy(raw[:], buf[k:k+Size])

	if d.VerifyChecksum && raw[8] != Checksum(raw[:]) {
		return Result{Kind: Corrupt, Consumed: skipHeader(buf, k)}
	}

	return Result{
		Kind:     Valid,
		Consumed: k + Size,
		Frame: Frame{
			Command: raw[1],
			PPM:     uint16(raw[2])<<8 | uint16(raw[3]),
			Raw:     raw,
		},
	}
}

// skipHeader returns how many bytes to drop for a rejected header at k.
// Marker and command byte go together, unless the command byte is
// itself a marker that may open the next frame.
func skipHeader(buf []byte, k int) int {
	if buf[k+1] == Marker {
		return k + 1
	}
	return k + 2
}
