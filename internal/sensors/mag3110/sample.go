package mag3110

// Sample is one X/Y/Z reading in raw sensor counts (0.1 µT per LSB).
type Sample struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Decode turns the OUT_X_MSB..OUT_Z_LSB block into a Sample. Each axis is a
// big-endian two's-complement pair.
func Decode(b [SampleLen]byte) Sample {
	return Sample{
		X: int16(b[0])<<8 | int16(b[1]),
		Y: int16(b[2])<<8 | int16(b[3]),
		Z: int16(b[4])<<8 | int16(b[5]),
	}
}
