package dshot

// GCR nibble-to-quintet mapping used for the telemetry payload. The
// codewords satisfy the run-length constraint of the line coding.
var gcrQuintets = [16]uint32{
	0x19, 0x1b, 0x12, 0x13, 0x1d, 0x15, 0x16, 0x17,
	0x1a, 0x09, 0x0a, 0x0b, 0x1e, 0x0d, 0x0e, 0x0f,
}

var gcrNibbles = func() map[uint32]uint16 {
	m := make(map[uint32]uint16, 16)
	for n, q := range gcrQuintets {
		m[q] = uint16(n)
	}
	return m
}()

// GCREncode maps a 16-bit telemetry frame onto the 20-bit wire symbol:
// nibbles become quintets, then the symbol is edge-coded so that each 1
// bit marks a line toggle.
func GCREncode(value uint16) uint32 {
	var g uint32
	for i := 3; i >= 0; i-- {
		g = g<<5 | gcrQuintets[(value>>uint(i*4))&0xf]
	}
	// invert x^(x>>1): prefix-xor from the top bit down
	var e uint32
	for i := 19; i >= 0; i-- {
		e |= (((g >> uint(i)) ^ (e >> uint(i+1))) & 1) << uint(i)
	}
	return e
}

// GCRDecode reverses GCREncode: de-frames the edge coding with
// raw^(raw>>1), then maps each quintet back to a nibble. A quintet
// outside the codeword table yields GcrError.
func GCRDecode(raw uint32) (uint16, error) {
	g := (raw ^ (raw >> 1)) & 0xfffff
	var value uint16
	for i := 3; i >= 0; i-- {
		nibble, ok := gcrNibbles[(g>>uint(i*5))&0x1f]
		if !ok {
			return 0, &GcrError{Raw: raw}
		}
		value = value<<4 | nibble
	}
	return value, nil
}
