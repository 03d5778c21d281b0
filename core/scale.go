package core

import "dmxled/dmx"

// levelScale is the fixed-point denominator for master scaling. 255 is the
// full-scale channel value, so master 255 passes raw values through unchanged
// and no rescaling of the master byte is needed. 255*255 = 65025 still fits in
// 16 bits.
const levelScale = 255

// ScaleLevel applies a master brightness to one raw channel value, truncating
func ScaleLevel(raw, master uint8) uint8 {
	return uint8(uint16(raw) * uint16(master) / levelScale)
}

// ScaleLevels writes raw[i] scaled by master into dst[i] for every LED. Missing
// raw values count as 0 so dst is always fully overwritten.
func ScaleLevels(dst, raw []uint8, master uint8) {
	for i := range dst {
		var v uint8
		if i < len(raw) {
			v = raw[i]
		}
		dst[i] = ScaleLevel(v, master)
	}
}

// ScaleFrame is ScaleLevels reading the per-LED channels of a DMX frame
func ScaleFrame(dst []uint8, frame dmx.Frame, master uint8) {
	for i := range dst {
		dst[i] = ScaleLevel(frame.LED(i), master)
	}
}
