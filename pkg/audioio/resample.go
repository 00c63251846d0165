package audioio

import "encoding/binary"

// Resample converts mono PCM16 between sample rates by linear
// interpolation. There is no anti-aliasing filter; clicks and short
// speech survive that fine. The input is returned as is when the rates match.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	n := int(int64(len(samples)) * int64(toRate) / int64(fromRate))
	out := make([]int16, n)
	step := float64(fromRate) / float64(toRate)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		a, b := float64(samples[j]), float64(samples[j+1])
		out[i] = int16(a + (pos-float64(j))*(b-a))
	}
	return out
}

// BytesToSamples decodes little-endian PCM16. A trailing odd byte is dropped.
func BytesToSamples(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[2*i:]))
	}
	return out
}

// SamplesToBytes encodes samples as little-endian PCM16.
func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint16(out, uint16(s))
	}
	return out
}

// MonoToStereo copies each sample to both channels.
func MonoToStereo(samples []int16) []int16 {
	out := make([]int16, 0, len(samples)*2)
	for _, s := range samples {
		out = append(out, s, s)
	}
	return out
}

// StereoToMono averages interleaved left/right pairs.
func StereoToMono(samples []int16) []int16 {
	out := make([]int16, len(samples)/2)
	for i := range out {
		out[i] = int16((int32(samples[2*i]) + int32(samples[2*i+1])) / 2)
	}
	return out
}

// FloatToPCM16 scales [-1, 1] to PCM16 and clips values outside it.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = int16(max(-1, min(1, v)) * 32767)
	}
	return out
}

// PeakLevel is the largest absolute sample, 1.0 at full scale.
func PeakLevel(samples []int16) float64 {
	var peak int32
	for _, s := range samples {
		peak = max(peak, abs32(int32(s)))
	}
	return float64(peak) / 32767
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
