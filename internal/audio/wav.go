package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// ErrUnsupportedFormat is returned for WAV encodings DecodeWAV cannot read.
var ErrUnsupportedFormat = errors.New("unsupported wav format")

// PCM is interleaved signed 16-bit little-endian audio.
type PCM struct {
	SampleRate int
	Channels   int
	Data       []byte
}

// Frames returns the number of sample frames.
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Data) / (2 * p.Channels)
}

// Duration returns the playback length.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// Offset returns the byte offset of position d, aligned to a frame.
func (p *PCM) Offset(d time.Duration) int64 {
	frame := int64(d) * int64(p.SampleRate) / int64(time.Second)
	off := frame * int64(2*p.Channels)
	if off > int64(len(p.Data)) {
		off = int64(len(p.Data))
	}
	return off
}

type fmtChunk struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV reads a RIFF/WAVE file holding 16-bit PCM or 32-bit float
// samples. Float samples are converted to 16-bit.
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}

	var (
		format  *fmtChunk
		samples []byte
	)
	r := bytes.NewReader(data[12:])
	for r.Len() >= 8 {
		var hdr struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		size := int(hdr.Size)
		if size > r.Len() {
			// streamed writers leave the data size unset
			size = r.Len()
		}
		body := make([]byte, size)
		if _, err := r.Read(body); err != nil && size > 0 {
			return nil, fmt.Errorf("read %s chunk: %w", hdr.ID, err)
		}
		if size%2 == 1 && r.Len() > 0 {
			_, _ = r.ReadByte()
		}

		switch string(hdr.ID[:]) {
		case "fmt ":
			if len(body) < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			var f fmtChunk
			_ = binary.Read(bytes.NewReader(body), binary.LittleEndian, &f)
			if f.Format == formatExtensible && len(body) >= 26 {
				f.Format = binary.LittleEndian.Uint16(body[24:26])
			}
			format = &f
		case "data":
			samples = body
		}
	}

	if format == nil {
		return nil, fmt.Errorf("%w: no fmt chunk", ErrUnsupportedFormat)
	}
	if samples == nil {
		return nil, fmt.Errorf("%w: no data chunk", ErrUnsupportedFormat)
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, format.Channels, format.SampleRate)
	}

	pcm := &PCM{SampleRate: int(format.SampleRate), Channels: int(format.Channels)}
	switch {
	case format.Format == formatPCM && format.BitsPerSample == 16:
		pcm.Data = samples[:len(samples)/2*2]
	case format.Format == formatFloat && format.BitsPerSample == 32:
		pcm.Data = floatToPCM16(samples)
	default:
		return nil, fmt.Errorf("%w: format %d with %d bits", ErrUnsupportedFormat, format.Format, format.BitsPerSample)
	}
	return pcm, nil
}

func floatToPCM16(samples []byte) []byte {
	n := len(samples) / 4
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		f := math.Float32frombits(binary.LittleEndian.Uint32(samples[i*4:]))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(toInt16(float64(f))))
	}
	return out
}

func toInt16(f float64) int16 {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(math.Round(f * math.MaxInt16))
}

// Convert resamples p to rate and channels with linear interpolation.
// Mono is duplicated into stereo; stereo is averaged into mono.
func (p *PCM) Convert(rate, channels int) *PCM {
	if p.SampleRate == rate && p.Channels == channels {
		return p
	}

	in := p.Frames()
	frame := func(i, ch int) float64 {
		if i >= in {
			i = in - 1
		}
		c := ch
		if c >= p.Channels {
			c = p.Channels - 1
		}
		return float64(int16(binary.LittleEndian.Uint16(p.Data[(i*p.Channels+c)*2:])))
	}
	sample := func(i, ch int) float64 {
		if channels == 1 && p.Channels > 1 {
			var sum float64
			for c := 0; c < p.Channels; c++ {
				sum += frame(i, c)
			}
			return sum / float64(p.Channels)
		}
		return frame(i, ch)
	}

	out := 0
	if in > 0 {
		out = int(int64(in) * int64(rate) / int64(p.SampleRate))
	}
	data := make([]byte, out*channels*2)
	step := float64(p.SampleRate) / float64(rate)
	for i := 0; i < out; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)
		for ch := 0; ch < channels; ch++ {
			v := sample(j, ch)*(1-frac) + sample(j+1, ch)*frac
			binary.LittleEndian.PutUint16(data[(i*channels+ch)*2:], uint16(int16(math.Round(v))))
		}
	}
	return &PCM{SampleRate: rate, Channels: channels, Data: data}
}

// EncodeWAV writes p as a 16-bit PCM WAV file.
func EncodeWAV(p *PCM) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(p.Data))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, fmtChunk{
		Format:        formatPCM,
		Channels:      uint16(p.Channels),
		SampleRate:    uint32(p.SampleRate),
		ByteRate:      uint32(p.SampleRate * p.Channels * 2),
		BlockAlign:    uint16(p.Channels * 2),
		BitsPerSample: 16,
	})
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(p.Data)
	return buf.Bytes()
}
