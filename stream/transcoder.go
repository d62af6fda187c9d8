package stream

import (
	"context"
	"errors"
	"strings"

	"github.com/asticode/go-astiav"
	"github.com/leeineian/jmusic/proc"
)

func init() {
	astiav.SetLogLevel(astiav.LogLevelFatal)
}

const (
	sampleRate    = 48000
	frameSamples  = 960 // 20ms at 48kHz
	opusBitRate   = 128000
	probeSize     = "10000000"
	analyzeLength = "10000000"
)

// frameSource produces Opus frames for one input until it ends or ctx is
// done.
type frameSource interface {
	Transcode(ctx context.Context, on func([]byte) bool) error
	Close()
}

// openTranscoder prepares a Transcoder for src.
func openTranscoder(src *proc.AudioSource) (frameSource, error) {
	t := NewTranscoder(src.Volume)
	err := t.OpenInput(src.Input)
	if err == nil {
		err = t.SetupDecoder()
	}
	if err == nil {
		err = t.SetupEncoder()
	}
	if err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// Transcoder decodes any input ffmpeg can open and re-encodes it as 20ms
// stereo Opus packets at 48kHz. Gain is read once per frame so volume
// changes apply while the track plays.
type Transcoder struct {
	inputCtx               *astiav.FormatContext
	decoderCtx, encoderCtx *astiav.CodecContext
	audioStreamIndex       int
	packet                 *astiav.Packet
	frame                  *astiav.Frame
	resampleCtx            *astiav.SoftwareResampleContext
	resampleFrame          *astiav.Frame
	fifo                   *astiav.AudioFifo
	pts                    int64
	gain                   func() float64
	onFrame                func([]byte) bool
}

func NewTranscoder(gain func() float64) *Transcoder {
	return &Transcoder{
		packet:        astiav.AllocPacket(),
		frame:         astiav.AllocFrame(),
		resampleFrame: astiav.AllocFrame(),
		gain:          gain,
	}
}

func (t *Transcoder) OpenInput(in string) error {
	t.inputCtx = astiav.AllocFormatContext()
	if t.inputCtx == nil {
		return errors.New("failed to alloc format context")
	}

	opts := astiav.NewDictionary()
	defer opts.Free()
	opts.Set("probesize", probeSize, 0)
	opts.Set("analyzeduration", analyzeLength, 0)
	if strings.HasPrefix(in, "http") {
		opts.Set("reconnect", "1", 0)
		opts.Set("reconnect_streamed", "1", 0)
		opts.Set("reconnect_delay_max", "30", 0)
		opts.Set("timeout", "30000000", 0)
	}

	if err := t.inputCtx.OpenInput(in, nil, opts); err != nil {
		return err
	}
	if err := t.inputCtx.FindStreamInfo(nil); err != nil {
		return err
	}
	t.audioStreamIndex = -1
	for _, s := range t.inputCtx.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			t.audioStreamIndex = s.Index()
			break
		}
	}
	if t.audioStreamIndex == -1 {
		return errors.New("no audio stream")
	}
	return nil
}

func (t *Transcoder) SetupDecoder() error {
	p := t.inputCtx.Streams()[t.audioStreamIndex].CodecParameters()
	d := astiav.FindDecoder(p.CodecID())
	if d == nil {
		return errors.New("no decoder")
	}
	t.decoderCtx = astiav.AllocCodecContext(d)
	if err := p.ToCodecContext(t.decoderCtx); err != nil {
		return err
	}
	return t.decoderCtx.Open(d, nil)
}

func (t *Transcoder) SetupEncoder() error {
	e := astiav.FindEncoderByName("libopus")
	if e == nil {
		e = astiav.FindEncoder(astiav.CodecIDOpus)
	}
	if e == nil {
		return errors.New("no opus encoder")
	}
	t.encoderCtx = astiav.AllocCodecContext(e)
	t.encoderCtx.SetBitRate(opusBitRate)
	t.encoderCtx.SetSampleRate(sampleRate)
	t.encoderCtx.SetChannelLayout(astiav.ChannelLayoutStereo)
	t.encoderCtx.SetSampleFormat(astiav.SampleFormatS16)
	t.encoderCtx.SetTimeBase(astiav.NewRational(1, sampleRate))
	o := astiav.NewDictionary()
	defer o.Free()
	o.Set("vbr", "on", 0)
	o.Set("compression_level", "10", 0)
	o.Set("frame_size", "20", 0)
	if err := t.encoderCtx.Open(e, o); err != nil {
		return err
	}
	// Configured from the first decoded frame by ConvertFrame.
	t.resampleCtx = astiav.AllocSoftwareResampleContext()
	if t.resampleCtx == nil {
		return errors.New("failed to allocate resampler")
	}
	return nil
}

// Transcode runs until the input ends, ctx is canceled or on returns false.
func (t *Transcoder) Transcode(ctx context.Context, on func([]byte) bool) error {
	defer t.packet.Unref()
	t.onFrame = on
	t.fifo = astiav.AllocAudioFifo(t.encoderCtx.SampleFormat(), t.encoderCtx.ChannelLayout().Channels(), frameSamples*2)
	defer func() {
		if t.fifo != nil {
			t.fifo.Free()
			t.fifo = nil
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.inputCtx.ReadFrame(t.packet); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return err
		}
		if t.packet.StreamIndex() != t.audioStreamIndex {
			t.packet.Unref()
			continue
		}
		if err := t.decoderCtx.SendPacket(t.packet); err != nil {
			t.packet.Unref()
			return err
		}
		t.packet.Unref()
		if err := t.drainDecoder(); err != nil {
			return err
		}
	}

	// Flush decoder
	_ = t.decoderCtx.SendPacket(nil)
	if err := t.drainDecoder(); err != nil {
		return err
	}

	// Flush the partial frame left in the FIFO
	if n := t.fifo.Size(); n > 0 {
		if err := t.encodeFromFifo(n); err != nil {
			return err
		}
	}

	// Flush encoder
	_ = t.encoderCtx.SendFrame(nil)
	return t.receivePackets()
}

func (t *Transcoder) drainDecoder() error {
	for {
		if err := t.decoderCtx.ReceiveFrame(t.frame); err != nil {
			return nil
		}
		t.prepareOutputFrame()
		nb := int(astiav.RescaleQ(int64(t.frame.NbSamples()), astiav.NewRational(1, t.frame.SampleRate()), astiav.NewRational(1, sampleRate)))
		if nb > 0 {
			t.resampleFrame.SetNbSamples(nb)
			_ = t.resampleFrame.AllocBuffer(0)
			if err := t.resampleCtx.ConvertFrame(t.frame, t.resampleFrame); err == nil {
				_, _ = t.fifo.Write(t.resampleFrame)
			}
			for t.fifo.Size() >= frameSamples {
				if err := t.encodeFromFifo(frameSamples); err != nil {
					t.frame.Unref()
					return err
				}
			}
		}
		t.frame.Unref()
	}
}

func (t *Transcoder) prepareOutputFrame() {
	t.resampleFrame.Unref()
	t.resampleFrame.SetChannelLayout(t.encoderCtx.ChannelLayout())
	t.resampleFrame.SetSampleFormat(t.encoderCtx.SampleFormat())
	t.resampleFrame.SetSampleRate(t.encoderCtx.SampleRate())
}

func (t *Transcoder) encodeFromFifo(n int) error {
	t.prepareOutputFrame()
	t.resampleFrame.SetNbSamples(n)
	_ = t.resampleFrame.AllocBuffer(0)
	_, _ = t.fifo.Read(t.resampleFrame)
	t.applyGain(t.resampleFrame)
	t.resampleFrame.SetPts(t.pts)
	t.pts += int64(n)
	if err := t.encoderCtx.SendFrame(t.resampleFrame); err != nil {
		return err
	}
	return t.receivePackets()
}

func (t *Transcoder) applyGain(f *astiav.Frame) {
	if t.gain == nil {
		return
	}
	g := t.gain()
	if g == 1 {
		return
	}
	b, err := f.Data().Bytes(1)
	if err != nil {
		return
	}
	ScalePCM16(b, g)
	_ = f.Data().SetBytes(b, 1)
}

var errStopped = errors.New("consumer stopped")

func (t *Transcoder) receivePackets() error {
	for {
		p := astiav.AllocPacket()
		if t.encoderCtx.ReceivePacket(p) != nil {
			p.Free()
			return nil
		}
		d := p.Data()
		fd := make([]byte, len(d))
		copy(fd, d)
		p.Free()
		if t.onFrame != nil && !t.onFrame(fd) {
			return errStopped
		}
	}
}

func (t *Transcoder) Close() {
	if t.resampleCtx != nil {
		t.resampleCtx.Free()
	}
	if t.resampleFrame != nil {
		t.resampleFrame.Free()
	}
	if t.packet != nil {
		t.packet.Free()
	}
	if t.frame != nil {
		t.frame.Free()
	}
	if t.decoderCtx != nil {
		t.decoderCtx.Free()
	}
	if t.encoderCtx != nil {
		t.encoderCtx.Free()
	}
	if t.inputCtx != nil {
		t.inputCtx.CloseInput()
		t.inputCtx.Free()
	}
}
