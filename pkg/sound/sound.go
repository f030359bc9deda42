package sound

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// InitSound starts a player goroutine and returns the channel it takes WAV
// paths on. A new sound cuts off the one playing. Close the channel to stop.
func InitSound(log *zap.Logger) chan string {
	soundsToPlay := make(chan string)
	go func() {
		drain := func() {
			for s := range soundsToPlay {
				log.Debug("Unable to play", zap.String("path", s))
			}
		}
		defer func() {
			if r := recover(); r != nil {
				log.Warn("Sound player crashed", zap.Any("panic", r))
				drain()
			}
		}()
		sampleRate := beep.SampleRate(44100)
		err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
		if err != nil {
			log.Warn("Failed to open speaker", zap.Error(err))
			drain()
			return
		}
		var ctrl *beep.Ctrl
		var s beep.StreamSeekCloser
		for soundToPlay := range soundsToPlay {
			if ctrl != nil {
				speaker.Lock()
				ctrl.Paused = true
				ctrl.Streamer = nil
				speaker.Unlock()
				ctrl = nil
			}
			if s != nil {
				s.Close()
				s = nil
			}

			s, err = Load(soundToPlay)
			if err != nil {
				log.Warn("Failed to load sound", zap.Error(err))
				continue
			}
			ctrl = &beep.Ctrl{Streamer: s}
			speaker.Play(ctrl)
		}
		if s != nil {
			s.Close()
		}
	}()
	return soundsToPlay
}

// Load opens and decodes a WAV file.
func Load(path string) (beep.StreamSeekCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sound")
	}
	s, _, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return s, nil
}
