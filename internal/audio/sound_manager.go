// Package audio synthesizes the game's sound cues with beep.
package audio

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/tomz197/galaxyblaster/internal/loop"
)

const sampleRate = beep.SampleRate(44100)

// Tones maps every cue to its blip.
var Tones = map[loop.Cue]Tone{
	loop.CueShot:         {Wave: WaveSquare, Freq: 900, Gain: 0.06, Duration: 50 * time.Millisecond},
	loop.CueStart:        {Wave: WaveSaw, Freq: 500, Gain: 0.08, Duration: 80 * time.Millisecond},
	loop.CueRestart:      {Wave: WaveSine, Freq: 700, Gain: 0.08, Duration: 80 * time.Millisecond},
	loop.CueNewHighScore: {Wave: WaveSine, Freq: 1000, Gain: 0.12, Duration: 120 * time.Millisecond},
	loop.CueGameOver:     {Wave: WaveSine, Freq: 220, Gain: 0.06, Duration: 120 * time.Millisecond},
	loop.CueExplosion: {
		Wave: WaveTriangle, Freq: 120, EndFreq: 30, Sweep: 250 * time.Millisecond,
		Gain: 0.08, Duration: 400 * time.Millisecond,
	},
}

// SoundManager plays cues through a shared mixer.
// Before Initialize succeeds every Play is dropped.
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	rate        beep.SampleRate
	volume      float64
	initialized bool
	attached    bool // the speaker is pulling from mixer
	log         *log.Logger
}

// NewSoundManager creates a sound manager at full volume.
func NewSoundManager(logger *log.Logger) *SoundManager {
	if logger == nil {
		logger = log.Default()
	}
	return &SoundManager{
		mixer:  &beep.Mixer{},
		rate:   sampleRate,
		volume: 1,
		log:    logger,
	}
}

// Initialize opens the audio device and starts the mixer.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := speaker.Init(sm.rate, sm.rate.N(100*time.Millisecond)); err != nil {
		return err
	}

	speaker.Play(sm.mixer)
	sm.initialized = true
	sm.attached = true
	return nil
}

// SetVolume scales every cue; 0 silences them.
func (sm *SoundManager) SetVolume(v float64) {
	sm.mu.Lock()
	sm.volume = v
	sm.mu.Unlock()
}

// Play queues the blip for c. It never blocks on the device.
func (sm *SoundManager) Play(c loop.Cue) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	t, ok := Tones[c]
	if !ok {
		sm.log.Debug("no tone for cue", "cue", c)
		return
	}

	s := newVolume(NewTone(t, sm.rate), sm.volume)
	if sm.attached {
		speaker.Lock()
		sm.mixer.Add(s)
		speaker.Unlock()
		return
	}
	sm.mixer.Add(s)
}

// Pending reports how many cues are still sounding.
func (sm *SoundManager) Pending() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.attached {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return sm.mixer.Len()
}

// Cleanup stops all sounds and releases the device.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	if sm.attached {
		speaker.Lock()
		sm.mixer.Clear()
		speaker.Unlock()
		speaker.Close()
	} else {
		sm.mixer.Clear()
	}
	sm.initialized = false
	sm.attached = false
}
