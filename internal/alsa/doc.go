// Package alsa queries ALSA sound cards through their control devices.
//
// It is the narrow slice of the ALSA control API the audio monitor needs:
// open a card's control channel by handle name ("hw:N"), read the card's
// identification strings, walk its PCM device indices and ask whether a
// given index supports playback or capture.
//
// On Linux the Backend talks to /dev/snd/controlC<N> directly with the
// SNDRV_CTL_IOCTL_* requests, so there is no dependency on alsa-lib or cgo.
// Other platforms get a Backend whose Open always fails with ErrUnsupported.
//
// # Usage
//
//	backend := alsa.NewBackend("/dev/snd")
//	ctl, err := backend.Open("hw:0")
//	if err != nil {
//	    return err
//	}
//	defer ctl.Close()
//
//	info, err := ctl.CardInfo()
//	for dev, err := ctl.NextPCMDevice(-1); err == nil && dev >= 0; dev, err = ctl.NextPCMDevice(dev) {
//	    if _, err := ctl.PCMInfo(dev, 0, alsa.StreamPlayback); err == nil {
//	        // dev has a playback endpoint
//	    }
//	}
package alsa
