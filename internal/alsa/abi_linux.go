//go:build linux

package alsa

import "unsafe"

// Sizes are fixed by the kernel ABI and identical on 32 and 64 bit.
var (
	_ [376]byte = [unsafe.Sizeof(sndCtlCardInfo{})]byte{}
	_ [288]byte = [unsafe.Sizeof(sndPCMInfo{})]byte{}
)

// Control interface requests (generic _IOC encoding).
const (
	sndrvCtlIoctlCardInfo      = 0x81785501 // _IOR('U', 0x01, struct snd_ctl_card_info)
	sndrvCtlIoctlPCMNextDevice = 0x80045530 // _IOR('U', 0x30, int)
	sndrvCtlIoctlPCMInfo       = 0xc1205531 // _IOWR('U', 0x31, struct snd_pcm_info)
)

// sndCtlCardInfo mirrors struct snd_ctl_card_info.
type sndCtlCardInfo struct {
	card       int32
	_          [4]byte
	id         [16]byte
	driver     [16]byte
	name       [32]byte
	longname   [80]byte
	_          [16]byte
	mixername  [80]byte
	components [128]byte
}

// sndPCMInfo mirrors struct snd_pcm_info.
type sndPCMInfo struct {
	device          uint32
	subdevice       uint32
	stream          int32
	card            int32
	id              [64]byte
	name            [80]byte
	subname         [32]byte
	devClass        int32
	devSubclass     int32
	subdevicesCount uint32
	subdevicesAvail uint32
	_               [16]byte // union snd_pcm_sync_id
	_               [64]byte
}

func (c *sndCtlCardInfo) toCardInfo() CardInfo {
	return CardInfo{
		Card:       int(c.card),
		ID:         cString(c.id[:]),
		Driver:     cString(c.driver[:]),
		Name:       cString(c.name[:]),
		LongName:   cString(c.longname[:]),
		MixerName:  cString(c.mixername[:]),
		Components: cString(c.components[:]),
	}
}

func (p *sndPCMInfo) toPCMInfo() PCMInfo {
	return PCMInfo{
		Card:            int(p.card),
		Device:          int(p.device),
		Subdevice:       int(p.subdevice),
		Stream:          Stream(p.stream),
		ID:              cString(p.id[:]),
		Name:            cString(p.name[:]),
		Subname:         cString(p.subname[:]),
		Class:           int(p.devClass),
		Subclass:        int(p.devSubclass),
		SubdevicesCount: int(p.subdevicesCount),
		SubdevicesAvail: int(p.subdevicesAvail),
	}
}
