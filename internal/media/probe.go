// Package media inspects uploaded video files.
package media

import (
	"encoding/binary"
	"errors"
	"time"
)

// ErrNoDuration is returned when a file carries no readable movie header.
var ErrNoDuration = errors.New("media: duration not found")

// MP4Duration returns the playback duration recorded in the movie header
// (moov/mvhd) of an MP4 or QuickTime file.
func MP4Duration(data []byte) (time.Duration, error) {
	moov, ok := findBox(data, "moov")
	if !ok {
		return 0, ErrNoDuration
	}
	mvhd, ok := findBox(moov, "mvhd")
	if !ok || len(mvhd) < 4 {
		return 0, ErrNoDuration
	}

	var timescale, duration uint64
	switch version := mvhd[0]; version {
	case 0:
		// version+flags, creation, modification, timescale, duration
		if len(mvhd) < 20 {
			return 0, ErrNoDuration
		}
		timescale = uint64(binary.BigEndian.Uint32(mvhd[12:16]))
		duration = uint64(binary.BigEndian.Uint32(mvhd[16:20]))
	case 1:
		if len(mvhd) < 32 {
			return 0, ErrNoDuration
		}
		timescale = uint64(binary.BigEndian.Uint32(mvhd[20:24]))
		duration = binary.BigEndian.Uint64(mvhd[24:32])
	default:
		return 0, ErrNoDuration
	}
	if timescale == 0 {
		return 0, ErrNoDuration
	}

	seconds := float64(duration) / float64(timescale)
	return time.Duration(seconds * float64(time.Second)), nil
}

// findBox scans sibling boxes in b and returns the payload of the first one
// named typ.
func findBox(b []byte, typ string) ([]byte, bool) {
	for len(b) >= 8 {
		size := uint64(binary.BigEndian.Uint32(b[0:4]))
		name := string(b[4:8])
		header := uint64(8)
		switch size {
		case 0:
			size = uint64(len(b))
		case 1:
			if len(b) < 16 {
				return nil, false
			}
			size = binary.BigEndian.Uint64(b[8:16])
			header = 16
		}
		if size < header || size > uint64(len(b)) {
			return nil, false
		}
		if name == typ {
			return b[header:size], true
		}
		b = b[size:]
	}
	return nil, false
}
