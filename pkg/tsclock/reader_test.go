package tsclock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/asticode/go-astits"
	"github.com/stretchr/testify/require"

	"github.com/bluenviron/streamclock"
)

type testUnit struct {
	pts           int64
	discontinuity bool
}

func writeTestStream(t *testing.T, units []testUnit) []byte {
	var buf bytes.Buffer

	mux := astits.NewMuxer(context.Background(), &buf)

	err := mux.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: 256,
		StreamType:    astits.StreamTypeH264Video,
	})
	require.NoError(t, err)

	mux.SetPCRPID(256)

	for _, u := range units {
		_, err = mux.WriteData(&astits.MuxerData{
			PID: 256,
			AdaptationField: &astits.PacketAdaptationField{
				RandomAccessIndicator:  true,
				DiscontinuityIndicator: u.discontinuity,
				HasPCR:                 true,
				PCR:                    &astits.ClockReference{Base: u.pts},
			},
			PES: &astits.PESData{
				Header: &astits.PESHeader{
					OptionalHeader: &astits.PESOptionalHeader{
						MarkerBits:      2,
						PTSDTSIndicator: astits.PTSDTSIndicatorOnlyPTS,
						PTS:             &astits.ClockReference{Base: u.pts},
					},
					StreamID: 224, // video
				},
				Data: []byte{0, 0, 0, 1, 9, 240},
			},
		})
		require.NoError(t, err)
	}

	return buf.Bytes()
}

// pcrPacket returns a packet that carries a PCR and no payload.
func pcrPacket(pid uint16, base int64) []byte {
	b := bytes.Repeat([]byte{0xff}, 188)
	b[0] = 0x47
	b[1] = byte(pid>>8) & 0x1f
	b[2] = byte(pid)
	b[3] = 0x20 // adaptation field only
	b[4] = 183  // adaptation field length
	b[5] = 0x10 // PCR flag
	b[6] = byte(base >> 25)
	b[7] = byte(base >> 17)
	b[8] = byte(base >> 9)
	b[9] = byte(base >> 1)
	b[10] = byte(base<<7) | 0x7e
	b[11] = 0
	return b
}

func readAll(t *testing.T, r *Reader) {
	for {
		err := r.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func newTestClock(onDiscontinuity func(*streamclock.Discontinuity)) *streamclock.Clock {
	c := &streamclock.Clock{
		OnDiscontinuity: onDiscontinuity,
	}
	c.Initialize()
	return c
}

func TestReaderInitializeErrors(t *testing.T) {
	r := &Reader{
		R: bytes.NewReader(nil),
	}
	err := r.Initialize()
	require.EqualError(t, err, "clock not provided")

	c := &streamclock.Clock{StreamClockRate: 1000}
	c.Initialize()

	r = &Reader{
		R:     bytes.NewReader(nil),
		Clock: c,
	}
	err = r.Initialize()
	require.EqualError(t, err, "clock rate mismatch: MPEG-TS has 90000, clock has 1000")
}

func TestReaderUnits(t *testing.T) {
	byts := writeTestStream(t, []testUnit{
		{pts: 90000},
		{pts: 93000},
		{pts: 96000},
		{pts: 99000},
	})

	c := newTestClock(nil)
	defer c.Close()

	now := int64(1000000)
	var units []*Unit

	r := &Reader{
		R:     bytes.NewReader(byts),
		Clock: c,
		Now: func() int64 {
			now += 33333
			return now
		},
		PresentationDelay: 100000,
		OnUnit: func(u *Unit) {
			units = append(units, u)
		},
	}
	err := r.Initialize()
	require.NoError(t, err)

	readAll(t, r)

	require.Len(t, units, 4)

	for i, u := range units {
		require.Equal(t, uint16(256), u.PID)
		require.Equal(t, u.PTS, u.DTS)
		require.Equal(t, true, u.Known)
		require.Equal(t, []byte{0, 0, 0, 1, 9, 240}, u.Data)

		if i > 0 {
			require.Equal(t, int64(3000), u.PTS-units[i-1].PTS)
			require.GreaterOrEqual(t, u.Deadline, units[i-1].Deadline)
		}
	}

	require.Equal(t, true, c.Synced())
}

func TestReaderDedicatedPCRPID(t *testing.T) {
	var buf bytes.Buffer

	mux := astits.NewMuxer(context.Background(), &buf)

	err := mux.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: 256,
		StreamType:    astits.StreamTypeH264Video,
	})
	require.NoError(t, err)

	mux.SetPCRPID(257)

	for i := int64(0); i < 4; i++ {
		pts := 90000 + i*3000

		_, err = mux.WriteData(&astits.MuxerData{
			PID: 256,
			PES: &astits.PESData{
				Header: &astits.PESHeader{
					OptionalHeader: &astits.PESOptionalHeader{
						MarkerBits:      2,
						PTSDTSIndicator: astits.PTSDTSIndicatorOnlyPTS,
						PTS:             &astits.ClockReference{Base: pts},
					},
					StreamID: 224, // video
				},
				Data: []byte{0, 0, 0, 1, 9, 240},
			},
		})
		require.NoError(t, err)

		buf.Write(pcrPacket(257, pts))
	}

	c := newTestClock(nil)
	defer c.Close()

	now := int64(1000000)
	var units []*Unit

	r := &Reader{
		R:     bytes.NewReader(buf.Bytes()),
		Clock: c,
		Now: func() int64 {
			now += 33333
			return now
		},
		OnUnit: func(u *Unit) {
			units = append(units, u)
		},
	}
	err = r.Initialize()
	require.NoError(t, err)

	readAll(t, r)

	require.Equal(t, true, c.Synced())

	require.Len(t, units, 4)
	for _, u := range units {
		require.Equal(t, true, u.Known)
	}
}

func TestReaderDiscontinuity(t *testing.T) {
	for _, ca := range []struct {
		name      string
		indicator bool
		reported  int
	}{
		{
			"gap",
			false,
			1,
		},
		{
			"discontinuity indicator",
			true,
			0,
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			byts := writeTestStream(t, []testUnit{
				{pts: 90000},
				{pts: 93000},
				{pts: 90000 * 50, discontinuity: ca.indicator},
				{pts: 90000*50 + 3000},
			})

			reported := 0
			c := newTestClock(func(*streamclock.Discontinuity) {
				reported++
			})
			defer c.Close()

			count := 0
			now := int64(0)

			r := &Reader{
				R:     bytes.NewReader(byts),
				Clock: c,
				Now: func() int64 {
					now += 33333
					return now
				},
				OnUnit: func(u *Unit) {
					require.Equal(t, true, u.Known)
					count++
				},
			}
			err := r.Initialize()
			require.NoError(t, err)

			readAll(t, r)

			require.Equal(t, 4, count)
			require.Equal(t, ca.reported, reported)
		})
	}
}

func TestReaderWakeup(t *testing.T) {
	byts := writeTestStream(t, []testUnit{
		{pts: 90000},
		{pts: 93000},
	})

	c := newTestClock(nil)
	defer c.Close()

	r := &Reader{
		R:              bytes.NewReader(byts),
		Clock:          c,
		CanPaceControl: true,
	}
	err := r.Initialize()
	require.NoError(t, err)

	readAll(t, r)

	_, ok := r.Wakeup()
	require.Equal(t, false, ok)

	c.SetMaster(true)

	_, ok = r.Wakeup()
	require.Equal(t, true, ok)
}

func TestReaderEmpty(t *testing.T) {
	c := newTestClock(nil)
	defer c.Close()

	r := &Reader{
		R:     bytes.NewReader(nil),
		Clock: c,
	}
	err := r.Initialize()
	require.NoError(t, err)

	err = r.Read()
	require.Equal(t, io.EOF, err)
}
