package bridge

// LinkState describes the synchronization of the link.
type LinkState int

// Link states are bit flags.
const (
	// LinkSyncing means sequence numbers are being negotiated.
	LinkSyncing LinkState = 0
	// LinkReady means frames can be exchanged.
	LinkReady LinkState = 0x01
	// LinkBusy means a sync handshake or a frame is partially received.
	LinkBusy LinkState = 0x02
)

// Ready indicates frames can be exchanged.
func (s LinkState) Ready() bool {
	return s&LinkReady != 0
}

// Busy indicates a sync handshake or frame is partially received.
func (s LinkState) Busy() bool {
	return s&LinkBusy != 0
}

// Link control bytes, each followed by a sequence number.
const (
	ctlSync byte = 0xff
	ctlAck  byte = 0xfe
)

type rxState int

const (
	rxWaitAck     rxState = iota // sync sent, expecting ctlAck
	rxSyncSeq                    // peer sync received, expecting its seq
	rxAckSeq                     // ack received while syncing, expecting seq
	rxFrameSeq                   // idle, expecting the next frame seq
	rxReackSeq                   // ack received while ready, seq must match
	rxFrameCode                  // expecting code and length
	rxFrameLen                   // expecting explicit length
	rxFrameData                  // expecting payload
)

// Step is what the receiver concluded after consuming input.
type Step struct {
	// Control is a control byte to send to the peer, 0 for none.
	Control byte
	State   LinkState
	Frame   *Frame
}

// RestartTimer indicates the resync timer should be (re)armed.
func (s Step) RestartTimer() bool {
	return s.State.Busy() || s.Control == ctlSync
}

// StopTimer indicates the resync timer should be cancelled.
func (s Step) StopTimer() bool {
	return !s.RestartTimer() && s.State.Ready()
}

// Receiver decodes the byte stream from the peer. Any unexpected byte
// drops the link back to syncing.
type Receiver struct {
	peerSeq Seq
	state   rxState
	frame   *Frame
	filled  int
}

// State returns the current link state.
func (r *Receiver) State() LinkState {
	switch {
	case r.state == rxWaitAck:
		return LinkSyncing
	case r.state == rxFrameSeq:
		return LinkReady
	case r.state > rxFrameSeq:
		return LinkReady | LinkBusy
	default:
		return LinkSyncing | LinkBusy
	}
}

// Reset restarts synchronization.
func (r *Receiver) Reset() Step {
	r.frame = nil
	return r.step(r.resync())
}

// Feed consumes one byte.
func (r *Receiver) Feed(b byte) Step {
	return r.step(r.feed(b))
}

// Timeout reports the resync timer expired. Anything but an idle ready
// link restarts synchronization.
func (r *Receiver) Timeout() Step {
	if r.state == rxFrameSeq {
		return r.step(0, nil)
	}
	return r.step(r.resync())
}

func (r *Receiver) step(ctl byte, f *Frame) Step {
	return Step{Control: ctl, State: r.State(), Frame: f}
}

func (r *Receiver) feed(b byte) (byte, *Frame) {
	switch r.state {
	case rxWaitAck:
		if b == ctlSync {
			r.state = rxSyncSeq
		} else if b == ctlAck {
			r.state = rxAckSeq
		}
	case rxSyncSeq, rxAckSeq:
		seq := Seq(b)
		if !seq.Valid() {
			return r.resync()
		}
		reply := r.state == rxSyncSeq
		r.peerSeq, r.state = seq, rxFrameSeq
		if reply {
			return ctlAck, nil
		}
	case rxFrameSeq:
		switch {
		case b == ctlSync:
			r.state = rxSyncSeq
		case b == ctlAck:
			r.state = rxReackSeq
		case Seq(b) != r.peerSeq:
			return r.resync()
		default:
			r.frame = &Frame{Seq: r.peerSeq}
			r.peerSeq = r.peerSeq.Next()
			r.state = rxFrameCode
		}
	case rxReackSeq:
		if Seq(b) != r.peerSeq {
			return r.resync()
		}
		r.state = rxFrameSeq
	case rxFrameCode:
		r.frame.Code = b & codeMask
		switch n := (b & lenMask) >> lenShift; n {
		case 0:
			return r.complete()
		case lenSpill:
			r.state = rxFrameLen
		default:
			r.alloc(int(n))
		}
	case rxFrameLen:
		if b > MaxFrameData {
			return r.resync()
		}
		if b == 0 {
			return r.complete()
		}
		r.alloc(int(b))
	case rxFrameData:
		r.frame.Data[r.filled] = b
		if r.filled++; r.filled >= len(r.frame.Data) {
			return r.complete()
		}
	}
	return 0, nil
}

func (r *Receiver) alloc(n int) {
	r.frame.Data, r.filled = make([]byte, n), 0
	r.state = rxFrameData
}

func (r *Receiver) resync() (byte, *Frame) {
	r.state = rxWaitAck
	return ctlSync, nil
}

func (r *Receiver) complete() (byte, *Frame) {
	f := r.frame
	r.frame, r.state = nil, rxFrameSeq
	return 0, f
}
