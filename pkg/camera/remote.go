package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v3"
)

// DefaultProducerName is the meta name the phone capture page registers
// under on the signalling server.
const DefaultProducerName = "securevote-camera"

const (
	decodeInterval = 100 * time.Millisecond
	decodeTimeout  = 200 * time.Millisecond
)

// Remote receives frames from a phone or browser camera over WebRTC using a
// GStreamer-compatible websocket signalling server. H264 is reassembled from
// RTP and decoded to JPEG through ffmpeg.
type Remote struct {
	signallingURL string

	// ProducerName selects which producer to consume. Empty takes the first
	// one listed. Set before Connect.
	ProducerName string

	// Logger receives connection diagnostics. Set before Connect.
	Logger *slog.Logger

	ws   *websocket.Conn
	wsMu sync.Mutex
	pc   *webrtc.PeerConnection

	myPeerID   string
	producerID string
	sessionID  string

	frameMu     sync.RWMutex
	latestFrame []byte

	decodeMu   sync.Mutex
	lastDecode time.Time

	trackReady chan struct{}

	closeMu sync.Mutex
	closed  bool
}

var _ Device = (*Remote)(nil)

// NewRemote creates a remote camera client for the given signalling URL.
func NewRemote(signallingURL string) *Remote {
	return &Remote{
		signallingURL: signallingURL,
		ProducerName:  DefaultProducerName,
		trackReady:    make(chan struct{}, 1),
	}
}

func (r *Remote) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Connect dials the signalling server, negotiates a receive-only video
// session with the producer, and waits for the first track.
func (r *Remote) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	ws, _, err := dialer.DialContext(ctx, r.signallingURL, nil)
	if err != nil {
		return fmt.Errorf("camera: signalling connect: %w", err)
	}
	r.ws = ws

	if err := r.waitForWelcome(); err != nil {
		r.Close()
		return fmt.Errorf("camera: welcome: %w", err)
	}
	r.logger().Debug("signalling welcome", "peer_id", r.myPeerID)

	if err := r.findProducer(); err != nil {
		r.Close()
		return fmt.Errorf("camera: find producer: %w", err)
	}
	r.logger().Debug("found producer", "producer_id", r.producerID)

	if err := r.createPeerConnection(); err != nil {
		r.Close()
		return fmt.Errorf("camera: peer connection: %w", err)
	}

	if err := r.startSession(); err != nil {
		r.Close()
		return fmt.Errorf("camera: start session: %w", err)
	}

	go r.handleSignalling()

	select {
	case <-r.trackReady:
		r.logger().Info("remote camera connected", "producer", r.ProducerName)
	case <-time.After(15 * time.Second):
		r.Close()
		return fmt.Errorf("camera: timeout waiting for video track")
	case <-ctx.Done():
		r.Close()
		return ctx.Err()
	}

	return nil
}

func (r *Remote) waitForWelcome() error {
	r.ws.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := r.ws.ReadMessage()
	r.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var welcome struct {
		Type   string `json:"type"`
		PeerID string `json:"peerId"`
	}
	if err := json.Unmarshal(msg, &welcome); err != nil {
		return err
	}
	if welcome.Type != "welcome" {
		return fmt.Errorf("expected welcome, got %s", welcome.Type)
	}
	r.myPeerID = welcome.PeerID
	return nil
}

func (r *Remote) findProducer() error {
	if err := r.writeJSON(map[string]string{"type": "list"}); err != nil {
		return err
	}

	r.ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := r.ws.ReadMessage()
	r.ws.SetReadDeadline(time.Time{})
	if err != nil {
		return err
	}

	var listResp struct {
		Type      string `json:"type"`
		Producers []struct {
			ID   string            `json:"id"`
			Meta map[string]string `json:"meta"`
		} `json:"producers"`
	}
	if err := json.Unmarshal(msg, &listResp); err != nil {
		return err
	}

	for _, p := range listResp.Producers {
		if r.ProducerName == "" || p.Meta["name"] == r.ProducerName {
			r.producerID = p.ID
			return nil
		}
	}
	return fmt.Errorf("producer %q not found among %d producers", r.ProducerName, len(listResp.Producers))
}

func (r *Remote) createPeerConnection() error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err
	}
	r.pc = pc

	// Receive only; the kiosk never sends media.
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return err
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		r.logger().Debug("track added", "kind", track.Kind().String(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go r.readTrack(track)
		}
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate != nil {
			r.sendICECandidate(candidate)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		r.logger().Debug("peer connection state", "state", state.String())
	})

	return nil
}

func (r *Remote) startSession() error {
	return r.writeJSON(map[string]string{
		"type":   "startSession",
		"peerId": r.producerID,
	})
}

// peerEnvelope is the signalling message shape shared by SDP and ICE
// exchanges.
type peerEnvelope struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	SDP       *struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	} `json:"sdp,omitempty"`
	ICE *struct {
		Candidate     string  `json:"candidate"`
		SDPMid        *string `json:"sdpMid"`
		SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
	} `json:"ice,omitempty"`
}

func (r *Remote) handleSignalling() {
	for !r.isClosed() {
		_, msg, err := r.ws.ReadMessage()
		if err != nil {
			if !r.isClosed() {
				r.logger().Warn("signalling read failed", "error", err)
			}
			return
		}

		var envelope peerEnvelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			continue
		}

		switch envelope.Type {
		case "sessionStarted":
			r.sessionID = envelope.SessionID
		case "peer":
			r.handlePeer(envelope)
		case "endSession":
			r.logger().Info("producer ended session")
			return
		}
	}
}

func (r *Remote) handlePeer(envelope peerEnvelope) {
	if envelope.SDP != nil && envelope.SDP.Type == "offer" {
		offer := webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer,
			SDP:  envelope.SDP.SDP,
		}
		if err := r.pc.SetRemoteDescription(offer); err != nil {
			r.logger().Warn("set remote description failed", "error", err)
			return
		}

		answer, err := r.pc.CreateAnswer(nil)
		if err != nil {
			r.logger().Warn("create answer failed", "error", err)
			return
		}
		if err := r.pc.SetLocalDescription(answer); err != nil {
			r.logger().Warn("set local description failed", "error", err)
			return
		}
		r.sendSDP(answer)
	}

	if envelope.ICE != nil {
		var sdpMid string
		if envelope.ICE.SDPMid != nil {
			sdpMid = *envelope.ICE.SDPMid
		}
		var sdpMLineIndex uint16
		if envelope.ICE.SDPMLineIndex != nil {
			sdpMLineIndex = *envelope.ICE.SDPMLineIndex
		}
		r.pc.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     envelope.ICE.Candidate,
			SDPMid:        &sdpMid,
			SDPMLineIndex: &sdpMLineIndex,
		})
	}
}

func (r *Remote) sendSDP(sdp webrtc.SessionDescription) {
	msg := map[string]interface{}{
		"type":      "peer",
		"sessionId": r.sessionID,
		"sdp": map[string]string{
			"type": sdp.Type.String(),
			"sdp":  sdp.SDP,
		},
	}
	if err := r.writeJSON(msg); err != nil {
		r.logger().Warn("send sdp failed", "error", err)
	}
}

func (r *Remote) sendICECandidate(candidate *webrtc.ICECandidate) {
	if r.sessionID == "" {
		return
	}

	init := candidate.ToJSON()
	msg := map[string]interface{}{
		"type":      "peer",
		"sessionId": r.sessionID,
		"ice": map[string]interface{}{
			"candidate":     init.Candidate,
			"sdpMid":        init.SDPMid,
			"sdpMLineIndex": init.SDPMLineIndex,
		},
	}
	if err := r.writeJSON(msg); err != nil {
		r.logger().Warn("send ice candidate failed", "error", err)
	}
}

func (r *Remote) writeJSON(v interface{}) error {
	r.wsMu.Lock()
	defer r.wsMu.Unlock()
	return r.ws.WriteJSON(v)
}

func (r *Remote) readTrack(track *webrtc.TrackRemote) {
	select {
	case r.trackReady <- struct{}{}:
	default:
	}

	depacketizer := &codecs.H264Packet{}
	var annexB bytes.Buffer

	for !r.isClosed() {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		r.collect(&annexB, depacketizer, pkt)
	}
}

// collect appends the packet's NAL units and decodes when the marker bit
// closes an access unit.
func (r *Remote) collect(annexB *bytes.Buffer, dep *codecs.H264Packet, pkt *rtp.Packet) {
	nal, err := dep.Unmarshal(pkt.Payload)
	if err != nil {
		return
	}
	annexB.Write(nal)

	if pkt.Marker && annexB.Len() > 0 {
		r.maybeDecode(annexB.Bytes())
		annexB.Reset()
	}
}

func (r *Remote) maybeDecode(annexB []byte) {
	r.decodeMu.Lock()
	if time.Since(r.lastDecode) < decodeInterval {
		r.decodeMu.Unlock()
		return
	}
	r.lastDecode = time.Now()
	r.decodeMu.Unlock()

	jpegData, err := decodeH264(annexB)
	if err != nil {
		r.logger().Debug("decode failed", "error", err)
		return
	}
	if jpegData == nil {
		return
	}
	if w, h, err := DecodeBounds(jpegData); err != nil || w < 100 || h < 100 {
		return
	}
	if looksGray(jpegData) {
		return
	}

	r.frameMu.Lock()
	r.latestFrame = jpegData
	r.frameMu.Unlock()
}

// decodeH264 feeds Annex B NAL units through ffmpeg and returns one JPEG,
// or nil when the buffer does not hold a decodable frame yet.
func decodeH264(annexB []byte) ([]byte, error) {
	if len(annexB) < 100 {
		return nil, nil
	}

	cmd := exec.Command("ffmpeg",
		"-f", "h264",
		"-i", "pipe:0",
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "3",
		"pipe:1",
	)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("camera: ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("camera: start ffmpeg: %w", err)
	}

	go func() {
		stdin.Write(annexB)
		stdin.Close()
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			// ffmpeg exits nonzero until a full frame has arrived
			return nil, nil
		}
	case <-time.After(decodeTimeout):
		cmd.Process.Kill()
		<-done
		return nil, nil
	}

	if stdout.Len() == 0 {
		return nil, nil
	}
	return stdout.Bytes(), nil
}

// looksGray reports whether the frame is the uniform gray a decoder emits
// before the first keyframe arrives.
func looksGray(jpegData []byte) bool {
	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return true
	}

	bounds := img.Bounds()
	var rSum, gSum, bSum, samples int
	stepX, stepY := bounds.Dx()/10, bounds.Dy()/10
	if stepX == 0 || stepY == 0 {
		return true
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			rSum += int(r >> 8)
			gSum += int(g >> 8)
			bSum += int(b >> 8)
			samples++
		}
	}
	if samples == 0 {
		return true
	}

	avgR, avgG, avgB := rSum/samples, gSum/samples, bSum/samples
	colorDiff := abs(avgR-avgG) + abs(avgG-avgB) + abs(avgR-avgB)
	return colorDiff < 15 && avgR > 100 && avgR < 150
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ReadFrame returns the latest decoded frame as JPEG bytes.
func (r *Remote) ReadFrame() ([]byte, error) {
	if r.isClosed() {
		return nil, ErrDeviceClosed
	}

	r.frameMu.RLock()
	defer r.frameMu.RUnlock()
	if r.latestFrame == nil {
		return nil, ErrNoFrame
	}

	frame := make([]byte, len(r.latestFrame))
	copy(frame, r.latestFrame)
	return frame, nil
}

// Close tears down the peer connection and the signalling socket.
func (r *Remote) Close() error {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return nil
	}
	r.closed = true
	r.closeMu.Unlock()

	if r.pc != nil {
		r.pc.Close()
	}
	if r.ws != nil {
		r.ws.Close()
	}
	return nil
}

func (r *Remote) isClosed() bool {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	return r.closed
}
