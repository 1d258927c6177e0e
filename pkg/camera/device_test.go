package camera

import (
	"errors"
	"testing"
)

func TestTestFrameDecodes(t *testing.T) {
	data := TestFrame(320, 240)

	w, h, err := DecodeBounds(data)
	if err != nil {
		t.Fatalf("DecodeBounds() error = %v", err)
	}
	if w != 320 || h != 240 {
		t.Errorf("bounds = %dx%d, want 320x240", w, h)
	}
}

func TestDecodeBoundsRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeBounds([]byte("not a jpeg")); err == nil {
		t.Error("DecodeBounds should fail on non-JPEG data")
	}
	if _, _, err := DecodeBounds(nil); err == nil {
		t.Error("DecodeBounds should fail on empty data")
	}
}

func TestMockDeviceDefaults(t *testing.T) {
	dev := &MockDevice{}

	frame, err := dev.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	if w, h, err := DecodeBounds(frame); err != nil || w == 0 || h == 0 {
		t.Errorf("default frame not decodable: %dx%d err=%v", w, h, err)
	}

	if err := dev.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if dev.ReadCalls() != 1 || dev.CloseCalls() != 1 {
		t.Errorf("recorded calls = %d/%d, want 1/1", dev.ReadCalls(), dev.CloseCalls())
	}
}

func TestMockDeviceFuncs(t *testing.T) {
	wantErr := errors.New("boom")
	dev := &MockDevice{
		ReadFrameFunc: func() ([]byte, error) { return nil, wantErr },
	}

	if _, err := dev.ReadFrame(); !errors.Is(err, wantErr) {
		t.Errorf("ReadFrame() error = %v, want %v", err, wantErr)
	}

	dev.Reset()
	if dev.ReadCalls() != 0 {
		t.Errorf("ReadCalls after Reset = %d, want 0", dev.ReadCalls())
	}
}

func TestLooksGrayOnGradient(t *testing.T) {
	// The synthetic gradient has strong color variance and must pass.
	if looksGray(TestFrame(320, 240)) {
		t.Error("looksGray() = true for gradient frame")
	}
	if !looksGray([]byte("junk")) {
		t.Error("looksGray() = false for undecodable data")
	}
}
