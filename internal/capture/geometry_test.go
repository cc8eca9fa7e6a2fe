package capture

import "testing"

func TestDisplaySize(t *testing.T) {
	tests := []struct {
		name                       string
		captureW, captureH         int
		viewW, viewH               int
		wantW, wantH               int
	}{
		{
			name:     "viewport matches capture aspect",
			captureW: 640, captureH: 480,
			viewW: 320, viewH: 240,
			wantW: 320, wantH: 240,
		},
		{
			name:     "wide viewport is height-bound",
			captureW: 640, captureH: 480,
			viewW: 1000, viewH: 300,
			wantW: 400, wantH: 300,
		},
		{
			name:     "tall landscape-capture viewport rotates",
			captureW: 640, captureH: 480,
			viewW: 480, viewH: 640,
			wantW: 480, wantH: 640,
		},
		{
			name:     "narrow viewport is width-bound",
			captureW: 640, captureH: 480,
			viewW: 320, viewH: 480,
			wantW: 320, wantH: 426,
		},
		{
			name:     "zero viewport falls back to capture size",
			captureW: 640, captureH: 480,
			viewW: 0, viewH: 0,
			wantW: 640, wantH: 480,
		},
		{
			name:     "zero capture falls back to viewport",
			captureW: 0, captureH: 0,
			viewW: 320, viewH: 240,
			wantW: 320, wantH: 240,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := DisplaySize(tt.captureW, tt.captureH, tt.viewW, tt.viewH)
			if gotW != tt.wantW || gotH != tt.wantH {
				t.Errorf("DisplaySize(%d, %d, %d, %d) = %dx%d, want %dx%d",
					tt.captureW, tt.captureH, tt.viewW, tt.viewH, gotW, gotH, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDisplaySize_Even(t *testing.T) {
	// 3:2 capture into a 101x67 viewport produces odd candidates; the
	// result must still be even in both dimensions.
	w, h := DisplaySize(600, 400, 101, 67)
	if w%2 != 0 || h%2 != 0 {
		t.Errorf("DisplaySize produced odd dimensions %dx%d", w, h)
	}
}

func TestDisplaySize_LaterSizeSupersedes(t *testing.T) {
	// Successive calls are independent; the policy holds no state.
	w1, h1 := DisplaySize(640, 480, 320, 240)
	_, _ = DisplaySize(640, 480, 1280, 960)
	w2, h2 := DisplaySize(640, 480, 320, 240)
	if w1 != w2 || h1 != h2 {
		t.Errorf("DisplaySize is not stateless: %dx%d vs %dx%d", w1, h1, w2, h2)
	}
}
