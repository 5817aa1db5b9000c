package media

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestSession(devices []Device) (*Session, *MockHost) {
	host := NewMockHost(devices)
	return NewSession(host, DefaultSettings(), zerolog.Nop()), host
}

func testDevices() []Device {
	return []Device{
		{ID: "cam-front", Kind: KindVideoInput, Label: "Front Camera"},
		{ID: "mic-0", Kind: KindAudioInput, Label: "Microphone"},
		{ID: "cam-back", Kind: KindVideoInput, Label: "Back Camera"},
		{ID: "speaker-0", Kind: KindAudioOutput, Label: "Speaker"},
	}
}

func TestSession_InitialState(t *testing.T) {
	session, _ := newTestSession(nil)

	if session.Status.Get() != StatusInitializing {
		t.Errorf("Expected initial status to be init, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected initial stream to be nil")
	}
	if len(session.Devices.Get()) != 0 {
		t.Errorf("Expected no devices initially, got %d", len(session.Devices.Get()))
	}
}

func TestSession_StartStop(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
	stream := session.Stream.Get()
	if stream == nil {
		t.Fatal("Expected stream to be set after start")
	}

	session.Stop(ctx)

	if session.Status.Get() != StatusDisconnected {
		t.Errorf("Expected status disconnected, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected stream to be nil after stop")
	}
	if !stream.(*MockStream).Stopped() {
		t.Error("Expected all tracks to be stopped after stop")
	}
}

func TestSession_StartDefaultConstraints(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	var transitions []Status
	unsubscribe := session.Status.Subscribe(func(s Status) {
		transitions = append(transitions, s)
	})
	defer unsubscribe()

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	calls := host.UserMediaCalls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 getUserMedia call, got %d", len(calls))
	}
	want := VideoConstraints{Width: 1024, Height: 1024, FacingMode: "user"}
	if calls[0] != want {
		t.Errorf("Expected constraints %+v, got %+v", want, calls[0])
	}

	if len(transitions) != 2 || transitions[0] != StatusInitializing || transitions[1] != StatusConnected {
		t.Errorf("Expected transitions [init connected], got %v", transitions)
	}
}

func TestSession_StartWithDevice(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	if err := session.Start(ctx, "cam-back"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	calls := host.UserMediaCalls()
	want := VideoConstraints{DeviceID: "cam-back", Width: 1024, Height: 1024}
	if len(calls) != 1 || calls[0] != want {
		t.Errorf("Expected constraints %+v, got %+v", want, calls)
	}
}

func TestSession_StartRefreshesDevices(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if host.EnumerateCalls() != 1 {
		t.Errorf("Expected 1 enumerate call, got %d", host.EnumerateCalls())
	}
	if len(session.Devices.Get()) != 2 {
		t.Errorf("Expected 2 cameras after start, got %d", len(session.Devices.Get()))
	}
}

func TestSession_StartPlatformFailure(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())
	host.SetUserMediaError(&AcquireError{Name: "NotAllowedError", Message: "Permission denied"})

	err := session.Start(ctx, "")
	if err == nil {
		t.Fatal("Expected error from start")
	}

	var acqErr *AcquireError
	if !errors.As(err, &acqErr) {
		t.Fatalf("Expected AcquireError, got %T", err)
	}
	if acqErr.Name != "NotAllowedError" {
		t.Errorf("Expected NotAllowedError, got %s", acqErr.Name)
	}

	if session.Status.Get() != StatusDisconnected {
		t.Errorf("Expected status disconnected, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected stream to be nil after failure")
	}
}

func TestSession_StartPlainErrorIsWrapped(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())
	cause := errors.New("device busy")
	host.SetUserMediaError(cause)

	err := session.Start(ctx, "")
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to wrap cause, got %v", err)
	}
}

func TestSession_StartPreconditions(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		prepare func(h *MockHost)
		wantErr error
	}{
		{
			name:    "insecure remote origin",
			prepare: func(h *MockHost) { h.SetOrigin(Origin{Hostname: "192.168.1.20"}) },
			wantErr: ErrInsecureContext,
		},
		{
			name:    "media unavailable",
			prepare: func(h *MockHost) { h.SetUnavailable(true) },
			wantErr: ErrMediaUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			session, host := newTestSession(testDevices())
			tc.prepare(host)

			err := session.Start(ctx, "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Expected %v, got %v", tc.wantErr, err)
			}
			if len(host.UserMediaCalls()) != 0 {
				t.Error("Expected no platform call before precondition failure")
			}
			if host.EnumerateCalls() != 0 {
				t.Error("Expected no enumeration before precondition failure")
			}
			if session.Status.Get() != StatusInitializing {
				t.Errorf("Expected status unchanged, got %s", session.Status.Get())
			}
		})
	}
}

func TestSession_StartSecureRemoteOrigin(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())
	host.SetOrigin(Origin{Secure: true, Hostname: "camera.example.com"})

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
}

func TestSession_RestartReleasesPreviousStream(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	if err := session.Start(ctx, "cam-front"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first := session.Stream.Get().(*MockStream)

	if err := session.Start(ctx, "cam-back"); err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	if !first.Stopped() {
		t.Error("Expected previous stream to be released on restart")
	}
	if session.Stream.Get().ID() == first.ID() {
		t.Error("Expected stream to be replaced")
	}
}

// acquisitionStateHost はGetUserMedia呼び出し時点のSession状態を記録する
type acquisitionStateHost struct {
	*MockHost
	session *Session
	status  Status
	stream  Stream
}

func (h *acquisitionStateHost) GetUserMedia(ctx context.Context, constraints VideoConstraints) (Stream, error) {
	h.status = h.session.Status.Get()
	h.stream = h.session.Stream.Get()
	return h.MockHost.GetUserMedia(ctx, constraints)
}

func TestSession_RestartHidesReleasedStream(t *testing.T) {
	ctx := context.Background()
	host := &acquisitionStateHost{MockHost: NewMockHost(testDevices())}
	session := NewSession(host, DefaultSettings(), zerolog.Nop())
	host.session = session

	if err := session.Start(ctx, "cam-front"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var transitions []Status
	unsubscribe := session.Status.Subscribe(func(s Status) {
		transitions = append(transitions, s)
	})
	defer unsubscribe()

	if err := session.Start(ctx, "cam-back"); err != nil {
		t.Fatalf("Second start failed: %v", err)
	}

	if host.stream != nil {
		t.Error("Expected released stream to be cleared before acquisition")
	}
	if host.status != StatusDisconnected {
		t.Errorf("Expected status disconnected during acquisition, got %s", host.status)
	}

	want := []Status{StatusConnected, StatusDisconnected, StatusConnected}
	if len(transitions) != len(want) {
		t.Fatalf("Expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("Expected transitions %v, got %v", want, transitions)
			break
		}
	}
}

func TestSession_EnumerateDevices(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	session.EnumerateDevices(ctx)

	devices := session.Devices.Get()
	if len(devices) != 2 {
		t.Fatalf("Expected 2 cameras, got %d", len(devices))
	}
	for _, d := range devices {
		if d.Kind != KindVideoInput {
			t.Errorf("Expected only video inputs, got %s (%s)", d.ID, d.Kind)
		}
	}
	if devices[0].ID != "cam-front" || devices[1].ID != "cam-back" {
		t.Errorf("Expected enumeration order to be kept, got %v", devices)
	}
}

func TestSession_EnumerateDevicesFailureKeepsList(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	session.EnumerateDevices(ctx)
	host.SetEnumerateError(errors.New("enumeration failed"))
	host.AddDevice(Device{ID: "cam-usb", Kind: KindVideoInput})

	session.EnumerateDevices(ctx)

	if len(session.Devices.Get()) != 2 {
		t.Errorf("Expected previous list to be kept, got %d devices", len(session.Devices.Get()))
	}
}

func TestSession_SwitchCameraWhileDisconnected(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	if err := session.SwitchCamera(ctx, "cam-back"); err != nil {
		t.Fatalf("SwitchCamera failed: %v", err)
	}

	if session.Status.Get() != StatusInitializing {
		t.Errorf("Expected status unchanged, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected stream to stay nil")
	}
	if len(host.UserMediaCalls()) != 0 {
		t.Error("Expected no platform call while disconnected")
	}

	// 停止後も同様
	session.Stop(ctx)
	if err := session.SwitchCamera(ctx, "cam-back"); err != nil {
		t.Fatalf("SwitchCamera failed: %v", err)
	}
	if session.Status.Get() != StatusDisconnected || session.Stream.Get() != nil {
		t.Error("Expected switch to be a no-op after stop")
	}
}

func TestSession_SwitchCamera(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	if err := session.Start(ctx, "cam-front"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	previous := session.Stream.Get().(*MockStream)

	if err := session.SwitchCamera(ctx, "cam-back"); err != nil {
		t.Fatalf("SwitchCamera failed: %v", err)
	}

	current := session.Stream.Get()
	if current == nil || current.ID() == previous.ID() {
		t.Fatal("Expected stream to be replaced")
	}
	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
	if !previous.Stopped() {
		t.Error("Expected previous stream to be released after switch")
	}

	calls := host.UserMediaCalls()
	last := calls[len(calls)-1]
	if last.DeviceID != "cam-back" || last.FacingMode != "" {
		t.Errorf("Expected exact device constraints, got %+v", last)
	}
}

func TestSession_SwitchCameraFailureKeepsStream(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	if err := session.Start(ctx, "cam-front"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	previous := session.Stream.Get().(*MockStream)

	// 存在しないデバイスへの切り替えは失敗する
	if err := session.SwitchCamera(ctx, "cam-missing"); err != nil {
		t.Fatalf("Expected platform failure to be swallowed, got %v", err)
	}

	if session.Stream.Get().ID() != previous.ID() {
		t.Error("Expected previous stream to be kept")
	}
	if previous.Stopped() {
		t.Error("Expected previous stream to keep running")
	}
	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
}

func TestSession_SwitchCameraPreconditionFailure(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	host.SetOrigin(Origin{Hostname: "example.com"})

	err := session.SwitchCamera(ctx, "cam-back")
	if !errors.Is(err, ErrInsecureContext) {
		t.Fatalf("Expected ErrInsecureContext, got %v", err)
	}
	if len(host.UserMediaCalls()) != 1 {
		t.Errorf("Expected no additional platform call, got %d calls", len(host.UserMediaCalls()))
	}
}

func TestSession_StartScreenCapture(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(nil)

	session.StartScreenCapture(ctx)

	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
	if session.Stream.Get() == nil {
		t.Fatal("Expected screen stream to be set")
	}

	calls := host.DisplayMediaCalls()
	want := DisplayConstraints{Surface: "window", SurfaceSwitching: "include"}
	if len(calls) != 1 || calls[0] != want {
		t.Errorf("Expected display constraints %+v, got %+v", want, calls)
	}
}

func TestSession_StartScreenCaptureReplacesCamera(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	camera := session.Stream.Get().(*MockStream)

	session.StartScreenCapture(ctx)

	if !camera.Stopped() {
		t.Error("Expected camera stream to be released")
	}
	if session.Stream.Get().ID() == camera.ID() {
		t.Error("Expected screen stream to replace camera stream")
	}
}

func TestSession_StartScreenCaptureFailure(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(nil)
	host.SetDisplayMediaError(errors.New("permission denied"))

	session.StartScreenCapture(ctx)

	if session.Status.Get() != StatusInitializing {
		t.Errorf("Expected status unchanged, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected stream to stay nil")
	}
}

// audioOnlyDisplayHost は映像トラックのない画面キャプチャを返す
type audioOnlyDisplayHost struct {
	*MockHost
	returned *MockStream
}

func (h *audioOnlyDisplayHost) GetDisplayMedia(_ context.Context, constraints DisplayConstraints) (Stream, error) {
	h.returned = NewMockStream(constraints, NewMockTrack(KindAudioInput))
	return h.returned, nil
}

func TestSession_StartScreenCaptureWithoutVideoTrack(t *testing.T) {
	ctx := context.Background()
	host := &audioOnlyDisplayHost{MockHost: NewMockHost(nil)}
	session := NewSession(host, DefaultSettings(), zerolog.Nop())

	session.StartScreenCapture(ctx)

	if session.Status.Get() != StatusInitializing {
		t.Errorf("Expected status unchanged, got %s", session.Status.Get())
	}
	if session.Stream.Get() != nil {
		t.Error("Expected stream to stay nil")
	}
	if host.returned == nil {
		t.Fatal("Expected GetDisplayMedia to be called")
	}
	if !host.returned.Stopped() {
		t.Error("Expected stream without video track to be released")
	}
}

func TestSession_StartScreenCaptureWithoutVideoTrackKeepsCamera(t *testing.T) {
	ctx := context.Background()
	host := &audioOnlyDisplayHost{MockHost: NewMockHost(testDevices())}
	session := NewSession(host, DefaultSettings(), zerolog.Nop())

	if err := session.Start(ctx, ""); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	camera := session.Stream.Get().(*MockStream)

	session.StartScreenCapture(ctx)

	if session.Status.Get() != StatusConnected {
		t.Errorf("Expected status connected, got %s", session.Status.Get())
	}
	if session.Stream.Get() != Stream(camera) {
		t.Error("Expected camera stream to be kept")
	}
	if camera.Stopped() {
		t.Error("Expected camera stream to keep running")
	}
}

func TestSession_StreamImpliesConnected(t *testing.T) {
	ctx := context.Background()
	session, host := newTestSession(testDevices())

	var mu sync.Mutex
	violations := 0
	unsubscribe := session.Stream.Subscribe(func(s Stream) {
		if s != nil && session.Status.Get() != StatusConnected {
			mu.Lock()
			violations++
			mu.Unlock()
		}
	})
	defer unsubscribe()

	_ = session.Start(ctx, "")
	_ = session.SwitchCamera(ctx, "cam-back")
	session.StartScreenCapture(ctx)
	session.Stop(ctx)
	host.SetUserMediaError(errors.New("busy"))
	_ = session.Start(ctx, "")

	mu.Lock()
	defer mu.Unlock()
	if violations != 0 {
		t.Errorf("Expected stream to be published only while connected, got %d violations", violations)
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	session, _ := newTestSession(testDevices())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = session.Start(ctx, "")
		}()
		go func() {
			defer wg.Done()
			session.Stop(ctx)
		}()
	}
	wg.Wait()

	// 最終状態は不変条件を満たしていること
	state := session.Snapshot()
	if state.Stream != nil && state.Status != StatusConnected {
		t.Errorf("Invariant violated: stream set with status %s", state.Status)
	}
	if state.Stream == nil && state.Status == StatusConnected {
		t.Error("Invariant violated: connected without stream")
	}
}
