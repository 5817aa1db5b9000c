package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockHost はテスト用のモックHost実装
type MockHost struct {
	devices []Device
	origin  Origin
	mu      sync.Mutex

	// テスト制御用
	unavailable         bool
	enumerateErr        error
	userMediaErr        error
	displayMediaErr     error
	userMediaCalls      []VideoConstraints
	displayMediaCalls   []DisplayConstraints
	enumerateCallsCount int
}

// NewMockHost は新しいMockHostを作成する
// originはlocalhostとして扱われる
func NewMockHost(devices []Device) *MockHost {
	return &MockHost{
		devices: devices,
		origin:  Origin{Hostname: "localhost"},
	}
}

// MediaAvailable はモックの取得可否を返す
func (m *MockHost) MediaAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unavailable
}

// Origin はモックのoriginを返す
func (m *MockHost) Origin() Origin {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.origin
}

// EnumerateDevices はモックデバイス一覧を返す
func (m *MockHost) EnumerateDevices(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enumerateCallsCount++
	if m.enumerateErr != nil {
		return nil, m.enumerateErr
	}

	// コピーを返す
	result := make([]Device, len(m.devices))
	copy(result, m.devices)
	return result, nil
}

// GetUserMedia はモックカメラストリームを返す
func (m *MockHost) GetUserMedia(_ context.Context, constraints VideoConstraints) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.userMediaCalls = append(m.userMediaCalls, constraints)
	if m.userMediaErr != nil {
		return nil, m.userMediaErr
	}

	if constraints.DeviceID != "" && !m.hasDeviceLocked(constraints.DeviceID) {
		return nil, &AcquireError{
			Name:    "NotFoundError",
			Message: fmt.Sprintf("デバイスが見つかりません: %s", constraints.DeviceID),
		}
	}

	return NewMockStream(constraints, NewMockTrack(KindVideoInput)), nil
}

// GetDisplayMedia はモック画面キャプチャストリームを返す
func (m *MockHost) GetDisplayMedia(_ context.Context, constraints DisplayConstraints) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.displayMediaCalls = append(m.displayMediaCalls, constraints)
	if m.displayMediaErr != nil {
		return nil, m.displayMediaErr
	}

	return NewMockStream(constraints, NewMockTrack(KindVideoInput)), nil
}

// SetOrigin はテスト用にoriginを設定する
func (m *MockHost) SetOrigin(origin Origin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.origin = origin
}

// SetUnavailable はテスト用にカメラAPIの有無を設定する
func (m *MockHost) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// SetEnumerateError はテスト用に列挙の失敗を設定する
func (m *MockHost) SetEnumerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumerateErr = err
}

// SetUserMediaError はテスト用にカメラ取得の失敗を設定する
func (m *MockHost) SetUserMediaError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userMediaErr = err
}

// SetDisplayMediaError はテスト用に画面キャプチャの失敗を設定する
func (m *MockHost) SetDisplayMediaError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.displayMediaErr = err
}

// AddDevice はテスト用にデバイスを追加する
func (m *MockHost) AddDevice(device Device) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasDeviceLocked(device.ID) {
		return
	}
	m.devices = append(m.devices, device)
}

// UserMediaCalls は記録されたカメラ取得条件を返す
func (m *MockHost) UserMediaCalls() []VideoConstraints {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]VideoConstraints, len(m.userMediaCalls))
	copy(result, m.userMediaCalls)
	return result
}

// DisplayMediaCalls は記録された画面キャプチャ取得条件を返す
func (m *MockHost) DisplayMediaCalls() []DisplayConstraints {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]DisplayConstraints, len(m.displayMediaCalls))
	copy(result, m.displayMediaCalls)
	return result
}

// EnumerateCalls は列挙の呼び出し回数を返す
func (m *MockHost) EnumerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enumerateCallsCount
}

func (m *MockHost) hasDeviceLocked(id string) bool {
	for _, d := range m.devices {
		if d.ID == id {
			return true
		}
	}
	return false
}

// MockStream はテスト用のStream実装
type MockStream struct {
	id          string
	tracks      []Track
	constraints any
}

// NewMockStream は新しいMockStreamを作成する
func NewMockStream(constraints any, tracks ...Track) *MockStream {
	return &MockStream{
		id:          uuid.New().String(),
		tracks:      tracks,
		constraints: constraints,
	}
}

// ID はストリームIDを返す
func (s *MockStream) ID() string { return s.id }

// Tracks は全トラックを返す
func (s *MockStream) Tracks() []Track { return s.tracks }

// VideoTracks は映像トラックを返す
func (s *MockStream) VideoTracks() []Track {
	var video []Track
	for _, t := range s.tracks {
		if t.Kind() == KindVideoInput {
			video = append(video, t)
		}
	}
	return video
}

// Constraints は要求された条件を返す
func (s *MockStream) Constraints() any { return s.constraints }

// Stopped は全トラックが停止済みか返す
func (s *MockStream) Stopped() bool {
	for _, t := range s.tracks {
		if mt, ok := t.(*MockTrack); ok && !mt.Stopped() {
			return false
		}
	}
	return true
}

// MockTrack はテスト用のTrack実装
type MockTrack struct {
	id      string
	kind    DeviceKind
	stopped bool
	mu      sync.Mutex
}

// NewMockTrack は新しいMockTrackを作成する
func NewMockTrack(kind DeviceKind) *MockTrack {
	return &MockTrack{id: uuid.New().String(), kind: kind}
}

// ID はトラックIDを返す
func (t *MockTrack) ID() string { return t.id }

// Kind はトラック種別を返す
func (t *MockTrack) Kind() DeviceKind { return t.kind }

// Stop はトラックを停止する
func (t *MockTrack) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return nil
}

// Stopped は停止済みか返す
func (t *MockTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
