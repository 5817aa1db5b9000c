package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Session はローカルメディアストリームの取得と解放を管理する
//
// Devices, Status, Stream の3つの状態セルをUIに公開する。
// Stream が nil でなければ Status は常に StatusConnected になる。
type Session struct {
	host     Host
	settings Settings
	log      zerolog.Logger

	Devices *Cell[[]Device]
	Status  *Cell[Status]
	Stream  *Cell[Stream]

	// 操作を直列化する
	actionMu sync.Mutex
}

// NewSession は新しいSessionを作成する
func NewSession(host Host, settings Settings, logger zerolog.Logger) *Session {
	if settings.Width <= 0 {
		settings.Width = DefaultWidth
	}
	if settings.Height <= 0 {
		settings.Height = DefaultHeight
	}
	if settings.FacingMode == "" {
		settings.FacingMode = DefaultFacingMode
	}

	return &Session{
		host:     host,
		settings: settings,
		log:      logger.With().Str("component", "media_session").Logger(),
		Devices:  NewCell[[]Device](nil),
		Status:   NewCell(StatusInitializing),
		Stream:   NewCell[Stream](nil),
	}
}

// EnumerateDevices はカメラデバイスを列挙してDevicesを更新する
// 失敗時はログ出力のみ行い、以前の一覧を保持する
func (s *Session) EnumerateDevices(ctx context.Context) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	s.enumerateDevices(ctx)
}

// Start はカメラストリームを開始する
// deviceIDが空の場合は前面カメラを要求する
func (s *Session) Start(ctx context.Context, deviceID string) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	if err := ensureCameraAvailable(s.host); err != nil {
		s.log.Error().Err(err).Msg("カメラを開始できません")
		return err
	}

	// 同じデバイスを開き直せるよう先に解放する
	if previous := s.Stream.Get(); previous != nil {
		s.releaseStream(previous)
		s.clear(StatusDisconnected)
	}

	constraints := s.videoConstraints(deviceID)
	stream, err := s.host.GetUserMedia(ctx, constraints)
	if err != nil {
		acqErr := newAcquireError("NotReadableError", err)
		s.log.Error().Str("device_id", deviceID).Msg(acqErr.Error())
		s.clear(StatusDisconnected)
		return fmt.Errorf("カメラストリームの取得に失敗: %w", acqErr)
	}

	s.publish(stream)
	s.log.Info().
		Str("stream_id", stream.ID()).
		Str("device_id", deviceID).
		Msg("カメラストリームを開始しました")

	s.enumerateDevices(ctx)
	return nil
}

// StartScreenCapture はウィンドウの画面キャプチャを開始する
// 失敗時はログ出力のみ行い、状態は変更しない
func (s *Session) StartScreenCapture(ctx context.Context) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	constraints := DisplayConstraints{
		Surface:          s.settings.DisplaySurface,
		SurfaceSwitching: s.settings.SurfaceSwitching,
	}

	stream, err := s.host.GetDisplayMedia(ctx, constraints)
	if err != nil {
		s.log.Error().Err(err).Msg("画面キャプチャの取得に失敗")
		return
	}

	tracks := stream.VideoTracks()
	if len(tracks) == 0 {
		s.log.Error().Str("stream_id", stream.ID()).Msg("画面キャプチャに映像トラックがありません")
		s.releaseStream(stream)
		return
	}
	s.log.Info().
		Str("track_id", tracks[0].ID()).
		Interface("constraints", stream.Constraints()).
		Msg("画面キャプチャのトラック")

	previous := s.Stream.Get()
	s.publish(stream)
	s.releaseStream(previous)
}

// SwitchCamera は接続中のカメラを別のデバイスに切り替える
// 未接続の場合は何もしない。取得に失敗した場合は現在のストリームを維持する
func (s *Session) SwitchCamera(ctx context.Context, deviceID string) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	if s.Status.Get() != StatusConnected {
		return nil
	}

	if err := ensureCameraAvailable(s.host); err != nil {
		s.log.Error().Err(err).Msg("カメラを切り替えできません")
		return err
	}

	stream, err := s.host.GetUserMedia(ctx, s.videoConstraints(deviceID))
	if err != nil {
		acqErr := newAcquireError("NotReadableError", err)
		s.log.Error().Str("device_id", deviceID).Msg(acqErr.Error())
		return nil
	}

	previous := s.Stream.Get()
	s.publish(stream)
	s.releaseStream(previous)

	s.log.Info().
		Str("stream_id", stream.ID()).
		Str("device_id", deviceID).
		Msg("カメラを切り替えました")
	return nil
}

// Stop はアクティブなストリームの全トラックを停止して切断状態にする
func (s *Session) Stop(_ context.Context) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	s.releaseStream(s.Stream.Get())
	s.clear(StatusDisconnected)
}

// Snapshot は状態セルの現在値をまとめて返す
func (s *Session) Snapshot() State {
	return State{
		Status:  s.Status.Get(),
		Devices: s.Devices.Get(),
		Stream:  s.Stream.Get(),
	}
}

// State はSessionの状態のスナップショット
type State struct {
	Status  Status
	Devices []Device
	Stream  Stream
}

// enumerateDevices は実際の列挙処理を実行する（ロック済み前提）
func (s *Session) enumerateDevices(ctx context.Context) {
	devices, err := s.host.EnumerateDevices(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("デバイスの列挙に失敗")
		return
	}

	cameras := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Kind == KindVideoInput {
			cameras = append(cameras, d)
		}
	}

	s.Devices.Set(cameras)
}

// videoConstraints はカメラ取得条件を組み立てる
func (s *Session) videoConstraints(deviceID string) VideoConstraints {
	if deviceID != "" {
		return VideoConstraints{
			DeviceID: deviceID,
			Width:    s.settings.Width,
			Height:   s.settings.Height,
		}
	}
	return VideoConstraints{
		Width:      s.settings.Width,
		Height:     s.settings.Height,
		FacingMode: s.settings.FacingMode,
	}
}

// publish は接続状態を先に公開してからストリームを設定する
func (s *Session) publish(stream Stream) {
	s.Status.Set(StatusConnected)
	s.Stream.Set(stream)
}

// clear はストリームを先に外してから状態を設定する
func (s *Session) clear(status Status) {
	s.Stream.Set(nil)
	s.Status.Set(status)
}

// releaseStream はストリームの全トラックを停止する
func (s *Session) releaseStream(stream Stream) {
	if stream == nil {
		return
	}

	for _, track := range stream.Tracks() {
		if err := track.Stop(); err != nil {
			s.log.Warn().Err(err).Str("track_id", track.ID()).Msg("トラックの停止に失敗")
		}
	}
}
