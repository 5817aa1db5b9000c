package server

import (
	"time"

	"camsession/internal/media"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse はセッション状態のレスポンス
type StatusResponse struct {
	Status    media.Status   `json:"status"`
	Stream    *StreamInfo    `json:"stream"`
	Devices   []media.Device `json:"devices"`
	Timestamp time.Time      `json:"timestamp"`
}

// StreamInfo はアクティブストリームの情報
type StreamInfo struct {
	ID          string      `json:"id"`
	Tracks      []TrackInfo `json:"tracks"`
	Constraints any         `json:"constraints"`
}

// TrackInfo はトラックの情報
type TrackInfo struct {
	ID   string           `json:"id"`
	Kind media.DeviceKind `json:"kind"`
}

// DevicesResponse はデバイス一覧のレスポンス
type DevicesResponse struct {
	Devices []media.Device `json:"devices"`
}

// StartRequest はストリーム開始のリクエスト
type StartRequest struct {
	DeviceID string `json:"device_id"`
}

// SwitchRequest はカメラ切り替えのリクエスト
type SwitchRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// ErrorResponse はエラーレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// newStatusResponse はセッション状態からレスポンスを作成する
func newStatusResponse(state media.State) StatusResponse {
	devices := state.Devices
	if devices == nil {
		devices = []media.Device{}
	}

	return StatusResponse{
		Status:    state.Status,
		Stream:    newStreamInfo(state.Stream),
		Devices:   devices,
		Timestamp: time.Now(),
	}
}

// newStreamInfo はストリームの情報を変換する
func newStreamInfo(stream media.Stream) *StreamInfo {
	if stream == nil {
		return nil
	}

	tracks := stream.Tracks()
	info := &StreamInfo{
		ID:          stream.ID(),
		Tracks:      make([]TrackInfo, 0, len(tracks)),
		Constraints: stream.Constraints(),
	}
	for _, t := range tracks {
		info.Tracks = append(info.Tracks, TrackInfo{ID: t.ID(), Kind: t.Kind()})
	}
	return info
}
