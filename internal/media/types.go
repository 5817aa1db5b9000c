package media

import (
	"context"
)

// Status はメディアストリームの接続状態を表す
type Status string

const (
	StatusInitializing Status = "init"         // 初期化中
	StatusConnected    Status = "connected"    // ストリーム取得済み
	StatusDisconnected Status = "disconnected" // 切断中
)

// DeviceKind はデバイスの種別を表す
type DeviceKind string

const (
	KindVideoInput  DeviceKind = "videoinput"  // カメラ
	KindAudioInput  DeviceKind = "audioinput"  // マイク
	KindAudioOutput DeviceKind = "audiooutput" // スピーカー
)

// Device は列挙されたメディアデバイスの情報
type Device struct {
	ID    string     `json:"device_id"`
	Kind  DeviceKind `json:"kind"`
	Label string     `json:"label"`
}

// DefaultWidth, DefaultHeight はカメラに要求する解像度
const (
	DefaultWidth      = 1024
	DefaultHeight     = 1024
	DefaultFacingMode = "user"
)

// VideoConstraints はカメラ映像の取得条件
type VideoConstraints struct {
	DeviceID   string `json:"device_id,omitempty"`   // 完全一致で要求するデバイス
	Width      int    `json:"width"`                 // 幅
	Height     int    `json:"height"`                // 高さ
	FacingMode string `json:"facing_mode,omitempty"` // DeviceID未指定時のみ使用
}

// DisplayConstraints は画面キャプチャの取得条件
type DisplayConstraints struct {
	Surface          string `json:"display_surface"`   // "window", "monitor" など
	SurfaceSwitching string `json:"surface_switching"` // "include" / "exclude"
}

// Settings はセッションが要求する取得条件の既定値
type Settings struct {
	Width            int
	Height           int
	FacingMode       string
	DisplaySurface   string
	SurfaceSwitching string
}

// DefaultSettings は既定の取得条件を返す
func DefaultSettings() Settings {
	return Settings{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		FacingMode:       DefaultFacingMode,
		DisplaySurface:   "window",
		SurfaceSwitching: "include",
	}
}

// Track はストリーム内の1本の映像・音声ソース
type Track interface {
	ID() string
	Kind() DeviceKind
	// Stop はトラックを停止してハードウェアを解放する
	Stop() error
}

// Stream はライブキャプチャセッションへのハンドル
type Stream interface {
	ID() string
	Tracks() []Track
	VideoTracks() []Track
	// Constraints は取得時に要求した条件を返す
	Constraints() any
}

// Origin はカメラ取得を要求しているコンテキストの情報
type Origin struct {
	Secure   bool   // TLSで提供されている
	Hostname string // ホスト名
	Headless bool   // 表示コンテキストを持たない
}

// Host はプラットフォームのメディア取得機能を抽象化するインターフェース
type Host interface {
	// MediaAvailable はユーザーメディアの取得がサポートされているか返す
	MediaAvailable() bool

	// Origin は現在のコンテキスト情報を返す
	Origin() Origin

	// EnumerateDevices は利用可能なデバイスを列挙する
	EnumerateDevices(ctx context.Context) ([]Device, error)

	// GetUserMedia はカメラ映像ストリームを取得する
	GetUserMedia(ctx context.Context, constraints VideoConstraints) (Stream, error)

	// GetDisplayMedia は画面キャプチャストリームを取得する
	GetDisplayMedia(ctx context.Context, constraints DisplayConstraints) (Stream, error)
}
