package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/prop"
)

// PionHost は github.com/pion/mediadevices を使用する本番用Host実装
//
// ドライバーはエントリポイントでblank importして登録する。
type PionHost struct {
	origin Origin
}

// NewPionHost は新しいPionHostを作成する
func NewPionHost(origin Origin) *PionHost {
	return &PionHost{origin: origin}
}

// MediaAvailable は映像入力ドライバーが1つ以上登録されているか返す
func (h *PionHost) MediaAvailable() bool {
	for _, info := range mediadevices.EnumerateDevices() {
		if info.Kind == mediadevices.VideoInput {
			return true
		}
	}
	return false
}

// Origin はサーバー設定から決まるoriginを返す
func (h *PionHost) Origin() Origin {
	return h.origin
}

// EnumerateDevices は登録済みドライバーのデバイスを列挙する
func (h *PionHost) EnumerateDevices(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos := mediadevices.EnumerateDevices()
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, Device{
			ID:    info.DeviceID,
			Kind:  convertDeviceKind(info.Kind),
			Label: info.Label,
		})
	}

	return devices, nil
}

// GetUserMedia はカメラ映像ストリームを取得する
// 解像度は理想値、デバイスIDは完全一致として要求する
func (h *PionHost) GetUserMedia(ctx context.Context, constraints VideoConstraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquireError{Name: "AbortError", Message: err.Error(), Err: err}
	}

	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			applyVideoConstraints(c, constraints)
		},
	})
	if err != nil {
		return nil, &AcquireError{Name: "NotReadableError", Message: err.Error(), Err: err}
	}

	return newPionStream(stream, constraints), nil
}

// applyVideoConstraints は取得条件をpionの制約に変換する
func applyVideoConstraints(c *mediadevices.MediaTrackConstraints, constraints VideoConstraints) {
	if constraints.DeviceID != "" {
		c.DeviceID = prop.StringExact(constraints.DeviceID)
	}
	c.Width = prop.Int(constraints.Width)
	c.Height = prop.Int(constraints.Height)
	// facingModeに相当するプロパティはないため最適なドライバーの選択に任せる
}

// GetDisplayMedia は画面キャプチャストリームを取得する
func (h *PionHost) GetDisplayMedia(ctx context.Context, constraints DisplayConstraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquireError{Name: "AbortError", Message: err.Error(), Err: err}
	}

	stream, err := mediadevices.GetDisplayMedia(mediadevices.MediaStreamConstraints{
		Video: func(_ *mediadevices.MediaTrackConstraints) {},
	})
	if err != nil {
		return nil, &AcquireError{Name: "NotAllowedError", Message: err.Error(), Err: err}
	}

	return newPionStream(stream, constraints), nil
}

// convertDeviceKind はpionのデバイス種別を変換する
func convertDeviceKind(kind mediadevices.MediaDeviceType) DeviceKind {
	switch kind {
	case mediadevices.VideoInput:
		return KindVideoInput
	case mediadevices.AudioInput:
		return KindAudioInput
	default:
		return DeviceKind(fmt.Sprintf("unknown(%d)", kind))
	}
}

// pionStream は mediadevices.MediaStream をStreamとして扱うラッパー
type pionStream struct {
	id          string
	stream      mediadevices.MediaStream
	constraints any
}

func newPionStream(stream mediadevices.MediaStream, constraints any) *pionStream {
	return &pionStream{
		id:          uuid.New().String(),
		stream:      stream,
		constraints: constraints,
	}
}

func (s *pionStream) ID() string { return s.id }

func (s *pionStream) Tracks() []Track {
	tracks := s.wrap(s.stream.GetVideoTracks(), KindVideoInput)
	return append(tracks, s.wrap(s.stream.GetAudioTracks(), KindAudioInput)...)
}

func (s *pionStream) VideoTracks() []Track {
	return s.wrap(s.stream.GetVideoTracks(), KindVideoInput)
}

func (s *pionStream) Constraints() any { return s.constraints }

func (s *pionStream) wrap(tracks []mediadevices.Track, kind DeviceKind) []Track {
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		result = append(result, &pionTrack{track: t, kind: kind})
	}
	return result
}

// pionTrack は mediadevices.Track のラッパー
type pionTrack struct {
	track mediadevices.Track
	kind  DeviceKind
}

func (t *pionTrack) ID() string { return t.track.ID() }

func (t *pionTrack) Kind() DeviceKind { return t.kind }

func (t *pionTrack) Stop() error {
	return t.track.Close()
}
