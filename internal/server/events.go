package server

import (
	"io"

	"github.com/gin-gonic/gin"

	"camsession/internal/media"
)

// handleEvents は状態セルの変化をSSEで配信する
//
// 変化通知は1件にまとめ、送信時点の最新値を status, devices, stream の
// 3イベントとして書き出す。
func (s *Server) handleEvents(c *gin.Context) {
	changed := make(chan struct{}, 1)
	notify := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	unsubscribeStatus := s.session.Status.Subscribe(func(media.Status) { notify() })
	defer unsubscribeStatus()
	unsubscribeDevices := s.session.Devices.Subscribe(func([]media.Device) { notify() })
	defer unsubscribeDevices()
	unsubscribeStream := s.session.Stream.Subscribe(func(media.Stream) { notify() })
	defer unsubscribeStream()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case <-changed:
			state := s.session.Snapshot()
			c.SSEvent("status", state.Status)
			c.SSEvent("devices", newDevicesResponse(state.Devices))
			c.SSEvent("stream", gin.H{"stream": newStreamInfo(state.Stream)})
			return true
		}
	})
}
