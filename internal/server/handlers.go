package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"camsession/internal/media"
)

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleStatus はセッション状態の取得エンドポイント
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, newStatusResponse(s.session.Snapshot()))
}

// handleDevices は現在のデバイス一覧を返す
func (s *Server) handleDevices(c *gin.Context) {
	c.JSON(http.StatusOK, newDevicesResponse(s.session.Devices.Get()))
}

// handleRefreshDevices はデバイスを再列挙して一覧を返す
func (s *Server) handleRefreshDevices(c *gin.Context) {
	s.session.EnumerateDevices(c.Request.Context())
	c.JSON(http.StatusOK, newDevicesResponse(s.session.Devices.Get()))
}

// handleStart はカメラストリームを開始する
func (s *Server) handleStart(c *gin.Context) {
	var req StartRequest
	// ボディは省略可能
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := s.session.Start(c.Request.Context(), req.DeviceID); err != nil {
		s.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(s.session.Snapshot()))
}

// handleScreen は画面キャプチャを開始する
// 失敗はセッション内でログ出力されるため、状態をそのまま返す
func (s *Server) handleScreen(c *gin.Context) {
	s.session.StartScreenCapture(c.Request.Context())
	c.JSON(http.StatusOK, newStatusResponse(s.session.Snapshot()))
}

// handleSwitch はカメラを切り替える
func (s *Server) handleSwitch(c *gin.Context) {
	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := s.session.SwitchCamera(c.Request.Context(), req.DeviceID); err != nil {
		s.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, newStatusResponse(s.session.Snapshot()))
}

// handleStop はストリームを停止する
func (s *Server) handleStop(c *gin.Context) {
	s.session.Stop(c.Request.Context())
	c.JSON(http.StatusOK, newStatusResponse(s.session.Snapshot()))
}

// handleRoot は埋め込みデモページを返す
func (s *Server) handleRoot(c *gin.Context) {
	data, err := getIndexHTML()
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// ヘルパー関数

// writeSessionError はセッションのエラーをHTTPステータスに変換する
func (s *Server) writeSessionError(c *gin.Context, err error) {
	var acqErr *media.AcquireError
	switch {
	case errors.Is(err, media.ErrMediaUnavailable):
		s.writeError(c, http.StatusServiceUnavailable, "media_unavailable", err)
	case errors.Is(err, media.ErrInsecureContext):
		s.writeError(c, http.StatusForbidden, "insecure_context", err)
	case errors.As(err, &acqErr):
		s.writeError(c, http.StatusBadGateway, "acquisition_failed", err)
	default:
		s.writeError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

// writeError はエラーレスポンスを書き込む
func (s *Server) writeError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   err.Error(),
		Timestamp: time.Now(),
	})
}

// newDevicesResponse はデバイス一覧のレスポンスを作成する
func newDevicesResponse(devices []media.Device) DevicesResponse {
	if devices == nil {
		devices = []media.Device{}
	}
	return DevicesResponse{Devices: devices}
}
