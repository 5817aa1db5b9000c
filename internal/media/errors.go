package media

import (
	"errors"
	"fmt"
)

var (
	// ErrMediaUnavailable はカメラ取得APIが存在しない場合のエラー
	ErrMediaUnavailable = errors.New("camera access is not available in this host or context")

	// ErrInsecureContext はセキュアでないコンテキストからカメラを要求した場合のエラー
	ErrInsecureContext = errors.New("camera access requires HTTPS or localhost")
)

// AcquireError はプラットフォームがストリーム取得を拒否した場合のエラー
type AcquireError struct {
	Name    string // "NotFoundError", "NotReadableError" など
	Message string
	Err     error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

// newAcquireError はエラーをAcquireErrorに変換する
func newAcquireError(name string, err error) *AcquireError {
	var ae *AcquireError
	if errors.As(err, &ae) {
		return ae
	}
	return &AcquireError{Name: name, Message: err.Error(), Err: err}
}

// IsSecureContext はカメラ取得が許可されるコンテキストか判定する
func IsSecureContext(origin Origin) bool {
	if origin.Headless || origin.Secure {
		return true
	}
	return origin.Hostname == "localhost" || origin.Hostname == "127.0.0.1"
}

// ensureCameraAvailable はカメラ取得の前提条件を検証する
func ensureCameraAvailable(host Host) error {
	if host == nil || !host.MediaAvailable() {
		return ErrMediaUnavailable
	}
	if !IsSecureContext(host.Origin()) {
		return ErrInsecureContext
	}
	return nil
}
