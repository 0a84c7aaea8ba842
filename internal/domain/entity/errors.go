package entity

import "errors"

var (
	// ErrPermissionDenied платформа запретила доступ к камере
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceUnavailable камеры нет или она пропала во время сессии
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrDetectionFailure детектор не смог обработать кадр
	ErrDetectionFailure = errors.New("landmark detection failed")
	// ErrMalformedFrame кадр с точками не прошёл проверку
	ErrMalformedFrame = errors.New("malformed landmark frame")
	// ErrNoPose в кадре нет человека
	ErrNoPose = errors.New("no pose in frame")
)
