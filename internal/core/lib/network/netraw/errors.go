package netraw

import "errors"

// ErrUnsupported 当前平台不支持原始套接字
var ErrUnsupported = errors.New("raw socket not supported on this platform")
