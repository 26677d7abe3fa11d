//go:build !linux

package netraw

import (
	"time"

	"golang.org/x/net/ipv4"
)

// 非 Linux 平台占位实现
// Windows 限制了 TCP Raw Socket，macOS 的 raw socket 收不到 TCP 报文 (需要 BPF)。
// 这些平台上 auto 模式会回退到 connect。

type RawSocket struct{}

func NewRawSocket() (*RawSocket, error) {
	return nil, ErrUnsupported
}

func (s *RawSocket) Close() error {
	return nil
}

func (s *RawSocket) Send(h *ipv4.Header, payload []byte) error {
	return ErrUnsupported
}

func (s *RawSocket) Receive(buffer []byte, timeout time.Duration) (*ipv4.Header, []byte, error) {
	return nil, nil, ErrUnsupported
}
