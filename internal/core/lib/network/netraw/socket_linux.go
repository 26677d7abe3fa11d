//go:build linux

package netraw

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// RawSocket 封装 Linux 下 ip4:tcp 原始套接字
// 通过 ipv4.RawConn 发送自带 IP 头的报文 (IP_HDRINCL)
type RawSocket struct {
	conn *ipv4.RawConn
}

// NewRawSocket 创建一个新的 Raw Socket，需要 root 或 CAP_NET_RAW
func NewRawSocket() (*RawSocket, error) {
	pc, err := net.ListenPacket("ip4:tcp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create raw socket: %w", err)
	}

	rc, err := ipv4.NewRawConn(pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to set IP_HDRINCL: %w", err)
	}

	return &RawSocket{conn: rc}, nil
}

// Close 关闭 Socket
func (s *RawSocket) Close() error {
	return s.conn.Close()
}

// Send 发送数据包
// h: IP 头部, payload: TCP 段
func (s *RawSocket) Send(h *ipv4.Header, payload []byte) error {
	if err := s.conn.WriteTo(h, payload, nil); err != nil {
		return fmt.Errorf("sendto failed: %w", err)
	}
	return nil
}

// Receive 接收一个数据包
// 返回: IP 头部, IP 负载, 错误 (超时为 net.Error.Timeout)
func (s *RawSocket) Receive(buffer []byte, timeout time.Duration) (*ipv4.Header, []byte, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, nil, fmt.Errorf("failed to set recv timeout: %w", err)
	}

	h, p, _, err := s.conn.ReadFrom(buffer)
	if err != nil {
		return nil, nil, err
	}
	return h, p, nil
}
