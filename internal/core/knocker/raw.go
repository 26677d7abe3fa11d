package knocker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"

	"neoknock/internal/core/lib/network/netraw"
	"neoknock/internal/core/model"
	"neoknock/internal/pkg/logger"
)

// 等待响应时单次读超时，保证 ctx 取消能及时生效
const recvPollInterval = 200 * time.Millisecond

// PacketConn 原始报文收发 (netraw.RawSocket 实现)
type PacketConn interface {
	Send(h *ipv4.Header, payload []byte) error
	Receive(buffer []byte, timeout time.Duration) (*ipv4.Header, []byte, error)
	Close() error
}

type route struct {
	dst net.IP
	src net.IP
}

// RawSynSender 手工构造 SYN 报文的敲门器
// 所有报文使用同一个固定源端口，服务端据此把一次序列归到同一来源
type RawSynSender struct {
	conn          PacketConn
	srcPort       uint16
	checkTimeout  time.Duration
	resetHalfOpen bool

	routes map[string]*route
	buffer []byte
}

func NewRawSynSender(conn PacketConn, srcPort uint16, checkTimeout time.Duration, resetHalfOpen bool) *RawSynSender {
	return &RawSynSender{
		conn:          conn,
		srcPort:       srcPort,
		checkTimeout:  checkTimeout,
		resetHalfOpen: resetHalfOpen,
		routes:        make(map[string]*route),
		buffer:        make([]byte, 65535),
	}
}

func (s *RawSynSender) Name() model.KnockMode {
	return model.KnockModeRaw
}

// Send 发出一个 SYN，不等待响应
func (s *RawSynSender) Send(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	attempt := &model.Attempt{Host: host, Port: port, Time: time.Now()}

	r, err := s.resolve(host)
	if err != nil {
		return nil, err
	}
	if err := s.sendSYN(r, port, rand.Uint32()); err != nil {
		return nil, err
	}

	attempt.Outcome = model.OutcomeSent
	attempt.Latency = time.Since(attempt.Time)
	return attempt, nil
}

// Probe 发出 SYN 并在 checkTimeout 内等待目标端口的任意 TCP 响应 (SYN-ACK 或 RST)
func (s *RawSynSender) Probe(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	attempt := &model.Attempt{Host: host, Port: port, Check: true, Time: time.Now()}

	r, err := s.resolve(host)
	if err != nil {
		return nil, err
	}
	if err := s.sendSYN(r, port, rand.Uint32()); err != nil {
		return nil, err
	}

	deadline := attempt.Time.Add(s.checkTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		h, payload, err := s.conn.Receive(s.buffer, min(remaining, recvPollInterval))
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			return nil, fmt.Errorf("failed to receive response: %w", err)
		}

		reply := s.match(r, port, h, payload)
		if reply == nil {
			continue
		}

		attempt.Outcome = model.OutcomeResponded
		attempt.Flags = netraw.FlagString(reply)
		attempt.Latency = time.Since(attempt.Time)

		if s.resetHalfOpen && reply.SYN && reply.ACK {
			s.sendRST(r, port, reply.Ack)
		}
		return attempt, nil
	}

	attempt.Outcome = model.OutcomeNoResponse
	attempt.Latency = time.Since(attempt.Time)
	return attempt, nil
}

func (s *RawSynSender) Close() error {
	return s.conn.Close()
}

// match 判断收到的报文是否为目标端口对本次 SYN 的回应
func (s *RawSynSender) match(r *route, port uint16, h *ipv4.Header, payload []byte) *layers.TCP {
	if h == nil || !h.Src.Equal(r.dst) {
		return nil
	}
	tcp, err := netraw.ParseTCP(payload)
	if err != nil {
		return nil
	}
	if uint16(tcp.SrcPort) != port || uint16(tcp.DstPort) != s.srcPort {
		return nil
	}
	// loopback / veth 上内核回包只带部分校验和 (checksum offload)，校验失败仍然接受
	if !netraw.VerifyTCPChecksum(r.dst, r.src, payload) {
		logger.Debugf("reply from %v:%d has unverified checksum (offload?)", h.Src, port)
	}
	return tcp
}

func (s *RawSynSender) sendSYN(r *route, port uint16, seq uint32) error {
	h, segment, err := netraw.BuildSYN(r.src, r.dst, s.srcPort, port, seq)
	if err != nil {
		return err
	}
	if err := s.conn.Send(h, segment); err != nil {
		return fmt.Errorf("failed to send SYN to %v:%d: %w", r.dst, port, err)
	}
	return nil
}

// sendRST 拆除半开连接，失败只记录日志
func (s *RawSynSender) sendRST(r *route, port uint16, seq uint32) {
	h, segment, err := netraw.BuildRST(r.src, r.dst, s.srcPort, port, seq)
	if err == nil {
		err = s.conn.Send(h, segment)
	}
	if err != nil {
		logger.Warnf("failed to reset half-open connection to %v:%d: %v", r.dst, port, err)
	}
}

// resolve 解析目标地址与本地源地址，按主机缓存
func (s *RawSynSender) resolve(host string) (*route, error) {
	if r, ok := s.routes[host]; ok {
		return r, nil
	}

	dst, err := netraw.ResolveIPv4(host)
	if err != nil {
		return nil, err
	}
	src, err := netraw.LocalIPFor(dst)
	if err != nil {
		return nil, err
	}

	r := &route{dst: dst, src: src}
	s.routes[host] = r
	logger.Debugf("raw route %s: %v -> %v", host, src, dst)
	return r, nil
}
