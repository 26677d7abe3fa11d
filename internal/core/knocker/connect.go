package knocker

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"neoknock/internal/core/lib/network/dialer"
	"neoknock/internal/core/model"
)

// ConnectSender 基于 TCP Connect 的敲门器
// 不需要特权: 内核发出的 SYN 即为一次敲门，连接建立后立即关闭
type ConnectSender struct {
	dialer  dialer.Dialer
	timeout time.Duration
}

func NewConnectSender(d dialer.Dialer, timeout time.Duration) *ConnectSender {
	return &ConnectSender{
		dialer:  d,
		timeout: timeout,
	}
}

func (s *ConnectSender) Name() model.KnockMode {
	return model.KnockModeConnect
}

// Send 尝试一次连接，任何网络层失败都不会中断序列
func (s *ConnectSender) Send(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	return s.dial(ctx, host, port), nil
}

// Probe 连接成功或被拒绝都说明对端在 TCP 层有响应
func (s *ConnectSender) Probe(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	attempt := s.dial(ctx, host, port)
	attempt.Check = true

	switch attempt.Outcome {
	case model.OutcomeSent:
		attempt.Outcome = model.OutcomeResponded
		attempt.Detail = "connected"
	case model.OutcomeRefused:
		attempt.Outcome = model.OutcomeResponded
		attempt.Detail = "refused"
	default:
		attempt.Outcome = model.OutcomeNoResponse
	}
	return attempt, nil
}

func (s *ConnectSender) Close() error {
	return nil
}

func (s *ConnectSender) dial(ctx context.Context, host string, port uint16) *model.Attempt {
	attempt := &model.Attempt{
		Host: host,
		Port: port,
		Time: time.Now(),
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.dialer.DialContext(dialCtx, "tcp", attempt.Address())
	attempt.Latency = time.Since(attempt.Time)
	if conn != nil {
		conn.Close()
	}

	attempt.Outcome, attempt.Detail = ClassifyDialError(err)
	return attempt
}

// ClassifyDialError 将拨号错误归类为敲门结果
func ClassifyDialError(err error) (model.Outcome, string) {
	if err == nil {
		return model.OutcomeSent, ""
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return model.OutcomeRefused, ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.OutcomeTimedOut, ""
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.OutcomeTimedOut, ""
	}

	return model.OutcomeError, err.Error()
}
