package factory

import (
	"fmt"

	"neoknock/internal/config"
	"neoknock/internal/core/knocker"
	"neoknock/internal/core/lib/network/dialer"
	"neoknock/internal/core/lib/network/netraw"
	"neoknock/internal/core/model"
	"neoknock/internal/pkg/logger"
)

// openRawSocket 打开原始套接字，测试中可替换
var openRawSocket = func() (knocker.PacketConn, error) {
	sock, err := netraw.NewRawSocket()
	if err != nil {
		return nil, err
	}
	return sock, nil
}

// NewSender 按配置的模式创建敲门器
// auto: 能打开 raw socket (root / CAP_NET_RAW) 则使用 raw，否则回退到 connect
func NewSender(cfg *config.KnockConfig) (knocker.Sender, error) {
	mode, err := model.ParseKnockMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	switch mode {
	case model.KnockModeRaw:
		return newRawSender(cfg.Raw)
	case model.KnockModeConnect:
		return newConnectSender(cfg.Connect)
	}

	sender, err := newRawSender(cfg.Raw)
	if err == nil {
		return sender, nil
	}
	logger.Warnf("raw mode unavailable (%v), falling back to connect mode", err)
	return newConnectSender(cfg.Connect)
}

func newRawSender(cfg *config.RawConfig) (knocker.Sender, error) {
	conn, err := openRawSocket()
	if err != nil {
		return nil, fmt.Errorf("raw mode requires root or CAP_NET_RAW: %w", err)
	}
	return knocker.NewRawSynSender(conn, cfg.SourcePort, cfg.CheckTimeout, cfg.ResetHalfOpen), nil
}

func newConnectSender(cfg *config.ConnectConfig) (knocker.Sender, error) {
	d, err := dialer.New(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return knocker.NewConnectSender(d, cfg.Timeout), nil
}
