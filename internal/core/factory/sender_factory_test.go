package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"

	"neoknock/internal/config"
	"neoknock/internal/core/knocker"
	"neoknock/internal/core/model"
)

type nopConn struct{}

func (nopConn) Send(h *ipv4.Header, payload []byte) error { return nil }
func (nopConn) Receive(b []byte, d time.Duration) (*ipv4.Header, []byte, error) {
	return nil, nil, errors.New("closed")
}
func (nopConn) Close() error { return nil }

func withRawSocket(t *testing.T, conn knocker.PacketConn, err error) {
	t.Helper()
	orig := openRawSocket
	openRawSocket = func() (knocker.PacketConn, error) { return conn, err }
	t.Cleanup(func() { openRawSocket = orig })
}

func knockConfig(mode string) *config.KnockConfig {
	cfg := config.DefaultConfig().Knock
	cfg.Mode = mode
	return cfg
}

func TestNewSender(t *testing.T) {
	denied := errors.New("operation not permitted")

	tests := []struct {
		name    string
		mode    string
		rawErr  error
		want    model.KnockMode
		wantErr bool
	}{
		{"raw privileged", "raw", nil, model.KnockModeRaw, false},
		{"raw unprivileged", "raw", denied, "", true},
		{"connect", "connect", denied, model.KnockModeConnect, false},
		{"auto privileged", "auto", nil, model.KnockModeRaw, false},
		{"auto falls back", "auto", denied, model.KnockModeConnect, false},
		{"empty is auto", "", denied, model.KnockModeConnect, false},
		{"unknown", "udp", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var conn knocker.PacketConn
			if tt.rawErr == nil {
				conn = nopConn{}
			}
			withRawSocket(t, conn, tt.rawErr)

			sender, err := NewSender(knockConfig(tt.mode))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sender.Name())
			assert.NoError(t, sender.Close())
		})
	}
}

func TestNewSender_BadProxy(t *testing.T) {
	cfg := knockConfig("connect")
	cfg.Connect.Proxy = "http://127.0.0.1:8080"
	_, err := NewSender(cfg)
	assert.Error(t, err)
}
