package knocker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neoknock/internal/core/model"
)

type sentCall struct {
	port  uint16
	check bool
	at    time.Time
}

// fakeSender 记录调用顺序与时间
type fakeSender struct {
	mu      sync.Mutex
	calls   []sentCall
	failOn  uint16
	outcome model.Outcome
}

func (f *fakeSender) Name() model.KnockMode { return model.KnockModeConnect }

func (f *fakeSender) record(host string, port uint16, check bool) (*model.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sentCall{port: port, check: check, at: time.Now()})
	if f.failOn != 0 && port == f.failOn {
		return nil, errors.New("boom")
	}
	outcome := model.OutcomeSent
	if check {
		outcome = model.OutcomeResponded
	}
	if f.outcome != "" {
		outcome = f.outcome
	}
	return &model.Attempt{Host: host, Port: port, Check: check, Outcome: outcome, Time: time.Now()}, nil
}

func (f *fakeSender) Send(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	return f.record(host, port, false)
}

func (f *fakeSender) Probe(ctx context.Context, host string, port uint16) (*model.Attempt, error) {
	return f.record(host, port, true)
}

func (f *fakeSender) Close() error { return nil }

type collectReporter struct {
	attempts []*model.Attempt
}

func (c *collectReporter) Report(ctx context.Context, a *model.Attempt) error {
	c.attempts = append(c.attempts, a)
	return nil
}

func TestKnocker_OrderAndDelay(t *testing.T) {
	sender := &fakeSender{}
	rep := &collectReporter{}
	delay := 30 * time.Millisecond

	target := &model.Target{Host: "127.0.0.1", Ports: []uint16{1000, 2000, 3000}}
	start := time.Now()
	report, err := NewKnocker(sender, rep, delay, false).Run(context.Background(), target)
	elapsed := time.Since(start)
	require.NoError(t, err)

	require.Len(t, sender.calls, 3)
	for i, want := range []uint16{1000, 2000, 3000} {
		assert.Equal(t, want, sender.calls[i].port)
		assert.False(t, sender.calls[i].check)
	}
	for i := 1; i < len(sender.calls); i++ {
		gap := sender.calls[i].at.Sub(sender.calls[i-1].at)
		assert.GreaterOrEqual(t, gap, delay, "gap between attempt %d and %d", i, i+1)
	}
	// 最后一次之后不等待: 总耗时 ~2*delay
	assert.Less(t, elapsed, 3*delay+200*time.Millisecond)

	assert.Len(t, report.Attempts, 3)
	assert.Len(t, rep.attempts, 3)
	assert.Equal(t, model.KnockModeConnect, report.Mode)
	assert.False(t, report.FinishedAt.IsZero())
	assert.False(t, report.Reachable())
}

func TestKnocker_CheckLast(t *testing.T) {
	sender := &fakeSender{}
	target := &model.Target{Host: "10.0.0.5", Ports: []uint16{7000, 8000, 7000, 22}}

	report, err := NewKnocker(sender, nil, 0, true).Run(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, sender.calls, 4)
	// 重复端口按出现次数各敲一次
	assert.Equal(t, uint16(7000), sender.calls[0].port)
	assert.Equal(t, uint16(7000), sender.calls[2].port)
	for i := 0; i < 3; i++ {
		assert.False(t, sender.calls[i].check)
	}
	assert.True(t, sender.calls[3].check)
	assert.Equal(t, uint16(22), sender.calls[3].port)
	assert.True(t, report.Reachable())
}

func TestKnocker_SinglePortNoDelay(t *testing.T) {
	sender := &fakeSender{}
	start := time.Now()
	_, err := NewKnocker(sender, nil, time.Hour, false).Run(context.Background(), &model.Target{Host: "h", Ports: []uint16{9}})
	require.NoError(t, err)
	assert.Len(t, sender.calls, 1)
	assert.Less(t, time.Since(start), time.Second)
}

func TestKnocker_NetworkOutcomesDoNotAbort(t *testing.T) {
	sender := &fakeSender{outcome: model.OutcomeTimedOut}
	report, err := NewKnocker(sender, nil, 0, false).Run(context.Background(), &model.Target{Host: "h", Ports: []uint16{1, 2, 3}})
	require.NoError(t, err)
	assert.Len(t, report.Attempts, 3)
}

func TestKnocker_FatalSendError(t *testing.T) {
	sender := &fakeSender{failOn: 2000}
	report, err := NewKnocker(sender, nil, 0, false).Run(context.Background(), &model.Target{Host: "h", Ports: []uint16{1000, 2000, 3000}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "h:2000")
	// 失败之后的端口不再发送
	assert.Len(t, sender.calls, 2)
	assert.Len(t, report.Attempts, 1)
}

func TestKnocker_ContextCancelDuringDelay(t *testing.T) {
	sender := &fakeSender{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := NewKnocker(sender, nil, time.Hour, false).Run(ctx, &model.Target{Host: "h", Ports: []uint16{1, 2}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, report.Attempts, 1)
}

func TestKnocker_InvalidTarget(t *testing.T) {
	k := NewKnocker(&fakeSender{}, nil, 0, false)
	_, err := k.Run(context.Background(), nil)
	assert.Error(t, err)
	_, err = k.Run(context.Background(), &model.Target{Host: "h"})
	assert.Error(t, err)
}
