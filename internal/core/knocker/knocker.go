/**
 * 敲门序列执行
 * @author: Sun977
 * @date: 2026.02.10
 * @description: 严格顺序执行: 一个端口一次尝试，尝试之间固定间隔，最后一个端口之后不等待。
 */

package knocker

import (
	"context"
	"fmt"
	"time"

	"neoknock/internal/core/model"
	"neoknock/internal/core/reporter"
	"neoknock/internal/pkg/logger"
)

// Knocker 敲门序列执行器
type Knocker struct {
	sender    Sender
	reporter  reporter.Reporter
	delay     time.Duration
	checkLast bool
}

// NewKnocker 创建执行器，rep 可以为 nil
func NewKnocker(sender Sender, rep reporter.Reporter, delay time.Duration, checkLast bool) *Knocker {
	return &Knocker{
		sender:    sender,
		reporter:  rep,
		delay:     delay,
		checkLast: checkLast,
	}
}

// Run 按顺序敲击 target 中的每个端口
// 返回的 Report 即使出错也包含已完成的尝试
func (k *Knocker) Run(ctx context.Context, target *model.Target) (*model.Report, error) {
	if target == nil || target.Host == "" || len(target.Ports) == 0 {
		return nil, fmt.Errorf("knock target requires a host and at least one port")
	}

	report := model.NewReport(target, k.sender.Name())
	defer func() { report.FinishedAt = time.Now() }()

	last := len(target.Ports) - 1
	for i, port := range target.Ports {
		if i > 0 {
			if err := sleepContext(ctx, k.delay); err != nil {
				return report, err
			}
		}

		var (
			attempt *model.Attempt
			err     error
		)
		if i == last && k.checkLast {
			attempt, err = k.sender.Probe(ctx, target.Host, port)
		} else {
			attempt, err = k.sender.Send(ctx, target.Host, port)
		}
		if err != nil {
			return report, fmt.Errorf("knock %s failed: %w", target.Address(port), err)
		}

		report.Attempts = append(report.Attempts, attempt)

		if k.reporter != nil {
			if err := k.reporter.Report(ctx, attempt); err != nil {
				logger.Warnf("failed to report attempt %s: %v", attempt.Address(), err)
			}
		}
	}

	return report, nil
}

// sleepContext 等待 d，ctx 取消时提前返回
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
