/**
 * 结果上报接口定义
 * @author: Sun977
 * @date: 2026.02.10
 * @description: 每次敲门尝试完成后回调，解耦 Console/File 输出。
 */

package reporter

import (
	"context"
	"errors"

	"neoknock/internal/core/model"
)

// TabularData 是一个可以被渲染为表格的数据接口
type TabularData interface {
	Headers() []string
	Rows() [][]string
}

// Reporter 定义单次尝试的上报行为
type Reporter interface {
	Report(ctx context.Context, attempt *model.Attempt) error
}

// MultiReporter 支持同时向多个目标上报
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{
		reporters: reporters,
	}
}

func (m *MultiReporter) Report(ctx context.Context, attempt *model.Attempt) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, attempt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
