/**
 * 敲门发送器接口定义
 * @author: Sun977
 * @date: 2026.02.10
 * @description: raw SYN 与 TCP Connect 两种策略实现同一接口，Knocker 只依赖此接口。
 */

package knocker

import (
	"context"

	"neoknock/internal/core/model"
)

// Sender 单个端口的敲门动作
type Sender interface {
	// Name 返回策略类型 (raw / connect)
	Name() model.KnockMode

	// Send 发送一次敲门，不关心对端是否响应
	// 只有本地致命错误 (如 raw socket 写入失败) 才返回 error，网络层结果记录在 Attempt.Outcome
	Send(ctx context.Context, host string, port uint16) (*model.Attempt, error)

	// Probe 发送敲门并等待响应，用于序列中最后一个端口的可达性检查
	Probe(ctx context.Context, host string, port uint16) (*model.Attempt, error)

	// Close 释放底层资源
	Close() error
}
