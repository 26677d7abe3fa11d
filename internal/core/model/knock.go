/**
 * 敲门任务核心模型
 * @author: Sun977
 * @date: 2026.02.10
 * @description: Target / Attempt / Report，由参数解析构建一次后显式传递，不使用全局状态。
 */

package model

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// KnockMode 敲门策略
type KnockMode string

const (
	KnockModeRaw     KnockMode = "raw"     // 原始 SYN 报文 (需要特权)
	KnockModeConnect KnockMode = "connect" // 用户态 TCP Connect
	KnockModeAuto    KnockMode = "auto"    // 有特权用 raw，否则回退 connect
)

// ParseKnockMode 解析模式字符串
func ParseKnockMode(s string) (KnockMode, error) {
	switch KnockMode(s) {
	case KnockModeRaw, KnockModeConnect, KnockModeAuto:
		return KnockMode(s), nil
	case "":
		return KnockModeAuto, nil
	}
	return "", fmt.Errorf("unknown knock mode: %q (raw, connect, auto)", s)
}

// Target 敲门目标
// Ports 保持参数顺序 (不是数值顺序)，允许重复
type Target struct {
	Host  string   `json:"host"`
	Ports []uint16 `json:"ports"`
}

// Address 返回 host:port 形式 (IPv6 自动加方括号)
func (t *Target) Address(port uint16) string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(port)))
}

// Outcome 单次敲门结果
type Outcome string

const (
	OutcomeSent       Outcome = "sent"        // 已发出 (connect 成功 / SYN 已发送)
	OutcomeTimedOut   Outcome = "timed_out"   // connect 超时
	OutcomeRefused    Outcome = "refused"     // 对端 RST
	OutcomeError      Outcome = "error"       // 其他网络错误, 见 Detail
	OutcomeResponded  Outcome = "responded"   // 最终检查: 收到 TCP 层响应
	OutcomeNoResponse Outcome = "no_response" // 最终检查: 超时无响应
)

// Attempt 单次敲门记录
type Attempt struct {
	Host    string        `json:"host"`
	Port    uint16        `json:"port"`
	Check   bool          `json:"check"`           // 是否为最终可达性检查
	Outcome Outcome       `json:"outcome"`
	Detail  string        `json:"detail,omitempty"` // OutcomeError 的错误描述
	Flags   string        `json:"flags,omitempty"`  // raw 检查时响应报文的 TCP 标志 (SA/RA...)
	Latency time.Duration `json:"latency"`
	Time    time.Time     `json:"time"`
}

// Address 返回 host:port
func (a *Attempt) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// Report 一次完整敲门序列的汇总
type Report struct {
	Target     *Target    `json:"target"`
	Mode       KnockMode  `json:"mode"`
	Attempts   []*Attempt `json:"attempts"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// NewReport 创建汇总
func NewReport(target *Target, mode KnockMode) *Report {
	return &Report{
		Target:    target,
		Mode:      mode,
		Attempts:  make([]*Attempt, 0, len(target.Ports)),
		StartedAt: time.Now(),
	}
}

// Reachable 最终检查是否收到响应; 没有执行检查时返回 false
func (r *Report) Reachable() bool {
	if len(r.Attempts) == 0 {
		return false
	}
	last := r.Attempts[len(r.Attempts)-1]
	return last.Check && last.Outcome == OutcomeResponded
}

// Headers 实现 reporter.TabularData
func (r *Report) Headers() []string {
	return []string{"#", "Target", "Kind", "Outcome", "Flags", "Latency"}
}

// Rows 实现 reporter.TabularData
func (r *Report) Rows() [][]string {
	rows := make([][]string, 0, len(r.Attempts))
	for i, a := range r.Attempts {
		kind := "knock"
		if a.Check {
			kind = "check"
		}
		outcome := string(a.Outcome)
		if a.Detail != "" {
			outcome += " (" + a.Detail + ")"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.Address(),
			kind,
			outcome,
			a.Flags,
			a.Latency.Round(time.Microsecond).String(),
		})
	}
	return rows
}
