/**
 * 命令行位置参数解析
 * @author: Sun977
 * @date: 2026.02.10
 * @description: <host> <port1> [<port2> ...] -> model.Target，所有端口在任何敲门之前解析完成
 */

package options

import (
	"errors"
	"fmt"
	"strconv"

	"neoknock/internal/core/model"
)

// ErrUsage 参数不足或请求帮助，调用方打印用法并以状态码 1 退出
var ErrUsage = errors.New("usage")

// PortError 端口参数无法解析
type PortError struct {
	Index int    // 在端口列表中的位置 (从 0 开始)
	Token string // 原始参数
	Err   error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("invalid port %q (argument %d): %v", e.Token, e.Index+2, e.Err)
}

func (e *PortError) Unwrap() error {
	return e.Err
}

// IsHelpFlag 判断是否为帮助参数
func IsHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help"
}

// ParseArgs 解析位置参数
// 少于 2 个参数或第一个参数是 -h/--help 时返回 ErrUsage；
// 端口按参数顺序保留 (不排序、不去重)，任何一个非法即整体失败
func ParseArgs(args []string) (*model.Target, error) {
	if len(args) < 2 || IsHelpFlag(args[0]) {
		return nil, ErrUsage
	}

	ports := make([]uint16, 0, len(args)-1)
	for i, token := range args[1:] {
		port, err := ParsePort(token)
		if err != nil {
			return nil, &PortError{Index: i, Token: token, Err: err}
		}
		ports = append(ports, port)
	}

	return &model.Target{
		Host:  args[0],
		Ports: ports,
	}, nil
}

// ParsePort 解析单个端口 (1-65535)
func ParsePort(token string) (uint16, error) {
	n, err := strconv.ParseUint(token, 10, 16)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("port 0 is reserved")
	}
	return uint16(n), nil
}
