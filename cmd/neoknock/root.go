/*
 * @author: Sun977
 * @date: 2026.02.10
 * @description: Cobra Root Command 定义
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"neoknock/internal/config"
	"neoknock/internal/core/options"
	"neoknock/internal/pkg/logger"
)

// 退出码
const (
	exitOK    = 0
	exitUsage = 1 // 参数不足 / 帮助
	exitError = 2 // 参数解析失败或运行时致命错误
)

// app 一次命令执行的共享状态
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	flags    *knockFlags

	helpShown bool
}

// newRootCmd 创建根命令
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neoknock <host> <port1> [<port2> ...]",
		Short: "NeoKnock 端口敲门客户端",
		Long: `NeoKnock 按顺序向目标主机的一组端口发送连接尝试，用于打开 Speakeasy 等端口敲门服务保护的端口。

示例:
  1.自动模式 (有特权时 raw，否则 connect)
	neoknock 10.0.0.5 7000 8000 9000 22
  2.原始 SYN 模式 (需要 root / CAP_NET_RAW)，最后一个端口做可达性检查
	sudo neoknock --mode raw 10.0.0.5 7000 8000 9000 22
  3.Connect 模式，区分超时与拒绝，输出汇总表格
	neoknock --mode connect --differentiate --summary 10.0.0.5 7000 8000 9000
`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		// PersistentPreRunE: 全局初始化逻辑，所有子命令共享配置与日志
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runKnock(cmd, args)
		},
	}

	// 全局 Flag
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别 (debug, info, warn, error)")

	a.flags = bindKnockFlags(rootCmd)
	// 主机之后的参数全部按端口处理 ("-5" 是非法端口而不是 flag)
	rootCmd.Flags().SetInterspersed(false)

	// 根命令的帮助即用法说明，按约定以状态码 1 退出
	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			defaultHelp(cmd, args)
			return
		}
		printUsage(cmd)
		a.helpShown = true
	})
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "[-] %v\n", err)
		printUsage(cmd)
		return options.ErrUsage
	})

	// 注册子命令
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(a))

	return rootCmd
}

// printUsage 用法说明 + flag 列表，输出到 stdout
func printUsage(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	options.PrintUsage(out, cmd.Root().Name())
	fmt.Fprintf(out, "\nFlags:\n%s", cmd.Flags().FlagUsages())
	fmt.Fprintf(out, "\nCommands:\n  version     显示版本信息\n  config      输出当前生效的配置\n")
}

// init 加载配置并初始化日志
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	initCLILogger(cmd, cfg.Log)
	logger.Debugf("config loaded from %q", a.cfgFile)
	return nil
}

// initCLILogger 初始化 CLI 模式下的日志
// --log-level 显式设置时优先于配置文件
func initCLILogger(cmd *cobra.Command, logConfig *config.LogConfig) {
	flag := cmd.Flags().Lookup("log-level")
	if flag != nil && flag.Changed {
		logConfig.Level = flag.Value.String()
	}

	if logConfig.Level == "debug" {
		pterm.EnableDebugMessages()
	} else {
		pterm.DisableDebugMessages()
	}

	if _, err := logger.InitLogger(logConfig); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Failed to init logger: %v\n", err)
	}
}

// Execute 执行命令并返回退出码
func Execute(args []string) int {
	return execute(args, os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) (code int) {
	// 全局 Panic Recovery
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "\n[FATAL] neoknock crashed unexpectedly: %v\n", r)
			code = exitError
		}
	}()

	a := &app{}
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	switch {
	case err == nil && a.helpShown:
		return exitUsage
	case err == nil:
		return exitOK
	case errors.Is(err, options.ErrUsage):
		return exitUsage
	default:
		fmt.Fprintf(stderr, "[-] %v\n", err)
		return exitError
	}
}
