package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"neoknock/internal/config"
	"neoknock/internal/core/factory"
	"neoknock/internal/core/knocker"
	"neoknock/internal/core/model"
	"neoknock/internal/core/options"
	"neoknock/internal/core/reporter"
	"neoknock/internal/pkg/logger"
)

// knockFlags 敲门相关的命令行参数，只有显式设置时才覆盖配置
type knockFlags struct {
	mode          string
	delay         time.Duration
	timeout       time.Duration
	checkTimeout  time.Duration
	sourcePort    uint16
	check         bool
	reset         bool
	differentiate bool
	proxy         string
	output        options.OutputOptions
}

func bindKnockFlags(cmd *cobra.Command) *knockFlags {
	f := &knockFlags{}
	defaults := config.DefaultConfig().Knock

	flags := cmd.Flags()
	flags.StringVarP(&f.mode, "mode", "m", defaults.Mode, "敲门模式 (raw, connect, auto)")
	flags.DurationVarP(&f.delay, "delay", "d", 0, "两次敲门之间的间隔 (默认 raw 1s / connect 200ms)")
	flags.DurationVar(&f.timeout, "timeout", defaults.Connect.Timeout, "connect 模式单次连接超时")
	flags.DurationVar(&f.checkTimeout, "check-timeout", defaults.Raw.CheckTimeout, "raw 模式最终检查等待响应的时间")
	flags.Uint16Var(&f.sourcePort, "source-port", defaults.Raw.SourcePort, "raw 模式固定源端口")
	flags.BoolVar(&f.check, "check", false, "对最后一个端口做可达性检查 (raw 模式默认开启)")
	flags.BoolVar(&f.reset, "reset", defaults.Raw.ResetHalfOpen, "raw 模式收到 SYN-ACK 后发送 RST")
	flags.BoolVar(&f.differentiate, "differentiate", defaults.Connect.Differentiate, "输出中区分 超时/拒绝/错误")
	flags.StringVar(&f.proxy, "proxy", "", "connect 模式使用的 SOCKS5 代理 (socks5://[user:pass@]host:port)")
	flags.BoolVar(&f.output.Summary, "summary", false, "结束时输出汇总表格")
	flags.StringVar(&f.output.OutputJson, "oj", "", "结果保存为 JSON 文件")
	flags.StringVar(&f.output.OutputCsv, "oc", "", "结果保存为 CSV 文件")
	flags.SortFlags = false

	return f
}

// apply 将显式设置的参数写入配置
func (f *knockFlags) apply(cmd *cobra.Command, cfg *config.KnockConfig) {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = f.mode
	}
	if flags.Changed("delay") {
		cfg.Raw.Delay = f.delay
		cfg.Connect.Delay = f.delay
	}
	if flags.Changed("timeout") {
		cfg.Connect.Timeout = f.timeout
	}
	if flags.Changed("check-timeout") {
		cfg.Raw.CheckTimeout = f.checkTimeout
	}
	if flags.Changed("source-port") {
		cfg.Raw.SourcePort = f.sourcePort
	}
	if flags.Changed("check") {
		cfg.Raw.CheckLast = f.check
		cfg.Connect.CheckLast = f.check
	}
	if flags.Changed("reset") {
		cfg.Raw.ResetHalfOpen = f.reset
	}
	if flags.Changed("differentiate") {
		cfg.Connect.Differentiate = f.differentiate
	}
	if flags.Changed("proxy") {
		cfg.Connect.Proxy = f.proxy
	}
}

// runKnock 解析参数并执行一次敲门序列
func (a *app) runKnock(cmd *cobra.Command, args []string) error {
	// 所有端口在发出任何报文之前解析完成
	target, err := options.ParseArgs(args)
	if errors.Is(err, options.ErrUsage) {
		printUsage(cmd)
		return err
	}
	if err != nil {
		return err
	}

	a.flags.apply(cmd, a.cfg.Knock)
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	sender, err := factory.NewSender(a.cfg.Knock)
	if err != nil {
		return err
	}
	defer sender.Close()

	if a.cfg.Knock.Mode == string(model.KnockModeAuto) && sender.Name() == model.KnockModeConnect {
		pterm.Warning.WithWriter(cmd.ErrOrStderr()).Println("Raw socket unavailable, falling back to connect mode")
	}

	opts := options.NewKnockOptions(a.cfg.Knock, sender.Name())
	if err := opts.Validate(); err != nil {
		return err
	}
	logger.Infof("knocking %s on %d port(s) in %s mode", target.Host, len(target.Ports), opts.Mode)

	// Ctrl-C 在两次敲门之间生效
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	rep := reporter.NewMultiReporter(
		reporter.NewConsoleReporter(out, opts.Mode, opts.Differentiate),
		reporter.NewLogReporter(opts.Mode),
	)
	report, err := knocker.NewKnocker(sender, rep, opts.Delay, opts.CheckLast).Run(ctx, target)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			pterm.Warning.WithWriter(out).Println("Knock sequence interrupted")
		}
		return err
	}

	return saveOutputs(cmd, &a.flags.output, report)
}

func saveOutputs(cmd *cobra.Command, output *options.OutputOptions, report *model.Report) error {
	out := cmd.OutOrStdout()

	if output.Summary {
		if err := reporter.PrintSummary(out, report); err != nil {
			return err
		}
	}
	if output.OutputJson != "" {
		if err := reporter.SaveJsonResult(output.OutputJson, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "[+] Results saved to %s\n", output.OutputJson)
	}
	if output.OutputCsv != "" {
		if err := reporter.SaveCsvResult(output.OutputCsv, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "[+] Results saved to %s\n", output.OutputCsv)
	}
	return nil
}
