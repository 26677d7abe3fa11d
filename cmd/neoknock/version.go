package main

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"

	"neoknock/internal/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Long:  "显示 NeoKnock 的版本信息，包括版本号、构建时间、Git 提交、Go 版本和运行平台。",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "NeoKnock %s\n", version.GetVersion())
			fmt.Fprintf(out, "Build Time: %s\n", version.BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", version.GitCommit)
			fmt.Fprintf(out, "Go Version: %s\n", version.GoVersion)

			// 平台信息获取失败不影响版本输出
			if info, err := host.Info(); err == nil {
				fmt.Fprintf(out, "Platform: %s %s (%s/%s)\n", info.Platform, info.PlatformVersion, info.OS, info.KernelArch)
			}
		},
	}
}
