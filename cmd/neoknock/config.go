package main

import (
	"github.com/spf13/cobra"
)

// newConfigCmd 输出当前生效的配置 (默认值 < 配置文件 < 环境变量)
func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "输出当前生效的配置",
		Long:  "以 YAML 格式输出合并了默认值、配置文件与 NEOKNOCK_* 环境变量之后的配置，可直接保存为 configs/config.yaml。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.ToYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
