package options

import (
	"fmt"
	"time"

	"neoknock/internal/config"
	"neoknock/internal/core/model"
)

// KnockOptions 敲门参数 (已按最终模式解析)
type KnockOptions struct {
	Mode          model.KnockMode
	Delay         time.Duration // 两次敲门间隔
	CheckLast     bool          // 最后一个端口是否做可达性检查
	Differentiate bool          // 控制台区分 超时/拒绝/错误
}

// NewKnockOptions 从配置中取出某一模式对应的参数
// mode 必须是 raw 或 connect (auto 在打开 Sender 之后才能确定)
func NewKnockOptions(cfg *config.KnockConfig, mode model.KnockMode) *KnockOptions {
	switch mode {
	case model.KnockModeRaw:
		return &KnockOptions{
			Mode:          mode,
			Delay:         cfg.Raw.Delay,
			CheckLast:     cfg.Raw.CheckLast,
			Differentiate: cfg.Connect.Differentiate,
		}
	default:
		return &KnockOptions{
			Mode:          model.KnockModeConnect,
			Delay:         cfg.Connect.Delay,
			CheckLast:     cfg.Connect.CheckLast,
			Differentiate: cfg.Connect.Differentiate,
		}
	}
}

func (o *KnockOptions) Validate() error {
	if o.Mode != model.KnockModeRaw && o.Mode != model.KnockModeConnect {
		return fmt.Errorf("unresolved knock mode: %q", o.Mode)
	}
	if o.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}
