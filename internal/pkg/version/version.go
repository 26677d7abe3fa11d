// ### 发布流程
// 1. **更新版本号**：修改 `internal/pkg/version/version.go`
// 2. **构建注入**：-ldflags "-X neoknock/internal/pkg/version.GitCommit=... -X ...BuildTime=..."

package version

import "runtime"

var (
	Version   = "1.0.0" // 版本号 -- 发布时候更新版本号
	BuildTime string
	GitCommit string
	GoVersion = runtime.Version()
)

func GetVersion() string {
	return Version
}
