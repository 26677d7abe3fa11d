package options

// OutputOptions 定义结果输出的通用参数
type OutputOptions struct {
	OutputJson string // --oj, --outputJson
	OutputCsv  string // --oc, --outputCsv
	Summary    bool   // 结束时输出汇总表格
}
