package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// SaveJsonResult 将结果保存为缩进 JSON
func SaveJsonResult(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create json file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to write json output: %w", err)
	}
	return nil
}

// SaveCsvResult 将表格数据保存为 CSV
func SaveCsvResult(path string, data TabularData) error {
	rows := data.Rows()
	if len(rows) == 0 {
		return fmt.Errorf("no tabular data found to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	// 写入 UTF-8 BOM，防止 Excel 打开乱码
	if _, err := f.WriteString("\xEF\xBB\xBF"); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(data.Headers()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}
