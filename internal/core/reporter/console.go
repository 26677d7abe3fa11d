package reporter

import (
	"context"
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"neoknock/internal/core/model"
)

// ConsoleReporter 每次尝试输出一行
type ConsoleReporter struct {
	mode          model.KnockMode
	differentiate bool
	writer        io.Writer
}

// NewConsoleReporter w 为 nil 时输出到 stdout
func NewConsoleReporter(w io.Writer, mode model.KnockMode, differentiate bool) *ConsoleReporter {
	return &ConsoleReporter{
		mode:          mode,
		differentiate: differentiate,
		writer:        w,
	}
}

func (r *ConsoleReporter) Report(ctx context.Context, attempt *model.Attempt) error {
	if attempt == nil {
		return nil
	}

	printer := pterm.Info
	if attempt.Check {
		if attempt.Outcome == model.OutcomeResponded {
			printer = pterm.Success
		} else {
			printer = pterm.Warning
		}
	}
	if r.writer != nil {
		printer = *printer.WithWriter(r.writer)
	}

	printer.Println(Message(attempt, r.mode, r.differentiate))
	return nil
}

// Message 生成单次尝试的提示文本
// raw:     "Sent SYN packet to h:p"
// connect: "Knock sent to h:p"，differentiate 时追加结果
// 检查:    "Response received from h:p" / "No response from h:p"
func Message(attempt *model.Attempt, mode model.KnockMode, differentiate bool) string {
	addr := attempt.Address()

	if attempt.Check {
		if attempt.Outcome != model.OutcomeResponded {
			return fmt.Sprintf("No response from %s", addr)
		}
		msg := fmt.Sprintf("Response received from %s", addr)
		if differentiate {
			if attempt.Flags != "" {
				msg += fmt.Sprintf(" [%s]", attempt.Flags)
			} else if attempt.Detail != "" {
				msg += fmt.Sprintf(" (%s)", attempt.Detail)
			}
		}
		return msg
	}

	if mode == model.KnockModeRaw {
		return fmt.Sprintf("Sent SYN packet to %s", addr)
	}

	msg := fmt.Sprintf("Knock sent to %s", addr)
	if differentiate {
		switch attempt.Outcome {
		case model.OutcomeError:
			msg += fmt.Sprintf(" (%s: %s)", attempt.Outcome, attempt.Detail)
		default:
			msg += fmt.Sprintf(" (%s)", attempt.Outcome)
		}
	}
	return msg
}

// PrintSummary 以表格形式输出整个序列
func PrintSummary(w io.Writer, data TabularData) error {
	rows := data.Rows()
	if len(rows) == 0 {
		return nil
	}

	tableData := pterm.TableData{data.Headers()}
	tableData = append(tableData, rows...)

	table := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(tableData)
	if w != nil {
		table = table.WithWriter(w)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
