package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wonny/krxdaily/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed command title
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintDoubleSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTickerResult prints one ticker's per-kind counts and errors
func PrintTickerResult(r contracts.TickerResult) {
	status := "✅"
	if !r.Success {
		status = "❌"
	} else if len(r.Errors) > 0 {
		status = "⚠️ "
	}
	fmt.Printf("%s %s (%s)\n", status, r.Name, r.Ticker)

	for _, kind := range contracts.AllKinds {
		if n, ok := r.Counts[kind]; ok {
			fmt.Printf("   %-12s %s건\n", kind.Label(), humanize.Comma(int64(n)))
		}
	}
	for _, e := range r.Errors {
		fmt.Printf("   ! %s\n", e)
	}
}

// PrintBatchSummary prints the watchlist run summary
func PrintBatchSummary(b *contracts.BatchResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  수집 결과 요약")
	PrintSeparator()
	PrintKeyValue("날짜", contracts.FormatDate(b.Date), 4)
	PrintKeyValue("모드", string(b.Mode), 4)
	PrintKeyValue("성공", fmt.Sprintf("%d개", b.TotalSuccess), 4)
	PrintKeyValue("실패", fmt.Sprintf("%d개", b.TotalFailed), 4)
	PrintKeyValue("스킵", fmt.Sprintf("%d개", b.Skipped), 4)
	PrintDoubleSeparator()

	if len(b.Stocks) > 0 {
		fmt.Println()
		for _, r := range b.Stocks {
			PrintTickerResult(r)
		}
	}
}
