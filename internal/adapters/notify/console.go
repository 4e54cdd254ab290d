package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.Notifier, writing to stdout.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole creates a console notifier. verbose also prints skipped
// evaluations, not just finished cycles.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// NotifyCycle prints a one-line summary of a finished cycle plus the
// running totals.
func (c *Console) NotifyCycle(_ context.Context, rec domain.CycleRecord, ledger domain.Ledger) error {
	now := rec.ClosedAt.Format("15:04:05")

	if rec.Result == domain.StateAborted {
		fmt.Fprintf(c.out, "[%s] ABORTED %s — no profit | total:$%.2f trades:%d wins:%d\n",
			now, rec.Instrument, ledger.TotalProfit, ledger.TotalTrades, ledger.WinningTrades)
		return nil
	}

	fmt.Fprintf(c.out, "[%s] %s +$%.2f (buy:$%.2f sell:$%.2f mov:%.5f) | total:$%.2f trades:%d win%%:%.0f\n",
		now, rec.Instrument, rec.RealizedProfit,
		rec.BuyLegProfit, rec.SellLegProfit, rec.Movement,
		ledger.TotalProfit, ledger.TotalTrades, ledger.WinRate()*100)
	return nil
}

// NotifySkip prints the rejection reason when verbose.
func (c *Console) NotifySkip(_ context.Context, reason string) error {
	if !c.verbose {
		return nil
	}
	fmt.Fprintf(c.out, "[%s] skip: %s\n", time.Now().Format("15:04:05"), compactReason(reason, 80))
	return nil
}

// PrintReport renders the ledger totals and the per-day breakdown.
func (c *Console) PrintReport(ledger domain.Ledger, stats domain.Stats) {
	fmt.Fprintf(c.out, "\n=== STRADDLE REPORT ===\n\n")

	if !ledger.StartTime.IsZero() {
		fmt.Fprintf(c.out, "  Since:        %s\n", ledger.StartTime.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(c.out, "  Total Profit: $%.2f\n", ledger.TotalProfit)
	fmt.Fprintf(c.out, "  Trades:       %d (wins: %d, %.0f%%)\n",
		ledger.TotalTrades, ledger.WinningTrades, ledger.WinRate()*100)

	if stats.TotalCycles > 0 {
		fmt.Fprintf(c.out, "  Cycles:       %d recorded, %d aborted over %d day(s)\n",
			stats.Recorded, stats.Aborted, stats.DaysRunning)
		fmt.Fprintf(c.out, "  Best / Avg:   $%.2f / $%.2f\n", stats.BestWin, stats.AvgProfit)
	}

	if len(stats.Dailies) == 0 {
		fmt.Fprintln(c.out, "\n  (no recorded cycles yet)")
		return
	}

	fmt.Fprintln(c.out)
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Cycles", "Wins", "Profit", "Best", "Avg wait")

	for _, d := range stats.Dailies {
		table.Append(
			d.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", d.Cycles),
			fmt.Sprintf("%d", d.Wins),
			fmt.Sprintf("$%.2f", d.Profit),
			fmt.Sprintf("$%.2f", d.BestWin),
			(time.Duration(d.AvgWaitS) * time.Second).String(),
		)
	}

	table.Render()
}

// compactReason trims a gateway reason for the one-line format.
func compactReason(reason string, maxLen int) string {
	reason = strings.TrimSpace(reason)
	if len(reason) <= maxLen {
		return reason
	}
	return reason[:maxLen-3] + "..."
}
