package notify

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// WalletReport agrupa lo necesario para imprimir una fila del reporte.
type WalletReport struct {
	Wallet domain.TrackedWallet
	Stats  domain.WalletStats
	Open   []domain.Position
}

// Console imprime reportes del subledger a stdout.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// PrintReport imprime el estado de todas las wallets y el pool operativo.
func (c *Console) PrintReport(reports []WalletReport, pool domain.OperatingView) {
	fmt.Fprintf(c.out, "\n╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(c.out, "║                     COPY TRADING REPORT                      ║\n")
	fmt.Fprintf(c.out, "╚══════════════════════════════════════════════════════════════╝\n\n")

	if len(reports) == 0 {
		fmt.Fprintln(c.out, "  (no tracked wallets)")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Wallet", "Deposited", "Exposure", "Realized", "Available", "Return%", "Open", "Closed")

	for _, r := range reports {
		name := r.Wallet.Alias
		if name == "" {
			name = shortAddr(r.Wallet.Address)
		}
		if !r.Wallet.Enabled {
			name += " (off)"
		}
		table.Append(
			name,
			fmt.Sprintf("$%.2f", r.Stats.Deposited-r.Stats.Withdrawn),
			fmt.Sprintf("$%.2f", r.Stats.Exposure),
			fmt.Sprintf("$%.2f", r.Stats.RealizedPnl),
			fmt.Sprintf("$%.2f", r.Stats.Available),
			fmt.Sprintf("%.1f%%", r.Stats.ReturnPercent),
			fmt.Sprintf("%d", r.Stats.OpenCount),
			fmt.Sprintf("%d", r.Stats.ClosedCount),
		)
	}
	table.Render()

	fmt.Fprintf(c.out, "\n── OPERATING POOL ──\n")
	fmt.Fprintf(c.out, "  Deposited: $%.2f | Withdrawn: $%.2f | Allocated: $%.2f | Available: $%.2f\n",
		pool.Deposited, pool.Withdrawn, pool.Allocated, pool.Available)

	for _, r := range reports {
		if len(r.Open) == 0 {
			continue
		}
		fmt.Fprintf(c.out, "\n── OPEN POSITIONS: %s ──\n", r.Wallet.Alias)
		fmt.Fprintf(c.out, "  %8s %8s %8s %-40s %s\n", "SHARES", "AVG", "COST$", "MARKET", "AGE")
		for _, p := range r.Open {
			age := time.Since(p.OpenedAt).Truncate(time.Minute)
			fmt.Fprintf(c.out, "  %8.0f %8.3f %8.2f %-40s %v\n",
				p.Shares, p.AvgEntryPrice, p.TotalCost, truncateTitle(p.Title, p.TokenID, 40), age)
		}
	}
	fmt.Fprintln(c.out)
}

func shortAddr(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func truncateTitle(title, tokenID string, maxLen int) string {
	t := title
	if t == "" {
		t = tokenID
	}
	if len(t) > maxLen {
		t = t[:maxLen-3] + "..."
	}
	return t
}
