// epilogue_dump emits the write batches of a few canned kernel
// configurations and prints the generated instruction streams, for
// eyeballing codegen changes without assembling a full kernel.
//
// With no arguments it dumps every scenario; pass scenario names to dump a
// subset. -list shows what is available, -stats appends a table with
// per-scenario instruction counts.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gcnforge/gcnforge/internal/xslices"
	"github.com/gcnforge/gcnforge/isa"
	"k8s.io/klog/v2"
)

var (
	flagList  = flag.Bool("list", false, "List the available scenarios and exit.")
	flagStats = flag.Bool("stats", false, "Append a table with per-scenario instruction counts.")

	flagWavefront = flag.Int("wavefront", 64, "Wavefront size to generate for: 32 or 64.")
	flagElements  = flag.Int("elements", 2,
		fmt.Sprintf("Output elements per batch, 1 to %d.", maxElements))
	flagGWVW = flag.Int("gwvw", 2,
		fmt.Sprintf("Sub-vector values per element (the global-write vector width), 1 to %d.", maxGWVW))
)

func main() {
	flag.Parse()

	if *flagWavefront != 32 && *flagWavefront != 64 {
		klog.Errorf("-wavefront must be 32 or 64, got %d.", *flagWavefront)
		os.Exit(1)
	}
	if *flagElements < 1 || *flagElements > maxElements {
		klog.Errorf("-elements must be between 1 and %d, got %d.", maxElements, *flagElements)
		os.Exit(1)
	}
	if *flagGWVW < 1 || *flagGWVW > maxGWVW {
		klog.Errorf("-gwvw must be between 1 and %d, got %d.", maxGWVW, *flagGWVW)
		os.Exit(1)
	}
	if *flagList {
		listScenarios()
		return
	}

	names := flag.Args()
	if len(names) == 0 {
		names = xslices.SortedKeys(scenarios)
	}
	var rows [][]string
	for _, name := range names {
		sc, ok := scenarios[name]
		if !ok {
			klog.Errorf("Unknown scenario %q. See 'epilogue_dump -list'.", name)
			os.Exit(1)
		}
		mod := emitScenario(sc)
		fmt.Println(titleStyle.Render(name))
		fmt.Println(mod.Asm())
		fmt.Println()
		if *flagStats {
			rows = append(rows, statsRow(name, mod.Stats()))
		}
	}
	if *flagStats {
		table := newPlainTable(true, lipgloss.Left, lipgloss.Right)
		table.Row("scenario", "insts", "valu", "salu", "loads", "stores", "atomics", "lds", "waits", "branches")
		for _, row := range rows {
			table.Row(row...)
		}
		fmt.Println(table.Render())
	}
}

func listScenarios() {
	table := newPlainTable(true, lipgloss.Left)
	table.Row("scenario", "configuration")
	for _, name := range xslices.SortedKeys(scenarios) {
		table.Row(name, scenarios[name].about)
	}
	fmt.Println(table.Render())
}

func statsRow(name string, s isa.Stats) []string {
	i := strconv.Itoa
	return []string{name, i(s.Insts), i(s.VALU), i(s.SALU),
		i(s.VMemLoads), i(s.VMemStores), i(s.Atomics), i(s.LDSOps), i(s.Waits), i(s.Branches)}
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 2, 0, 2).Reverse(true)
)

func newPlainTable(withHeader bool, alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row < 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			} else if len(alignments) > 0 {
				alignment = xslices.Last(alignments)
			}
			return s.Align(alignment)
		})
}
