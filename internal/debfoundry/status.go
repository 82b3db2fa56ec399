package debfoundry

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// runStatusTUI shows a read-only package/artifact overview: one row per
// buildable package with its declared version, artifact state and
// staleness, plus the last build log for the selected row.
func runStatusTUI(st *Settings, oracle *StalenessOracle) error {
	infos, err := gatherPackages(st, oracle, "")
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No buildable packages found.")
		return nil
	}

	app := tview.NewApplication()

	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetTitle(" debfoundry package status ")

	headers := []string{"package", "version", "artifact", "state"}
	for col, h := range headers {
		table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}
	for row, p := range infos {
		artifact := "-"
		state := "never built"
		stateColor := tcell.ColorRed
		if p.HasArtifact {
			artifact = p.ArtifactTime
			if p.Stale {
				state = "stale"
				stateColor = tcell.ColorOrange
			} else {
				state = "current"
				stateColor = tcell.ColorGreen
			}
		}
		table.SetCell(row+1, 0, tview.NewTableCell(p.Name).SetExpansion(1))
		table.SetCell(row+1, 1, tview.NewTableCell(p.Version).SetExpansion(1))
		table.SetCell(row+1, 2, tview.NewTableCell(artifact).SetExpansion(1))
		table.SetCell(row+1, 3, tview.NewTableCell(state).SetTextColor(stateColor).SetExpansion(1))
	}

	logView := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false).
		SetScrollable(true)
	logView.SetBorder(true)
	logView.SetTitle(" last build log ")

	showLog := func(row int) {
		if row < 1 || row > len(infos) {
			logView.SetText("")
			return
		}
		pkg := infos[row-1].Name
		data, err := os.ReadFile(st.buildLogPath(pkg))
		if err != nil {
			logView.SetText(fmt.Sprintf("no build log for %q", pkg))
			return
		}
		logView.SetText(string(data))
		logView.ScrollToBeginning()
	}

	table.SetSelectionChangedFunc(func(row, col int) {
		showLog(row)
	})
	table.Select(1, 0)
	showLog(1)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(table, 0, 2, true).
		AddItem(logView, 0, 1, false)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlQ:
			app.Stop()
			return nil
		}
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(flex, true).Run()
}
