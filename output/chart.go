package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lflog/lflog/scan"
)

// PlotMatchRate renders matched vs unmatched line counts per file as an
// interactive bar chart written to an HTML file.
func PlotMatchRate(stats []scan.FileStats, filename string) error {
	labels := make([]string, 0, len(stats))
	matched := make([]opts.BarData, 0, len(stats))
	unmatched := make([]opts.BarData, 0, len(stats))

	for _, fs := range stats {
		labels = append(labels, filepath.Base(fs.Path))
		matched = append(matched, opts.BarData{
			Value: fs.Matched,
			Name:  fs.Path,
		})
		unmatched = append(unmatched, opts.BarData{
			Value: fs.Unmatched,
			Name:  fs.Path,
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Pattern Match Rate",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Matched vs unmatched lines per file",
			Left:  "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "File",
			Data: labels,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Lines",
		}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("matched", matched)
	bar.AddSeries("unmatched", unmatched)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(bar)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create chart file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering match-rate chart: %w", err)
	}
	return nil
}
