package report

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/topfang/internal/evaluation"
)

const (
	chartWidth  = "1100px"
	chartHeight = "450px"
)

// WritePlots renders one actual-vs-estimated bar chart per evaluated window
// into a single HTML page at path. Failed and skipped windows are omitted.
func WritePlots(path, method string, reports []evaluation.WindowReport) (err error) {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s heavy hitters", method)

	for _, r := range reports {
		if r.Err != nil || r.Skipped {
			continue
		}

		page.AddCharts(windowChart(r))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("close plot file: %w", closeErr)
		}
	}()

	renderErr := page.Render(f)
	if renderErr != nil {
		return fmt.Errorf("render plots: %w", renderErr)
	}

	return nil
}

// windowChart builds the per-window bar chart: the union of actual and
// estimated heavy hitters on the x-axis, their frequencies side by side.
func windowChart(r evaluation.WindowReport) *charts.Bar {
	actual := make(map[string]float64, len(r.ActualTopN))
	for _, it := range r.ActualTopN {
		actual[it.Item] = it.Freq
	}

	estimated := make(map[string]float64, len(r.EstimatedTopN))
	for _, it := range r.EstimatedTopN {
		estimated[it.Item] = it.Freq
	}

	keys := make([]string, 0, len(actual)+len(estimated))
	seen := make(map[string]struct{}, len(actual)+len(estimated))

	for _, lists := range [][]evaluation.RankedItem{r.ActualTopN, r.EstimatedTopN} {
		for _, it := range lists {
			if _, ok := seen[it.Item]; !ok {
				seen[it.Item] = struct{}{}
				keys = append(keys, it.Item)
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if actual[keys[i]] != actual[keys[j]] {
			return actual[keys[i]] > actual[keys[j]]
		}

		return keys[i] < keys[j]
	})

	actualBars := make([]opts.BarData, len(keys))
	estimatedBars := make([]opts.BarData, len(keys))

	for i, k := range keys {
		actualBars[i] = opts.BarData{Value: actual[k]}
		estimatedBars[i] = opts.BarData{Value: estimated[k]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Window %d", r.Window),
			Subtitle: fmt.Sprintf("F1 %.3f, RMSE %.4f, q %d", r.Metrics.F1, r.Metrics.RMSE, r.Result.Q),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "frequency"}),
	)

	bar.SetXAxis(keys)
	bar.AddSeries("actual", actualBars)
	bar.AddSeries("estimated", estimatedBars)

	return bar
}
