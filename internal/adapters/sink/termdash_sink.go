package sink

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mum4k/termdash/cell"
	"github.com/mum4k/termdash/container"
	"github.com/mum4k/termdash/linestyle"
	"github.com/mum4k/termdash/widgets/linechart"
	"github.com/mum4k/termdash/widgets/text"

	"github.com/netcriptus/raiden-services/internal/domain"
	"github.com/netcriptus/raiden-services/internal/ports"
)

var seriesColors = []cell.Color{
	cell.ColorGreen,
	cell.ColorCyan,
	cell.ColorYellow,
	cell.ColorMagenta,
	cell.ColorBlue,
	cell.ColorRed,
}

// TermdashSink renders chart keys as line charts and text keys in a side panel. It keeps
// its own bounded copy of each window since the widgets only accept whole series.
type TermdashSink struct {
	mu        sync.Mutex
	capacity  int
	chartKeys []string
	charts    map[string]*linechart.LineChart
	windows   map[string][]domain.Sample
	texts     map[string]string
	panel     *text.Text
}

func NewTermdashSink(chartKeys []string, capacity int) (*TermdashSink, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be > 0, got %d", capacity)
	}
	panel, err := text.New(text.WrapAtWords())
	if err != nil {
		return nil, err
	}
	s := &TermdashSink{
		capacity:  capacity,
		chartKeys: append([]string(nil), chartKeys...),
		charts:    make(map[string]*linechart.LineChart, len(chartKeys)),
		windows:   make(map[string][]domain.Sample, len(chartKeys)),
		texts:     make(map[string]string),
		panel:     panel,
	}
	for _, k := range chartKeys {
		lc, err := linechart.New(
			linechart.AxesCellOpts(cell.FgColor(cell.ColorWhite)),
			linechart.YLabelCellOpts(cell.FgColor(cell.ColorWhite)),
			linechart.XLabelCellOpts(cell.FgColor(cell.ColorWhite)),
			linechart.YAxisAdaptive(),
		)
		if err != nil {
			return nil, err
		}
		s.charts[k] = lc
	}
	return s, nil
}

func (s *TermdashSink) Name() string { return "termdash" }

func (s *TermdashSink) Push(u domain.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, p := range u.Points {
		if _, ok := s.charts[p.Key]; !ok {
			continue
		}
		w := append(s.windows[p.Key], p.Sample)
		if len(w) > s.capacity {
			w = w[len(w)-s.capacity:]
		}
		s.windows[p.Key] = w
		touched[p.Key] = true
	}
	for _, t := range u.Texts {
		s.texts[t.Key] = t.Value
	}

	for i, k := range s.chartKeys {
		if !touched[k] {
			continue
		}
		if err := s.redraw(k, seriesColors[i%len(seriesColors)]); err != nil {
			return err
		}
	}
	if len(u.Texts) > 0 {
		return s.panel.Write(s.renderTexts(), text.WriteReplace())
	}
	return nil
}

func (s *TermdashSink) redraw(key string, color cell.Color) error {
	w := s.windows[key]
	values := make([]float64, len(w))
	labels := make(map[int]string, len(w))
	for i, sample := range w {
		values[i] = sample.Value
		labels[i] = sample.Timestamp.Format("15:04:05")
	}
	return s.charts[key].Series(key, values,
		linechart.SeriesCellOpts(cell.FgColor(color)),
		linechart.SeriesXLabels(labels),
	)
}

func (s *TermdashSink) renderTexts() string {
	keys := make([]string, 0, len(s.texts))
	for k := range s.texts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, s.texts[k])
	}
	return b.String()
}

// Window returns the sink's projection for key.
func (s *TermdashSink) Window(key string) []domain.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Sample(nil), s.windows[key]...)
}

// Layout returns the container options that place every widget: charts stacked on the
// left, the text panel on the right.
func (s *TermdashSink) Layout(title string) []container.Option {
	panel := []container.Option{
		container.Border(linestyle.Light),
		container.BorderTitle("stats"),
		container.PlaceWidget(s.panel),
	}

	var rows [][]container.Option
	for _, k := range s.chartKeys {
		rows = append(rows, []container.Option{
			container.Border(linestyle.Light),
			container.BorderTitle(k),
			container.PlaceWidget(s.charts[k]),
		})
	}

	root := []container.Option{
		container.Border(linestyle.Double),
		container.BorderTitle(title),
	}
	if len(rows) == 0 {
		return append(root, container.PlaceWidget(s.panel))
	}
	return append(root, container.SplitVertical(
		container.Left(stackRows(rows)...),
		container.Right(panel...),
		container.SplitPercent(75),
	))
}

func stackRows(rows [][]container.Option) []container.Option {
	if len(rows) == 1 {
		return rows[0]
	}
	return []container.Option{
		container.SplitHorizontal(
			container.Top(rows[0]...),
			container.Bottom(stackRows(rows[1:])...),
			container.SplitPercent(100/len(rows)),
		),
	}
}

var _ ports.Sink = (*TermdashSink)(nil)
