package domain

import "sort"

// Ratio — процентный показатель с признаком наличия плановой базы.
// При отсутствующем или нулевом плане значение не выдумывается:
// Percent равен нулю, HasBaseline — false.
type Ratio struct {
	Percent     float64
	HasBaseline bool
}

// CauseCount — одна строка Парето простоев.
type CauseCount struct {
	Cause string
	Count int
}

// Progress считает временной прогресс заказа: доля отработанных
// производственных минут от плановой длительности. Минуты простоев в
// прогресс не входят. Результат ограничен диапазоном [0, 100].
func Progress(order Order, intervals []Interval) Ratio {
	if order.PlannedMinutes <= 0 {
		return Ratio{}
	}

	var produced float64
	for _, interval := range intervals {
		if interval.Mode == IntervalProduction {
			produced += interval.Minutes()
		}
	}

	return Ratio{
		Percent:     clampPercent(produced / order.PlannedMinutes * 100),
		HasBaseline: true,
	}
}

// Throughput считает долю фактического количества от планового,
// ограниченную диапазоном [0, 100].
func Throughput(order Order) Ratio {
	if order.PlannedQty <= 0 {
		return Ratio{}
	}
	return Ratio{
		Percent:     clampPercent(order.RealizedQty / order.PlannedQty * 100),
		HasBaseline: true,
	}
}

// DowntimePareto строит гистограмму причин простоев: количество
// интервалов простоя на каждую непустую причину. Сортировка — по
// убыванию счётчика, при равенстве — по причине в алфавитном порядке,
// чтобы результат был детерминированным.
func DowntimePareto(intervals []Interval) []CauseCount {
	counts := make(map[string]int)
	for _, interval := range intervals {
		if interval.Mode != IntervalDowntime || interval.Cause == "" {
			continue
		}
		counts[interval.Cause]++
	}

	result := make([]CauseCount, 0, len(counts))
	for cause, count := range counts {
		result = append(result, CauseCount{Cause: cause, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Cause < result[j].Cause
	})

	return result
}

func clampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
