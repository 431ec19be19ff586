package domain

import (
	"sort"
	"time"
)

// IntervalMode классифицирует сегмент таймлайна.
type IntervalMode string

const (
	// IntervalProduction — сегмент производства.
	IntervalProduction IntervalMode = "production"
	// IntervalDowntime — сегмент простоя.
	IntervalDowntime IntervalMode = "downtime"
)

// Interval — производный (не хранимый) отрезок времени по заказу.
// Интервалы одного заказа упорядочены по началу и не пересекаются;
// конец интервала i совпадает с началом интервала i+1, пока заказ
// оставался активным.
type Interval struct {
	OrderID string
	Start   time.Time
	End     time.Time
	Mode    IntervalMode
	// Cause и Note заполняются только для простоев и берутся с события,
	// завершившего простой.
	Cause string
	Note  string
}

// Minutes возвращает длительность интервала в минутах.
func (i Interval) Minutes() float64 {
	return i.End.Sub(i.Start).Minutes()
}

// SortChronologically возвращает копию событий, упорядоченную по
// временной метке; одинаковые метки разрешаются порядком добавления
// в журнал (Seq), поэтому сортировка детерминирована.
func SortChronologically(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Occurred.Equal(sorted[j].Occurred) {
			return sorted[i].Occurred.Before(sorted[j].Occurred)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// reconstruction держит текущее состояние прохода по журналу.
type reconstruction struct {
	orderID   string
	mode      IntervalMode
	open      bool
	openStart time.Time
	intervals []Interval
}

// Reconstruct заново восстанавливает таймлайн заказа из его событий:
// последовательность непересекающихся сегментов производства/простоя.
// Журнал — единственный источник истины; функция чистая и её можно
// вызывать на каждый запрос чтения.
//
// asOf закрывает «живой» хвост: если после всех событий сегмент остался
// открытым, а заказ всё ещё активен, добавляется интервал с концом asOf.
// Это единственное место, где «сейчас» участвует в расчёте; все прочие
// границы берутся строго из событий журнала.
//
// Аномальные события (end_downtime вне простоя, повторный
// start_production) пропускаются: один испорченный исторический факт не
// должен делать весь таймлайн невосстановимым.
func Reconstruct(order Order, events []Event, asOf time.Time) []Interval {
	r := reconstruction{orderID: order.ID}
	completed := false

	for _, event := range SortChronologically(events) {
		if event.OrderID != order.ID {
			continue
		}
		if completed {
			break
		}

		switch event.Kind {
		case EventStartProduction:
			r.closeAt(event.Occurred, "", "")
			r.openAt(IntervalProduction, event.Occurred)
		case EventStartDowntime:
			r.closeAt(event.Occurred, "", "")
			r.openAt(IntervalDowntime, event.Occurred)
		case EventEndDowntime:
			if !r.open || r.mode != IntervalDowntime {
				// Непарное завершение простоя: аномалия, не фатально.
				continue
			}
			r.closeAt(event.Occurred, event.Cause, event.Note)
			r.openAt(IntervalProduction, event.Occurred)
		case EventCompleteOrder:
			r.closeAt(event.Occurred, "", "")
			completed = true
		case EventRecordQuantity:
			// Количество не влияет на сегментацию таймлайна.
		}
	}

	// Живой хвост: заказ ещё идёт, сегмент продолжается до asOf.
	if r.open && !completed && order.Active() {
		r.closeAt(asOf, "", "")
	}

	return r.intervals
}

func (r *reconstruction) openAt(mode IntervalMode, start time.Time) {
	r.mode = mode
	r.open = true
	r.openStart = start
}

// closeAt завершает открытый сегмент; сегменты нулевой длины схлопываются.
func (r *reconstruction) closeAt(end time.Time, cause, note string) {
	if !r.open {
		return
	}
	r.open = false
	if !end.After(r.openStart) {
		return
	}

	interval := Interval{
		OrderID: r.orderID,
		Start:   r.openStart,
		End:     end,
		Mode:    r.mode,
	}
	if r.mode == IntervalDowntime {
		interval.Cause = cause
		interval.Note = note
	}
	r.intervals = append(r.intervals, interval)
}
