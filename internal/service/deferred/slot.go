package deferred

import "time"

// Timer — остановимый таймер часов.
type Timer interface {
	// Stop отменяет таймер; false, если он уже сработал или был остановлен.
	Stop() bool
}

// Clock абстрагирует time.AfterFunc, чтобы в тестах управлять временем вручную.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock — часы на основе пакета time.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Slot — ячейка «текущего отложенного действия»: не более одного действия в ожидании.
//
// Все методы Slot должны вызываться из одного потока владельца (цикл сессии).
// Срабатывание таймера не выполняет действие напрямую, а передаётся через post
// в очередь владельца, поэтому действие упорядочено с остальными событиями.
type Slot struct {
	clock Clock
	post  func(func())

	gen    uint64 // поколение текущего действия; срабатывание старого поколения — no-op
	timer  Timer
	action func()
	closed bool
}

// NewSlot создаёт пустую ячейку. post доставляет срабатывание в цикл владельца;
// nil означает выполнение прямо в горутине таймера (только для однопоточных тестов).
func NewSlot(clock Clock, post func(func())) *Slot {
	if clock == nil {
		clock = RealClock{}
	}
	if post == nil {
		post = func(f func()) { f() }
	}
	return &Slot{clock: clock, post: post}
}

// Schedule отменяет текущее действие (если есть) и планирует новое через d.
func (s *Slot) Schedule(d time.Duration, action func()) {
	if s.closed {
		return
	}
	s.Cancel()
	s.gen++
	gen := s.gen
	s.action = action
	s.timer = s.clock.AfterFunc(d, func() {
		s.post(func() { s.fire(gen) })
	})
}

// Cancel отменяет ожидающее действие. Возвращает true, если оно было.
func (s *Slot) Cancel() bool {
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.action = nil
	// Сдвигаем поколение: уже поставленное в очередь срабатывание станет no-op.
	s.gen++
	return true
}

// Pending сообщает, есть ли ожидающее действие.
func (s *Slot) Pending() bool { return s.timer != nil }

// Close отменяет действие и запрещает планирование новых.
func (s *Slot) Close() {
	s.Cancel()
	s.closed = true
}

func (s *Slot) fire(gen uint64) {
	if s.closed || gen != s.gen || s.timer == nil {
		return
	}
	action := s.action
	s.timer = nil
	s.action = nil
	if action != nil {
		action()
	}
}
