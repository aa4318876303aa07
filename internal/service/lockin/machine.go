package lockin

import (
	"time"

	"LockIn/internal/service/assets"
	"LockIn/internal/service/deferred"

	"go.uber.org/zap"
)

const (
	// InactivityTimeout — окно тишины после финальной фразы, после которого картинка скрывается.
	InactivityTimeout = 10 * time.Second

	// DeactivatedText — подтверждение выключения режима.
	DeactivatedText = "Lock-in mode deactivated"

	// Длительность пустого text wall, если пустая картинка недоступна.
	fallbackClearDuration = 100 * time.Millisecond
)

// Transcription — событие распознавания речи.
type Transcription struct {
	Text    string
	IsFinal bool
}

// TextWallOptions — параметры показа текста.
type TextWallOptions struct {
	Duration time.Duration // 0 — без ограничения
}

// Display — внешний дисплей очков. Команды fire-and-forget; ошибка только логируется.
type Display interface {
	ShowBitmap(base64Image string) error
	ShowTextWall(text string, opts TextWallOptions) error
}

// State — снимок состояния сессии.
type State struct {
	LockInEnabled   bool
	BitmapDisplayed bool
	TimerPending    bool
}

// Machine — конечный автомат дисплея одной сессии.
// Не потокобезопасен: события и срабатывания таймера должны приходить из одного цикла.
type Machine struct {
	display Display
	images  assets.Images
	timer   *deferred.Slot
	logger  *zap.SugaredLogger

	lockInEnabled   bool
	bitmapDisplayed bool
}

// New создаёт автомат в состоянии по умолчанию. timer принадлежит автомату.
func New(display Display, images assets.Images, timer *deferred.Slot, logger *zap.SugaredLogger) *Machine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Machine{display: display, images: images, timer: timer, logger: logger}
}

// Reset возвращает состояние к значениям по умолчанию (старт сессии).
func (m *Machine) Reset() {
	m.timer.Cancel()
	m.lockInEnabled = false
	m.bitmapDisplayed = false
}

// Close отменяет ожидающий таймер при завершении сессии. После Close
// таймер больше не планируется.
func (m *Machine) Close() {
	m.timer.Close()
}

func (m *Machine) State() State {
	return State{
		LockInEnabled:   m.lockInEnabled,
		BitmapDisplayed: m.bitmapDisplayed,
		TimerPending:    m.timer.Pending(),
	}
}

// HandleTranscription обрабатывает одно событие транскрипции.
func (m *Machine) HandleTranscription(ev Transcription) {
	if ev.IsFinal {
		switch MatchCommand(ev.Text) {
		case CommandTurnOn:
			m.logger.Infow("Lock-in mode enabled", "text", ev.Text)
			m.lockInEnabled = true
			return
		case CommandTurnOff:
			m.logger.Infow("Lock-in mode disabled", "text", ev.Text)
			m.turnOff()
			return
		}
	}

	if !m.lockInEnabled {
		return
	}

	if !m.bitmapDisplayed && m.images.ActiveAvailable() {
		m.logger.Debugw("Displaying bitmap image")
		m.send("show_bitmap", m.display.ShowBitmap(m.images.Active))
		m.bitmapDisplayed = true
	}

	// Новая речь сбрасывает окно тишины
	if m.timer.Cancel() {
		m.logger.Debugw("Canceling previous timer")
	}

	if ev.IsFinal {
		m.logger.Debugw("Final transcription, scheduling clear", "text", ev.Text, "after", InactivityTimeout.String())
		m.timer.Schedule(InactivityTimeout, m.clearAfterInactivity)
	}
}

func (m *Machine) turnOff() {
	if m.images.EmptyAvailable() {
		m.send("clear_bitmap", m.display.ShowBitmap(m.images.Empty))
	}
	m.lockInEnabled = false
	m.bitmapDisplayed = false
	m.timer.Cancel()
	m.send("show_text", m.display.ShowTextWall(DeactivatedText, TextWallOptions{}))
}

// clearAfterInactivity выполняется по таймеру в цикле сессии.
// Без пустой картинки очищаем дисплей коротким пустым text wall.
func (m *Machine) clearAfterInactivity() {
	m.logger.Infow("Clearing bitmap after inactivity", "timeout", InactivityTimeout.String())
	if m.images.EmptyAvailable() {
		m.send("clear_bitmap", m.display.ShowBitmap(m.images.Empty))
	} else {
		m.logger.Warnw("Пустая картинка недоступна, очищаем через text wall")
		m.send("clear_text", m.display.ShowTextWall("", TextWallOptions{Duration: fallbackClearDuration}))
	}
	m.bitmapDisplayed = false
}

func (m *Machine) send(op string, err error) {
	if err != nil {
		m.logger.Warnw("Display command failed", "op", op, "error", err)
	}
}
