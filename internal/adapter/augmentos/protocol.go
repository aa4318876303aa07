package augmentos

import (
	"encoding/json"
	"time"

	"LockIn/internal/service/lockin"
)

// Типы сообщений облака AugmentOS (TPA websocket).
const (
	msgConnectionInit  = "tpa_connection_init"
	msgConnectionAck   = "tpa_connection_ack"
	msgConnectionError = "tpa_connection_error"
	msgSubscription    = "subscription_update"
	msgDisplayEvent    = "display_event"
	msgDataStream      = "data_stream"
	msgStopped         = "tpa_stopped"
	msgAppStopped      = "app_stopped"
	msgError           = "error"

	streamTranscription = "transcription"
	streamNotification  = "phone_notification"
	streamBattery       = "glasses_battery_update"

	layoutBitmap   = "bitmap_view"
	layoutTextWall = "text_wall"
	viewMain       = "main"
)

// subscriptions — потоки, на которые подписывается каждая сессия.
var subscriptions = []string{streamTranscription, streamNotification, streamBattery}

// EventKind — тип входящего события сессии.
type EventKind int

const (
	EventTranscription EventKind = iota + 1
	EventNotification
	EventBattery
	EventError
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventTranscription:
		return "transcription"
	case EventNotification:
		return "notification"
	case EventBattery:
		return "battery"
	case EventError:
		return "error"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event — разобранное входящее сообщение.
type Event struct {
	Kind          EventKind
	Transcription lockin.Transcription // для EventTranscription
	Message       string               // текст ошибки или причина остановки
	Raw           json.RawMessage      // исходные данные потока (уведомления, батарея)
}

type connectionInit struct {
	Type        string `json:"type"`
	PackageName string `json:"packageName"`
	SessionID   string `json:"sessionId"`
	APIKey      string `json:"apiKey"`
}

type subscriptionUpdate struct {
	Type          string   `json:"type"`
	PackageName   string   `json:"packageName"`
	SessionID     string   `json:"sessionId"`
	Subscriptions []string `json:"subscriptions"`
}

type layout struct {
	LayoutType string `json:"layoutType"`
	Text       string `json:"text,omitempty"`
	Data       string `json:"data,omitempty"`
}

type displayEvent struct {
	Type        string    `json:"type"`
	PackageName string    `json:"packageName"`
	SessionID   string    `json:"sessionId"`
	View        string    `json:"view"`
	Layout      layout    `json:"layout"`
	DurationMs  int64     `json:"durationMs,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// inbound — общая форма входящего сообщения; поля заполняются в зависимости от type.
type inbound struct {
	Type       string          `json:"type"`
	StreamType string          `json:"streamType"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Reason     string          `json:"reason"`

	// Транскрипция может прийти и без обёртки data_stream.
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

type transcriptionData struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"isFinal"`
}

// parseServerMessage превращает JSON облака в Event. false — сообщение не интересно сессии.
func parseServerMessage(data []byte) (Event, bool) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, false
	}

	switch msg.Type {
	case msgDataStream:
		return parseStream(msg.StreamType, msg.Data)
	case streamTranscription:
		return Event{Kind: EventTranscription, Transcription: lockin.Transcription{Text: msg.Text, IsFinal: msg.IsFinal}}, true
	case streamNotification, streamBattery:
		return parseStream(msg.Type, json.RawMessage(data))
	case msgStopped, msgAppStopped:
		return Event{Kind: EventStopped, Message: msg.Reason}, true
	case msgError, msgConnectionError:
		return Event{Kind: EventError, Message: msg.Message}, true
	default:
		return Event{}, false
	}
}

func parseStream(streamType string, raw json.RawMessage) (Event, bool) {
	switch streamType {
	case streamTranscription:
		var td transcriptionData
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &td); err != nil {
				return Event{}, false
			}
		}
		return Event{Kind: EventTranscription, Transcription: lockin.Transcription{Text: td.Text, IsFinal: td.IsFinal}}, true
	case streamNotification:
		return Event{Kind: EventNotification, Raw: raw}, true
	case streamBattery:
		return Event{Kind: EventBattery, Raw: raw}, true
	default:
		return Event{}, false
	}
}
