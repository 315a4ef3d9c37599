package event

import (
	"time"

	"github.com/google/uuid"
)

// Envelope is what sinks receive: one event plus delivery metadata.
// Envelope 是 Sink 接收的数据：一个事件加上投递元数据。
type Envelope struct {
	ID         string    `json:"id"`
	Source     Source    `json:"source"`
	ReceivedAt time.Time `json:"received_at"`
	Event      Event     `json:"event"`
}

// NewEnvelope wraps an event produced from line.
func NewEnvelope(line RawLine, ev Event) *Envelope {
	received := line.ReadAt
	if received.IsZero() {
		received = time.Now()
	}
	return &Envelope{
		ID:         uuid.NewString(),
		Source:     ev.Source(),
		ReceivedAt: received,
		Event:      ev,
	}
}

// Fields flattens the envelope into the variables visible to filter expressions.
// Fields 将信封展开为过滤表达式可见的变量。
func (e *Envelope) Fields() map[string]any {
	f := map[string]any{
		"id":     e.ID,
		"source": e.Source.String(),
		"kind":   e.Event.Kind(),
	}

	switch ev := e.Event.(type) {
	case SysEvent:
		f["value"] = ev.Value
		if m, ok := ev.Value.(map[string]any); ok {
			for k, v := range m {
				if _, taken := f[k]; !taken {
					f[k] = v
				}
			}
		}
	case FsEvent:
		f["time"] = ev.Time
		f["event_type"] = ev.EventType
		f["duration"] = ev.Duration
		f["process_name"] = ev.ProcessName
		f["pid"] = int(ev.Pid)
		f["file_paths"] = ev.FilePaths
	case NetEvent:
		f["timestamp"] = ev.Timestamp
		f["length"] = int(ev.Length)
		switch p := ev.Payload.(type) {
		case ArpPayload:
			f["connect_type"] = p.ConnectType
			f["who_has"] = p.WhoHas
			f["tell"] = p.Tell
		case IpPayload:
			f["proto"] = p.Proto
			f["payload_len"] = int(p.PayloadLen)
			f["src"] = p.Source
			f["dest"] = p.Dest
		}
	}
	return f
}
