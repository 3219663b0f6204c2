package event

import "skid-commons/internal/domain"

// MessageCreated se publica cada vez que un mensaje queda persistido.
type MessageCreated struct {
	ChatID  string             `json:"chatId"`
	Message domain.MessageView `json:"message"`
}

// ParticipantAdded se publica cuando un chat se comparte con un usuario.
type ParticipantAdded struct {
	ChatID string          `json:"chatId"`
	User   domain.UserView `json:"user"`
}

// Bus es la capacidad de publicar eventos de dominio hacia el transporte
// en tiempo real. Sin cola ni retry: un receptor desconectado simplemente
// no recibe el evento; la base es la fuente de verdad al reconectar.
type Bus interface {
	PublishMessageCreated(evt MessageCreated)
	PublishParticipantAdded(evt ParticipantAdded)
}

// Sink es el unico receptor, registrado una vez al arranque.
type Sink interface {
	MessageCreated(evt MessageCreated)
	ParticipantAdded(evt ParticipantAdded)
}

// SinkBus entrega sincronicamente al sink, asi el orden de entrega es el
// orden de publicacion de cada flujo que publica.
type SinkBus struct {
	sink Sink
}

func NewSinkBus(sink Sink) *SinkBus {
	return &SinkBus{sink: sink}
}

func (b *SinkBus) PublishMessageCreated(evt MessageCreated) {
	b.sink.MessageCreated(evt)
}

func (b *SinkBus) PublishParticipantAdded(evt ParticipantAdded) {
	b.sink.ParticipantAdded(evt)
}

// NopBus descarta todo; util para armar el servicio sin transporte.
type NopBus struct{}

func (NopBus) PublishMessageCreated(MessageCreated)     {}
func (NopBus) PublishParticipantAdded(ParticipantAdded) {}
