package cpu

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

type TipoEvento string

const (
	EventoDespachado TipoEvento = "DESPACHADO"
	EventoEjecutado  TipoEvento = "EJECUTADO"
	EventoExpropiado TipoEvento = "EXPROPIADO"
	EventoFinalizado TipoEvento = "FINALIZADO"
	EventoAbortado   TipoEvento = "ABORTADO"
	EventoDetenida   TipoEvento = "DETENIDA"
)

// Evento describe algo que le pasó a una CPU en un slot. PID es -1 en los
// eventos que no involucran a un proceso.
type Evento struct {
	Tipo  TipoEvento
	Slot  int
	CPU   int
	PID   int
	PC    int
	Error error
}

func (e Evento) String() string {
	switch e.Tipo {
	case EventoDetenida:
		return fmt.Sprintf("Slot %d - CPU %d - Detenida", e.Slot, e.CPU)
	case EventoAbortado:
		return fmt.Sprintf("Slot %d - CPU %d - (%d) - Abortado: %v", e.Slot, e.CPU, e.PID, e.Error)
	default:
		return fmt.Sprintf("Slot %d - CPU %d - (%d) - %s - PC: %d", e.Slot, e.CPU, e.PID, e.Tipo, e.PC)
	}
}

// Observador recibe los eventos de todas las CPUs. Se lo llama desde varias
// goroutines a la vez.
type Observador interface {
	Notificar(evento Evento)
}

type ObservadorFunc func(evento Evento)

func (f ObservadorFunc) Notificar(evento Evento) {
	f(evento)
}

func registrarEvento(evento Evento) {
	switch evento.Tipo {
	case EventoEjecutado:
		utils.InfoLog.Debug(evento.String())
	case EventoAbortado:
		utils.ErrorLog.Error(evento.String())
	default:
		utils.InfoLog.Info(evento.String())
	}
}
