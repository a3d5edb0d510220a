// Package cpu implementa las CPUs virtuales. Cada CPU corre en su propia
// goroutine y ejecuta exactamente un paso del proceso que tiene por slot.
package cpu

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/planificador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/reloj"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

const (
	EstadoInactiva    = "INACTIVA"
	EstadoDespachando = "DESPACHANDO"
	EstadoEjecutando  = "EJECUTANDO"
	EstadoExpropiando = "EXPROPIANDO"
	EstadoFinalizando = "FINALIZANDO"
	EstadoDetenida    = "DETENIDA"
)

// Admision indica si el cargador ya admitió todos los procesos
type Admision interface {
	AdmisionCompleta() bool
}

// Dependencias agrupa los componentes compartidos por todas las CPUs
type Dependencias struct {
	Reloj        *reloj.Reloj
	Planificador planificador.Planificador
	Memoria      memoria.Memoria
	Interprete   *Interprete
	Admision     Admision
	Observador   Observador
}

// EstadoCPU es una foto de la CPU para el monitor
type EstadoCPU struct {
	ID     int    `json:"id"`
	Estado string `json:"estado"`
	PID    int    `json:"pid"`
}

type CPU struct {
	ID      int
	quantum int
	deps    Dependencias

	participante *reloj.Participante

	// actual y restante sólo los toca la goroutine de la CPU
	actual   *proceso.PCB
	restante int

	mu     sync.Mutex
	estado EstadoCPU
}

// Nueva crea la CPU y la registra en el reloj. El registro ocurre acá y no en
// Ejecutar para que ningún slot avance antes de que la goroutine arranque.
func Nueva(id int, quantum int, deps Dependencias) *CPU {
	if deps.Interprete == nil {
		deps.Interprete = NuevoInterprete(deps.Memoria, "", 0)
	}
	c := &CPU{
		ID:           id,
		quantum:      quantum,
		deps:         deps,
		participante: deps.Reloj.Registrar(fmt.Sprintf("CPU %d", id), reloj.FaseEjecucion),
		estado:       EstadoCPU{ID: id, Estado: EstadoInactiva, PID: -1},
	}
	utils.InfoLog.Info("CPU inicializada correctamente", "cpu", id, "quantum", quantum)
	return c
}

// Ejecutar corre el ciclo de la CPU hasta que no quedan procesos por admitir
// ni listos. Bloquea; se espera que se llame en su propia goroutine.
func (c *CPU) Ejecutar() {
	defer c.detener()

	c.deps.Reloj.Esperar(c.participante)
	for {
		slot := c.deps.Reloj.SlotActual()

		if c.actual == nil {
			c.despachar(slot)
		}

		// Un proceso expropiado por otra CPU en este slot espera al siguiente
		if c.actual != nil && c.actual.SlotUltimoPaso < slot {
			c.ejecutarPaso(slot)
		}

		if c.actual == nil {
			if c.deps.Admision.AdmisionCompleta() {
				return
			}
			c.cambiarEstado(EstadoInactiva, -1)
		}

		c.deps.Reloj.Avanzar(c.participante)
	}
}

// despachar toma el próximo proceso listo. Un programa vacío se finaliza en
// el acto y se intenta con el siguiente.
func (c *CPU) despachar(slot int) {
	for {
		pcb := c.deps.Planificador.Obtener()
		if pcb == nil {
			return
		}

		c.cambiarEstado(EstadoDespachando, pcb.PID)
		pcb.CambiarEstado(proceso.EstadoExec)
		c.actual = pcb
		c.restante = c.quantum
		c.emitir(Evento{Tipo: EventoDespachado, Slot: slot, PID: pcb.PID, PC: pcb.PC})

		if !pcb.Terminado() {
			c.cambiarEstado(EstadoEjecutando, pcb.PID)
			return
		}
		c.finalizar(slot, nil)
	}
}

func (c *CPU) ejecutarPaso(slot int) {
	pcb := c.actual
	err := c.deps.Interprete.Ejecutar(pcb)
	pcb.SlotUltimoPaso = slot
	c.restante--

	if err != nil {
		c.finalizar(slot, err)
		c.despachar(slot)
		return
	}

	c.emitir(Evento{Tipo: EventoEjecutado, Slot: slot, PID: pcb.PID, PC: pcb.PC})

	switch {
	case pcb.Terminado():
		c.finalizar(slot, nil)
		c.despachar(slot)
	case c.restante <= 0:
		c.expropiar(slot)
		c.despachar(slot)
	}
}

func (c *CPU) expropiar(slot int) {
	pcb := c.actual
	c.cambiarEstado(EstadoExpropiando, pcb.PID)
	c.actual = nil
	// El evento sale antes de reencolar: después el proceso ya puede ser de otra CPU
	c.emitir(Evento{Tipo: EventoExpropiado, Slot: slot, PID: pcb.PID, PC: pcb.PC})
	c.deps.Planificador.Devolver(pcb)
}

// finalizar destruye el proceso actual. Con err != nil el proceso se aborta.
func (c *CPU) finalizar(slot int, err error) {
	pcb := c.actual
	c.cambiarEstado(EstadoFinalizando, pcb.PID)
	c.actual = nil

	pcb.CambiarEstado(proceso.EstadoExit)
	c.deps.Memoria.Liberar(pcb.Espacio)
	pcb.Espacio = nil

	if err != nil {
		c.emitir(Evento{Tipo: EventoAbortado, Slot: slot, PID: pcb.PID, PC: pcb.PC, Error: err})
		return
	}
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Finaliza el proceso", pcb.PID))
	c.emitir(Evento{Tipo: EventoFinalizado, Slot: slot, PID: pcb.PID, PC: pcb.PC})
}

func (c *CPU) detener() {
	slot := c.deps.Reloj.SlotActual()
	c.deps.Reloj.Retirar(c.participante)
	c.cambiarEstado(EstadoDetenida, -1)
	c.emitir(Evento{Tipo: EventoDetenida, Slot: slot, PID: -1})
}

func (c *CPU) emitir(evento Evento) {
	evento.CPU = c.ID
	registrarEvento(evento)
	if c.deps.Observador != nil {
		c.deps.Observador.Notificar(evento)
	}
}

func (c *CPU) cambiarEstado(estado string, pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estado.Estado = estado
	c.estado.PID = pid
}

// Estado devuelve una copia del estado actual. Es seguro llamarlo desde otra
// goroutine.
func (c *CPU) Estado() EstadoCPU {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.estado
}
