package proceso

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

const (
	EstadoNew   = "NEW"
	EstadoReady = "READY"
	EstadoExec  = "EXEC"
	EstadoExit  = "EXIT"
)

var transicionesValidas = map[string][]string{
	EstadoNew:   {EstadoReady},
	EstadoReady: {EstadoExec},
	EstadoExec:  {EstadoReady, EstadoExit},
}

// PCB es el bloque de control de un proceso simulado. En todo momento tiene
// un único dueño: el cargador, la cola de listos o una CPU.
type PCB struct {
	PID       int
	Estado    string
	Ruta      string
	Prioridad int
	PC        int
	Programa  *Programa

	// Espacio es nil cuando la paginación está deshabilitada
	Espacio *memoria.EspacioDirecciones

	// Tracking de ejecución
	TotalDespachos  int
	PasosEjecutados int
	// SlotUltimoPaso evita que un proceso ejecute dos pasos en el mismo slot
	SlotUltimoPaso int
}

func NuevoPCB(pid int, ruta string, programa *Programa, prioridad int) *PCB {
	pcb := &PCB{
		PID:       pid,
		Estado:    EstadoNew,
		Ruta:      ruta,
		Prioridad: prioridad,
		Programa:  programa,

		SlotUltimoPaso: -1,
	}

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Se crea el proceso - Estado: %s", pcb.PID, pcb.Estado))
	return pcb
}

// Tamanio es la cantidad de instrucciones del programa
func (pcb *PCB) Tamanio() int {
	if pcb.Programa == nil {
		return 0
	}
	return len(pcb.Programa.Instrucciones)
}

// Terminado indica si el PC alcanzó el final del programa
func (pcb *PCB) Terminado() bool {
	return pcb.PC >= pcb.Tamanio()
}

// InstruccionActual devuelve la instrucción apuntada por el PC
func (pcb *PCB) InstruccionActual() (Instruccion, bool) {
	if pcb.Terminado() {
		return Instruccion{}, false
	}
	return pcb.Programa.Instrucciones[pcb.PC], true
}

// CambiarEstado aplica la transición si es válida. Devuelve false y deja el
// estado intacto en caso contrario.
func (pcb *PCB) CambiarEstado(nuevoEstado string) bool {
	if pcb.Estado == nuevoEstado {
		return true
	}

	estadoAnterior := pcb.Estado
	valida := false
	for _, destino := range transicionesValidas[estadoAnterior] {
		if destino == nuevoEstado {
			valida = true
			break
		}
	}
	if !valida {
		utils.ErrorLog.Warn("Transición de estado inválida", "pid", pcb.PID, "desde", estadoAnterior, "hacia", nuevoEstado)
		return false
	}

	if nuevoEstado == EstadoExec {
		pcb.TotalDespachos++
	}

	pcb.Estado = nuevoEstado
	utils.InfoLog.Debug(fmt.Sprintf("(%d) - Pasa del estado %s al estado %s", pcb.PID, estadoAnterior, nuevoEstado))
	return true
}

func (pcb *PCB) String() string {
	return fmt.Sprintf("PCB{PID: %d, Estado: %s, Prioridad: %d, PC: %d/%d}",
		pcb.PID, pcb.Estado, pcb.Prioridad, pcb.PC, pcb.Tamanio())
}
