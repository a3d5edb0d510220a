package planificador

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// ColaUnica es una única FIFO de listos, usada por FIFO y Round Robin. La
// diferencia entre ambos la da el quantum de la CPU.
type ColaUnica struct {
	mu     sync.Mutex
	listos *fifo
}

func NuevaColaUnica() *ColaUnica {
	return &ColaUnica{listos: nuevaFifo()}
}

func (c *ColaUnica) Admitir(pcb *proceso.PCB) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pcb.CambiarEstado(proceso.EstadoReady)
	if c.listos.encolar(pcb) != nil {
		return
	}
	utils.InfoLog.Debug("Proceso admitido en READY", "pid", pcb.PID, "listos", c.listos.cantidad())
}

func (c *ColaUnica) Obtener() *proceso.PCB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listos.desencolar()
}

func (c *ColaUnica) Devolver(pcb *proceso.PCB) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pcb.CambiarEstado(proceso.EstadoReady)
	if c.listos.encolar(pcb) != nil {
		return
	}
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Desalojado por fin de Quantum", pcb.PID))
}

func (c *ColaUnica) Cantidad() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listos.cantidad()
}
