package planificador

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// ColaMultinivel tiene una FIFO por prioridad; 0 es la más alta. No hay
// envejecimiento, un nivel bajo puede quedar postergado indefinidamente.
type ColaMultinivel struct {
	mu       sync.Mutex
	niveles  []*fifo
	cantidad int
}

func NuevaColaMultinivel(niveles int) *ColaMultinivel {
	c := &ColaMultinivel{niveles: make([]*fifo, niveles)}
	for i := range c.niveles {
		c.niveles[i] = nuevaFifo()
	}
	return c
}

// nivel acota la prioridad al rango de niveles existentes
func (c *ColaMultinivel) nivel(pcb *proceso.PCB) int {
	switch {
	case pcb.Prioridad < 0:
		utils.ErrorLog.Warn("Prioridad fuera de rango, se usa la más alta", "pid", pcb.PID, "prioridad", pcb.Prioridad)
		return 0
	case pcb.Prioridad >= len(c.niveles):
		utils.ErrorLog.Warn("Prioridad fuera de rango, se usa la más baja", "pid", pcb.PID, "prioridad", pcb.Prioridad)
		return len(c.niveles) - 1
	default:
		return pcb.Prioridad
	}
}

func (c *ColaMultinivel) Admitir(pcb *proceso.PCB) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pcb.CambiarEstado(proceso.EstadoReady)
	nivel := c.nivel(pcb)
	if c.niveles[nivel].encolar(pcb) != nil {
		return
	}
	c.cantidad++
	utils.InfoLog.Debug("Proceso admitido en READY", "pid", pcb.PID, "nivel", nivel, "listos", c.cantidad)
}

func (c *ColaMultinivel) Obtener() *proceso.PCB {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cantidad == 0 {
		return nil
	}
	for _, nivel := range c.niveles {
		if pcb := nivel.desencolar(); pcb != nil {
			c.cantidad--
			return pcb
		}
	}
	return nil
}

func (c *ColaMultinivel) Devolver(pcb *proceso.PCB) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pcb.CambiarEstado(proceso.EstadoReady)
	if c.niveles[c.nivel(pcb)].encolar(pcb) != nil {
		return
	}
	c.cantidad++
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Desalojado por fin de Quantum", pcb.PID))
}

func (c *ColaMultinivel) Cantidad() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cantidad
}
