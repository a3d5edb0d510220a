// Package planificador contiene la cola de listos compartida por las CPUs.
// Ninguna operación bloquea: Obtener devuelve nil si no hay procesos.
package planificador

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

const (
	AlgoritmoFIFO = "FIFO"
	AlgoritmoRR   = "RR"
	AlgoritmoMLQ  = "MLQ"
)

var ErrAlgoritmoDesconocido = errors.New("algoritmo de planificación desconocido")

type Planificador interface {
	// Admitir pasa un proceso NEW a READY al final de su cola
	Admitir(pcb *proceso.PCB)
	// Obtener saca el próximo proceso listo o nil
	Obtener() *proceso.PCB
	// Devolver reencola un proceso expropiado (EXEC -> READY)
	Devolver(pcb *proceso.PCB)
	Cantidad() int
}

// Nuevo construye el planificador según el algoritmo configurado
func Nuevo(algoritmo string, niveles int) (Planificador, error) {
	switch strings.ToUpper(algoritmo) {
	case AlgoritmoFIFO, AlgoritmoRR:
		return NuevaColaUnica(), nil
	case AlgoritmoMLQ:
		if niveles <= 0 {
			return nil, fmt.Errorf("MLQ requiere al menos un nivel de prioridad, se recibió %d", niveles)
		}
		return NuevaColaMultinivel(niveles), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAlgoritmoDesconocido, algoritmo)
	}
}

// fifo adapta la cola de Workiva. Sólo se usa con el mutex del planificador
// tomado, así Get nunca bloquea.
type fifo struct {
	q *queue.Queue
}

func nuevaFifo() *fifo {
	return &fifo{q: queue.New(16)}
}

// encolar sólo falla si la cola fue descartada; el proceso queda fuera de READY
func (f *fifo) encolar(pcb *proceso.PCB) error {
	if err := f.q.Put(pcb); err != nil {
		utils.ErrorLog.Error("No se pudo encolar el proceso", "pid", pcb.PID, "error", err)
		return fmt.Errorf("error al encolar PID %d: %w", pcb.PID, err)
	}
	return nil
}

func (f *fifo) desencolar() *proceso.PCB {
	if f.q.Empty() {
		return nil
	}
	items, err := f.q.Get(1)
	if err != nil || len(items) == 0 {
		return nil
	}
	return items[0].(*proceso.PCB)
}

func (f *fifo) cantidad() int {
	return int(f.q.Len())
}
