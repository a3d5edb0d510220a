// Package cargador admite los procesos configurados en el slot que les
// corresponde. Corre en su propia goroutine y participa del reloj en la fase
// de admisión, antes que las CPUs.
package cargador

import (
	"fmt"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/planificador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/reloj"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// Entrada es un proceso a admitir a partir del slot Inicio
type Entrada struct {
	Inicio    int
	Ruta      string
	Prioridad int
}

// FuenteProgramas obtiene el programa de una imagen
type FuenteProgramas interface {
	Cargar(ruta string) (*proceso.Programa, error)
}

type Cargador struct {
	entradas     []Entrada
	programas    []*proceso.Programa
	planificador planificador.Planificador
	memoria      memoria.Memoria
	reloj        *reloj.Reloj
	participante *reloj.Participante

	pendientes       atomic.Int64
	admisionCompleta atomic.Bool
}

// Nuevo carga todas las imágenes por adelantado y registra al cargador en el
// reloj. Una imagen que no se puede cargar aborta el arranque.
func Nuevo(entradas []Entrada, fuente FuenteProgramas, plan planificador.Planificador, mem memoria.Memoria, r *reloj.Reloj) (*Cargador, error) {
	c := &Cargador{
		entradas:     entradas,
		programas:    make([]*proceso.Programa, len(entradas)),
		planificador: plan,
		memoria:      mem,
		reloj:        r,
	}

	for i, entrada := range entradas {
		programa, err := fuente.Cargar(entrada.Ruta)
		if err != nil {
			return nil, fmt.Errorf("no se pudo cargar %s: %w", entrada.Ruta, err)
		}
		c.programas[i] = programa

		if i > 0 && entrada.Inicio < entradas[i-1].Inicio {
			utils.ErrorLog.Warn("Entrada fuera de orden, se admite después de la anterior",
				"archivo", entrada.Ruta, "inicio", entrada.Inicio, "inicio_anterior", entradas[i-1].Inicio)
		}
	}

	c.pendientes.Store(int64(len(entradas)))
	c.participante = r.Registrar("cargador", reloj.FaseAdmision)
	utils.InfoLog.Info("Cargador inicializado", "procesos", len(entradas))
	return c, nil
}

// Ejecutar admite las entradas en el orden de la lista, una por slot como
// máximo. Al terminar marca la admisión como completa y se retira del reloj.
func (c *Cargador) Ejecutar() {
	defer func() {
		c.admisionCompleta.Store(true)
		c.reloj.Retirar(c.participante)
		utils.InfoLog.Info("Admisión completa", "slot", c.reloj.SlotActual())
	}()

	for i, entrada := range c.entradas {
		for c.reloj.SlotActual() < entrada.Inicio {
			c.reloj.Avanzar(c.participante)
		}
		c.admitir(i+1, entrada, c.programas[i])

		// Se admite a lo sumo un proceso por slot
		if i < len(c.entradas)-1 {
			c.reloj.Avanzar(c.participante)
		}
	}
}

func (c *Cargador) admitir(pid int, entrada Entrada, programa *proceso.Programa) {
	pcb := proceso.NuevoPCB(pid, entrada.Ruta, programa, entrada.Prioridad)
	pcb.Espacio = c.memoria.NuevoEspacio(pid)

	c.planificador.Admitir(pcb)
	c.pendientes.Add(-1)
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Admitido - Slot: %d - Archivo: %s", pid, c.reloj.SlotActual(), entrada.Ruta))
}

func (c *Cargador) AdmisionCompleta() bool {
	return c.admisionCompleta.Load()
}

// Pendientes es la cantidad de entradas todavía no admitidas
func (c *Cargador) Pendientes() int {
	return int(c.pendientes.Load())
}
