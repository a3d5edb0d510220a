// Package reloj implementa el reloj global discreto del simulador: una
// barrera por slot en la que se registran las CPUs y el cargador.
//
// Un slot avanza sólo cuando todos los participantes registrados llegaron a
// la barrera. Dentro de un mismo slot los participantes de una fase menor
// trabajan antes que los de una fase mayor, así las admisiones del cargador
// para el slot N son visibles para todas las CPUs en ese mismo slot.
package reloj

import (
	"sync"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// Fase ordena a los participantes dentro de un slot
type Fase int

const (
	FaseAdmision Fase = iota
	FaseEjecucion
)

// Participante es el registro de un hilo en la barrera
type Participante struct {
	id     int
	nombre string
	fase   Fase
	llego  bool
	activo bool
}

func (p *Participante) Nombre() string {
	return p.nombre
}

type Reloj struct {
	mu            sync.Mutex
	cambio        *sync.Cond
	slot          atomic.Int64
	participantes map[int]*Participante
	llegados      int
	proximoID     int
}

func Nuevo() *Reloj {
	r := &Reloj{
		participantes: make(map[int]*Participante),
	}
	r.cambio = sync.NewCond(&r.mu)
	return r
}

// Registrar agrega un participante. Debe hacerse antes de lanzar el hilo que
// lo usa para que ningún slot avance sin él.
func (r *Reloj) Registrar(nombre string, fase Fase) *Participante {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.proximoID++
	p := &Participante{
		id:     r.proximoID,
		nombre: nombre,
		fase:   fase,
		activo: true,
	}
	r.participantes[p.id] = p

	utils.InfoLog.Debug("Participante registrado", "nombre", nombre, "fase", fase, "total", len(r.participantes))
	return p
}

// SlotActual devuelve el slot vigente sin bloquear
func (r *Reloj) SlotActual() int {
	return int(r.slot.Load())
}

// Participantes devuelve la cantidad de participantes activos
func (r *Reloj) Participantes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participantes)
}

// Esperar bloquea hasta que todos los participantes de fases anteriores
// hayan terminado el slot actual.
func (r *Reloj) Esperar(p *Participante) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.esperarTurno(p)
}

// Avanzar marca la llegada de p al slot actual, bloquea hasta que el slot
// avance y hasta que sea su turno en el slot nuevo. Devuelve el slot nuevo.
func (r *Reloj) Avanzar(p *Participante) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !p.activo {
		utils.ErrorLog.Error("Participante retirado intentó avanzar el reloj", "nombre", p.nombre)
		return r.SlotActual()
	}

	slot := r.slot.Load()
	p.llego = true
	r.llegados++

	if r.llegados == len(r.participantes) {
		r.siguienteSlot()
	} else {
		// Puede habilitar a participantes de fases posteriores
		r.cambio.Broadcast()
	}

	for r.slot.Load() == slot {
		r.cambio.Wait()
	}
	r.esperarTurno(p)
	return r.SlotActual()
}

// Retirar quita a p de la barrera para que los demás no lo esperen
func (r *Reloj) Retirar(p *Participante) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !p.activo {
		return
	}
	p.activo = false
	delete(r.participantes, p.id)
	if p.llego {
		r.llegados--
	}

	utils.InfoLog.Debug("Participante retirado", "nombre", p.nombre, "restantes", len(r.participantes), "slot", r.SlotActual())

	if len(r.participantes) > 0 && r.llegados == len(r.participantes) {
		r.siguienteSlot()
		return
	}
	r.cambio.Broadcast()
}

// siguienteSlot se llama con mu tomado
func (r *Reloj) siguienteSlot() {
	for _, p := range r.participantes {
		p.llego = false
	}
	r.llegados = 0
	nuevo := r.slot.Add(1)
	utils.InfoLog.Debug("Avanza el reloj", "slot", nuevo)
	r.cambio.Broadcast()
}

// esperarTurno se llama con mu tomado
func (r *Reloj) esperarTurno(p *Participante) {
	for r.hayPrevios(p.fase) {
		r.cambio.Wait()
	}
}

func (r *Reloj) hayPrevios(fase Fase) bool {
	for _, otro := range r.participantes {
		if otro.fase < fase && !otro.llego {
			return true
		}
	}
	return false
}
