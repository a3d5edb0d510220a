package cpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/planificador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/reloj"
)

type admisionFija bool

func (a admisionFija) AdmisionCompleta() bool { return bool(a) }

type admisionAtomica struct {
	atomic.Bool
}

func (a *admisionAtomica) AdmisionCompleta() bool { return a.Load() }

type registro struct {
	mu      sync.Mutex
	eventos []Evento
}

func (r *registro) Notificar(evento Evento) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eventos = append(r.eventos, evento)
}

func (r *registro) filtrar(tipo TipoEvento) []Evento {
	r.mu.Lock()
	defer r.mu.Unlock()
	var resultado []Evento
	for _, e := range r.eventos {
		if e.Tipo == tipo {
			resultado = append(resultado, e)
		}
	}
	return resultado
}

func programaNoop(t *testing.T, instrucciones int) *proceso.Programa {
	t.Helper()
	programa, err := proceso.ParsearPrograma("noop", strings.Repeat("NOOP\n", instrucciones))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return programa
}

// correrCPUs lanza las CPUs y espera a que se detengan todas
func correrCPUs(t *testing.T, cpus []*CPU) {
	t.Helper()
	var wg sync.WaitGroup
	for _, c := range cpus {
		wg.Add(1)
		go func(c *CPU) {
			defer wg.Done()
			c.Ejecutar()
		}(c)
	}

	hecho := make(chan struct{})
	go func() {
		wg.Wait()
		close(hecho)
	}()
	select {
	case <-hecho:
	case <-time.After(5 * time.Second):
		t.Fatal("CPUs did not stop")
	}
}

func TestCPU_TrazaQuantumDos(t *testing.T) {
	r := reloj.Nuevo()
	cola := planificador.NuevaColaUnica()
	obs := &registro{}

	cola.Admitir(proceso.NuevoPCB(1, "p1", programaNoop(t, 3), 0))
	cola.Admitir(proceso.NuevoPCB(2, "p2", programaNoop(t, 2), 0))

	c := Nueva(0, 2, Dependencias{
		Reloj:        r,
		Planificador: cola,
		Memoria:      memoria.SinPaginacion{},
		Admision:     admisionFija(true),
		Observador:   obs,
	})
	correrCPUs(t, []*CPU{c})

	esperado := []string{"0:1", "1:1", "2:2", "3:2", "4:1"}
	var obtenido []string
	for _, e := range obs.filtrar(EventoEjecutado) {
		obtenido = append(obtenido, fmt.Sprintf("%d:%d", e.Slot, e.PID))
	}
	if strings.Join(obtenido, " ") != strings.Join(esperado, " ") {
		t.Errorf("Expected steps %v, got %v", esperado, obtenido)
	}

	expropiados := obs.filtrar(EventoExpropiado)
	if len(expropiados) != 1 || expropiados[0].PID != 1 || expropiados[0].Slot != 1 {
		t.Errorf("Expected P1 preempted at slot 1, got %v", expropiados)
	}

	despachos := obs.filtrar(EventoDespachado)
	if len(despachos) != 3 || despachos[1].PID != 2 || despachos[1].Slot != 1 || despachos[2].Slot != 3 {
		t.Errorf("Unexpected dispatches: %v", despachos)
	}

	finalizados := obs.filtrar(EventoFinalizado)
	if len(finalizados) != 2 || finalizados[0].PID != 2 || finalizados[0].Slot != 3 ||
		finalizados[1].PID != 1 || finalizados[1].Slot != 4 {
		t.Errorf("Unexpected finishes: %v", finalizados)
	}

	detenidas := obs.filtrar(EventoDetenida)
	if len(detenidas) != 1 || detenidas[0].Slot != 4 {
		t.Errorf("Expected CPU to stop at slot 4, got %v", detenidas)
	}
	if estado := c.Estado(); estado.Estado != EstadoDetenida || estado.PID != -1 {
		t.Errorf("Expected DETENIDA without process, got %+v", estado)
	}
	if r.Participantes() != 0 {
		t.Errorf("Expected CPU to leave the clock, %d participants left", r.Participantes())
	}
}

func TestCPU_SinMemoriaAbortaSoloAlProceso(t *testing.T) {
	gestor, err := memoria.NuevoGestor(memoria.ConfigPaginacion{
		TamPagina:         16,
		TamMemoria:        16,
		TamSwaps:          []int{0},
		TamMemoriaVirtual: 64,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	r := reloj.Nuevo()
	cola := planificador.NuevaColaUnica()
	obs := &registro{}

	for pid := 1; pid <= 2; pid++ {
		programa, _ := proceso.ParsearPrograma("oom", fmt.Sprintf("WRITE 0 p%d\nWRITE 16 p%d\nNOOP\n", pid, pid))
		pcb := proceso.NuevoPCB(pid, "oom", programa, 0)
		pcb.Espacio = gestor.NuevoEspacio(pid)
		cola.Admitir(pcb)
	}

	c := Nueva(0, 5, Dependencias{
		Reloj:        r,
		Planificador: cola,
		Memoria:      gestor,
		Admision:     admisionFija(true),
		Observador:   obs,
	})
	correrCPUs(t, []*CPU{c})

	abortados := obs.filtrar(EventoAbortado)
	if len(abortados) != 2 {
		t.Fatalf("Expected 2 aborted processes, got %v", abortados)
	}
	for i, e := range abortados {
		if e.PID != i+1 || e.PC != 1 {
			t.Errorf("Expected PID %d aborted at PC 1, got %+v", i+1, e)
		}
		if !errors.Is(e.Error, memoria.ErrSinMemoria) {
			t.Errorf("Expected ErrSinMemoria, got %v", e.Error)
		}
	}

	// P2 corrió después de que P1 liberó su marco
	if abortados[1].Slot != 3 {
		t.Errorf("Expected P2 to abort at slot 3, got %d", abortados[1].Slot)
	}
	if estado := gestor.Instantanea(); estado.MarcosLibres != 1 {
		t.Errorf("Expected frame to be released, got %+v", estado)
	}
}

func TestCPU_VariasCPUsSinDuplicarProcesos(t *testing.T) {
	r := reloj.Nuevo()
	cola := planificador.NuevaColaUnica()

	const procesos = 10
	const pasos = 5
	for pid := 1; pid <= procesos; pid++ {
		cola.Admitir(proceso.NuevoPCB(pid, "p", programaNoop(t, pasos), 0))
	}

	var mu sync.Mutex
	duenos := make(map[int]int)
	pasosVistos := make(map[string]bool)
	pasosPorPID := make(map[int]int)
	var violaciones []string

	obs := ObservadorFunc(func(e Evento) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Tipo {
		case EventoDespachado:
			if otra, ok := duenos[e.PID]; ok {
				violaciones = append(violaciones, fmt.Sprintf("PID %d dispatched on CPU %d while held by CPU %d", e.PID, e.CPU, otra))
			}
			duenos[e.PID] = e.CPU
		case EventoExpropiado, EventoFinalizado, EventoAbortado:
			delete(duenos, e.PID)
		case EventoEjecutado:
			clave := fmt.Sprintf("%d/%d", e.Slot, e.PID)
			if pasosVistos[clave] {
				violaciones = append(violaciones, fmt.Sprintf("PID %d stepped twice in slot %d", e.PID, e.Slot))
			}
			pasosVistos[clave] = true
			pasosPorPID[e.PID]++
		}
	})

	var cpus []*CPU
	for id := 0; id < 3; id++ {
		cpus = append(cpus, Nueva(id, 1, Dependencias{
			Reloj:        r,
			Planificador: cola,
			Memoria:      memoria.SinPaginacion{},
			Admision:     admisionFija(true),
			Observador:   obs,
		}))
	}
	correrCPUs(t, cpus)

	for _, v := range violaciones {
		t.Error(v)
	}
	if len(pasosPorPID) != procesos {
		t.Errorf("Expected %d processes to run, got %d", procesos, len(pasosPorPID))
	}
	for pid, n := range pasosPorPID {
		if n != pasos {
			t.Errorf("Expected PID %d to run %d steps, got %d", pid, pasos, n)
		}
	}
	if cola.Cantidad() != 0 {
		t.Errorf("Expected empty ready queue, got %d", cola.Cantidad())
	}
}

func TestCPU_ProgramaVacioFinalizaAlDespachar(t *testing.T) {
	r := reloj.Nuevo()
	cola := planificador.NuevaColaUnica()
	obs := &registro{}

	cola.Admitir(proceso.NuevoPCB(1, "vacio", &proceso.Programa{}, 0))
	cola.Admitir(proceso.NuevoPCB(2, "uno", programaNoop(t, 1), 0))

	c := Nueva(0, 2, Dependencias{
		Reloj:        r,
		Planificador: cola,
		Memoria:      memoria.SinPaginacion{},
		Admision:     admisionFija(true),
		Observador:   obs,
	})
	correrCPUs(t, []*CPU{c})

	finalizados := obs.filtrar(EventoFinalizado)
	if len(finalizados) != 2 || finalizados[0].Slot != 0 || finalizados[1].Slot != 0 {
		t.Errorf("Expected both processes to finish at slot 0, got %v", finalizados)
	}
	if pasos := obs.filtrar(EventoEjecutado); len(pasos) != 1 || pasos[0].PID != 2 {
		t.Errorf("Expected a single step of PID 2, got %v", pasos)
	}
}

func TestCPU_EsperaAdmision(t *testing.T) {
	r := reloj.Nuevo()
	cola := planificador.NuevaColaUnica()
	obs := &registro{}
	admision := &admisionAtomica{}

	cargador := r.Registrar("cargador", reloj.FaseAdmision)
	c := Nueva(0, 2, Dependencias{
		Reloj:        r,
		Planificador: cola,
		Memoria:      memoria.SinPaginacion{},
		Admision:     admision,
		Observador:   obs,
	})

	programa := programaNoop(t, 1)
	go func() {
		r.Avanzar(cargador)
		r.Avanzar(cargador)
		cola.Admitir(proceso.NuevoPCB(1, "p1", programa, 0))
		admision.Store(true)
		r.Retirar(cargador)
	}()
	correrCPUs(t, []*CPU{c})

	despachos := obs.filtrar(EventoDespachado)
	if len(despachos) != 1 || despachos[0].Slot != 2 {
		t.Errorf("Expected dispatch at slot 2, got %v", despachos)
	}
	if detenidas := obs.filtrar(EventoDetenida); len(detenidas) != 1 || detenidas[0].Slot != 2 {
		t.Errorf("Expected CPU to stop at slot 2, got %v", detenidas)
	}
}
