package reloj

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestReloj_AvanzaDeAUno(t *testing.T) {
	r := Nuevo()
	const participantes = 4
	const rondas = 50

	handles := make([]*Participante, participantes)
	for i := range handles {
		handles[i] = r.Registrar("cpu", FaseEjecucion)
	}

	vistos := make([][]int, participantes)
	var wg sync.WaitGroup
	for i, p := range handles {
		wg.Add(1)
		go func(i int, p *Participante) {
			defer wg.Done()
			for k := 0; k < rondas; k++ {
				vistos[i] = append(vistos[i], r.Avanzar(p))
			}
		}(i, p)
	}
	wg.Wait()

	for i, slots := range vistos {
		for k, slot := range slots {
			if slot != k+1 {
				t.Fatalf("Participant %d expected slot %d at round %d, got %d", i, k+1, k, slot)
			}
		}
	}
	if r.SlotActual() != rondas {
		t.Errorf("Expected slot %d, got %d", rondas, r.SlotActual())
	}
}

func TestReloj_RetirarDesbloquea(t *testing.T) {
	r := Nuevo()
	a := r.Registrar("a", FaseEjecucion)
	b := r.Registrar("b", FaseEjecucion)

	hecho := make(chan int)
	go func() {
		hecho <- r.Avanzar(a)
	}()

	select {
	case <-hecho:
		t.Fatal("Expected Avanzar to block while b has not arrived")
	case <-time.After(20 * time.Millisecond):
	}

	r.Retirar(b)

	select {
	case slot := <-hecho:
		if slot != 1 {
			t.Errorf("Expected slot 1, got %d", slot)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected Retirar to release the waiting participant")
	}

	if r.Participantes() != 1 {
		t.Errorf("Expected 1 participant, got %d", r.Participantes())
	}

	// Un único participante avanza solo
	if slot := r.Avanzar(a); slot != 2 {
		t.Errorf("Expected slot 2, got %d", slot)
	}
	r.Retirar(a)
	r.Retirar(a)
	if r.Participantes() != 0 {
		t.Errorf("Expected 0 participants, got %d", r.Participantes())
	}
}

func TestReloj_RetirarDespuesDeLlegar(t *testing.T) {
	r := Nuevo()
	a := r.Registrar("a", FaseEjecucion)
	b := r.Registrar("b", FaseEjecucion)
	c := r.Registrar("c", FaseEjecucion)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Avanzar(a)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Avanzar(b)
		// b se retira en el slot 1 sin volver a llegar
		r.Retirar(b)
	}()

	time.Sleep(10 * time.Millisecond)
	if slot := r.Avanzar(c); slot != 1 {
		t.Errorf("Expected slot 1, got %d", slot)
	}
	wg.Wait()

	// Sólo quedan a y c
	hecho := make(chan struct{})
	go func() {
		r.Avanzar(a)
		close(hecho)
	}()
	if slot := r.Avanzar(c); slot != 2 {
		t.Errorf("Expected slot 2, got %d", slot)
	}
	<-hecho
}

func TestReloj_FaseAdmisionPrimero(t *testing.T) {
	r := Nuevo()
	cargador := r.Registrar("cargador", FaseAdmision)
	const cpus = 3
	const rondas = 30

	var admitido atomic.Int64
	admitido.Store(-1)

	handles := make([]*Participante, cpus)
	for i := range handles {
		handles[i] = r.Registrar("cpu", FaseEjecucion)
	}

	var errores atomic.Int64
	var wg sync.WaitGroup
	for _, p := range handles {
		wg.Add(1)
		go func(p *Participante) {
			defer wg.Done()
			r.Esperar(p)
			for k := 0; k < rondas; k++ {
				if admitido.Load() != int64(r.SlotActual()) {
					errores.Add(1)
				}
				r.Avanzar(p)
			}
			r.Retirar(p)
		}(p)
	}

	for k := 0; k < rondas; k++ {
		// simula trabajo antes de admitir
		time.Sleep(time.Millisecond)
		admitido.Store(int64(r.SlotActual()))
		r.Avanzar(cargador)
	}
	r.Retirar(cargador)
	wg.Wait()

	if errores.Load() != 0 {
		t.Errorf("Expected CPUs to observe every admission of their slot, %d misses", errores.Load())
	}
}

func TestReloj_SlotActualNoBloquea(t *testing.T) {
	r := Nuevo()
	a := r.Registrar("a", FaseEjecucion)
	r.Registrar("b", FaseEjecucion)

	go r.Avanzar(a)
	time.Sleep(10 * time.Millisecond)

	hecho := make(chan int)
	go func() { hecho <- r.SlotActual() }()
	select {
	case slot := <-hecho:
		if slot != 0 {
			t.Errorf("Expected slot 0, got %d", slot)
		}
	case <-time.After(time.Second):
		t.Fatal("SlotActual blocked")
	}
}
