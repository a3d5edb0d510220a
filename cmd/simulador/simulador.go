package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/cargador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/cpu"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/planificador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/reloj"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// Simulador conecta el reloj, el cargador, las CPUs y la memoria
type Simulador struct {
	config       *SimuladorConfig
	reloj        *reloj.Reloj
	planificador planificador.Planificador
	memoria      memoria.Memoria
	gestor       *memoria.Gestor
	cargador     *cargador.Cargador
	cpus         []*cpu.CPU
	monitor      *utils.ServidorMonitor
}

// EstadoSimulador es lo que expone GET /estado
type EstadoSimulador struct {
	Slot             int                    `json:"slot"`
	CPUs             []cpu.EstadoCPU        `json:"cpus"`
	Listos           int                    `json:"listos"`
	Pendientes       int                    `json:"pendientes"`
	AdmisionCompleta bool                   `json:"admision_completa"`
	Memoria          *memoria.EstadoMemoria `json:"memoria,omitempty"`
}

// NuevoSimulador arma todos los componentes. Cualquier error acá es fatal y
// ocurre antes de lanzar goroutines.
func NuevoSimulador(config *SimuladorConfig, observador cpu.Observador) (*Simulador, error) {
	plan, err := planificador.Nuevo(config.Planificador, config.NivelesPrioridad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguracion, err)
	}

	s := &Simulador{
		config:       config,
		reloj:        reloj.Nuevo(),
		planificador: plan,
		memoria:      memoria.SinPaginacion{},
	}

	if config.Paginacion {
		gestor, err := memoria.NuevoGestor(config.configPaginacion())
		if err != nil {
			return nil, fmt.Errorf("error al inicializar la memoria: %w", err)
		}
		s.gestor = gestor
		s.memoria = gestor
	}

	fuente := proceso.FuenteArchivos{Directorio: config.ScriptsPath}
	s.cargador, err = cargador.Nuevo(config.entradas(), fuente, s.planificador, s.memoria, s.reloj)
	if err != nil {
		s.Cerrar()
		return nil, err
	}

	interprete := cpu.NuevoInterprete(s.memoria, config.DumpPath, config.RetardoCPU)
	for id := 0; id < config.CantidadCPUs; id++ {
		s.cpus = append(s.cpus, cpu.Nueva(id, config.Quantum, cpu.Dependencias{
			Reloj:        s.reloj,
			Planificador: s.planificador,
			Memoria:      s.memoria,
			Interprete:   interprete,
			Admision:     s.cargador,
			Observador:   observador,
		}))
	}

	if config.PuertoMonitor > 0 {
		s.monitor = utils.NewServidorMonitor(config.IPMonitor, config.PuertoMonitor, "Simulador", func() any {
			return s.Estado()
		})
	}

	utils.InfoLog.Info("Simulador inicializado",
		"cpus", config.CantidadCPUs,
		"planificador", config.Planificador,
		"quantum", config.Quantum,
		"paginacion", config.Paginacion,
		"procesos", len(config.Procesos))
	return s, nil
}

// Ejecutar lanza el cargador y las CPUs y bloquea hasta que todas se detienen
func (s *Simulador) Ejecutar() {
	if s.monitor != nil {
		go func() {
			if err := s.monitor.Iniciar(); err != nil {
				utils.ErrorLog.Error("Error en el servidor de monitoreo", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			s.monitor.Detener(ctx)
		}()
	}

	inicio := time.Now()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.cargador.Ejecutar()
	}()

	for _, c := range s.cpus {
		wg.Add(1)
		go func(c *cpu.CPU) {
			defer wg.Done()
			c.Ejecutar()
		}(c)
	}

	wg.Wait()
	utils.InfoLog.Info("Simulación finalizada", "slots", s.reloj.SlotActual(), "duracion", time.Since(inicio).String())
}

func (s *Simulador) Estado() EstadoSimulador {
	estado := EstadoSimulador{
		Slot:             s.reloj.SlotActual(),
		Listos:           s.planificador.Cantidad(),
		Pendientes:       s.cargador.Pendientes(),
		AdmisionCompleta: s.cargador.AdmisionCompleta(),
	}
	for _, c := range s.cpus {
		estado.CPUs = append(estado.CPUs, c.Estado())
	}
	if s.gestor != nil {
		memoriaActual := s.gestor.Instantanea()
		estado.Memoria = &memoriaActual
	}
	return estado
}

// Cerrar libera los archivos de swap
func (s *Simulador) Cerrar() {
	if s.gestor == nil {
		return
	}
	if err := s.gestor.Cerrar(); err != nil {
		utils.ErrorLog.Error("Error cerrando swaps", "error", err)
	}
}
