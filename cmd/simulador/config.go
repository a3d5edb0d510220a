package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/cargador"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/planificador"
)

var ErrConfiguracion = errors.New("configuración inválida")

// EntradaProceso es un proceso a admitir. PRIORIDAD es obligatoria con MLQ.
type EntradaProceso struct {
	Inicio    int    `json:"INICIO"`
	Archivo   string `json:"ARCHIVO"`
	Prioridad *int   `json:"PRIORIDAD,omitempty"`
}

// SimuladorConfig define la configuración del simulador
type SimuladorConfig struct {
	LogLevel          string           `json:"LOG_LEVEL"`
	LogPath           string           `json:"LOG_PATH"`
	Quantum           int              `json:"QUANTUM"`
	CantidadCPUs      int              `json:"CANTIDAD_CPUS"`
	Planificador      string           `json:"PLANIFICADOR"`
	NivelesPrioridad  int              `json:"NIVELES_PRIORIDAD"`
	Paginacion        bool             `json:"PAGINACION"`
	TamPagina         int              `json:"TAM_PAGINA"`          // Tamaño de página en bytes
	TamMemoria        int              `json:"TAM_MEMORIA"`         // Tamaño de la RAM en bytes
	TamSwaps          []int            `json:"TAM_SWAPS"`           // Tamaño de cada swap en bytes
	SwapPaths         []string         `json:"SWAP_PATHS"`          // Archivo de cada swap, vacío = en memoria
	TamMemoriaVirtual int              `json:"TAM_MEMORIA_VIRTUAL"` // Tamaño del espacio de cada proceso
	ScriptsPath       string           `json:"SCRIPTS_PATH"`
	DumpPath          string           `json:"DUMP_PATH"`
	RetardoCPU        int              `json:"RETARDO_CPU"`
	RetardoSwap       int              `json:"RETARDO_SWAP"`
	IPMonitor         string           `json:"IP_MONITOR"`
	PuertoMonitor     int              `json:"PUERTO_MONITOR"`
	Procesos          []EntradaProceso `json:"PROCESOS"`
}

// Validar revisa la configuración antes de crear cualquier componente
func (c *SimuladorConfig) Validar() error {
	var errs []error
	invalido := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrConfiguracion}, args...)...))
	}

	if c.Quantum <= 0 {
		invalido("QUANTUM debe ser mayor a 0 (%d)", c.Quantum)
	}
	if c.CantidadCPUs <= 0 {
		invalido("CANTIDAD_CPUS debe ser mayor a 0 (%d)", c.CantidadCPUs)
	}

	algoritmo := strings.ToUpper(c.Planificador)
	switch algoritmo {
	case planificador.AlgoritmoFIFO, planificador.AlgoritmoRR:
	case planificador.AlgoritmoMLQ:
		if c.NivelesPrioridad <= 0 {
			invalido("NIVELES_PRIORIDAD debe ser mayor a 0 con MLQ (%d)", c.NivelesPrioridad)
		}
	default:
		invalido("PLANIFICADOR desconocido %q", c.Planificador)
	}

	for i, p := range c.Procesos {
		if p.Inicio < 0 {
			invalido("PROCESOS[%d].INICIO negativo (%d)", i, p.Inicio)
		}
		if p.Archivo == "" {
			invalido("PROCESOS[%d].ARCHIVO vacío", i)
		}
		if algoritmo == planificador.AlgoritmoMLQ && p.Prioridad == nil {
			invalido("PROCESOS[%d].PRIORIDAD es obligatoria con MLQ", i)
		}
	}

	if c.Paginacion {
		if c.TamPagina <= 0 {
			invalido("TAM_PAGINA debe ser mayor a 0 (%d)", c.TamPagina)
		}
		if c.TamMemoria < 0 {
			invalido("TAM_MEMORIA negativo (%d)", c.TamMemoria)
		}
		for i, tam := range c.TamSwaps {
			if tam < 0 {
				invalido("TAM_SWAPS[%d] negativo (%d)", i, tam)
			}
		}
		if len(c.SwapPaths) > len(c.TamSwaps) {
			invalido("SWAP_PATHS tiene más rutas (%d) que swaps (%d)", len(c.SwapPaths), len(c.TamSwaps))
		}
		if c.TamMemoriaVirtual <= 0 {
			invalido("TAM_MEMORIA_VIRTUAL debe ser mayor a 0 (%d)", c.TamMemoriaVirtual)
		}
	}

	return errors.Join(errs...)
}

func (c *SimuladorConfig) entradas() []cargador.Entrada {
	entradas := make([]cargador.Entrada, len(c.Procesos))
	for i, p := range c.Procesos {
		entradas[i] = cargador.Entrada{Inicio: p.Inicio, Ruta: p.Archivo}
		if p.Prioridad != nil {
			entradas[i].Prioridad = *p.Prioridad
		}
	}
	return entradas
}

func (c *SimuladorConfig) configPaginacion() memoria.ConfigPaginacion {
	return memoria.ConfigPaginacion{
		TamPagina:         c.TamPagina,
		TamMemoria:        c.TamMemoria,
		TamSwaps:          c.TamSwaps,
		SwapPaths:         c.SwapPaths,
		TamMemoriaVirtual: c.TamMemoriaVirtual,
		RetardoSwap:       c.RetardoSwap,
	}
}
