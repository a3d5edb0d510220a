package cpu

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/proceso"
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// Interprete ejecuta de a una instrucción por vez sobre la memoria configurada
type Interprete struct {
	Memoria    memoria.Memoria
	DumpPath   string
	RetardoCPU int
}

func NuevoInterprete(mem memoria.Memoria, dumpPath string, retardoCPU int) *Interprete {
	if dumpPath == "" {
		dumpPath = "."
	}
	return &Interprete{
		Memoria:    mem,
		DumpPath:   dumpPath,
		RetardoCPU: retardoCPU,
	}
}

// Ejecutar corre la instrucción apuntada por el PC. Sólo avanza el PC si la
// instrucción terminó bien.
func (in *Interprete) Ejecutar(pcb *proceso.PCB) error {
	instruccion, ok := pcb.InstruccionActual()
	if !ok {
		return fmt.Errorf("PID %d sin instrucción en PC %d", pcb.PID, pcb.PC)
	}

	utils.InfoLog.Debug(fmt.Sprintf("PID: %d - Ejecutando: %s", pcb.PID, instruccion))

	var err error
	switch {
	case instruccion.AccedeMemoria():
		err = in.accederMemoria(pcb, instruccion)

	case instruccion.Operacion == proceso.OpDump:
		_, err = memoria.CrearVolcado(in.Memoria, pcb.Espacio, pcb.PID, in.DumpPath)

	case instruccion.Operacion == proceso.OpNoop, instruccion.Operacion == proceso.OpCalc:

	default:
		err = fmt.Errorf("operación desconocida %q", instruccion.Operacion)
	}

	if err != nil {
		return fmt.Errorf("PID %d - %s: %w", pcb.PID, instruccion, err)
	}

	pcb.PC++
	pcb.PasosEjecutados++
	utils.AplicarRetardo("cpu", in.RetardoCPU)
	return nil
}

func (in *Interprete) accederMemoria(pcb *proceso.PCB, instruccion proceso.Instruccion) error {
	if instruccion.Operacion == proceso.OpWrite {
		if err := in.Memoria.Escribir(pcb.Espacio, instruccion.Direccion, []byte(instruccion.Dato)); err != nil {
			return err
		}
		utils.InfoLog.Info(fmt.Sprintf("PID: %d - Acción: ESCRIBIR - Dirección: %d - Valor: %s",
			pcb.PID, instruccion.Direccion, instruccion.Dato))
		return nil
	}

	datos, err := in.Memoria.Leer(pcb.Espacio, instruccion.Direccion, instruccion.Tamanio)
	if err != nil {
		return err
	}
	utils.InfoLog.Info(fmt.Sprintf("PID: %d - Acción: LEER - Dirección: %d - Valor: %q",
		pcb.PID, instruccion.Direccion, datos))
	return nil
}
