package memoria

import (
	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// MemoriaFisica es la RAM simulada: marcos de tamPagina bytes y su bitmap
type MemoriaFisica struct {
	tamPagina int
	ocupados  *mapaOcupacion
	datos     []byte
}

func NuevaMemoriaFisica(tamPagina int, cantidadMarcos int) *MemoriaFisica {
	utils.InfoLog.Info("Memoria principal inicializada", "marcos", cantidadMarcos, "tamaño_página", tamPagina)
	return &MemoriaFisica{
		tamPagina: tamPagina,
		ocupados:  nuevoMapaOcupacion(cantidadMarcos),
		datos:     make([]byte, tamPagina*cantidadMarcos),
	}
}

func (m *MemoriaFisica) Cantidad() int {
	return m.ocupados.tamanio
}

func (m *MemoriaFisica) Libres() int {
	return m.ocupados.libres()
}

// asignar toma el marco libre de número más bajo
func (m *MemoriaFisica) asignar() (int, bool) {
	return m.ocupados.tomar()
}

// liberar devuelve el marco al bitmap dejándolo en ceros
func (m *MemoriaFisica) liberar(marco int) {
	clear(m.marco(marco))
	m.ocupados.liberar(marco)
}

// marco devuelve los bytes del marco sin copiarlos
func (m *MemoriaFisica) marco(marco int) []byte {
	inicio := marco * m.tamPagina
	return m.datos[inicio : inicio+m.tamPagina]
}

func (m *MemoriaFisica) asignados() []int {
	return m.ocupados.ocupados()
}
