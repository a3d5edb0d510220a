package memoria

import (
	"sort"

	"github.com/Workiva/go-datastructures/bitarray"
)

// mapaOcupacion registra qué posiciones (marcos o slots) están en uso. La
// capacidad del bitarray se redondea a bloques de 64 bits, por eso el tamaño
// real se guarda aparte.
type mapaOcupacion struct {
	bits    bitarray.BitArray
	tamanio int
	usados  int
}

func nuevoMapaOcupacion(tamanio int) *mapaOcupacion {
	return &mapaOcupacion{
		bits:    bitarray.NewBitArray(uint64(tamanio)),
		tamanio: tamanio,
	}
}

// tomar marca como ocupada la posición libre más baja
func (m *mapaOcupacion) tomar() (int, bool) {
	if m.usados >= m.tamanio {
		return -1, false
	}
	for i := 0; i < m.tamanio; i++ {
		if !m.ocupado(i) {
			m.bits.SetBit(uint64(i))
			m.usados++
			return i, true
		}
	}
	return -1, false
}

// reservar marca una posición puntual. Devuelve false si ya estaba ocupada.
func (m *mapaOcupacion) reservar(i int) bool {
	if i < 0 || i >= m.tamanio || m.ocupado(i) {
		return false
	}
	m.bits.SetBit(uint64(i))
	m.usados++
	return true
}

func (m *mapaOcupacion) liberar(i int) {
	if !m.ocupado(i) {
		return
	}
	m.bits.ClearBit(uint64(i))
	m.usados--
}

func (m *mapaOcupacion) ocupado(i int) bool {
	if i < 0 || i >= m.tamanio {
		return false
	}
	ocupado, err := m.bits.GetBit(uint64(i))
	return err == nil && ocupado
}

// ocupados devuelve las posiciones en uso en orden ascendente
func (m *mapaOcupacion) ocupados() []int {
	nums := m.bits.ToNums()
	resultado := make([]int, 0, len(nums))
	for _, n := range nums {
		if int(n) < m.tamanio {
			resultado = append(resultado, int(n))
		}
	}
	sort.Ints(resultado)
	return resultado
}

func (m *mapaOcupacion) libres() int {
	return m.tamanio - m.usados
}
