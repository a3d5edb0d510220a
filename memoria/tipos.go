// Package memoria implementa la memoria virtual paginada del simulador: una
// RAM de marcos fijos respaldada por uno o más almacenes de swap.
package memoria

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrSinMemoria se devuelve cuando no hay marco libre ni slot de swap
	// libre en ningún almacén. El estado de la memoria queda intacto.
	ErrSinMemoria = errors.New("sin memoria disponible")

	// ErrViolacionSegmento se devuelve cuando un acceso cae fuera de las
	// áreas del proceso o no tiene el permiso necesario.
	ErrViolacionSegmento = errors.New("violación de segmento")
)

// MaxTamanioAcceso es el mayor tamaño que acepta una lectura o escritura
const MaxTamanioAcceso = 1 << 20

// Memoria es la estrategia de memoria que usan el cargador y las CPUs. Con
// paginación la implementa Gestor y sin paginación SinPaginacion.
type Memoria interface {
	NuevoEspacio(pid int) *EspacioDirecciones
	Leer(espacio *EspacioDirecciones, direccion int, tamanio int) ([]byte, error)
	Escribir(espacio *EspacioDirecciones, direccion int, datos []byte) error
	Volcar(espacio *EspacioDirecciones, w io.Writer) error
	Liberar(espacio *EspacioDirecciones)
}

type EstadoEntrada int

const (
	Ausente EstadoEntrada = iota
	EnMarco
	EnSwap
)

func (e EstadoEntrada) String() string {
	switch e {
	case EnMarco:
		return "EN_MARCO"
	case EnSwap:
		return "EN_SWAP"
	default:
		return "AUSENTE"
	}
}

// EntradaTabla representa una entrada de la tabla de páginas. Marco sólo es
// válido en EnMarco; Dispositivo y Slot sólo en EnSwap.
type EntradaTabla struct {
	Estado      EstadoEntrada
	Marco       int
	Dispositivo int
	Slot        int
}

type Permiso uint8

const (
	PermisoLectura Permiso = 1 << iota
	PermisoEscritura

	PermisoLecturaEscritura = PermisoLectura | PermisoEscritura
)

// AreaVirtual es un rango contiguo de direcciones virtuales [Base, Base+Longitud)
type AreaVirtual struct {
	Base     int
	Longitud int
	Permisos Permiso
}

// contiene compara contra lo que queda del área para no desbordar direccion+tamanio
func (a AreaVirtual) contiene(direccion, tamanio int) bool {
	return direccion >= a.Base && direccion-a.Base <= a.Longitud && tamanio <= a.Longitud-(direccion-a.Base)
}

// MetricasProceso almacena estadísticas sobre el uso de memoria de un proceso
type MetricasProceso struct {
	AccesosTablasPaginas int
	FallosPagina         int
	BajadasSwap          int
	SubidasMemoria       int
	LecturasMemoria      int
	EscriturasMemoria    int
}

// EspacioDirecciones es el espacio virtual de un proceso. La tabla sólo la
// modifica el Gestor bajo su lock.
type EspacioDirecciones struct {
	PID      int
	Areas    []AreaVirtual
	tabla    map[int]EntradaTabla
	metricas MetricasProceso
}

func nuevoEspacio(pid int) *EspacioDirecciones {
	return &EspacioDirecciones{
		PID:   pid,
		tabla: make(map[int]EntradaTabla),
	}
}

// AgregarArea suma un área al espacio. Debe llamarse antes de que el proceso
// empiece a ejecutar.
func (e *EspacioDirecciones) AgregarArea(area AreaVirtual) {
	e.Areas = append(e.Areas, area)
}

func (e *EspacioDirecciones) verificarAcceso(direccion, tamanio int, permiso Permiso) error {
	if direccion < 0 || tamanio < 0 || tamanio > MaxTamanioAcceso {
		return fmt.Errorf("%w: PID %d dirección %d tamaño %d", ErrViolacionSegmento, e.PID, direccion, tamanio)
	}
	for _, area := range e.Areas {
		if !area.contiene(direccion, tamanio) {
			continue
		}
		if area.Permisos&permiso != permiso {
			return fmt.Errorf("%w: PID %d sin permiso en dirección %d", ErrViolacionSegmento, e.PID, direccion)
		}
		return nil
	}
	return fmt.Errorf("%w: PID %d dirección %d tamaño %d fuera de sus áreas", ErrViolacionSegmento, e.PID, direccion, tamanio)
}
