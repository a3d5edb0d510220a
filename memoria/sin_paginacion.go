package memoria

import (
	"fmt"
	"io"
)

// SinPaginacion es la variante sin memoria virtual: los procesos no tienen
// espacio de direcciones y los accesos se aceptan sin efecto.
type SinPaginacion struct{}

func (SinPaginacion) NuevoEspacio(pid int) *EspacioDirecciones {
	return nil
}

func (SinPaginacion) Leer(espacio *EspacioDirecciones, direccion int, tamanio int) ([]byte, error) {
	if tamanio < 0 || tamanio > MaxTamanioAcceso {
		return nil, fmt.Errorf("%w: tamaño de lectura %d", ErrViolacionSegmento, tamanio)
	}
	return make([]byte, tamanio), nil
}

func (SinPaginacion) Escribir(espacio *EspacioDirecciones, direccion int, datos []byte) error {
	return nil
}

func (SinPaginacion) Volcar(espacio *EspacioDirecciones, w io.Writer) error {
	return nil
}

func (SinPaginacion) Liberar(espacio *EspacioDirecciones) {}
