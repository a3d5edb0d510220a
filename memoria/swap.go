package memoria

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sisoputnfrba/tp-simulador-LosCuervosXeneizes/utils"
)

// Dispositivo es el respaldo físico de un almacén de swap
type Dispositivo interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// dispositivoMemoria guarda el swap en un slice
type dispositivoMemoria struct {
	datos []byte
}

func NuevoDispositivoMemoria(tamanio int) Dispositivo {
	return &dispositivoMemoria{datos: make([]byte, tamanio)}
}

func (d *dispositivoMemoria) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.datos)) {
		return 0, io.ErrUnexpectedEOF
	}
	return copy(p, d.datos[off:]), nil
}

func (d *dispositivoMemoria) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.datos)) {
		return 0, io.ErrShortWrite
	}
	return copy(d.datos[off:], p), nil
}

func (d *dispositivoMemoria) Close() error {
	return nil
}

// NuevoDispositivoArchivo crea (o trunca) el archivo de swap con el tamaño pedido
func NuevoDispositivoArchivo(ruta string, tamanio int) (Dispositivo, error) {
	dir := filepath.Dir(ruta)
	if err := os.MkdirAll(dir, 0755); err != nil {
		utils.ErrorLog.Error("Error creando directorio para swap", "directorio", dir, "error", err)
		return nil, fmt.Errorf("error al crear directorio para swap: %w", err)
	}

	archivo, err := os.OpenFile(ruta, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		utils.ErrorLog.Error("Error abriendo archivo SWAP", "archivo", ruta, "error", err)
		return nil, fmt.Errorf("error al abrir archivo SWAP: %w", err)
	}
	if err := archivo.Truncate(int64(tamanio)); err != nil {
		archivo.Close()
		return nil, fmt.Errorf("error al dimensionar archivo SWAP: %w", err)
	}

	utils.InfoLog.Info("Archivo de swap creado", "archivo", ruta, "tamaño", tamanio)
	return archivo, nil
}

// AlmacenSwap es un área de swap con su propio bitmap de slots
type AlmacenSwap struct {
	ID          int
	tamPagina   int
	slots       *mapaOcupacion
	dispositivo Dispositivo
	retardo     int
}

// NuevoAlmacenSwap divide el dispositivo en slots de una página. Un almacén de
// tamaño 0 existe pero nunca tiene slots libres.
func NuevoAlmacenSwap(id int, tamPagina int, tamanio int, dispositivo Dispositivo, retardoMs int) *AlmacenSwap {
	cantidad := 0
	if tamPagina > 0 {
		cantidad = tamanio / tamPagina
	}
	utils.InfoLog.Info("Almacén de swap inicializado", "id", id, "slots", cantidad)
	return &AlmacenSwap{
		ID:          id,
		tamPagina:   tamPagina,
		slots:       nuevoMapaOcupacion(cantidad),
		dispositivo: dispositivo,
		retardo:     retardoMs,
	}
}

func (a *AlmacenSwap) Slots() int {
	return a.slots.tamanio
}

func (a *AlmacenSwap) Libres() int {
	return a.slots.libres()
}

func (a *AlmacenSwap) reservarSlot() (int, bool) {
	return a.slots.tomar()
}

// reclamarSlot vuelve a ocupar un slot recién liberado
func (a *AlmacenSwap) reclamarSlot(slot int) {
	a.slots.reservar(slot)
}

func (a *AlmacenSwap) liberarSlot(slot int) {
	a.slots.liberar(slot)
}

func (a *AlmacenSwap) escribir(slot int, datos []byte) error {
	utils.AplicarRetardo("swap", a.retardo)

	offset := int64(slot) * int64(a.tamPagina)
	if _, err := a.dispositivo.WriteAt(datos[:a.tamPagina], offset); err != nil {
		utils.ErrorLog.Error("Error escribiendo en SWAP", "swap", a.ID, "offset", offset, "error", err)
		return fmt.Errorf("error al escribir en SWAP %d: %w", a.ID, err)
	}
	return nil
}

func (a *AlmacenSwap) leer(slot int, destino []byte) error {
	utils.AplicarRetardo("swap", a.retardo)

	offset := int64(slot) * int64(a.tamPagina)
	if _, err := a.dispositivo.ReadAt(destino[:a.tamPagina], offset); err != nil {
		utils.ErrorLog.Error("Error leyendo desde SWAP", "swap", a.ID, "offset", offset, "error", err)
		return fmt.Errorf("error al leer de SWAP %d: %w", a.ID, err)
	}
	return nil
}

func (a *AlmacenSwap) Cerrar() error {
	return a.dispositivo.Close()
}
